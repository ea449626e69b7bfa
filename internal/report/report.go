// Package report assembles evaluated aspects into the per-image table and
// its summary rows.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/starford/wormbox/internal/evaluator"
	"github.com/starford/wormbox/internal/models"
	"github.com/starford/wormbox/internal/stats"
)

// Row holds the reported values of one image, one per column.
type Row struct {
	Image  string         `json:"image"`
	Values []models.Value `json:"values"`
}

// Report is the final table: a header, one row per image, and the
// statistics of every column.
type Report struct {
	Columns   []string        `json:"columns"`
	Rows      []Row           `json:"rows"`
	Summaries []stats.Summary `json:"summaries"`
}

// Header returns the distinct aspect names of aspects in first-occurrence
// order.
func Header(aspects []models.Aspect) []string {
	seen := make(map[string]struct{}, len(aspects))
	var out []string
	for _, a := range aspects {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		seen[a.Name] = struct{}{}
		out = append(out, a.Name)
	}
	return out
}

// Build creates the report for images. columns lists the trait names to
// report, in order; when nil it is derived from the aspects of the images.
//
// An image carrying several aspects with the same name (pseudoreplicates)
// reports the mean of their non-NA values.
func Build(images []*models.Image, columns []string) *Report {
	sorted := make([]*models.Image, len(images))
	copy(sorted, images)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Filename < sorted[j].Filename })

	if columns == nil {
		var all []models.Aspect
		for _, img := range sorted {
			all = append(all, img.Aspects()...)
		}
		columns = Header(all)
	}

	r := &Report{
		Columns: columns,
		Rows:    make([]Row, 0, len(sorted)),
	}
	byColumn := make([][]models.Value, len(columns))
	for _, img := range sorted {
		row := Row{Image: img.Filename, Values: make([]models.Value, len(columns))}
		for i, name := range columns {
			v := evaluator.Mean(img.AspectsNamed(name))
			row.Values[i] = v
			byColumn[i] = append(byColumn[i], v)
		}
		r.Rows = append(r.Rows, row)
	}

	r.Summaries = make([]stats.Summary, len(columns))
	for i := range columns {
		r.Summaries[i] = stats.Compute(stats.Values(byColumn[i]))
	}
	return r
}

// Column returns the index of the named column.
func (r *Report) Column(name string) (int, bool) {
	for i, c := range r.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Records returns the table as text cells: the header, the image rows,
// then one row per summary statistic.
func (r *Report) Records() [][]string {
	out := make([][]string, 0, 1+len(r.Rows)+len(stats.Labels))

	header := append([]string{"image"}, r.Columns...)
	out = append(out, header)

	for _, row := range r.Rows {
		rec := make([]string, 0, 1+len(row.Values))
		rec = append(rec, row.Image)
		for _, v := range row.Values {
			rec = append(rec, v.String())
		}
		out = append(out, rec)
	}

	for li, label := range stats.Labels {
		rec := make([]string, 0, 1+len(r.Summaries))
		rec = append(rec, label)
		for _, s := range r.Summaries {
			rec = append(rec, s.Fields()[li].String())
		}
		out = append(out, rec)
	}
	return out
}

// WriteCSV writes the report as comma-separated, newline-terminated text.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(r.Records()); err != nil {
		return fmt.Errorf("report: write csv: %w", err)
	}
	return nil
}
