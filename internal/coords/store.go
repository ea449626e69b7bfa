// Package coords ingests digitized landmark records and groups them by image.
package coords

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/wormbox/internal/apperr"
	"github.com/starford/wormbox/internal/models"
)

// Record is one parsed coordinate line.
type Record struct {
	Image    string
	Landmark string
	X, Y     float64
}

// ParseRecord parses a line of the form
//
//	<image_filename>:<landmark_name>\t<x>\t<y>
//
// The returned reason is empty on success.
func ParseRecord(line string) (Record, string) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) != 3 {
		return Record{}, fmt.Sprintf("expected 3 tab-separated fields, got %d", len(fields))
	}
	i := strings.Index(fields[0], ":")
	if i < 0 {
		return Record{}, fmt.Sprintf("missing ':' between image and landmark in %q", fields[0])
	}
	image := fields[0][:i]
	name := strings.TrimSpace(fields[0][i+1:])
	if image == "" {
		return Record{}, "empty image filename"
	}
	if name == "" {
		return Record{}, "empty landmark name"
	}
	x, ok := parseCoord(fields[1])
	if !ok {
		return Record{}, fmt.Sprintf("x coordinate %q is not a finite number", fields[1])
	}
	y, ok := parseCoord(fields[2])
	if !ok {
		return Record{}, fmt.Sprintf("y coordinate %q is not a finite number", fields[2])
	}
	return Record{Image: image, Landmark: name, X: x, Y: y}, ""
}

// parseCoord accepts finite decimal numbers only. ParseFloat alone would
// let NaN, Inf and hex floats through.
func parseCoord(field string) (float64, bool) {
	field = strings.TrimSpace(field)
	if strings.ContainsAny(field, "xX") {
		return 0, false
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Store maps image filenames to images.
type Store struct {
	images map[string]*models.Image
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{images: make(map[string]*models.Image)}
}

// Add inserts the landmark of rec into its image, creating the image on
// first reference. Landmarks are identified by name and coordinates, so a
// repeated name at new coordinates adds a landmark rather than replacing one.
func (s *Store) Add(rec Record) {
	img, ok := s.images[rec.Image]
	if !ok {
		img = models.NewImage(rec.Image)
		s.images[rec.Image] = img
	}
	img.AddLandmark(models.Landmark{Name: rec.Landmark, X: rec.X, Y: rec.Y})
}

// Ingest reads every record from r. source names the input in errors.
// Blank lines are skipped; any other unparsable line aborts ingestion with
// a *apperr.MalformedRecordError.
func (s *Store) Ingest(r io.Reader, source string) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, reason := ParseRecord(line)
		if reason != "" {
			return &apperr.MalformedRecordError{Source: source, Line: lineNo, Reason: reason}
		}
		s.Add(rec)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("coords: read %s: %w", source, err)
	}
	return nil
}

// Image returns the image with the given filename.
func (s *Store) Image(filename string) (*models.Image, bool) {
	img, ok := s.images[filename]
	return img, ok
}

// Images returns all images sorted by filename.
func (s *Store) Images() []*models.Image {
	out := make([]*models.Image, 0, len(s.images))
	for _, img := range s.images {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out
}

// Len returns the number of images.
func (s *Store) Len() int {
	return len(s.images)
}
