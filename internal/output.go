package internal

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/wormbox/internal/analysis"
	"github.com/starford/wormbox/internal/index"
)

var (
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorMuted   = lipgloss.Color("#6C7A89")
)

// styles renders for w only; a writer that is not a terminal gets plain text.
type styles struct {
	success lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		success: r.NewStyle().Foreground(colorSuccess).Bold(true),
		warning: r.NewStyle().Foreground(colorWarning),
		muted:   r.NewStyle().Foreground(colorMuted),
		header:  r.NewStyle().Bold(true),
	}
}

func printResult(w io.Writer, res *analysis.Result) {
	st := newStyles(w)
	if res.Skipped {
		fmt.Fprintln(w, st.muted.Render("inputs unchanged since the last run, nothing written"))
		return
	}
	na := fmt.Sprintf("%d NA values", res.NACount)
	if res.NACount > 0 {
		na = st.warning.Render(na)
	}
	fmt.Fprintf(w, "%s %s: %d images, %d aspects, %s\n",
		st.success.Render("wrote"),
		filepath.Join(res.Folder, res.Output), res.Images, len(res.Report.Columns), na)
	if res.RunID != "" {
		fmt.Fprintln(w, st.muted.Render("run "+res.RunID))
	}
}

// printRuns writes one row per run. The header is styled after tabwriter
// has padded it so escape codes do not skew the column widths.
func printRuns(w io.Writer, rows []index.RunRow) error {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tIMAGES\tNA\tOUTPUT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Images, r.NACount, r.Output)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	header, body, _ := strings.Cut(buf.String(), "\n")
	_, err := fmt.Fprintf(w, "%s\n%s", newStyles(w).header.Render(header), body)
	return err
}
