package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/wormbox/internal/apperr"
	"github.com/starford/wormbox/internal/models"
)

func TestParseLine_Distance(t *testing.T) {
	spec, err := ParseLine("width : left ,far right ,  back\n", "config.txt", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Name != "width" {
		t.Errorf("name = %q, want %q", spec.Name, "width")
	}
	want := []string{"left", "far right", "back"}
	if strings.Join(spec.LandmarkNames, "|") != strings.Join(want, "|") {
		t.Errorf("landmarks = %q, want %q", spec.LandmarkNames, want)
	}
	if spec.ID != "width:left,far right,back" {
		t.Errorf("id = %q", spec.ID)
	}
	if spec.Kind != models.KindDistance {
		t.Errorf("kind = %v, want distance", spec.Kind)
	}
}

func TestParseLine_EquivalentSpacing(t *testing.T) {
	a, _ := ParseLine("width : left ,far right ,  back", "c", 1)
	b, _ := ParseLine("width:left,far right,back", "c", 2)
	if a.ID != b.ID {
		t.Errorf("ids differ: %q vs %q", a.ID, b.ID)
	}
}

func TestParseLine_Meristic(t *testing.T) {
	spec, err := ParseLine("hooks:count", "c", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Kind != models.KindMeristic {
		t.Errorf("kind = %v, want meristic", spec.Kind)
	}
}

func TestParseLine_Algebraic(t *testing.T) {
	spec, err := ParseLine("ratio: ${width} / {height} * {width}", "c", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Kind != models.KindAlgebraic {
		t.Fatalf("kind = %v, want algebraic", spec.Kind)
	}
	if len(spec.Variables) != 2 || spec.Variables[0] != "width" || spec.Variables[1] != "height" {
		t.Errorf("variables = %v", spec.Variables)
	}
	if spec.Expression != "${width} / {height} * {width}" {
		t.Errorf("expression = %q", spec.Expression)
	}
}

func TestParseLine_CountInsideChainIsDistance(t *testing.T) {
	spec, _ := ParseLine("x:count,1", "c", 1)
	if spec.Kind != models.KindDistance {
		t.Errorf("kind = %v, want distance", spec.Kind)
	}
}

func TestParseLine_Errors(t *testing.T) {
	cases := []string{
		"width 1,2",
		" : 1,2",
		"width:1,,2",
		"width:",
	}
	for _, line := range cases {
		_, err := ParseLine(line, "config.txt", 7)
		if err == nil {
			t.Errorf("expected error for %q", line)
			continue
		}
		var cse *apperr.ConfigSyntaxError
		if !errors.As(err, &cse) {
			t.Errorf("error type = %T for %q", err, line)
			continue
		}
		if cse.Line != 7 || cse.Source != "config.txt" {
			t.Errorf("location = %s:%d", cse.Source, cse.Line)
		}
	}
}

func TestParse_SkipsCommentsAndBlanks(t *testing.T) {
	input := "# comment\n\nwidth:2,4\n  # indented comment\nheight:3,1\nside:1,2\nside:5,4\nhooks:count\n"
	specs, err := Parse(strings.NewReader(input), "config.txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(specs) != 5 {
		t.Fatalf("len = %d, want 5", len(specs))
	}
	if specs[0].Line != 3 {
		t.Errorf("line = %d, want 3", specs[0].Line)
	}
	names := Names(specs)
	if strings.Join(names, ",") != "width,height,side,hooks" {
		t.Errorf("names = %v", names)
	}
	if specs[2].ID == specs[3].ID {
		t.Error("pseudoreplicate definitions must have distinct ids")
	}
}

func TestParse_ForwardReferenceRejected(t *testing.T) {
	input := "ratio:{width}/{height}\nwidth:1,2\nheight:3,4\n"
	_, err := Parse(strings.NewReader(input), "config.txt")
	if !errors.Is(err, apperr.ErrConfigSyntax) {
		t.Fatalf("err = %v, want ErrConfigSyntax", err)
	}
	if !strings.Contains(err.Error(), "config.txt:1") {
		t.Errorf("error should name the line: %v", err)
	}
}

func TestParse_BackwardReferenceAccepted(t *testing.T) {
	input := "width:1,2\nheight:3,4\nratio:{width}/{height}\n"
	specs, err := Parse(strings.NewReader(input), "config.txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if specs[2].Kind != models.KindAlgebraic {
		t.Errorf("kind = %v", specs[2].Kind)
	}
}

func TestParse_StableIDs(t *testing.T) {
	input := "peri:1,2,3\n"
	a, _ := Parse(strings.NewReader(input), "c")
	b, _ := Parse(strings.NewReader(input), "c")
	if a[0].ID != b[0].ID || a[0].ID != "peri:1,2,3" {
		t.Errorf("ids = %q, %q", a[0].ID, b[0].ID)
	}
}
