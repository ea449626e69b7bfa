// Package parser turns aspects-file lines into aspect definitions.
//
// Format, one definition per line:
//
//	name : landmark, landmark, ...
//	hooks : count
//	ratio : {width} / {height}
//
// Lines starting with "#" and blank lines are ignored.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/starford/wormbox/internal/apperr"
	"github.com/starford/wormbox/internal/models"
)

// MeristicToken marks an aspect that counts its own landmarks.
const MeristicToken = "count"

var placeholderRe = regexp.MustCompile(`\$?\{(.*?)\}`)

// ParseLine parses a single non-comment, non-blank line. source and lineNo
// are only used for error reporting.
func ParseLine(line, source string, lineNo int) (models.AspectSpec, error) {
	fail := func(format string, args ...any) (models.AspectSpec, error) {
		return models.AspectSpec{}, &apperr.ConfigSyntaxError{
			Source: source,
			Line:   lineNo,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	text := strings.TrimRight(line, "\r\n")
	i := strings.Index(text, ":")
	if i < 0 {
		return fail("missing ':' separator in %q", text)
	}
	name := strings.TrimSpace(text[:i])
	if name == "" {
		return fail("empty aspect name")
	}

	raw := strings.Split(text[i+1:], ",")
	names := make([]string, 0, len(raw))
	for _, lm := range raw {
		lm = strings.TrimSpace(lm)
		if lm == "" {
			return fail("empty landmark name in %q", text)
		}
		names = append(names, lm)
	}

	spec := models.AspectSpec{
		ID:            models.SpecID(name, names),
		Name:          name,
		LandmarkNames: names,
		Kind:          models.KindDistance,
		Source:        source,
		Line:          lineNo,
	}

	if len(names) == 1 {
		if vars := extractVariables(names[0]); len(vars) > 0 {
			spec.Kind = models.KindAlgebraic
			spec.Expression = names[0]
			spec.Variables = vars
		} else if names[0] == MeristicToken {
			spec.Kind = models.KindMeristic
		}
	}
	return spec, nil
}

// Parse reads every definition from r. Algebraic definitions may only
// reference aspect names defined on earlier lines, so file order is a
// valid evaluation order.
func Parse(r io.Reader, source string) ([]models.AspectSpec, error) {
	sc := bufio.NewScanner(r)
	defined := make(map[string]struct{})
	var specs []models.AspectSpec
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		spec, err := ParseLine(line, source, lineNo)
		if err != nil {
			return nil, err
		}
		for _, v := range spec.Variables {
			if _, ok := defined[v]; !ok {
				return nil, &apperr.ConfigSyntaxError{
					Source: source,
					Line:   lineNo,
					Reason: fmt.Sprintf("aspect %q references {%s}, which is not defined on an earlier line", spec.Name, v),
				}
			}
		}
		defined[spec.Name] = struct{}{}
		specs = append(specs, spec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parser: read %s: %w", source, err)
	}
	return specs, nil
}

// Names returns the distinct aspect names of specs in first-occurrence order.
func Names(specs []models.AspectSpec) []string {
	seen := make(map[string]struct{}, len(specs))
	var out []string
	for _, s := range specs {
		if _, ok := seen[s.Name]; ok {
			continue
		}
		seen[s.Name] = struct{}{}
		out = append(out, s.Name)
	}
	return out
}

// extractVariables returns the distinct placeholder names in expr.
func extractVariables(expr string) []string {
	matches := placeholderRe.FindAllStringSubmatch(expr, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		v := strings.TrimSpace(m[1])
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
