// Package models defines the domain types for WormBox.
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NAToken is the literal written wherever a value could not be computed.
const NAToken = "NA"

// Value is a measurement that may be missing (NA).
type Value struct {
	V     float64
	Valid bool
}

// NA returns the missing-data sentinel.
func NA() Value { return Value{} }

// Num wraps a computed number.
func Num(v float64) Value { return Value{V: v, Valid: true} }

// IsNA reports whether v is missing.
func (v Value) IsNA() bool { return !v.Valid }

// String renders v as shortest decimal text or "NA".
func (v Value) String() string {
	if !v.Valid {
		return NAToken
	}
	return FormatFloat(v.V)
}

// MarshalJSON encodes NA as null and non-finite numbers as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	if math.IsInf(v.V, 0) || math.IsNaN(v.V) {
		return json.Marshal(FormatFloat(v.V))
	}
	return json.Marshal(v.V)
}

// UnmarshalJSON accepts the encodings produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = NA()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Num(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("models: value %s is neither a number nor null", data)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("models: value %q: %w", s, err)
	}
	*v = Num(f)
	return nil
}

// FormatFloat renders f the way report cells are written.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Landmark is a single digitized point on an image.
type Landmark struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Key returns the identity of the landmark within its image. Points that
// share a name but sit at different coordinates are distinct landmarks,
// which is what meristic counts rely on.
func (l Landmark) Key() string {
	return l.Name + "x" + FormatFloat(l.X) + "y" + FormatFloat(l.Y)
}

func (l Landmark) String() string {
	return fmt.Sprintf("%s(%f, %f)", l.Name, l.X, l.Y)
}

// Image groups the landmarks digitized on one specimen image and the
// aspects evaluated for it.
type Image struct {
	Filename string

	landmarks []Landmark
	lmIndex   map[string]int

	aspects []Aspect
	asIndex map[string]int
}

// NewImage creates an empty image.
func NewImage(filename string) *Image {
	return &Image{
		Filename: filename,
		lmIndex:  make(map[string]int),
		asIndex:  make(map[string]int),
	}
}

// AddLandmark attaches lm to the image. A landmark with the same identity
// replaces the earlier one in place (last write wins).
func (img *Image) AddLandmark(lm Landmark) {
	key := lm.Key()
	if i, ok := img.lmIndex[key]; ok {
		img.landmarks[i] = lm
		return
	}
	img.lmIndex[key] = len(img.landmarks)
	img.landmarks = append(img.landmarks, lm)
}

// Landmarks returns the image landmarks in insertion order.
func (img *Image) Landmarks() []Landmark {
	return img.landmarks
}

// LandmarkNames returns the landmark names in insertion order.
func (img *Image) LandmarkNames() []string {
	out := make([]string, len(img.landmarks))
	for i, lm := range img.landmarks {
		out[i] = lm.Name
	}
	return out
}

// AddAspect attaches an evaluated aspect, replacing any earlier one with
// the same id.
func (img *Image) AddAspect(a Aspect) {
	if i, ok := img.asIndex[a.ID]; ok {
		img.aspects[i] = a
		return
	}
	img.asIndex[a.ID] = len(img.aspects)
	img.aspects = append(img.aspects, a)
}

// Aspects returns the evaluated aspects in evaluation order.
func (img *Image) Aspects() []Aspect {
	return img.aspects
}

// Aspect returns the evaluated aspect with the given id.
func (img *Image) Aspect(id string) (Aspect, bool) {
	i, ok := img.asIndex[id]
	if !ok {
		return Aspect{}, false
	}
	return img.aspects[i], true
}

// AspectsNamed returns every evaluated aspect reported under name.
func (img *Image) AspectsNamed(name string) []Aspect {
	var out []Aspect
	for _, a := range img.aspects {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out
}

// Kind selects how an aspect is evaluated.
type Kind int

const (
	// KindDistance sums the distances along a chain of landmarks.
	KindDistance Kind = iota
	// KindMeristic counts landmarks named like the aspect.
	KindMeristic
	// KindAlgebraic combines other aspects through an arithmetic expression.
	KindAlgebraic
)

func (k Kind) String() string {
	switch k {
	case KindMeristic:
		return "meristic"
	case KindAlgebraic:
		return "algebraic"
	default:
		return "distance"
	}
}

// AspectSpec is one parsed line of the aspects file.
type AspectSpec struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	LandmarkNames []string `json:"landmarks"`
	Kind          Kind     `json:"-"`

	// Expression and Variables are set for algebraic aspects only.
	Expression string   `json:"expression,omitempty"`
	Variables  []string `json:"variables,omitempty"`

	Source string `json:"-"`
	Line   int    `json:"-"`
}

// SpecID builds the disambiguating id of an aspect definition.
func SpecID(name string, landmarkNames []string) string {
	return name + ":" + strings.Join(landmarkNames, ",")
}

// Aspect is an AspectSpec evaluated on one image.
type Aspect struct {
	ID        string
	Name      string
	Kind      Kind
	Landmarks []Landmark
	Equation  string
	Value     Value
}

// DataFile describes an input file found in the data folder.
type DataFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
