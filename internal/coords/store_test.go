package coords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wormbox/internal/apperr"
)

func TestParseRecord_Valid(t *testing.T) {
	rec, reason := ParseRecord("Parcel01a-DSCN8755.tif: 2 \t1.077\t2.300\n")
	require.Empty(t, reason)
	assert.Equal(t, "Parcel01a-DSCN8755.tif", rec.Image)
	assert.Equal(t, "2", rec.Landmark)
	assert.Equal(t, 1.077, rec.X)
	assert.Equal(t, 2.3, rec.Y)
}

func TestParseRecord_Malformed(t *testing.T) {
	cases := map[string]string{
		"no colon":      "A.tif\t1\t2",
		"two fields":    "A.tif:1\t1",
		"four fields":   "A.tif:1\t1\t2\t3",
		"bad x":         "A.tif:1\tx\t2",
		"bad y":         "A.tif:1\t1\ty",
		"empty name":    "A.tif: \t1\t2",
		"empty image":   ":1\t1\t2",
		"space instead": "A.tif:1 1 2",
		"NaN x":         "A.tif:1\tNaN\t0",
		"Inf y":         "A.tif:1\t0\tInf",
		"signed inf":    "A.tif:1\t+Infinity\t0",
		"overflow":      "A.tif:1\t1e400\t0",
		"hex float":     "A.tif:1\t0x1p3\t0",
	}
	for name, line := range cases {
		_, reason := ParseRecord(line)
		assert.NotEmpty(t, reason, "%s: expected failure for %q", name, line)
	}
}

func TestParseRecord_NonFiniteReason(t *testing.T) {
	_, reason := ParseRecord("A.tif:1\tNaN\t0")
	assert.Equal(t, `x coordinate "NaN" is not a finite number`, reason)
}

func TestIngest_GroupsByImage(t *testing.T) {
	input := "B.tif:1\t0\t0\n" +
		"A.tif:1\t0\t0\n" +
		"\n" +
		"A.tif:2\t3\t0\n" +
		"B.tif:2\t1\t1\n" +
		"A.tif:3\t3\t4\n"
	s := NewStore()
	require.NoError(t, s.Ingest(strings.NewReader(input), "a_data.txt"))
	require.Equal(t, 2, s.Len())

	images := s.Images()
	assert.Equal(t, "A.tif", images[0].Filename)
	assert.Equal(t, "B.tif", images[1].Filename)
	assert.Equal(t, []string{"1", "2", "3"}, images[0].LandmarkNames())
}

func TestIngest_MalformedIdentifiesLine(t *testing.T) {
	input := "A.tif:1\t0\t0\nA.tif:2\tnope\t0\n"
	err := NewStore().Ingest(strings.NewReader(input), "x_data.txt")
	require.ErrorIs(t, err, apperr.ErrMalformedRecord)

	var mre *apperr.MalformedRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, "x_data.txt", mre.Source)
	assert.Equal(t, 2, mre.Line)
}

func TestIngest_NaNCoordinateAborts(t *testing.T) {
	input := "A.tif:1\tNaN\t0\nA.tif:2\t3\t0\nB.tif:1\t0\t0\nB.tif:2\t1\t0\n"
	s := NewStore()
	err := s.Ingest(strings.NewReader(input), "nan_data.txt")

	var mre *apperr.MalformedRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, 1, mre.Line)
	assert.Zero(t, s.Len(), "nothing after the bad line is ingested")
}

func TestIngest_SameIdentityLastWriteWins(t *testing.T) {
	s := NewStore()
	s.Add(Record{Image: "A.tif", Landmark: "1", X: 1, Y: 1})
	s.Add(Record{Image: "A.tif", Landmark: "2", X: 2, Y: 2})
	s.Add(Record{Image: "A.tif", Landmark: "1", X: 1, Y: 1})

	img, _ := s.Image("A.tif")
	require.Len(t, img.Landmarks(), 2)
	assert.Equal(t, "1", img.Landmarks()[0].Name, "overwrite keeps position")
}

func TestIngest_RepeatedNameKeptForCounts(t *testing.T) {
	s := NewStore()
	s.Add(Record{Image: "A.tif", Landmark: "hook", X: 1, Y: 1})
	s.Add(Record{Image: "A.tif", Landmark: "hook", X: 2, Y: 5})

	img, _ := s.Image("A.tif")
	assert.Len(t, img.Landmarks(), 2)
}
