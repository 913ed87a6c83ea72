package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSVFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRecordFieldAccess(t *testing.T) {
	path := writeCSVFile(t, t.TempDir(), "rows.csv",
		"id,name,score\n"+
			"1, Alpha ,0.75\n"+
			"2,Beta,\n"+
			"3,Gamma,NA\n"+
			"4,Delta,nan\n"+
			"5,Epsilon,bogus\n"+
			"6,Ragged\n")

	var got []record
	err := readCSV(path, func(r record) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 6)

	assert.Equal(t, "Alpha", got[0].text("name"))
	assert.Equal(t, 0.75, got[0].float("score"))

	// Empty, NA-ish, and unparseable cells all read as NaN.
	for _, r := range got[1:5] {
		assert.True(t, math.IsNaN(r.float("score")), "row %s", r.text("name"))
	}

	// Ragged row: the missing column reads as absent, not as an error.
	assert.Equal(t, "", got[5].text("score"))
	assert.True(t, math.IsNaN(got[5].float("score")))

	// Unknown column.
	assert.Equal(t, "", got[0].text("nope"))
	assert.True(t, math.IsNaN(got[0].float("nope")))
}

func TestRecordIntOr(t *testing.T) {
	path := writeCSVFile(t, t.TempDir(), "ints.csv",
		"unitid,division\n"+
			"100,3.0\n"+
			",2\n")

	var got []record
	err := readCSV(path, func(r record) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Float-formatted integers are tolerated; empty cells fall to the default.
	assert.Equal(t, int64(100), got[0].intOr("unitid", 0))
	assert.Equal(t, int64(3), got[0].intOr("division", 0))
	assert.Equal(t, int64(0), got[1].intOr("unitid", 0))
}

func TestReadCSVMissingFile(t *testing.T) {
	err := readCSV(filepath.Join(t.TempDir(), "absent.csv"), func(record) error { return nil })
	assert.Error(t, err)
}

func TestParseWLPct(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{".596", 0.596},
		{"0.596", 0.596},
		{"1.000", 1.0},
		{" .250 ", 0.25},
		{"", math.NaN()},
		{"n/a", math.NaN()},
		{"abc", math.NaN()},
	}
	for _, tc := range cases {
		got := ParseWLPct(tc.in)
		if math.IsNaN(tc.want) {
			assert.True(t, math.IsNaN(got), "input %q", tc.in)
			continue
		}
		assert.InDelta(t, tc.want, got, 1e-9, "input %q", tc.in)
	}
}
