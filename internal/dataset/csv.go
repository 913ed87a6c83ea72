package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// record is one CSV row addressed by header name. Missing columns and empty
// cells read as NaN / zero / "" so that loaders never have to branch on file
// shape; sentinel handling happens in one place.
type record struct {
	header map[string]int
	fields []string
}

func (r record) text(col string) string {
	i, ok := r.header[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r record) float(col string) float64 {
	s := r.text(col)
	if s == "" || strings.EqualFold(s, "na") || strings.EqualFold(s, "nan") {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// intOr parses an integer-valued cell, tolerating float formatting ("3.0").
func (r record) intOr(col string, def int64) int64 {
	v := r.float(col)
	if math.IsNaN(v) {
		return def
	}
	return int64(v)
}

// readCSV streams every data row of a headered CSV file through fn.
// Ragged rows are tolerated; the header row fixes column positions.
func readCSV(path string, fn func(record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.FieldsPerRecord = -1
	rd.ReuseRecord = true

	head, err := rd.Read()
	if err != nil {
		return fmt.Errorf("read header %s: %w", path, err)
	}
	header := make(map[string]int, len(head))
	for i, name := range head {
		header[strings.TrimSpace(name)] = i
	}

	for {
		row, err := rd.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		fields := make([]string, len(row))
		copy(fields, row)
		if err := fn(record{header: header, fields: fields}); err != nil {
			return err
		}
	}
}
