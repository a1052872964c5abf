// Package ingest loads well-test records and their annotations from CSV.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/welltest/internal/domain/model"
)

// ReadSeries parses a two-column CSV of time and pressure. Column names are
// ignored: the first column is time, the second pressure. A header row is
// detected by its first field not being a number.
func ReadSeries(r io.Reader) (model.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var tm, p []float64
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Series{}, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
		}
		if len(rec) < 2 {
			return model.Series{}, fmt.Errorf("%w: line %d has %d fields, want 2", ErrMalformedCSV, line, len(rec))
		}

		t, errT := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		v, errV := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if errT != nil || errV != nil {
			if line == 1 {
				continue // header
			}
			return model.Series{}, fmt.Errorf("%w: line %d: %q, %q", ErrMalformedCSV, line, rec[0], rec[1])
		}
		tm = append(tm, t)
		p = append(p, v)
	}
	return model.NewSeries(tm, p)
}
