package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/welltest/internal/domain/model"
)

// SeriesHeader and TruthHeader are the column names of record and annotation
// files.
var (
	SeriesHeader = []string{"time", "pressure"}
	TruthHeader  = []string{"recovery", "drop"}
)

// WriteSeries writes s as a two-column CSV with a header row.
func WriteSeries(w io.Writer, s model.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SeriesHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, 2)
	for i := range s.Time {
		row[0] = strconv.FormatFloat(s.Time[i], 'g', -1, 64)
		row[1] = strconv.FormatFloat(s.Pressure[i], 'g', -1, 64)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTruth writes an annotation file readable by ingest.ReadTruth.
func WriteTruth(w io.Writer, t model.Truth) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TruthHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.Write([]string{FormatIntervals(t.Recovery), FormatIntervals(t.Drawdown)}); err != nil {
		return fmt.Errorf("write truth: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
