// Package export writes detection results in the submission CSV layout.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/welltest/internal/domain/model"
)

// Header of the submission file.
var Header = []string{"file", "recovery", "drop"}

// WriteSubmission writes one row per analysis with both interval lists in
// literal form, e.g. "[[1.5, 4], [10, 12]]".
func WriteSubmission(w io.Writer, results []model.Analysis) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		row := []string{r.File, FormatIntervals(r.Recovery), FormatIntervals(r.Drawdown)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", r.File, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatIntervals renders intervals as a bracketed list literal.
func FormatIntervals(in []model.Interval) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, iv := range in {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		b.WriteString(strconv.FormatFloat(iv.Start, 'g', -1, 64))
		b.WriteString(", ")
		b.WriteString(strconv.FormatFloat(iv.End, 'g', -1, 64))
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}
