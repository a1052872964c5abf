package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/okian/welltest/internal/domain/model"
)

// Truth file column names.
const (
	RecoveryColumn = "recovery"
	DropColumn     = "drop"
)

var (
	openBracketSpace  = regexp.MustCompile(`\[\s+`)
	closeBracketSpace = regexp.MustCompile(`\s+\]`)
	commaSpace        = regexp.MustCompile(`\s*,\s*`)
	whitespace        = regexp.MustCompile(`\s+`)
)

// ParseIntervals decodes a literal list of [start, end] pairs such as
// "[[1.5, 4], [10, 12.25]]". The text is decoded as structured data only,
// so untrusted annotation files cannot execute anything. Whitespace
// separated lists as printed by numpy ("[[1. 4.] [10. 12.]]") are accepted
// too.
func ParseIntervals(text string) ([]model.Interval, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []model.Interval{}, nil
	}

	var raw [][]float64
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		raw = nil
		if errAlt := yaml.Unmarshal([]byte(commaSeparated(text)), &raw); errAlt != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedIntervals, err)
		}
	}

	out := make([]model.Interval, 0, len(raw))
	for i, pair := range raw {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: entry %d has %d values", ErrMalformedIntervals, i, len(pair))
		}
		iv := model.Interval{Start: pair[0], End: pair[1]}
		if !iv.Valid() {
			return nil, fmt.Errorf("%w: entry %d ends before it starts", ErrMalformedIntervals, i)
		}
		out = append(out, iv)
	}
	return out, nil
}

func commaSeparated(text string) string {
	text = openBracketSpace.ReplaceAllString(text, "[")
	text = closeBracketSpace.ReplaceAllString(text, "]")
	text = commaSpace.ReplaceAllString(text, ",")
	return whitespace.ReplaceAllString(text, ",")
}

// ReadTruth reads the first data row of an annotation CSV that has
// "recovery" and "drop" columns.
func ReadTruth(r io.Reader) (model.Truth, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return model.Truth{}, fmt.Errorf("%w: truth header: %v", ErrMalformedCSV, err)
	}
	recCol, dropCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case RecoveryColumn:
			recCol = i
		case DropColumn:
			dropCol = i
		}
	}
	if recCol < 0 || dropCol < 0 {
		return model.Truth{}, fmt.Errorf("%w: need %q and %q in %v", ErrMissingColumn, RecoveryColumn, DropColumn, header)
	}

	row, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return model.Truth{Recovery: []model.Interval{}, Drawdown: []model.Interval{}}, nil
	}
	if err != nil {
		return model.Truth{}, fmt.Errorf("%w: truth row: %v", ErrMalformedCSV, err)
	}
	if len(row) <= max(recCol, dropCol) {
		return model.Truth{}, fmt.Errorf("%w: truth row has %d fields", ErrMalformedCSV, len(row))
	}

	var truth model.Truth
	if truth.Recovery, err = ParseIntervals(row[recCol]); err != nil {
		return model.Truth{}, fmt.Errorf("recovery: %w", err)
	}
	if truth.Drawdown, err = ParseIntervals(row[dropCol]); err != nil {
		return model.Truth{}, fmt.Errorf("drop: %w", err)
	}
	return truth, nil
}
