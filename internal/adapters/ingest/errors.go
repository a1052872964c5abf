package ingest

import "errors"

// Sentinel kinds for ingestion errors.
var (
	ErrMalformedCSV       = errors.New("malformed series csv")
	ErrMalformedIntervals = errors.New("malformed interval list")
	ErrMissingColumn      = errors.New("missing column")
)
