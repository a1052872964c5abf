package model

import "errors"

// Sentinel error kinds shared by the detection and scoring packages.
var (
	// ErrConfiguration marks invalid parameters or inconsistent inputs.
	// Raised before any computation starts.
	ErrConfiguration = errors.New("configuration error")
	// ErrEmptyInput is returned when a series has no samples.
	ErrEmptyInput = errors.New("empty input")
	// ErrOutOfRange marks an index window outside the series bounds.
	// Detection counts it as a rejected candidate and never returns it.
	ErrOutOfRange = errors.New("window out of range")
)
