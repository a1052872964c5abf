package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("result not found")
	ErrInvalidLimit = errors.New("invalid result limit")
	ErrMissingFile  = errors.New("analysis has no file name")
)
