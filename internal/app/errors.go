package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrDuplicateJob = errors.New("file already queued")
	ErrQueueFull    = errors.New("job queue full")
	ErrNoSource     = errors.New("no record source configured")
)
