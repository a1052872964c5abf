package model

import "time"

// Job asks a worker to analyse one record.
type Job struct {
	ID   string // uuid assigned on submit
	File string // record name, also the dedupe key
	// Input is the already-loaded record. When nil the analyser loads
	// File from its configured source.
	Input *Input
	TS    time.Time
}

// Input carries a loaded record. Truth is nil when no annotation exists.
type Input struct {
	Series Series
	Truth  *Truth
}
