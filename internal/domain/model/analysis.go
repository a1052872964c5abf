package model

import "time"

// Truth holds the human-annotated intervals for one record.
type Truth struct {
	Recovery []Interval
	Drawdown []Interval
}

// Analysis is the outcome of detecting and scoring one record.
type Analysis struct {
	File        string     `json:"file"`
	JobID       string     `json:"job_id,omitempty"`
	Recovery    []Interval `json:"recovery_intervals"`
	Drawdown    []Interval `json:"drop_intervals"`
	F1Recovery  float64    `json:"f1_recovery"`
	F1Drawdown  float64    `json:"f1_drop"`
	Scored      bool       `json:"scored"`
	Samples     int        `json:"samples"`
	Padded      bool       `json:"padded"`
	CompletedAt time.Time  `json:"completed_at"`
}

// MeanF1 averages the two per-class scores.
func (a Analysis) MeanF1() float64 {
	return (a.F1Recovery + a.F1Drawdown) / 2
}
