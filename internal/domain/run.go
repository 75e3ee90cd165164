package domain

import "time"

// RunSummary describes the outcome of one pipeline run.
type RunSummary struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Plants     map[int]int `json:"plants_by_scenario,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Succeeded reports whether the run completed without error.
func (s RunSummary) Succeeded() bool { return s.Error == "" }
