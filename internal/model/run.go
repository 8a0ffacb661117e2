package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of the pipeline as recorded by the run store.
type Run struct {
	ID         string     `json:"id"`
	InputPath  string     `json:"input_path"`
	Status     RunStatus  `json:"status"`
	Stats      *RunStats  `json:"stats,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunStats summarizes a completed run.
type RunStats struct {
	RawRecords      int              `json:"raw_records"`
	CleanRecords    int              `json:"clean_records"`
	ScoredLeads     int              `json:"scored_leads"`
	ExportedLeads   int              `json:"exported_leads"`
	MeanScore       float64          `json:"mean_score"`
	Correlation     *float64         `json:"correlation,omitempty"` // nil when undefined
	Warnings        []string         `json:"warnings,omitempty"`
	LeadsByVertical map[Vertical]int `json:"leads_by_vertical"`
}
