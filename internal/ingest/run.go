package ingest

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run records one ingest attempt for a session date.
type Run struct {
	ID           int64     `json:"id"`
	SessionDate  time.Time `json:"sessionDate"`
	Status       Status    `json:"status"`
	SymbolsCount int       `json:"symbolsCount"`
	BarsCount    int64     `json:"barsCount"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
