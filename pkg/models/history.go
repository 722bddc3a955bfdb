package models

import "time"

// HistoryRecord is one finished pipeline.
type HistoryRecord struct {
	ID        int64         `json:"id"`
	RequestID string        `json:"request_id"`
	Input     string        `json:"input"`
	Output    string        `json:"output,omitempty"`
	Status    OutcomeStatus `json:"status"`
	Endpoint  string        `json:"endpoint,omitempty"`
	Cached    bool          `json:"cached"`
	Error     string        `json:"error,omitempty"`
	TotalMs   float64       `json:"total_ms"`
	CreatedAt time.Time     `json:"created_at"`
}

// HistorySummary aggregates history by status and endpoint.
type HistorySummary struct {
	Status       OutcomeStatus `json:"status"`
	Endpoint     string        `json:"endpoint"`
	RequestCount int           `json:"request_count"`
	CachedCount  int           `json:"cached_count"`
	AvgTotalMs   float64       `json:"avg_total_ms"`
}
