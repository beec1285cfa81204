package domain

import "time"

// ItemStatus enumerates per-paper outcomes.
type ItemStatus string

const (
	StatusTranslated ItemStatus = "translated"
	StatusSkipped    ItemStatus = "skipped"
	StatusFailed     ItemStatus = "failed"
)

// ItemResult records what happened to one paper reference.
type ItemResult struct {
	Position int
	URL      string
	Title    string
	Status   ItemStatus
	Err      error
}

// Reason returns the failure message, or an empty string.
func (r ItemResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// RunSummary collects the outcome of a single pipeline run.
type RunSummary struct {
	RunID       string
	Subject     string
	Mode        ListingMode
	Model       string
	ListingURL  string
	PublishedOn *time.Time
	OutputPath  string
	AlreadyDone bool
	Items       []ItemResult
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Count returns how many items ended with the given status.
func (s RunSummary) Count(status ItemStatus) int {
	n := 0
	for _, item := range s.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}
