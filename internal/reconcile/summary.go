package reconcile

import (
	"invoicerecon/internal/domain"
	"invoicerecon/internal/invoice"
)

// Outcome is the per-document line of a batch summary.
type Outcome struct {
	Document string               `json:"document"`
	Status   domain.ResultStatus  `json:"status"`
	Reason   domain.FailureReason `json:"reason,omitempty"`
	Error    string               `json:"error,omitempty"`
	Records  int                  `json:"records"`
	Cached   bool                 `json:"cached"`
}

// BatchSummary accumulates results across a batch. Entries are only ever
// appended.
type BatchSummary struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Passed    int `json:"passed"`
	Failed    int `json:"failed"`

	PassedRecords   []invoice.MergedRecord  `json:"-"`
	FailedDocuments []domain.SourceDocument `json:"-"`
	Outcomes        []Outcome               `json:"outcomes"`
}

// NewBatchSummary starts a summary for total documents.
func NewBatchSummary(total int) *BatchSummary {
	return &BatchSummary{Total: total, Outcomes: make([]Outcome, 0, total)}
}

// Add records r. cached marks a result served from the session cache.
func (s *BatchSummary) Add(r *Result, cached bool) {
	s.Processed++
	s.Outcomes = append(s.Outcomes, Outcome{
		Document: r.Document,
		Status:   r.Status,
		Reason:   r.Reason,
		Error:    r.Error,
		Records:  len(r.Records),
		Cached:   cached,
	})

	if r.IsPassed() {
		s.Passed++
		s.PassedRecords = append(s.PassedRecords, r.Records...)
		return
	}
	s.Failed++
	if r.Source != nil {
		s.FailedDocuments = append(s.FailedDocuments, *r.Source)
	}
}
