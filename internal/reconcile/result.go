package reconcile

import (
	"invoicerecon/internal/domain"
	"invoicerecon/internal/invoice"
)

// Result is the recorded outcome for one document. A passed Result carries
// merged export rows; a failed one carries the original source document
// and never any partially parsed data.
type Result struct {
	Document         string                 `json:"document"`
	Status           domain.ResultStatus    `json:"status"`
	Reason           domain.FailureReason   `json:"reason,omitempty"`
	Error            string                 `json:"error,omitempty"`
	Checks           []CheckResult          `json:"checks,omitempty"`
	CoercionFailures []string               `json:"coercion_failures,omitempty"`
	Records          []invoice.MergedRecord `json:"-"`
	Source           *domain.SourceDocument `json:"-"`
	Err              error                  `json:"-"`
}

// Passed builds the result for an accepted document.
func Passed(document string, records []invoice.MergedRecord, checks []CheckResult) *Result {
	return &Result{
		Document: document,
		Status:   domain.ResultStatusPassed,
		Records:  records,
		Checks:   checks,
	}
}

// Failed builds the result for a rejected document. An empty reason is
// derived from err.
func Failed(src *domain.SourceDocument, reason domain.FailureReason, err error) *Result {
	if reason == domain.FailureReasonNone {
		reason = domain.ReasonFor(err)
	}
	r := &Result{
		Status: domain.ResultStatusFailed,
		Reason: reason,
		Source: src,
		Err:    err,
	}
	if src != nil {
		r.Document = src.Name
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// FromVerdict converts an engine verdict for src into a Result.
func FromVerdict(src *domain.SourceDocument, v *Verdict) *Result {
	var r *Result
	if v.Passed {
		r = Passed(src.Name, v.Records, v.Checks)
	} else {
		r = Failed(src, domain.FailureReasonToleranceExceeded, v.Err)
		r.Checks = v.Checks
	}
	r.CoercionFailures = v.CoercionFailures
	return r
}

// IsPassed reports whether the document was accepted.
func (r *Result) IsPassed() bool {
	return r.Status == domain.ResultStatusPassed
}
