package domain

import "errors"

var (
	ErrExternalService     = errors.New("extraction service failed")
	ErrParse               = errors.New("extraction payload is not valid JSON")
	ErrStructure           = errors.New("extraction payload is missing required sections")
	ErrToleranceExceeded   = errors.New("reconciliation checks exceeded tolerance")
	ErrSessionNotFound     = errors.New("session not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrTooManyFiles        = errors.New("too many files in one request")
	ErrNoDocuments         = errors.New("no documents supplied")
	ErrNothingToExport     = errors.New("nothing to export")
	ErrStorageDisabled     = errors.New("artifact storage is not configured")
)

// ReasonFor maps a per-document error to the FailureReason recorded on its result.
// Unknown errors are attributed to the extraction service, which is the only
// collaborator outside the parse/reconcile path.
func ReasonFor(err error) FailureReason {
	switch {
	case err == nil:
		return FailureReasonNone
	case errors.Is(err, ErrParse):
		return FailureReasonParseError
	case errors.Is(err, ErrStructure):
		return FailureReasonStructureError
	case errors.Is(err, ErrToleranceExceeded):
		return FailureReasonToleranceExceeded
	default:
		return FailureReasonExternalService
	}
}
