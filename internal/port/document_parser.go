package port

import (
	"context"
)

// ParseInput carries the data needed for document extraction.
type ParseInput struct {
	FileBytes    []byte
	ContentType  string
	DocumentName string
}

// ParseOutput is what an extraction model returned. RawText is expected,
// but not guaranteed, to be JSON in the invoice schema.
type ParseOutput struct {
	RawText    string
	ModelUsed  string
	PromptUsed string
}

// DocumentParser abstracts LLM-based document extraction.
type DocumentParser interface {
	Parse(ctx context.Context, input ParseInput) (*ParseOutput, error)
}
