package domain

import (
	"time"

	"github.com/google/uuid"
)

// SourceDocument is an original uploaded document. Name is its identity
// within a session and must be unique per batch.
type SourceDocument struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Bytes       []byte `json:"-"`
}

// Size returns the document size in bytes.
func (d *SourceDocument) Size() int64 {
	return int64(len(d.Bytes))
}

// SessionInfo describes a processing session exposed over the API.
type SessionInfo struct {
	ID            uuid.UUID `json:"id"`
	DocumentCount int       `json:"document_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
