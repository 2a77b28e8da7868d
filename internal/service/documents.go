package service

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"invoicerecon/internal/domain"
)

// ReadDocument reads one uploaded or on-disk document, enforcing the size
// limit and accepting only PDF, JPEG and PNG content. The content type is
// taken from the file's magic bytes, not from its name.
func ReadDocument(name string, r io.Reader, maxBytes int64) (*domain.SourceDocument, error) {
	if !IsSupportedName(name) {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrUnsupportedFileType)
	}

	// Read one byte past the limit to detect oversized input
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrFileTooLarge)
	}

	// Magic-byte content type detection
	detected := http.DetectContentType(data)
	if _, ok := domain.AllowedContentTypes[detected]; !ok {
		return nil, fmt.Errorf("%s (%s): %w", name, detected, domain.ErrUnsupportedFileType)
	}

	return &domain.SourceDocument{
		Name:        name,
		ContentType: detected,
		Bytes:       data,
	}, nil
}

// IsSupportedName reports whether name has an accepted document extension.
func IsSupportedName(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	_, ok := domain.AllowedExtensions[ext]
	return ok
}
