package service_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicerecon/internal/domain"
	"invoicerecon/internal/service"
)

// pngContent returns minimal PNG bytes (magic bytes).
func pngContent() []byte {
	header := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	return append(header, bytes.Repeat([]byte{0x00}, 100)...)
}

func TestReadDocument(t *testing.T) {
	doc, err := service.ReadDocument("scan.PNG", bytes.NewReader(pngContent()), 1024)
	require.NoError(t, err)
	assert.Equal(t, "scan.PNG", doc.Name)
	assert.Equal(t, "image/png", doc.ContentType)
	assert.Equal(t, int64(108), doc.Size())

	doc, err = service.ReadDocument("bill.pdf", strings.NewReader("%PDF-1.4 body"), 1024)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
}

func TestReadDocument_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content []byte
		max     int64
		want    error
	}{
		{"extension", "notes.txt", []byte("%PDF-1.4"), 1024, domain.ErrUnsupportedFileType},
		{"magic bytes", "fake.pdf", []byte("just some text"), 1024, domain.ErrUnsupportedFileType},
		{"too large", "big.png", pngContent(), 50, domain.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ReadDocument(tt.file, bytes.NewReader(tt.content), tt.max)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIsSupportedName(t *testing.T) {
	assert.True(t, service.IsSupportedName("a.jpeg"))
	assert.True(t, service.IsSupportedName("A.JPG"))
	assert.False(t, service.IsSupportedName("a.gif"))
	assert.False(t, service.IsSupportedName("README"))
}
