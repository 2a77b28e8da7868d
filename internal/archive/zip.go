// Package archive bundles failed source documents for manual review.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"invoicerecon/internal/domain"
)

// FailedFilename is the download name of the failed-documents archive.
const FailedFilename = "failed_invoices.zip"

// WriteFailed writes a ZIP containing each document's original bytes under
// its original filename. Directory components are stripped from names; when
// two documents share a base name the later ones get a " (n)" suffix.
func WriteFailed(w io.Writer, docs []domain.SourceDocument) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]struct{}, len(docs))

	for i := range docs {
		name := uniqueName(seen, entryName(docs[i].Name))
		seen[name] = struct{}{}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("adding %s to archive: %w", name, err)
		}
		if _, err := fw.Write(docs[i].Bytes); err != nil {
			return fmt.Errorf("writing %s to archive: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	return nil
}

// entryName keeps only the final path element. Browsers may send Windows
// separators in multipart filenames.
func entryName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return "document"
	}
	return base
}

func uniqueName(seen map[string]struct{}, name string) string {
	if _, dup := seen[name]; !dup {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, dup := seen[candidate]; !dup {
			return candidate
		}
	}
}
