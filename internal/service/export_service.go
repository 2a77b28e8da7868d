package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/sirupsen/logrus"

	"invoicerecon/internal/archive"
	"invoicerecon/internal/config"
	"invoicerecon/internal/csvexport"
	"invoicerecon/internal/domain"
	"invoicerecon/internal/logger"
	"invoicerecon/internal/port"
	"invoicerecon/internal/reconcile"
)

// ArtifactKind names a downloadable export.
type ArtifactKind string

const (
	ArtifactPassedCSV  ArtifactKind = "passed.csv"
	ArtifactPassedXLSX ArtifactKind = "passed.xlsx"
	ArtifactFailedZIP  ArtifactKind = "failed.zip"
)

// ArtifactKinds lists every export in publishing order.
var ArtifactKinds = []ArtifactKind{ArtifactPassedCSV, ArtifactPassedXLSX, ArtifactFailedZIP}

// ParseArtifactKind validates an artifact name from a request path.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	for _, k := range ArtifactKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown export %q", s)
}

func artifactFilename(kind ArtifactKind) string {
	switch kind {
	case ArtifactPassedCSV:
		return "passed_invoices.csv"
	case ArtifactPassedXLSX:
		return "passed_invoices.xlsx"
	case ArtifactFailedZIP:
		return archive.FailedFilename
	}
	return string(kind)
}

// Artifact is a rendered export ready to be served or stored.
type Artifact struct {
	Kind        ArtifactKind `json:"kind"`
	Filename    string       `json:"filename"`
	ContentType string       `json:"content_type"`
	Data        []byte       `json:"-"`
}

// PublishedArtifact describes an artifact uploaded to object storage.
type PublishedArtifact struct {
	Kind      ArtifactKind `json:"kind"`
	Filename  string       `json:"filename"`
	Key       string       `json:"key"`
	URL       string       `json:"url"`
	ExpiresIn int64        `json:"expires_in"`
}

// ExportService renders batch summaries as downloadable artifacts and
// publishes them to object storage.
type ExportService interface {
	// Render builds one artifact. It returns domain.ErrNothingToExport when
	// the summary holds nothing of that kind.
	Render(kind ArtifactKind, summary *reconcile.BatchSummary) (*Artifact, error)
	// RenderAll builds every non-empty artifact.
	RenderAll(summary *reconcile.BatchSummary) ([]*Artifact, error)
	// Publish uploads artifacts under prefix and returns presigned URLs.
	Publish(ctx context.Context, prefix string, artifacts []*Artifact) ([]PublishedArtifact, error)
	// Unpublish removes every artifact kind stored under prefix. It is a
	// no-op when storage is disabled.
	Unpublish(ctx context.Context, prefix string) error
}

type exportService struct {
	storage port.ObjectStorage
	cfg     *config.StorageConfig
	csvBOM  bool
	log     logrus.FieldLogger
}

// NewExportService creates a new ExportService implementation. storage may
// be nil, in which case Publish returns domain.ErrStorageDisabled.
func NewExportService(
	storage port.ObjectStorage,
	storageCfg *config.StorageConfig,
	exportCfg *config.ExportConfig,
	log logrus.FieldLogger,
) ExportService {
	return &exportService{
		storage: storage,
		cfg:     storageCfg,
		csvBOM:  exportCfg.CSVBOM,
		log:     logger.Component(log, "export"),
	}
}

func (s *exportService) Render(kind ArtifactKind, summary *reconcile.BatchSummary) (*Artifact, error) {
	var buf bytes.Buffer
	a := &Artifact{Kind: kind}

	switch kind {
	case ArtifactPassedCSV:
		if len(summary.PassedRecords) == 0 {
			return nil, domain.ErrNothingToExport
		}
		if err := csvexport.WriteCSV(&buf, summary.PassedRecords, s.csvBOM); err != nil {
			return nil, fmt.Errorf("rendering CSV: %w", err)
		}
		a.Filename, a.ContentType = artifactFilename(kind), "text/csv; charset=utf-8"
	case ArtifactPassedXLSX:
		if len(summary.PassedRecords) == 0 {
			return nil, domain.ErrNothingToExport
		}
		if err := csvexport.WriteXLSX(&buf, summary.PassedRecords); err != nil {
			return nil, fmt.Errorf("rendering XLSX: %w", err)
		}
		a.Filename, a.ContentType = artifactFilename(kind), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ArtifactFailedZIP:
		if len(summary.FailedDocuments) == 0 {
			return nil, domain.ErrNothingToExport
		}
		if err := archive.WriteFailed(&buf, summary.FailedDocuments); err != nil {
			return nil, fmt.Errorf("rendering ZIP: %w", err)
		}
		a.Filename, a.ContentType = artifactFilename(kind), "application/zip"
	default:
		return nil, fmt.Errorf("unknown export %q", kind)
	}

	a.Data = buf.Bytes()
	return a, nil
}

func (s *exportService) RenderAll(summary *reconcile.BatchSummary) ([]*Artifact, error) {
	var out []*Artifact
	for _, kind := range ArtifactKinds {
		a, err := s.Render(kind, summary)
		if errors.Is(err, domain.ErrNothingToExport) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil, domain.ErrNothingToExport
	}
	return out, nil
}

func (s *exportService) Publish(ctx context.Context, prefix string, artifacts []*Artifact) ([]PublishedArtifact, error) {
	if s.storage == nil || !s.cfg.Enabled() {
		return nil, domain.ErrStorageDisabled
	}
	if len(artifacts) == 0 {
		return nil, domain.ErrNothingToExport
	}

	out := make([]PublishedArtifact, 0, len(artifacts))
	for _, a := range artifacts {
		key := s.key(prefix, a.Filename)

		s.log.WithFields(logrus.Fields{
			"bucket": s.cfg.Bucket,
			"key":    key,
			"bytes":  len(a.Data),
		}).Info("exportService.Publish: uploading artifact")

		if _, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.cfg.Bucket,
			Key:         key,
			Body:        bytes.NewReader(a.Data),
			ContentType: a.ContentType,
			Size:        int64(len(a.Data)),
			Filename:    a.Filename,
		}); err != nil {
			return nil, fmt.Errorf("publishing %s: %w", a.Filename, err)
		}

		url, err := s.storage.GetPresignedURL(ctx, s.cfg.Bucket, key, s.cfg.PresignExpiry)
		if err != nil {
			return nil, fmt.Errorf("presigning %s: %w", a.Filename, err)
		}
		out = append(out, PublishedArtifact{
			Kind:      a.Kind,
			Filename:  a.Filename,
			Key:       key,
			URL:       url,
			ExpiresIn: s.cfg.PresignExpiry,
		})
	}
	return out, nil
}

func (s *exportService) Unpublish(ctx context.Context, prefix string) error {
	if s.storage == nil || !s.cfg.Enabled() {
		return nil
	}
	for _, kind := range ArtifactKinds {
		key := s.key(prefix, artifactFilename(kind))
		if err := s.storage.Delete(ctx, s.cfg.Bucket, key); err != nil {
			return fmt.Errorf("unpublishing %s: %w", key, err)
		}
	}
	s.log.WithFields(logrus.Fields{
		"bucket": s.cfg.Bucket,
		"prefix": prefix,
	}).Info("exportService.Unpublish: artifacts removed")
	return nil
}

func (s *exportService) key(prefix, filename string) string {
	return path.Join(s.cfg.Prefix, prefix, filename)
}
