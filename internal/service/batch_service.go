package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"invoicerecon/internal/domain"
	"invoicerecon/internal/extraction"
	"invoicerecon/internal/logger"
	"invoicerecon/internal/port"
	"invoicerecon/internal/reconcile"
)

// ProgressFunc is called after each document of a batch, in order.
type ProgressFunc func(processed, total int, document string)

// BatchService runs documents through extraction, normalization and
// reconciliation.
type BatchService interface {
	// Process handles docs sequentially. Results are looked up in and
	// stored to cache by document name, so a name already in the cache is
	// never sent to the extraction service again. Per-document failures
	// are recorded in the summary; only context cancellation returns an
	// error, together with the partial summary.
	Process(ctx context.Context, cache port.ResultCache, docs []domain.SourceDocument, progress ProgressFunc) (*reconcile.BatchSummary, error)
	// Reconcile runs an already extracted payload through the normalizer
	// and engine without calling the extraction service.
	Reconcile(src *domain.SourceDocument, raw string) *reconcile.Result
	// Engine returns the engine results are checked with.
	Engine() *reconcile.Engine
}

type batchService struct {
	parser     port.DocumentParser
	normalizer *extraction.Normalizer
	engine     *reconcile.Engine
	log        logrus.FieldLogger
}

// NewBatchService creates a new BatchService implementation.
func NewBatchService(
	docParser port.DocumentParser,
	normalizer *extraction.Normalizer,
	engine *reconcile.Engine,
	log logrus.FieldLogger,
) BatchService {
	return &batchService{
		parser:     docParser,
		normalizer: normalizer,
		engine:     engine,
		log:        logger.Component(log, "batch"),
	}
}

func (s *batchService) Engine() *reconcile.Engine { return s.engine }

func (s *batchService) Process(ctx context.Context, cache port.ResultCache, docs []domain.SourceDocument, progress ProgressFunc) (*reconcile.BatchSummary, error) {
	unique := uniqueByName(docs)
	summary := reconcile.NewBatchSummary(len(unique))

	s.log.WithFields(logrus.Fields{
		"documents":  len(unique),
		"duplicates": len(docs) - len(unique),
	}).Info("batchService.Process: starting batch")

	for i := range unique {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		doc := unique[i]

		result, cached := cache.Get(doc.Name)
		if !cached {
			var err error
			result, err = s.process(ctx, &doc)
			if err != nil {
				return summary, err
			}
			if !cache.Put(doc.Name, result) {
				// Another writer got there first; its result is the record.
				result, _ = cache.Get(doc.Name)
				cached = true
			}
		}

		summary.Add(result, cached)
		if progress != nil {
			progress(i+1, len(unique), doc.Name)
		}
	}

	s.log.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"passed":    summary.Passed,
		"failed":    summary.Failed,
	}).Info("batchService.Process: batch complete")

	return summary, nil
}

// process handles a cache miss. The returned error is non-nil only when ctx
// ended during extraction, in which case nothing must be cached.
func (s *batchService) process(ctx context.Context, doc *domain.SourceDocument) (*reconcile.Result, error) {
	log := s.log.WithField("document", doc.Name)

	output, err := s.parser.Parse(ctx, port.ParseInput{
		FileBytes:    doc.Bytes,
		ContentType:  doc.ContentType,
		DocumentName: doc.Name,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.WithError(err).Warn("batchService.process: extraction failed")
		return reconcile.Failed(doc, domain.FailureReasonExternalService,
			fmt.Errorf("%w: %w", domain.ErrExternalService, err)), nil
	}

	if output == nil || strings.TrimSpace(output.RawText) == "" {
		log.Warn("batchService.process: extraction returned nothing")
		return reconcile.Failed(doc, domain.FailureReasonExternalService,
			fmt.Errorf("%w: empty extraction", domain.ErrExternalService)), nil
	}

	log.WithField("model", output.ModelUsed).Debug("batchService.process: extraction complete")
	return s.Reconcile(doc, output.RawText), nil
}

func (s *batchService) Reconcile(src *domain.SourceDocument, raw string) *reconcile.Result {
	log := s.log.WithField("document", src.Name)

	ext, err := s.normalizer.Normalize(raw)
	if err != nil {
		log.WithError(err).Warn("batchService.Reconcile: payload rejected")
		return reconcile.Failed(src, domain.FailureReasonNone, err)
	}
	if len(ext.UnknownKeys) > 0 {
		log.WithField("keys", ext.UnknownKeys).Debug("batchService.Reconcile: ignoring unknown keys")
	}

	verdict := s.engine.Reconcile(&ext.Header, ext.LineItems)
	if len(verdict.CoercionFailures) > 0 {
		log.WithField("fields", verdict.CoercionFailures).Warn("batchService.Reconcile: non-numeric values")
	}

	result := reconcile.FromVerdict(src, verdict)
	if result.IsPassed() {
		log.WithField("records", len(result.Records)).Info("batchService.Reconcile: document passed")
	} else {
		log.WithError(result.Err).Info("batchService.Reconcile: document failed")
	}
	return result
}

// uniqueByName keeps the first document for each name, preserving order.
func uniqueByName(docs []domain.SourceDocument) []domain.SourceDocument {
	seen := make(map[string]struct{}, len(docs))
	out := make([]domain.SourceDocument, 0, len(docs))
	for i := range docs {
		if _, ok := seen[docs[i].Name]; ok {
			continue
		}
		seen[docs[i].Name] = struct{}{}
		out = append(out, docs[i])
	}
	return out
}
