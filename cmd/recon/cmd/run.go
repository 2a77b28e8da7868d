package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"invoicerecon/internal/cache"
	"invoicerecon/internal/domain"
	"invoicerecon/internal/extraction"
	"invoicerecon/internal/logger"
	"invoicerecon/internal/port"
	"invoicerecon/internal/reconcile"
	"invoicerecon/internal/service"
	s3storage "invoicerecon/internal/storage/s3"
)

type runOptions struct {
	input     string
	out       string
	mode      string
	tolerance string
	xlsx      bool
	publish   bool
}

func newRunCommand(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract and reconcile every invoice in a directory",
		Long: `Run sends every PDF, JPEG and PNG file in the input directory to the
extraction service, reconciles each result and writes:

  passed_invoices.csv   one row per line item of every passed invoice
  passed_invoices.xlsx  the same rows as a workbook (with --xlsx)
  failed_invoices.zip   the original files of every failed invoice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "directory of invoice files (required)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "directory for exported files")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "reconciliation mode: basic or strict (default from config)")
	cmd.Flags().StringVarP(&opts.tolerance, "tolerance", "t", "", "absolute tolerance (default per mode)")
	cmd.Flags().BoolVar(&opts.xlsx, "xlsx", false, "also write an XLSX workbook")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "upload exports to the configured S3 bucket")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) run(cmd *cobra.Command, opts *runOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.Component(a.log, "cli")

	engine, err := a.engine(opts.mode, opts.tolerance)
	if err != nil {
		return err
	}
	docParser, err := a.newParser(&a.cfg.Parser, logger.Component(a.log, "parser"))
	if err != nil {
		return fmt.Errorf("initializing parser: %w", err)
	}

	var storage port.ObjectStorage
	if opts.publish {
		if !a.cfg.Storage.Enabled() {
			return domain.ErrStorageDisabled
		}
		if storage, err = s3storage.NewS3Client(ctx, &a.cfg.Storage); err != nil {
			return err
		}
	}

	docs, err := scanDirectory(opts.input, a.cfg.Upload.MaxFileSizeBytes(), log)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("%s: %w", opts.input, domain.ErrNoDocuments)
	}

	batch := service.NewBatchService(docParser, extraction.NewNormalizer(), engine, a.log)
	summary, err := batch.Process(ctx, cache.NewResultCache(), docs, func(processed, total int, name string) {
		log.WithField("document", name).Infof("processing file %d of %d", processed, total)
	})
	if err != nil {
		return err
	}

	exports := service.NewExportService(storage, &a.cfg.Storage, &a.cfg.Export, a.log)
	artifacts, err := exports.RenderAll(summary)
	if err != nil && !errors.Is(err, domain.ErrNothingToExport) {
		return err
	}
	artifacts = selectArtifacts(artifacts, opts.xlsx)

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	w := cmd.OutOrStdout()
	for _, art := range artifacts {
		path := filepath.Join(opts.out, art.Filename)
		if err := os.WriteFile(path, art.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		printf(w, "wrote %s\n", path)
	}

	printSummary(w, summary)

	if opts.publish && len(artifacts) > 0 {
		runID := uuid.New().String()
		published, err := exports.Publish(ctx, "runs/"+runID, artifacts)
		if err != nil {
			return err
		}
		for _, p := range published {
			printf(w, "published %s: %s\n", p.Filename, p.URL)
		}
	}
	return nil
}

// selectArtifacts drops the workbook unless it was requested.
func selectArtifacts(all []*service.Artifact, withXLSX bool) []*service.Artifact {
	out := make([]*service.Artifact, 0, len(all))
	for _, art := range all {
		if art.Kind == service.ArtifactPassedXLSX && !withXLSX {
			continue
		}
		out = append(out, art)
	}
	return out
}

// scanDirectory reads every supported file directly inside dir, in name
// order. Files that fail validation are logged and skipped.
func scanDirectory(dir string, maxBytes int64, log logrus.FieldLogger) ([]domain.SourceDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var docs []domain.SourceDocument
	for _, e := range entries {
		if e.IsDir() || !service.IsSupportedName(e.Name()) {
			continue
		}
		doc, err := readFile(filepath.Join(dir, e.Name()), maxBytes)
		if err != nil {
			log.WithError(err).Warn("skipping file")
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func readFile(path string, maxBytes int64) (*domain.SourceDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return service.ReadDocument(filepath.Base(path), f, maxBytes)
}

func printSummary(w io.Writer, s *reconcile.BatchSummary) {
	printf(w, "\nTotal files: %d\nProcessed:   %d\nPassed:      %d\nFailed:      %d\n",
		s.Total, s.Processed, s.Passed, s.Failed)
	for _, o := range s.Outcomes {
		if o.Status == domain.ResultStatusFailed {
			printf(w, "  FAILED %s (%s): %s\n", o.Document, o.Reason, o.Error)
		}
	}
}
