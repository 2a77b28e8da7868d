// Package cmd implements the recon command-line interface.
package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"invoicerecon/internal/config"
	"invoicerecon/internal/logger"
	"invoicerecon/internal/parser"
	_ "invoicerecon/internal/parser/claude"
	_ "invoicerecon/internal/parser/gemini"
	_ "invoicerecon/internal/parser/openai"
	"invoicerecon/internal/port"
	"invoicerecon/internal/reconcile"
)

// BuildInfo identifies the binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// String adds the commit and build date to release versions.
func (b BuildInfo) String() string {
	if b.Version == "" || b.Version == "dev" {
		return "dev"
	}
	return fmt.Sprintf("%s (commit %s, built %s)", b.Version, b.Commit, b.Date)
}

// ParserFactory builds the extraction chain. Tests substitute their own.
type ParserFactory func(cfg *config.ParserConfig, log logrus.FieldLogger) (port.DocumentParser, error)

// app carries state shared by every subcommand.
type app struct {
	cfgFile string
	verbose bool

	cfg       *config.Config
	log       *logrus.Logger
	newParser ParserFactory
}

// Option customizes the root command.
type Option func(*app)

// WithParserFactory replaces the extraction chain builder.
func WithParserFactory(f ParserFactory) Option {
	return func(a *app) { a.newParser = f }
}

// NewRootCommand builds the recon command tree.
func NewRootCommand(info BuildInfo, opts ...Option) *cobra.Command {
	a := &app{newParser: parser.NewChain}
	for _, o := range opts {
		o(a)
	}

	root := &cobra.Command{
		Use:   "recon",
		Short: "Invoice extraction reconciliation tool",
		Long: `Recon extracts GST invoice data with a document-understanding model and
accepts a document only when its line items add up to its stated totals.

Examples:
  recon run --input ./invoices --out ./results
  recon run --input ./invoices --mode strict --xlsx --publish
  recon check payload.json --mode strict
  recon version`,
		Version:           info.String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
	}

	// Global flags
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (optional, YAML/JSON/TOML)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newRunCommand(a), newCheckCommand(a), newVersionCommand(info))
	return root
}

// init loads configuration and logging before any subcommand runs.
func (a *app) init(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFile(a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	if a.cfgFile != "" {
		log.WithField("file", a.cfgFile).Debug("using config file")
	}
	return nil
}

// engine builds the reconciliation engine, letting non-empty flag values
// override the configured mode and tolerance.
func (a *app) engine(mode, tolerance string) (*reconcile.Engine, error) {
	if mode == "" {
		mode = a.cfg.Reconcile.Mode
	}
	if tolerance == "" {
		tolerance = a.cfg.Reconcile.Tolerance
	}
	cfg, err := reconcile.ParseConfig(mode, tolerance)
	if err != nil {
		return nil, err
	}
	return reconcile.NewEngine(cfg)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			printf(cmd.OutOrStdout(), "recon %s\n", info)
		},
	}
}
