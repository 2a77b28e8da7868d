package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"invoicerecon/internal/domain"
	"invoicerecon/internal/extraction"
	"invoicerecon/internal/service"
)

// ErrCheckFailed is returned by check when the payload does not reconcile.
var ErrCheckFailed = errors.New("payload failed reconciliation")

func newCheckCommand(a *app) *cobra.Command {
	var mode, tolerance string
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Reconcile a saved extraction payload without calling the model",
		Long: `Check runs a raw model response (JSON, optionally wrapped in a code fence)
through normalization and reconciliation and prints the result as JSON.
It exits non-zero when the payload does not pass.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading payload: %w", err)
			}
			engine, err := a.engine(mode, tolerance)
			if err != nil {
				return err
			}

			// No extraction happens here, so no parser is needed.
			batch := service.NewBatchService(nil, extraction.NewNormalizer(), engine, a.log)
			src := &domain.SourceDocument{Name: filepath.Base(args[0]), ContentType: "application/json"}
			result := batch.Reconcile(src, string(raw))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(checkOutput{Result: result, Records: len(result.Records)}); err != nil {
				return err
			}
			if !result.IsPassed() {
				return ErrCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "reconciliation mode: basic or strict (default from config)")
	cmd.Flags().StringVarP(&tolerance, "tolerance", "t", "", "absolute tolerance (default per mode)")
	return cmd
}

type checkOutput struct {
	Result  any `json:"result"`
	Records int `json:"records"`
}
