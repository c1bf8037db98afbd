package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"flowcare/internal/assessment/codec"
	"flowcare/internal/assessment/legacy"
	"flowcare/internal/assessment/models"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Convert a stored assessment row (JSON) into its API view",
	Long: `Reads a storage row as JSON from a file or stdin and prints the
reconstructed API view. Legacy rows carrying assessment_data come back in the
nested shape; flattened rows come back flattened.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNormalize,
}

func runNormalize(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()
		in = f
	}

	var rec models.StorageRecord
	if err := json.NewDecoder(in).Decode(&rec); err != nil {
		return fmt.Errorf("decode storage row: %w", err)
	}

	c := codec.New(log, codec.WithMetrics(mets))
	adapter := legacy.NewAdapter(c, legacy.WithLogger(log), legacy.WithMetrics(mets))
	return writeJSON(cmd.OutOrStdout(), adapter.Reconstruct(&rec))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
