package cli

import (
	"fmt"

	"github.com/gautamkmahato/API-Weaver-Server/internal/engine"
	"github.com/spf13/cobra"
)

func NormalizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Dereference, validate and flatten an OpenAPI document",
		Args:  cobra.ExactArgs(1),
		RunE:  runNormalize,
	}

	cmd.Flags().Bool("catalog", false, "Print only the canonical per-operation records")
	bindFormatFlag(cmd)

	return cmd
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	raw, err := readJSON(args[0])
	if err != nil {
		return err
	}

	eng := engine.New(engineOptions(cfg, logger, args[0])...)
	n, err := eng.Normalize(cmd.Context(), raw)
	if err != nil {
		return fmt.Errorf("normalizing %s: %w", args[0], err)
	}

	for _, w := range n.Warnings {
		cmd.PrintErrf("Warning: %s %s: %s\n", w.Method, w.Path, w.Message)
	}

	if catalogOnly, _ := cmd.Flags().GetBool("catalog"); catalogOnly {
		return printResult(cmd, n.Catalog)
	}
	return printResult(cmd, n)
}
