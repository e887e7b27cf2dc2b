package cli

import (
	"errors"
	"fmt"

	"github.com/gautamkmahato/API-Weaver-Server/internal/engine"
	"github.com/gautamkmahato/API-Weaver-Server/internal/validate"
	"github.com/spf13/cobra"
)

// ErrInvalidDocument is returned by the validate command when the document
// has findings.
var ErrInvalidDocument = errors.New("document is invalid")

func ValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Report every rule violation of an OpenAPI document",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	flags := cmd.Flags()
	flags.Bool("strict", false, "Report documents declaring a version other than 3.0.x")
	flags.Bool("json", false, "Print the result as JSON")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	raw, err := readJSON(args[0])
	if err != nil {
		return err
	}

	opts := engineOptions(cfg, logger, args[0])
	if strict, _ := cmd.Flags().GetBool("strict"); strict {
		opts = append(opts, engine.WithValidateOptions(validate.WithStrict(true)))
	}

	result, err := engine.New(opts...).Validate(cmd.Context(), raw)
	if err != nil {
		return fmt.Errorf("validating %s: %w", args[0], err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		if s := result.Summary; s != nil {
			cmd.PrintErrf("Loaded OpenAPI %s: %s v%s\n", s.Version, s.Info.Title, s.Info.Version)
		}
		for _, f := range result.Errors {
			fmt.Fprintln(cmd.OutOrStdout(), f.String())
		}
		if result.Valid {
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
		}
	}

	if !result.Valid {
		return fmt.Errorf("%w: %d findings", ErrInvalidDocument, len(result.Errors))
	}
	return nil
}
