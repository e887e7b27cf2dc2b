package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gautamkmahato/API-Weaver-Server/internal/config"
	"github.com/gautamkmahato/API-Weaver-Server/internal/engine"
	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/logging"
	"github.com/gautamkmahato/API-Weaver-Server/internal/resolver"
	"github.com/gautamkmahato/API-Weaver-Server/internal/validate"
	"github.com/spf13/cobra"
)

// setup loads the configuration and builds the command's logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()), nil
}

// engineOptions translates the configuration into engine options. File
// references are resolved next to file unless a base directory is
// configured.
func engineOptions(cfg *config.Config, logger *slog.Logger, file string) []engine.Option {
	baseDir := cfg.Resolver.BaseDir
	if baseDir == "" && file != "" {
		baseDir = filepath.Dir(file)
	}

	return []engine.Option{
		engine.WithLogger(logger),
		engine.WithResolverOptions(
			resolver.WithBaseDir(baseDir),
			resolver.WithRemote(cfg.Resolver.RemoteRefs),
			resolver.WithTimeout(cfg.Resolver.Timeout),
		),
		engine.WithValidateOptions(validate.WithSpecCheck(cfg.Validate.SpecCheck)),
	}
}

func readJSON(path string) (*jsonvalue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	v, err := jsonvalue.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return v, nil
}

func bindFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "json", "Output format: json, yaml")
}

// printResult writes v in the format chosen with --format.
func printResult(cmd *cobra.Command, v any) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "", "json":
		return printJSON(cmd.OutOrStdout(), v)
	case "yaml":
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		tree, err := jsonvalue.Decode(data)
		if err != nil {
			return err
		}
		out, err := jsonvalue.EncodeYAML(tree)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	default:
		return fmt.Errorf("invalid format: %s (valid: json, yaml)", format)
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
