package cli

import (
	"github.com/gautamkmahato/API-Weaver-Server/internal/config"
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "weaver",
		Short:        "API Weaver - OpenAPI normalization and schema inference",
		Version:      "1.0.0",
		SilenceUsage: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	config.BindCommonFlags(root)

	root.AddCommand(
		ServeCommand(),
		NormalizeCommand(),
		ValidateCommand(),
		SynthesizeCommand(),
		InspectCommand(),
	)

	return root
}
