package cli

import (
	"fmt"

	"github.com/gautamkmahato/API-Weaver-Server/internal/engine"
	"github.com/gautamkmahato/API-Weaver-Server/internal/jsonvalue"
	"github.com/gautamkmahato/API-Weaver-Server/internal/model"
	"github.com/spf13/cobra"
)

func SynthesizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Synthesize an OpenAPI document from example payloads",
		Args:  cobra.NoArgs,
		RunE:  runSynthesize,
	}

	flags := cmd.Flags()
	flags.String("input", "", "Example request payload (JSON file)")
	flags.String("output", "", "Example response payload (JSON file)")
	flags.String("params", "", "Parameter objects (JSON file holding an array)")
	flags.String("title", "", "Title of the synthesized document")
	flags.String("description", "", "Description of the synthesized document")
	flags.String("api-version", "", "Version of the synthesized document")
	bindFormatFlag(cmd)
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runSynthesize(cmd *cobra.Command, _ []string) error {
	_, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	inputFile, _ := flags.GetString("input")
	outputFile, _ := flags.GetString("output")
	paramsFile, _ := flags.GetString("params")

	var req engine.SynthesizeRequest
	if req.Input, err = readJSON(inputFile); err != nil {
		return err
	}
	if req.Output, err = readJSON(outputFile); err != nil {
		return err
	}
	if paramsFile != "" {
		params, err := readJSON(paramsFile)
		if err != nil {
			return err
		}
		if params.Kind() != jsonvalue.Array {
			return fmt.Errorf("%s: parameters must be a JSON array, got %s", paramsFile, params.Kind())
		}
		req.Parameters = params.Items()
	}

	var info model.Info
	info.Title, _ = flags.GetString("title")
	info.Description, _ = flags.GetString("description")
	info.Version, _ = flags.GetString("api-version")
	req.Info = &info

	doc, err := engine.New(engine.WithLogger(logger)).Synthesize(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("synthesizing document: %w", err)
	}

	return printResult(cmd, doc)
}
