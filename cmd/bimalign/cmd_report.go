package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/logging"
	"github.com/strucgrid/bimalign/internal/modelio"
	"github.com/strucgrid/bimalign/internal/pipeline"
	"github.com/strucgrid/bimalign/internal/report"
)

var reportInputPath string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the pipeline and print a displacement/edit-count summary",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportInputPath, "input", "", "path to the input JSON model document (required)")
	reportCmd.MarkFlagRequired("input")
}

func runReport(cmd *cobra.Command, args []string) error {
	logger, err := logging.New("info")
	if err != nil {
		return err
	}
	defer logger.Sync()

	params, err := config.Load(configPath)
	if err != nil {
		return err
	}

	f, err := os.Open(reportInputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	elements, err := modelio.Ingest(f)
	if err != nil {
		return err
	}

	out, err := pipeline.Run(cmd.Context(), logger, elements, params, nil, nil)
	if err != nil {
		return err
	}

	summary := report.Build(out.Vertices, out.Edits, out.Warnings)
	data, err := summary.ToJSON()
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
