package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/logging"
	"github.com/strucgrid/bimalign/internal/modelio"
	"github.com/strucgrid/bimalign/internal/pipeline"
)

var (
	runInputPath  string
	runOutputPath string
	runLogLevel   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the alignment pipeline over a model document",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runInputPath, "input", "", "path to the input JSON model document (required)")
	runCmd.Flags().StringVar(&runOutputPath, "output", "", "path to write the aligned output JSON (defaults to stdout)")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	runCmd.MarkFlagRequired("input")
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(runLogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	params, err := config.Load(configPath)
	if err != nil {
		return err
	}

	f, err := os.Open(runInputPath)
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

	w := os.Stdout
	if runOutputPath != "" {
		outFile, err := os.Create(runOutputPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer outFile.Close()
		return modelio.Materialize(outFile, out.Vertices, out.Edits)
	}
	return modelio.Materialize(w, out.Vertices, out.Edits)
}
