package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strucgrid/bimalign/internal/model"
)

var (
	// Version information, set during build.
	Version   = "dev"
	BuildTime = "unknown"
	Commit    = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bimalign",
	Short: "Structural model alignment engine",
	Long: `bimalign discovers canonical axis-line positions from a raw
structural vertex cloud, snaps every element's vertices to those lines by
topology rather than nearest-neighbor, and applies the object-transform
rules that remove and re-emit slabs, walls, supports, and centerlines.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML parameters file")

	rootCmd.AddCommand(
		runCmd,
		reportCmd,
		watchCmd,
		serveCmd,
		versionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		var ae *model.AppError
		if errors.As(err, &ae) {
			fmt.Fprintln(os.Stderr, ae.Error())
			os.Exit(model.ExitCode(ae))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
