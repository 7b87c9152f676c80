package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strucgrid/bimalign/internal/config"
	"github.com/strucgrid/bimalign/internal/logging"
	"github.com/strucgrid/bimalign/internal/modelio"
	"github.com/strucgrid/bimalign/internal/pipeline"
	"github.com/strucgrid/bimalign/internal/report"
)

var watchDir string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a directory and re-run the pipeline whenever a model document changes",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "directory to watch for model document writes (required)")
	watchCmd.MarkFlagRequired("dir")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger, err := logging.New("info")
	if err != nil {
		return err
	}
	defer logger.Sync()

	params, err := config.Load(configPath)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(watchDir); err != nil {
		return fmt.Errorf("watch %s: %w", watchDir, err)
	}

	logger.Info("watching for model document changes", zap.String("dir", watchDir))

	var debounce *time.Timer
	pending := make(chan string, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path := event.Name
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				select {
				case pending <- path:
				default:
				}
			})
		case path := <-pending:
			if err := runWatchedFile(cmd, path, params, logger); err != nil {
				logger.Error("run failed", zap.String("path", path), zap.Error(err))
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", zap.Error(werr))
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}
	}
}

func runWatchedFile(cmd *cobra.Command, path string, params config.Parameters, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
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
	logger.Info("re-run complete", zap.String("path", path), zap.ByteString("summary", data))
	return nil
}
