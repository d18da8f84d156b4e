package batch

import (
	"log/slog"

	"github.com/AinsleeWang/smart-doc-scan/internal/pipeline"
)

// buildPipeline creates a scanning pipeline from the batch configuration.
func buildPipeline(config *Config) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().WithConfig(config.Pipeline)
	if config.Workers > 0 {
		b = b.WithParallelWorkers(config.Workers)
	}
	if config.MemoryLimitBytes > 0 {
		b = b.WithMemoryLimit(config.MemoryLimitBytes)
	}
	return b.Build()
}

// progressCallback reports to the debug log and, when asked to, the terminal.
func progressCallback(config *Config) pipeline.ProgressCallback {
	fanout := pipeline.ProgressFanout{
		pipeline.NewLogProgress(slog.Default(), slog.LevelDebug, 10),
	}
	if config.ShowProgress && !config.Quiet {
		fanout = append(fanout, pipeline.NewConsoleProgress(config.ProgressWriter, pipeline.ConsoleOptions{
			Prefix: "Scanning: ",
			Redraw: config.ProgressInterval,
		}))
	}
	return fanout
}
