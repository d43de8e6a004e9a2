package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mariolpantunes/optviewer/internal/config"
)

var (
	logLevel   string
	configPath string
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "optviewer",
	Short: "Watch metaheuristic optimizers explore benchmark functions",
	Long: `optviewer streams the population of a metaheuristic optimizer (PSO, DE,
GWO, ...) over a 2D benchmark function to a browser, live, and runs the same
optimizers headless from the command line.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logger
		opts := &slog.HandlerOptions{Level: parseLevel(logLevel)}
		handler := slog.NewJSONHandler(os.Stdout, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file overlaid on the built-in defaults")
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
