package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mariolpantunes/optviewer/internal/server"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show the runs a server is currently streaming",
	Long: `Queries a running server for its open streams.
If no run-id is provided, lists all of them.
If run-id is provided, shows only that run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	runs, err := fetchRuns(strings.TrimSuffix(serverURL, "/") + "/runs")
	if err != nil {
		return err
	}

	if len(args) == 1 {
		for _, run := range runs {
			if run.ID == args[0] {
				printRun(cmd.OutOrStdout(), run, time.Now())
				return nil
			}
		}
		return fmt.Errorf("run not found: %s", args[0])
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No open streams")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Found %d open stream(s):\n\n", len(runs))
	now := time.Now()
	for _, run := range runs {
		printRun(cmd.OutOrStdout(), run, now)
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func fetchRuns(url string) ([]server.Run, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned error: %s", string(body))
	}

	var runs []server.Run
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return runs, nil
}

func printRun(w io.Writer, run server.Run, now time.Time) {
	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "  State: %s\n", run.State)
	fmt.Fprintf(w, "  %s on %s (%s), population %d\n", run.Algorithm, run.Function, run.Initializer, run.PopSize)
	if run.Epoch >= 0 {
		fmt.Fprintf(w, "  Epoch: %d / %d\n", run.Epoch+1, run.Epochs)
	} else {
		fmt.Fprintf(w, "  Epoch: - / %d\n", run.Epochs)
	}
	if run.BestScore != nil {
		fmt.Fprintf(w, "  Best Score: %.6g\n", *run.BestScore)
	}
	fmt.Fprintf(w, "  Started: %s\n", humanize.RelTime(run.StartTime, now, "ago", "from now"))
	if run.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", run.Error)
	}
}
