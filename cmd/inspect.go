package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mariolpantunes/optviewer/internal/trace"
)

var inspectEvery int

var inspectCmd = &cobra.Command{
	Use:   "inspect <trace.jsonl>",
	Short: "Summarize a JSON-lines trace written by run --trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := trace.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		entries, err := reader.ReadAll()
		if err != nil {
			return err
		}
		return printTrace(cmd.OutOrStdout(), entries, inspectEvery)
	},
}

func init() {
	inspectCmd.Flags().IntVar(&inspectEvery, "every", 10, "Show every N-th epoch (the last epoch is always shown)")
	rootCmd.AddCommand(inspectCmd)
}

func printTrace(w io.Writer, entries []trace.Entry, every int) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Trace is empty")
		return nil
	}
	every = max(every, 1)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EPOCH\tBEST\tMEAN\tBEST POINT\tELAPSED")
	best := entries[0]
	for i, e := range entries {
		if e.BestScore < best.BestScore {
			best = e
		}
		if i%every != 0 && i != len(entries)-1 {
			continue
		}
		fmt.Fprintf(tw, "%d\t%.6g\t%.6g\t(%s, %s)\t%s\n",
			e.Epoch, e.BestScore, e.MeanScore,
			humanize.FtoaWithDigits(e.BestX, 4), humanize.FtoaWithDigits(e.BestY, 4),
			humanize.SIWithDigits(e.Elapsed, 3, "s"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s epochs, best %.6g at epoch %d (%s, %s)\n",
		humanize.Comma(int64(len(entries))), best.BestScore, best.Epoch,
		humanize.FtoaWithDigits(best.BestX, 4), humanize.FtoaWithDigits(best.BestY, 4))
	return nil
}
