// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/sheet2pdf/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs, or the items of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("history-db", "sheet2pdf.db", "SQLite database written with --history-db")
	historyCmd.Flags().Int("limit", history.DefaultLimit, "number of runs to list")
	bindFlags(historyCmd.Flags(), "history")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(viper.GetString("history.history_db"))
	if err != nil {
		return err
	}
	defer store.Close()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if len(args) == 1 {
		items, err := store.Items(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ROW\tINDEX\tSTATUS\tATTEMPTS\tBYTES\tFILE\tERROR")
		for _, it := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
				it.Row, it.Index, it.Status, it.Attempts, it.Bytes, it.Filename, it.Error)
		}
		return nil
	}

	runs, err := store.RecentRuns(cmd.Context(), viper.GetInt("history.limit"))
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "RUN\tMODE\tSTARTED\tDURATION\tDOWNLOADED\tSKIPPED\tFAILED\tOUTPUT")
	for _, r := range runs {
		duration := "running"
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.Mode, r.StartedAt.Local().Format(time.DateTime), duration,
			r.Downloaded, r.Skipped, r.Failed, r.OutputDir)
	}
	return nil
}
