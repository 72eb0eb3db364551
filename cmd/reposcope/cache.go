package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clean the snapshot cache",
	}
	cmd.AddCommand(newCacheLsCmd(), newCachePurgeCmd())
	return cmd
}

func newCacheLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List cached snapshots",
		RunE: func(*cobra.Command, []string) error {
			d, err := buildDeps("", "")
			if err != nil {
				return err
			}
			entries, err := d.store.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tFETCHED\tSIZE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", e.Username, e.FetchedAt.Format(time.RFC3339), e.SizeBytes)
			}
			return tw.Flush()
		},
	}
}

func newCachePurgeCmd() *cobra.Command {
	var olderThan string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove stale cached snapshots",
		RunE: func(*cobra.Command, []string) error {
			d, err := buildDeps("", "")
			if err != nil {
				return err
			}
			removed, err := d.store.InvalidateOlderThan(mustDuration(olderThan, 7*24*time.Hour))
			if err != nil {
				return err
			}
			fmt.Printf("removed %d snapshot(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&olderThan, "older-than", "168h", "drop entries fetched longer ago than this")
	return cmd
}
