package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reposcope/internal/snapshot/domain"
	"reposcope/internal/snapshot/service"
)

func newFetchCmd() *cobra.Command {
	var (
		scope          string
		token          string
		mirrorTrees    bool
		mirrorStrategy string
		concurrency    int
		refresh        bool
		out            string
	)

	cmd := &cobra.Command{
		Use:   "fetch <username>",
		Short: "Fetch a user's repositories into a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := domain.ParseScope(scope)
			if err != nil {
				return err
			}
			d, err := buildDeps(token, mirrorStrategy)
			if err != nil {
				return err
			}

			snap, err := d.service.Fetch(cmd.Context(), service.Request{
				Username:    args[0],
				Scope:       sc,
				Mirror:      mirrorTrees,
				Concurrency: concurrency,
				Refresh:     refresh,
			}, func(p domain.Progress) {
				fmt.Fprintf(os.Stderr, "[%3d%%] %-18s %s\n", p.Percent, p.State, p.Message)
			})
			if err != nil {
				return err
			}
			return writeSnapshot(snap, out)
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "single", "repositories to fetch: single, public, all, private")
	cmd.Flags().StringVar(&token, "token", "", "GitHub token (defaults to REPOSCOPE_GITHUB_TOKEN or GITHUB_TOKEN)")
	cmd.Flags().BoolVar(&mirrorTrees, "mirror", false, "download each repository's working tree")
	cmd.Flags().StringVar(&mirrorStrategy, "mirror-strategy", "archive", "how to mirror trees: archive or clone")
	cmd.Flags().IntVar(&concurrency, "concurrency", service.DefaultConcurrency, "parallel repository workers (1-32)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the snapshot cache")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the snapshot to a file instead of stdout")
	return cmd
}

func writeSnapshot(snap *domain.UserSnapshot, out string) error {
	payload := struct {
		*domain.UserSnapshot
		Profile *domain.Profile `json:"profile"`
	}{snap, snap.Profile}

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if out == "" {
		_, err = os.Stdout.Write(b)
		return err
	}
	return os.WriteFile(out, b, 0o644)
}
