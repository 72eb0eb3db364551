package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"reposcope/internal/adapters/github"
	"reposcope/internal/platform/config"
	"reposcope/internal/snapshot/cache"
	"reposcope/internal/snapshot/mirror"
	"reposcope/internal/snapshot/probe"
	"reposcope/internal/snapshot/service"
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reposcope",
		Short:         "Fetch, cache, and profile GitHub account data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFetchCmd(), newServeCmd(), newCacheCmd())
	return root
}

// deps bundles everything a command needs wired together
type deps struct {
	cfg     config.Conf
	client  *github.Client
	store   *cache.Cache
	service *service.Service
}

// buildDeps wires the client, probe, mirror, cache, and service from env
// config plus the command flags
func buildDeps(token, mirrorStrategy string) (*deps, error) {
	cfg := config.New().Prefix("REPOSCOPE_")

	if token == "" {
		token = cfg.MayString("GITHUB_TOKEN", os.Getenv("GITHUB_TOKEN"))
	}
	client := github.NewClient(github.Options{Token: token})

	store, err := cache.New(
		cfg.MayString("CACHE_DIR", defaultDir("cache")),
		cfg.MayDuration("CACHE_MAX_AGE", cache.DefaultMaxAge),
	)
	if err != nil {
		return nil, err
	}

	m := mirror.New(
		cfg.MayString("MIRROR_DIR", defaultDir("mirrors")),
		mirror.ParseStrategy(mirrorStrategy),
		client,
		token,
	)

	return &deps{
		cfg:     cfg,
		client:  client,
		store:   store,
		service: service.New(client, probe.New(client), m, store),
	}, nil
}

func defaultDir(sub string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".reposcope", sub)
	}
	return filepath.Join(home, ".reposcope", sub)
}

func mustDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
