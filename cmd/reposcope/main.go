// Command reposcope fetches GitHub account data into local snapshots and
// serves them to frontends over HTTP
package main

import (
	"os"

	"github.com/joho/godotenv"

	"reposcope/internal/platform/logger"
)

func main() {
	// a missing .env is fine; the environment still applies
	_ = godotenv.Load()
	logger.Init(logger.FromEnv())

	if err := rootCmd().Execute(); err != nil {
		logger.Get().Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
