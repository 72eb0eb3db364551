// Package probe inspects a repository's root listing for marker files
// (readme, license, Dockerfile, CI config, test directories) without
// downloading the tree
package probe

import (
	"context"
	"strings"

	"reposcope/internal/adapters/github"
	"reposcope/internal/platform/logger"
	"reposcope/internal/snapshot/domain"
)

// ContentsLister lists the entries of a directory inside a repository.
// Satisfied by *github.Client
type ContentsLister interface {
	RepoContents(ctx context.Context, owner, name, dir string) ([]github.ContentEntry, error)
}

// Probe derives FeatureFlags from directory listings
type Probe struct {
	lister ContentsLister
	log    *logger.Logger
}

func New(lister ContentsLister) *Probe {
	return &Probe{lister: lister, log: logger.Named("probe")}
}

// ciFiles are root-level files that signal a CI setup on their own
var ciFiles = map[string]struct{}{
	".gitlab-ci.yml":      {},
	".travis.yml":         {},
	"jenkinsfile":         {},
	".circleci":           {},
	"azure-pipelines.yml": {},
}

// isTestDir reports whether a directory name signals a test suite.
// Prefix matching catches the usual variants (test, tests, spec, specs)
func isTestDir(name string) bool {
	return name == "__tests__" ||
		strings.HasPrefix(name, "test") ||
		strings.HasPrefix(name, "spec")
}

// Flags probes the root of owner/name. Probing is best effort: a failed
// listing yields all-false flags and a warning, never an error, so one broken
// repository cannot sink a whole fetch
func (p *Probe) Flags(ctx context.Context, owner, name string) domain.FeatureFlags {
	var flags domain.FeatureFlags

	entries, err := p.lister.RepoContents(ctx, owner, name, "")
	if err != nil {
		p.log.Warn().Err(err).Str("repo", owner+"/"+name).Msg("root listing failed, flags degraded")
		return flags
	}

	var sawDotGithub bool
	for _, e := range entries {
		lower := strings.ToLower(e.Name)
		switch {
		case strings.HasPrefix(lower, "readme"):
			flags.HasReadme = true
		case strings.HasPrefix(lower, "license"), strings.HasPrefix(lower, "licence"), lower == "copying":
			flags.HasLicense = true
		case lower == "dockerfile", strings.HasPrefix(lower, "docker-compose"):
			flags.HasDockerfile = true
		}
		if _, ok := ciFiles[lower]; ok {
			flags.HasCI = true
		}
		if e.Type == "dir" {
			if lower == ".github" {
				sawDotGithub = true
			}
			if isTestDir(lower) {
				flags.HasTests = true
			}
		}
	}

	// a .github dir only counts as CI if it actually holds workflows
	if !flags.HasCI && sawDotGithub {
		flags.HasCI = p.hasWorkflows(ctx, owner, name)
	}
	return flags
}

func (p *Probe) hasWorkflows(ctx context.Context, owner, name string) bool {
	entries, err := p.lister.RepoContents(ctx, owner, name, ".github/workflows")
	if err != nil {
		return false
	}
	for _, e := range entries {
		lower := strings.ToLower(e.Name)
		if strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml") {
			return true
		}
	}
	return false
}
