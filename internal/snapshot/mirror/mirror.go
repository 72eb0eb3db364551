// Package mirror materializes repository working trees on local disk, either
// by unpacking the hosted zip archive or by a shallow git clone
package mirror

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"reposcope/internal/platform/logger"
)

// Strategy picks how a working tree is materialized
type Strategy string

const (
	// StrategyArchive unpacks the hosted zipball (no git history, fast)
	StrategyArchive Strategy = "archive"
	// StrategyClone does a shallow single-branch git clone
	StrategyClone Strategy = "clone"
)

// ParseStrategy maps a raw string to a Strategy, defaulting to archive
func ParseStrategy(s string) Strategy {
	if Strategy(s) == StrategyClone {
		return StrategyClone
	}
	return StrategyArchive
}

// Downloader streams a repository zipball. Satisfied by *github.Client
type Downloader interface {
	DownloadArchive(ctx context.Context, owner, name, branch string) (io.ReadCloser, error)
}

// Mirror writes working trees under <root>/<owner>/<repo>
type Mirror struct {
	root     string
	strategy Strategy
	dl       Downloader
	token    string
	log      *logger.Logger
}

func New(root string, strategy Strategy, dl Downloader, token string) *Mirror {
	return &Mirror{
		root:     root,
		strategy: strategy,
		dl:       dl,
		token:    token,
		log:      logger.Named("mirror"),
	}
}

// Fetch materializes owner/repo@branch and returns (localPath, true) on
// success. A tree that already exists and is non-empty short-circuits without
// touching the network. Any failure logs and returns ("", false); mirroring
// never fails a fetch
func (m *Mirror) Fetch(ctx context.Context, owner, repo, branch, cloneURL string) (string, bool) {
	dest := filepath.Join(m.root, owner, repo)
	if nonEmptyDir(dest) {
		m.log.Debug().Str("path", dest).Msg("mirror already present")
		return dest, true
	}

	var err error
	switch m.strategy {
	case StrategyClone:
		err = m.clone(ctx, dest, branch, cloneURL)
	default:
		err = m.unpack(ctx, dest, owner, repo, branch)
	}
	if err != nil {
		m.log.Error().Err(err).Str("repo", owner+"/"+repo).Msg("mirror failed")
		// never leave a partial tree behind to poison the idempotency check
		_ = os.RemoveAll(dest)
		return "", false
	}
	return dest, true
}

func (m *Mirror) clone(ctx context.Context, dest, branch, cloneURL string) error {
	// a stale tree of empty directories would abort the clone
	_ = os.RemoveAll(dest)
	opts := &git.CloneOptions{
		URL:           cloneURL,
		Depth:         1,
		SingleBranch:  true,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
	}
	if m.token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: m.token}
	}
	_, err := git.PlainCloneContext(ctx, dest, false, opts)
	return err
}

// nonEmptyDir reports whether path holds actual content: a file, or a
// subdirectory with children. A tree of empty directories does not count,
// so a previously failed materialization gets retried
func nonEmptyDir(path string) bool {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() {
			return true
		}
		children, err := os.ReadDir(filepath.Join(path, e.Name()))
		if err == nil && len(children) > 0 {
			return true
		}
	}
	return false
}
