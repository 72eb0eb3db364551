package service

import (
	"context"
	"sync"

	"reposcope/internal/adapters/github"
	perr "reposcope/internal/platform/errors"
	"reposcope/internal/platform/logger"
	"reposcope/internal/snapshot/domain"
)

// process enriches every enumerated repository through a bounded worker pool.
// Records land at their enumeration index so output order never depends on
// completion order; progress is reported as repositories complete
func (s *Service) process(ctx context.Context, req Request, run *fetchRun, repos []github.Repo) ([]domain.RepositoryRecord, error) {
	records := make([]domain.RepositoryRecord, len(repos))
	if len(repos) == 0 {
		if ctx.Err() != nil {
			return nil, perr.Canceledf("fetch cancelled")
		}
		return records, nil
	}

	workers := req.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	if workers > len(repos) {
		workers = len(repos)
	}

	type job struct {
		idx  int
		repo github.Repo
	}
	jobs := make(chan job)

	var (
		wg   sync.WaitGroup
		done int
		mu   sync.Mutex
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				records[j.idx] = s.enrich(ctx, req, j.repo)
				mu.Lock()
				done++
				pct := 20 + done*60/len(repos)
				mu.Unlock()
				run.repoProgress(pct, j.repo.FullName)
			}
		}()
	}

feed:
	for i, r := range repos {
		select {
		case jobs <- job{idx: i, repo: r}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, perr.Canceledf("fetch cancelled during repository processing")
	}
	return records, nil
}

// enrich builds one record. Every lookup past the listing is best effort:
// a degraded repository keeps its listing fields and moves on
func (s *Service) enrich(ctx context.Context, req Request, r github.Repo) domain.RepositoryRecord {
	log := logger.C(ctx)
	rec := domain.RepositoryRecord{
		Name:          r.Name,
		FullName:      r.FullName,
		Description:   r.Description,
		URL:           r.HTMLURL,
		CloneURL:      r.CloneURL,
		SSHURL:        r.SSHURL,
		Language:      r.Language,
		Languages:     map[string]int64{},
		Topics:        r.Topics,
		Stars:         r.Stargazers,
		Forks:         r.ForksCount,
		Watchers:      r.Watchers,
		SizeKB:        r.Size,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		PushedAt:      r.PushedAt,
		DefaultBranch: r.DefaultBranch,
		IsPrivate:     r.Private,
		IsFork:        r.Fork,
		IsArchived:    r.Archived,
	}
	if r.License != nil {
		rec.LicenseName = r.License.Name
	}
	if rec.Topics == nil {
		rec.Topics = []string{}
	}

	owner := r.Owner.Login

	if langs, err := s.src.RepoLanguages(ctx, owner, r.Name); err != nil {
		log.Warn().Err(err).Str("repo", r.FullName).Msg("language lookup degraded")
	} else if langs != nil {
		rec.Languages = langs
	}

	// the listing usually carries topics already; only fall back to the
	// dedicated endpoint when it did not
	if len(rec.Topics) == 0 {
		if topics, err := s.src.RepoTopics(ctx, owner, r.Name); err != nil {
			log.Warn().Err(err).Str("repo", r.FullName).Msg("topic lookup degraded")
		} else if topics != nil {
			rec.Topics = topics
		}
	}

	rec.FeatureFlags = s.prober.Flags(ctx, owner, r.Name)

	if req.Mirror && s.mirrorer != nil {
		branch := r.DefaultBranch
		if branch == "" {
			branch = "main"
		}
		rec.LocalPath, rec.FilesDownloaded = s.mirrorer.Fetch(ctx, owner, r.Name, branch, r.CloneURL)
	}
	return rec
}
