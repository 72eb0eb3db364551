// Package service drives the fetch pipeline: resolve the user, enumerate
// repositories for the requested scope, enrich each repository concurrently,
// aggregate, and cache the result
package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"reposcope/internal/adapters/github"
	perr "reposcope/internal/platform/errors"
	"reposcope/internal/platform/logger"
	"reposcope/internal/snapshot/domain"
	"reposcope/internal/snapshot/profile"
)

const (
	// DefaultConcurrency bounds the per-repository enrichment pool
	DefaultConcurrency = 4
	// singleScopeLimit caps enumeration for the quick single-page scope
	singleScopeLimit = 10
)

// RepoSource is the remote read surface the pipeline needs.
// Satisfied by *github.Client
type RepoSource interface {
	Viewer(ctx context.Context) (github.User, error)
	UserByLogin(ctx context.Context, login string) (github.User, error)
	ListRepos(ctx context.Context, login, visibility string) ([]github.Repo, error)
	RepoLanguages(ctx context.Context, owner, name string) (map[string]int64, error)
	RepoTopics(ctx context.Context, owner, name string) ([]string, error)
	Authenticated() bool
}

// Prober derives marker-file flags for one repository
type Prober interface {
	Flags(ctx context.Context, owner, name string) domain.FeatureFlags
}

// Mirrorer materializes a repository working tree locally
type Mirrorer interface {
	Fetch(ctx context.Context, owner, repo, branch, cloneURL string) (string, bool)
}

// Store persists snapshots between fetches
type Store interface {
	Load(username string) (*domain.UserSnapshot, bool)
	Save(snap *domain.UserSnapshot) error
}

// Request describes one fetch
type Request struct {
	Username    string       `validate:"required,min=1,max=39"`
	Scope       domain.Scope `validate:"required"`
	Mirror      bool
	Concurrency int `validate:"gte=0,lte=32"`
	// Refresh bypasses the cache and always hits the remote
	Refresh bool
}

// Service orchestrates fetches. Construct with New; the zero value is not usable
type Service struct {
	src      RepoSource
	prober   Prober
	mirrorer Mirrorer
	store    Store
	validate *validator.Validate
	log      *logger.Logger
	now      func() time.Time
}

func New(src RepoSource, prober Prober, mirrorer Mirrorer, store Store) *Service {
	return &Service{
		src:      src,
		prober:   prober,
		mirrorer: mirrorer,
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logger.Named("fetch"),
	}
}

// Fetch runs the pipeline for req and returns the finished snapshot with its
// profile attached. onProgress (optional) receives monotonic progress events.
// Cancellation via ctx aborts the fetch with a Canceled error and no snapshot
func (s *Service) Fetch(ctx context.Context, req Request, onProgress domain.ProgressFunc) (*domain.UserSnapshot, error) {
	if err := s.validate.Struct(req); err != nil {
		s.log.Warn().Err(err).Str("username", req.Username).Msg("fetch request rejected")
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "invalid fetch request")
	}
	if _, err := domain.ParseScope(string(req.Scope)); err != nil {
		return nil, err
	}

	run := &fetchRun{
		id:       uuid.NewString(),
		username: req.Username,
		emit:     onProgress,
	}
	ctx = logger.WithFetch(ctx, run.id, req.Username)
	log := logger.C(ctx)
	started := s.nowFn()()

	if !req.Refresh {
		if snap, ok := s.store.Load(req.Username); ok {
			snap.Profile = profile.Build(snap)
			run.progress(domain.StateDone, 100, "served from cache")
			log.Info().Msg("fetch served from cache")
			return snap, nil
		}
	}

	snap, err := s.run(ctx, req, run)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeCanceled) {
			run.progress(domain.StateCancelled, run.lastPercent(), "fetch cancelled")
			log.Warn().Msg("fetch cancelled")
		} else {
			run.progress(domain.StateFailed, run.lastPercent(), err.Error())
			log.Error().Err(err).Msg("fetch failed")
		}
		return nil, err
	}

	log.Info().
		Int("repos", len(snap.Repositories)).
		Dur("took", s.nowFn()().Sub(started)).
		Msg("fetch complete")
	return snap, nil
}

func (s *Service) run(ctx context.Context, req Request, run *fetchRun) (*domain.UserSnapshot, error) {
	run.progress(domain.StateAuth, 5, "resolving user")
	user, err := s.resolveUser(ctx, req)
	if err != nil {
		return nil, err
	}

	run.progress(domain.StateEnumerating, 15, "enumerating repositories")
	repos, err := s.enumerate(ctx, req)
	if err != nil {
		return nil, err
	}

	records, err := s.process(ctx, req, run, repos)
	if err != nil {
		return nil, err
	}

	run.progress(domain.StateAggregating, 85, "aggregating")
	snap := assemble(req.Username, user, records, s.nowFn()())
	snap.Profile = profile.Build(snap)

	run.progress(domain.StateCaching, 95, "writing cache")
	if err := s.store.Save(snap); err != nil {
		// a broken cache must not sink a successful fetch
		logger.C(ctx).Warn().Err(err).Msg("cache write failed, snapshot still returned")
	}

	run.progress(domain.StateDone, 100, "done")
	return snap, nil
}

// resolveUser verifies the credential when the scope needs one and fetches
// the user document. Unknown user and rejected credential are both fatal
func (s *Service) resolveUser(ctx context.Context, req Request) (github.User, error) {
	if req.Scope == domain.ScopePrivate || req.Scope == domain.ScopeAll {
		if !s.src.Authenticated() {
			if req.Scope == domain.ScopePrivate {
				return github.User{}, perr.Unauthorizedf("scope %q requires a token", req.Scope)
			}
		} else if _, err := s.src.Viewer(ctx); err != nil {
			if req.Scope == domain.ScopePrivate || perr.IsCode(err, perr.ErrorCodeCanceled) {
				return github.User{}, err
			}
			logger.C(ctx).Warn().Err(err).Msg("credential check failed, continuing with public data")
		}
	}
	return s.src.UserByLogin(ctx, req.Username)
}

// enumerate lists repositories per the scope. Order is the remote's
// most-recently-updated order and is the order records keep downstream
func (s *Service) enumerate(ctx context.Context, req Request) ([]github.Repo, error) {
	switch req.Scope {
	case domain.ScopePrivate:
		return s.src.ListRepos(ctx, req.Username, "private")

	case domain.ScopeAll:
		public, err := s.src.ListRepos(ctx, req.Username, "public")
		if err != nil {
			return nil, err
		}
		private, err := s.src.ListRepos(ctx, req.Username, "private")
		if err != nil {
			if perr.IsCode(err, perr.ErrorCodeCanceled) {
				return nil, err
			}
			// private listing is best effort under "all"
			logger.C(ctx).Warn().Err(err).Msg("private enumeration failed, public repositories only")
			return public, nil
		}
		return dedupe(append(public, private...)), nil

	case domain.ScopeSingle:
		public, err := s.src.ListRepos(ctx, req.Username, "public")
		if err != nil {
			return nil, err
		}
		originals := public[:0:0]
		for _, r := range public {
			if !r.Fork {
				originals = append(originals, r)
			}
		}
		sort.SliceStable(originals, func(i, j int) bool {
			return originals[i].UpdatedAt.After(originals[j].UpdatedAt)
		})
		if len(originals) > singleScopeLimit {
			originals = originals[:singleScopeLimit]
		}
		return originals, nil

	default: // public
		return s.src.ListRepos(ctx, req.Username, "public")
	}
}

// dedupe keeps the first occurrence of each full name, preserving order
func dedupe(repos []github.Repo) []github.Repo {
	seen := make(map[string]struct{}, len(repos))
	out := repos[:0]
	for _, r := range repos {
		key := strings.ToLower(r.FullName)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (s *Service) nowFn() func() time.Time {
	if s.now != nil {
		return s.now
	}
	return time.Now
}

// assemble builds the snapshot in enumeration order and recomputes totals
func assemble(username string, user github.User, records []domain.RepositoryRecord, fetchedAt time.Time) *domain.UserSnapshot {
	snap := &domain.UserSnapshot{
		Username:     username,
		Name:         user.Name,
		Email:        user.Email,
		Bio:          user.Bio,
		Location:     user.Location,
		Website:      user.Blog,
		AvatarURL:    user.AvatarURL,
		PublicRepos:  user.PublicRepos,
		PrivateRepos: user.PrivateRepos,
		Followers:    user.Followers,
		Following:    user.Following,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
		FetchedAt:    fetchedAt,
		Repositories: records,
	}
	snap.RecomputeTotals()
	return snap
}
