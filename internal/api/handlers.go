package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	perr "reposcope/internal/platform/errors"
	"reposcope/internal/snapshot/domain"
	"reposcope/internal/snapshot/profile"
	"reposcope/internal/snapshot/service"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fetchBody is the optional POST body; an empty body means defaults
type fetchBody struct {
	Scope       string `json:"scope"`
	Mirror      bool   `json:"mirror"`
	Concurrency int    `json:"concurrency"`
	Refresh     bool   `json:"refresh"`
}

// handleStartFetch launches an asynchronous fetch and returns its job.
// One running fetch per username; a second request conflicts
func (s *Server) handleStartFetch(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var body fetchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, perr.Validationf("malformed fetch body"))
		return
	}
	scope, err := domain.ParseScope(body.Scope)
	if err != nil {
		respondError(w, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	job, err := s.jobs.start(username, cancel)
	if err != nil {
		cancel()
		respondError(w, err)
		return
	}

	req := service.Request{
		Username:    username,
		Scope:       scope,
		Mirror:      body.Mirror,
		Concurrency: body.Concurrency,
		Refresh:     body.Refresh,
	}
	go func() {
		defer cancel()
		_, err := s.fetcher.Fetch(ctx, req, func(p domain.Progress) {
			s.jobs.progress(job.ID, p)
		})
		s.jobs.finish(job.ID, err)
	}()

	cp, _ := s.jobs.get(job.ID)
	respondData(w, http.StatusAccepted, cp)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.jobs.get(id)
	if !ok {
		respondError(w, perr.NotFoundf("no job %s", id))
		return
	}
	respondData(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.jobs.stop(id)
	if !ok {
		respondError(w, perr.NotFoundf("no job %s", id))
		return
	}
	respondData(w, http.StatusAccepted, job)
}

// snapshotPayload re-attaches the derived profile, which the snapshot type
// deliberately keeps out of its own JSON form
type snapshotPayload struct {
	*domain.UserSnapshot
	Profile *domain.Profile `json:"profile"`
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	snap, ok := s.store.Load(username)
	if !ok {
		respondError(w, perr.NotFoundf("no snapshot for %s", username))
		return
	}
	respondData(w, http.StatusOK, snapshotPayload{
		UserSnapshot: snap,
		Profile:      profile.Build(snap),
	})
}

func (s *Server) handleListCache(w http.ResponseWriter, _ *http.Request) {
	entries, err := s.store.List()
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, entries)
}

// handlePurgeCache drops entries older than the older_than duration
// (default one week)
func (s *Server) handlePurgeCache(w http.ResponseWriter, r *http.Request) {
	age := 7 * 24 * time.Hour
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			respondError(w, perr.Validationf("bad older_than %q", raw))
			return
		}
		age = d
	}
	removed, err := s.store.InvalidateOlderThan(age)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int{"removed": removed})
}
