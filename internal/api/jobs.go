package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	perr "reposcope/internal/platform/errors"
	"reposcope/internal/snapshot/domain"
)

// Job is the externally visible state of one asynchronous fetch
type Job struct {
	ID         string            `json:"id"`
	Username   string            `json:"username"`
	State      domain.FetchState `json:"state"`
	Percent    int               `json:"percent"`
	Message    string            `json:"message,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	Error      string            `json:"error,omitempty"`
	ErrorCode  perr.ErrorCode    `json:"error_code,omitempty"`

	cancel context.CancelFunc
}

// jobTable tracks jobs by id and enforces one running fetch per username
type jobTable struct {
	mu     sync.Mutex
	byID   map[string]*Job
	active map[string]*Job
	now    func() time.Time
}

func newJobTable() *jobTable {
	return &jobTable{
		byID:   map[string]*Job{},
		active: map[string]*Job{},
		now:    time.Now,
	}
}

// start registers a new running job for username. A second fetch for a
// username that already has one running is a conflict
func (t *jobTable) start(username string, cancel context.CancelFunc) (*Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if running, ok := t.active[username]; ok {
		return nil, perr.Conflictf("fetch %s already running for %s", running.ID, username)
	}
	j := &Job{
		ID:        uuid.NewString(),
		Username:  username,
		State:     domain.StateIdle,
		StartedAt: t.now(),
		cancel:    cancel,
	}
	t.byID[j.ID] = j
	t.active[username] = j
	return j, nil
}

// progress folds one pipeline event into the job
func (t *jobTable) progress(id string, p domain.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.byID[id]
	if !ok {
		return
	}
	j.State = p.State
	j.Percent = p.Percent
	j.Message = p.Message
}

// finish marks the job terminal and frees its username slot
func (t *jobTable) finish(id string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.byID[id]
	if !ok {
		return
	}
	done := t.now()
	j.FinishedAt = &done
	switch {
	case err == nil:
		j.State = domain.StateDone
		j.Percent = 100
	case perr.IsCode(err, perr.ErrorCodeCanceled):
		j.State = domain.StateCancelled
	default:
		j.State = domain.StateFailed
		j.Error = err.Error()
		j.ErrorCode = perr.CodeOf(err)
	}
	delete(t.active, j.Username)
}

// get returns a copy so callers never race the running fetch
func (t *jobTable) get(id string) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.byID[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// stop cancels a running job. Stopping a finished job is a no-op
func (t *jobTable) stop(id string) (Job, bool) {
	t.mu.Lock()
	j, ok := t.byID[id]
	if !ok {
		t.mu.Unlock()
		return Job{}, false
	}
	cancel := j.cancel
	cp := *j
	t.mu.Unlock()

	if cancel != nil && !cp.State.Terminal() {
		cancel()
	}
	return cp, true
}
