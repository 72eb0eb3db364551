package service

import (
	"fmt"
	"sync"

	"reposcope/internal/snapshot/domain"
)

// fetchRun carries the per-fetch identity and enforces monotonic progress:
// an event with a lower percent than one already emitted is lifted to the
// last emitted value, so late completions under concurrency never report
// backwards. Delivery happens under the same lock as the lift, otherwise two
// workers finishing close together could hand their events to the caller out
// of order
type fetchRun struct {
	id       string
	username string
	emit     domain.ProgressFunc

	mu   sync.Mutex
	last int
}

func (r *fetchRun) progress(state domain.FetchState, percent int, msg string) {
	r.send(state, percent, msg, "")
}

func (r *fetchRun) repoProgress(percent int, repo string) {
	r.send(domain.StateProcessing, percent, fmt.Sprintf("processed %s", repo), repo)
}

func (r *fetchRun) send(state domain.FetchState, percent int, msg, repo string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if percent < r.last {
		percent = r.last
	}
	r.last = percent

	if r.emit == nil {
		return
	}
	r.emit(domain.Progress{
		FetchID:  r.id,
		Username: r.username,
		State:    state,
		Percent:  percent,
		Message:  msg,
		Repo:     repo,
	})
}

func (r *fetchRun) lastPercent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
