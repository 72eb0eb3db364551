package domain

import perr "reposcope/internal/platform/errors"

// Scope selects which repositories a fetch enumerates
type Scope string

const (
	// ScopeSingle fetches only the most recently updated public non-forks (up to 10)
	ScopeSingle Scope = "single"
	// ScopePublic fetches all public owned repositories
	ScopePublic Scope = "public"
	// ScopeAll fetches public plus, best effort, private owned repositories
	ScopeAll Scope = "all"
	// ScopePrivate fetches only private owned repositories (requires a token)
	ScopePrivate Scope = "private"
)

// ParseScope maps a raw string to a Scope, rejecting unknown values
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeSingle, ScopePublic, ScopeAll, ScopePrivate:
		return Scope(s), nil
	case "":
		return ScopeSingle, nil
	default:
		return "", perr.InvalidArgf("unknown scope %q", s)
	}
}

// FetchState is the coarse phase a fetch is in. States only ever advance,
// except the two terminal failure states which can be entered from anywhere
type FetchState string

const (
	StateIdle        FetchState = "idle"
	StateAuth        FetchState = "authenticating"
	StateEnumerating FetchState = "enumerating_repos"
	StateProcessing  FetchState = "processing_repos"
	StateAggregating FetchState = "aggregating"
	StateCaching     FetchState = "caching"
	StateDone        FetchState = "done"
	StateFailed      FetchState = "failed"
	StateCancelled   FetchState = "cancelled"
)

// Terminal reports whether no further progress events will follow
func (s FetchState) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// Progress is one progress event emitted during a fetch. Percent is monotonic
// non-decreasing within a single fetch
type Progress struct {
	FetchID  string     `json:"fetch_id"`
	Username string     `json:"username"`
	State    FetchState `json:"state"`
	Percent  int        `json:"percent"`
	Message  string     `json:"message"`
	// Repo is set for per-repository events during processing
	Repo string `json:"repo,omitempty"`
}

// ProgressFunc receives progress events. Implementations must be fast and
// must not block; they are invoked inline from the fetch goroutine
type ProgressFunc func(Progress)
