package internal

// Change kinds reported by code-hosting services for a file touched by a
// commit.
const (
	FileAdded    = "added"
	FileRemoved  = "removed"
	FileModified = "modified"
)

// FileSummary accumulates the deduplicated union of file paths across every
// commit in a push. All always contains the union of the other three sets; a
// path may legitimately appear in more than one kind when different commits
// classify it differently.
type FileSummary struct {
	All      map[string]struct{}
	Added    map[string]struct{}
	Removed  map[string]struct{}
	Modified map[string]struct{}
}

// NewFileSummary returns an empty summary with fresh per-dispatch sets.
func NewFileSummary() FileSummary {
	return FileSummary{
		All:      make(map[string]struct{}),
		Added:    make(map[string]struct{}),
		Removed:  make(map[string]struct{}),
		Modified: make(map[string]struct{}),
	}
}

// Add records path under the given change kind. Unknown kinds still count
// toward All so a service inventing a new kind degrades to "file touched".
func (f FileSummary) Add(kind, path string) {
	if path == "" {
		return
	}
	f.All[path] = struct{}{}
	switch kind {
	case FileAdded:
		f.Added[path] = struct{}{}
	case FileRemoved:
		f.Removed[path] = struct{}{}
	case FileModified:
		f.Modified[path] = struct{}{}
	}
}

// NormalizedEvent is the canonical, service-agnostic shape every adapter
// produces from its raw payload.
type NormalizedEvent struct {
	// Branch is the last non-empty branch name seen across commits in
	// payload order. Commits are ordered oldest to newest, so this is the
	// branch of the final commit.
	Branch string
	// Tag is set for tag-push events and empty for ordinary pushes.
	Tag string
	// Pusher is the display name of the actor who triggered the event.
	Pusher string
	Files  FileSummary
	// Original retains the adapter's decoded payload so renderers can read
	// fields normalization did not lift (repository name, URLs, per-commit
	// author/message/hash).
	Original any
}

// NotificationLine is one unit of display-ready output. Strip records whether
// embedded mIRC color codes were removed before emission, so transports that
// re-encode lines can tell colored and plain output apart.
type NotificationLine struct {
	Text  string
	Strip bool
}

// Event is the routing view of one incoming webhook delivery, evaluated by
// the rule engine to pick extra publish topics.
type Event struct {
	Provider   string                 `json:"provider"`
	Name       string                 `json:"name"`
	Data       map[string]interface{} `json:"-"`
	RawPayload []byte                 `json:"-"`
	RawObject  interface{}            `json:"-"`
}

// Message is the transport envelope for a single rendered line.
type Message struct {
	Provider string `json:"provider"`
	Repo     string `json:"repo"`
	Channel  string `json:"channel,omitempty"`
	Text     string `json:"text"`
	Strip    bool   `json:"strip"`
}
