package hooks

import (
	"context"
	"encoding/json"
	"iter"
	"strconv"

	"chathooks/internal"
)

// BitbucketAdapter handles Bitbucket's POST-service payload: a form-encoded
// delivery whose "payload" field carries a JSON document with a commits
// array, per-commit file lists and the repository's canonical URL parts.
type BitbucketAdapter struct {
	deps Deps
}

func NewBitbucketAdapter(deps Deps) *BitbucketAdapter {
	return &BitbucketAdapter{deps: deps}
}

func (a *BitbucketAdapter) ServiceID() int { return ServiceBitbucket }

func (a *BitbucketAdapter) Name() string { return "bitbucket" }

func (a *BitbucketAdapter) ConfigSchema() []internal.ConfigField {
	return internal.StandardConfigSchema()
}

type bitbucketPayload struct {
	CanonURL   string `json:"canon_url"`
	User       string `json:"user"`
	Repository struct {
		Name        string `json:"name"`
		AbsoluteURL string `json:"absolute_url"`
	} `json:"repository"`
	Commits []bitbucketCommit `json:"commits"`
}

type bitbucketCommit struct {
	Branch    string `json:"branch"`
	Node      string `json:"node"`
	RawNode   string `json:"raw_node"`
	Author    string `json:"author"`
	RawAuthor string `json:"raw_author"`
	Message   string `json:"message"`
	Files     []struct {
		Type string `json:"type"`
		File string `json:"file"`
	} `json:"files"`
}

// Normalize lifts the commits array into the canonical event: the file sets
// are the deduplicated union across all commits, and the branch is the last
// non-empty one in payload order (commits run oldest to newest, so that is
// the branch of the final commit). No commits is a valid, empty result.
func (a *BitbucketAdapter) Normalize(raw []byte) (*internal.NormalizedEvent, error) {
	var p bitbucketPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	ev := &internal.NormalizedEvent{
		Pusher:   p.User,
		Files:    internal.NewFileSummary(),
		Original: &p,
	}
	for _, commit := range p.Commits {
		for _, file := range commit.Files {
			ev.Files.Add(file.Type, file.File)
		}
		if commit.Branch != "" {
			ev.Branch = commit.Branch
		}
	}
	return ev, nil
}

// Render yields the summary line followed by one line per commit. Events
// with no commits (tag-only activity) are dropped, as are events whose
// branch is excluded by the hook's branch filter. The sequence is lazy:
// line N+1 is not built until line N has been consumed.
func (a *BitbucketAdapter) Render(ctx context.Context, ev *internal.NormalizedEvent, cfg internal.HookConfig) iter.Seq[internal.NotificationLine] {
	return func(yield func(internal.NotificationLine) bool) {
		p, ok := ev.Original.(*bitbucketPayload)
		if !ok || len(p.Commits) == 0 {
			return
		}
		if !cfg.BranchAllowed(ev.Branch) {
			return
		}
		if !yield(a.summaryLine(ctx, ev, p, cfg)) {
			return
		}
		for i := range p.Commits {
			if !yield(a.commitLine(p, &p.Commits[i], cfg)) {
				return
			}
		}
	}
}

func (a *BitbucketAdapter) summaryLine(ctx context.Context, ev *internal.NormalizedEvent, p *bitbucketPayload, cfg internal.HookConfig) internal.NotificationLine {
	pal := a.deps.Palette
	parts := []string{repoTag(pal, p.Repository.Name)}

	if ev.Pusher != "" {
		parts = append(parts, highlight(pal, ev.Pusher)+" pushed")
	}
	parts = append(parts,
		highlight(pal, strconv.Itoa(len(p.Commits)))+" "+commitNoun(len(p.Commits)))
	if cfg.ShowBranch && ev.Branch != "" {
		parts = append(parts, "to "+highlight(pal, ev.Branch))
	}
	parts = append(parts, diffStat(ev.Files))

	link := p.CanonURL + p.Repository.AbsoluteURL + "commits/"
	parts = append(parts, pal.LightGrey+a.deps.shorten(ctx, link)+pal.Grey)

	return finishLine(parts, cfg.UseColors)
}

func (a *BitbucketAdapter) commitLine(p *bitbucketPayload, commit *bitbucketCommit, cfg internal.HookConfig) internal.NotificationLine {
	pal := a.deps.Palette

	author := commit.Author
	if cfg.ShowRawAuthor {
		author = commit.RawAuthor
	}

	parts := []string{
		repoTag(pal, p.Repository.Name),
		highlight(pal, author),
		highlight(pal, shortHash(commit.Node)),
		"-",
		commit.Message,
	}
	return finishLine(parts, cfg.UseColors)
}
