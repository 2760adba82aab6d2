package hooks

import (
	"context"
	"encoding/json"
	"iter"
	"strconv"
	"strings"

	"chathooks/internal"

	"github.com/google/go-github/v57/github"
)

// GitHubAdapter handles GitHub push deliveries, decoded with the go-github
// PushEvent wire type. The branch comes from the ref; per-commit file lists
// come from the added/removed/modified arrays.
type GitHubAdapter struct {
	deps Deps
}

func NewGitHubAdapter(deps Deps) *GitHubAdapter {
	return &GitHubAdapter{deps: deps}
}

func (a *GitHubAdapter) ServiceID() int { return ServiceGitHub }

func (a *GitHubAdapter) Name() string { return "github" }

func (a *GitHubAdapter) ConfigSchema() []internal.ConfigField {
	return internal.StandardConfigSchema()
}

func (a *GitHubAdapter) Normalize(raw []byte) (*internal.NormalizedEvent, error) {
	var p github.PushEvent
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	ev := &internal.NormalizedEvent{
		Pusher:   p.GetPusher().GetName(),
		Files:    internal.NewFileSummary(),
		Original: &p,
	}
	if ev.Pusher == "" {
		ev.Pusher = p.GetSender().GetLogin()
	}

	ref := p.GetRef()
	switch {
	case strings.HasPrefix(ref, "refs/heads/"):
		ev.Branch = strings.TrimPrefix(ref, "refs/heads/")
	case strings.HasPrefix(ref, "refs/tags/"):
		ev.Tag = strings.TrimPrefix(ref, "refs/tags/")
	}

	for _, commit := range p.Commits {
		for _, f := range commit.Added {
			ev.Files.Add(internal.FileAdded, f)
		}
		for _, f := range commit.Removed {
			ev.Files.Add(internal.FileRemoved, f)
		}
		for _, f := range commit.Modified {
			ev.Files.Add(internal.FileModified, f)
		}
	}
	return ev, nil
}

func (a *GitHubAdapter) Render(ctx context.Context, ev *internal.NormalizedEvent, cfg internal.HookConfig) iter.Seq[internal.NotificationLine] {
	return func(yield func(internal.NotificationLine) bool) {
		p, ok := ev.Original.(*github.PushEvent)
		if !ok || len(p.Commits) == 0 {
			return
		}
		if !cfg.BranchAllowed(ev.Branch) {
			return
		}
		if !yield(a.summaryLine(ctx, ev, p, cfg)) {
			return
		}
		for _, commit := range p.Commits {
			if !yield(a.commitLine(p, commit, cfg)) {
				return
			}
		}
	}
}

func (a *GitHubAdapter) summaryLine(ctx context.Context, ev *internal.NormalizedEvent, p *github.PushEvent, cfg internal.HookConfig) internal.NotificationLine {
	pal := a.deps.Palette
	parts := []string{repoTag(pal, p.GetRepo().GetName())}

	if ev.Pusher != "" {
		parts = append(parts, highlight(pal, ev.Pusher)+" pushed")
	}
	parts = append(parts,
		highlight(pal, strconv.Itoa(len(p.Commits)))+" "+commitNoun(len(p.Commits)))
	if cfg.ShowBranch && ev.Branch != "" {
		parts = append(parts, "to "+highlight(pal, ev.Branch))
	}
	parts = append(parts, diffStat(ev.Files))

	if link := p.GetCompare(); link != "" {
		parts = append(parts, pal.LightGrey+a.deps.shorten(ctx, link)+pal.Grey)
	}
	return finishLine(parts, cfg.UseColors)
}

func (a *GitHubAdapter) commitLine(p *github.PushEvent, commit *github.HeadCommit, cfg internal.HookConfig) internal.NotificationLine {
	pal := a.deps.Palette

	author := commit.GetAuthor().GetName()
	if cfg.ShowRawAuthor && commit.GetAuthor().GetEmail() != "" {
		author = author + " <" + commit.GetAuthor().GetEmail() + ">"
	}

	parts := []string{
		repoTag(pal, p.GetRepo().GetName()),
		highlight(pal, author),
		highlight(pal, shortHash(commit.GetID())),
		"-",
		commit.GetMessage(),
	}
	return finishLine(parts, cfg.UseColors)
}
