package hooks

import (
	"context"
	"encoding/json"
	"iter"
	"strconv"
	"strings"

	"chathooks/internal"

	gitlab "github.com/xanzy/go-gitlab"
)

// GitLabAdapter handles GitLab push hooks, decoded with the go-gitlab
// PushEvent wire type.
type GitLabAdapter struct {
	deps Deps
}

func NewGitLabAdapter(deps Deps) *GitLabAdapter {
	return &GitLabAdapter{deps: deps}
}

func (a *GitLabAdapter) ServiceID() int { return ServiceGitLab }

func (a *GitLabAdapter) Name() string { return "gitlab" }

func (a *GitLabAdapter) ConfigSchema() []internal.ConfigField {
	return internal.StandardConfigSchema()
}

func (a *GitLabAdapter) Normalize(raw []byte) (*internal.NormalizedEvent, error) {
	var p gitlab.PushEvent
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	ev := &internal.NormalizedEvent{
		Pusher:   p.UserName,
		Files:    internal.NewFileSummary(),
		Original: &p,
	}
	if ev.Pusher == "" {
		ev.Pusher = p.UserUsername
	}

	switch {
	case strings.HasPrefix(p.Ref, "refs/heads/"):
		ev.Branch = strings.TrimPrefix(p.Ref, "refs/heads/")
	case strings.HasPrefix(p.Ref, "refs/tags/"):
		ev.Tag = strings.TrimPrefix(p.Ref, "refs/tags/")
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

func (a *GitLabAdapter) Render(ctx context.Context, ev *internal.NormalizedEvent, cfg internal.HookConfig) iter.Seq[internal.NotificationLine] {
	return func(yield func(internal.NotificationLine) bool) {
		p, ok := ev.Original.(*gitlab.PushEvent)
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
			if !yield(a.commitLine(p, i, cfg)) {
				return
			}
		}
	}
}

func (a *GitLabAdapter) summaryLine(ctx context.Context, ev *internal.NormalizedEvent, p *gitlab.PushEvent, cfg internal.HookConfig) internal.NotificationLine {
	pal := a.deps.Palette
	parts := []string{repoTag(pal, p.Project.Name)}

	if ev.Pusher != "" {
		parts = append(parts, highlight(pal, ev.Pusher)+" pushed")
	}
	parts = append(parts,
		highlight(pal, strconv.Itoa(len(p.Commits)))+" "+commitNoun(len(p.Commits)))
	if cfg.ShowBranch && ev.Branch != "" {
		parts = append(parts, "to "+highlight(pal, ev.Branch))
	}
	parts = append(parts, diffStat(ev.Files))

	if p.Project.WebURL != "" {
		link := p.Project.WebURL + "/-/commits/" + ev.Branch
		parts = append(parts, pal.LightGrey+a.deps.shorten(ctx, link)+pal.Grey)
	}
	return finishLine(parts, cfg.UseColors)
}

func (a *GitLabAdapter) commitLine(p *gitlab.PushEvent, i int, cfg internal.HookConfig) internal.NotificationLine {
	pal := a.deps.Palette
	commit := p.Commits[i]

	author := commit.Author.Name
	if cfg.ShowRawAuthor && commit.Author.Email != "" {
		author = author + " <" + commit.Author.Email + ">"
	}

	parts := []string{
		repoTag(pal, p.Project.Name),
		highlight(pal, author),
		highlight(pal, shortHash(commit.ID)),
		"-",
		commit.Message,
	}
	return finishLine(parts, cfg.UseColors)
}
