package hooks

import (
	"context"
	"fmt"
	"strings"

	"chathooks/internal"
)

// Deps carries the render-time collaborators shared by every adapter: the
// color palette and the link shortener. Both are immutable after startup.
type Deps struct {
	Palette   internal.Palette
	Shortener internal.Shortener
}

func (d Deps) shorten(ctx context.Context, link string) string {
	if d.Shortener == nil {
		return link
	}
	return d.Shortener.Shorten(ctx, link)
}

// repoTag renders the leading "[name]" block of every line.
func repoTag(p internal.Palette, name string) string {
	return fmt.Sprintf("%s[%s%s%s]", p.Grey, p.Blue, name, p.Grey)
}

func highlight(p internal.Palette, s string) string {
	return p.Teal + s + p.Grey
}

func commitNoun(n int) string {
	if n == 1 {
		return "commit"
	}
	return "commits"
}

// diffStat renders the compact "[+A/-R/±M]" change summary.
func diffStat(f internal.FileSummary) string {
	return fmt.Sprintf("[+%d/-%d/±%d]", len(f.Added), len(f.Removed), len(f.Modified))
}

// shortHash truncates a commit identifier to its 7-character display prefix.
func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

// finishLine joins the assembled parts into one NotificationLine. When colors
// are disabled the control codes are stripped here, exactly once; Strip on
// the emitted line records that this happened.
func finishLine(parts []string, useColors bool) internal.NotificationLine {
	text := strings.Join(parts, " ")
	if useColors {
		return internal.NotificationLine{Text: text}
	}
	return internal.NotificationLine{Text: internal.StripColors(text), Strip: true}
}
