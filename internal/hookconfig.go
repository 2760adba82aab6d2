package internal

import "strings"

// HookConfig is the typed view of a hook's persisted key/value bag. The
// configuration boundary validates and persists the bag; the pipeline only
// reads it, with documented defaults for every unset key.
type HookConfig struct {
	// Branches is a comma-separated list of branch names to forward, or
	// empty for all branches.
	Branches string
	// UseColors embeds mIRC coloring in rendered lines. Default true.
	UseColors bool
	// ShowBranch includes the branch name in the summary line. Default true.
	ShowBranch bool
	// ShowRawAuthor shows the raw commit author ("Jane <jane@example.com>")
	// instead of the display name. Default false.
	ShowRawAuthor bool
}

// DefaultHookConfig returns the documented defaults.
func DefaultHookConfig() HookConfig {
	return HookConfig{UseColors: true, ShowBranch: true}
}

// HookConfigFromBag builds a HookConfig from a loosely-typed bag as persisted
// by the configuration collaborator. Unset keys keep their defaults; values
// of the wrong type are ignored rather than rejected.
func HookConfigFromBag(bag map[string]any) HookConfig {
	cfg := DefaultHookConfig()
	if bag == nil {
		return cfg
	}
	if v, ok := bag["branches"].(string); ok {
		cfg.Branches = v
	}
	if v, ok := bagBool(bag, "use_colors"); ok {
		cfg.UseColors = v
	}
	if v, ok := bagBool(bag, "show_branch"); ok {
		cfg.ShowBranch = v
	}
	if v, ok := bagBool(bag, "show_raw_author"); ok {
		cfg.ShowRawAuthor = v
	}
	return cfg
}

func bagBool(bag map[string]any, key string) (bool, bool) {
	raw, ok := bag[key]
	if !ok {
		return false, false
	}
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return true, true
		case "false", "0", "no", "off":
			return false, true
		}
	}
	return false, false
}

// BranchAllowed reports whether a push to branch passes the hook's branch
// filter. The filter is a hard gate evaluated once per event: an empty
// Branches list allows everything, and an event with no branch is never
// filtered out. Matching is trimmed and case-folded.
func (c HookConfig) BranchAllowed(branch string) bool {
	if strings.TrimSpace(c.Branches) == "" || branch == "" {
		return true
	}
	want := strings.ToLower(branch)
	for _, b := range strings.Split(c.Branches, ",") {
		if strings.ToLower(strings.TrimSpace(b)) == want {
			return true
		}
	}
	return false
}

// ConfigField describes one recognized configuration key of an adapter. The
// external configuration UI renders and validates these; the pipeline only
// consumes defaults.
type ConfigField struct {
	Key     string `json:"key"`
	Type    string `json:"type"`
	Default string `json:"default"`
	Help    string `json:"help"`
}

// StandardConfigSchema is the schema shared by the push-event adapters.
func StandardConfigSchema() []ConfigField {
	return []ConfigField{
		{
			Key:     "branches",
			Type:    "string",
			Default: "",
			Help:    `A comma-separated list of branches to forward, or blank for all. Ex: "master, dev"`,
		},
		{
			Key:     "use_colors",
			Type:    "bool",
			Default: "true",
			Help:    "If checked, commit messages will include minor mIRC coloring.",
		},
		{
			Key:     "show_branch",
			Type:    "bool",
			Default: "true",
			Help:    "If checked, show the branch for a commit.",
		},
		{
			Key:     "show_raw_author",
			Type:    "bool",
			Default: "false",
			Help:    "If checked, shows the raw author for a commit instead of the display name.",
		},
	}
}
