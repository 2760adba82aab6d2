// Package hooks holds the per-service adapters: one normalizer/renderer pair
// per external code-hosting service, registered under a stable integer
// service id that hook records persist.
package hooks

import (
	"log"

	"chathooks/internal"
)

// Stable service identifiers. These are persisted in hook records and must
// never be renumbered.
const (
	ServiceGitHub    = 10
	ServiceGitLab    = 20
	ServiceBitbucket = 30
)

// DefaultRegistry builds and seals the registry with every supported
// adapter.
func DefaultRegistry(deps Deps, logger *log.Logger) (*internal.Registry, error) {
	reg := internal.NewRegistry(logger)
	adapters := []internal.Adapter{
		NewGitHubAdapter(deps),
		NewGitLabAdapter(deps),
		NewBitbucketAdapter(deps),
	}
	for _, adapter := range adapters {
		if err := reg.Register(adapter); err != nil {
			return nil, err
		}
	}
	reg.Seal()
	return reg, nil
}
