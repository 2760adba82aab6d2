package internal

import (
	"context"
	"fmt"
	"iter"
	"log"
	"sort"
)

// Adapter is the per-service pair of normalizer and renderer plus its stable
// service id and configuration schema. Adapters are registered once at
// process start and hold no mutable state, so any number of dispatches may
// run concurrently against the same adapter.
type Adapter interface {
	// ServiceID is the stable integer identifier persisted in hook records.
	ServiceID() int
	Name() string
	// Normalize converts the service-specific raw JSON document into the
	// canonical event. An empty or absent commit list is a valid result,
	// not an error; only undecodable input returns one.
	Normalize(raw []byte) (*NormalizedEvent, error)
	// Render produces the display lines for an event: a summary line
	// followed by one line per commit, or nothing when the event is
	// filtered or has nothing to show. The sequence is finite, pull-driven
	// and not restartable; re-ranging may re-invoke the link shortener.
	Render(ctx context.Context, ev *NormalizedEvent, cfg HookConfig) iter.Seq[NotificationLine]
	// ConfigSchema lists the configuration keys the adapter recognizes.
	ConfigSchema() []ConfigField
}

// Registry maps service ids to adapters. Registration is append-only until
// Seal, after which the registry is read-only and needs no locking.
type Registry struct {
	adapters map[int]Adapter
	sealed   bool
	logger   *log.Logger
}

func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{adapters: make(map[int]Adapter), logger: logger}
}

// Register adds an adapter. It fails on a sealed registry and on a duplicate
// service id; both are wiring mistakes, not runtime conditions.
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return fmt.Errorf("register: nil adapter")
	}
	if r.sealed {
		return fmt.Errorf("register %s: registry is sealed", a.Name())
	}
	if existing, ok := r.adapters[a.ServiceID()]; ok {
		return fmt.Errorf("register %s: service id %d already taken by %s",
			a.Name(), a.ServiceID(), existing.Name())
	}
	r.adapters[a.ServiceID()] = a
	return nil
}

// Seal freezes the registry. Further Register calls fail.
func (r *Registry) Seal() {
	r.sealed = true
}

// Resolve looks up the adapter for a service id.
func (r *Registry) Resolve(serviceID int) (Adapter, bool) {
	a, ok := r.adapters[serviceID]
	return a, ok
}

// Adapters returns every registered adapter ordered by service id.
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceID() < out[j].ServiceID() })
	return out
}

// Dispatch runs the full pipeline for one delivery: resolve the adapter,
// normalize the raw payload, render. Every data-driven failure fails closed:
// an unknown service id, undecodable JSON, an empty commit list or a filtered
// branch all yield an empty sequence. Zero lines is the designed signal for
// "nothing to report", never an error.
func (r *Registry) Dispatch(ctx context.Context, serviceID int, raw []byte, cfg HookConfig) iter.Seq[NotificationLine] {
	adapter, ok := r.Resolve(serviceID)
	if !ok {
		r.logger.Printf("dispatch: no adapter for service id %d", serviceID)
		IncDropped("unknown_service")
		return emptyLines
	}
	ev, err := adapter.Normalize(raw)
	if err != nil {
		r.logger.Printf("dispatch: %s normalize failed: %v", adapter.Name(), err)
		IncParseError(adapter.Name())
		return emptyLines
	}
	return adapter.Render(ctx, ev, cfg)
}

func emptyLines(func(NotificationLine) bool) {}
