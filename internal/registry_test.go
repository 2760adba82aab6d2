package internal

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"testing"
)

// fakeAdapter is a minimal adapter for registry tests. It renders one line
// per entry in the decoded "lines" array.
type fakeAdapter struct {
	id   int
	name string
}

func (f fakeAdapter) ServiceID() int { return f.id }
func (f fakeAdapter) Name() string   { return f.name }

func (f fakeAdapter) Normalize(raw []byte) (*NormalizedEvent, error) {
	var payload struct {
		Lines []string `json:"lines"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.New("undecodable payload")
	}
	return &NormalizedEvent{Original: payload.Lines}, nil
}

func (f fakeAdapter) Render(ctx context.Context, ev *NormalizedEvent, cfg HookConfig) iter.Seq[NotificationLine] {
	lines, _ := ev.Original.([]string)
	return func(yield func(NotificationLine) bool) {
		for _, text := range lines {
			if !yield(NotificationLine{Text: text}) {
				return
			}
		}
	}
}

func (f fakeAdapter) ConfigSchema() []ConfigField { return StandardConfigSchema() }

func collect(lines iter.Seq[NotificationLine]) []NotificationLine {
	var out []NotificationLine
	for line := range lines {
		out = append(out, line)
	}
	return out
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register(fakeAdapter{id: 10, name: "github"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(fakeAdapter{id: 30, name: "bitbucket"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	adapter, ok := reg.Resolve(10)
	if !ok || adapter.Name() != "github" {
		t.Fatalf("expected github adapter for id 10")
	}
	if _, ok := reg.Resolve(99); ok {
		t.Fatalf("expected no adapter for id 99")
	}
}

func TestRegistryRejectsDuplicateAndNil(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register(fakeAdapter{id: 10, name: "github"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(fakeAdapter{id: 10, name: "impostor"}); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatalf("expected nil adapter to fail")
	}
}

func TestRegistrySealed(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register(fakeAdapter{id: 10, name: "github"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.Seal()
	if err := reg.Register(fakeAdapter{id: 20, name: "gitlab"}); err == nil {
		t.Fatalf("expected register on sealed registry to fail")
	}
	if _, ok := reg.Resolve(10); !ok {
		t.Fatalf("expected resolve to keep working after seal")
	}
}

func TestRegistryAdaptersOrdered(t *testing.T) {
	reg := NewRegistry(nil)
	for _, a := range []fakeAdapter{{30, "bitbucket"}, {10, "github"}, {20, "gitlab"}} {
		if err := reg.Register(a); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	got := reg.Adapters()
	want := []int{10, 20, 30}
	for i, adapter := range got {
		if adapter.ServiceID() != want[i] {
			t.Fatalf("position %d: expected id %d, got %d", i, want[i], adapter.ServiceID())
		}
	}
}

func TestDispatchUnknownServiceFailsClosed(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Seal()
	lines := collect(reg.Dispatch(context.Background(), 42, []byte(`{}`), DefaultHookConfig()))
	if len(lines) != 0 {
		t.Fatalf("expected empty sequence, got %d lines", len(lines))
	}
}

func TestDispatchMalformedPayloadFailsClosed(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register(fakeAdapter{id: 10, name: "github"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.Seal()
	lines := collect(reg.Dispatch(context.Background(), 10, []byte(`{"lines": not json`), DefaultHookConfig()))
	if len(lines) != 0 {
		t.Fatalf("expected empty sequence for malformed payload, got %d lines", len(lines))
	}
}

func TestDispatchRendersLines(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register(fakeAdapter{id: 10, name: "github"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.Seal()
	lines := collect(reg.Dispatch(context.Background(), 10, []byte(`{"lines":["one","two"]}`), DefaultHookConfig()))
	if len(lines) != 2 || lines[0].Text != "one" || lines[1].Text != "two" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}
