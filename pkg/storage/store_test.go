package storage

import (
	"strings"
	"testing"
)

func TestNewHookKey(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		key := NewHookKey()
		if len(key) != 24 {
			t.Fatalf("expected 24-character key, got %d: %q", len(key), key)
		}
		if strings.ContainsAny(key, "+/= ") {
			t.Fatalf("expected URL-safe key, got %q", key)
		}
		if _, ok := seen[key]; ok {
			t.Fatalf("duplicate key generated: %q", key)
		}
		seen[key] = struct{}{}
	}
}

func TestHookRecordConfigBag(t *testing.T) {
	tests := []struct {
		name string
		json string
		want map[string]any
	}{
		{"empty", "", nil},
		{"valid", `{"use_colors": false, "branches": "master"}`, map[string]any{"use_colors": false, "branches": "master"}},
		{"broken", `{"use_colors":`, nil},
		{"not an object", `[1, 2]`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &HookRecord{ConfigJSON: tt.json}
			bag := record.ConfigBag()
			if tt.want == nil {
				if bag != nil {
					t.Fatalf("expected nil bag, got %v", bag)
				}
				return
			}
			if len(bag) != len(tt.want) {
				t.Fatalf("expected %d keys, got %v", len(tt.want), bag)
			}
			if bag["use_colors"] != false {
				t.Fatalf("expected use_colors false, got %v", bag["use_colors"])
			}
			if bag["branches"] != "master" {
				t.Fatalf("expected branches master, got %v", bag["branches"])
			}
		})
	}

	var missing *HookRecord
	if missing.ConfigBag() != nil {
		t.Fatalf("expected nil bag for nil record")
	}
}
