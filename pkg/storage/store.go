package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"
)

// ProjectRecord is one configured project. Hooks and channels hang off it.
type ProjectRecord struct {
	ID           uint
	Name         string
	Public       bool
	Website      string
	MessageCount int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HookRecord is one configured inbound hook: the opaque key external
// services deliver to, the service id that selects the adapter, and the
// user's rendering configuration as a JSON bag.
type HookRecord struct {
	ID           uint
	Key          string
	ServiceID    int
	ProjectID    uint
	ConfigJSON   string
	MessageCount int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ConfigBag decodes the persisted configuration bag. A missing or broken bag
// decodes to nil, which downstream treats as all-defaults.
func (h *HookRecord) ConfigBag() map[string]any {
	if h == nil || h.ConfigJSON == "" {
		return nil
	}
	var bag map[string]any
	if err := json.Unmarshal([]byte(h.ConfigJSON), &bag); err != nil {
		return nil
	}
	return bag
}

// ChannelRecord is one delivery target of a project: a transport topic plus
// an optional driver list restricting which publishers carry it.
type ChannelRecord struct {
	ID        uint
	ProjectID uint
	Topic     string
	Drivers   []string
	Public    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store defines persistence for projects, hooks and channels.
type Store interface {
	CreateProject(ctx context.Context, record ProjectRecord) (ProjectRecord, error)
	GetProject(ctx context.Context, id uint) (*ProjectRecord, error)

	CreateHook(ctx context.Context, record HookRecord) (HookRecord, error)
	GetHookByKey(ctx context.Context, key string) (*HookRecord, error)
	GetHookByServiceAndProject(ctx context.Context, serviceID int, projectID uint) (*HookRecord, error)
	ListHooks(ctx context.Context, projectID uint) ([]HookRecord, error)
	IncrementHookMessages(ctx context.Context, hookID uint, n int64) error

	CreateChannel(ctx context.Context, record ChannelRecord) (ChannelRecord, error)
	ListChannels(ctx context.Context, projectID uint) ([]ChannelRecord, error)

	Close() error
}

const hookKeyLen = 24

// NewHookKey returns a random, URL-safe, 24-character opaque hook key.
func NewHookKey() string {
	buf := make([]byte, hookKeyLen)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:hookKeyLen]
}
