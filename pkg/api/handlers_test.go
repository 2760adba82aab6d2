package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"chathooks/hooks"
	"chathooks/internal"
	"chathooks/pkg/storage"
)

// stubStore is an in-memory storage.Store for handler tests.
type stubStore struct {
	mu       sync.Mutex
	projects map[uint]storage.ProjectRecord
	hooks    map[string]storage.HookRecord
	channels map[uint][]storage.ChannelRecord
	nextID   uint
}

func newStubStore() *stubStore {
	return &stubStore{
		projects: make(map[uint]storage.ProjectRecord),
		hooks:    make(map[string]storage.HookRecord),
		channels: make(map[uint][]storage.ChannelRecord),
	}
}

func (s *stubStore) CreateProject(_ context.Context, record storage.ProjectRecord) (storage.ProjectRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	record.ID = s.nextID
	s.projects[record.ID] = record
	return record, nil
}

func (s *stubStore) GetProject(_ context.Context, id uint) (*storage.ProjectRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.projects[id]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *stubStore) CreateHook(_ context.Context, record storage.HookRecord) (storage.HookRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	record.ID = s.nextID
	if record.Key == "" {
		record.Key = storage.NewHookKey()
	}
	s.hooks[record.Key] = record
	return record, nil
}

func (s *stubStore) GetHookByKey(_ context.Context, key string) (*storage.HookRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.hooks[key]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *stubStore) GetHookByServiceAndProject(_ context.Context, serviceID int, projectID uint) (*storage.HookRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.hooks {
		if record.ServiceID == serviceID && record.ProjectID == projectID {
			out := record
			return &out, nil
		}
	}
	return nil, nil
}

func (s *stubStore) ListHooks(_ context.Context, projectID uint) ([]storage.HookRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.HookRecord
	for _, record := range s.hooks {
		if record.ProjectID == projectID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *stubStore) IncrementHookMessages(_ context.Context, hookID uint, n int64) error {
	return nil
}

func (s *stubStore) CreateChannel(_ context.Context, record storage.ChannelRecord) (storage.ChannelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	record.ID = s.nextID
	s.channels[record.ProjectID] = append(s.channels[record.ProjectID], record)
	return record, nil
}

func (s *stubStore) ListChannels(_ context.Context, projectID uint) ([]storage.ChannelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.ChannelRecord(nil), s.channels[projectID]...), nil
}

func (s *stubStore) Close() error { return nil }

func testRegistry(t *testing.T) *internal.Registry {
	t.Helper()
	registry, err := hooks.DefaultRegistry(hooks.Deps{
		Palette:   internal.Monochrome(),
		Shortener: internal.NoopShortener{},
	}, nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return registry
}

func TestProjectsHandlerCreateAndGet(t *testing.T) {
	store := newStubStore()
	handler := &ProjectsHandler{Store: store}

	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(`{"name": "notifico", "public": true}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created storage.ProjectRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == 0 || created.Name != "notifico" {
		t.Fatalf("unexpected project: %+v", created)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/projects?id=1", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/projects?id=99", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown project, got %d", rec.Code)
	}
}

func TestProjectsHandlerRejectsMissingName(t *testing.T) {
	handler := &ProjectsHandler{Store: newStubStore()}
	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(`{"name": "  "}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHooksHandlerCreateByServiceName(t *testing.T) {
	store := newStubStore()
	store.CreateProject(context.Background(), storage.ProjectRecord{Name: "notifico"})
	handler := &HooksHandler{Store: store, Registry: testRegistry(t), HookPath: "/h/"}

	body := `{"project_id": 1, "service": "bitbucket", "config": {"branches": "master"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/hooks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Key       string `json:"Key"`
		ServiceID int    `json:"ServiceID"`
		Service   string `json:"service"`
		Path      string `json:"path"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ServiceID != hooks.ServiceBitbucket || resp.Service != "bitbucket" {
		t.Fatalf("unexpected service: %+v", resp)
	}
	if len(resp.Key) != 24 {
		t.Fatalf("expected 24-character key, got %q", resp.Key)
	}
	if resp.Path != "/h/"+resp.Key {
		t.Fatalf("unexpected delivery path: %q", resp.Path)
	}
}

func TestHooksHandlerRejectsUnknownService(t *testing.T) {
	store := newStubStore()
	store.CreateProject(context.Background(), storage.ProjectRecord{Name: "notifico"})
	handler := &HooksHandler{Store: store, Registry: testRegistry(t)}

	req := httptest.NewRequest(http.MethodPost, "/api/hooks", strings.NewReader(`{"project_id": 1, "service": "sourceforge"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/hooks", strings.NewReader(`{"project_id": 1, "service_id": 999}`))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown service_id, got %d", rec.Code)
	}
}

func TestChannelsHandlerCreateAndList(t *testing.T) {
	store := newStubStore()
	store.CreateProject(context.Background(), storage.ProjectRecord{Name: "notifico"})
	handler := &ChannelsHandler{Store: store}

	body := `{"project_id": 1, "topic": "irc.notifico", "drivers": ["amqp"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/channels", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/channels?project_id=1", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var channels []storage.ChannelRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &channels); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(channels) != 1 || channels[0].Topic != "irc.notifico" {
		t.Fatalf("unexpected channels: %+v", channels)
	}
}

func TestAdaptersHandlerListsAll(t *testing.T) {
	handler := &AdaptersHandler{Registry: testRegistry(t)}
	req := httptest.NewRequest(http.MethodGet, "/api/adapters", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var adapters []adapterInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &adapters); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(adapters) != 3 {
		t.Fatalf("expected 3 adapters, got %d", len(adapters))
	}
	for _, a := range adapters {
		if a.ServiceID == 0 || a.Name == "" || len(a.Schema) == 0 {
			t.Fatalf("incomplete adapter info: %+v", a)
		}
	}
}

func TestRegisterWebhookHandlerValidation(t *testing.T) {
	store := newStubStore()
	store.CreateProject(context.Background(), storage.ProjectRecord{Name: "notifico"})
	hook, _ := store.CreateHook(context.Background(), storage.HookRecord{ServiceID: hooks.ServiceGitHub, ProjectID: 1})
	handler := &RegisterWebhookHandler{Store: store}

	// Unknown hook key.
	body := `{"provider": "github", "owner": "alice", "repo": "notifico", "hook_key": "nope", "token": "t"}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown hook key, got %d", rec.Code)
	}

	// Known key but no public base URL configured.
	body = `{"provider": "github", "owner": "alice", "repo": "notifico", "hook_key": "` + hook.Key + `", "token": "t"}`
	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/register", strings.NewReader(body))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without public base url, got %d", rec.Code)
	}

	// Unsupported provider.
	body = `{"provider": "sourceforge", "owner": "alice", "repo": "notifico", "hook_key": "` + hook.Key + `"}`
	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/register", strings.NewReader(body))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported provider, got %d", rec.Code)
	}
}

func TestDeliveryURL(t *testing.T) {
	tests := []struct {
		base, path, key string
		want            string
		wantErr         bool
	}{
		{"https://chathooks.example.com", "/h/", "abc", "https://chathooks.example.com/h/abc", false},
		{"https://chathooks.example.com/", "/webhooks/github/", "abc", "https://chathooks.example.com/webhooks/github/abc", false},
		{"", "/h/", "abc", "", true},
	}
	for _, tt := range tests {
		got, err := deliveryURL(tt.base, tt.path, tt.key)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("deliveryURL(%q): expected error", tt.base)
			}
			continue
		}
		if err != nil {
			t.Fatalf("deliveryURL(%q): %v", tt.base, err)
		}
		if got != tt.want {
			t.Fatalf("deliveryURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}
