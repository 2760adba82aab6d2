package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"chathooks/internal"
	"chathooks/pkg/storage"
)

// ProjectsHandler creates and fetches projects.
type ProjectsHandler struct {
	Store  storage.Store
	Logger *log.Logger
}

type createProjectRequest struct {
	Name    string `json:"name"`
	Public  bool   `json:"public"`
	Website string `json:"website"`
}

func (h *ProjectsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req createProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			http.Error(w, "missing name", http.StatusBadRequest)
			return
		}
		record, err := h.Store.CreateProject(r.Context(), storage.ProjectRecord{
			Name:    req.Name,
			Public:  req.Public,
			Website: strings.TrimSpace(req.Website),
		})
		if err != nil {
			http.Error(w, "create project failed", http.StatusInternalServerError)
			if h.Logger != nil {
				h.Logger.Printf("create project failed: %v", err)
			}
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, record)
	case http.MethodGet:
		id, err := queryUint(r, "id")
		if err != nil {
			http.Error(w, "missing or invalid id", http.StatusBadRequest)
			return
		}
		record, err := h.Store.GetProject(r.Context(), id)
		if err != nil {
			http.Error(w, "project lookup failed", http.StatusInternalServerError)
			if h.Logger != nil {
				h.Logger.Printf("project lookup failed: %v", err)
			}
			return
		}
		if record == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, record)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HooksHandler creates and lists inbound hooks. Creation returns the opaque
// delivery key plus the path external services should POST to.
type HooksHandler struct {
	Store    storage.Store
	Registry *internal.Registry
	HookPath string
	Logger   *log.Logger
}

type createHookRequest struct {
	ProjectID uint           `json:"project_id"`
	ServiceID int            `json:"service_id"`
	Service   string         `json:"service"`
	Config    map[string]any `json:"config"`
}

type hookResponse struct {
	storage.HookRecord
	Service string `json:"service"`
	Path    string `json:"path"`
}

func (h *HooksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req createHookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if req.ProjectID == 0 {
			http.Error(w, "missing project_id", http.StatusBadRequest)
			return
		}
		serviceID, err := h.resolveServiceID(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		project, err := h.Store.GetProject(r.Context(), req.ProjectID)
		if err != nil {
			http.Error(w, "project lookup failed", http.StatusInternalServerError)
			if h.Logger != nil {
				h.Logger.Printf("project lookup failed: %v", err)
			}
			return
		}
		if project == nil {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}
		configJSON := ""
		if len(req.Config) > 0 {
			buf, err := json.Marshal(req.Config)
			if err != nil {
				http.Error(w, "invalid config", http.StatusBadRequest)
				return
			}
			configJSON = string(buf)
		}
		record, err := h.Store.CreateHook(r.Context(), storage.HookRecord{
			ServiceID:  serviceID,
			ProjectID:  req.ProjectID,
			ConfigJSON: configJSON,
		})
		if err != nil {
			http.Error(w, "create hook failed", http.StatusInternalServerError)
			if h.Logger != nil {
				h.Logger.Printf("create hook failed: %v", err)
			}
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, h.hookResponse(record))
	case http.MethodGet:
		projectID, err := queryUint(r, "project_id")
		if err != nil {
			http.Error(w, "missing or invalid project_id", http.StatusBadRequest)
			return
		}
		records, err := h.Store.ListHooks(r.Context(), projectID)
		if err != nil {
			http.Error(w, "list hooks failed", http.StatusInternalServerError)
			if h.Logger != nil {
				h.Logger.Printf("list hooks failed: %v", err)
			}
			return
		}
		out := make([]hookResponse, 0, len(records))
		for _, record := range records {
			out = append(out, h.hookResponse(record))
		}
		writeJSON(w, out)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HooksHandler) resolveServiceID(req createHookRequest) (int, error) {
	if req.ServiceID != 0 {
		if h.Registry != nil {
			if _, ok := h.Registry.Resolve(req.ServiceID); !ok {
				return 0, errors.New("unknown service_id")
			}
		}
		return req.ServiceID, nil
	}
	name := strings.ToLower(strings.TrimSpace(req.Service))
	if name == "" {
		return 0, errors.New("missing service_id or service")
	}
	if h.Registry == nil {
		return 0, errors.New("registry not configured")
	}
	for _, adapter := range h.Registry.Adapters() {
		if adapter.Name() == name {
			return adapter.ServiceID(), nil
		}
	}
	return 0, errors.New("unknown service")
}

func (h *HooksHandler) hookResponse(record storage.HookRecord) hookResponse {
	resp := hookResponse{HookRecord: record}
	if h.Registry != nil {
		if adapter, ok := h.Registry.Resolve(record.ServiceID); ok {
			resp.Service = adapter.Name()
		}
	}
	path := h.HookPath
	if path == "" {
		path = "/h/"
	}
	resp.Path = strings.TrimRight(path, "/") + "/" + record.Key
	return resp
}

// ChannelsHandler creates and lists a project's delivery channels.
type ChannelsHandler struct {
	Store  storage.Store
	Logger *log.Logger
}

type createChannelRequest struct {
	ProjectID uint     `json:"project_id"`
	Topic     string   `json:"topic"`
	Drivers   []string `json:"drivers"`
	Public    bool     `json:"public"`
}

func (h *ChannelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req createChannelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Topic = strings.TrimSpace(req.Topic)
		if req.ProjectID == 0 || req.Topic == "" {
			http.Error(w, "missing project_id or topic", http.StatusBadRequest)
			return
		}
		record, err := h.Store.CreateChannel(r.Context(), storage.ChannelRecord{
			ProjectID: req.ProjectID,
			Topic:     req.Topic,
			Drivers:   req.Drivers,
			Public:    req.Public,
		})
		if err != nil {
			http.Error(w, "create channel failed", http.StatusInternalServerError)
			if h.Logger != nil {
				h.Logger.Printf("create channel failed: %v", err)
			}
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, record)
	case http.MethodGet:
		projectID, err := queryUint(r, "project_id")
		if err != nil {
			http.Error(w, "missing or invalid project_id", http.StatusBadRequest)
			return
		}
		records, err := h.Store.ListChannels(r.Context(), projectID)
		if err != nil {
			http.Error(w, "list channels failed", http.StatusInternalServerError)
			if h.Logger != nil {
				h.Logger.Printf("list channels failed: %v", err)
			}
			return
		}
		writeJSON(w, records)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// AdaptersHandler lists registered service adapters and their config schemas.
type AdaptersHandler struct {
	Registry *internal.Registry
}

type adapterInfo struct {
	ServiceID int                    `json:"service_id"`
	Name      string                 `json:"name"`
	Schema    []internal.ConfigField `json:"schema"`
}

func (h *AdaptersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.Registry == nil {
		http.Error(w, "registry not configured", http.StatusServiceUnavailable)
		return
	}
	adapters := h.Registry.Adapters()
	out := make([]adapterInfo, 0, len(adapters))
	for _, adapter := range adapters {
		out = append(out, adapterInfo{
			ServiceID: adapter.ServiceID(),
			Name:      adapter.Name(),
			Schema:    adapter.ConfigSchema(),
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func queryUint(r *http.Request, name string) (uint, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, errors.New("missing " + name)
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
