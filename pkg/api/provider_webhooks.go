package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"chathooks/internal"
	"chathooks/pkg/providers/bitbucket"
	"chathooks/pkg/providers/github"
	"chathooks/pkg/providers/gitlab"
	"chathooks/pkg/storage"
)

// RegisterWebhookHandler registers a push webhook on the remote service,
// pointing at this instance's delivery endpoint for an existing hook key.
// The service API token comes from the provider config or the request body.
type RegisterWebhookHandler struct {
	Store         storage.Store
	Providers     ProviderSet
	PublicBaseURL string
	Logger        *log.Logger
}

// ProviderSet carries the per-service registration settings.
type ProviderSet struct {
	GitHub    internal.ProviderConfig
	GitLab    internal.ProviderConfig
	Bitbucket internal.ProviderConfig
}

type registerWebhookRequest struct {
	Provider string `json:"provider"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	HookKey  string `json:"hook_key"`
	Token    string `json:"token"`
}

func (h *RegisterWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.Store == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	var req registerWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Provider = strings.ToLower(strings.TrimSpace(req.Provider))
	req.HookKey = strings.TrimSpace(req.HookKey)
	if req.Provider == "" || req.Owner == "" || req.Repo == "" || req.HookKey == "" {
		http.Error(w, "missing provider, owner, repo, or hook_key", http.StatusBadRequest)
		return
	}

	hook, err := h.Store.GetHookByKey(r.Context(), req.HookKey)
	if err != nil {
		http.Error(w, "hook lookup failed", http.StatusInternalServerError)
		if h.Logger != nil {
			h.Logger.Printf("hook lookup failed: %v", err)
		}
		return
	}
	if hook == nil {
		http.Error(w, "hook not found", http.StatusNotFound)
		return
	}

	cfg, err := h.providerConfig(req.Provider)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	token := req.Token
	if token == "" {
		token = cfg.Token
	}
	if token == "" {
		http.Error(w, "missing api token", http.StatusBadRequest)
		return
	}
	hookURL, err := deliveryURL(h.PublicBaseURL, cfg.Path, req.HookKey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch req.Provider {
	case "github":
		client, err := github.NewTokenClient(r.Context(), token, cfg.BaseURL)
		if err == nil {
			err = github.RegisterPushWebhook(r.Context(), client, req.Owner, req.Repo, hookURL, cfg.Secret)
		}
		if err != nil {
			h.registerFailed(w, req.Provider, err)
			return
		}
	case "gitlab":
		client, err := gitlab.NewTokenClient(token, cfg.BaseURL)
		if err == nil {
			err = gitlab.RegisterPushWebhook(r.Context(), client, req.Owner, req.Repo, hookURL, cfg.Secret)
		}
		if err != nil {
			h.registerFailed(w, req.Provider, err)
			return
		}
	case "bitbucket":
		client, err := bitbucket.NewTokenClient(token, cfg.BaseURL)
		if err == nil {
			err = bitbucket.RegisterPushWebhook(client, req.Owner, req.Repo, hookURL)
		}
		if err != nil {
			h.registerFailed(w, req.Provider, err)
			return
		}
	}

	writeJSON(w, map[string]string{
		"provider": req.Provider,
		"url":      hookURL,
	})
}

func (h *RegisterWebhookHandler) providerConfig(provider string) (internal.ProviderConfig, error) {
	switch provider {
	case "github":
		return h.Providers.GitHub, nil
	case "gitlab":
		return h.Providers.GitLab, nil
	case "bitbucket":
		return h.Providers.Bitbucket, nil
	default:
		return internal.ProviderConfig{}, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func (h *RegisterWebhookHandler) registerFailed(w http.ResponseWriter, provider string, err error) {
	http.Error(w, "webhook registration failed", http.StatusBadGateway)
	if h.Logger != nil {
		h.Logger.Printf("%s webhook registration failed: %v", provider, err)
	}
}

func deliveryURL(publicBaseURL, path, key string) (string, error) {
	publicBaseURL = strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if publicBaseURL == "" {
		return "", fmt.Errorf("public_base_url is required for webhook registration")
	}
	if path == "" {
		path = "/h/"
	}
	return publicBaseURL + strings.TrimRight(path, "/") + "/" + key, nil
}
