package webhook

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"

	"chathooks/internal"

	"github.com/go-playground/webhooks/v6/github"
)

// GitHubHandler is the native GitHub delivery endpoint, mounted at
// /webhooks/github/{key}. Signature verification and event gating use
// go-playground/webhooks; the raw body then flows through the same dispatch
// path as every other delivery.
type GitHubHandler struct {
	hook       *github.Webhook
	dispatcher *Dispatcher
	logger     *log.Logger
	prefix     string
	maxBody    int64
}

// NewGitHubHandler creates a new GitHubHandler. An empty secret disables
// signature verification.
func NewGitHubHandler(secret string, dispatcher *Dispatcher, logger *log.Logger, prefix string, maxBody int64) (*GitHubHandler, error) {
	options := make([]github.Option, 0, 1)
	if secret != "" {
		options = append(options, github.Options.Secret(secret))
	}
	hook, err := github.New(options...)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &GitHubHandler{hook: hook, dispatcher: dispatcher, logger: logger, prefix: prefix, maxBody: maxBody}, nil
}

func (h *GitHubHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	reqID := requestID(r)
	w.Header().Set("X-Request-Id", reqID)
	logger := internal.WithRequestID(h.logger, reqID)
	internal.IncRequest("github")

	key := keyFromPath(r.URL.Path, h.prefix)
	if key == "" {
		http.NotFound(w, r)
		return
	}

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(rawBody))

	if _, err := h.hook.Parse(r, github.PushEvent, github.PingEvent); err != nil {
		if errors.Is(err, github.ErrEventNotFound) {
			// Not a push; nothing to render.
			w.WriteHeader(http.StatusOK)
			return
		}
		logger.Printf("github parse failed: %v", err)
		internal.IncParseError("github")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if r.Header.Get("X-GitHub-Event") == "ping" {
		w.WriteHeader(http.StatusOK)
		return
	}

	published := h.dispatcher.Handle(r.Context(), "github", key, rawBody, logger)
	logger.Printf("github key=%s published=%d", key, published)
	w.WriteHeader(http.StatusOK)
}
