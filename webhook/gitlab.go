package webhook

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"

	"chathooks/internal"

	"github.com/go-playground/webhooks/v6/gitlab"
)

// GitLabHandler is the native GitLab delivery endpoint, mounted at
// /webhooks/gitlab/{key}. Token verification and event gating use
// go-playground/webhooks; only push hooks proceed to dispatch.
type GitLabHandler struct {
	hook       *gitlab.Webhook
	dispatcher *Dispatcher
	logger     *log.Logger
	prefix     string
	maxBody    int64
}

// NewGitLabHandler creates a new GitLabHandler. An empty secret disables
// token verification.
func NewGitLabHandler(secret string, dispatcher *Dispatcher, logger *log.Logger, prefix string, maxBody int64) (*GitLabHandler, error) {
	options := make([]gitlab.Option, 0, 1)
	if secret != "" {
		options = append(options, gitlab.Options.Secret(secret))
	}
	hook, err := gitlab.New(options...)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &GitLabHandler{hook: hook, dispatcher: dispatcher, logger: logger, prefix: prefix, maxBody: maxBody}, nil
}

// ServeHTTP handles an incoming HTTP request.
func (h *GitLabHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	reqID := requestID(r)
	w.Header().Set("X-Request-Id", reqID)
	logger := internal.WithRequestID(h.logger, reqID)
	internal.IncRequest("gitlab")

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

	if _, err := h.hook.Parse(r, gitlab.PushEvents); err != nil {
		if errors.Is(err, gitlab.ErrEventNotFound) {
			w.WriteHeader(http.StatusOK)
			return
		}
		logger.Printf("gitlab parse failed: %v", err)
		internal.IncParseError("gitlab")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	published := h.dispatcher.Handle(r.Context(), "gitlab", key, rawBody, logger)
	logger.Printf("gitlab key=%s published=%d", key, published)
	w.WriteHeader(http.StatusOK)
}
