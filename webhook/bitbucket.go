package webhook

import (
	"log"
	"net/http"

	"chathooks/internal"
)

// BitbucketHandler is the native Bitbucket delivery endpoint, mounted at
// /webhooks/bitbucket/{key}. Bitbucket's POST service sends a form-encoded
// request whose "payload" field carries the JSON document; there is no
// signature to verify, the per-hook key is the shared secret.
type BitbucketHandler struct {
	dispatcher *Dispatcher
	logger     *log.Logger
	prefix     string
	maxBody    int64
}

// NewBitbucketHandler creates a new BitbucketHandler.
func NewBitbucketHandler(dispatcher *Dispatcher, logger *log.Logger, prefix string, maxBody int64) *BitbucketHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &BitbucketHandler{dispatcher: dispatcher, logger: logger, prefix: prefix, maxBody: maxBody}
}

// ServeHTTP handles an incoming HTTP request.
func (h *BitbucketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	reqID := requestID(r)
	w.Header().Set("X-Request-Id", reqID)
	logger := internal.WithRequestID(h.logger, reqID)
	internal.IncRequest("bitbucket")

	key := keyFromPath(r.URL.Path, h.prefix)
	if key == "" {
		http.NotFound(w, r)
		return
	}

	raw := extractPayload(r)
	if len(raw) == 0 {
		internal.IncDropped("missing_payload")
		w.WriteHeader(http.StatusOK)
		return
	}

	published := h.dispatcher.Handle(r.Context(), "bitbucket", key, raw, logger)
	logger.Printf("bitbucket key=%s published=%d", key, published)
	w.WriteHeader(http.StatusOK)
}
