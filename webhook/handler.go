package webhook

import (
	"io"
	"log"
	"net/http"
	"strings"

	"chathooks/internal"
)

// HookHandler is the generic per-key endpoint, mounted at /h/. External
// services deliver either a form-encoded request with a "payload" field or a
// raw JSON body; the adapter selected by the hook's service id does all the
// parsing. The response is always 200 with no body for well-formed HTTP:
// zero published lines is the designed "nothing to report" outcome, never an
// error the sender should retry.
type HookHandler struct {
	Dispatcher *Dispatcher
	Logger     *log.Logger
	Prefix     string
	MaxBody    int64
}

func NewHookHandler(d *Dispatcher, logger *log.Logger, maxBody int64) *HookHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &HookHandler{Dispatcher: d, Logger: logger, Prefix: "/h/", MaxBody: maxBody}
}

func (h *HookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.MaxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBody)
	}
	reqID := requestID(r)
	w.Header().Set("X-Request-Id", reqID)
	logger := internal.WithRequestID(h.Logger, reqID)
	internal.IncRequest("hook")

	key := keyFromPath(r.URL.Path, h.Prefix)
	if key == "" {
		http.NotFound(w, r)
		return
	}

	raw := extractPayload(r)
	if len(raw) == 0 {
		// Nothing to report.
		internal.IncDropped("missing_payload")
		w.WriteHeader(http.StatusOK)
		return
	}

	published := h.Dispatcher.Handle(r.Context(), "", key, raw, logger)
	logger.Printf("hook key=%s published=%d", key, published)
	w.WriteHeader(http.StatusOK)
}

// extractPayload returns the webhook's JSON document: the "payload" form
// field when present (Bitbucket POST-service convention), otherwise the raw
// request body.
func extractPayload(r *http.Request) []byte {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data") {
		if p := r.PostFormValue("payload"); p != "" {
			return []byte(p)
		}
		return nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil
	}
	return body
}
