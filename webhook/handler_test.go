package webhook

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"chathooks/hooks"
)

func TestHookHandlerJSONBody(t *testing.T) {
	dispatcher, store, publisher := testDispatcher(t)
	hook := seedHook(t, store, hooks.ServiceBitbucket, "", "irc.notifico")
	handler := NewHookHandler(dispatcher, nil, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/h/"+hook.Key, strings.NewReader(dispatchPush))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
	if len(publisher.published()) != 2 {
		t.Fatalf("expected 2 published lines, got %d", len(publisher.published()))
	}
}

func TestHookHandlerFormPayload(t *testing.T) {
	dispatcher, store, publisher := testDispatcher(t)
	hook := seedHook(t, store, hooks.ServiceBitbucket, "", "irc.notifico")
	handler := NewHookHandler(dispatcher, nil, 1<<20)

	form := url.Values{"payload": {dispatchPush}}
	req := httptest.NewRequest(http.MethodPost, "/h/"+hook.Key, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(publisher.published()) != 2 {
		t.Fatalf("expected 2 published lines, got %d", len(publisher.published()))
	}
}

func TestHookHandlerMethodNotAllowed(t *testing.T) {
	dispatcher, _, _ := testDispatcher(t)
	handler := NewHookHandler(dispatcher, nil, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/h/some-key", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHookHandlerMissingKey(t *testing.T) {
	dispatcher, _, _ := testDispatcher(t)
	handler := NewHookHandler(dispatcher, nil, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/h/", strings.NewReader(dispatchPush))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHookHandlerEmptyPayload(t *testing.T) {
	dispatcher, store, publisher := testDispatcher(t)
	hook := seedHook(t, store, hooks.ServiceBitbucket, "", "irc.notifico")
	handler := NewHookHandler(dispatcher, nil, 1<<20)

	form := url.Values{"other": {"x"}}
	req := httptest.NewRequest(http.MethodPost, "/h/"+hook.Key, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Missing payload is "nothing to report", not a retryable error.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(publisher.published()) != 0 {
		t.Fatalf("expected no published lines")
	}
}

func TestHookHandlerUnknownKeyStill200(t *testing.T) {
	dispatcher, _, publisher := testDispatcher(t)
	handler := NewHookHandler(dispatcher, nil, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/h/nope", strings.NewReader(dispatchPush))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown key, got %d", rec.Code)
	}
	if len(publisher.published()) != 0 {
		t.Fatalf("expected no published lines")
	}
}

func TestBitbucketHandlerFormDelivery(t *testing.T) {
	dispatcher, store, publisher := testDispatcher(t)
	hook := seedHook(t, store, hooks.ServiceBitbucket, "", "irc.notifico")
	handler := NewBitbucketHandler(dispatcher, nil, "/webhooks/bitbucket/", 1<<20)

	form := url.Values{"payload": {dispatchPush}}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/bitbucket/"+hook.Key, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(publisher.published()) != 2 {
		t.Fatalf("expected 2 published lines, got %d", len(publisher.published()))
	}
}
