package webhook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chathooks/hooks"
)

const githubDispatchPush = `{
	"ref": "refs/heads/main",
	"compare": "https://github.com/alice/notifico/compare/abc...def",
	"pusher": {"name": "alice"},
	"repository": {"name": "notifico"},
	"commits": [{"id": "def4567890ab", "message": "one", "author": {"name": "Alice"}, "added": ["a.go"]}]
}`

func newGitHubTestHandler(t *testing.T) (*GitHubHandler, *memStore, *recordingPublisher) {
	t.Helper()
	dispatcher, store, publisher := testDispatcher(t)
	handler, err := NewGitHubHandler("", dispatcher, nil, "/webhooks/github/", 1<<20)
	if err != nil {
		t.Fatalf("github handler: %v", err)
	}
	return handler, store, publisher
}

func TestGitHubHandlerPushDelivery(t *testing.T) {
	handler, store, publisher := newGitHubTestHandler(t)
	hook := seedHook(t, store, hooks.ServiceGitHub, "", "irc.notifico")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/github/"+hook.Key, strings.NewReader(githubDispatchPush))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(publisher.published()) != 2 {
		t.Fatalf("expected 2 published lines, got %d", len(publisher.published()))
	}
}

func TestGitHubHandlerIgnoresOtherEvents(t *testing.T) {
	handler, store, publisher := newGitHubTestHandler(t)
	hook := seedHook(t, store, hooks.ServiceGitHub, "", "irc.notifico")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/github/"+hook.Key, strings.NewReader(`{"zen": "keep it simple"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "issues")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unhandled event, got %d", rec.Code)
	}
	if len(publisher.published()) != 0 {
		t.Fatalf("expected no published lines")
	}
}

func TestGitHubHandlerRejectsBadSignature(t *testing.T) {
	dispatcher, store, _ := testDispatcher(t)
	handler, err := NewGitHubHandler("s3cret", dispatcher, nil, "/webhooks/github/", 1<<20)
	if err != nil {
		t.Fatalf("github handler: %v", err)
	}
	hook := seedHook(t, store, hooks.ServiceGitHub, "", "irc.notifico")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/github/"+hook.Key, strings.NewReader(githubDispatchPush))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad signature, got %d", rec.Code)
	}
}
