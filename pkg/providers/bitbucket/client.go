package bitbucket

import (
	"errors"
	"os"
	"strings"

	bb "github.com/ktrysmt/go-bitbucket"
)

// Client is the Bitbucket SDK client.
type Client = bb.Client

// NewTokenClient returns a Bitbucket SDK client using an OAuth bearer token.
func NewTokenClient(token, baseURL string) (*Client, error) {
	if token == "" {
		return nil, errors.New("bitbucket token is required")
	}
	if base := normalizeBaseURL(baseURL); base != "" {
		_ = os.Setenv("BITBUCKET_API_BASE_URL", base)
	}
	return bb.NewOAuthbearerToken(token)
}

// RegisterPushWebhook creates a repo:push webhook on owner/repo pointing at
// hookURL.
func RegisterPushWebhook(client *Client, owner, repo, hookURL string) error {
	if owner == "" || repo == "" || hookURL == "" {
		return errors.New("bitbucket register webhook requires owner, repo and url")
	}
	_, err := client.Repositories.Webhooks.Create(&bb.WebhooksOptions{
		Owner:       owner,
		RepoSlug:    repo,
		Url:         hookURL,
		Active:      true,
		Description: "chathooks push notifications",
		Events:      []string{"repo:push"},
	})
	return err
}

func normalizeBaseURL(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}
