package github

import (
	"context"
	"errors"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// Client is the official GitHub SDK client.
type Client = gh.Client

const defaultBaseURL = "https://api.github.com"

// NewTokenClient creates a GitHub SDK client from a personal access token.
func NewTokenClient(ctx context.Context, token, baseURL string) (*Client, error) {
	if token == "" {
		return nil, errors.New("github token is required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)

	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL != "" && baseURL != defaultBaseURL {
		return gh.NewEnterpriseClient(baseURL, baseURL, httpClient)
	}
	return gh.NewClient(httpClient), nil
}

// RegisterPushWebhook creates a push webhook on owner/repo pointing at
// hookURL. Deliveries arrive as JSON and are signed with secret when one is
// given.
func RegisterPushWebhook(ctx context.Context, client *Client, owner, repo, hookURL, secret string) error {
	if owner == "" || repo == "" || hookURL == "" {
		return errors.New("github register webhook requires owner, repo and url")
	}
	config := map[string]interface{}{
		"url":          hookURL,
		"content_type": "json",
	}
	if secret != "" {
		config["secret"] = secret
	}
	hook := &gh.Hook{
		Active: gh.Bool(true),
		Events: []string{"push"},
		Config: config,
	}
	_, _, err := client.Repositories.CreateHook(ctx, owner, repo, hook)
	return err
}
