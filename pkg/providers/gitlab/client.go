package gitlab

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gl "github.com/xanzy/go-gitlab"
)

// Client is the GitLab SDK client.
type Client = gl.Client

// NewTokenClient creates a GitLab SDK client from a personal access token.
func NewTokenClient(token, baseURL string) (*Client, error) {
	if token == "" {
		return nil, errors.New("gitlab token is required")
	}
	options := make([]gl.ClientOptionFunc, 0, 1)
	if base := strings.TrimRight(baseURL, "/"); base != "" {
		options = append(options, gl.WithBaseURL(base))
	}
	return gl.NewClient(token, options...)
}

// RegisterPushWebhook creates a push webhook on owner/repo pointing at
// hookURL. GitLab echoes secret back as the X-Gitlab-Token header when one
// is given.
func RegisterPushWebhook(ctx context.Context, client *Client, owner, repo, hookURL, secret string) error {
	if owner == "" || repo == "" || hookURL == "" {
		return errors.New("gitlab register webhook requires owner, repo and url")
	}
	pid := fmt.Sprintf("%s/%s", owner, repo)
	opts := &gl.AddProjectHookOptions{
		URL:        gl.Ptr(hookURL),
		PushEvents: gl.Ptr(true),
	}
	if secret != "" {
		opts.Token = gl.Ptr(secret)
	}
	_, _, err := client.Projects.AddProjectHook(pid, opts, gl.WithContext(ctx))
	return err
}
