package webhook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"chathooks/internal"
	"chathooks/pkg/storage"
)

// Dispatcher runs one webhook delivery through the full pipeline: resolve
// the hook record by its opaque key, dispatch through the adapter registry,
// and fan the rendered lines out to the project's channels plus any routing
// rules the delivery matches. Every data-driven failure degrades to zero
// published lines.
type Dispatcher struct {
	Registry  *internal.Registry
	Store     storage.Store
	Rules     *internal.RuleEngine
	Publisher internal.Publisher
}

// Handle publishes the lines for one delivery and returns how many went out.
// provider, when non-empty, must match the resolved adapter: a GitHub
// delivery aimed at a Bitbucket hook key is dropped, not misrendered.
func (d *Dispatcher) Handle(ctx context.Context, provider, key string, raw []byte, logger *log.Logger) int {
	hook, err := d.Store.GetHookByKey(ctx, key)
	if err != nil {
		logger.Printf("hook lookup failed: %v", err)
		return 0
	}
	if hook == nil {
		logger.Printf("no hook for key %q", key)
		internal.IncDropped("unknown_key")
		return 0
	}
	adapter, ok := d.Registry.Resolve(hook.ServiceID)
	if !ok {
		internal.IncDropped("unknown_service")
		return 0
	}
	if provider != "" && adapter.Name() != provider {
		logger.Printf("hook %d is %s, delivery came from %s", hook.ID, adapter.Name(), provider)
		internal.IncDropped("service_mismatch")
		return 0
	}

	cfg := internal.HookConfigFromBag(hook.ConfigBag())
	lines := d.Registry.Dispatch(ctx, hook.ServiceID, raw, cfg)

	channels, err := d.Store.ListChannels(ctx, hook.ProjectID)
	if err != nil {
		logger.Printf("channel lookup failed: %v", err)
		channels = nil
	}

	rawObject, data := rawObjectAndFlatten(raw)
	var matches []internal.RuleMatch
	if d.Rules != nil {
		matches = d.Rules.Evaluate(internal.Event{
			Provider:   adapter.Name(),
			Name:       "push",
			Data:       data,
			RawPayload: raw,
			RawObject:  rawObject,
		})
	}
	if len(channels) == 0 && len(matches) == 0 {
		// No consumer: leave the sequence unpulled so no line is built and
		// the shortener is never called.
		return 0
	}

	repo := repoName(data)
	published := 0
	for line := range lines {
		msg := internal.Message{
			Provider: adapter.Name(),
			Repo:     repo,
			Text:     line.Text,
			Strip:    line.Strip,
		}
		for _, channel := range channels {
			msg.Channel = channel.Topic
			if err := d.Publisher.PublishForDrivers(ctx, channel.Topic, msg, channel.Drivers); err != nil {
				logger.Printf("publish %s failed: %v", channel.Topic, err)
			}
		}
		msg.Channel = ""
		for _, match := range matches {
			if err := d.Publisher.PublishForDrivers(ctx, match.Topic, msg, match.Drivers); err != nil {
				logger.Printf("publish %s failed: %v", match.Topic, err)
			}
		}
		published++
	}

	if published > 0 {
		if err := d.Store.IncrementHookMessages(ctx, hook.ID, int64(published)); err != nil {
			logger.Printf("message count update failed: %v", err)
		}
	}
	return published
}

func rawObjectAndFlatten(raw []byte) (interface{}, map[string]interface{}) {
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, map[string]interface{}{}
	}
	objectMap, ok := out.(map[string]interface{})
	if !ok {
		return out, map[string]interface{}{}
	}
	return out, internal.Flatten(objectMap)
}

// repoName lifts the repository display name out of a flattened payload.
// GitHub and Bitbucket nest it under repository, GitLab under project.
func repoName(data map[string]interface{}) string {
	for _, key := range []string{"repository.name", "project.name"} {
		if name, ok := data[key].(string); ok && name != "" {
			return name
		}
	}
	return ""
}

// keyFromPath extracts the trailing hook key from a mounted prefix like
// "/webhooks/github/".
func keyFromPath(path, prefix string) string {
	key := strings.TrimPrefix(path, prefix)
	key = strings.Trim(key, "/")
	if strings.Contains(key, "/") {
		return ""
	}
	return key
}

func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
