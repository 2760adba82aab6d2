package worker

import (
	"encoding/json"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Codec decodes messages from a message broker into a Delivery.
type Codec interface {
	Decode(topic string, msg *message.Message) (*Delivery, error)
}

// DefaultCodec decodes the JSON line envelope the dispatcher publishes.
type DefaultCodec struct{}

type envelope struct {
	Provider string `json:"provider"`
	Repo     string `json:"repo"`
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	Strip    bool   `json:"strip"`
}

// Decode unmarshals a Watermill message into a Delivery. Envelope fields
// missing from the payload fall back to message metadata.
func (DefaultCodec) Decode(topic string, msg *message.Message) (*Delivery, error) {
	var env envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return nil, err
	}

	metadata := make(map[string]string, len(msg.Metadata))
	for key, value := range msg.Metadata {
		metadata[key] = value
	}

	if env.Provider == "" {
		env.Provider = msg.Metadata.Get("provider")
	}
	if env.Repo == "" {
		env.Repo = msg.Metadata.Get("repo")
	}
	if !env.Strip {
		env.Strip, _ = strconv.ParseBool(msg.Metadata.Get("strip"))
	}

	return &Delivery{
		Provider: env.Provider,
		Repo:     env.Repo,
		Channel:  env.Channel,
		Topic:    topic,
		Text:     env.Text,
		Strip:    env.Strip,
		Metadata: metadata,
		Payload:  json.RawMessage(msg.Payload),
	}, nil
}
