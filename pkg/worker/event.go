package worker

import "encoding/json"

// Delivery is one rendered notification line received from the transport.
type Delivery struct {
	// Provider is the name of the service adapter that rendered the line.
	Provider string `json:"provider"`
	// Repo is the repository the push happened in.
	Repo string `json:"repo"`
	// Channel is the delivery channel the line was routed to, when routing
	// came from a project channel rather than a rule.
	Channel string `json:"channel"`
	// Topic is the transport topic the line was received on.
	Topic string `json:"topic"`
	// Text is the rendered line, with mIRC color codes unless Strip is set.
	Text string `json:"text"`
	// Strip reports that color codes were already removed at render time.
	Strip bool `json:"strip"`
	// Metadata contains message-broker-specific metadata.
	Metadata map[string]string `json:"metadata"`
	// Payload is the raw JSON payload of the message.
	Payload json.RawMessage `json:"payload"`
}
