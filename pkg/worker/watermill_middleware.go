package worker

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// MiddlewareFromWatermill adapts a Watermill handler middleware, such as
// middleware.Retry or middleware.Throttle, to the worker's handler chain.
func MiddlewareFromWatermill(m message.HandlerMiddleware) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, d *Delivery) error {
			msg := message.NewMessage(watermill.NewUUID(), []byte(d.Payload))
			if d.Metadata != nil {
				msg.Metadata = message.Metadata{}
				for key, value := range d.Metadata {
					msg.Metadata[key] = value
				}
			}
			wrapped := m(func(_ *message.Message) ([]*message.Message, error) {
				return nil, next(ctx, d)
			})
			_, err := wrapped(msg)
			return err
		}
	}
}
