package worker

import "context"

// Listener provides hooks into the worker's lifecycle for logging, metrics, etc.
type Listener struct {
	// OnStart is called when the worker starts.
	OnStart func(ctx context.Context)
	// OnExit is called when the worker exits.
	OnExit func(ctx context.Context)
	// OnDeliveryStart is called when a line is received.
	OnDeliveryStart func(ctx context.Context, d *Delivery)
	// OnDeliveryFinish is called when a line has been processed.
	OnDeliveryFinish func(ctx context.Context, d *Delivery, err error)
	// OnError is called when an error occurs.
	OnError func(ctx context.Context, d *Delivery, err error)
}
