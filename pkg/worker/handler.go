package worker

import "context"

// Handler processes one delivered notification line.
type Handler func(ctx context.Context, d *Delivery) error

// Middleware wraps a handler to add functionality.
type Middleware func(Handler) Handler
