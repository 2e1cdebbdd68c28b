// Package delivery defines the contract shared by all transport servers.
package delivery

import "context"

// Delivery is implemented by every server the application runs (HTTP, worker).
// Serve blocks until the server stops; shutdown is driven by fx lifecycle hooks.
type Delivery interface {
	Serve(ctx context.Context) error
}
