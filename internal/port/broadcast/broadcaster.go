// Package broadcast defines the port for streaming governed events to
// connected console clients.
package broadcast

import "context"

// Broadcaster fans a typed event out to every connected client. Used by the
// audit trail to surface accepted entries live; delivery is best effort.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
