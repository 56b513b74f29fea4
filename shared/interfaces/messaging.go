package interfaces

import (
	"context"

	"dream-advisor/shared/messaging"
)

// SessionTaskPublisher defines the interface for publishing session generation
// tasks to the worker queue.
type SessionTaskPublisher interface {
	PublishSessionTask(ctx context.Context, payload messaging.SessionTaskPayload) error
}

// ClientUpdatePublisher defines the interface for publishing session progress
// updates destined for connected clients (websocket fan-out).
type ClientUpdatePublisher interface {
	PublishClientUpdate(ctx context.Context, payload messaging.SessionUpdatePayload) error
}
