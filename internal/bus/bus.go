// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus is the in-memory publish/subscribe transport the orchestrator
// uses to fan out model.Event values to IPC listeners and internal
// collaborators (SyncOnChangeCoordinator, ExternalSyncRegistry, etc.).
package bus

import (
	"context"

	"github.com/ManuGH/syncd/internal/model"
)

// Event is the payload carried over the bus.
type Event = model.Event

// Handler applies an event within a context.
type Handler func(ctx context.Context, ev Event) error

// Subscriber is a live subscription to one topic.
type Subscriber interface {
	// C returns a read-only event channel.
	C() <-chan Event
	// Close unsubscribes.
	Close() error
}

// Bus is the event transport abstraction.
type Bus interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}
