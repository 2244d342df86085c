// Package eventbus provides the publish/subscribe contract workflow runs
// use to emit lifecycle events.
package eventbus

import (
	"context"

	"github.com/avollo/tradewind/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

// EventSink is the narrow publishing contract the executor depends on.
// Publish failures must never fail a run; callers log and continue.
type EventSink interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventHandler func(ctx context.Context, event any) error

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventBus interface {
	EventSink
	EventSubscriber
	Close() error
	GenerateID() string
}
