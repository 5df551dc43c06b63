package shared

import "context"

// EventPublisher delivers domain events once the unit of work that raised
// them has committed. A publish failure never undoes the committed change.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventHandler reacts to published events. EventTypes lists the event
// types it wants; nil means every event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventBus is an EventPublisher that handlers can attach to and detach from.
// Explicit eventTypes passed to Subscribe take precedence over the handler's
// own EventTypes.
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}
