package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventEntityCreated       EventType = "entity_created"
	EventEntityUpdated       EventType = "entity_updated"
	EventEntityDeleted       EventType = "entity_deleted"
	EventRelationshipCreated EventType = "relationship_created"
	EventRelationshipUpdated EventType = "relationship_updated"
	EventRelationshipDeleted EventType = "relationship_deleted"
	EventDocumentAdded       EventType = "document_added"
	EventMentionLinked       EventType = "mention_linked"
	EventAnnotationCreated   EventType = "annotation_created"
	EventAnnotationDeleted   EventType = "annotation_deleted"
	EventArchiveImported     EventType = "archive_imported"
	EventArchiveCleared      EventType = "archive_cleared"
	EventArchiveSynced       EventType = "archive_synced"
)

// GraphChanged reports whether the event alters the entity/relationship
// graph. Live layout sessions restart their simulation on these; document
// and annotation changes leave the layout alone. Mention links count as
// graph changes because mention totals drive node radii.
func (t EventType) GraphChanged() bool {
	switch t {
	case EventEntityCreated, EventEntityUpdated, EventEntityDeleted,
		EventRelationshipCreated, EventRelationshipUpdated, EventRelationshipDeleted,
		EventMentionLinked, EventArchiveImported, EventArchiveCleared, EventArchiveSynced:
		return true
	}
	return false
}

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events. Layout sessions
// subscribe and unsubscribe as WebSocket clients come and go, so the
// subscriber set is guarded for concurrent access.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[chan<- Event]struct{}
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[chan<- Event]struct{}),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	eb.subscribers[ch] = struct{}{}
	eb.mu.Unlock()
}

// Unsubscribe removes a subscriber. The caller owns the channel and closes
// it after unsubscribing, never before.
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	delete(eb.subscribers, ch)
	eb.mu.Unlock()
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}
