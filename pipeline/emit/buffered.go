package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory.
//
// Events are organized by owner ID for efficient retrieval and filtering.
// Thread-safe for concurrent turns.
//
// Use cases:
//   - Tests asserting on emitted events
//   - Development and debugging
//   - Post-turn analysis
//
// Warning: all events stay in memory. For long-lived processes call Clear
// periodically or use a different backend.
//
// Example:
//
//	emitter := emit.NewBufferedEmitter()
//	// ... run turns ...
//	validatorCalls := emitter.HistoryWithFilter("user-42", emit.HistoryFilter{Msg: emit.MsgValidatorCall})
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // ownerID -> events
}

// HistoryFilter specifies criteria for filtering captured events.
//
// All fields are optional; set fields combine with AND logic.
type HistoryFilter struct {
	Stage string // filter by stage (empty = no filter)
	Msg   string // filter by event name (empty = no filter)
}

// NewBufferedEmitter creates a new BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores an event in the buffer.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.OwnerID] = append(b.events[event.OwnerID], event)
}

// History retrieves all events for an owner in emission order.
// Returns a copy; never nil.
func (b *BufferedEmitter) History(ownerID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[ownerID]
	result := make([]Event, len(events))
	copy(result, events)
	return result
}

// HistoryWithFilter retrieves an owner's events matching the filter.
func (b *BufferedEmitter) HistoryWithFilter(ownerID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := []Event{}
	for _, event := range b.events[ownerID] {
		if filter.Stage != "" && event.Stage != filter.Stage {
			continue
		}
		if filter.Msg != "" && event.Msg != filter.Msg {
			continue
		}
		result = append(result, event)
	}
	return result
}

// Clear removes stored events. A non-empty ownerID clears only that
// owner's events; an empty ownerID clears everything.
func (b *BufferedEmitter) Clear(ownerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ownerID == "" {
		b.events = make(map[string][]Event)
	} else {
		delete(b.events, ownerID)
	}
}
