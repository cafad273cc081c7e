package event

import (
	"fmt"
	"time"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "producer.stopped", "frame.drawn")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Control is an event understood by the controller loop. The set of
// control events is closed: only SampleEvent, ProducerStoppedEvent and
// StopEvent implement it.
type Control interface {
	Event
	control()
}

// ProducerID identifies one producer for the lifetime of a controller.
type ProducerID uint64

// String returns the identifier in the form used by log records.
func (id ProducerID) String() string {
	return fmt.Sprintf("producer-%d", uint64(id))
}

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// Event type identifiers.
const (
	TypeSample          = "sample.recorded"
	TypeProducerStopped = "producer.stopped"
	TypeStop            = "controller.stop"
	TypeVariableAdded   = "variable.added"
	TypeVariableRemoved = "variable.removed"
	TypeFrameDrawn      = "frame.drawn"
)

// -----------------------------------------------------------------------------
// Control Events
// -----------------------------------------------------------------------------

// SampleEvent carries one value per variable name from a producer.
type SampleEvent struct {
	baseEvent
	ProducerID ProducerID
	Values     map[string]float64
}

// NewSampleEvent creates a SampleEvent. The values map is copied so the
// caller may reuse it.
func NewSampleEvent(id ProducerID, values map[string]float64) SampleEvent {
	copied := make(map[string]float64, len(values))
	for name, v := range values {
		copied[name] = v
	}
	return SampleEvent{
		baseEvent:  newBaseEvent(TypeSample),
		ProducerID: id,
		Values:     copied,
	}
}

func (SampleEvent) control() {}

// ProducerStoppedEvent announces that a producer will send no more samples.
type ProducerStoppedEvent struct {
	baseEvent
	ProducerID ProducerID
}

// NewProducerStoppedEvent creates a ProducerStoppedEvent.
func NewProducerStoppedEvent(id ProducerID) ProducerStoppedEvent {
	return ProducerStoppedEvent{
		baseEvent:  newBaseEvent(TypeProducerStopped),
		ProducerID: id,
	}
}

func (ProducerStoppedEvent) control() {}

// StopEvent terminates the controller loop.
type StopEvent struct {
	baseEvent
}

// NewStopEvent creates a StopEvent.
func NewStopEvent() StopEvent {
	return StopEvent{baseEvent: newBaseEvent(TypeStop)}
}

func (StopEvent) control() {}

// -----------------------------------------------------------------------------
// Notification Events
// -----------------------------------------------------------------------------

// VariableAddedEvent is published when the first sample for a name arrives.
type VariableAddedEvent struct {
	baseEvent
	Name string
}

// NewVariableAddedEvent creates a VariableAddedEvent.
func NewVariableAddedEvent(name string) VariableAddedEvent {
	return VariableAddedEvent{baseEvent: newBaseEvent(TypeVariableAdded), Name: name}
}

// VariableRemovedEvent is published when garbage collection drops a variable
// whose producers have all stopped.
type VariableRemovedEvent struct {
	baseEvent
	Name string
}

// NewVariableRemovedEvent creates a VariableRemovedEvent.
func NewVariableRemovedEvent(name string) VariableRemovedEvent {
	return VariableRemovedEvent{baseEvent: newBaseEvent(TypeVariableRemoved), Name: name}
}

// FrameDrawnEvent is published after each redraw.
type FrameDrawnEvent struct {
	baseEvent
	Lines int // number of variables drawn
}

// NewFrameDrawnEvent creates a FrameDrawnEvent.
func NewFrameDrawnEvent(lines int) FrameDrawnEvent {
	return FrameDrawnEvent{baseEvent: newBaseEvent(TypeFrameDrawn), Lines: lines}
}
