package magstack

import "github.com/google/uuid"

// StackEventType identifies what happened to a stack.
type StackEventType uint8

const (
	EventPulse       StackEventType = iota // a drag crossed a threshold
	EventDismissed                         // a card left the stack
	EventSelected                          // a card was selected
	EventSpringBack                        // a drag was released without committing
	EventModeChanged                       // the layout mode toggled
)

func (t StackEventType) String() string {
	switch t {
	case EventPulse:
		return "pulse"
	case EventDismissed:
		return "dismissed"
	case EventSelected:
		return "selected"
	case EventSpringBack:
		return "spring-back"
	case EventModeChanged:
		return "mode-changed"
	default:
		return "unknown"
	}
}

// StackEvent is published to the stack's EventSink. Fields that do not apply
// to the event type are zero.
type StackEvent struct {
	Type      StackEventType
	Card      uuid.UUID
	Item      Item
	Direction Direction
	Outcome   Outcome
	Mode      StackMode
	// Remaining is the card count after the event.
	Remaining int
}

// EventSink receives stack events on the update goroutine.
type EventSink interface {
	EmitStackEvent(ev StackEvent)
}

// EventSinkFunc adapts a plain function to EventSink.
type EventSinkFunc func(StackEvent)

// EmitStackEvent calls f.
func (f EventSinkFunc) EmitStackEvent(ev StackEvent) { f(ev) }

// RemovalListener is told about every committed dismissal.
type RemovalListener interface {
	CardRemoved(item Item, remaining int)
}

// DetailPresenter shows the selected item.
type DetailPresenter interface {
	Present(item Item)
}
