package ecs

import (
	"github.com/phanxgames/magstack"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// StackEventType is the Donburi event type for magstack stack events.
var StackEventType = events.NewEventType[magstack.StackEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Stack
// events are queued on StackEventType and delivered by ProcessEvents.
func NewDonburiSink(world donburi.World) magstack.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitStackEvent(ev magstack.StackEvent) {
	StackEventType.Publish(s.world, ev)
}
