// Package ecs provides ECS adapters for magstack.
//
// The primary adapter is [NewDonburiSink], which forwards stack events
// (threshold pulses, dismissals, selections, mode changes) into a [Donburi]
// world as typed events. Subscribe to [StackEventType] in your ECS systems
// to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	stack, err := magstack.NewStack(scene, items, magstack.WithEventSink(sink))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
