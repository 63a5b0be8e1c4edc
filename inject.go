package magstack

// syntheticPointerEvent represents a single injected pointer event on
// pointer 0. Coordinates are screen pixels.
type syntheticPointerEvent struct {
	screenX, screenY float64
	pressed          bool
	cancel           bool
}

// InjectPress queues a pointer press at the given screen coordinates. The
// event is consumed on the next frame's input pass.
func (s *Scene) InjectPress(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticPointerEvent{
		screenX: x, screenY: y,
		pressed: true,
	})
}

// InjectMove queues a pointer move with the button held down. Use this
// between InjectPress and InjectRelease to simulate a drag.
func (s *Scene) InjectMove(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticPointerEvent{
		screenX: x, screenY: y,
		pressed: true,
	})
}

// InjectRelease queues a pointer release at the given screen coordinates.
func (s *Scene) InjectRelease(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticPointerEvent{
		screenX: x, screenY: y,
	})
}

// InjectCancel queues a cancellation of the gesture in progress.
func (s *Scene) InjectCancel() {
	s.injectQueue = append(s.injectQueue, syntheticPointerEvent{cancel: true})
}

// InjectClick is a convenience that queues a press followed by a release
// at the same screen coordinates. Consumes two frames.
func (s *Scene) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectHold queues a press at (x, y) held still for frames frames,
// followed by a release. With enough frames it produces a long press.
func (s *Scene) InjectHold(x, y float64, frames int) {
	s.InjectPress(x, y)
	for i := 0; i < frames; i++ {
		s.InjectMove(x, y)
	}
	s.InjectRelease(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY),
// linearly interpolated moves over frames-2 intermediate frames, and
// release at (toX, toY). The total sequence consumes `frames` frames.
// Minimum frames is 2 (press + release).
func (s *Scene) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		x := fromX + (toX-fromX)*t
		y := fromY + (toY-fromY)*t
		s.InjectMove(x, y)
	}
	s.InjectRelease(toX, toY)
}

// processInjectedInput pops one event from the inject queue and feeds it
// through processPointer. Returns true if an event was consumed (real input
// is skipped for that frame).
func (s *Scene) processInjectedInput(dt float64) bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	evt := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]

	if evt.cancel {
		s.CancelPointer(0)
		return true
	}
	s.processPointer(0, evt.screenX, evt.screenY, evt.pressed, dt)
	return true
}
