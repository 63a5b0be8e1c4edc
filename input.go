package magstack

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Constants ---

const (
	maxPointers         = 2   // pointer 0 = mouse, 1 = first touch
	defaultDragDeadZone = 4.0 // pixels
	defaultLongPress    = 0.5 // seconds

	// velocitySmoothing is the weight kept from the previous velocity
	// estimate on every sample.
	velocitySmoothing = 0.3
)

// --- Per-pointer state ---

type pointerState struct {
	down        bool
	startX      float64
	startY      float64
	lastX       float64
	lastY       float64
	hitNode     *Node
	dragging    bool
	longPressed bool
	held        float64 // seconds since press
	velX        float64 // smoothed, pixels per second
	velY        float64
}

// SetDragDeadZone sets the minimum movement in pixels before a drag starts.
func (s *Scene) SetDragDeadZone(pixels float64) {
	s.dragDeadZone = pixels
}

// SetLongPressDuration sets how long, in seconds, a press must be held
// without dragging before OnLongPress fires.
func (s *Scene) SetLongPressDuration(seconds float64) {
	s.longPressDuration = seconds
}

// --- Hit testing ---

// nodeContainsLocal tests whether (lx, ly) falls inside a node's hit region.
// Uses HitShape if set; otherwise the node's Width x Height box.
func nodeContainsLocal(n *Node, lx, ly float64) bool {
	if n.HitShape != nil {
		return n.HitShape.Contains(lx, ly)
	}
	if n.Width == 0 || n.Height == 0 {
		return false
	}
	return lx >= 0 && lx <= n.Width && ly >= 0 && ly <= n.Height
}

// collectInteractable walks the tree in painter order, appending nodes that
// can be hit to buf. Invisible, fully transparent and non-interactable
// subtrees are skipped.
func (s *Scene) collectInteractable(n *Node, buf []*Node) []*Node {
	if !n.Visible || !n.Interactable || n.worldAlpha <= 0 {
		return buf
	}
	if n.HitShape != nil || (n.Width > 0 && n.Height > 0) {
		buf = append(buf, n)
	}
	for _, child := range n.sorted() {
		buf = s.collectInteractable(child, buf)
	}
	return buf
}

// hitTest finds the topmost interactable node at (worldX, worldY).
// Returns nil if nothing is hit.
func (s *Scene) hitTest(worldX, worldY float64) *Node {
	s.hitBuf = s.collectInteractable(s.root, s.hitBuf[:0])

	// Iterate backward (reverse painter order): topmost visual node first.
	for i := len(s.hitBuf) - 1; i >= 0; i-- {
		n := s.hitBuf[i]
		lx, ly := n.WorldToLocal(worldX, worldY)
		if nodeContainsLocal(n, lx, ly) {
			return n
		}
	}
	return nil
}

// --- Input processing ---

// processInput is called once per frame. An injected event, when queued,
// replaces real input for that frame. Without injection the last known
// pointer state is replayed so held presses keep their timers running.
func (s *Scene) processInput(dt float64) {
	if s.processInjectedInput(dt) {
		return
	}
	if !s.pollInput {
		for i := range s.pointers {
			ps := &s.pointers[i]
			if ps.down {
				s.processPointer(i, ps.lastX, ps.lastY, true, dt)
			}
		}
		return
	}
	if !ebiten.IsFocused() {
		s.cancelAll()
		return
	}
	s.processMousePointer(dt)
	s.processTouchPointer(dt)
}

// processMousePointer handles mouse input (pointer 0, left button).
func (s *Scene) processMousePointer(dt float64) {
	mx, my := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	s.processPointer(0, float64(mx), float64(my), pressed, dt)
}

// processTouchPointer follows the first active touch as pointer 1. Further
// touches are ignored until it lifts.
func (s *Scene) processTouchPointer(dt float64) {
	touchIDs := ebiten.AppendTouchIDs(s.prevTouchIDs[:0])
	s.prevTouchIDs = touchIDs

	if s.touchActive {
		for _, tid := range touchIDs {
			if tid == s.touchID {
				tx, ty := ebiten.TouchPosition(tid)
				s.processPointer(1, float64(tx), float64(ty), true, dt)
				return
			}
		}
		// The tracked touch lifted: release where it was last seen.
		ps := &s.pointers[1]
		s.processPointer(1, ps.lastX, ps.lastY, false, dt)
		s.touchActive = false
		return
	}
	if len(touchIDs) > 0 {
		s.touchID = touchIDs[0]
		s.touchActive = true
		tx, ty := ebiten.TouchPosition(s.touchID)
		s.processPointer(1, float64(tx), float64(ty), true, dt)
	}
}

// processPointer runs the pointer state machine for a single pointer.
func (s *Scene) processPointer(pointerID int, wx, wy float64, pressed bool, dt float64) {
	ps := &s.pointers[pointerID]

	switch {
	case pressed && !ps.down:
		target := s.hitTest(wx, wy)
		*ps = pointerState{
			down:    true,
			startX:  wx,
			startY:  wy,
			lastX:   wx,
			lastY:   wy,
			hitNode: target,
		}
		s.firePointer(EventPointerDown, target, pointerID, wx, wy)

	case pressed && ps.down:
		ps.held += dt
		s.sampleVelocity(ps, wx, wy, dt)
		if wx != ps.lastX || wy != ps.lastY {
			if !ps.dragging && !ps.longPressed {
				dx := wx - ps.startX
				dy := wy - ps.startY
				if math.Sqrt(dx*dx+dy*dy) > s.dragDeadZone {
					ps.dragging = true
					s.fireDrag(EventDragStart, ps, pointerID, wx, wy, false)
				}
			}
			if ps.dragging {
				s.fireDrag(EventDrag, ps, pointerID, wx, wy, false)
			}
		}
		if !ps.dragging && !ps.longPressed && ps.held >= s.longPressDuration {
			ps.longPressed = true
			s.firePointer(EventLongPress, ps.hitNode, pointerID, wx, wy)
		}
		ps.lastX = wx
		ps.lastY = wy

	case !pressed && ps.down:
		// A lift reported where the pointer already was carries no
		// movement; sampling it would damp the flick velocity.
		if wx != ps.lastX || wy != ps.lastY {
			s.sampleVelocity(ps, wx, wy, dt)
		}
		if ps.dragging {
			s.fireDrag(EventDragEnd, ps, pointerID, wx, wy, false)
		} else if !ps.longPressed && ps.hitNode != nil && ps.hitNode == s.hitTest(wx, wy) {
			s.firePointer(EventClick, ps.hitNode, pointerID, wx, wy)
		}
		s.firePointer(EventPointerUp, ps.hitNode, pointerID, wx, wy)
		*ps = pointerState{lastX: wx, lastY: wy}

	default:
		ps.lastX = wx
		ps.lastY = wy
	}
}

// sampleVelocity folds the movement since the last sample into the smoothed
// velocity estimate.
func (s *Scene) sampleVelocity(ps *pointerState, wx, wy, dt float64) {
	if dt <= 0 {
		return
	}
	ix := (wx - ps.lastX) / dt
	iy := (wy - ps.lastY) / dt
	ps.velX = velocitySmoothing*ps.velX + (1-velocitySmoothing)*ix
	ps.velY = velocitySmoothing*ps.velY + (1-velocitySmoothing)*iy
}

// CancelPointer aborts the gesture in progress on pointerID. A drag ends
// with Cancelled set; no click fires.
func (s *Scene) CancelPointer(pointerID int) {
	if pointerID < 0 || pointerID >= maxPointers {
		return
	}
	ps := &s.pointers[pointerID]
	if !ps.down {
		return
	}
	if ps.dragging {
		s.fireDrag(EventDragEnd, ps, pointerID, ps.lastX, ps.lastY, true)
	}
	s.firePointer(EventPointerUp, ps.hitNode, pointerID, ps.lastX, ps.lastY)
	*ps = pointerState{lastX: ps.lastX, lastY: ps.lastY}
	if pointerID == 1 {
		s.touchActive = false
	}
}

func (s *Scene) cancelAll() {
	for i := range s.pointers {
		s.CancelPointer(i)
	}
}

// --- Event dispatch ---

func (s *Scene) firePointer(ev EventType, node *Node, pointerID int, wx, wy float64) {
	if node == nil {
		return
	}
	var fn func(PointerContext)
	switch ev {
	case EventPointerDown:
		fn = node.OnPointerDown
	case EventPointerUp:
		fn = node.OnPointerUp
	case EventClick:
		fn = node.OnClick
	case EventLongPress:
		fn = node.OnLongPress
	}
	if fn == nil {
		return
	}
	lx, ly := node.WorldToLocal(wx, wy)
	fn(PointerContext{
		Node: node, UserData: node.UserData,
		GlobalX: wx, GlobalY: wy, LocalX: lx, LocalY: ly,
		PointerID: pointerID,
	})
}

func (s *Scene) fireDrag(ev EventType, ps *pointerState, pointerID int, wx, wy float64, cancelled bool) {
	node := ps.hitNode
	if node == nil {
		return
	}
	var fn func(DragContext)
	switch ev {
	case EventDragStart:
		fn = node.OnDragStart
	case EventDrag:
		fn = node.OnDrag
	case EventDragEnd:
		fn = node.OnDragEnd
	}
	if fn == nil {
		return
	}
	fn(DragContext{
		Node: node, UserData: node.UserData,
		GlobalX: wx, GlobalY: wy,
		StartX: ps.startX, StartY: ps.startY,
		DeltaX: wx - ps.lastX, DeltaY: wy - ps.lastY,
		TotalX: wx - ps.startX, TotalY: wy - ps.startY,
		VelocityX: ps.velX, VelocityY: ps.velY,
		PointerID: pointerID,
		Cancelled: cancelled,
	})
}
