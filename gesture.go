package magstack

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// maxDismissFade is how far the dragged card fades at full dismiss progress.
const maxDismissFade = 0.8

// DragSession is the transient state of one drag on one card. It exists
// from drag start to drag end and is owned by the GestureInterpreter.
type DragSession struct {
	Card    uuid.UUID
	Pointer int

	// Origin is the card's rest transform when the drag started.
	Origin RestTransform

	// Translation is the latest pointer translation since the press.
	Translation Vec2
	// Velocity is the pointer velocity at drag end, in pixels per second.
	Velocity Vec2
	// Cancelled is set when the gesture ended by cancellation.
	Cancelled bool

	triggered [numDirections]bool
	ended     bool
	committed bool
}

// Triggered reports whether the feedback pulse for d has fired and the
// displacement is still past d's threshold.
func (s *DragSession) Triggered(d Direction) bool {
	return s.triggered[d]
}

// Ended reports whether the session has received its drag end.
func (s *DragSession) Ended() bool {
	return s.ended
}

// Sample is the visual effect of one movement sample.
type Sample struct {
	// Live is the dragged card's transform: origin translated by the pointer.
	Live RestTransform
	// CardOpacity is the dragged card's opacity (dismiss preview).
	CardOpacity float64
	// SiblingOpacity multiplies every other card's rest opacity (select
	// preview). 1 when neither select threshold is crossed.
	SiblingOpacity float64
	// Progress per direction in [0, 1]; zero for inactive directions.
	Progress [numDirections]float64
	// Active per direction: the displacement is past the threshold.
	Active [numDirections]bool
	// Pulses lists the directions whose feedback fired on this sample.
	Pulses []Direction
}

// GestureInterpreter converts pointer translations into live transforms and
// threshold feedback. It keeps one DragSession per dragged card and allows
// one dragged card per pointer.
type GestureInterpreter struct {
	cfg     Config
	haptics HapticFeedback
	logger  *log.Logger

	sessions  map[uuid.UUID]*DragSession
	byPointer map[int]uuid.UUID
	ended     map[uuid.UUID]*DragSession
}

// NewGestureInterpreter returns an interpreter using cfg's thresholds. A nil
// haptics discards pulses.
func NewGestureInterpreter(cfg Config, haptics HapticFeedback) *GestureInterpreter {
	if haptics == nil {
		haptics = nopHaptics{}
	}
	return &GestureInterpreter{
		cfg:       cfg,
		haptics:   haptics,
		logger:    discardLogger(),
		sessions:  make(map[uuid.UUID]*DragSession),
		byPointer: make(map[int]uuid.UUID),
		ended:     make(map[uuid.UUID]*DragSession),
	}
}

// SetLogger replaces the interpreter's logger.
func (g *GestureInterpreter) SetLogger(l *log.Logger) {
	if l != nil {
		g.logger = l
	}
}

// Begin opens a session for card on pointer, snapshotting card.Rest as the
// origin. It fails with ErrSessionActive if the card or the pointer already
// has a session.
func (g *GestureInterpreter) Begin(card *Card, pointer int) (*DragSession, error) {
	if _, ok := g.sessions[card.ID]; ok {
		return nil, fmt.Errorf("begin card %s: %w", card.ID, ErrSessionActive)
	}
	if other, ok := g.byPointer[pointer]; ok {
		return nil, fmt.Errorf("begin pointer %d (dragging %s): %w", pointer, other, ErrSessionActive)
	}
	s := &DragSession{Card: card.ID, Pointer: pointer, Origin: card.Rest}
	g.sessions[card.ID] = s
	g.byPointer[pointer] = card.ID
	delete(g.ended, card.ID)
	g.logger.Debug("drag start", "card", card.Item.ID, "pointer", pointer)
	return s, nil
}

// Session returns the active session for the card.
func (g *GestureInterpreter) Session(id uuid.UUID) (*DragSession, bool) {
	s, ok := g.sessions[id]
	return s, ok
}

// Active reports whether the card is being dragged.
func (g *GestureInterpreter) Active(id uuid.UUID) bool {
	_, ok := g.sessions[id]
	return ok
}

// Len returns the number of active sessions.
func (g *GestureInterpreter) Len() int {
	return len(g.sessions)
}

// Move evaluates one movement sample. The three thresholds are evaluated
// independently; each pulses haptics once per crossing and re-arms as soon
// as the displacement falls back under it. Without an active session Move
// returns ErrMissingOrigin and has no effect.
func (g *GestureInterpreter) Move(id uuid.UUID, translation Vec2) (Sample, error) {
	s, ok := g.sessions[id]
	if !ok {
		return Sample{}, fmt.Errorf("move card %s: %w", id, ErrMissingOrigin)
	}
	s.Translation = translation

	cfg := &g.cfg
	x, y := translation.X, translation.Y
	out := Sample{
		Live:           s.Origin.Translated(translation),
		CardOpacity:    1,
		SiblingOpacity: 1,
	}

	if x > cfg.RightThreshold {
		p := clamp01((x - cfg.RightThreshold) / (cfg.HalfWidth - cfg.RightThreshold))
		out.SiblingOpacity = min(out.SiblingOpacity, 1-p)
		g.cross(s, DirectionRight, p, &out)
	} else {
		s.triggered[DirectionRight] = false
	}

	if y < cfg.UpThreshold {
		p := clamp01((cfg.UpThreshold - y) / (cfg.UpThreshold + cfg.HalfHeight))
		out.SiblingOpacity = min(out.SiblingOpacity, 1-p)
		g.cross(s, DirectionUp, p, &out)
	} else {
		s.triggered[DirectionUp] = false
	}

	if y > cfg.DownThreshold {
		p := clamp01((y - cfg.DownThreshold) / (cfg.DismissThreshold - cfg.DownThreshold))
		out.CardOpacity = 1 - maxDismissFade*p
		g.cross(s, DirectionDown, p, &out)
	} else {
		s.triggered[DirectionDown] = false
	}

	return out, nil
}

// cross records an active direction and fires its pulse on the first sample
// past the threshold.
func (g *GestureInterpreter) cross(s *DragSession, d Direction, progress float64, out *Sample) {
	out.Active[d] = true
	out.Progress[d] = progress
	if s.triggered[d] {
		return
	}
	s.triggered[d] = true
	out.Pulses = append(out.Pulses, d)
	g.haptics.Pulse()
	g.logger.Debug("threshold crossed", "card", s.Card, "direction", d)
}

// End closes the card's session with the final translation and velocity.
// All trigger flags reset. Ending a session twice returns
// ErrDoubleResolution; ending a card that never started returns
// ErrMissingOrigin.
func (g *GestureInterpreter) End(id uuid.UUID, translation, velocity Vec2, cancelled bool) (*DragSession, error) {
	s, ok := g.sessions[id]
	if !ok {
		if _, done := g.ended[id]; done {
			return nil, fmt.Errorf("end card %s: %w", id, ErrDoubleResolution)
		}
		return nil, fmt.Errorf("end card %s: %w", id, ErrMissingOrigin)
	}
	s.Translation = translation
	s.Velocity = velocity
	s.Cancelled = cancelled
	s.triggered = [numDirections]bool{}
	s.ended = true

	delete(g.sessions, id)
	delete(g.byPointer, s.Pointer)
	g.ended[id] = s
	g.logger.Debug("drag end", "card", id, "dx", translation.X, "dy", translation.Y,
		"vy", velocity.Y, "cancelled", cancelled)
	return s, nil
}

// Forget drops the bookkeeping kept for a card after its session ended.
// The stack calls it when the card leaves the registry.
func (g *GestureInterpreter) Forget(id uuid.UUID) {
	delete(g.ended, id)
	if s, ok := g.sessions[id]; ok {
		delete(g.byPointer, s.Pointer)
		delete(g.sessions, id)
	}
}
