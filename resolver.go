package magstack

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/tanema/gween/ease"
)

// Decide maps a released drag to its outcome. Dismissal wins over
// everything; select needs the card dragged a full half viewport right or
// up and cfg.SelectCommit; anything else springs back.
func Decide(translation, velocity Vec2, cfg Config) Outcome {
	if translation.Y > cfg.DismissThreshold || velocity.Y > cfg.DismissVelocity {
		return OutcomeDismiss
	}
	if cfg.SelectCommit {
		if translation.X >= cfg.HalfWidth {
			return OutcomeSelectRight
		}
		if translation.Y <= -cfg.HalfHeight {
			return OutcomeSelectUp
		}
	}
	return OutcomeSpringBack
}

// CommitResolver turns ended drag sessions into exactly one terminal
// animation each: dismiss, select or spring back.
type CommitResolver struct {
	cfg      Config
	registry *Registry
	reflow   *ReflowCoordinator
	animator *Animator
	mode     func() StackMode

	presenter DetailPresenter
	removal   RemovalListener
	sink      EventSink
	logger    *log.Logger

	// onRemoved runs after a dismissed card left the registry.
	onRemoved func(*Card)

	dismissing map[uuid.UUID]bool
}

// NewCommitResolver returns a resolver over registry. mode reports the
// stack's current layout mode at the time a dismissal completes. With a nil
// animator every terminal state is applied immediately.
func NewCommitResolver(cfg Config, registry *Registry, reflow *ReflowCoordinator, animator *Animator, mode func() StackMode) *CommitResolver {
	return &CommitResolver{
		cfg:        cfg,
		registry:   registry,
		reflow:     reflow,
		animator:   animator,
		mode:       mode,
		logger:     discardLogger(),
		dismissing: make(map[uuid.UUID]bool),
	}
}

// SetLogger replaces the resolver's logger.
func (r *CommitResolver) SetLogger(l *log.Logger) {
	if l != nil {
		r.logger = l
	}
}

// Dismissing reports whether the card is running its dismiss animation.
func (r *CommitResolver) Dismissing(id uuid.UUID) bool {
	return r.dismissing[id]
}

// Resolve decides the outcome of an ended session and starts its terminal
// animation. A cancelled session always springs back. Resolving the same
// session twice returns ErrDoubleResolution and changes nothing.
func (r *CommitResolver) Resolve(s *DragSession) (Outcome, error) {
	if s.committed {
		return OutcomeSpringBack, fmt.Errorf("resolve card %s: %w", s.Card, ErrDoubleResolution)
	}
	if !s.ended {
		return OutcomeSpringBack, fmt.Errorf("resolve card %s before drag end: %w", s.Card, ErrSessionActive)
	}
	card, ok := r.registry.Card(s.Card)
	if !ok || r.dismissing[s.Card] {
		return OutcomeSpringBack, fmt.Errorf("resolve card %s: %w", s.Card, ErrMissingOrigin)
	}
	s.committed = true

	outcome := OutcomeSpringBack
	if !s.Cancelled {
		outcome = Decide(s.Translation, s.Velocity, r.cfg)
	}
	r.logger.Debug("resolve", "item", card.Item.ID, "outcome", outcome,
		"dy", s.Translation.Y, "vy", s.Velocity.Y, "cancelled", s.Cancelled)

	r.restoreSiblings(card.ID)
	switch outcome {
	case OutcomeDismiss:
		r.dismiss(card)
	case OutcomeSelectRight, OutcomeSelectUp:
		r.springBack(card)
		r.present(card, outcome)
	default:
		r.springBack(card)
		r.emit(StackEvent{Type: EventSpringBack, Card: card.ID, Item: card.Item,
			Outcome: outcome, Remaining: r.registry.Len()})
	}
	return outcome, nil
}

// Select presents the card without a drag. Long press uses it.
func (r *CommitResolver) Select(id uuid.UUID) error {
	card, ok := r.registry.Card(id)
	if !ok || r.dismissing[id] {
		return fmt.Errorf("select card %s: %w", id, ErrMissingOrigin)
	}
	r.present(card, OutcomeSpringBack)
	return nil
}

func (r *CommitResolver) present(card *Card, outcome Outcome) {
	if r.presenter != nil {
		r.presenter.Present(card.Item)
	}
	r.emit(StackEvent{Type: EventSelected, Card: card.ID, Item: card.Item,
		Outcome: outcome, Remaining: r.registry.Len()})
}

// springBack returns the card's view to its current rest with the damped
// spring. The rest may have changed during the drag.
func (r *CommitResolver) springBack(card *Card) {
	view := card.View
	if view == nil {
		return
	}
	if r.animator == nil {
		applyTransform(view, card.Rest, r.reflow.Anchor())
		return
	}
	view.SetZIndex(card.Rest.Depth)
	r.animator.Start(TweenRest(view, card.Rest, r.reflow.Anchor(),
		r.cfg.SpringDuration, SpringEase(r.cfg.SpringDamping)))
}

// dismiss slides the card down while fading it out, then removes it.
func (r *CommitResolver) dismiss(card *Card) {
	r.dismissing[card.ID] = true
	view := card.View
	if view == nil || r.animator == nil {
		r.finishDismiss(card)
		return
	}
	g := NewTweenGroup(view).
		Add(&view.Y, view.Y+r.cfg.DismissDistance, r.cfg.DismissDuration, ease.InQuad).
		Add(&view.Alpha, 0, r.cfg.DismissDuration, ease.InQuad)
	g.OnComplete = func() { r.finishDismiss(card) }
	r.animator.Start(g)
}

func (r *CommitResolver) finishDismiss(card *Card) {
	delete(r.dismissing, card.ID)
	if _, err := r.reflow.Remove(card.ID, r.mode()); err != nil {
		r.logger.Debug("dismiss", "err", err)
		return
	}
	if card.View != nil {
		card.View.Dispose()
		card.View = nil
	}
	remaining := r.registry.Len()
	r.logger.Info("card dismissed", "item", card.Item.ID, "remaining", remaining)
	if r.onRemoved != nil {
		r.onRemoved(card)
	}
	if r.removal != nil {
		r.removal.CardRemoved(card.Item, remaining)
	}
	r.emit(StackEvent{Type: EventDismissed, Card: card.ID, Item: card.Item,
		Outcome: OutcomeDismiss, Remaining: remaining})
}

// restoreSiblings brings every other card back to its rest opacity after a
// select preview. Views already animating are left to their tween.
func (r *CommitResolver) restoreSiblings(except uuid.UUID) {
	for _, c := range r.registry.Cards() {
		if c.ID == except || c.View == nil || r.dismissing[c.ID] {
			continue
		}
		if math.Abs(c.View.Alpha-c.Rest.Opacity) < restEpsilon {
			continue
		}
		if r.animator == nil {
			c.View.SetAlpha(c.Rest.Opacity)
			continue
		}
		if r.animator.Active(c.View) != nil {
			continue
		}
		r.animator.Start(TweenAlpha(c.View, c.Rest.Opacity, r.cfg.SpringDuration, ease.OutQuad))
	}
}

func (r *CommitResolver) emit(ev StackEvent) {
	if r.sink != nil {
		r.sink.EmitStackEvent(ev)
	}
}
