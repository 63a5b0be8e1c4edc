package magstack

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/tanema/gween/ease"
)

// restEpsilon is the tolerance used when comparing a view or a tween target
// against a rest transform.
const restEpsilon = 1e-6

// ReflowCoordinator keeps every card's rest transform equal to the layout of
// its current index, and moves views toward it.
//
// Policy is supersede: a reflow replaces a running tween whose target
// differs from the new rest, and leaves alone a tween already heading there.
// Cards reported frozen (dragged or leaving the stack) get their new rest
// recorded but their views are not touched.
type ReflowCoordinator struct {
	cfg      Config
	registry *Registry
	animator *Animator
	anchor   Vec2
	frozen   func(uuid.UUID) bool
	logger   *log.Logger
}

// NewReflowCoordinator returns a coordinator for registry. With a nil
// animator views snap to their rest instead of animating.
func NewReflowCoordinator(cfg Config, registry *Registry, animator *Animator) *ReflowCoordinator {
	return &ReflowCoordinator{
		cfg:      cfg,
		registry: registry,
		animator: animator,
		logger:   discardLogger(),
	}
}

// SetAnchor sets the screen position of the front card's pivot.
func (rc *ReflowCoordinator) SetAnchor(v Vec2) { rc.anchor = v }

// Anchor returns the stack anchor.
func (rc *ReflowCoordinator) Anchor() Vec2 { return rc.anchor }

// SetFrozen installs the predicate for cards whose views must not move.
func (rc *ReflowCoordinator) SetFrozen(fn func(uuid.UUID) bool) { rc.frozen = fn }

// SetLogger replaces the coordinator's logger.
func (rc *ReflowCoordinator) SetLogger(l *log.Logger) {
	if l != nil {
		rc.logger = l
	}
}

// Reflow recomputes every card's rest for mode and starts the view
// animations needed to reach it. It returns the number of views put in
// motion; calling it again without any change returns 0.
func (rc *ReflowCoordinator) Reflow(mode StackMode) int {
	cards := rc.registry.Cards()
	total := len(cards)
	moved := 0
	for i, c := range cards {
		target := mustRestTransform(i, mode, total, rc.cfg)
		c.Rest = target
		if c.View == nil || (rc.frozen != nil && rc.frozen(c.ID)) {
			continue
		}
		if rc.moveView(c.View, target) {
			moved++
		}
	}
	if moved > 0 {
		rc.logger.Debug("reflow", "mode", mode, "cards", total, "moved", moved)
	}
	return moved
}

// moveView drives view toward target and reports whether a new animation
// (or snap) was needed.
func (rc *ReflowCoordinator) moveView(view *Node, target RestTransform) bool {
	view.SetZIndex(target.Depth)

	if rc.animator == nil {
		if viewTransform(view, rc.anchor).ApproxEqual(target, restEpsilon) {
			return false
		}
		applyTransform(view, target, rc.anchor)
		return true
	}

	if g := rc.animator.Active(view); g != nil {
		if g.targetsRest(target, rc.anchor) {
			return false
		}
	} else if viewTransform(view, rc.anchor).ApproxEqual(target, restEpsilon) {
		return false
	}
	rc.animator.Start(TweenRest(view, target, rc.anchor, rc.cfg.ReflowDuration, ease.OutCubic))
	return true
}

// Layout snaps every unfrozen view to its rest for mode without animating.
func (rc *ReflowCoordinator) Layout(mode StackMode) {
	cards := rc.registry.Cards()
	for i, c := range cards {
		c.Rest = mustRestTransform(i, mode, len(cards), rc.cfg)
		if c.View == nil || (rc.frozen != nil && rc.frozen(c.ID)) {
			continue
		}
		if rc.animator != nil {
			rc.animator.Cancel(c.View)
		}
		applyTransform(c.View, c.Rest, rc.anchor)
	}
}

// Remove takes the card out of the registry and reflows the remaining
// cards so indices stay contiguous and depths follow total - index.
func (rc *ReflowCoordinator) Remove(id uuid.UUID, mode StackMode) (*Card, error) {
	c, ok := rc.registry.remove(id)
	if !ok {
		return nil, fmt.Errorf("remove card %s: %w", id, ErrInvalidIndex)
	}
	if c.View != nil && rc.animator != nil {
		rc.animator.Cancel(c.View)
	}
	rc.Reflow(mode)
	return c, nil
}
