package magstack

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const maxTweenFields = 5

// TweenGroup animates up to five float64 fields on a Node simultaneously.
// Build one with NewTweenGroup(...).Add(...) or the convenience constructors
// and either call Update(dt) yourself or hand it to an Animator. The group
// writes values into the target fields and marks the node dirty. When every
// tween finishes the fields are set to their exact float64 targets. If the
// target node is disposed the group stops immediately without completing.
type TweenGroup struct {
	tweens  [maxTweenFields]*gween.Tween
	fields  [maxTweenFields]*float64
	targets [maxTweenFields]float64
	count   int
	target  *Node

	// OnComplete runs once, after the last field reaches its target.
	// It does not run for cancelled or superseded groups.
	OnComplete func()

	Done      bool
	cancelled bool
}

// NewTweenGroup returns an empty group bound to node.
func NewTweenGroup(node *Node) *TweenGroup {
	return &TweenGroup{target: node}
}

// Add animates *field from its current value to `to`. Panics when the
// group already holds five fields.
func (g *TweenGroup) Add(field *float64, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	if g.count == maxTweenFields {
		panic("magstack: tween group is full")
	}
	g.tweens[g.count] = gween.New(float32(*field), float32(to), duration, fn)
	g.fields[g.count] = field
	g.targets[g.count] = to
	g.count++
	return g
}

// Update advances all tweens by dt seconds, writes values to the target
// fields, and marks the node dirty.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}

	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		g.cancelled = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		if finished {
			*g.fields[i] = g.targets[i]
		} else {
			*g.fields[i] = float64(val)
			allDone = false
		}
	}
	g.Done = allDone

	if g.target != nil {
		g.target.MarkDirty()
	}
}

// Cancel stops the group where it is. OnComplete will not run.
func (g *TweenGroup) Cancel() {
	g.Done = true
	g.cancelled = true
}

// aims reports whether the group drives field toward v.
func (g *TweenGroup) aims(field *float64, v float64) bool {
	for i := 0; i < g.count; i++ {
		if g.fields[i] == field {
			return math.Abs(g.targets[i]-v) < restEpsilon
		}
	}
	return false
}

// TweenAlpha creates a TweenGroup that animates node.Alpha to the target value.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return NewTweenGroup(node).Add(&node.Alpha, to, duration, fn)
}

// TweenRest creates a TweenGroup that moves a view to the rest transform to
// (position, uniform scale and opacity) relative to anchor. Depth is not
// animated; callers set ZIndex directly.
func TweenRest(node *Node, to RestTransform, anchor Vec2, duration float32, fn ease.TweenFunc) *TweenGroup {
	return NewTweenGroup(node).
		Add(&node.X, anchor.X+to.OffsetX, duration, fn).
		Add(&node.Y, anchor.Y+to.OffsetY, duration, fn).
		Add(&node.ScaleX, to.Scale, duration, fn).
		Add(&node.ScaleY, to.Scale, duration, fn).
		Add(&node.Alpha, to.Opacity, duration, fn)
}

// targetsRest reports whether g is a TweenRest toward to.
func (g *TweenGroup) targetsRest(to RestTransform, anchor Vec2) bool {
	n := g.target
	return n != nil &&
		g.aims(&n.X, anchor.X+to.OffsetX) &&
		g.aims(&n.Y, anchor.Y+to.OffsetY) &&
		g.aims(&n.ScaleX, to.Scale) &&
		g.aims(&n.Alpha, to.Opacity)
}

// springSettle is ln(100): the envelope of the spring decays to 1% of its
// initial amplitude by the end of the tween.
const springSettle = 4.605170185988092

// SpringEase returns a damped-spring easing function. damping is the
// damping ratio: below 1 the value overshoots and oscillates, 1 and above
// approach the target without overshoot. The curve starts at b and lands
// exactly on b+c at t == d.
func SpringEase(damping float64) ease.TweenFunc {
	if damping <= 0 {
		damping = 1
	}
	w0 := springSettle / math.Min(damping, 1)
	return func(t, b, c, d float32) float32 {
		if d <= 0 || t >= d {
			return b + c
		}
		p := float64(t / d)
		var s float64
		if damping >= 1 {
			s = 1 - math.Exp(-w0*p)*(1+w0*p)
		} else {
			wd := w0 * math.Sqrt(1-damping*damping)
			decay := math.Exp(-damping * w0 * p)
			s = 1 - decay*(math.Cos(wd*p)+(damping*w0/wd)*math.Sin(wd*p))
		}
		return b + c*float32(s)
	}
}

// --- Animator ---

// Animator runs tween groups, at most one per node. Starting a group on a
// node that already has one supersedes it: the old group is cancelled and
// its OnComplete never runs.
type Animator struct {
	groups []*TweenGroup
}

// Start runs g, superseding any group already running on g's node.
func (a *Animator) Start(g *TweenGroup) {
	if g.target != nil {
		a.Cancel(g.target)
	}
	a.groups = append(a.groups, g)
}

// Active returns the running group for node, or nil.
func (a *Animator) Active(node *Node) *TweenGroup {
	for _, g := range a.groups {
		if g.target == node && !g.Done {
			return g
		}
	}
	return nil
}

// Cancel stops the running group for node, if any.
func (a *Animator) Cancel(node *Node) {
	for i, g := range a.groups {
		if g.target == node {
			g.Cancel()
			a.groups = append(a.groups[:i], a.groups[i+1:]...)
			return
		}
	}
}

// Len returns the number of running groups.
func (a *Animator) Len() int {
	return len(a.groups)
}

// Update advances every group by dt. Finished groups are dropped and their
// OnComplete callbacks run afterwards in start order; callbacks may start
// new groups.
func (a *Animator) Update(dt float32) {
	if len(a.groups) == 0 {
		return
	}
	var finished []*TweenGroup
	live := a.groups[:0]
	for _, g := range a.groups {
		g.Update(dt)
		if g.Done {
			if !g.cancelled {
				finished = append(finished, g)
			}
			continue
		}
		live = append(live, g)
	}
	for i := len(live); i < len(a.groups); i++ {
		a.groups[i] = nil
	}
	a.groups = live

	for _, g := range finished {
		if g.OnComplete != nil {
			g.OnComplete()
		}
	}
}
