package magstack

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultThumbnailConcurrency bounds concurrent thumbnail loads when neither
// the loader nor WithThumbnailConcurrency picks a limit.
const DefaultThumbnailConcurrency = 6

// ContentSource supplies the ordered items of a stack.
type ContentSource interface {
	FetchItems(ctx context.Context) ([]Item, error)
}

// ThumbnailLoader loads the picture shown on an item's card.
type ThumbnailLoader interface {
	Load(ctx context.Context, item Item) (image.Image, error)
}

// BoundedLoader is a ThumbnailLoader that picks its own concurrency limit.
// A Stack loading through it uses Concurrency instead of the stack option.
type BoundedLoader interface {
	ThumbnailLoader
	Concurrency() int
}

// Stack is one card stack: a registry of cards plus the gesture, commit and
// reflow machinery that animates them. A Stack attached to a Scene builds a
// view per card under its own container and reacts to pointer input; with a
// nil Scene it runs headless and only keeps rest transforms.
//
// All methods except Post must be called on the update goroutine.
type Stack struct {
	cfg    Config
	mode   StackMode
	logger *log.Logger
	opts   stackOptions

	scene     *Scene
	container *Node

	registry *Registry
	gestures *GestureInterpreter
	resolver *CommitResolver
	reflow   *ReflowCoordinator

	mu      sync.Mutex
	mailbox []func()
}

// NewStack creates a stack holding items in order, index 0 in front, laid
// out at rest. With a non-nil scene the stack adds its container under the
// scene root and drains its mailbox at the start of every scene update.
func NewStack(scene *Scene, items []Item, opts ...StackOption) (*Stack, error) {
	o := newStackOptions(opts)
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new stack: %w", err)
	}

	st := &Stack{
		cfg:      o.cfg,
		mode:     o.mode,
		logger:   o.logger,
		opts:     o,
		scene:    scene,
		registry: NewRegistry(),
	}

	var animator *Animator
	if scene != nil {
		animator = scene.Animator()
		st.container = NewContainer("stack")
		st.container.Interactable = true
		scene.Root().AddChild(st.container)
		scene.SetDragDeadZone(o.cfg.DragDeadZone)
		scene.SetLongPressDuration(o.cfg.LongPressDuration)
		scene.addHook(st.Update)
	}

	st.gestures = NewGestureInterpreter(o.cfg, o.haptics)
	st.gestures.SetLogger(o.logger)

	st.reflow = NewReflowCoordinator(o.cfg, st.registry, animator)
	st.reflow.SetLogger(o.logger)
	if o.anchor != nil {
		st.reflow.SetAnchor(*o.anchor)
	} else {
		st.reflow.SetAnchor(Vec2{o.cfg.HalfWidth, o.cfg.HalfHeight})
	}

	st.resolver = NewCommitResolver(o.cfg, st.registry, st.reflow, animator, st.Mode)
	st.resolver.SetLogger(o.logger)
	st.resolver.presenter = o.presenter
	st.resolver.removal = o.removal
	st.resolver.sink = o.sink
	st.resolver.onRemoved = func(c *Card) { st.gestures.Forget(c.ID) }

	st.reflow.SetFrozen(func(id uuid.UUID) bool {
		return st.gestures.Active(id) || st.resolver.Dismissing(id)
	})

	st.admit(items)
	st.reflow.Layout(st.mode)
	st.logger.Debug("stack created", "cards", st.registry.Len(), "mode", st.mode)
	return st, nil
}

// Registry returns the stack's cards.
func (st *Stack) Registry() *Registry { return st.registry }

// Gestures returns the stack's gesture interpreter.
func (st *Stack) Gestures() *GestureInterpreter { return st.gestures }

// Resolver returns the stack's commit resolver.
func (st *Stack) Resolver() *CommitResolver { return st.resolver }

// Reflow returns the stack's reflow coordinator.
func (st *Stack) Reflow() *ReflowCoordinator { return st.reflow }

// Container returns the node holding the card views, or nil when headless.
func (st *Stack) Container() *Node { return st.container }

// Config returns the stack's constants.
func (st *Stack) Config() Config { return st.cfg }

// Mode returns the current layout mode.
func (st *Stack) Mode() StackMode { return st.mode }

// Len returns the number of cards, including a card still animating out.
func (st *Stack) Len() int { return st.registry.Len() }

// Toggle switches between stacked and expanded layout and animates every
// card to its new rest.
func (st *Stack) Toggle() {
	st.mode = st.mode.Toggled()
	st.reflow.Reflow(st.mode)
	st.logger.Debug("mode toggled", "mode", st.mode)
	st.emit(StackEvent{Type: EventModeChanged, Mode: st.mode, Remaining: st.registry.Len()})
}

// Append adds items at the back of the stack.
func (st *Stack) Append(items ...Item) {
	if len(items) == 0 {
		return
	}
	st.admit(items)
	st.reflow.Reflow(st.mode)
}

// admit registers items, builds their views and places each new view at its
// rest without animation.
func (st *Stack) admit(items []Item) {
	start := st.registry.Len()
	for i, item := range items {
		var view *Node
		if st.container != nil {
			view = st.opts.builder(item, start+i, st.cfg)
			view.Interactable = true
		}
		c := st.registry.Admit(item, view)
		if view != nil {
			st.container.AddChild(view)
			st.wire(c)
		}
	}
	total := st.registry.Len()
	for i := start; i < total; i++ {
		c := st.registry.At(i)
		c.Rest = mustRestTransform(i, st.mode, total, st.cfg)
		if c.View != nil {
			applyTransform(c.View, c.Rest, st.reflow.Anchor())
		}
	}
}

// wire connects a card view's pointer callbacks to the stack.
func (st *Stack) wire(c *Card) {
	id := c.ID
	c.View.OnClick = func(PointerContext) { st.Toggle() }
	c.View.OnLongPress = func(PointerContext) {
		if err := st.Select(id); err != nil {
			st.logger.Debug("long press", "err", err)
		}
	}
	c.View.OnDragStart = func(ctx DragContext) { st.beginDrag(id, ctx) }
	c.View.OnDrag = func(ctx DragContext) { st.drag(id, ctx.Translation()) }
	c.View.OnDragEnd = func(ctx DragContext) { st.endDrag(id, ctx) }
}

// BeginDrag opens a drag session on the card with id. The card's running
// animation is cancelled and its view raised above the others.
func (st *Stack) BeginDrag(id uuid.UUID, pointer int) error {
	card, ok := st.registry.Card(id)
	if !ok {
		return fmt.Errorf("begin drag on card %s: %w", id, ErrMissingOrigin)
	}
	if st.resolver.Dismissing(id) {
		return fmt.Errorf("begin drag: %w", ErrDoubleResolution)
	}
	if _, err := st.gestures.Begin(card, pointer); err != nil {
		return err
	}
	if card.View != nil {
		if a := st.animator(); a != nil {
			a.Cancel(card.View)
		}
		// The dragged card draws above every other card.
		card.View.SetZIndex(st.registry.Len() + 1)
	}
	return nil
}

// Drag moves the card with id to translation from its drag origin, updates
// the live view and publishes a pulse event per newly crossed threshold.
func (st *Stack) Drag(id uuid.UUID, translation Vec2) (Sample, error) {
	sample, err := st.gestures.Move(id, translation)
	if err != nil {
		return Sample{}, err
	}
	st.applySample(id, sample)
	card, _ := st.registry.Card(id)
	for _, d := range sample.Pulses {
		ev := StackEvent{Type: EventPulse, Card: id, Direction: d, Remaining: st.registry.Len()}
		if card != nil {
			ev.Item = card.Item
		}
		st.emit(ev)
	}
	return sample, nil
}

// EndDrag closes the drag on the card with id and commits its outcome.
func (st *Stack) EndDrag(id uuid.UUID, translation, velocity Vec2, cancelled bool) (Outcome, error) {
	s, err := st.gestures.End(id, translation, velocity, cancelled)
	if err != nil {
		return OutcomeSpringBack, err
	}
	return st.resolver.Resolve(s)
}

func (st *Stack) beginDrag(id uuid.UUID, ctx DragContext) {
	if err := st.BeginDrag(id, ctx.PointerID); err != nil {
		st.logger.Debug("drag start", "err", err)
	}
}

func (st *Stack) drag(id uuid.UUID, translation Vec2) {
	if _, err := st.Drag(id, translation); err != nil {
		st.logger.Debug("drag", "err", err)
	}
}

// applySample shows the live drag: the dragged card follows the pointer
// and fades for dismissal, the other cards fade for selection.
func (st *Stack) applySample(id uuid.UUID, s Sample) {
	anchor := st.reflow.Anchor()
	a := st.animator()
	for _, c := range st.registry.Cards() {
		if c.View == nil {
			continue
		}
		if c.ID == id {
			v := c.View
			v.X = anchor.X + s.Live.OffsetX
			v.Y = anchor.Y + s.Live.OffsetY
			v.ScaleX = s.Live.Scale
			v.ScaleY = s.Live.Scale
			v.Alpha = s.Live.Opacity * s.CardOpacity
			v.MarkDirty()
			continue
		}
		if st.resolver.Dismissing(c.ID) || st.gestures.Active(c.ID) {
			continue
		}
		if a != nil && a.Active(c.View) != nil {
			continue
		}
		c.View.SetAlpha(c.Rest.Opacity * s.SiblingOpacity)
	}
}

func (st *Stack) endDrag(id uuid.UUID, ctx DragContext) {
	if _, err := st.EndDrag(id, ctx.Translation(), ctx.Velocity(), ctx.Cancelled); err != nil {
		st.logger.Debug("drag end", "err", err)
	}
}

// Select commits a select on the card with id and presents its item.
func (st *Stack) Select(id uuid.UUID) error { return st.resolver.Select(id) }

func (st *Stack) animator() *Animator {
	if st.scene == nil {
		return nil
	}
	return st.scene.Animator()
}

func (st *Stack) emit(ev StackEvent) {
	if st.opts.sink != nil {
		st.opts.sink.EmitStackEvent(ev)
	}
}

// --- Mailbox ---

// Post queues fn to run on the update goroutine at the start of the next
// Update. It is the only Stack method safe to call from other goroutines.
func (st *Stack) Post(fn func()) {
	st.mu.Lock()
	st.mailbox = append(st.mailbox, fn)
	st.mu.Unlock()
}

// Update runs every posted function in posting order. A Stack attached to a
// Scene is updated by the scene; headless stacks call Update themselves.
func (st *Stack) Update() error {
	st.mu.Lock()
	pending := st.mailbox
	st.mailbox = nil
	st.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return nil
}

// --- Content ---

// SetThumbnail shows img on every card whose item has itemID. Cards keep
// their tint and label when img is nil.
func (st *Stack) SetThumbnail(itemID string, img image.Image) {
	if img == nil {
		return
	}
	var eimg *ebiten.Image
	for _, c := range st.registry.Cards() {
		if c.Item.ID != itemID || c.View == nil {
			continue
		}
		if eimg == nil {
			eimg = ebiten.NewImageFromImage(img)
		}
		c.View.Image = eimg
		c.View.Color = ColorWhite
		c.View.Label = ""
	}
}

// Populate fetches items from src on a background goroutine, appends them
// through the mailbox and then loads their thumbnails with loader (when
// non-nil). The returned channel receives the fetch error, or nil, once.
func (st *Stack) Populate(ctx context.Context, src ContentSource, loader ThumbnailLoader) <-chan error {
	done := make(chan error, 1)
	go func() {
		items, err := src.FetchItems(ctx)
		if err != nil {
			st.logger.Error("fetch items", "err", err)
			done <- err
			return
		}
		st.logger.Info("items fetched", "count", len(items))
		st.Post(func() {
			st.Append(items...)
			if loader != nil {
				st.loadThumbnails(ctx, loader, items)
			}
		})
		done <- nil
	}()
	return done
}

// LoadThumbnails loads pictures for the first MaxVisible cards in the
// background. Failures are logged and leave the card tinted. Results are
// applied through the mailbox.
func (st *Stack) LoadThumbnails(ctx context.Context, loader ThumbnailLoader) {
	st.loadThumbnails(ctx, loader, st.registry.Items())
}

func (st *Stack) loadThumbnails(ctx context.Context, loader ThumbnailLoader, items []Item) {
	if len(items) > st.cfg.MaxVisible {
		items = items[:st.cfg.MaxVisible]
	}
	items = append([]Item(nil), items...)
	limit := st.opts.thumbLimit
	if b, ok := loader.(BoundedLoader); ok {
		limit = b.Concurrency()
	}
	go func() {
		LoadAll(ctx, loader, items, limit, func(r ThumbnailResult) {
			if r.Err != nil {
				st.logger.Warn("thumbnail", "item", r.Item.ID, "err", r.Err)
				return
			}
			st.Post(func() { st.SetThumbnail(r.Item.ID, r.Image) })
		})
		st.logger.Debug("thumbnails done", "count", len(items), "limit", limit)
	}()
}

// ThumbnailResult is the outcome of loading one item in LoadAll. Exactly one
// of Image and Err is set.
type ThumbnailResult struct {
	Item  Item
	Image image.Image
	Err   error
}

// LoadAll loads every item through loader, at most limit at a time, and
// returns the results in the order of items. A failed item does not stop
// the others; its Err wraps [ErrItemUnavailable]. A non-nil each is called
// with every result as soon as it is ready, from the loading goroutine.
func LoadAll(ctx context.Context, loader ThumbnailLoader, items []Item, limit int, each func(ThumbnailResult)) []ThumbnailResult {
	results := make([]ThumbnailResult, len(items))

	var g errgroup.Group
	g.SetLimit(max(limit, 1))
	for i, item := range items {
		g.Go(func() error {
			r := ThumbnailResult{Item: item}
			img, err := loader.Load(ctx, item)
			if err != nil {
				r.Err = fmt.Errorf("%w: %w", ErrItemUnavailable, err)
			} else {
				r.Image = img
			}
			results[i] = r
			if each != nil {
				each(r)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
