package magstack

import "github.com/charmbracelet/log"

// ViewBuilder creates the view for one card. The stack sets its position,
// scale, alpha and depth; the builder decides size, image and tint.
type ViewBuilder func(item Item, index int, cfg Config) *Node

// StackOption configures a Stack at construction.
type StackOption func(*stackOptions)

type stackOptions struct {
	cfg       Config
	logger    *log.Logger
	haptics   HapticFeedback
	presenter DetailPresenter
	removal   RemovalListener
	sink      EventSink
	builder   ViewBuilder
	anchor    *Vec2
	mode      StackMode

	thumbLimit int
}

func WithConfig(cfg Config) StackOption           { return func(o *stackOptions) { o.cfg = cfg } }
func WithLogger(l *log.Logger) StackOption        { return func(o *stackOptions) { o.logger = l } }
func WithHaptics(h HapticFeedback) StackOption    { return func(o *stackOptions) { o.haptics = h } }
func WithPresenter(p DetailPresenter) StackOption { return func(o *stackOptions) { o.presenter = p } }
func WithEventSink(s EventSink) StackOption       { return func(o *stackOptions) { o.sink = s } }
func WithMode(m StackMode) StackOption            { return func(o *stackOptions) { o.mode = m } }
func WithBuilder(b ViewBuilder) StackOption       { return func(o *stackOptions) { o.builder = b } }

// WithRemovalListener registers l for committed dismissals.
func WithRemovalListener(l RemovalListener) StackOption {
	return func(o *stackOptions) { o.removal = l }
}

// WithAnchor places the front card's center at (x, y). The default is the
// center of a viewport of 2*HalfWidth x 2*HalfHeight.
func WithAnchor(x, y float64) StackOption {
	return func(o *stackOptions) { o.anchor = &Vec2{x, y} }
}

// WithThumbnailConcurrency bounds concurrent thumbnail loads for loaders that
// do not implement [BoundedLoader].
func WithThumbnailConcurrency(n int) StackOption {
	return func(o *stackOptions) { o.thumbLimit = max(n, 1) }
}

func newStackOptions(opts []StackOption) stackOptions {
	o := stackOptions{cfg: DefaultConfig(), thumbLimit: DefaultThumbnailConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = discardLogger()
	}
	if o.builder == nil {
		o.builder = DefaultViewBuilder
	}
	return o
}

// cardPalette tints cards that have no thumbnail yet.
var cardPalette = []Color{
	{R: 0.91, G: 0.30, B: 0.24, A: 1},
	{R: 0.20, G: 0.60, B: 0.86, A: 1},
	{R: 0.18, G: 0.80, B: 0.44, A: 1},
	{R: 0.95, G: 0.77, B: 0.06, A: 1},
	{R: 0.61, G: 0.35, B: 0.71, A: 1},
	{R: 0.90, G: 0.49, B: 0.13, A: 1},
}

// DefaultViewBuilder returns a tinted CardWidth x CardHeight sprite labelled
// with the item identifier.
func DefaultViewBuilder(item Item, index int, cfg Config) *Node {
	n := NewSprite("card:"+item.ID, nil, cfg.CardWidth, cfg.CardHeight)
	n.Color = cardPalette[index%len(cardPalette)]
	n.Label = item.ID
	return n
}
