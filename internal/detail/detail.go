// Package detail shows the selected item on an overlay above the stack.
package detail

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/magstack"
)

// overlayZ keeps the overlay above every card, including a dragged one.
const overlayZ = 1 << 20

// FadeDuration is the overlay fade-in time in seconds.
const FadeDuration float32 = 0.2

// Presenter implements magstack.DetailPresenter with a full-screen overlay
// node. A tap on the overlay closes it. Presenting while open replaces the
// shown item.
type Presenter struct {
	scene         *magstack.Scene
	width, height float64
	logger        *log.Logger

	overlay *magstack.Node
	current magstack.Item
	open    bool

	// OnClose, if set, is called after the overlay is removed.
	OnClose func(item magstack.Item)
}

// NewPresenter returns a presenter that covers a width x height viewport of
// scene. A nil logger discards output.
func NewPresenter(scene *magstack.Scene, width, height float64, logger *log.Logger) *Presenter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Presenter{scene: scene, width: width, height: height, logger: logger}
}

// Present shows item.
func (p *Presenter) Present(item magstack.Item) {
	if p.open {
		p.current = item
		p.overlay.Label = label(item)
		p.logger.Debug("detail replaced", "item", item.ID)
		return
	}

	n := magstack.NewSprite("detail:"+item.ID, nil, p.width, p.height)
	n.SetPosition(p.width/2, p.height/2)
	n.Color = magstack.Color{R: 0.05, G: 0.05, B: 0.08, A: 0.92}
	n.Label = label(item)
	n.Interactable = true
	n.SetZIndex(overlayZ)
	n.SetAlpha(0)
	n.OnClick = func(magstack.PointerContext) { p.Close() }

	p.scene.Root().AddChild(n)
	p.scene.Animator().Start(magstack.TweenAlpha(n, 1, FadeDuration, ease.OutQuad))

	p.overlay = n
	p.current = item
	p.open = true
	p.logger.Info("detail", "item", item.ID)
}

// Close removes the overlay. Closing a closed presenter does nothing.
func (p *Presenter) Close() {
	if !p.open {
		return
	}
	p.scene.Animator().Cancel(p.overlay)
	p.overlay.Dispose()
	item := p.current
	p.overlay = nil
	p.current = magstack.Item{}
	p.open = false
	if p.OnClose != nil {
		p.OnClose(item)
	}
}

// Visible reports whether the overlay is shown.
func (p *Presenter) Visible() bool { return p.open }

// Current returns the shown item and true, or false when closed.
func (p *Presenter) Current() (magstack.Item, bool) { return p.current, p.open }

// Overlay returns the overlay node, or nil when closed.
func (p *Presenter) Overlay() *magstack.Node { return p.overlay }

func label(item magstack.Item) string {
	return fmt.Sprintf("PDF VIEW\n\n%s\n\ntap to close", item.ID)
}

var _ magstack.DetailPresenter = (*Presenter)(nil)
