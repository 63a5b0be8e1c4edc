package magstack

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// labelInset is the distance, in local pixels, of a node's label from its
// top-left corner.
const labelInset = 8

// labelMinAlpha hides labels on cards that are mostly faded out. Debug text
// ignores color scaling, so it cannot fade with the card.
const labelMinAlpha = 0.5

// drawNode draws n's subtree in painter order: ascending ZIndex among
// siblings, parents before children.
func (s *Scene) drawNode(screen *ebiten.Image, n *Node) {
	if !n.Visible || n.worldAlpha <= 0 {
		return
	}
	if n.Width > 0 && n.Height > 0 {
		s.drawSprite(screen, n)
	}
	for _, child := range n.sorted() {
		s.drawNode(screen, child)
	}
}

// drawSprite submits one DrawImage for n, stretching its image (or the
// white pixel) to Width x Height and applying the world transform.
func (s *Scene) drawSprite(screen *ebiten.Image, n *Node) {
	img := n.Image
	if img == nil {
		img = WhitePixel
	}
	b := img.Bounds()

	var op ebiten.DrawImageOptions
	op.GeoM.Scale(n.Width/float64(b.Dx()), n.Height/float64(b.Dy()))
	op.GeoM.Concat(affineToGeoM(n.worldTransform))

	// Premultiplied tint: color scaled by effective alpha.
	a := n.Color.A * n.worldAlpha
	op.ColorScale.Scale(float32(n.Color.R*a), float32(n.Color.G*a), float32(n.Color.B*a), float32(a))
	op.Filter = ebiten.FilterLinear

	screen.DrawImage(img, &op)
	s.drawCount++

	if n.Label != "" && n.worldAlpha >= labelMinAlpha {
		x, y := n.LocalToWorld(labelInset, labelInset)
		ebitenutil.DebugPrintAt(screen, n.Label, int(x), int(y))
	}
}

// affineToGeoM converts [a, b, c, d, tx, ty] into an ebiten.GeoM.
func affineToGeoM(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}
