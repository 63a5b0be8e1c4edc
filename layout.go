package magstack

import (
	"fmt"
	"math"
)

// minScale keeps deep cards from collapsing to zero or flipping.
const minScale = 0.05

// RestTransform is the settled placement of a card: uniform scale, offset
// from the stack anchor, z-order depth and opacity.
//
// OffsetX is zero for every rest placement; it is non-zero only for the live
// transform of a dragged card.
type RestTransform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
	Depth   int
	Opacity float64
}

// Translated returns t moved by v in screen space. The pointer translation
// maps one-to-one onto the card regardless of its scale.
func (t RestTransform) Translated(v Vec2) RestTransform {
	t.OffsetX += v.X
	t.OffsetY += v.Y
	return t
}

// ApproxEqual reports whether t and o differ by less than eps in every
// continuous component and share the same depth.
func (t RestTransform) ApproxEqual(o RestTransform, eps float64) bool {
	return t.Depth == o.Depth &&
		math.Abs(t.Scale-o.Scale) < eps &&
		math.Abs(t.OffsetX-o.OffsetX) < eps &&
		math.Abs(t.OffsetY-o.OffsetY) < eps &&
		math.Abs(t.Opacity-o.Opacity) < eps
}

// ComputeRestTransform returns the rest transform of the card at index in a
// stack of total cards laid out in mode. It is pure: the same inputs always
// give the same output.
//
//	Scale   = 1 - ScaleDecrement*index (floored at 0.05)
//	OffsetY = -VerticalSpacing*index (stacked) or -ExpandedSpacing*index
//	Depth   = total - index
//	Opacity = 0 for index >= MaxVisible in stacked mode, else 1
func ComputeRestTransform(index int, mode StackMode, total int, cfg Config) (RestTransform, error) {
	if index < 0 || index >= total {
		return RestTransform{}, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidIndex, index, total)
	}

	scale := 1 - cfg.ScaleDecrement*float64(index)
	if scale < minScale {
		scale = minScale
	}
	t := RestTransform{
		Scale:   scale,
		Depth:   total - index,
		Opacity: 1,
	}

	switch mode {
	case StackExpanded:
		t.OffsetY = -cfg.ExpandedSpacing * float64(index)
	default:
		t.OffsetY = -cfg.VerticalSpacing * float64(index)
		if index >= cfg.MaxVisible {
			t.Opacity = 0
		}
	}
	return t, nil
}

// mustRestTransform is ComputeRestTransform for callers that iterate a
// registry and therefore can only pass valid indices.
func mustRestTransform(index int, mode StackMode, total int, cfg Config) RestTransform {
	t, err := ComputeRestTransform(index, mode, total, cfg)
	if err != nil {
		panic("magstack: " + err.Error())
	}
	return t
}
