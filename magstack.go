package magstack

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at draw time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// toRGBA converts a Color to a premultiplied color.RGBA.
func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// Vec2 is a 2D vector used for positions, translations and velocities.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// WhitePixel is a 1x1 white image used to draw cards that have no image.
var WhitePixel *ebiten.Image

func init() {
	WhitePixel = ebiten.NewImage(1, 1)
	WhitePixel.Fill(ColorWhite.toRGBA())
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// StackMode selects the layout constants used by the layout engine.
type StackMode uint8

const (
	StackStacked  StackMode = iota // cards overlap with a small vertical step
	StackExpanded                  // cards fan out with a large vertical step
)

// Toggled returns the other mode.
func (m StackMode) Toggled() StackMode {
	if m == StackStacked {
		return StackExpanded
	}
	return StackStacked
}

func (m StackMode) String() string {
	switch m {
	case StackStacked:
		return "stacked"
	case StackExpanded:
		return "expanded"
	default:
		return "unknown"
	}
}

// Direction identifies one of the drag thresholds.
type Direction uint8

const (
	DirectionRight Direction = iota // select preview, x grows past RightThreshold
	DirectionUp                     // select preview, y drops below UpThreshold
	DirectionDown                   // dismiss preview, y grows past DownThreshold

	numDirections = 3
)

func (d Direction) String() string {
	switch d {
	case DirectionRight:
		return "right"
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "unknown"
	}
}

// Outcome is the result of resolving a finished drag.
type Outcome uint8

const (
	OutcomeSpringBack  Outcome = iota // card returns to its rest transform
	OutcomeDismiss                    // card leaves the stack
	OutcomeSelectRight                // card is selected by a right drag
	OutcomeSelectUp                   // card is selected by an up drag
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSpringBack:
		return "spring-back"
	case OutcomeDismiss:
		return "dismiss"
	case OutcomeSelectRight:
		return "select-right"
	case OutcomeSelectUp:
		return "select-up"
	default:
		return "unknown"
	}
}

// IsSelect reports whether o is one of the select outcomes.
func (o Outcome) IsSelect() bool {
	return o == OutcomeSelectRight || o == OutcomeSelectUp
}

// EventType identifies a kind of pointer event.
type EventType uint8

const (
	EventPointerDown EventType = iota // fires when the pointer is pressed
	EventPointerUp                    // fires when the pointer is released
	EventClick                        // fires on press then release over the same node
	EventLongPress                    // fires once when a press is held without dragging
	EventDragStart                    // fires when movement exceeds the drag dead zone
	EventDrag                         // fires each frame while dragging
	EventDragEnd                      // fires when the drag is released or cancelled
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
