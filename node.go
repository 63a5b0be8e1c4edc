package magstack

import (
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
)

// HitShape is used for custom hit testing regions.
type HitShape interface {
	Contains(x, y float64) bool
}

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// --- Callback contexts ---

// PointerContext carries pointer, click and long-press event data.
type PointerContext struct {
	Node      *Node
	UserData  any
	GlobalX   float64
	GlobalY   float64
	LocalX    float64
	LocalY    float64
	PointerID int
}

// DragContext carries drag event data. DeltaX/DeltaY are the movement since
// the previous frame; TotalX/TotalY are the translation since the press.
// Velocity is in pixels per second.
type DragContext struct {
	Node      *Node
	UserData  any
	GlobalX   float64
	GlobalY   float64
	StartX    float64
	StartY    float64
	DeltaX    float64
	DeltaY    float64
	TotalX    float64
	TotalY    float64
	VelocityX float64
	VelocityY float64
	PointerID int

	// Cancelled is set on a DragEnd that was produced by a cancellation
	// (focus loss or Scene.CancelPointer) instead of a release.
	Cancelled bool
}

// Translation returns (TotalX, TotalY).
func (c DragContext) Translation() Vec2 { return Vec2{c.TotalX, c.TotalY} }

// Velocity returns (VelocityX, VelocityY).
func (c DragContext) Velocity() Vec2 { return Vec2{c.VelocityX, c.VelocityY} }

// --- ID counter ---

// nodeIDCounter is a plain counter (no atomic, the engine is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// --- Node ---

// Node is a scene graph element. Cards use one Node each as their view; the
// stack owns the card, the node only renders it and receives hits.
type Node struct {
	// Identity
	ID   uint32
	Name string

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local). Pivot is in local pixels.
	X, Y           float64
	ScaleX, ScaleY float64
	PivotX, PivotY float64

	// Size in local pixels. A node with a zero size draws nothing.
	Width, Height float64

	// Computed during Scene.Update.
	worldTransform [6]float64
	worldAlpha     float64
	transformDirty bool

	// Visibility & interaction
	Alpha        float64
	Visible      bool
	Interactable bool

	// Ordering among siblings; higher draws on top.
	ZIndex int

	// Metadata
	UserData any

	// Appearance. Image is drawn stretched to Width x Height; when nil the
	// node is a solid Color rectangle.
	Image *ebiten.Image
	Color Color

	// Label is debug text printed at the node's top-left corner.
	Label string

	// Hit testing. When nil the node's Width x Height box is used.
	HitShape HitShape

	// Per-node callbacks (nil by default)
	OnPointerDown func(PointerContext)
	OnPointerUp   func(PointerContext)
	OnClick       func(PointerContext)
	OnLongPress   func(PointerContext)
	OnDragStart   func(DragContext)
	OnDrag        func(DragContext)
	OnDragEnd     func(DragContext)

	// Internal
	disposed       bool
	childrenSorted bool
	sortedChildren []*Node
}

func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.ScaleX = 1
	n.ScaleY = 1
	n.Alpha = 1
	n.Color = ColorWhite
	n.Visible = true
	n.transformDirty = true
	n.childrenSorted = true
}

// NewContainer creates a node with no visual output that groups children.
func NewContainer(name string) *Node {
	n := &Node{Name: name}
	nodeDefaults(n)
	return n
}

// NewSprite creates a node of the given size that draws img, or a solid
// rectangle when img is nil. The pivot is placed at the center so scaling
// keeps the sprite centered on (X, Y).
func NewSprite(name string, img *ebiten.Image, width, height float64) *Node {
	n := &Node{Name: name, Image: img, Width: width, Height: height}
	nodeDefaults(n)
	n.PivotX = width / 2
	n.PivotY = height / 2
	return n
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("magstack: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, n) {
		panic("magstack: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	n.childrenSorted = false
	markSubtreeDirty(child)
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("magstack: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	n.childrenSorted = false
	markSubtreeDirty(child)
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// SetZIndex sets the node's ZIndex and marks the parent's children as unsorted.
func (n *Node) SetZIndex(z int) {
	if n.ZIndex == z {
		return
	}
	n.ZIndex = z
	if n.Parent != nil {
		n.Parent.childrenSorted = false
	}
}

// sorted returns the children in painter order (ascending ZIndex, insertion
// order for ties), rebuilding the cached order when it is stale.
func (n *Node) sorted() []*Node {
	if n.childrenSorted && n.sortedChildren != nil {
		return n.sortedChildren
	}
	if cap(n.sortedChildren) < len(n.children) {
		n.sortedChildren = make([]*Node, len(n.children))
	}
	n.sortedChildren = n.sortedChildren[:len(n.children)]
	copy(n.sortedChildren, n.children)
	sort.SliceStable(n.sortedChildren, func(i, j int) bool {
		return n.sortedChildren[i].ZIndex < n.sortedChildren[j].ZIndex
	})
	n.childrenSorted = true
	return n.sortedChildren
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants. Running tweens on a disposed
// node stop on their next update.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.sortedChildren = nil
	n.Parent = nil
	n.HitShape = nil
	n.Image = nil
	n.UserData = nil
	n.OnPointerDown = nil
	n.OnPointerUp = nil
	n.OnClick = nil
	n.OnLongPress = nil
	n.OnDragStart = nil
	n.OnDrag = nil
	n.OnDragEnd = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets transformDirty on node and all its descendants.
func markSubtreeDirty(node *Node) {
	node.transformDirty = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}
