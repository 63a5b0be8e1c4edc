package magstack

import (
	"github.com/google/uuid"
)

// thumbnailBase is the archive.org thumbnail service the original app used.
const thumbnailBase = "https://archive.org/services/img/"

// Item is an application payload shown on one card. Items are immutable.
type Item struct {
	ID           string
	ThumbnailURL string
}

// NewItem returns an item whose thumbnail locator is derived from id.
func NewItem(id string) Item {
	return Item{ID: id, ThumbnailURL: thumbnailBase + id}
}

// Card pairs an item with its view and its current rest transform.
// View is nil for stacks that are not rendered through a Scene.
type Card struct {
	ID   uuid.UUID
	Item Item
	View *Node
	Rest RestTransform
}

// Registry holds the ordered cards of one stack. Index 0 is the front card.
// It is plain data: layout and animation live elsewhere.
type Registry struct {
	cards []*Card
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Admit appends a new card for item at the back of the stack. The card's
// Rest is left zero; the reflow coordinator assigns it.
func (r *Registry) Admit(item Item, view *Node) *Card {
	c := &Card{ID: uuid.New(), Item: item, View: view}
	r.cards = append(r.cards, c)
	return c
}

// Len returns the number of cards.
func (r *Registry) Len() int {
	return len(r.cards)
}

// Cards returns the cards front to back. The returned slice MUST NOT be mutated.
func (r *Registry) Cards() []*Card {
	return r.cards
}

// At returns the card at index i.
func (r *Registry) At(i int) *Card {
	return r.cards[i]
}

// Top returns the front card, or nil for an empty registry.
func (r *Registry) Top() *Card {
	if len(r.cards) == 0 {
		return nil
	}
	return r.cards[0]
}

// IndexOf returns the index of the card with id, or -1.
func (r *Registry) IndexOf(id uuid.UUID) int {
	for i, c := range r.cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Card returns the card with id.
func (r *Registry) Card(id uuid.UUID) (*Card, bool) {
	if i := r.IndexOf(id); i >= 0 {
		return r.cards[i], true
	}
	return nil, false
}

// Items returns the items front to back.
func (r *Registry) Items() []Item {
	items := make([]Item, len(r.cards))
	for i, c := range r.cards {
		items[i] = c.Item
	}
	return items
}

// remove deletes the card with id, keeping the relative order of the rest.
// Only the reflow coordinator calls it, so every removal is followed by a
// reflow.
func (r *Registry) remove(id uuid.UUID) (*Card, bool) {
	i := r.IndexOf(id)
	if i < 0 {
		return nil, false
	}
	c := r.cards[i]
	copy(r.cards[i:], r.cards[i+1:])
	r.cards[len(r.cards)-1] = nil
	r.cards = r.cards[:len(r.cards)-1]
	return c, true
}
