package magstack

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewItemThumbnail(t *testing.T) {
	item := NewItem("byte-magazine-1984-08")
	if item.ThumbnailURL != "https://archive.org/services/img/byte-magazine-1984-08" {
		t.Errorf("ThumbnailURL = %q", item.ThumbnailURL)
	}
}

func TestRegistryAdmitOrder(t *testing.T) {
	r := NewRegistry()
	if r.Top() != nil {
		t.Error("empty registry has a top card")
	}
	a := r.Admit(NewItem("a"), nil)
	b := r.Admit(NewItem("b"), nil)

	if a.ID == b.ID || a.ID == uuid.Nil {
		t.Errorf("card ids not unique: %s %s", a.ID, b.ID)
	}
	if r.Len() != 2 || r.Top() != a || r.At(1) != b {
		t.Error("cards not kept in admission order")
	}
	if r.IndexOf(b.ID) != 1 || r.IndexOf(uuid.New()) != -1 {
		t.Error("IndexOf mismatch")
	}
	if c, ok := r.Card(a.ID); !ok || c != a {
		t.Error("Card lookup failed")
	}
	items := r.Items()
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "b" {
		t.Errorf("Items = %v", items)
	}
}

func TestRegistrySameItemTwice(t *testing.T) {
	r := NewRegistry()
	a := r.Admit(NewItem("dup"), nil)
	b := r.Admit(NewItem("dup"), nil)
	if a.ID == b.ID {
		t.Fatal("duplicate items share a card identity")
	}
	r.remove(a.ID)
	if r.Len() != 1 || r.Top() != b {
		t.Error("removing one duplicate removed the wrong card")
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	var ids []uuid.UUID
	for _, id := range []string{"a", "b", "c", "d"} {
		ids = append(ids, r.Admit(NewItem(id), nil).ID)
	}
	c, ok := r.remove(ids[1])
	if !ok || c.Item.ID != "b" {
		t.Fatalf("remove = %v, %v", c, ok)
	}
	if _, ok := r.remove(ids[1]); ok {
		t.Error("second remove succeeded")
	}
	got := ""
	for _, it := range r.Items() {
		got += it.ID
	}
	if got != "acd" {
		t.Errorf("order = %q, want acd", got)
	}
}
