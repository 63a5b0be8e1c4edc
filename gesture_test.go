package magstack

import (
	"errors"
	"testing"
)

type countingHaptics struct{ pulses int }

func (h *countingHaptics) Pulse() { h.pulses++ }

// newGestureFixture returns an interpreter and a registry of n cards laid
// out stacked.
func newGestureFixture(t *testing.T, n int) (*GestureInterpreter, *Registry, *countingHaptics) {
	t.Helper()
	cfg := DefaultConfig()
	reg := NewRegistry()
	for i := 0; i < n; i++ {
		reg.Admit(NewItem(string(rune('A'+i))), nil)
	}
	NewReflowCoordinator(cfg, reg, nil).Reflow(StackStacked)
	h := &countingHaptics{}
	return NewGestureInterpreter(cfg, h), reg, h
}

func TestGestureBeginTwice(t *testing.T) {
	g, reg, _ := newGestureFixture(t, 2)
	if _, err := g.Begin(reg.At(0), 0); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Begin(reg.At(0), 1); !errors.Is(err, ErrSessionActive) {
		t.Errorf("same card: err = %v, want ErrSessionActive", err)
	}
	if _, err := g.Begin(reg.At(1), 0); !errors.Is(err, ErrSessionActive) {
		t.Errorf("same pointer: err = %v, want ErrSessionActive", err)
	}
	if _, err := g.Begin(reg.At(1), 1); err != nil {
		t.Errorf("second pointer on second card: %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("Len = %d, want 2", g.Len())
	}
}

func TestGestureMoveWithoutSession(t *testing.T) {
	g, reg, h := newGestureFixture(t, 1)
	_, err := g.Move(reg.At(0).ID, Vec2{300, 0})
	if !errors.Is(err, ErrMissingOrigin) {
		t.Fatalf("err = %v, want ErrMissingOrigin", err)
	}
	if h.pulses != 0 {
		t.Errorf("pulses = %d, want 0", h.pulses)
	}
}

func TestGestureLiveTransform(t *testing.T) {
	g, reg, _ := newGestureFixture(t, 3)
	card := reg.At(1)
	if _, err := g.Begin(card, 0); err != nil {
		t.Fatal(err)
	}
	s, err := g.Move(card.ID, Vec2{10, 20})
	if err != nil {
		t.Fatal(err)
	}
	want := card.Rest.Translated(Vec2{10, 20})
	if s.Live != want {
		t.Errorf("Live = %+v, want %+v", s.Live, want)
	}
	if s.CardOpacity != 1 || s.SiblingOpacity != 1 {
		t.Errorf("opacities = (%v, %v), want (1, 1)", s.CardOpacity, s.SiblingOpacity)
	}
}

func TestGesturePulsesOncePerCrossing(t *testing.T) {
	g, reg, h := newGestureFixture(t, 1)
	id := reg.At(0).ID
	if _, err := g.Begin(reg.At(0), 0); err != nil {
		t.Fatal(err)
	}

	var pulses []Direction
	for _, x := range []float64{50, 120, 150, 200, 80, 130, 140} {
		s, err := g.Move(id, Vec2{x, 0})
		if err != nil {
			t.Fatal(err)
		}
		pulses = append(pulses, s.Pulses...)
	}
	if len(pulses) != 2 {
		t.Fatalf("pulses = %v, want two right pulses", pulses)
	}
	for _, d := range pulses {
		if d != DirectionRight {
			t.Errorf("pulse direction = %v, want right", d)
		}
	}
	if h.pulses != 2 {
		t.Errorf("haptic pulses = %d, want 2", h.pulses)
	}
}

func TestGestureTriggeredTracksDisplacement(t *testing.T) {
	g, reg, _ := newGestureFixture(t, 1)
	id := reg.At(0).ID
	s, _ := g.Begin(reg.At(0), 0)

	g.Move(id, Vec2{0, 200})
	if !s.Triggered(DirectionDown) {
		t.Error("down should be triggered past the threshold")
	}
	g.Move(id, Vec2{0, 100})
	if s.Triggered(DirectionDown) {
		t.Error("down should clear once back under the threshold")
	}
}

func TestGestureProgress(t *testing.T) {
	tests := []struct {
		name        string
		translation Vec2
		progress    [numDirections]float64
		card        float64
		siblings    float64
	}{
		{"idle", Vec2{0, 0}, [3]float64{0, 0, 0}, 1, 1},
		{"right half", Vec2{170, 0}, [3]float64{0.5, 0, 0}, 1, 0.5},
		{"right saturated", Vec2{500, 0}, [3]float64{1, 0, 0}, 1, 0},
		{"up half", Vec2{0, -250}, [3]float64{0, 0.5, 0}, 1, 0.5},
		{"down half", Vec2{0, 200}, [3]float64{0, 0, 0.5}, 0.6, 1},
		{"down saturated", Vec2{0, 400}, [3]float64{0, 0, 1}, 0.2, 1},
		{"right and up takes the stronger fade", Vec2{170, -325}, [3]float64{0.5, 0.75, 0}, 1, 0.25},
		{"right and down", Vec2{170, 200}, [3]float64{0.5, 0, 0.5}, 0.6, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, reg, _ := newGestureFixture(t, 1)
			id := reg.At(0).ID
			if _, err := g.Begin(reg.At(0), 0); err != nil {
				t.Fatal(err)
			}
			s, err := g.Move(id, tt.translation)
			if err != nil {
				t.Fatal(err)
			}
			for d := Direction(0); d < numDirections; d++ {
				if !approx(s.Progress[d], tt.progress[d]) {
					t.Errorf("progress[%v] = %v, want %v", d, s.Progress[d], tt.progress[d])
				}
				if s.Active[d] != (tt.progress[d] > 0) {
					t.Errorf("active[%v] = %v", d, s.Active[d])
				}
			}
			if !approx(s.CardOpacity, tt.card) {
				t.Errorf("CardOpacity = %v, want %v", s.CardOpacity, tt.card)
			}
			if !approx(s.SiblingOpacity, tt.siblings) {
				t.Errorf("SiblingOpacity = %v, want %v", s.SiblingOpacity, tt.siblings)
			}
		})
	}
}

func TestGestureEnd(t *testing.T) {
	g, reg, _ := newGestureFixture(t, 1)
	id := reg.At(0).ID
	if _, err := g.Begin(reg.At(0), 3); err != nil {
		t.Fatal(err)
	}
	g.Move(id, Vec2{200, 200})

	s, err := g.End(id, Vec2{210, 220}, Vec2{0, 500}, false)
	if err != nil {
		t.Fatal(err)
	}
	if s.Translation != (Vec2{210, 220}) || s.Velocity != (Vec2{0, 500}) {
		t.Errorf("session = %+v", s)
	}
	for d := Direction(0); d < numDirections; d++ {
		if s.Triggered(d) {
			t.Errorf("flag %v still set after End", d)
		}
	}
	if !s.Ended() || g.Active(id) {
		t.Error("session should be ended and inactive")
	}

	if _, err := g.End(id, Vec2{}, Vec2{}, false); !errors.Is(err, ErrDoubleResolution) {
		t.Errorf("second End: err = %v, want ErrDoubleResolution", err)
	}
	if _, err := g.Move(id, Vec2{1, 1}); !errors.Is(err, ErrMissingOrigin) {
		t.Errorf("Move after End: err = %v, want ErrMissingOrigin", err)
	}

	// The pointer is free again and the card can be dragged anew.
	if _, err := g.Begin(reg.At(0), 3); err != nil {
		t.Errorf("Begin after End: %v", err)
	}
}

func TestGestureEndWithoutBegin(t *testing.T) {
	g, reg, _ := newGestureFixture(t, 1)
	if _, err := g.End(reg.At(0).ID, Vec2{}, Vec2{}, false); !errors.Is(err, ErrMissingOrigin) {
		t.Errorf("err = %v, want ErrMissingOrigin", err)
	}
}

func TestGestureOriginIsSnapshot(t *testing.T) {
	g, reg, _ := newGestureFixture(t, 2)
	card := reg.At(1)
	s, _ := g.Begin(card, 0)
	origin := card.Rest

	card.Rest.OffsetY = -999
	if s.Origin != origin {
		t.Errorf("Origin changed with card.Rest: %+v", s.Origin)
	}
}
