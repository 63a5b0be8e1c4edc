package magstack

import (
	"bytes"
	"context"
	"errors"
	"image"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type stackFixture struct {
	scene   *Scene
	stack   *Stack
	rec     *recorder
	haptics *countingHaptics
}

// newStackFixture builds a scene with a stack of cards A..D at the default
// anchor (240, 400). The front card covers (80, 180)-(400, 620).
func newStackFixture(t *testing.T, opts ...StackOption) *stackFixture {
	t.Helper()
	f := &stackFixture{scene: NewScene(), rec: &recorder{}, haptics: &countingHaptics{}}
	f.scene.pollInput = false
	items := []Item{NewItem("A"), NewItem("B"), NewItem("C"), NewItem("D")}
	opts = append([]StackOption{
		WithHaptics(f.haptics),
		WithPresenter(f.rec),
		WithRemovalListener(f.rec),
		WithEventSink(f.rec),
	}, opts...)
	st, err := NewStack(f.scene, items, opts...)
	if err != nil {
		t.Fatal(err)
	}
	f.stack = st
	return f
}

func (f *stackFixture) front() *Card { return f.stack.Registry().Top() }

func (f *stackFixture) order() string {
	s := ""
	for _, it := range f.stack.Registry().Items() {
		s += it.ID
	}
	return s
}

// assertAtRest checks that every card view sits exactly on its rest.
func (f *stackFixture) assertAtRest(t *testing.T) {
	t.Helper()
	anchor := f.stack.Reflow().Anchor()
	for i, c := range f.stack.Registry().Cards() {
		if got := viewTransform(c.View, anchor); !got.ApproxEqual(c.Rest, 1e-9) {
			t.Errorf("card %d (%s) at %+v, want rest %+v", i, c.Item.ID, got, c.Rest)
		}
	}
}

func TestStackInitialLayout(t *testing.T) {
	f := newStackFixture(t)
	if f.stack.Len() != 4 || f.order() != "ABCD" {
		t.Fatalf("cards = %q", f.order())
	}
	if f.stack.Container().NumChildren() != 4 {
		t.Errorf("views = %d, want 4", f.stack.Container().NumChildren())
	}
	f.assertAtRest(t)
	if f.front().View.ZIndex != 4 || f.stack.Registry().At(3).View.ZIndex != 1 {
		t.Error("front card is not on top")
	}
	updateWorldTransform(f.scene.root, identityTransform, 1, false)
	if f.scene.hitTest(240, 400) != f.front().View {
		t.Error("press at the anchor misses the front card")
	}
}

func TestStackDragDismiss(t *testing.T) {
	f := newStackFixture(t)
	f.scene.InjectDrag(240, 400, 240, 700, 10)
	stepFrames(t, f.scene, 10)

	if f.haptics.pulses != 1 {
		t.Errorf("pulses = %d, want 1", f.haptics.pulses)
	}
	if f.rec.count(EventPulse) != 1 {
		t.Errorf("pulse events = %d, want 1", f.rec.count(EventPulse))
	}
	// The card stays in the stack until its exit animation finishes.
	if f.stack.Len() != 4 || !f.stack.Resolver().Dismissing(f.front().ID) {
		t.Fatal("card left before its dismiss animation")
	}

	stepFrames(t, f.scene, 60)
	if f.order() != "BCD" {
		t.Fatalf("order = %q, want BCD", f.order())
	}
	if len(f.rec.removed) != 1 || f.rec.removed[0].ID != "A" || f.rec.remaining[0] != 3 {
		t.Errorf("removed = %v remaining = %v", f.rec.removed, f.rec.remaining)
	}
	if f.rec.count(EventDismissed) != 1 {
		t.Errorf("dismissed events = %d", f.rec.count(EventDismissed))
	}
	if f.stack.Container().NumChildren() != 3 {
		t.Errorf("views = %d, want 3", f.stack.Container().NumChildren())
	}
	f.assertAtRest(t)
	if b := f.front(); b.Rest.Scale != 1 || b.Rest.OffsetY != 0 || b.Rest.Depth != 3 {
		t.Errorf("new front rest = %+v", b.Rest)
	}
}

func TestStackShortDragSpringsBack(t *testing.T) {
	f := newStackFixture(t)
	f.scene.InjectDrag(240, 400, 240, 480, 20)
	stepFrames(t, f.scene, 20)

	if f.rec.count(EventSpringBack) != 1 || f.rec.count(EventDismissed) != 0 {
		t.Fatalf("events = %+v", f.rec.events)
	}
	if f.haptics.pulses != 0 {
		t.Errorf("pulses = %d, want 0", f.haptics.pulses)
	}
	stepFrames(t, f.scene, 30)
	if f.stack.Len() != 4 {
		t.Errorf("Len = %d, want 4", f.stack.Len())
	}
	f.assertAtRest(t)
}

func TestStackFlickDismisses(t *testing.T) {
	f := newStackFixture(t)
	f.scene.InjectPress(240, 400)
	f.scene.InjectMove(240, 425)
	f.scene.InjectRelease(240, 450)
	stepFrames(t, f.scene, 3)

	if !f.stack.Resolver().Dismissing(f.front().ID) {
		t.Fatal("fast short flick did not dismiss")
	}
	stepFrames(t, f.scene, 60)
	if f.order() != "BCD" {
		t.Errorf("order = %q, want BCD", f.order())
	}
}

func TestStackFlickReleasedInPlaceDismisses(t *testing.T) {
	f := newStackFixture(t)
	front := f.front().ID
	f.scene.InjectPress(240, 400)
	for i := 1; i <= 4; i++ {
		f.scene.InjectMove(240, 400+float64(i)*25)
	}
	f.scene.InjectRelease(240, 500)
	stepFrames(t, f.scene, 6)

	if !f.stack.Resolver().Dismissing(front) {
		t.Fatal("100 px flick at 1500 px/s did not dismiss")
	}
	stepFrames(t, f.scene, 60)
	if f.order() != "BCD" {
		t.Errorf("order = %q, want BCD", f.order())
	}
}

func TestStackTapToggles(t *testing.T) {
	f := newStackFixture(t)
	f.scene.InjectClick(240, 400)
	stepFrames(t, f.scene, 2)

	if f.stack.Mode() != StackExpanded {
		t.Fatalf("Mode = %v, want expanded", f.stack.Mode())
	}
	if f.rec.count(EventModeChanged) != 1 {
		t.Errorf("mode events = %d", f.rec.count(EventModeChanged))
	}
	if got := f.stack.Registry().At(3).Rest.OffsetY; got != -300 {
		t.Errorf("expanded offset = %v, want -300", got)
	}
	stepFrames(t, f.scene, 30)
	f.assertAtRest(t)

	f.stack.Toggle()
	stepFrames(t, f.scene, 30)
	if f.stack.Mode() != StackStacked {
		t.Error("second toggle did not restore stacked")
	}
	f.assertAtRest(t)
}

func TestStackLongPressPresents(t *testing.T) {
	f := newStackFixture(t)
	f.scene.InjectHold(240, 400, 40)
	stepFrames(t, f.scene, 42)

	if len(f.rec.presented) != 1 || f.rec.presented[0].ID != "A" {
		t.Fatalf("presented = %v", f.rec.presented)
	}
	if f.stack.Mode() != StackStacked {
		t.Error("long press also toggled the layout")
	}
}

func TestStackCancelledDragSpringsBack(t *testing.T) {
	f := newStackFixture(t)
	f.scene.InjectPress(240, 400)
	f.scene.InjectMove(240, 700)
	f.scene.InjectCancel()
	stepFrames(t, f.scene, 3)

	if f.rec.count(EventSpringBack) != 1 {
		t.Fatalf("events = %+v", f.rec.events)
	}
	stepFrames(t, f.scene, 30)
	if f.stack.Len() != 4 {
		t.Errorf("cancelled drag removed a card")
	}
	f.assertAtRest(t)
}

func TestStackSelectPreviewFadesSiblings(t *testing.T) {
	f := newStackFixture(t)
	f.scene.InjectPress(240, 400)
	f.scene.InjectMove(410, 400) // halfway between 100 and 240
	stepFrames(t, f.scene, 2)

	for i, c := range f.stack.Registry().Cards()[1:] {
		if math.Abs(c.View.Alpha-0.5) > 1e-9 {
			t.Errorf("sibling %d alpha = %v, want 0.5", i+1, c.View.Alpha)
		}
	}
	if f.front().View.Alpha != 1 {
		t.Errorf("dragged card alpha = %v, want 1", f.front().View.Alpha)
	}

	f.scene.InjectRelease(410, 400)
	stepFrames(t, f.scene, 31)
	if len(f.rec.presented) != 0 {
		t.Error("partial right drag selected")
	}
	f.assertAtRest(t)
}

func TestStackFullRightDragSelects(t *testing.T) {
	f := newStackFixture(t)
	f.scene.InjectPress(240, 400)
	f.scene.InjectMove(400, 400)
	f.scene.InjectMove(490, 400)
	f.scene.InjectRelease(490, 400)
	stepFrames(t, f.scene, 4)

	if len(f.rec.presented) != 1 || f.rec.presented[0].ID != "A" {
		t.Fatalf("presented = %v", f.rec.presented)
	}
	if f.haptics.pulses != 1 {
		t.Errorf("pulses = %d, want 1", f.haptics.pulses)
	}
	stepFrames(t, f.scene, 30)
	if f.stack.Len() != 4 {
		t.Error("select removed the card")
	}
	f.assertAtRest(t)
}

func TestStackPostRunsOnUpdate(t *testing.T) {
	f := newStackFixture(t)

	var wg sync.WaitGroup
	ran := 0
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.stack.Post(func() { ran++ })
		}()
	}
	wg.Wait()
	if ran != 0 {
		t.Fatal("posted function ran before Update")
	}
	stepFrames(t, f.scene, 1)
	if ran != 3 {
		t.Errorf("ran = %d, want 3", ran)
	}
}

func TestStackAppend(t *testing.T) {
	f := newStackFixture(t)
	f.stack.Append(NewItem("E"))
	if f.order() != "ABCDE" || f.stack.Container().NumChildren() != 5 {
		t.Fatalf("order = %q", f.order())
	}
	stepFrames(t, f.scene, 30)
	f.assertAtRest(t)
	if f.front().Rest.Depth != 5 {
		t.Errorf("front depth = %d, want 5", f.front().Rest.Depth)
	}
}

func TestStackHeadless(t *testing.T) {
	st, err := NewStack(nil, []Item{NewItem("A"), NewItem("B"), NewItem("C")})
	if err != nil {
		t.Fatal(err)
	}
	if st.Container() != nil || st.Registry().Top().View != nil {
		t.Fatal("headless stack built views")
	}

	st.Toggle()
	if got := st.Registry().At(2).Rest.OffsetY; got != -200 {
		t.Errorf("expanded offset = %v, want -200", got)
	}

	card := st.Registry().Top()
	if _, err := st.Gestures().Begin(card, 0); err != nil {
		t.Fatal(err)
	}
	s, err := st.Gestures().End(card.ID, Vec2{0, 300}, Vec2{}, false)
	if err != nil {
		t.Fatal(err)
	}
	out, err := st.Resolver().Resolve(s)
	if err != nil || out != OutcomeDismiss {
		t.Fatalf("Resolve = %v, %v", out, err)
	}
	if st.Len() != 2 || st.Registry().Top().Item.ID != "B" {
		t.Errorf("headless dismiss left %d cards", st.Len())
	}
	if st.Registry().Top().Rest.Depth != 2 {
		t.Errorf("front depth = %d, want 2", st.Registry().Top().Rest.Depth)
	}
}

func TestNewStackInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxVisible = 0
	if _, err := NewStack(nil, nil, WithConfig(cfg)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

type fakeSource struct {
	items []Item
	err   error
}

func (s fakeSource) FetchItems(context.Context) ([]Item, error) { return s.items, s.err }

type fakeLoader struct{ fail map[string]bool }

func (l fakeLoader) Load(_ context.Context, item Item) (image.Image, error) {
	if l.fail[item.ID] {
		return nil, ErrLoad
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

// waitFor calls Update on st until cond holds or a second passes.
func waitFor(t *testing.T, st *Stack, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(2 * time.Millisecond)
		if err := st.Update(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestStackPopulate(t *testing.T) {
	scene := NewScene()
	scene.pollInput = false
	st, err := NewStack(scene, nil)
	if err != nil {
		t.Fatal(err)
	}

	src := fakeSource{items: []Item{NewItem("x"), NewItem("y")}}
	done := st.Populate(context.Background(), src, fakeLoader{fail: map[string]bool{"y": true}})
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	waitFor(t, st, func() bool { return st.Len() == 2 })
	x := st.Registry().At(0)
	waitFor(t, st, func() bool { return x.View.Image != nil })
	if x.View.Label != "" || x.View.Color != ColorWhite {
		t.Errorf("thumbnail card kept its placeholder: label %q color %v", x.View.Label, x.View.Color)
	}
	if y := st.Registry().At(1); y.View.Label != "y" {
		t.Errorf("failed card label = %q, want placeholder", y.View.Label)
	}
}

func TestStackPopulateError(t *testing.T) {
	st, err := NewStack(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	done := st.Populate(context.Background(), fakeSource{err: ErrNetwork}, nil)
	if err := <-done; !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
	if st.Len() != 0 {
		t.Error("failed fetch added cards")
	}
}

// gatedLoader counts loads in flight and holds each one for a moment.
type gatedLoader struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	limit    int // reported by Concurrency when bounded
}

func (l *gatedLoader) Load(context.Context, Item) (image.Image, error) {
	l.mu.Lock()
	l.inFlight++
	l.peak = max(l.peak, l.inFlight)
	l.mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	l.mu.Lock()
	l.inFlight--
	l.mu.Unlock()
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (l *gatedLoader) maxInFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peak
}

type boundedGatedLoader struct{ *gatedLoader }

func (l boundedGatedLoader) Concurrency() int { return l.limit }

func TestStackThumbnailConcurrency(t *testing.T) {
	tests := []struct {
		name   string
		opts   []StackOption
		loader func(*gatedLoader) ThumbnailLoader
		want   int
	}{
		{"option", []StackOption{WithThumbnailConcurrency(2)}, func(l *gatedLoader) ThumbnailLoader { return l }, 2},
		{"default", nil, func(l *gatedLoader) ThumbnailLoader { return l }, DefaultThumbnailConcurrency},
		{"loader", []StackOption{WithThumbnailConcurrency(5)}, func(l *gatedLoader) ThumbnailLoader {
			l.limit = 3
			return boundedGatedLoader{l}
		}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := NewScene()
			scene.pollInput = false
			items := make([]Item, 12)
			for i := range items {
				items[i] = NewItem(string(rune('a' + i)))
			}
			st, err := NewStack(scene, items, tt.opts...)
			if err != nil {
				t.Fatal(err)
			}
			gl := &gatedLoader{}
			st.LoadThumbnails(context.Background(), tt.loader(gl))
			waitFor(t, st, func() bool {
				for _, c := range st.Registry().Cards() {
					if c.View.Image == nil {
						return false
					}
				}
				return true
			})
			if got := gl.maxInFlight(); got > tt.want {
				t.Errorf("peak loads in flight = %d, want at most %d", got, tt.want)
			}
		})
	}
}

func TestStackDragAPI(t *testing.T) {
	var events []StackEvent
	st, err := NewStack(nil, []Item{NewItem("A"), NewItem("B")},
		WithEventSink(EventSinkFunc(func(ev StackEvent) { events = append(events, ev) })))
	if err != nil {
		t.Fatal(err)
	}

	if err := st.BeginDrag(uuid.New(), 0); !errors.Is(err, ErrMissingOrigin) {
		t.Errorf("unknown card: err = %v", err)
	}

	top := st.Registry().Top()
	if err := st.BeginDrag(top.ID, 0); err != nil {
		t.Fatal(err)
	}
	if err := st.BeginDrag(top.ID, 1); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second begin: err = %v", err)
	}
	s, err := st.Drag(top.ID, Vec2{0, 200})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Pulses) != 1 || s.Pulses[0] != DirectionDown {
		t.Errorf("pulses = %v, want [down]", s.Pulses)
	}
	out, err := st.EndDrag(top.ID, Vec2{0, 260}, Vec2{}, false)
	if err != nil || out != OutcomeDismiss {
		t.Fatalf("EndDrag = %v, %v", out, err)
	}
	if _, err := st.EndDrag(top.ID, Vec2{0, 260}, Vec2{}, false); err == nil {
		t.Error("second EndDrag succeeded")
	}

	if len(events) != 2 || events[0].Type != EventPulse || events[1].Type != EventDismissed {
		t.Errorf("events = %+v", events)
	}
	if err := st.Select(st.Registry().Top().ID); err != nil {
		t.Errorf("Select: %v", err)
	}
}

func TestStackDragWithoutGestureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	st, err := NewStack(nil, []Item{NewItem("A")}, WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	st.drag(st.Registry().Top().ID, Vec2{0, 40})
	if !bytes.Contains(buf.Bytes(), []byte("drag")) {
		t.Errorf("log = %q, want a drag entry", buf.String())
	}
}
