package magstack

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene is the top-level object that owns the node tree, input state, the
// shared animator and the per-frame hooks.
type Scene struct {
	root   *Node
	debug  bool
	logger *log.Logger

	// ClearColor fills the screen at the start of Draw. A zero alpha leaves
	// the screen as ebiten handed it over.
	ClearColor Color

	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir string

	animator   Animator
	updateFunc func() error
	hooks      []func() error

	// Input state
	pointers          [maxPointers]pointerState
	hitBuf            []*Node
	dragDeadZone      float64
	longPressDuration float64
	touchID           ebiten.TouchID
	touchActive       bool
	prevTouchIDs      []ebiten.TouchID
	pollInput         bool
	injectQueue       []syntheticPointerEvent

	testRunner      *TestRunner
	screenshotQueue []string
	drawCount       int
}

// NewScene creates a new scene with a pre-created root container.
func NewScene() *Scene {
	root := NewContainer("root")
	root.Interactable = true
	return &Scene{
		root:              root,
		logger:            discardLogger(),
		ScreenshotDir:     "screenshots",
		dragDeadZone:      defaultDragDeadZone,
		longPressDuration: defaultLongPress,
		pollInput:         true,
	}
}

// Root returns the scene's root container node.
func (s *Scene) Root() *Node {
	return s.root
}

// Animator returns the scene's animator. Tween groups started on it advance
// once per Update, after input.
func (s *Scene) Animator() *Animator {
	return &s.animator
}

// SetUpdateFunc sets a callback that runs once per Update after input has
// been processed and before animations advance.
func (s *Scene) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// addHook registers a callback that runs at the start of every Update,
// before input. Stacks use it to drain their mailbox.
func (s *Scene) addHook(fn func() error) {
	s.hooks = append(s.hooks, fn)
}

// SetLogger sets the logger used for debug stats and warnings.
func (s *Scene) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Logger returns the scene's logger.
func (s *Scene) Logger() *log.Logger {
	return s.logger
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics and per-frame stats are logged at debug level.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// Update runs one fixed-step frame at ebiten's current TPS.
func (s *Scene) Update() error {
	return s.step(float32(1.0 / float64(ebiten.TPS())))
}

// step runs one frame of dt seconds: hooks, scripted input, pointer input,
// the update func, then animations.
func (s *Scene) step(dt float32) error {
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	for _, fn := range s.hooks {
		if err := fn(); err != nil {
			return err
		}
	}
	if s.testRunner != nil {
		s.testRunner.step(s)
	}

	// Refresh world transforms so hit testing sees this frame's positions.
	updateWorldTransform(s.root, identityTransform, 1.0, false)
	s.processInput(float64(dt))

	if s.updateFunc != nil {
		if err := s.updateFunc(); err != nil {
			return err
		}
	}

	s.animator.Update(dt)
	updateWorldTransform(s.root, identityTransform, 1.0, false)

	if s.debug {
		s.debugCheckChildCount(s.root)
		s.debugLog(debugStats{
			updateTime: time.Since(t0),
			drawCount:  s.drawCount,
			tweens:     s.animator.Len(),
		})
	}
	return nil
}

// Draw renders the tree in depth order onto screen, then captures any
// queued screenshots.
func (s *Scene) Draw(screen *ebiten.Image) {
	if s.ClearColor.A > 0 {
		screen.Fill(s.ClearColor.toRGBA())
	}
	updateWorldTransform(s.root, identityTransform, 1.0, false)
	s.drawCount = 0
	s.drawNode(screen, s.root)
	s.flushScreenshots(screen)
}
