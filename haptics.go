package magstack

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// HapticFeedback receives one pulse each time a drag crosses a threshold.
type HapticFeedback interface {
	Pulse()
}

// HapticsFunc adapts a plain function to HapticFeedback.
type HapticsFunc func()

// Pulse calls f.
func (f HapticsFunc) Pulse() { f() }

// VibrationHaptics pulses the device vibrator through ebiten. On platforms
// without a vibrator the call is a no-op.
type VibrationHaptics struct {
	Duration  time.Duration
	Magnitude float64
}

// DefaultVibration is a short light tick.
var DefaultVibration = VibrationHaptics{Duration: 20 * time.Millisecond, Magnitude: 0.5}

// Pulse vibrates once.
func (v VibrationHaptics) Pulse() {
	ebiten.Vibrate(&ebiten.VibrateOptions{
		Duration:  v.Duration,
		Magnitude: v.Magnitude,
	})
}

type nopHaptics struct{}

func (nopHaptics) Pulse() {}
