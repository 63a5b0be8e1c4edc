package magstack

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable constant of a stack. Distances are in pixels,
// velocities in pixels per second, durations in seconds.
//
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	// Layout engine.
	ScaleDecrement  float64 `toml:"scale_decrement" mapstructure:"scale_decrement"`
	VerticalSpacing float64 `toml:"vertical_spacing" mapstructure:"vertical_spacing"`
	ExpandedSpacing float64 `toml:"expanded_spacing" mapstructure:"expanded_spacing"`
	MaxVisible      int     `toml:"max_visible" mapstructure:"max_visible"`

	// Gesture thresholds. UpThreshold is negative (upward is -y).
	RightThreshold   float64 `toml:"right_threshold" mapstructure:"right_threshold"`
	UpThreshold      float64 `toml:"up_threshold" mapstructure:"up_threshold"`
	DownThreshold    float64 `toml:"down_threshold" mapstructure:"down_threshold"`
	DismissThreshold float64 `toml:"dismiss_threshold" mapstructure:"dismiss_threshold"`
	DismissVelocity  float64 `toml:"dismiss_velocity" mapstructure:"dismiss_velocity"`
	HalfWidth        float64 `toml:"half_width" mapstructure:"half_width"`
	HalfHeight       float64 `toml:"half_height" mapstructure:"half_height"`

	// SelectCommit enables the select outcomes. When false a right or up
	// drag only previews and always springs back.
	SelectCommit bool `toml:"select_commit" mapstructure:"select_commit"`

	// Card size used by NewStack's default view builder.
	CardWidth  float64 `toml:"card_width" mapstructure:"card_width"`
	CardHeight float64 `toml:"card_height" mapstructure:"card_height"`

	// Animation.
	DismissDistance float64 `toml:"dismiss_distance" mapstructure:"dismiss_distance"`
	DismissDuration float32 `toml:"dismiss_duration" mapstructure:"dismiss_duration"`
	SpringDuration  float32 `toml:"spring_duration" mapstructure:"spring_duration"`
	SpringDamping   float64 `toml:"spring_damping" mapstructure:"spring_damping"`
	ReflowDuration  float32 `toml:"reflow_duration" mapstructure:"reflow_duration"`

	// Input.
	DragDeadZone      float64 `toml:"drag_dead_zone" mapstructure:"drag_dead_zone"`
	LongPressDuration float64 `toml:"long_press_duration" mapstructure:"long_press_duration"`
}

// DefaultConfig returns the constants of the original card stack, sized for
// a 480x800 viewport.
func DefaultConfig() Config {
	return Config{
		ScaleDecrement:  0.005,
		VerticalSpacing: 15,
		ExpandedSpacing: 100,
		MaxVisible:      30,

		RightThreshold:   100,
		UpThreshold:      -100,
		DownThreshold:    150,
		DismissThreshold: 250,
		DismissVelocity:  1000,
		HalfWidth:        240,
		HalfHeight:       400,

		SelectCommit: true,

		CardWidth:  320,
		CardHeight: 440,

		DismissDistance: 800,
		DismissDuration: 0.25,
		SpringDuration:  0.3,
		SpringDamping:   0.6,
		ReflowDuration:  0.3,

		DragDeadZone:      4,
		LongPressDuration: 0.5,
	}
}

// Validate reports the first constant that would break the threshold or
// layout math.
func (c Config) Validate() error {
	switch {
	case c.ScaleDecrement < 0:
		return fmt.Errorf("%w: scale_decrement %v < 0", ErrInvalidConfig, c.ScaleDecrement)
	case c.MaxVisible <= 0:
		return fmt.Errorf("%w: max_visible %d <= 0", ErrInvalidConfig, c.MaxVisible)
	case c.UpThreshold >= 0:
		return fmt.Errorf("%w: up_threshold %v must be negative", ErrInvalidConfig, c.UpThreshold)
	case c.HalfWidth <= c.RightThreshold:
		return fmt.Errorf("%w: half_width %v must exceed right_threshold %v", ErrInvalidConfig, c.HalfWidth, c.RightThreshold)
	case c.HalfHeight <= -c.UpThreshold:
		return fmt.Errorf("%w: half_height %v must exceed -up_threshold %v", ErrInvalidConfig, c.HalfHeight, -c.UpThreshold)
	case c.DismissThreshold <= c.DownThreshold:
		return fmt.Errorf("%w: dismiss_threshold %v must exceed down_threshold %v", ErrInvalidConfig, c.DismissThreshold, c.DownThreshold)
	case c.DismissVelocity <= 0:
		return fmt.Errorf("%w: dismiss_velocity %v <= 0", ErrInvalidConfig, c.DismissVelocity)
	case c.CardWidth <= 0 || c.CardHeight <= 0:
		return fmt.Errorf("%w: card size %vx%v", ErrInvalidConfig, c.CardWidth, c.CardHeight)
	case c.DismissDuration <= 0 || c.SpringDuration <= 0 || c.ReflowDuration <= 0:
		return fmt.Errorf("%w: animation durations must be positive", ErrInvalidConfig)
	case c.SpringDamping <= 0:
		return fmt.Errorf("%w: spring_damping %v <= 0", ErrInvalidConfig, c.SpringDamping)
	case c.DragDeadZone < 0 || c.LongPressDuration <= 0:
		return fmt.Errorf("%w: input timings", ErrInvalidConfig)
	}
	return nil
}

// ParseConfig decodes TOML on top of DefaultConfig. Keys that are absent
// keep their default; unknown keys are an error.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a TOML file and decodes it with ParseConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}
