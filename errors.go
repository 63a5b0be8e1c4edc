package magstack

import "errors"

// Sentinel errors returned by the stack engine. Callers match them with
// errors.Is; the engine wraps them with context.
var (
	// ErrInvalidIndex is returned when a layout is requested for an index
	// outside [0, total). It indicates a bug in the caller.
	ErrInvalidIndex = errors.New("invalid card index")

	// ErrDoubleResolution is returned when a drag session is ended or
	// resolved a second time.
	ErrDoubleResolution = errors.New("drag session already resolved")

	// ErrMissingOrigin is returned when a movement sample arrives for a card
	// that has no active drag session.
	ErrMissingOrigin = errors.New("no drag session for card")

	// ErrSessionActive is returned when a drag session is started on a card
	// or pointer that already has one.
	ErrSessionActive = errors.New("drag session already active")

	// ErrItemUnavailable marks an item whose content could not be loaded.
	// The item may still occupy a stack slot.
	ErrItemUnavailable = errors.New("item unavailable")

	// ErrNetwork wraps transport failures of the content collaborators.
	ErrNetwork = errors.New("network error")

	// ErrLoad wraps payloads that arrived but could not be decoded.
	ErrLoad = errors.New("load error")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid config")
)
