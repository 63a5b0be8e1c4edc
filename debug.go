package magstack

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// globalDebug enables disposed-node checks in tree operations. Set by
// Scene.SetDebugMode.
var globalDebug bool

// discardLogger returns a logger that drops everything. Components start
// with it until a caller installs a real one.
func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.InfoLevel})
}

// debugStats holds per-frame timing and draw metrics.
// Only populated when Scene.debug is true.
type debugStats struct {
	updateTime time.Duration
	drawTime   time.Duration
	drawCount  int
	tweens     int
	sessions   int
}

// debugLog reports frame stats through the scene logger at debug level.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	s.logger.Debug("frame",
		"update", stats.updateTime,
		"draw", stats.drawTime,
		"draws", stats.drawCount,
		"tweens", stats.tweens,
		"sessions", stats.sessions,
	)
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Only called in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("magstack debug: %s on disposed node %q", op, n.Name))
	}
}

// debugMaxChildCount is the child count above which the scene warns.
const debugMaxChildCount = 1000

func (s *Scene) debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		s.logger.Warn("node has too many children", "node", n.Name,
			"children", len(n.children), "threshold", debugMaxChildCount)
	}
}
