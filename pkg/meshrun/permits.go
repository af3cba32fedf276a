package meshrun

import (
	"strings"

	"github.com/google/uuid"
)

// newInstructionID returns a fresh outbound instruction identifier:
// a 32-character lowercase hex string with no dashes.
func newInstructionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// permitSession tracks one worker's flow-control budget. All
// arithmetic here runs inside a single outbound-stream goroutine, so
// no locking is needed.
type permitSession struct {
	permits   int64
	batchSize int64
}

func newPermitSession(batchSize int64) *permitSession {
	return &permitSession{permits: 2 * batchSize, batchSize: batchSize}
}

// consumeOne accounts for one response having been emitted. It
// returns the number of permits to grant with a FlowControl
// instruction, or 0 if no replenish is due yet.
func (s *permitSession) consumeOne() (replenishBy int64) {
	s.permits--
	if s.permits <= s.batchSize {
		s.permits += s.batchSize
		return s.batchSize
	}
	return 0
}
