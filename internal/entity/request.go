package entity

import (
	"time"

	"github.com/google/uuid"
)

// Request identifies a single submission. Created once per upload or
// folder-watch event; immutable afterwards.
type Request struct {
	ID          uuid.UUID
	SourcePath  string
	ContentHash string // hex-encoded sha256 of the submission bytes
	MediaKind   string // constants.PDF / IMAGE / TEXT
	ReceivedAt  time.Time
}
