package domain

import "time"

// Conflict is one detected scheduling violation. Conflicts are
// regenerated by detection passes rather than edited in place, so row
// identity is not stable across passes.
type Conflict struct {
	ID            string
	Type          ConflictType
	TodoID        string
	RelatedTodoID *string
	Description   string
	Severity      ConflictSeverity
	Resolved      bool
	CreatedAt     time.Time
}
