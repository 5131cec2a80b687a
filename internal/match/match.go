package match

import (
	"time"

	"github.com/google/uuid"
)

// Match is the artifact the external matching scorer leaves behind once it
// pairs two users. The engine only reads it: eligibility for quest creation
// and the permanent block set on cancellation.
type Match struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	UserAID            uuid.UUID `json:"userAId" db:"user_a_id"`
	UserBID            uuid.UUID `json:"userBId" db:"user_b_id"`
	CompatibilityScore int       `json:"compatibilityScore" db:"compatibility_score"`

	// PermanentlyBlocked is one-way: set true when either side cancels the
	// quest, and never cleared. A blocked pair cannot be matched again.
	PermanentlyBlocked bool `json:"permanentlyBlocked" db:"permanently_blocked"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Involves reports whether the given user is one of the matched pair.
func (m *Match) Involves(userID uuid.UUID) bool {
	return m.UserAID == userID || m.UserBID == userID
}
