package participant

import (
	"time"

	"github.com/google/uuid"
)

type MatchableStatus string

const (
	// StatusWaiting means the user is in the matchmaking pool.
	StatusWaiting MatchableStatus = "waiting"
	// StatusQuesting means the user has a live quest and is out of the pool.
	StatusQuesting MatchableStatus = "questing"
)

type Participant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ClerkID   string    `json:"clerkId" db:"clerk_id"`
	Username  string    `json:"username" db:"username"`
	FirstName string    `json:"firstName" db:"first_name"`
	ImageURL  string    `json:"imageUrl,omitempty" db:"image_url"`

	// Home coordinates feed the reveal midpoint fallback.
	HomeLat float64 `json:"homeLat" db:"home_lat"`
	HomeLng float64 `json:"homeLng" db:"home_lng"`

	Status    MatchableStatus `json:"status" db:"status"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProfileSummary is what the challenge-generation collaborator sees: a
// compact view of a user's stated preferences, never the raw profile.
type ProfileSummary struct {
	Interests   []string `json:"interests"`
	Values      []string `json:"values"`
	MustHaves   []string `json:"mustHaves"`
	NiceToHaves []string `json:"niceToHaves"`
}
