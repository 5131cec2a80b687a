package quest

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPendingAcceptance Status = "pending_acceptance"
	StatusActive            Status = "active"
	StatusCompleted         Status = "completed"
	StatusExpired           Status = "expired"
	StatusCancelled         Status = "cancelled"
)

// Terminal reports whether the status absorbs: no transition leaves it.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired || s == StatusCancelled
}

// FinalDateLocation is the revealed meeting point. Populated either by the
// generation collaborator during the quest, or by the midpoint fallback at
// reveal time.
type FinalDateLocation struct {
	PlaceID string  `json:"placeId"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Quest is the full engagement between two matched participants. The pair is
// unordered but stored positionally as A/B for stable reference. Quests are
// never deleted; terminal statuses are the audit trail.
type Quest struct {
	ID           uuid.UUID `json:"id" db:"id"`
	MatchID      uuid.UUID `json:"matchId" db:"match_id"`
	ParticipantA uuid.UUID `json:"participantA" db:"participant_a"`
	ParticipantB uuid.UUID `json:"participantB" db:"participant_b"`
	Status       Status    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	ExpiresAt    time.Time `json:"expiresAt" db:"expires_at"`

	FinalDateLocation    *FinalDateLocation `json:"finalDateLocation,omitempty" db:"final_date_location"`
	FinalDateTime        *time.Time         `json:"finalDateTime,omitempty" db:"final_date_time"`
	FinalDateTitle       *string            `json:"finalDateTitle,omitempty" db:"final_date_title"`
	FinalDateDescription *string            `json:"finalDateDescription,omitempty" db:"final_date_description"`
	FinalDateActivity    *string            `json:"finalDateActivity,omitempty" db:"final_date_activity"`
	FinalDateAddress     *string            `json:"finalDateAddress,omitempty" db:"final_date_address"`
}

// HasParticipant reports whether the given user belongs to this quest.
func (q *Quest) HasParticipant(userID uuid.UUID) bool {
	return q.ParticipantA == userID || q.ParticipantB == userID
}

// PartnerOf returns the other half of the pair. The second return is false
// when the user is not a participant at all.
func (q *Quest) PartnerOf(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case q.ParticipantA:
		return q.ParticipantB, true
	case q.ParticipantB:
		return q.ParticipantA, true
	}
	return uuid.Nil, false
}

// Reveal is the payload returned once a completed quest discloses the final
// date. Repeated reveals return identical data.
type Reveal struct {
	Location    FinalDateLocation `json:"location"`
	DateTime    time.Time         `json:"dateTime"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Activity    string            `json:"activity"`
	Address     string            `json:"address"`
}
