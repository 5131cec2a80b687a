package progress

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	// StatusLocked is a presentation projection for challenges after the
	// current one. It is never stored; GetRecord synthesizes it when a row
	// is unexpectedly absent.
	StatusLocked Status = "locked"

	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
)

// Record tracks one participant's submission lifecycle for one challenge.
// Exactly one record exists per (challenge, participant); both are created
// pending in the quest-creation batch.
type Record struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ChallengeID   uuid.UUID `json:"challengeId" db:"challenge_id"`
	QuestID       uuid.UUID `json:"questId" db:"quest_id"`
	ParticipantID uuid.UUID `json:"participantId" db:"participant_id"`
	Status        Status    `json:"status" db:"status"`

	SubmissionText        *string    `json:"submissionText,omitempty" db:"submission_text"`
	SubmissionImageID     *string    `json:"submissionImageId,omitempty" db:"submission_image_id"`
	SubmissionImageBase64 *string    `json:"-" db:"submission_image_base64"`
	SubmittedAt           *time.Time `json:"submittedAt,omitempty" db:"submitted_at"`

	// FacelessCheckPassed predates the SafeSearch inspector. Retained for
	// row compatibility; never written by current code.
	FacelessCheckPassed *bool `json:"-" db:"faceless_check_passed"`
}

// Locked returns the synthetic default record for a (challenge, participant)
// pair with no stored row. Batch creation should make this unreachable, but
// readers tolerate absence.
func Locked(challengeID, participantID uuid.UUID) *Record {
	return &Record{
		ChallengeID:   challengeID,
		ParticipantID: participantID,
		Status:        StatusLocked,
	}
}
