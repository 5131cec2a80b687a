package quest

import (
	"dateQuestAPI/internal/challenge"
	"dateQuestAPI/internal/progress"
)

// Display states for a challenge on the board. Stored record statuses pass
// through; "active" and "locked" are computed projections only.
const (
	DisplayActive = "active"
	DisplayLocked = "locked"
)

// ChallengeView is one catalog entry as one participant sees it: their own
// record, their partner's, and the computed display state.
type ChallengeView struct {
	Challenge challenge.Challenge `json:"challenge"`
	Mine      progress.Record     `json:"mine"`
	Partner   progress.Record     `json:"partner"`
	IsCurrent bool                `json:"isCurrent"`
	State     string              `json:"state"`
}

// Board is the full quest projection returned to a participant.
type Board struct {
	Quest              Quest           `json:"quest"`
	Challenges         []ChallengeView `json:"challenges"`
	MyProgressPct      int             `json:"myProgressPct"`
	PartnerProgressPct int             `json:"partnerProgressPct"`
}
