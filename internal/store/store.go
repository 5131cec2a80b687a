package store

import (
	"context"

	"github.com/google/uuid"

	"dateQuestAPI/internal/challenge"
	"dateQuestAPI/internal/match"
	"dateQuestAPI/internal/participant"
	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/quest"
)

// Store is the persistence boundary for the quest engine. One implementation
// runs on pgx, one in memory for tests; both are injected into services by
// reference, never held as ambient singletons.
//
// The engine relies on per-row atomicity only. Conditional updates (the
// methods returning a bool) compare-and-set against an expected status in a
// single statement, which is the serialization point for every
// check-then-act in the ledger. Multi-row reads may be stale; callers
// tolerate that per the concurrency model.
type Store interface {
	// Participants
	GetParticipant(ctx context.Context, id uuid.UUID) (*participant.Participant, error)
	GetParticipantByClerkID(ctx context.Context, clerkID string) (*participant.Participant, error)
	SetParticipantStatus(ctx context.Context, id uuid.UUID, status participant.MatchableStatus) error
	GetProfileSummary(ctx context.Context, id uuid.UUID) (*participant.ProfileSummary, error)

	// Matches
	GetMatch(ctx context.Context, id uuid.UUID) (*match.Match, error)
	BlockMatch(ctx context.Context, id uuid.UUID) error

	// Quests
	// CreateQuestBundle writes the quest, its full catalog and every
	// progress record in one transaction: all or nothing.
	CreateQuestBundle(ctx context.Context, q *quest.Quest, challenges []challenge.Challenge, records []progress.Record) error
	GetQuest(ctx context.Context, id uuid.UUID) (*quest.Quest, error)
	ActiveQuestForUser(ctx context.Context, userID uuid.UUID) (*quest.Quest, error)
	ActiveQuestForMatch(ctx context.Context, matchID uuid.UUID) (*quest.Quest, error)
	UpdateQuestStatus(ctx context.Context, id uuid.UUID, from, to quest.Status) (bool, error)
	// SetQuestReveal persists the final date payload only when none exists
	// yet; returns false when a prior reveal already won.
	SetQuestReveal(ctx context.Context, id uuid.UUID, r *quest.Reveal) (bool, error)

	// Challenges
	GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error)
	ListChallenges(ctx context.Context, questID uuid.UUID) ([]challenge.Challenge, error)
	// SetChallengeInsights writes the insight JSON only when the column is
	// still empty; returns false when an insight is already present.
	SetChallengeInsights(ctx context.Context, id uuid.UUID, insightsJSON string) (bool, error)

	// Progress records
	GetRecord(ctx context.Context, challengeID, participantID uuid.UUID) (*progress.Record, error)
	// ListRecordsForParticipant returns the participant's records ordered by
	// challenge order index.
	ListRecordsForParticipant(ctx context.Context, questID, participantID uuid.UUID) ([]progress.Record, error)
	ListRecordsForChallenge(ctx context.Context, challengeID uuid.UUID) ([]progress.Record, error)
	ListRecordsForQuest(ctx context.Context, questID uuid.UUID) ([]progress.Record, error)
	// UpdateRecordStatus flips status only when the row still holds the
	// expected one.
	UpdateRecordStatus(ctx context.Context, recordID uuid.UUID, from, to progress.Status) (bool, error)
	// AttachSubmission moves a pending record to submitted with its payload
	// in one statement; returns false when the record was no longer pending.
	AttachSubmission(ctx context.Context, rec *progress.Record) (bool, error)
}
