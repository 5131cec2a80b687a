package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"dateQuestAPI/internal/challenge"
	"dateQuestAPI/internal/match"
	"dateQuestAPI/internal/participant"
	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/quest"
	"dateQuestAPI/internal/store"
)

// testEnv wires the engine services over the in-memory store with no
// generator, no safety inspector and no push provider, so every test runs
// without external collaborators unless it injects its own fakes.
type testEnv struct {
	store     *store.MemoryStore
	quests    *QuestService
	progress  *ProgressService
	approvals *ApprovalService
	reveals   *RevealService

	matchID uuid.UUID
	userA   uuid.UUID
	userB   uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := store.NewMemoryStore()

	env := &testEnv{
		store:   st,
		matchID: uuid.New(),
		userA:   uuid.New(),
		userB:   uuid.New(),
	}

	st.PutParticipant(participant.Participant{
		ID:      env.userA,
		ClerkID: "clerk_a",
		HomeLat: 42.6977,
		HomeLng: 23.3219,
		Status:  participant.StatusWaiting,
	})
	st.PutParticipant(participant.Participant{
		ID:      env.userB,
		ClerkID: "clerk_b",
		HomeLat: 42.1354,
		HomeLng: 24.7453,
		Status:  participant.StatusWaiting,
	})
	st.PutMatch(match.Match{
		ID:      env.matchID,
		UserAID: env.userA,
		UserBID: env.userB,
	})

	env.quests = NewQuestService(st, nil, nil)
	env.progress = NewProgressService(st, env.quests, nil, nil)
	env.approvals = NewApprovalService(st, env.quests, nil)
	env.reveals = NewRevealService(st, env.quests, nil)

	return env
}

func (e *testEnv) createQuest(t *testing.T) *quest.Quest {
	t.Helper()
	q, err := e.quests.CreateQuestFromMatch(context.Background(), e.matchID, e.userA)
	require.NoError(t, err)
	return q
}

func (e *testEnv) activeQuest(t *testing.T) *quest.Quest {
	t.Helper()
	q := e.createQuest(t)
	q, err := e.quests.AcceptQuest(context.Background(), q.ID, e.userB)
	require.NoError(t, err)
	require.Equal(t, quest.StatusActive, q.Status)
	return q
}

func (e *testEnv) orderedChallenges(t *testing.T, questID uuid.UUID) []challenge.Challenge {
	t.Helper()
	challenges, err := e.store.ListChallenges(context.Background(), questID)
	require.NoError(t, err)
	require.Len(t, challenges, challenge.CatalogSize)
	return challenges
}

// seedQuest writes a one-challenge quest bundle directly, bypassing
// creation, so tests can backdate timestamps for expiration scenarios.
func (e *testEnv) seedQuest(t *testing.T, status quest.Status, createdAt, expiresAt time.Time, timeLimitSeconds int) (*quest.Quest, *challenge.Challenge) {
	t.Helper()

	q := &quest.Quest{
		ID:           uuid.New(),
		MatchID:      e.matchID,
		ParticipantA: e.userA,
		ParticipantB: e.userB,
		Status:       status,
		CreatedAt:    createdAt,
		ExpiresAt:    expiresAt,
	}
	c := challenge.Challenge{
		ID:               uuid.New(),
		QuestID:          q.ID,
		OrderIndex:       0,
		Type:             challenge.TypeText,
		Prompt:           "Describe your ideal weekend.",
		TimeLimitSeconds: timeLimitSeconds,
	}
	records := []progress.Record{
		{ID: uuid.New(), ChallengeID: c.ID, QuestID: q.ID, ParticipantID: e.userA, Status: progress.StatusPending},
		{ID: uuid.New(), ChallengeID: c.ID, QuestID: q.ID, ParticipantID: e.userB, Status: progress.StatusPending},
	}

	err := e.store.CreateQuestBundle(context.Background(), q, []challenge.Challenge{c}, records)
	require.NoError(t, err)
	return q, &c
}

// submissionFor builds a valid submission matching the challenge modality.
func submissionFor(c challenge.Challenge) progress.Submission {
	switch c.Type {
	case challenge.TypeImage:
		return progress.ImageSubmission{ImageID: "img-1", ImageBase64: "aGVsbG8="}
	case challenge.TypeLocation:
		return progress.LocationSubmission{Lat: 42.7, Lng: 23.3, ProofImageID: "img-2", ProofImageBase64: "aGVsbG8="}
	default:
		return progress.TextSubmission{Text: "something honest"}
	}
}

// submitText pushes a valid text submission for the participant.
func (e *testEnv) submitText(t *testing.T, challengeID, participantID uuid.UUID) *progress.Record {
	t.Helper()
	rec, err := e.progress.Submit(context.Background(), challengeID, participantID, progress.TextSubmission{Text: "something honest"})
	require.NoError(t, err)
	require.Equal(t, progress.StatusSubmitted, rec.Status)
	return rec
}

// completeChallenge walks one challenge through submit and cross approval
// for both participants.
func (e *testEnv) completeChallenge(t *testing.T, c challenge.Challenge) {
	t.Helper()
	ctx := context.Background()

	for _, pid := range []uuid.UUID{e.userA, e.userB} {
		rec, err := e.progress.Submit(ctx, c.ID, pid, submissionFor(c))
		require.NoError(t, err)
		require.Equal(t, progress.StatusSubmitted, rec.Status)
	}

	_, err := e.approvals.Approve(ctx, c.ID, e.userA, e.userB)
	require.NoError(t, err)
	_, err = e.approvals.Approve(ctx, c.ID, e.userB, e.userA)
	require.NoError(t, err)
}

func (e *testEnv) participantStatus(t *testing.T, id uuid.UUID) participant.MatchableStatus {
	t.Helper()
	p, err := e.store.GetParticipant(context.Background(), id)
	require.NoError(t, err)
	return p.Status
}
