package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dateQuestAPI/internal/participant"
	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/quest"
	"dateQuestAPI/internal/questerr"
	"dateQuestAPI/utils"
)

func TestIsComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	q := env.activeQuest(t)
	challenges := env.orderedChallenges(t, q.ID)

	complete, err := env.reveals.IsComplete(ctx, q.ID)
	require.NoError(t, err)
	assert.False(t, complete)

	for _, c := range challenges[:len(challenges)-1] {
		env.completeChallenge(t, c)
	}
	complete, err = env.reveals.IsComplete(ctx, q.ID)
	require.NoError(t, err)
	assert.False(t, complete)

	// One side of the last challenge approved is still incomplete.
	last := challenges[len(challenges)-1]
	env.submitText(t, last.ID, env.userA)
	_, err = env.approvals.Approve(ctx, last.ID, env.userA, env.userB)
	require.NoError(t, err)
	complete, err = env.reveals.IsComplete(ctx, q.ID)
	require.NoError(t, err)
	assert.False(t, complete)

	env.submitText(t, last.ID, env.userB)
	_, err = env.approvals.Approve(ctx, last.ID, env.userB, env.userA)
	require.NoError(t, err)
	complete, err = env.reveals.IsComplete(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestRevealRequiresCompletion(t *testing.T) {
	env := newTestEnv(t)

	q := env.activeQuest(t)
	_, err := env.reveals.Reveal(context.Background(), q.ID, env.userA)
	assert.ErrorIs(t, err, questerr.ErrInvalidState)
}

func completeQuest(t *testing.T, env *testEnv) *quest.Quest {
	t.Helper()
	q := env.activeQuest(t)
	for _, c := range env.orderedChallenges(t, q.ID) {
		env.completeChallenge(t, c)
	}
	return q
}

func TestRevealCompletesQuestAndFreesParticipants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	q := completeQuest(t, env)

	r, err := env.reveals.Reveal(ctx, q.ID, env.userA)
	require.NoError(t, err)

	reloaded, err := env.store.GetQuest(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quest.StatusCompleted, reloaded.Status)
	assert.Equal(t, participant.StatusWaiting, env.participantStatus(t, env.userA))
	assert.Equal(t, participant.StatusWaiting, env.participantStatus(t, env.userB))

	// Fallback payload: midpoint of both home coordinates, 19:00 UTC,
	// three days out.
	wantLat, wantLng := utils.Midpoint(42.6977, 23.3219, 42.1354, 24.7453)
	assert.InDelta(t, wantLat, r.Location.Lat, 1e-9)
	assert.InDelta(t, wantLng, r.Location.Lng, 1e-9)
	assert.Equal(t, 19, r.DateTime.Hour())
	assert.Equal(t, time.UTC, r.DateTime.Location())
	assert.True(t, r.DateTime.After(time.Now().UTC()))
	assert.NotEmpty(t, r.Title)
	assert.NotEmpty(t, r.Activity)
}

func TestRevealIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	q := completeQuest(t, env)

	first, err := env.reveals.Reveal(ctx, q.ID, env.userA)
	require.NoError(t, err)

	second, err := env.reveals.Reveal(ctx, q.ID, env.userB)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRevealForbiddenForOutsider(t *testing.T) {
	env := newTestEnv(t)

	q := completeQuest(t, env)
	_, err := env.reveals.Reveal(context.Background(), q.ID, uuid.New())
	assert.ErrorIs(t, err, questerr.ErrForbidden)
}

func TestRevealPrefersStoredPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	q := completeQuest(t, env)

	stored := &quest.Reveal{
		Location:    quest.FinalDateLocation{PlaceID: "place-1", Lat: 42.5, Lng: 24.0},
		DateTime:    time.Date(2026, 9, 12, 18, 30, 0, 0, time.UTC),
		Title:       "Jazz and dumplings",
		Description: "A generated plan.",
		Activity:    "Live music",
		Address:     "12 Vitosha Blvd",
	}
	written, err := env.store.SetQuestReveal(ctx, q.ID, stored)
	require.NoError(t, err)
	require.True(t, written)

	r, err := env.reveals.Reveal(ctx, q.ID, env.userA)
	require.NoError(t, err)
	assert.Equal(t, *stored, *r)
}

func TestRevealOnExpiredQuestRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Every challenge was approved, but the quest window closed a day ago.
	created := time.Now().UTC().Add(-8 * 24 * time.Hour)
	q, c := env.seedQuest(t, quest.StatusActive, created, created.Add(7*24*time.Hour), 30*24*3600)

	for _, pid := range []uuid.UUID{env.userA, env.userB} {
		rec, err := env.store.GetRecord(ctx, c.ID, pid)
		require.NoError(t, err)
		ok, err := env.store.UpdateRecordStatus(ctx, rec.ID, progress.StatusPending, progress.StatusSubmitted)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = env.store.UpdateRecordStatus(ctx, rec.ID, progress.StatusSubmitted, progress.StatusApproved)
		require.NoError(t, err)
		require.True(t, ok)
	}

	complete, err := env.reveals.IsComplete(ctx, q.ID)
	require.NoError(t, err)
	require.True(t, complete)

	_, err = env.reveals.Reveal(ctx, q.ID, env.userA)
	assert.ErrorIs(t, err, questerr.ErrExpired)

	reloaded, err := env.store.GetQuest(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quest.StatusExpired, reloaded.Status)
}

func TestRevealOnCancelledQuestRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	q := env.activeQuest(t)
	require.NoError(t, env.quests.CancelQuest(ctx, q.ID, env.userA))

	_, err := env.reveals.Reveal(ctx, q.ID, env.userA)
	assert.ErrorIs(t, err, questerr.ErrInvalidState)
}
