package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/quest"
	"dateQuestAPI/internal/questerr"
)

type fakeInspector struct {
	result *SafetyResult
	err    error
	calls  int
}

func (f *fakeInspector) InspectImage(_ context.Context, _ string) (*SafetyResult, error) {
	f.calls++
	return f.result, f.err
}

func TestSubmitText(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	q := env.activeQuest(t)
	c := env.orderedChallenges(t, q.ID)[0]

	rec := env.submitText(t, c.ID, env.userA)
	assert.Equal(t, progress.StatusSubmitted, rec.Status)
	require.NotNil(t, rec.SubmissionText)
	assert.NotNil(t, rec.SubmittedAt)

	// The partner's record is untouched.
	partnerRec, err := env.store.GetRecord(ctx, c.ID, env.userB)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusPending, partnerRec.Status)
}

func TestSubmitTwiceRejected(t *testing.T) {
	env := newTestEnv(t)

	q := env.activeQuest(t)
	c := env.orderedChallenges(t, q.ID)[0]

	env.submitText(t, c.ID, env.userA)
	_, err := env.progress.Submit(context.Background(), c.ID, env.userA, progress.TextSubmission{Text: "second try"})
	assert.ErrorIs(t, err, questerr.ErrAlreadySubmitted)
}

func TestSubmitWrongModalityRejected(t *testing.T) {
	env := newTestEnv(t)

	q := env.activeQuest(t)
	c := env.orderedChallenges(t, q.ID)[0] // text challenge

	_, err := env.progress.Submit(context.Background(), c.ID, env.userA, progress.ImageSubmission{ImageID: "x", ImageBase64: "aGVsbG8="})
	assert.ErrorIs(t, err, questerr.ErrValidation)

	// The failed attempt stored nothing.
	rec, getErr := env.store.GetRecord(context.Background(), c.ID, env.userA)
	require.NoError(t, getErr)
	assert.Equal(t, progress.StatusPending, rec.Status)
}

func TestSubmitInvalidPayloadRejected(t *testing.T) {
	env := newTestEnv(t)

	q := env.activeQuest(t)
	c := env.orderedChallenges(t, q.ID)[0]

	_, err := env.progress.Submit(context.Background(), c.ID, env.userA, progress.TextSubmission{})
	assert.ErrorIs(t, err, questerr.ErrValidation)
}

func TestSubmitByOutsiderForbidden(t *testing.T) {
	env := newTestEnv(t)

	q := env.activeQuest(t)
	c := env.orderedChallenges(t, q.ID)[0]

	_, err := env.progress.Submit(context.Background(), c.ID, uuid.New(), progress.TextSubmission{Text: "hi"})
	assert.ErrorIs(t, err, questerr.ErrForbidden)
}

func TestSubmitBeforeAcceptanceRejected(t *testing.T) {
	env := newTestEnv(t)

	q := env.createQuest(t)
	c := env.orderedChallenges(t, q.ID)[0]

	_, err := env.progress.Submit(context.Background(), c.ID, env.userA, progress.TextSubmission{Text: "hi"})
	assert.ErrorIs(t, err, questerr.ErrInvalidState)
}

func TestSubmitPastChallengeDeadlineExpires(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Quest still live, but the challenge's own budget ran out two days ago.
	created := time.Now().UTC().Add(-3 * 24 * time.Hour)
	_, c := env.seedQuest(t, quest.StatusActive, created, created.Add(7*24*time.Hour), 86400)

	_, err := env.progress.Submit(ctx, c.ID, env.userA, progress.TextSubmission{Text: "too late"})
	assert.ErrorIs(t, err, questerr.ErrExpired)

	rec, err := env.store.GetRecord(ctx, c.ID, env.userA)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusExpired, rec.Status)
	assert.Nil(t, rec.SubmissionText)

	// A second attempt reports the same terminal state.
	_, err = env.progress.Submit(ctx, c.ID, env.userA, progress.TextSubmission{Text: "still late"})
	assert.ErrorIs(t, err, questerr.ErrExpired)
}

func TestSubmitOnExpiredQuest(t *testing.T) {
	env := newTestEnv(t)

	created := time.Now().UTC().Add(-8 * 24 * time.Hour)
	_, c := env.seedQuest(t, quest.StatusActive, created, created.Add(7*24*time.Hour), 30*24*3600)

	_, err := env.progress.Submit(context.Background(), c.ID, env.userA, progress.TextSubmission{Text: "hi"})
	assert.ErrorIs(t, err, questerr.ErrExpired)
}

func TestSafetyGateBlocksConfidentFlag(t *testing.T) {
	env := newTestEnv(t)
	inspector := &fakeInspector{result: &SafetyResult{Flagged: true, Confidence: 95}}
	env.progress = NewProgressService(env.store, env.quests, inspector, nil)

	q := env.activeQuest(t)
	challenges := env.orderedChallenges(t, q.ID)
	env.completeChallenge(t, challenges[0])
	env.completeChallenge(t, challenges[1])
	c := challenges[2] // image challenge

	_, err := env.progress.Submit(context.Background(), c.ID, env.userA, progress.ImageSubmission{ImageID: "img", ImageBase64: "aGVsbG8="})
	assert.ErrorIs(t, err, questerr.ErrValidation)
	assert.ErrorIs(t, err, questerr.ErrBlockedContent)
	assert.Equal(t, 1, inspector.calls)

	rec, getErr := env.store.GetRecord(context.Background(), c.ID, env.userA)
	require.NoError(t, getErr)
	assert.Equal(t, progress.StatusPending, rec.Status)
}

func TestSafetyGateAllowsLowConfidenceFlag(t *testing.T) {
	env := newTestEnv(t)
	inspector := &fakeInspector{result: &SafetyResult{Flagged: true, Confidence: 75}}
	env.progress = NewProgressService(env.store, env.quests, inspector, nil)

	q := env.activeQuest(t)
	challenges := env.orderedChallenges(t, q.ID)
	env.completeChallenge(t, challenges[0])
	env.completeChallenge(t, challenges[1])

	rec, err := env.progress.Submit(context.Background(), challenges[2].ID, env.userA, progress.ImageSubmission{ImageID: "img", ImageBase64: "aGVsbG8="})
	require.NoError(t, err)
	assert.Equal(t, progress.StatusSubmitted, rec.Status)
}

func TestSafetyGateFailsOpenOnInspectorError(t *testing.T) {
	env := newTestEnv(t)
	inspector := &fakeInspector{err: errors.New("vision unavailable")}
	env.progress = NewProgressService(env.store, env.quests, inspector, nil)

	q := env.activeQuest(t)
	challenges := env.orderedChallenges(t, q.ID)
	env.completeChallenge(t, challenges[0])
	env.completeChallenge(t, challenges[1])

	rec, err := env.progress.Submit(context.Background(), challenges[2].ID, env.userA, progress.ImageSubmission{ImageID: "img", ImageBase64: "aGVsbG8="})
	require.NoError(t, err)
	assert.Equal(t, progress.StatusSubmitted, rec.Status)
}

func TestLocationSubmissionStoresCheckIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	q := env.activeQuest(t)
	challenges := env.orderedChallenges(t, q.ID)
	env.completeChallenge(t, challenges[0])
	env.completeChallenge(t, challenges[1])
	env.completeChallenge(t, challenges[2])
	c := challenges[3] // location challenge

	rec, err := env.progress.Submit(ctx, c.ID, env.userA, progress.LocationSubmission{
		Lat: 42.7, Lng: 23.3, ProofImageID: "proof", ProofImageBase64: "aGVsbG8=",
	})
	require.NoError(t, err)
	require.NotNil(t, rec.SubmissionText)
	assert.Contains(t, *rec.SubmissionText, "checked in at")
	require.NotNil(t, rec.SubmissionImageID)
	assert.Equal(t, "proof", *rec.SubmissionImageID)
}

func TestSubmitOutOfOrderRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	q := env.activeQuest(t)
	challenges := env.orderedChallenges(t, q.ID)

	current, err := env.progress.IsCurrent(ctx, challenges[1].ID, env.userA)
	require.NoError(t, err)
	assert.False(t, current)

	_, err = env.progress.Submit(ctx, challenges[1].ID, env.userA, progress.TextSubmission{Text: "skipping ahead"})
	assert.ErrorIs(t, err, questerr.ErrInvalidState)

	rec, err := env.store.GetRecord(ctx, challenges[1].ID, env.userA)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusPending, rec.Status)
	assert.Nil(t, rec.SubmissionText)

	env.completeChallenge(t, challenges[0])
	env.submitText(t, challenges[1].ID, env.userA)
}

func TestSubmitWaitsForPartnerApproval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	q := env.activeQuest(t)
	challenges := env.orderedChallenges(t, q.ID)

	env.submitText(t, challenges[0].ID, env.userA)
	env.submitText(t, challenges[0].ID, env.userB)

	// Only A's record is approved. The pair stays on the first challenge
	// until B's record is approved too.
	_, err := env.approvals.Approve(ctx, challenges[0].ID, env.userA, env.userB)
	require.NoError(t, err)

	_, err = env.progress.Submit(ctx, challenges[1].ID, env.userA, progress.TextSubmission{Text: "not yet"})
	assert.ErrorIs(t, err, questerr.ErrInvalidState)

	_, err = env.approvals.Approve(ctx, challenges[0].ID, env.userB, env.userA)
	require.NoError(t, err)

	env.submitText(t, challenges[1].ID, env.userA)
}

func TestIsCurrentFollowsApprovals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	q := env.activeQuest(t)
	challenges := env.orderedChallenges(t, q.ID)

	current, err := env.progress.IsCurrent(ctx, challenges[0].ID, env.userA)
	require.NoError(t, err)
	assert.True(t, current)

	current, err = env.progress.IsCurrent(ctx, challenges[1].ID, env.userA)
	require.NoError(t, err)
	assert.False(t, current)

	env.completeChallenge(t, challenges[0])

	current, err = env.progress.IsCurrent(ctx, challenges[0].ID, env.userA)
	require.NoError(t, err)
	assert.False(t, current)

	current, err = env.progress.IsCurrent(ctx, challenges[1].ID, env.userA)
	require.NoError(t, err)
	assert.True(t, current)
}

func TestQuestBoard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	q := env.activeQuest(t)
	challenges := env.orderedChallenges(t, q.ID)
	env.completeChallenge(t, challenges[0])
	env.submitText(t, challenges[1].ID, env.userA)

	board, err := env.progress.QuestBoard(ctx, env.userA)
	require.NoError(t, err)
	require.Len(t, board.Challenges, len(challenges))

	first := board.Challenges[0]
	assert.Equal(t, progress.StatusApproved, first.Mine.Status)
	assert.Equal(t, progress.StatusApproved, first.Partner.Status)
	assert.False(t, first.IsCurrent)

	second := board.Challenges[1]
	assert.Equal(t, progress.StatusSubmitted, second.Mine.Status)
	assert.Equal(t, progress.StatusPending, second.Partner.Status)
	assert.True(t, second.IsCurrent)
	assert.Equal(t, string(progress.StatusSubmitted), second.State)

	third := board.Challenges[2]
	assert.False(t, third.IsCurrent)
	assert.Equal(t, quest.DisplayLocked, third.State)

	assert.Equal(t, 20, board.MyProgressPct)
	assert.Equal(t, 20, board.PartnerProgressPct)
}
