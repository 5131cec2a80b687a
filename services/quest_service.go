package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"dateQuestAPI/internal/challenge"
	"dateQuestAPI/internal/participant"
	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/quest"
	"dateQuestAPI/internal/questerr"
	"dateQuestAPI/internal/store"
)

// questTTL bounds the whole engagement; individual challenges carry their
// own tighter time budgets relative to creation.
const questTTL = 7 * 24 * time.Hour

type QuestService struct {
	store         store.Store
	generator     ChallengeGenerator
	notifications *NotificationService
}

func NewQuestService(st store.Store, generator ChallengeGenerator, notifications *NotificationService) *QuestService {
	return &QuestService{
		store:         st,
		generator:     generator,
		notifications: notifications,
	}
}

// ParticipantByClerkID resolves the authenticated Clerk subject to the
// internal participant row. Handlers call this once per request.
func (s *QuestService) ParticipantByClerkID(ctx context.Context, clerkID string) (*participant.Participant, error) {
	return s.store.GetParticipantByClerkID(ctx, clerkID)
}

// CreateQuestFromMatch promotes a match into a quest with a generated
// catalog and a pending progress record per participant per challenge,
// written all-or-nothing. A permanently blocked match or an existing live
// quest for the pair rejects creation before anything is written.
func (s *QuestService) CreateQuestFromMatch(ctx context.Context, matchID, requesterID uuid.UUID) (*quest.Quest, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.Involves(requesterID) {
		return nil, questerr.Forbiddenf("participant %s is not part of match %s", requesterID, matchID)
	}
	if m.PermanentlyBlocked {
		return nil, questerr.InvalidStatef("match %s is permanently blocked", matchID)
	}

	if _, err := s.store.ActiveQuestForMatch(ctx, matchID); err == nil {
		return nil, questerr.InvalidStatef("match %s already has a live quest", matchID)
	} else if !errors.Is(err, questerr.ErrNotFound) {
		return nil, err
	}

	definitions := s.catalogFor(ctx, m.UserAID, m.UserBID)

	now := time.Now().UTC()
	q := &quest.Quest{
		ID:           uuid.New(),
		MatchID:      m.ID,
		ParticipantA: m.UserAID,
		ParticipantB: m.UserBID,
		Status:       quest.StatusPendingAcceptance,
		CreatedAt:    now,
		ExpiresAt:    now.Add(questTTL),
	}

	challenges := make([]challenge.Challenge, 0, len(definitions))
	records := make([]progress.Record, 0, 2*len(definitions))
	for i, def := range definitions {
		c := challenge.Challenge{
			ID:               uuid.New(),
			QuestID:          q.ID,
			OrderIndex:       i,
			Type:             def.Type,
			Prompt:           def.Prompt,
			TimeLimitSeconds: def.TimeLimitSeconds,
		}
		challenges = append(challenges, c)

		for _, pid := range []uuid.UUID{q.ParticipantA, q.ParticipantB} {
			records = append(records, progress.Record{
				ID:            uuid.New(),
				ChallengeID:   c.ID,
				QuestID:       q.ID,
				ParticipantID: pid,
				Status:        progress.StatusPending,
			})
		}
	}

	if err := s.store.CreateQuestBundle(ctx, q, challenges, records); err != nil {
		return nil, fmt.Errorf("failed to create quest: %w", err)
	}

	for _, pid := range []uuid.UUID{q.ParticipantA, q.ParticipantB} {
		if err := s.store.SetParticipantStatus(ctx, pid, participant.StatusQuesting); err != nil {
			log.Printf("QuestService: could not mark participant %s questing: %v", pid, err)
		}
	}

	if s.notifications != nil {
		s.notifications.NotifyQuestCreated(q, requesterID)
	}

	return q, nil
}

// catalogFor asks the generator for a personalized catalog and falls back to
// the default one on any failure, so creation never hard-fails here.
func (s *QuestService) catalogFor(ctx context.Context, userA, userB uuid.UUID) []challenge.Definition {
	if s.generator == nil {
		return DefaultCatalog()
	}

	summaryA, err := s.store.GetProfileSummary(ctx, userA)
	if err != nil {
		log.Printf("QuestService: profile summary for %s unavailable: %v", userA, err)
		return DefaultCatalog()
	}
	summaryB, err := s.store.GetProfileSummary(ctx, userB)
	if err != nil {
		log.Printf("QuestService: profile summary for %s unavailable: %v", userB, err)
		return DefaultCatalog()
	}

	definitions, err := s.generator.GenerateCatalog(ctx, summaryA, summaryB)
	if err != nil {
		log.Printf("QuestService: catalog generation failed, using default: %v", err)
		return DefaultCatalog()
	}
	return definitions
}

// AcceptQuest flips a pending quest to active. Either participant may
// accept; the promoting side is not tracked.
func (s *QuestService) AcceptQuest(ctx context.Context, questID, requesterID uuid.UUID) (*quest.Quest, error) {
	q, err := s.RefreshQuest(ctx, questID)
	if err != nil {
		return nil, err
	}
	if !q.HasParticipant(requesterID) {
		return nil, questerr.Forbiddenf("participant %s is not part of quest %s", requesterID, questID)
	}

	ok, err := s.store.UpdateQuestStatus(ctx, questID, quest.StatusPendingAcceptance, quest.StatusActive)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, questerr.InvalidStatef("quest %s is not awaiting acceptance", questID)
	}

	return s.store.GetQuest(ctx, questID)
}

// CancelQuest terminates a live quest, permanently blocks the match so the
// pair is never re-matched, and returns both participants to the pool.
func (s *QuestService) CancelQuest(ctx context.Context, questID, requesterID uuid.UUID) error {
	q, err := s.RefreshQuest(ctx, questID)
	if err != nil {
		return err
	}
	if !q.HasParticipant(requesterID) {
		return questerr.Forbiddenf("participant %s is not part of quest %s", requesterID, questID)
	}
	if q.Status.Terminal() {
		return questerr.InvalidStatef("quest %s is already %s", questID, q.Status)
	}

	ok, err := s.store.UpdateQuestStatus(ctx, questID, q.Status, quest.StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return questerr.InvalidStatef("quest %s changed state during cancel", questID)
	}

	if err := s.store.BlockMatch(ctx, q.MatchID); err != nil {
		log.Printf("QuestService: could not block match %s after cancel: %v", q.MatchID, err)
	}
	s.releaseParticipants(ctx, q)

	return nil
}

func (s *QuestService) releaseParticipants(ctx context.Context, q *quest.Quest) {
	for _, pid := range []uuid.UUID{q.ParticipantA, q.ParticipantB} {
		if err := s.store.SetParticipantStatus(ctx, pid, participant.StatusWaiting); err != nil {
			log.Printf("QuestService: could not release participant %s: %v", pid, err)
		}
	}
}

// RefreshQuest lazily expires an active quest whose deadline has passed,
// then returns the current row. Idempotent: with no boundary crossing it is
// a pure read.
func (s *QuestService) RefreshQuest(ctx context.Context, questID uuid.UUID) (*quest.Quest, error) {
	q, err := s.store.GetQuest(ctx, questID)
	if err != nil {
		return nil, err
	}

	if q.Status == quest.StatusActive && time.Now().UTC().After(q.ExpiresAt) {
		if _, err := s.store.UpdateQuestStatus(ctx, questID, quest.StatusActive, quest.StatusExpired); err != nil {
			return nil, err
		}
		return s.store.GetQuest(ctx, questID)
	}

	return q, nil
}
