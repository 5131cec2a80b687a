package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"dateQuestAPI/internal/match"
	"dateQuestAPI/internal/notification"
	"dateQuestAPI/internal/quest"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationService pushes match and quest events to participants.
// Everything here is fire-and-forget from the engine's perspective: a failed
// push is logged and never fails the triggering operation.
type NotificationService struct {
	db           *pgxpool.Pool
	pushProvider PushNotificationProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.pushProvider = provider
}

func (s *NotificationService) RegisterDevice(ctx context.Context, participantID uuid.UUID, token, platform string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO device_tokens (id, participant_id, token, platform, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token) DO UPDATE SET participant_id = $2, platform = $4
	`, uuid.New(), participantID, token, platform, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) tokensFor(ctx context.Context, participantID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, participant_id, token, platform, created_at
		FROM device_tokens
		WHERE participant_id = $1
	`, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.ID, &t.ParticipantID, &t.Token, &t.Platform, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (s *NotificationService) push(participantID uuid.UUID, title, body string, data map[string]any) {
	if s.pushProvider == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		tokens, err := s.tokensFor(ctx, participantID)
		if err != nil {
			log.Printf("Notification: could not load tokens for %s: %v", participantID, err)
			return
		}
		if err := s.pushProvider.SendPush(ctx, tokens, title, body, data); err != nil {
			log.Printf("Notification: push to %s failed: %v", participantID, err)
		}
	}()
}

// NotifyMatchCreated tells both sides the matcher paired them.
func (s *NotificationService) NotifyMatchCreated(m *match.Match) {
	data := map[string]any{"type": "match_created", "matchId": m.ID.String()}
	s.push(m.UserAID, "You have a new match!", "Someone special is waiting. Start your quest together.", data)
	s.push(m.UserBID, "You have a new match!", "Someone special is waiting. Start your quest together.", data)
}

// NotifyQuestCreated tells the partner a quest invitation is waiting.
func (s *NotificationService) NotifyQuestCreated(q *quest.Quest, initiatorID uuid.UUID) {
	partner, ok := q.PartnerOf(initiatorID)
	if !ok {
		return
	}
	s.push(partner, "Quest invitation", "Your match started a quest. Accept to begin challenge one.",
		map[string]any{"type": "quest_created", "questId": q.ID.String()})
}

// NotifyPartnerSubmitted nudges the partner to review a fresh submission.
func (s *NotificationService) NotifyPartnerSubmitted(q *quest.Quest, submitterID, challengeID uuid.UUID) {
	partner, ok := q.PartnerOf(submitterID)
	if !ok {
		return
	}
	s.push(partner, "Your match completed a challenge", "Review their submission to keep the quest moving.",
		map[string]any{"type": "challenge_submitted", "questId": q.ID.String(), "challengeId": challengeID.String()})
}

// NotifyQuestCompleted tells both sides the final date is ready to reveal.
func (s *NotificationService) NotifyQuestCompleted(q *quest.Quest) {
	data := map[string]any{"type": "quest_completed", "questId": q.ID.String()}
	s.push(q.ParticipantA, "Quest complete!", "Every challenge is approved. Reveal your final date.", data)
	s.push(q.ParticipantB, "Quest complete!", "Every challenge is approved. Reveal your final date.", data)
}
