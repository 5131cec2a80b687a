package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"dateQuestAPI/internal/match"
	"dateQuestAPI/internal/questerr"
)

// MatchService records the external matcher's artifacts. The scorer itself
// is a black box upstream; this service only persists its output and fans
// out the new-match notification.
type MatchService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
}

func NewMatchService(db *pgxpool.Pool, notifications *NotificationService) *MatchService {
	return &MatchService{db: db, notifications: notifications}
}

// CreateMatch stores a scored pairing. A pair with a permanently blocked
// history is never re-matched.
func (s *MatchService) CreateMatch(ctx context.Context, userA, userB uuid.UUID, score int) (*match.Match, error) {
	if userA == userB {
		return nil, questerr.Validationf("cannot match a user with themselves")
	}

	var blocked int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM matches
		WHERE permanently_blocked = TRUE
		  AND ((user_a_id = $1 AND user_b_id = $2) OR (user_a_id = $2 AND user_b_id = $1))
	`, userA, userB).Scan(&blocked)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocked history: %w", err)
	}
	if blocked > 0 {
		return nil, questerr.InvalidStatef("pair has a permanently blocked history")
	}

	m := &match.Match{
		ID:                 uuid.New(),
		UserAID:            userA,
		UserBID:            userB,
		CompatibilityScore: score,
		CreatedAt:          time.Now().UTC(),
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO matches (id, user_a_id, user_b_id, compatibility_score, permanently_blocked, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`, m.ID, m.UserAID, m.UserBID, m.CompatibilityScore, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}

	if s.notifications != nil {
		s.notifications.NotifyMatchCreated(m)
	}

	return m, nil
}

// MatchesForUser lists a user's unblocked matches, newest first.
func (s *MatchService) MatchesForUser(ctx context.Context, userID uuid.UUID) ([]match.Match, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_a_id, user_b_id, compatibility_score, permanently_blocked, created_at
		FROM matches
		WHERE (user_a_id = $1 OR user_b_id = $1) AND permanently_blocked = FALSE
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []match.Match
	for rows.Next() {
		var m match.Match
		if err := rows.Scan(&m.ID, &m.UserAID, &m.UserBID, &m.CompatibilityScore, &m.PermanentlyBlocked, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
