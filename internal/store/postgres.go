package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dateQuestAPI/internal/challenge"
	"dateQuestAPI/internal/match"
	"dateQuestAPI/internal/participant"
	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/quest"
	"dateQuestAPI/internal/questerr"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetParticipant(ctx context.Context, id uuid.UUID) (*participant.Participant, error) {
	query := `
	SELECT id, clerk_id, username, first_name, image_url, home_lat, home_lng, status, created_at, updated_at
	FROM participants
	WHERE id = $1
	`

	p := &participant.Participant{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.ClerkID,
		&p.Username,
		&p.FirstName,
		&p.ImageURL,
		&p.HomeLat,
		&p.HomeLng,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, questerr.NotFoundf("participant %s", id)
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	return p, nil
}

func (s *PostgresStore) GetParticipantByClerkID(ctx context.Context, clerkID string) (*participant.Participant, error) {
	query := `
	SELECT id, clerk_id, username, first_name, image_url, home_lat, home_lng, status, created_at, updated_at
	FROM participants
	WHERE clerk_id = $1
	`

	p := &participant.Participant{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&p.ID,
		&p.ClerkID,
		&p.Username,
		&p.FirstName,
		&p.ImageURL,
		&p.HomeLat,
		&p.HomeLng,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, questerr.NotFoundf("participant with clerk_id %s", clerkID)
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	return p, nil
}

func (s *PostgresStore) SetParticipantStatus(ctx context.Context, id uuid.UUID, status participant.MatchableStatus) error {
	tag, err := s.db.Exec(ctx, `UPDATE participants SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set participant status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return questerr.NotFoundf("participant %s", id)
	}
	return nil
}

func (s *PostgresStore) GetProfileSummary(ctx context.Context, id uuid.UUID) (*participant.ProfileSummary, error) {
	query := `
	SELECT COALESCE(interests, '{}'), COALESCE(values, '{}'), COALESCE(must_haves, '{}'), COALESCE(nice_to_haves, '{}')
	FROM participant_profiles
	WHERE participant_id = $1
	`

	ps := &participant.ProfileSummary{}
	err := s.db.QueryRow(ctx, query, id).Scan(&ps.Interests, &ps.Values, &ps.MustHaves, &ps.NiceToHaves)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Summary-less users still get a quest; the generator falls
			// back to the default catalog anyway.
			return ps, nil
		}
		return nil, fmt.Errorf("failed to get profile summary: %w", err)
	}

	return ps, nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, id uuid.UUID) (*match.Match, error) {
	query := `
	SELECT id, user_a_id, user_b_id, compatibility_score, permanently_blocked, created_at
	FROM matches
	WHERE id = $1
	`

	m := &match.Match{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.UserAID,
		&m.UserBID,
		&m.CompatibilityScore,
		&m.PermanentlyBlocked,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, questerr.NotFoundf("match %s", id)
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return m, nil
}

func (s *PostgresStore) BlockMatch(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `UPDATE matches SET permanently_blocked = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to block match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return questerr.NotFoundf("match %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateQuestBundle(ctx context.Context, q *quest.Quest, challenges []challenge.Challenge, records []progress.Record) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin quest transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO quests (id, match_id, participant_a, participant_b, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, q.ID, q.MatchID, q.ParticipantA, q.ParticipantB, q.Status, q.CreatedAt, q.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert quest: %w", err)
	}

	for i := range challenges {
		c := &challenges[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO challenges (id, quest_id, order_index, type, prompt, time_limit_seconds)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, c.ID, c.QuestID, c.OrderIndex, c.Type, c.Prompt, c.TimeLimitSeconds)
		if err != nil {
			return fmt.Errorf("failed to insert challenge %d: %w", c.OrderIndex, err)
		}
	}

	for i := range records {
		r := &records[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO progress_records (id, challenge_id, quest_id, participant_id, status)
			VALUES ($1, $2, $3, $4, $5)
		`, r.ID, r.ChallengeID, r.QuestID, r.ParticipantID, r.Status)
		if err != nil {
			return fmt.Errorf("failed to insert progress record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit quest transaction: %w", err)
	}

	return nil
}

const questColumns = `
	id, match_id, participant_a, participant_b, status, created_at, expires_at,
	final_date_place_id, final_date_lat, final_date_lng, final_date_time,
	final_date_title, final_date_description, final_date_activity, final_date_address
`

func scanQuest(row pgx.Row) (*quest.Quest, error) {
	q := &quest.Quest{}
	var placeID *string
	var lat, lng *float64

	err := row.Scan(
		&q.ID,
		&q.MatchID,
		&q.ParticipantA,
		&q.ParticipantB,
		&q.Status,
		&q.CreatedAt,
		&q.ExpiresAt,
		&placeID,
		&lat,
		&lng,
		&q.FinalDateTime,
		&q.FinalDateTitle,
		&q.FinalDateDescription,
		&q.FinalDateActivity,
		&q.FinalDateAddress,
	)
	if err != nil {
		return nil, err
	}

	if lat != nil && lng != nil {
		q.FinalDateLocation = &quest.FinalDateLocation{Lat: *lat, Lng: *lng}
		if placeID != nil {
			q.FinalDateLocation.PlaceID = *placeID
		}
	}

	return q, nil
}

func (s *PostgresStore) GetQuest(ctx context.Context, id uuid.UUID) (*quest.Quest, error) {
	q, err := scanQuest(s.db.QueryRow(ctx, `SELECT `+questColumns+` FROM quests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, questerr.NotFoundf("quest %s", id)
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) ActiveQuestForUser(ctx context.Context, userID uuid.UUID) (*quest.Quest, error) {
	query := `SELECT ` + questColumns + `
	FROM quests
	WHERE (participant_a = $1 OR participant_b = $1)
	  AND status IN ('pending_acceptance', 'active')
	ORDER BY created_at DESC
	LIMIT 1`

	q, err := scanQuest(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, questerr.NotFoundf("no live quest for participant %s", userID)
		}
		return nil, fmt.Errorf("failed to get quest for participant: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) ActiveQuestForMatch(ctx context.Context, matchID uuid.UUID) (*quest.Quest, error) {
	query := `SELECT ` + questColumns + `
	FROM quests
	WHERE match_id = $1 AND status IN ('pending_acceptance', 'active')
	LIMIT 1`

	q, err := scanQuest(s.db.QueryRow(ctx, query, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, questerr.NotFoundf("no live quest for match %s", matchID)
		}
		return nil, fmt.Errorf("failed to get quest for match: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) UpdateQuestStatus(ctx context.Context, id uuid.UUID, from, to quest.Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE quests SET status = $3 WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update quest status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) SetQuestReveal(ctx context.Context, id uuid.UUID, r *quest.Reveal) (bool, error) {
	query := `
	UPDATE quests
	SET final_date_place_id = $2,
	    final_date_lat = $3,
	    final_date_lng = $4,
	    final_date_time = $5,
	    final_date_title = $6,
	    final_date_description = $7,
	    final_date_activity = $8,
	    final_date_address = $9
	WHERE id = $1 AND final_date_time IS NULL
	`

	tag, err := s.db.Exec(ctx, query, id,
		r.Location.PlaceID, r.Location.Lat, r.Location.Lng, r.DateTime,
		r.Title, r.Description, r.Activity, r.Address)
	if err != nil {
		return false, fmt.Errorf("failed to set quest reveal: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	query := `
	SELECT id, quest_id, order_index, type, prompt, time_limit_seconds, insights
	FROM challenges
	WHERE id = $1
	`

	c := &challenge.Challenge{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.QuestID,
		&c.OrderIndex,
		&c.Type,
		&c.Prompt,
		&c.TimeLimitSeconds,
		&c.Insights,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, questerr.NotFoundf("challenge %s", id)
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	return c, nil
}

func (s *PostgresStore) ListChallenges(ctx context.Context, questID uuid.UUID) ([]challenge.Challenge, error) {
	query := `
	SELECT id, quest_id, order_index, type, prompt, time_limit_seconds, insights
	FROM challenges
	WHERE quest_id = $1
	ORDER BY order_index ASC
	`

	rows, err := s.db.Query(ctx, query, questID)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	var challenges []challenge.Challenge
	for rows.Next() {
		var c challenge.Challenge
		if err := rows.Scan(&c.ID, &c.QuestID, &c.OrderIndex, &c.Type, &c.Prompt, &c.TimeLimitSeconds, &c.Insights); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read challenges: %w", err)
	}

	return challenges, nil
}

func (s *PostgresStore) SetChallengeInsights(ctx context.Context, id uuid.UUID, insightsJSON string) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE challenges SET insights = $2 WHERE id = $1 AND insights IS NULL`, id, insightsJSON)
	if err != nil {
		return false, fmt.Errorf("failed to set challenge insights: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const recordColumns = `
	id, challenge_id, quest_id, participant_id, status,
	submission_text, submission_image_id, submission_image_base64, submitted_at, faceless_check_passed
`

func scanRecord(row pgx.Row, r *progress.Record) error {
	return row.Scan(
		&r.ID,
		&r.ChallengeID,
		&r.QuestID,
		&r.ParticipantID,
		&r.Status,
		&r.SubmissionText,
		&r.SubmissionImageID,
		&r.SubmissionImageBase64,
		&r.SubmittedAt,
		&r.FacelessCheckPassed,
	)
}

func (s *PostgresStore) GetRecord(ctx context.Context, challengeID, participantID uuid.UUID) (*progress.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM progress_records WHERE challenge_id = $1 AND participant_id = $2`

	r := &progress.Record{}
	err := scanRecord(s.db.QueryRow(ctx, query, challengeID, participantID), r)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, questerr.NotFoundf("progress record for challenge %s participant %s", challengeID, participantID)
		}
		return nil, fmt.Errorf("failed to get progress record: %w", err)
	}

	return r, nil
}

func (s *PostgresStore) listRecords(ctx context.Context, query string, args ...any) ([]progress.Record, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress records: %w", err)
	}
	defer rows.Close()

	var records []progress.Record
	for rows.Next() {
		var r progress.Record
		if err := scanRecord(rows, &r); err != nil {
			return nil, fmt.Errorf("failed to scan progress record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read progress records: %w", err)
	}

	return records, nil
}

func (s *PostgresStore) ListRecordsForParticipant(ctx context.Context, questID, participantID uuid.UUID) ([]progress.Record, error) {
	query := `
	SELECT r.id, r.challenge_id, r.quest_id, r.participant_id, r.status,
	       r.submission_text, r.submission_image_id, r.submission_image_base64, r.submitted_at, r.faceless_check_passed
	FROM progress_records r
	JOIN challenges c ON c.id = r.challenge_id
	WHERE r.quest_id = $1 AND r.participant_id = $2
	ORDER BY c.order_index ASC
	`
	return s.listRecords(ctx, query, questID, participantID)
}

func (s *PostgresStore) ListRecordsForChallenge(ctx context.Context, challengeID uuid.UUID) ([]progress.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM progress_records WHERE challenge_id = $1`
	return s.listRecords(ctx, query, challengeID)
}

func (s *PostgresStore) ListRecordsForQuest(ctx context.Context, questID uuid.UUID) ([]progress.Record, error) {
	query := `
	SELECT r.id, r.challenge_id, r.quest_id, r.participant_id, r.status,
	       r.submission_text, r.submission_image_id, r.submission_image_base64, r.submitted_at, r.faceless_check_passed
	FROM progress_records r
	JOIN challenges c ON c.id = r.challenge_id
	WHERE r.quest_id = $1
	ORDER BY c.order_index ASC, r.participant_id ASC
	`
	return s.listRecords(ctx, query, questID)
}

func (s *PostgresStore) UpdateRecordStatus(ctx context.Context, recordID uuid.UUID, from, to progress.Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE progress_records SET status = $3 WHERE id = $1 AND status = $2`, recordID, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update record status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) AttachSubmission(ctx context.Context, rec *progress.Record) (bool, error) {
	query := `
	UPDATE progress_records
	SET status = $2,
	    submission_text = $3,
	    submission_image_id = $4,
	    submission_image_base64 = $5,
	    submitted_at = $6
	WHERE id = $1 AND status = 'pending'
	`

	tag, err := s.db.Exec(ctx, query, rec.ID, progress.StatusSubmitted,
		rec.SubmissionText, rec.SubmissionImageID, rec.SubmissionImageBase64, rec.SubmittedAt)
	if err != nil {
		return false, fmt.Errorf("failed to attach submission: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
