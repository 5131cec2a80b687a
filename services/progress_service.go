package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"dateQuestAPI/internal/challenge"
	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/quest"
	"dateQuestAPI/internal/questerr"
	"dateQuestAPI/internal/store"
)

// safetyBlockThreshold is the inspector confidence above which an image
// submission is refused.
const safetyBlockThreshold = 80

// ProgressService is the single source of truth for submission state per
// participant per challenge. Every entry point refreshes staleness first
// (lazy expiration, no scheduler).
type ProgressService struct {
	store         store.Store
	quests        *QuestService
	inspector     SafetyInspector
	notifications *NotificationService
}

func NewProgressService(st store.Store, quests *QuestService, inspector SafetyInspector, notifications *NotificationService) *ProgressService {
	return &ProgressService{
		store:         st,
		quests:        quests,
		inspector:     inspector,
		notifications: notifications,
	}
}

// Submit validates and attaches a participant's payload to their pending
// record. A passed deadline expires the record instead and returns Expired;
// nothing is stored on any rejected path.
func (s *ProgressService) Submit(ctx context.Context, challengeID, participantID uuid.UUID, sub progress.Submission) (*progress.Record, error) {
	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	q, err := s.quests.RefreshQuest(ctx, c.QuestID)
	if err != nil {
		return nil, err
	}
	if !q.HasParticipant(participantID) {
		return nil, questerr.Forbiddenf("participant %s is not part of quest %s", participantID, q.ID)
	}
	switch q.Status {
	case quest.StatusActive:
	case quest.StatusExpired:
		return nil, questerr.ErrExpired
	case quest.StatusPendingAcceptance:
		return nil, questerr.InvalidStatef("quest %s has not been accepted yet", q.ID)
	default:
		return nil, questerr.InvalidStatef("quest %s is %s", q.ID, q.Status)
	}

	rec, err := s.refreshRecord(ctx, c, q, participantID)
	if err != nil {
		return nil, err
	}
	switch rec.Status {
	case progress.StatusPending:
	case progress.StatusExpired:
		return nil, questerr.ErrExpired
	default:
		return nil, questerr.ErrAlreadySubmitted
	}

	// Catalog order is enforced here: a challenge opens for submission only
	// once every earlier one is approved for both participants.
	current, err := s.pairCurrent(ctx, c)
	if err != nil {
		return nil, err
	}
	if !current {
		return nil, questerr.InvalidStatef("challenge %d is not your current challenge", c.OrderIndex)
	}

	if sub.Modality() != c.Type {
		return nil, questerr.Validationf("challenge %s expects a %s submission", c.ID, c.Type)
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	update := &progress.Record{ID: rec.ID}
	now := time.Now().UTC()
	update.SubmittedAt = &now

	switch v := sub.(type) {
	case progress.TextSubmission:
		update.SubmissionText = &v.Text
	case progress.ImageSubmission:
		if err := s.screenImage(ctx, v.ImageBase64); err != nil {
			return nil, err
		}
		update.SubmissionImageID = &v.ImageID
		update.SubmissionImageBase64 = &v.ImageBase64
	case progress.LocationSubmission:
		if err := s.screenImage(ctx, v.ProofImageBase64); err != nil {
			return nil, err
		}
		text := formatCoordinates(v.Lat, v.Lng)
		update.SubmissionText = &text
		update.SubmissionImageID = &v.ProofImageID
		update.SubmissionImageBase64 = &v.ProofImageBase64
	default:
		return nil, questerr.Validationf("unsupported submission payload")
	}

	ok, err := s.store.AttachSubmission(ctx, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race: the record left pending between our read and the
		// conditional write.
		return nil, questerr.ErrAlreadySubmitted
	}

	if s.notifications != nil {
		s.notifications.NotifyPartnerSubmitted(q, participantID, challengeID)
	}

	return s.store.GetRecord(ctx, challengeID, participantID)
}

// screenImage applies the content-safety gate. Inspector unavailability
// fails open; a confident positive verdict blocks.
func (s *ProgressService) screenImage(ctx context.Context, imageBase64 string) error {
	if s.inspector == nil {
		return nil
	}

	result, err := s.inspector.InspectImage(ctx, imageBase64)
	if err != nil {
		if errors.Is(err, questerr.ErrValidation) {
			return err
		}
		log.Printf("ProgressService: safety inspector unavailable, failing open: %v", err)
		return nil
	}
	if result.Flagged && result.Confidence > safetyBlockThreshold {
		return questerr.ErrBlockedContent
	}
	return nil
}

// GetRecord is a pure read. Absent rows come back as a synthetic locked
// record; batch creation should make that unreachable.
func (s *ProgressService) GetRecord(ctx context.Context, challengeID, participantID uuid.UUID) (*progress.Record, error) {
	rec, err := s.store.GetRecord(ctx, challengeID, participantID)
	if err != nil {
		if errors.Is(err, questerr.ErrNotFound) {
			return progress.Locked(challengeID, participantID), nil
		}
		return nil, err
	}
	return rec, nil
}

// IsCurrent reports whether this challenge is the participant's first
// unapproved one in catalog order. Later challenges render locked; this is
// computed, never stored. Submission is gated on the stricter pair view.
func (s *ProgressService) IsCurrent(ctx context.Context, challengeID, participantID uuid.UUID) (bool, error) {
	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return false, err
	}
	return s.isCurrent(ctx, c, participantID)
}

func (s *ProgressService) isCurrent(ctx context.Context, c *challenge.Challenge, participantID uuid.UUID) (bool, error) {
	records, err := s.store.ListRecordsForParticipant(ctx, c.QuestID, participantID)
	if err != nil {
		return false, err
	}

	for _, rec := range records {
		if rec.Status != progress.StatusApproved {
			return rec.ChallengeID == c.ID, nil
		}
	}
	return false, nil
}

// pairCurrent reports whether c is the pair's current challenge: the first
// in catalog order whose records are not yet approved on both sides. Mutual
// unlock means a participant who is ahead still waits for their partner.
func (s *ProgressService) pairCurrent(ctx context.Context, c *challenge.Challenge) (bool, error) {
	records, err := s.store.ListRecordsForQuest(ctx, c.QuestID)
	if err != nil {
		return false, err
	}
	approvals := make(map[uuid.UUID]int)
	for _, rec := range records {
		if rec.Status == progress.StatusApproved {
			approvals[rec.ChallengeID]++
		}
	}

	challenges, err := s.store.ListChallenges(ctx, c.QuestID)
	if err != nil {
		return false, err
	}
	for _, cc := range challenges {
		if approvals[cc.ID] < 2 {
			return cc.ID == c.ID, nil
		}
	}
	return false, nil
}

// RefreshChallenge lazily expires the participant's pending record once the
// challenge deadline passes. Submitted, approved, rejected and expired
// records are untouched; expiration is not revivable.
func (s *ProgressService) RefreshChallenge(ctx context.Context, challengeID, participantID uuid.UUID) (*progress.Record, error) {
	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	q, err := s.store.GetQuest(ctx, c.QuestID)
	if err != nil {
		return nil, err
	}
	return s.refreshRecord(ctx, c, q, participantID)
}

func (s *ProgressService) refreshRecord(ctx context.Context, c *challenge.Challenge, q *quest.Quest, participantID uuid.UUID) (*progress.Record, error) {
	rec, err := s.store.GetRecord(ctx, c.ID, participantID)
	if err != nil {
		return nil, err
	}

	if rec.Status == progress.StatusPending && time.Now().UTC().After(c.Deadline(q.CreatedAt)) {
		if _, err := s.store.UpdateRecordStatus(ctx, rec.ID, progress.StatusPending, progress.StatusExpired); err != nil {
			return nil, err
		}
		return s.store.GetRecord(ctx, c.ID, participantID)
	}

	return rec, nil
}

// QuestBoard assembles the requester's live quest projection: stored record
// statuses plus the computed current/locked display state for each side.
func (s *ProgressService) QuestBoard(ctx context.Context, requesterID uuid.UUID) (*quest.Board, error) {
	q, err := s.store.ActiveQuestForUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	q, err = s.quests.RefreshQuest(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	partnerID, _ := q.PartnerOf(requesterID)

	challenges, err := s.store.ListChallenges(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	board := &quest.Board{Quest: *q}
	mineApproved, partnerApproved := 0, 0
	mineCurrentSeen := false

	for i := range challenges {
		c := &challenges[i]

		mine, err := s.refreshRecord(ctx, c, q, requesterID)
		if err != nil {
			if !errors.Is(err, questerr.ErrNotFound) {
				return nil, err
			}
			mine = progress.Locked(c.ID, requesterID)
		}
		partner, err := s.refreshRecord(ctx, c, q, partnerID)
		if err != nil {
			if !errors.Is(err, questerr.ErrNotFound) {
				return nil, err
			}
			partner = progress.Locked(c.ID, partnerID)
		}

		if mine.Status == progress.StatusApproved {
			mineApproved++
		}
		if partner.Status == progress.StatusApproved {
			partnerApproved++
		}

		view := quest.ChallengeView{
			Challenge: *c,
			Mine:      *mine,
			Partner:   *partner,
		}
		switch {
		case mine.Status != progress.StatusApproved && !mineCurrentSeen:
			mineCurrentSeen = true
			view.IsCurrent = true
			if mine.Status == progress.StatusPending {
				view.State = quest.DisplayActive
			} else {
				view.State = string(mine.Status)
			}
		case mine.Status == progress.StatusApproved:
			view.State = string(progress.StatusApproved)
		default:
			view.State = quest.DisplayLocked
		}

		board.Challenges = append(board.Challenges, view)
	}

	if n := len(challenges); n > 0 {
		board.MyProgressPct = mineApproved * 100 / n
		board.PartnerProgressPct = partnerApproved * 100 / n
	}

	return board, nil
}

func formatCoordinates(lat, lng float64) string {
	return fmt.Sprintf("checked in at %.6f,%.6f", lat, lng)
}
