package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/quest"
	"dateQuestAPI/internal/questerr"
	"dateQuestAPI/internal/store"
	"dateQuestAPI/utils"
)

// revealLeadTime and revealHourUTC fix the fallback schedule: three days
// out, 19:00 UTC.
const (
	revealLeadTime = 72 * time.Hour
	revealHourUTC  = 19
)

// RevealService detects full completion and mints the final date disclosure
// exactly once.
type RevealService struct {
	store         store.Store
	quests        *QuestService
	notifications *NotificationService
}

func NewRevealService(st store.Store, quests *QuestService, notifications *NotificationService) *RevealService {
	return &RevealService{
		store:         st,
		quests:        quests,
		notifications: notifications,
	}
}

// IsComplete reports whether every challenge has an approved record for
// both participants, each side computed independently.
func (s *RevealService) IsComplete(ctx context.Context, questID uuid.UUID) (bool, error) {
	challenges, err := s.store.ListChallenges(ctx, questID)
	if err != nil {
		return false, err
	}
	if len(challenges) == 0 {
		return false, nil
	}

	records, err := s.store.ListRecordsForQuest(ctx, questID)
	if err != nil {
		return false, err
	}
	if len(records) != 2*len(challenges) {
		return false, nil
	}
	for _, rec := range records {
		if rec.Status != progress.StatusApproved {
			return false, nil
		}
	}
	return true, nil
}

// Reveal transitions a fully completed quest to completed, frees both
// participants for new matches, and returns the final date payload. When no
// payload was generated during the quest it computes the fallback (midpoint
// of home coordinates, default schedule) and persists it once; repeat calls
// return identical data.
func (s *RevealService) Reveal(ctx context.Context, questID, requesterID uuid.UUID) (*quest.Reveal, error) {
	q, err := s.quests.RefreshQuest(ctx, questID)
	if err != nil {
		return nil, err
	}
	if !q.HasParticipant(requesterID) {
		return nil, questerr.Forbiddenf("participant %s is not part of quest %s", requesterID, questID)
	}
	// Terminal states absorb: only completed continues, for the repeat read.
	if q.Status.Terminal() && q.Status != quest.StatusCompleted {
		if q.Status == quest.StatusExpired {
			return nil, questerr.ErrExpired
		}
		return nil, questerr.InvalidStatef("quest %s is %s", questID, q.Status)
	}

	complete, err := s.IsComplete(ctx, questID)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, questerr.InvalidStatef("quest %s still has unapproved challenges", questID)
	}

	if q.Status != quest.StatusCompleted {
		if _, err := s.store.UpdateQuestStatus(ctx, questID, q.Status, quest.StatusCompleted); err != nil {
			return nil, err
		}
		s.quests.releaseParticipants(ctx, q)
		if s.notifications != nil {
			s.notifications.NotifyQuestCompleted(q)
		}
	}

	if q.FinalDateTime == nil {
		if err := s.persistFallback(ctx, q); err != nil {
			return nil, err
		}
		if q, err = s.store.GetQuest(ctx, questID); err != nil {
			return nil, err
		}
	}

	return revealFromQuest(q), nil
}

func (s *RevealService) persistFallback(ctx context.Context, q *quest.Quest) error {
	a, err := s.store.GetParticipant(ctx, q.ParticipantA)
	if err != nil {
		return err
	}
	b, err := s.store.GetParticipant(ctx, q.ParticipantB)
	if err != nil {
		return err
	}

	lat, lng := utils.Midpoint(a.HomeLat, a.HomeLng, b.HomeLat, b.HomeLng)

	day := time.Now().UTC().Add(revealLeadTime)
	dateTime := time.Date(day.Year(), day.Month(), day.Day(), revealHourUTC, 0, 0, 0, time.UTC)

	reveal := &quest.Reveal{
		Location:    quest.FinalDateLocation{Lat: lat, Lng: lng},
		DateTime:    dateTime,
		Title:       "Your first date",
		Description: "You finished every challenge together. Meet halfway and see if the spark is real.",
		Activity:    "Evening walk and dinner",
		Address:     formatCoordinates(lat, lng),
	}

	written, err := s.store.SetQuestReveal(ctx, q.ID, reveal)
	if err != nil {
		return err
	}
	if !written {
		// A concurrent reveal already persisted; the stored payload wins.
		log.Printf("RevealService: quest %s already has a reveal, keeping it", q.ID)
	}
	return nil
}

func revealFromQuest(q *quest.Quest) *quest.Reveal {
	r := &quest.Reveal{}
	if q.FinalDateLocation != nil {
		r.Location = *q.FinalDateLocation
	}
	if q.FinalDateTime != nil {
		r.DateTime = *q.FinalDateTime
	}
	if q.FinalDateTitle != nil {
		r.Title = *q.FinalDateTitle
	}
	if q.FinalDateDescription != nil {
		r.Description = *q.FinalDateDescription
	}
	if q.FinalDateActivity != nil {
		r.Activity = *q.FinalDateActivity
	}
	if q.FinalDateAddress != nil {
		r.Address = *q.FinalDateAddress
	}
	return r
}

