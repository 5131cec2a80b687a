package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"dateQuestAPI/internal/challenge"
	"dateQuestAPI/internal/match"
	"dateQuestAPI/internal/participant"
	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/quest"
	"dateQuestAPI/internal/questerr"
)

// MemoryStore is the in-memory Store used by unit tests. A single mutex
// stands in for Postgres row atomicity: every conditional update is
// check-and-set under the lock.
type MemoryStore struct {
	mu           sync.Mutex
	participants map[uuid.UUID]participant.Participant
	summaries    map[uuid.UUID]participant.ProfileSummary
	matches      map[uuid.UUID]match.Match
	quests       map[uuid.UUID]quest.Quest
	challenges   map[uuid.UUID]challenge.Challenge
	records      map[uuid.UUID]progress.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		participants: make(map[uuid.UUID]participant.Participant),
		summaries:    make(map[uuid.UUID]participant.ProfileSummary),
		matches:      make(map[uuid.UUID]match.Match),
		quests:       make(map[uuid.UUID]quest.Quest),
		challenges:   make(map[uuid.UUID]challenge.Challenge),
		records:      make(map[uuid.UUID]progress.Record),
	}
}

// PutParticipant seeds a participant row.
func (s *MemoryStore) PutParticipant(p participant.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = p
}

// PutMatch seeds a match row.
func (s *MemoryStore) PutMatch(m match.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
}

// PutProfileSummary seeds a profile summary row.
func (s *MemoryStore) PutProfileSummary(id uuid.UUID, ps participant.ProfileSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[id] = ps
}

func (s *MemoryStore) GetParticipant(_ context.Context, id uuid.UUID) (*participant.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, questerr.NotFoundf("participant %s", id)
	}
	return &p, nil
}

func (s *MemoryStore) GetParticipantByClerkID(_ context.Context, clerkID string) (*participant.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants {
		if p.ClerkID == clerkID {
			p := p
			return &p, nil
		}
	}
	return nil, questerr.NotFoundf("participant with clerk_id %s", clerkID)
}

func (s *MemoryStore) SetParticipantStatus(_ context.Context, id uuid.UUID, status participant.MatchableStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return questerr.NotFoundf("participant %s", id)
	}
	p.Status = status
	s.participants[id] = p
	return nil
}

func (s *MemoryStore) GetProfileSummary(_ context.Context, id uuid.UUID) (*participant.ProfileSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps := s.summaries[id]
	return &ps, nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id uuid.UUID) (*match.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, questerr.NotFoundf("match %s", id)
	}
	return &m, nil
}

func (s *MemoryStore) BlockMatch(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return questerr.NotFoundf("match %s", id)
	}
	m.PermanentlyBlocked = true
	s.matches[id] = m
	return nil
}

func (s *MemoryStore) CreateQuestBundle(_ context.Context, q *quest.Quest, challenges []challenge.Challenge, records []progress.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quests[q.ID] = *q
	for _, c := range challenges {
		s.challenges[c.ID] = c
	}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return nil
}

func (s *MemoryStore) GetQuest(_ context.Context, id uuid.UUID) (*quest.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quests[id]
	if !ok {
		return nil, questerr.NotFoundf("quest %s", id)
	}
	return &q, nil
}

func (s *MemoryStore) ActiveQuestForUser(_ context.Context, userID uuid.UUID) (*quest.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quests {
		if q.HasParticipant(userID) && !q.Status.Terminal() {
			q := q
			return &q, nil
		}
	}
	return nil, questerr.NotFoundf("no live quest for participant %s", userID)
}

func (s *MemoryStore) ActiveQuestForMatch(_ context.Context, matchID uuid.UUID) (*quest.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quests {
		if q.MatchID == matchID && !q.Status.Terminal() {
			q := q
			return &q, nil
		}
	}
	return nil, questerr.NotFoundf("no live quest for match %s", matchID)
}

func (s *MemoryStore) UpdateQuestStatus(_ context.Context, id uuid.UUID, from, to quest.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quests[id]
	if !ok || q.Status != from {
		return false, nil
	}
	q.Status = to
	s.quests[id] = q
	return true, nil
}

func (s *MemoryStore) SetQuestReveal(_ context.Context, id uuid.UUID, r *quest.Reveal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quests[id]
	if !ok || q.FinalDateTime != nil {
		return false, nil
	}
	loc := r.Location
	dt := r.DateTime
	title, desc, act, addr := r.Title, r.Description, r.Activity, r.Address
	q.FinalDateLocation = &loc
	q.FinalDateTime = &dt
	q.FinalDateTitle = &title
	q.FinalDateDescription = &desc
	q.FinalDateActivity = &act
	q.FinalDateAddress = &addr
	s.quests[id] = q
	return true, nil
}

func (s *MemoryStore) GetChallenge(_ context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, questerr.NotFoundf("challenge %s", id)
	}
	return &c, nil
}

func (s *MemoryStore) ListChallenges(_ context.Context, questID uuid.UUID) ([]challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []challenge.Challenge
	for _, c := range s.challenges {
		if c.QuestID == questID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (s *MemoryStore) SetChallengeInsights(_ context.Context, id uuid.UUID, insightsJSON string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok || c.Insights != nil {
		return false, nil
	}
	c.Insights = &insightsJSON
	s.challenges[id] = c
	return true, nil
}

func (s *MemoryStore) GetRecord(_ context.Context, challengeID, participantID uuid.UUID) (*progress.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ChallengeID == challengeID && r.ParticipantID == participantID {
			r := r
			return &r, nil
		}
	}
	return nil, questerr.NotFoundf("progress record for challenge %s participant %s", challengeID, participantID)
}

func (s *MemoryStore) orderIndex(challengeID uuid.UUID) int {
	if c, ok := s.challenges[challengeID]; ok {
		return c.OrderIndex
	}
	return 0
}

func (s *MemoryStore) ListRecordsForParticipant(_ context.Context, questID, participantID uuid.UUID) ([]progress.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []progress.Record
	for _, r := range s.records {
		if r.QuestID == questID && r.ParticipantID == participantID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.orderIndex(out[i].ChallengeID) < s.orderIndex(out[j].ChallengeID)
	})
	return out, nil
}

func (s *MemoryStore) ListRecordsForChallenge(_ context.Context, challengeID uuid.UUID) ([]progress.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []progress.Record
	for _, r := range s.records {
		if r.ChallengeID == challengeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListRecordsForQuest(_ context.Context, questID uuid.UUID) ([]progress.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []progress.Record
	for _, r := range s.records {
		if r.QuestID == questID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := s.orderIndex(out[i].ChallengeID), s.orderIndex(out[j].ChallengeID)
		if oi != oj {
			return oi < oj
		}
		return out[i].ParticipantID.String() < out[j].ParticipantID.String()
	})
	return out, nil
}

func (s *MemoryStore) UpdateRecordStatus(_ context.Context, recordID uuid.UUID, from, to progress.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[recordID]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	s.records[recordID] = r
	return true, nil
}

func (s *MemoryStore) AttachSubmission(_ context.Context, rec *progress.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[rec.ID]
	if !ok || r.Status != progress.StatusPending {
		return false, nil
	}
	r.Status = progress.StatusSubmitted
	r.SubmissionText = rec.SubmissionText
	r.SubmissionImageID = rec.SubmissionImageID
	r.SubmissionImageBase64 = rec.SubmissionImageBase64
	r.SubmittedAt = rec.SubmittedAt
	s.records[rec.ID] = r
	return true, nil
}
