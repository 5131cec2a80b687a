package services

import (
	"context"

	"github.com/google/uuid"

	"dateQuestAPI/internal/challenge"
	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/quest"
	"dateQuestAPI/internal/questerr"
	"dateQuestAPI/internal/store"
)

// ApprovalService is the two-sided gate advancing a pair through the
// catalog. Only the partner of a submitter may approve or reject their
// submitted record; once both records of a challenge are approved the next
// challenge becomes current for both sides (computed, not stored) and a
// bothApproved event is emitted for insight generation.
type ApprovalService struct {
	store    store.Store
	quests   *QuestService
	insights InsightSink
}

func NewApprovalService(st store.Store, quests *QuestService, insights InsightSink) *ApprovalService {
	return &ApprovalService{
		store:    st,
		quests:   quests,
		insights: insights,
	}
}

// Approve moves the submitter's record from submitted to approved on behalf
// of their partner. A zero submitterID means "my partner's record".
func (s *ApprovalService) Approve(ctx context.Context, challengeID, submitterID, approverID uuid.UUID) (*progress.Record, error) {
	rec, c, err := s.decide(ctx, challengeID, submitterID, approverID, progress.StatusApproved)
	if err != nil {
		return nil, err
	}

	s.maybeEmitBothApproved(ctx, c, rec)

	return rec, nil
}

// Reject moves the submitter's record from submitted to rejected. There is
// no resubmission path; a rejected record stays rejected.
func (s *ApprovalService) Reject(ctx context.Context, challengeID, submitterID, approverID uuid.UUID) (*progress.Record, error) {
	rec, _, err := s.decide(ctx, challengeID, submitterID, approverID, progress.StatusRejected)
	return rec, err
}

func (s *ApprovalService) decide(ctx context.Context, challengeID, submitterID, approverID uuid.UUID, verdict progress.Status) (*progress.Record, *challengeWithQuest, error) {
	if submitterID == approverID {
		return nil, nil, questerr.Forbiddenf("participants cannot approve their own submission")
	}

	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, nil, err
	}
	q, err := s.quests.RefreshQuest(ctx, c.QuestID)
	if err != nil {
		return nil, nil, err
	}
	if submitterID == uuid.Nil {
		if submitterID, _ = q.PartnerOf(approverID); submitterID == uuid.Nil {
			return nil, nil, questerr.Forbiddenf("only quest participants may review submissions")
		}
	}
	if !q.HasParticipant(approverID) || !q.HasParticipant(submitterID) {
		return nil, nil, questerr.Forbiddenf("only quest participants may review submissions")
	}
	if q.Status != quest.StatusActive {
		return nil, nil, questerr.InvalidStatef("quest %s is %s", q.ID, q.Status)
	}

	rec, err := s.store.GetRecord(ctx, challengeID, submitterID)
	if err != nil {
		return nil, nil, err
	}
	if rec.Status != progress.StatusSubmitted {
		return nil, nil, questerr.InvalidStatef("record for challenge %s is %s, expected submitted", challengeID, rec.Status)
	}

	ok, err := s.store.UpdateRecordStatus(ctx, rec.ID, progress.StatusSubmitted, verdict)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, questerr.InvalidStatef("record for challenge %s changed state during review", challengeID)
	}

	rec, err = s.store.GetRecord(ctx, challengeID, submitterID)
	if err != nil {
		return nil, nil, err
	}

	return rec, &challengeWithQuest{challenge: c, quest: q}, nil
}

type challengeWithQuest struct {
	challenge *challenge.Challenge
	quest     *quest.Quest
}

// maybeEmitBothApproved fires the insight event once both sides of the
// challenge are approved. The check runs on a fresh read but may still race
// a concurrent approval; the store's conditional insights write absorbs the
// remaining window.
func (s *ApprovalService) maybeEmitBothApproved(ctx context.Context, cq *challengeWithQuest, justApproved *progress.Record) {
	if s.insights == nil || cq.challenge.Insights != nil {
		return
	}

	partnerID, ok := cq.quest.PartnerOf(justApproved.ParticipantID)
	if !ok {
		return
	}
	partnerRec, err := s.store.GetRecord(ctx, cq.challenge.ID, partnerID)
	if err != nil || partnerRec.Status != progress.StatusApproved {
		return
	}

	job := InsightJob{Challenge: *cq.challenge}
	if justApproved.ParticipantID == cq.quest.ParticipantA {
		job.SubmissionA = summarizeSubmission(justApproved)
		job.SubmissionB = summarizeSubmission(partnerRec)
	} else {
		job.SubmissionA = summarizeSubmission(partnerRec)
		job.SubmissionB = summarizeSubmission(justApproved)
	}

	s.insights.Enqueue(job)
}
