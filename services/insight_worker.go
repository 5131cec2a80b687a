package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"dateQuestAPI/internal/challenge"
	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/store"
)

// InsightJob is emitted when both participants' records for a challenge
// reach approved. The worker turns it into a persisted compatibility
// insight.
type InsightJob struct {
	Challenge   challenge.Challenge
	SubmissionA string
	SubmissionB string
}

// InsightSink decouples approval from insight generation: approval only
// emits the event, so a generation failure can never fail or roll back an
// approval.
type InsightSink interface {
	Enqueue(job InsightJob)
}

// InsightWorker consumes bothApproved events on a buffered queue. Delivery
// is best-effort: a full queue or a failed generation is logged and
// dropped, and the conditional insights write is the final guard against
// double generation under racing approvals.
type InsightWorker struct {
	store     store.Store
	generator InsightGenerator
	jobs      chan InsightJob
	wg        sync.WaitGroup
}

func NewInsightWorker(st store.Store, generator InsightGenerator) *InsightWorker {
	return &InsightWorker{
		store:     st,
		generator: generator,
		jobs:      make(chan InsightJob, 64),
	}
}

func (w *InsightWorker) Start(workers int) {
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for job := range w.jobs {
				w.process(job)
			}
		}()
	}
}

// Stop drains the queue and waits for in-flight jobs.
func (w *InsightWorker) Stop() {
	close(w.jobs)
	w.wg.Wait()
}

func (w *InsightWorker) Enqueue(job InsightJob) {
	select {
	case w.jobs <- job:
	default:
		log.Printf("InsightWorker: queue full, dropping insight for challenge %s", job.Challenge.ID)
	}
}

func (w *InsightWorker) process(job InsightJob) {
	if job.Challenge.Insights != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	insight, err := w.generator.GenerateInsight(ctx, job.Challenge.Prompt, job.SubmissionA, job.SubmissionB)
	if err != nil {
		log.Printf("InsightWorker: generation failed for challenge %s: %v", job.Challenge.ID, err)
		return
	}
	insight.UnlockedAt = time.Now().UTC()

	payload, err := json.Marshal(insight)
	if err != nil {
		log.Printf("InsightWorker: could not encode insight for challenge %s: %v", job.Challenge.ID, err)
		return
	}

	written, err := w.store.SetChallengeInsights(ctx, job.Challenge.ID, string(payload))
	if err != nil {
		log.Printf("InsightWorker: could not persist insight for challenge %s: %v", job.Challenge.ID, err)
		return
	}
	if !written {
		// A concurrent approval already generated one; keep the first.
		return
	}

	log.Printf("InsightWorker: unlocked insight for challenge %s", job.Challenge.ID)
}

// summarizeSubmission renders a record's payload for the insight prompt.
func summarizeSubmission(rec *progress.Record) string {
	switch {
	case rec == nil:
		return ""
	case rec.SubmissionText != nil && *rec.SubmissionText != "":
		return *rec.SubmissionText
	case rec.SubmissionImageID != nil && *rec.SubmissionImageID != "":
		return "[photo submission " + *rec.SubmissionImageID + "]"
	default:
		return "[photo submission]"
	}
}
