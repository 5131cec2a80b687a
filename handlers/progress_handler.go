package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"dateQuestAPI/internal/progress"
	"dateQuestAPI/internal/questerr"
	"dateQuestAPI/middleware"
	"dateQuestAPI/services"
)

type ProgressHandler struct {
	questService    *services.QuestService
	progressService *services.ProgressService
	approvalService *services.ApprovalService
}

func NewProgressHandler(questService *services.QuestService, progressService *services.ProgressService, approvalService *services.ApprovalService) *ProgressHandler {
	return &ProgressHandler{
		questService:    questService,
		progressService: progressService,
		approvalService: approvalService,
	}
}

type submitRequest struct {
	Type             string   `json:"type"`
	Text             string   `json:"text,omitempty"`
	ImageID          string   `json:"imageId,omitempty"`
	ImageBase64      string   `json:"imageBase64,omitempty"`
	Lat              *float64 `json:"lat,omitempty"`
	Lng              *float64 `json:"lng,omitempty"`
	ProofImageID     string   `json:"proofImageId,omitempty"`
	ProofImageBase64 string   `json:"proofImageBase64,omitempty"`
}

func (req *submitRequest) toSubmission() (progress.Submission, error) {
	switch req.Type {
	case "text":
		return progress.TextSubmission{Text: req.Text}, nil
	case "image":
		return progress.ImageSubmission{ImageID: req.ImageID, ImageBase64: req.ImageBase64}, nil
	case "location":
		if req.Lat == nil || req.Lng == nil {
			return nil, questerr.Validationf("location submission requires lat and lng")
		}
		return progress.LocationSubmission{
			Lat:              *req.Lat,
			Lng:              *req.Lng,
			ProofImageID:     req.ProofImageID,
			ProofImageBase64: req.ProofImageBase64,
		}, nil
	}
	return nil, questerr.Validationf("type must be one of text, image, location")
}

func (h *ProgressHandler) SubmitChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	p := requester(w, ctx, h.questService)
	if p == nil {
		return
	}
	challengeID, ok := pathUUID(w, r, "challengeID")
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sub, err := req.toSubmission()
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	rec, err := h.progressService.Submit(ctx, challengeID, p.ID, sub)
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	middleware.CountQuestEvent("submission")
	respondWithJSON(w, http.StatusOK, rec)
}

type reviewRequest struct {
	// ParticipantID selects whose submission is under review. Empty means
	// the reviewer's partner.
	ParticipantID string `json:"participantId,omitempty"`
}

func (req *reviewRequest) submitterID(w http.ResponseWriter) (uuid.UUID, bool) {
	if req.ParticipantID == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(req.ParticipantID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid participantId")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProgressHandler) ApproveSubmission(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

func (h *ProgressHandler) RejectSubmission(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *ProgressHandler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := requester(w, ctx, h.questService)
	if p == nil {
		return
	}
	challengeID, ok := pathUUID(w, r, "challengeID")
	if !ok {
		return
	}

	req := reviewRequest{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	submitterID, ok := req.submitterID(w)
	if !ok {
		return
	}

	var rec *progress.Record
	var err error
	if approve {
		rec, err = h.approvalService.Approve(ctx, challengeID, submitterID, p.ID)
	} else {
		rec, err = h.approvalService.Reject(ctx, challengeID, submitterID, p.ID)
	}
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	if approve {
		middleware.CountQuestEvent("approval")
	} else {
		middleware.CountQuestEvent("rejection")
	}
	respondWithJSON(w, http.StatusOK, rec)
}

func (h *ProgressHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := requester(w, ctx, h.questService)
	if p == nil {
		return
	}
	challengeID, ok := pathUUID(w, r, "challengeID")
	if !ok {
		return
	}

	rec, err := h.progressService.RefreshChallenge(ctx, challengeID, p.ID)
	if errors.Is(err, questerr.ErrNotFound) {
		rec, err = h.progressService.GetRecord(ctx, challengeID, p.ID)
	}
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	current, err := h.progressService.IsCurrent(ctx, challengeID, p.ID)
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"record":    rec,
		"isCurrent": current,
	})
}
