package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"dateQuestAPI/internal/participant"
	"dateQuestAPI/middleware"
	"dateQuestAPI/services"
)

type QuestHandler struct {
	questService    *services.QuestService
	progressService *services.ProgressService
	revealService   *services.RevealService
}

func NewQuestHandler(questService *services.QuestService, progressService *services.ProgressService, revealService *services.RevealService) *QuestHandler {
	return &QuestHandler{
		questService:    questService,
		progressService: progressService,
		revealService:   revealService,
	}
}

// requester resolves the authenticated participant or writes the error
// response and returns nil.
func requester(w http.ResponseWriter, ctx context.Context, questService *services.QuestService) *participant.Participant {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return nil
	}

	p, err := questService.ParticipantByClerkID(ctx, clerkID)
	if err != nil {
		respondWithEngineError(w, err)
		return nil
	}
	return p
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func (h *QuestHandler) CreateQuestFromMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	p := requester(w, ctx, h.questService)
	if p == nil {
		return
	}
	matchID, ok := pathUUID(w, r, "matchID")
	if !ok {
		return
	}

	q, err := h.questService.CreateQuestFromMatch(ctx, matchID, p.ID)
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	middleware.CountQuestEvent("quest_created")
	respondWithJSON(w, http.StatusCreated, q)
}

func (h *QuestHandler) AcceptQuest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := requester(w, ctx, h.questService)
	if p == nil {
		return
	}
	questID, ok := pathUUID(w, r, "questID")
	if !ok {
		return
	}

	q, err := h.questService.AcceptQuest(ctx, questID, p.ID)
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	middleware.CountQuestEvent("quest_accepted")
	respondWithJSON(w, http.StatusOK, q)
}

func (h *QuestHandler) CancelQuest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := requester(w, ctx, h.questService)
	if p == nil {
		return
	}
	questID, ok := pathUUID(w, r, "questID")
	if !ok {
		return
	}

	if err := h.questService.CancelQuest(ctx, questID, p.ID); err != nil {
		respondWithEngineError(w, err)
		return
	}

	middleware.CountQuestEvent("quest_cancelled")
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *QuestHandler) GetCurrentQuest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := requester(w, ctx, h.questService)
	if p == nil {
		return
	}

	board, err := h.progressService.QuestBoard(ctx, p.ID)
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *QuestHandler) RevealFinalDate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := requester(w, ctx, h.questService)
	if p == nil {
		return
	}
	questID, ok := pathUUID(w, r, "questID")
	if !ok {
		return
	}

	reveal, err := h.revealService.Reveal(ctx, questID, p.ID)
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	middleware.CountQuestEvent("reveal")
	respondWithJSON(w, http.StatusOK, reveal)
}
