package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"dateQuestAPI/services"
)

type MatchHandler struct {
	matchService *services.MatchService
	questService *services.QuestService
}

func NewMatchHandler(matchService *services.MatchService, questService *services.QuestService) *MatchHandler {
	return &MatchHandler{matchService: matchService, questService: questService}
}

type createMatchRequest struct {
	UserAID            string `json:"userAId"`
	UserBID            string `json:"userBId"`
	CompatibilityScore int    `json:"compatibilityScore"`
}

// CreateMatch is called by the matching pipeline, not by end users. It is
// gated by a shared secret header instead of Clerk auth.
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	secret := os.Getenv("MATCHER_SECRET")
	provided := r.Header.Get("X-Matcher-Secret")
	if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userA, errA := uuid.Parse(req.UserAID)
	userB, errB := uuid.Parse(req.UserBID)
	if errA != nil || errB != nil {
		respondWithError(w, http.StatusBadRequest, "userAId and userBId must be UUIDs")
		return
	}

	m, err := h.matchService.CreateMatch(ctx, userA, userB, req.CompatibilityScore)
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, m)
}

func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := requester(w, ctx, h.questService)
	if p == nil {
		return
	}

	matches, err := h.matchService.MatchesForUser(ctx, p.ID)
	if err != nil {
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, matches)
}
