package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"dateQuestAPI/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	questService        *services.QuestService
}

func NewNotificationHandler(notificationService *services.NotificationService, questService *services.QuestService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, questService: questService}
}

type registerDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := requester(w, ctx, h.questService)
	if p == nil {
		return
	}

	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "token is required")
		return
	}
	if req.Platform == "" {
		req.Platform = "unknown"
	}

	if err := h.notificationService.RegisterDevice(ctx, p.ID, req.Token, req.Platform); err != nil {
		respondWithEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}
