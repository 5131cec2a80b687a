package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"dateQuestAPI/internal/questerr"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal JSON response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithEngineError maps the engine's error taxonomy onto HTTP codes so
// clients can distinguish "not yours" from "already done" from "time's up".
func respondWithEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, questerr.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, questerr.ErrForbidden):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, questerr.ErrExpired):
		respondWithError(w, http.StatusGone, err.Error())
	case errors.Is(err, questerr.ErrBlockedContent):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, questerr.ErrInvalidState):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, questerr.ErrValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, questerr.ErrExternalService):
		respondWithError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("Unhandled engine error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal error")
	}
}
