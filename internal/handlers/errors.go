package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"kinship/internal/security"
	"kinship/internal/service"
	"kinship/internal/validation"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": userMsg})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("Failed to encode response: %v", err)
		}
	}
}

// statusForError maps service layer errors onto HTTP status codes. Unknown
// errors become a 500 so internals never leak into responses.
func statusForError(err error) int {
	var validationErr validation.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidRelationship):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, security.ErrInvalidAPIToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotManager),
		errors.Is(err, service.ErrNoAccess),
		errors.Is(err, service.ErrNotInvitee):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrEdgeNotFound),
		errors.Is(err, service.ErrInvitationNotFound),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrDuplicateEdge),
		errors.Is(err, service.ErrLastManager),
		errors.Is(err, service.ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvitationExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes an error response using the service error
// mapping. Internal errors get a generic message; expected errors surface
// their own text.
func respondServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		respondWithError(w, status, "Internal server error", "request failed", err)
		return
	}
	respondWithError(w, status, err.Error(), "", nil)
}
