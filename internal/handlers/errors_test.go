package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kinship/internal/service"
	"kinship/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("expected JSON body, got %q", recorder.Body.String())
	}
	if body["error"] != "Teapot" {
		t.Fatalf("expected error 'Teapot', got %q", body["error"])
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	recorder := httptest.NewRecorder()
	err := errors.New("boom")

	respondWithError(recorder, 500, "Internal server error", "", err)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{validation.ValidationError{Field: "email", Message: "required"}, http.StatusBadRequest},
		{service.ErrInvalidRelationship, http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrNotManager, http.StatusForbidden},
		{service.ErrNoAccess, http.StatusForbidden},
		{service.ErrNotInvitee, http.StatusForbidden},
		{service.ErrMemberNotFound, http.StatusNotFound},
		{service.ErrEdgeNotFound, http.StatusNotFound},
		{service.ErrInvitationNotFound, http.StatusNotFound},
		{service.ErrInvalidToken, http.StatusNotFound},
		{service.ErrEmailTaken, http.StatusConflict},
		{service.ErrDuplicateEdge, http.StatusConflict},
		{service.ErrLastManager, http.StatusConflict},
		{service.ErrNotPending, http.StatusConflict},
		{service.ErrInvitationExpired, http.StatusGone},
		{errors.New("database exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.expected {
				t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}

	// Wrapped service errors map the same way
	wrapped := fmt.Errorf("accepting invitation: %w", service.ErrInvitationExpired)
	if got := statusForError(wrapped); got != http.StatusGone {
		t.Errorf("statusForError(wrapped) = %d, want %d", got, http.StatusGone)
	}
}

func TestRespondServiceErrorHidesInternals(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondServiceError(recorder, errors.New("pq: connection refused"))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "connection refused") {
		t.Error("internal error detail leaked into response body")
	}
}
