package handlers

import (
	"encoding/json"
	"net/http"

	"kinship/internal/models"
	"kinship/internal/relationship"
	"kinship/internal/service"
)

// InvitationHandler handles invitation endpoints
type InvitationHandler struct {
	invitationService *service.InvitationService
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(invitationService *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

type createInvitationRequest struct {
	InviteeEmail string `json:"invitee_email"`
	Connector    string `json:"connector_relationship"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type previewResponse struct {
	Invitation *models.Invitation     `json:"invitation"`
	Preview    []service.PreviewEntry `json:"preview"`
}

type listInvitationsResponse struct {
	Sent     []models.Invitation `json:"sent"`
	Received []models.Invitation `json:"received"`
}

// Create handles POST /api/invitations
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req createInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	inv, err := h.invitationService.Create(r.Context(), user.ID, req.InviteeEmail,
		relationship.Type(req.Connector))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

// List handles GET /api/invitations
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	sent, received, err := h.invitationService.ListForUser(r.Context(), user.ID, user.Email)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listInvitationsResponse{Sent: sent, Received: received})
}

// Preview handles GET /api/invitations/preview?token={token}. The token alone
// grants access so an invitee without an account can see what they were
// offered before registering.
func (h *InvitationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "Missing token", "", nil)
		return
	}

	inv, preview, err := h.invitationService.Preview(r.Context(), token)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, previewResponse{Invitation: inv, Preview: preview})
}

// ComposePreview handles GET /api/invitations/compose?connector={type}. It
// lets an inviter check what a prospective invitee would gain before sending
// anything.
func (h *InvitationHandler) ComposePreview(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	connector := r.URL.Query().Get("connector")
	if connector == "" {
		respondWithError(w, http.StatusBadRequest, "Missing connector", "", nil)
		return
	}

	preview, err := h.invitationService.PreviewForConnector(r.Context(), user.ID, relationship.Type(connector))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// Accept handles POST /api/invitations/accept
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "Missing token", "", nil)
		return
	}

	edges, err := h.invitationService.Accept(r.Context(), req.Token, user.ID, user.Email)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if edges == nil {
		edges = []models.Edge{}
	}
	respondJSON(w, http.StatusOK, edges)
}

// Decline handles POST /api/invitations/decline
func (h *InvitationHandler) Decline(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "Missing token", "", nil)
		return
	}

	if err := h.invitationService.Decline(r.Context(), req.Token, user.Email); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Revoke handles DELETE /api/invitations/{id}
func (h *InvitationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	invitationID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid invitation id", "", nil)
		return
	}

	if err := h.invitationService.Revoke(r.Context(), invitationID, user.ID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
