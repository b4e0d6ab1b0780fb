package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"kinship/internal/relationship"
	"kinship/internal/service"
)

// EdgeHandler handles relationship edge endpoints
type EdgeHandler struct {
	edgeService *service.EdgeService
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(edgeService *service.EdgeService) *EdgeHandler {
	return &EdgeHandler{edgeService: edgeService}
}

type createEdgeRequest struct {
	UserID       int64  `json:"user_id"`
	Relationship string `json:"relationship_type"`
	IsShareable  bool   `json:"is_shareable"`
	IsManager    bool   `json:"is_manager"`
}

// updateEdgeRequest carries optional flags; an omitted field leaves the
// stored value alone.
type updateEdgeRequest struct {
	IsShareable *bool `json:"is_shareable"`
	IsManager   *bool `json:"is_manager"`
}

// List handles GET /api/edges. Without a query parameter it returns the
// caller's own edges; with ?member={id} it returns every edge on a member the
// caller has access to.
func (h *EdgeHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if memberParam := r.URL.Query().Get("member"); memberParam != "" {
		memberID, err := strconv.ParseInt(memberParam, 10, 64)
		if err != nil || memberID <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid member id", "", nil)
			return
		}
		edges, err := h.edgeService.ListForMember(r.Context(), user.ID, memberID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, edges)
		return
	}

	edges, err := h.edgeService.ListForUser(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, edges)
}

// Create handles POST /api/members/{id}/edges
func (h *EdgeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	memberID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid member id", "", nil)
		return
	}

	var req createEdgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}
	if req.UserID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid user id", "", nil)
		return
	}

	edge, err := h.edgeService.CreateEdge(r.Context(), user.ID, req.UserID, memberID,
		relationship.Type(req.Relationship), req.IsShareable, req.IsManager)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, edge)
}

// UpdateFlags handles PATCH /api/members/{id}/edges/{userID}
func (h *EdgeHandler) UpdateFlags(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	memberID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid member id", "", nil)
		return
	}
	targetUserID, ok := pathID(r, "userID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid user id", "", nil)
		return
	}

	var req updateEdgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	edge, err := h.edgeService.UpdateFlags(r.Context(), user.ID, targetUserID, memberID,
		req.IsShareable, req.IsManager)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, edge)
}

// Delete handles DELETE /api/members/{id}/edges/{userID}
func (h *EdgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	memberID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid member id", "", nil)
		return
	}
	targetUserID, ok := pathID(r, "userID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid user id", "", nil)
		return
	}

	if err := h.edgeService.DeleteEdge(r.Context(), user.ID, targetUserID, memberID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
