package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"kinship/internal/relationship"
	"kinship/internal/service"
)

// MemberHandler handles family member endpoints
type MemberHandler struct {
	memberService     *service.MemberService
	permissionService *service.PermissionService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *service.MemberService, permissionService *service.PermissionService) *MemberHandler {
	return &MemberHandler{
		memberService:     memberService,
		permissionService: permissionService,
	}
}

type createMemberRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	BirthDate    string `json:"birth_date,omitempty"`
	Relationship string `json:"relationship_type"`
	IsShareable  bool   `json:"is_shareable"`
}

type updateMemberRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthDate string `json:"birth_date,omitempty"`
}

func parseBirthDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// Create handles POST /api/members
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req createMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid birth date, expected YYYY-MM-DD", "", nil)
		return
	}

	result, err := h.memberService.Create(r.Context(), user.ID, req.FirstName, req.LastName,
		birthDate, relationship.Type(req.Relationship), req.IsShareable)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// List handles GET /api/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	members, err := h.memberService.List(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

// Get handles GET /api/members/{id}
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	memberID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid member id", "", nil)
		return
	}

	result, err := h.memberService.Get(r.Context(), user.ID, memberID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Update handles PUT /api/members/{id}
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	memberID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid member id", "", nil)
		return
	}

	var req updateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid birth date, expected YYYY-MM-DD", "", nil)
		return
	}

	member, err := h.memberService.Update(r.Context(), user.ID, memberID, req.FirstName, req.LastName, birthDate)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

type permissionsResponse struct {
	CanView  bool `json:"can_view"`
	CanEdit  bool `json:"can_edit"`
	CanShare bool `json:"can_share"`
}

// Permissions handles GET /api/members/{id}/permissions and reports what the
// caller may do with the member
func (h *MemberHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	memberID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid member id", "", nil)
		return
	}

	canView, err := h.permissionService.CanView(r.Context(), user.ID, memberID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	canEdit, err := h.permissionService.CanEdit(r.Context(), user.ID, memberID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	canShare, err := h.permissionService.CanShare(r.Context(), user.ID, memberID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, permissionsResponse{
		CanView:  canView,
		CanEdit:  canEdit,
		CanShare: canShare,
	})
}

// Delete handles DELETE /api/members/{id}
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	memberID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid member id", "", nil)
		return
	}

	if err := h.memberService.Delete(r.Context(), user.ID, memberID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
