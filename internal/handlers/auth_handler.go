package handlers

import (
	"encoding/json"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"kinship/internal/models"
	"kinship/internal/service"
)

// AuthHandler handles registration, login and the OAuth flow
type AuthHandler struct {
	authService     *service.AuthService
	googleOAuth     *oauth2.Config
	redirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, googleClientID, googleClientSecret, redirectBaseURL string) *AuthHandler {
	var googleOAuth *oauth2.Config
	if googleClientID != "" && googleClientSecret != "" {
		googleOAuth = &oauth2.Config{
			ClientID:     googleClientID,
			ClientSecret: googleClientSecret,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return &AuthHandler{
		authService:     authService,
		googleOAuth:     googleOAuth,
		redirectBaseURL: redirectBaseURL,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	respondJSON(w, http.StatusOK, user)
}
