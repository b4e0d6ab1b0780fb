package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"kinship/internal/security"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type oauthUserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// StartGoogleOAuth handles GET /auth/google/start
func (h *AuthHandler) StartGoogleOAuth(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuth == nil {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, security.CreateTempCookie(r, "oauth_state", state, 10*time.Minute))

	config := *h.googleOAuth
	config.RedirectURL = h.redirectBaseURL + "/auth/google/callback"

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// GoogleOAuthCallback handles GET /auth/google/callback. On success it
// returns the same user and token payload as a password login.
func (h *AuthHandler) GoogleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuth == nil {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, "oauth_state"))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := *h.googleOAuth
	config.RedirectURL = h.redirectBaseURL + "/auth/google/callback"

	token, err := config.Exchange(ctx, code)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to exchange OAuth code", "oauth exchange failed", err)
		return
	}

	info, err := h.fetchGoogleUserInfo(ctx, &config, token)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to fetch user info", "oauth userinfo failed", err)
		return
	}

	user, err := h.authService.GetOrCreateOAuthUser(ctx, info.Email, info.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	apiToken, err := h.authService.IssueToken(user)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{User: user, Token: apiToken})
}

func (h *AuthHandler) fetchGoogleUserInfo(ctx context.Context, config *oauth2.Config, token *oauth2.Token) (*oauthUserInfo, error) {
	client := config.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	info := &oauthUserInfo{}
	if err := json.NewDecoder(resp.Body).Decode(info); err != nil {
		return nil, err
	}
	return info, nil
}
