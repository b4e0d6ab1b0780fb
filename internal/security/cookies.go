package security

import (
	"net/http"
	"time"
)

// IsSecureRequest determines if the request is over HTTPS
// Checks TLS connection, X-Forwarded-Proto header (for reverse proxies), and URL scheme
func IsSecureRequest(r *http.Request) bool {
	// Direct TLS connection
	if r.TLS != nil {
		return true
	}

	// Behind reverse proxy (nginx, Caddy, load balancer, etc.)
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}

	if r.URL.Scheme == "https" {
		return true
	}

	return false
}

// CreateTempCookie creates a short-lived cookie used during the OAuth flow
func CreateTempCookie(r *http.Request, name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateDeleteCookie creates a cookie for deletion with proper security flags
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
	}
}
