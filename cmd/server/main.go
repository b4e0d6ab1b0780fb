package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kinship/internal/config"
	"kinship/internal/database"
	"kinship/internal/handlers"
	"kinship/internal/repository"
	"kinship/internal/security"
	"kinship/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	ctx := context.Background()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	edgeRepo := repository.NewEdgeRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	// Initialize services
	emailService, err := service.NewEmailService(cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenDuration)
	permissionService := service.NewPermissionService(edgeRepo)
	memberService := service.NewMemberService(db, memberRepo, edgeRepo)
	edgeService := service.NewEdgeService(db, edgeRepo, memberRepo)
	invitationService := service.NewInvitationService(db, invitationRepo, edgeRepo, memberRepo, emailService, cfg.InvitationTTL)

	// Initialize handlers
	limiter := security.NewRateLimiter(30, time.Minute)
	middleware := handlers.NewMiddleware(authService, limiter)
	authHandler := handlers.NewAuthHandler(authService, cfg.GoogleClientID, cfg.GoogleClientSecret, oauthRedirectBase(cfg))
	memberHandler := handlers.NewMemberHandler(memberService, permissionService)
	edgeHandler := handlers.NewEdgeHandler(edgeService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /auth/google/start", authHandler.StartGoogleOAuth)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleOAuthCallback)
	mux.HandleFunc("GET /api/invitations/preview", middleware.RateLimit(invitationHandler.Preview))

	// Protected routes
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))

	mux.HandleFunc("POST /api/members", middleware.RequireAuth(memberHandler.Create))
	mux.HandleFunc("GET /api/members", middleware.RequireAuth(memberHandler.List))
	mux.HandleFunc("GET /api/members/{id}", middleware.RequireAuth(memberHandler.Get))
	mux.HandleFunc("PUT /api/members/{id}", middleware.RequireAuth(memberHandler.Update))
	mux.HandleFunc("DELETE /api/members/{id}", middleware.RequireAuth(memberHandler.Delete))
	mux.HandleFunc("GET /api/members/{id}/permissions", middleware.RequireAuth(memberHandler.Permissions))

	mux.HandleFunc("GET /api/edges", middleware.RequireAuth(edgeHandler.List))
	mux.HandleFunc("POST /api/members/{id}/edges", middleware.RequireAuth(edgeHandler.Create))
	mux.HandleFunc("PATCH /api/members/{id}/edges/{userID}", middleware.RequireAuth(edgeHandler.UpdateFlags))
	mux.HandleFunc("DELETE /api/members/{id}/edges/{userID}", middleware.RequireAuth(edgeHandler.Delete))

	mux.HandleFunc("POST /api/invitations", middleware.RequireAuth(invitationHandler.Create))
	mux.HandleFunc("GET /api/invitations", middleware.RequireAuth(invitationHandler.List))
	mux.HandleFunc("GET /api/invitations/compose", middleware.RequireAuth(invitationHandler.ComposePreview))
	mux.HandleFunc("POST /api/invitations/accept", middleware.RequireAuth(invitationHandler.Accept))
	mux.HandleFunc("POST /api/invitations/decline", middleware.RequireAuth(invitationHandler.Decline))
	mux.HandleFunc("DELETE /api/invitations/{id}", middleware.RequireAuth(invitationHandler.Revoke))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background invitation expiry sweep
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go expireInvitations(sweepCtx, invitationService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	cancelSweep()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// expireInvitations periodically marks overdue pending invitations as
// expired. Expiry is also enforced lazily on token lookup, so this sweep
// only keeps stored state and listings consistent.
func expireInvitations(ctx context.Context, invitationService *service.InvitationService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := invitationService.ExpirePending(ctx)
			if err != nil {
				log.Printf("Invitation expiry sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Invitation expiry sweep: %d invitation(s) expired", n)
			}
		}
	}
}

// oauthRedirectBase picks the base URL OAuth providers redirect back to
func oauthRedirectBase(cfg *config.Config) string {
	if cfg.OAuthRedirectBaseURL != "" {
		return cfg.OAuthRedirectBaseURL
	}
	return cfg.AppBaseURL
}
