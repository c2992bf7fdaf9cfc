package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"suratku-server/internal/config"
	"suratku-server/internal/handler"
	"suratku-server/internal/middleware"
	"suratku-server/internal/repository"
	"suratku-server/internal/service"
	"suratku-server/internal/telemetry"
	"suratku-server/internal/websocket"
	"suratku-server/pkg/logger"
	"suratku-server/pkg/response"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Server.Env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.Telemetry)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}

	client, err := kivik.New("couch", cfg.Database.URL())
	if err != nil {
		log.Fatal("failed to connect to CouchDB", zap.Error(err))
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		log.Fatal("failed to check database existence", zap.Error(err))
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			log.Fatal("failed to create database", zap.Error(err))
		}
		log.Info("created database", zap.String("name", cfg.Database.Name))
	}

	userRepo := repository.NewUserRepository(client, cfg.Database.Name)
	institutionRepo := repository.NewInstitutionRepository(client, cfg.Database.Name)
	letterRepo := repository.NewLetterRepository(client, cfg.Database.Name)
	signatureRepo := repository.NewSignatureRepository(client, cfg.Database.Name)
	verificationRepo := repository.NewVerificationRepository(cfg.Database.DBURL(), cfg.Verification.FetchTimeout)

	wsManager := websocket.NewManager(websocket.Options{
		MaxConnPerUser: cfg.WebSocket.MaxConnPerUser,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		PingPeriod:     cfg.WebSocket.PingPeriod,
	}, log)
	go wsManager.Run()

	clock := service.RealClock{}
	ids := service.UUIDGenerator{}

	userService := service.NewUserService(userRepo)
	identities := userService.Identities(middleware.UserIDFromContext)

	authService := service.NewAuthService(userRepo, clock, ids, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	letterService := service.NewLetterService(letterRepo, institutionRepo, identities, clock, ids, log)
	signingService := service.NewSigningService(letterRepo, signatureRepo, identities, clock, ids, service.SigningConfig{
		PublicBaseURL: cfg.Server.PublicBaseURL,
		QRSize:        cfg.Verification.QRSize,
	}, log)
	signingService.SetNotifier(wsManager)
	verificationService := service.NewVerificationService(letterRepo, institutionRepo, signatureRepo, verificationRepo, clock, cfg.Verification.FetchTimeout, log)

	wsManager.SetMessageHandler(handler.NewCaptureMessageHandler(signingService, wsManager, log))

	authHandler := handler.NewAuthHandler(authService, log)
	userHandler := handler.NewUserHandler(userService, log)
	letterHandler := handler.NewLetterHandler(letterService, log)
	signingHandler := handler.NewSigningHandler(signingService, verificationService, cfg.Signature.CanvasWidth, cfg.Signature.CanvasHeight, log)
	verifyHandler := handler.NewVerifyHandler(verificationService, log)
	wsHandler := handler.NewWebSocketHandler(wsManager, cfg.JWT.Secret,
		cfg.Signature.CanvasWidth, cfg.Signature.CanvasHeight,
		cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize, log)

	r := mux.NewRouter()

	r.Use(middleware.TracingMiddleware(cfg.Telemetry.ServiceName))
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	// Public verification, the target of printed QR codes.
	r.HandleFunc("/verify/{letterId}", verifyHandler.Verify).Methods("GET", "OPTIONS")

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")

	api.HandleFunc("/verify/{letterId}", verifyHandler.Verify).Methods("GET", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	protected.HandleFunc("/users/me", userHandler.GetMe).Methods("GET", "OPTIONS")

	protected.HandleFunc("/institutions", letterHandler.CreateInstitution).Methods("POST", "OPTIONS")
	protected.HandleFunc("/institutions/{id}", letterHandler.GetInstitution).Methods("GET", "OPTIONS")

	protected.HandleFunc("/letters", letterHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/letters", letterHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/letters/{id}", letterHandler.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/letters/{id}/sign", signingHandler.Sign).Methods("POST", "OPTIONS")
	protected.HandleFunc("/letters/{id}/qr", signingHandler.QRCode).Methods("GET", "OPTIONS")
	protected.HandleFunc("/letters/{id}/verifications", signingHandler.Verifications).Methods("GET", "OPTIONS")

	r.HandleFunc("/ws/capture", wsHandler.HandleConnection)

	r.HandleFunc("/health", healthHandler(client)).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting SuratKu server",
			zap.String("addr", addr),
			zap.String("env", cfg.Server.Env),
			zap.String("public_base_url", cfg.Server.PublicBaseURL),
			zap.String("couchdb", cfg.Database.Host+":"+cfg.Database.Port),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	if err := shutdownTracing(ctx); err != nil {
		log.Warn("failed to flush traces", zap.Error(err))
	}

	log.Info("server stopped gracefully")
}

func healthHandler(client *kivik.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if ok, err := client.Ping(ctx); err != nil || !ok {
			response.ServiceUnavailable(w, "database unreachable")
			return
		}

		response.Success(w, map[string]string{
			"status":  "healthy",
			"service": "suratku-server",
		})
	}
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]interface{}{
		"message": "SuratKu Letter Signing API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"/api/v1/auth/login":                 "POST",
			"/api/v1/letters":                    "GET, POST (protected)",
			"/api/v1/letters/{id}/sign":          "POST (protected)",
			"/api/v1/letters/{id}/qr":            "GET (protected)",
			"/api/v1/letters/{id}/verifications": "GET (protected)",
			"/verify/{letterId}?hash=":           "GET",
			"/ws/capture?token=":                 "WebSocket (protected)",
		},
	})
}
