package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pulseai/apiserver/config"
	"github.com/pulseai/apiserver/internal/ai"
	"github.com/pulseai/apiserver/internal/db"
	"github.com/pulseai/apiserver/internal/handlers"
	"github.com/pulseai/apiserver/internal/mq"
	"github.com/pulseai/apiserver/internal/ocr"
	"github.com/pulseai/apiserver/internal/services"
	"github.com/pulseai/apiserver/internal/storage"
	"github.com/pulseai/apiserver/internal/store"
)

// Server wraps the HTTP server and its long-lived dependencies.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
	vision     *ocr.VisionClient
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gemini, err := ai.NewClient(cfg.Gemini)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	visionClient, err := ocr.NewVisionClient(ctx, cfg.Vision)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	archive, err := storage.NewArchiveFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if archive != nil {
		if err := archive.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	}

	broker, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	// *mq.MQ satisfies services.EventPublisher, but a nil *MQ inside
	// a non-nil interface would defeat the services' nil checks.
	var events services.EventPublisher
	if broker != nil {
		events = broker
	}

	userRepo := store.NewUserRepository(dbConn)
	transactionRepo := store.NewTransactionRepository(dbConn)

	userService := services.NewUserService(userRepo)
	transactionService := services.NewTransactionService(transactionRepo, events)
	insightService := services.NewInsightService(userRepo, transactionRepo, gemini, events)
	receiptService := services.NewReceiptService(visionClient, gemini, archive, events)

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, userService, jwtSecret)
		})
		r.Route("/transactions", func(r chi.Router) {
			handlers.TransactionRouter(r, transactionService, authMiddleware)
		})
		r.Route("/ai", func(r chi.Router) {
			handlers.InsightRouter(r, insightService, authMiddleware)
		})
		r.Route("/receipt", func(r chi.Router) {
			handlers.ReceiptRouter(r, receiptService, authMiddleware)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
		vision:     visionClient,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.vision != nil {
		_ = s.vision.Close()
	}
	return s.httpServer.Close()
}
