package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"exchangedesk/internal/auth"
	"exchangedesk/internal/config"
	"exchangedesk/internal/handler"
	"exchangedesk/internal/middleware"
	"exchangedesk/internal/prefs"
	"exchangedesk/internal/repository"
	"exchangedesk/internal/taskview"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Logger *zap.Logger
}

// Repositories are the storage dependencies of the HTTP API.
type Repositories struct {
	Users        repository.UserRepositoryInterface
	Tasks        repository.TaskRepositoryInterface
	Exchanges    repository.ExchangeRepositoryInterface
	Participants repository.ParticipantRepositoryInterface
	Preferences  repository.PreferenceRepositoryInterface
}

func Init(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	logger.Info("connected to database", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	repos := Repositories{
		Users:        repository.NewUserRepository(db),
		Tasks:        repository.NewTaskRepository(db),
		Exchanges:    repository.NewExchangeRepository(db),
		Participants: repository.NewParticipantRepository(db),
		Preferences:  repository.NewPreferenceRepository(db),
	}
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiry)

	engine, err := NewEngine(repos, tokens, prefs.NewHub(), taskview.SystemClock, logger)
	if err != nil {
		return nil, err
	}

	return &Server{
		Engine: engine,
		DB:     db,
		Config: cfg,
		Logger: logger,
	}, nil
}

// NewEngine builds the router with every route of the API.
func NewEngine(
	repos Repositories,
	tokens *auth.Manager,
	hub *prefs.Hub,
	clock taskview.Clock,
	logger *zap.Logger,
) (*gin.Engine, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	userHandler := handler.NewUserHandler(repos.Users, tokens, logger)
	taskHandler := handler.NewTaskHandler(repos.Tasks, repos.Participants, clock, logger)
	exchangeHandler := handler.NewExchangeHandler(repos.Exchanges, repos.Tasks, repos.Participants, clock, logger)
	participantHandler := handler.NewParticipantHandler(repos.Participants, repos.Users, logger)
	preferenceHandler := handler.NewPreferenceHandler(repos.Preferences, hub, logger)

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(tokens))
	{
		authorized.GET("/me", userHandler.Me)

		// Task routes
		authorized.GET("/tasks", taskHandler.List)
		authorized.POST("/tasks", taskHandler.Create)
		authorized.POST("/tasks/bulk", taskHandler.Bulk)
		authorized.GET("/tasks/calendar", taskHandler.Calendar)
		authorized.GET("/tasks/timeline", taskHandler.Timeline)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)

		// Exchange routes
		authorized.POST("/exchanges", exchangeHandler.Create)
		authorized.GET("/exchanges", exchangeHandler.List)
		authorized.GET("/exchanges/:id", exchangeHandler.GetByID)
		authorized.PUT("/exchanges/:id", exchangeHandler.Update)

		// Participant routes
		authorized.GET("/exchanges/:id/participants", participantHandler.List)
		authorized.POST("/exchanges/:id/participants", participantHandler.Add)
		authorized.PUT("/exchanges/:id/participants/:pid", participantHandler.Update)
		authorized.DELETE("/exchanges/:id/participants/:pid", participantHandler.Remove)

		// Preference routes
		authorized.GET("/preferences/:key", preferenceHandler.Get)
		authorized.PUT("/preferences/:key", preferenceHandler.Put)
		authorized.GET("/events/preferences", preferenceHandler.Events)
	}
	return r, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("server running", zap.String("port", s.Config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	s.Logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	s.Logger.Info("server exited properly")
	return nil
}
