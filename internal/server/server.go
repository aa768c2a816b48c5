// Package server wires the TaskHub API together and manages its lifecycle.
//
// NewServer builds every layer from configuration: database pool and
// migrations, repositories, auth providers, the mail gateway, services,
// handlers and routes. Start runs the HTTP server until SIGINT or SIGTERM
// and then drains in-flight requests.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/database"
	"github.com/taskhub/backend/internal/handlers"
	"github.com/taskhub/backend/internal/mail"
	"github.com/taskhub/backend/internal/metrics"
	"github.com/taskhub/backend/internal/repository"
	"github.com/taskhub/backend/internal/repository/memory"
	"github.com/taskhub/backend/internal/service"
	"github.com/taskhub/backend/internal/utils/ratelimit"
	"github.com/taskhub/backend/migrations"
	"github.com/taskhub/backend/scripts"
)

// Handlers contains all HTTP handlers for the application.
type Handlers struct {
	AuthHandler          *handlers.AuthHandler
	PasswordResetHandler *handlers.PasswordResetHandler
	UserHandler          *handlers.UserHandler
	ContactHandler       *handlers.ContactHandler
	ProjectHandler       *handlers.ProjectHandler
}

// AuthProviders contains the credential and token primitives.
type AuthProviders struct {
	// JWTService signs and validates session tokens
	JWTService *auth.JWTService

	// Hasher hashes and verifies stored passwords
	Hasher auth.Hasher

	// TokenService generates password reset tokens
	TokenService *auth.TokenService
}

// Repositories groups the storage the services run on.
type Repositories struct {
	Users       repository.UserRepository
	ResetTokens repository.PasswordResetRepository
	Projects    repository.ProjectRepository
	Tasks       repository.TaskRepository
	Contacts    repository.ContactRepository
}

// MemoryRepositories backs every repository with one in-process store.
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Users:       store.Users(),
		ResetTokens: store.ResetTokens(),
		Projects:    store.Projects(),
		Tasks:       store.Tasks(),
		Contacts:    store.Contacts(),
	}
}

// SQLRepositories backs every repository with the connection pool.
func SQLRepositories(db *database.Pool) Repositories {
	return Repositories{
		Users:       repository.NewUserRepository(db),
		ResetTokens: repository.NewPasswordResetRepository(db),
		Projects:    repository.NewProjectRepository(db),
		Tasks:       repository.NewTaskRepository(db),
		Contacts:    repository.NewContactRepository(db),
	}
}

// Limiters holds the per-endpoint rate limiters.
type Limiters struct {
	Forgot  *ratelimit.Limiter
	Contact *ratelimit.Limiter
}

// Options overrides collaborators that NewServer would otherwise build from
// configuration. Zero fields keep the default.
type Options struct {
	// Repositories replaces the storage layer
	Repositories *Repositories

	// Health replaces the database health check
	Health ServerDBHealthChecker

	// Mailer replaces the configured mail gateway
	Mailer mail.Mailer

	// LimiterStore replaces the memory or Redis counter store
	LimiterStore ratelimit.Store
}

// Server represents the HTTP server and its dependencies.
type Server struct {
	Config        *config.AppConfig
	Db            *database.Pool
	Metrics       *metrics.Metrics
	Handlers      Handlers
	Limiters      Limiters
	router        chi.Router
	authProviders AuthProviders
	repos         Repositories
	health        ServerDBHealthChecker
	mailer        mail.Mailer
	limiterStore  ratelimit.Store
	redis         *redis.Client
	httpServer    *http.Server
	stopTasks     context.CancelFunc
	resetService  *service.PasswordResetService
	now           func() time.Time
}

// NewServer creates a new server with the given configuration.
func NewServer(cfg *config.AppConfig) (*Server, error) {
	return New(cfg, Options{})
}

// New creates a server, connecting to the configured database unless
// opts.Repositories is set.
func New(cfg *config.AppConfig, opts Options) (*Server, error) {
	s := &Server{
		Config: cfg,
		now:    time.Now,
	}

	if opts.Repositories != nil {
		s.repos = *opts.Repositories
		s.health = opts.Health
	} else if err := s.setupDatabase(); err != nil {
		return nil, err
	}
	if s.health == nil {
		s.health = noopHealth{}
	}

	s.setupMetrics()
	s.setupAuthProviders()
	s.setupMailer(opts.Mailer)
	s.setupLimiters(opts.LimiterStore)
	svc := s.setupServices()
	s.resetService = svc.reset
	s.setupHandlers(svc)
	s.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  constants.DefaultIdleTimeout,
	}

	return s, nil
}

// setupDatabase connects, migrates and seeds, or falls back to the memory
// store for the memory driver.
func (s *Server) setupDatabase() error {
	if s.Config.Database.Driver == constants.DriverMemory {
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		s.repos = MemoryRepositories(memory.NewStore())
		return nil
	}

	db, err := database.Connect(s.Config)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.Db = db
	s.health = db

	if err := Bootstrap(context.Background(), s.Config, db); err != nil {
		db.Close()
		return err
	}

	s.repos = SQLRepositories(db)
	return nil
}

// Bootstrap runs the migrator and the seeder against db.
func Bootstrap(ctx context.Context, cfg *config.AppConfig, db *database.Pool) error {
	if _, err := migrations.NewMigrator(db).RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	seeder := scripts.NewSeeder(db, auth.NewHasher(&cfg.PasswordHash), cfg.Seed)
	if err := seeder.SeedDatabase(ctx); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}
	return nil
}

func (s *Server) setupMetrics() {
	s.Metrics = metrics.New(constants.DefaultMetricsNamespace, prometheus.NewRegistry())
}

func (s *Server) setupAuthProviders() {
	s.authProviders = AuthProviders{
		JWTService:   auth.NewJWTService(&s.Config.JWT),
		Hasher:       auth.NewHasher(&s.Config.PasswordHash),
		TokenService: auth.NewTokenService(),
	}
}

func (s *Server) setupMailer(override mail.Mailer) {
	if override != nil {
		s.mailer = override
		return
	}
	gateway := mail.NewFromConfig(&s.Config.Mail)
	gateway.Observe = s.Metrics.MailSent
	s.mailer = gateway
}

// setupLimiters shares one counter store between all limiters: Redis when an
// address is configured, process memory otherwise.
func (s *Server) setupLimiters(override ratelimit.Store) {
	switch {
	case override != nil:
		s.limiterStore = override
	case s.Config.Redis.Addr != "":
		s.redis = redis.NewClient(&redis.Options{
			Addr:     s.Config.Redis.Addr,
			Password: s.Config.Redis.Password,
			DB:       s.Config.Redis.DB,
		})
		s.limiterStore = ratelimit.NewRedisStore(s.redis, s.Config.App.Name)
		log.Info().Str("addr", s.Config.Redis.Addr).Msg("Rate limiter using Redis")
	default:
		s.limiterStore = ratelimit.NewMemoryStore()
		log.Info().Msg("Rate limiter using process memory")
	}

	rate := ratelimit.Rate{
		Limit:  s.Config.Contact.MaxRequests,
		Window: s.Config.Contact.Window,
	}
	s.Limiters = Limiters{
		Forgot:  ratelimit.NewLimiter(s.limiterStore, constants.LimiterScopeForgot, rate),
		Contact: ratelimit.NewLimiter(s.limiterStore, constants.LimiterScopeContact, rate),
	}
}

type services struct {
	auth     *service.AuthService
	reset    *service.PasswordResetService
	user     *service.UserService
	contact  *service.ContactService
	projects *service.ProjectService
}

func (s *Server) setupServices() services {
	emailService := service.NewEmailService(s.mailer, s.Config.PasswordReset.ResetURL, s.Config.Mail.FromName)

	return services{
		auth: service.NewAuthService(
			s.repos.Users,
			s.authProviders.Hasher,
			s.authProviders.JWTService,
			s.Config.PasswordReset.MinPasswordLength,
		),
		reset: service.NewPasswordResetService(
			s.repos.Users,
			s.repos.ResetTokens,
			s.authProviders.TokenService,
			s.authProviders.Hasher,
			emailService,
			s.Config.PasswordReset,
			s.Metrics,
		),
		user:     service.NewUserService(s.repos.Users),
		contact:  service.NewContactService(s.repos.Contacts, emailService, s.Config.Contact.Recipient),
		projects: service.NewProjectService(s.repos.Projects, s.repos.Tasks),
	}
}

func (s *Server) setupHandlers(svc services) {
	s.Handlers = Handlers{
		AuthHandler:          handlers.NewAuthHandler(svc.auth, s.Config.JWT.Expiry, s.Config.App.IsProduction()),
		PasswordResetHandler: handlers.NewPasswordResetHandler(svc.reset),
		UserHandler:          handlers.NewUserHandler(svc.user),
		ContactHandler:       handlers.NewContactHandler(svc.contact),
		ProjectHandler:       handlers.NewProjectHandler(svc.projects),
	}
}

// Start starts the HTTP server and blocks until a shutdown signal arrives.
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().Str("address", s.httpServer.Addr).Msg("Starting server")
		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	s.SetupMaintenanceTasks()

	select {
	case err := <-serverErrors:
		s.stopMaintenance()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests and pending reset emails, stops
// background tasks and closes the database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopMaintenance()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	log.Info().Msg("Server stopped gracefully")

	if err := s.DrainMail(ctx); err != nil {
		log.Warn().Err(err).Msg("Reset emails still pending at shutdown")
	}

	s.health.Close()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}

	return nil
}

// DrainMail waits for reset emails that are still being sent in the
// background, or until ctx is done.
func (s *Server) DrainMail(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.resetService.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetupMaintenanceTasks starts the background maintenance loop. It runs
// until Shutdown.
func (s *Server) SetupMaintenanceTasks() {
	if s.stopTasks != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stopTasks = cancel

	ticker := time.NewTicker(constants.DBMaintenanceInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunMaintenance(ctx)
			}
		}
	}()

	if store, ok := s.limiterStore.(*ratelimit.MemoryStore); ok {
		go store.RunSweeper(ctx, constants.DefaultLimiterSweepInterval)
	}
}

// RunMaintenance purges reset tokens that expired more than the retention
// period ago.
func (s *Server) RunMaintenance(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	cutoff := s.now().Add(-constants.ResetTokenRetention)
	count, err := s.repos.ResetTokens.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to purge expired reset tokens")
		return
	}
	s.Metrics.Purged(count)
	if count > 0 {
		log.Info().Int64("count", count).Msg("Purged expired reset tokens")
	}
}

func (s *Server) stopMaintenance() {
	if s.stopTasks != nil {
		s.stopTasks()
		s.stopTasks = nil
	}
}

// noopHealth reports healthy for storage without a connection.
type noopHealth struct{}

func (noopHealth) HealthCheck(context.Context) error { return nil }

func (noopHealth) Close() {}
