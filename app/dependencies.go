package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/users-api/auth"
	"github.com/upb/users-api/config"
	"github.com/upb/users-api/middleware"
	"github.com/upb/users-api/repositories"
	"github.com/upb/users-api/repositories/memory"
	"github.com/upb/users-api/repositories/postgres"
	"github.com/upb/users-api/services/audit"
	"github.com/upb/users-api/services/users"
	"go.uber.org/zap"
)

// defaultAuditStopTimeout bounds how long Close waits for queued audit events
const defaultAuditStopTimeout = 5 * time.Second

// HealthChecker reports whether the user store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil with the memory store
	Logger *zap.Logger

	// Repository Factory, nil with the memory store
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	AuditLogs repositories.AuditRepository

	// Store is the readiness probe for whichever store backs Users
	Store HealthChecker

	// Services
	UserService  *users.Service
	AuditService *audit.AuditService // nil when auditing is disabled

	// Auth, nil when bearer auth is disabled
	AuthMiddleware *middleware.AuthMiddleware
}

// Option customizes NewDependencies
type Option func(*options)

type options struct {
	clock memory.Clock
	db    *postgres.DB
}

// WithClock sets the clock of the memory store
func WithClock(clock memory.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithDatabase uses an already opened database instead of connecting from config
func WithDatabase(db *postgres.DB) Option {
	return func(o *options) {
		o.db = db
	}
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Dependencies, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize the user store
	if err := deps.initStore(ctx, cfg, o); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize the audit trail
	if err := deps.initAudit(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize audit service: %w", err)
	}

	// Initialize services
	deps.initServices()

	// Initialize bearer auth
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("store", cfg.Store.Driver))
	return deps, nil
}

// initStore initializes the PostgreSQL or in-memory user store
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config, o options) error {
	if cfg.Store.Driver == config.StoreDriverMemory {
		store := memory.NewUserStore(o.clock)
		d.Users = store
		d.AuditLogs = memory.NewAuditStore()
		d.Store = store
		d.Logger.Warn("using in-memory user store, data is lost on restart")
		return nil
	}

	var factory *postgres.RepositoryFactory
	if o.db != nil {
		factory = postgres.NewRepositoryFactoryWithDB(o.db, d.Logger)
	} else {
		var err error
		factory, err = postgres.NewRepositoryFactory(ctx, cfg.Database, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create repository factory: %w", err)
		}
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()
	d.Store = d.DB

	repos := factory.NewRepositories()
	d.Users = repos.Users
	d.AuditLogs = repos.AuditLogs

	d.Logger.Info("repositories initialized")
	return nil
}

// initAudit starts the asynchronous audit workers when auditing is enabled
func (d *Dependencies) initAudit(cfg *config.Config) error {
	if !cfg.Audit.Enabled {
		d.Logger.Info("audit trail disabled")
		return nil
	}

	service := audit.NewAuditService(d.AuditLogs, d.Logger, audit.Config{
		BufferSize:  cfg.Audit.BufferSize,
		WorkerCount: cfg.Audit.WorkerCount,
	})
	if err := service.Start(); err != nil {
		return err
	}

	d.AuditService = service
	return nil
}

func (d *Dependencies) initServices() {
	var recorder users.AuditRecorder
	if d.AuditService != nil {
		recorder = d.AuditService
	}
	d.UserService = users.NewService(d.Users, recorder, d.Logger)
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	if !cfg.AuthEnabled() {
		d.Logger.Warn("AUTH_JWT_SECRET not set, user endpoints are unauthenticated")
		return
	}
	validator := auth.NewHMACValidator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
	d.Logger.Info("bearer auth enabled")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain the audit queue before the database goes away
	if d.AuditService != nil {
		timeout := defaultAuditStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.AuditService.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
		d.AuditService = nil
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
