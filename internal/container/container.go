package container

import (
	"context"
	"fmt"

	"surveyclean/adapters/api"
	"surveyclean/adapters/excel"
	"surveyclean/adapters/postgres"
	"surveyclean/adapters/profile"
	"surveyclean/app"
	"surveyclean/internal"
	cleaner "surveyclean/internal/cleaning"
	"surveyclean/internal/config"
	"surveyclean/internal/metrics"
	"surveyclean/internal/migration"
	"surveyclean/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB      *sqlx.DB
	Metrics *metrics.Metrics

	// Repositories (data access layer); nil without a database
	RunRepo ports.RunRepository

	// Cleaning components
	Profile  *profile.Profile
	Reader   *excel.DataReader
	Cleaner  *cleaner.Cleaner
	Sessions *app.SessionService
}

// New creates a new dependency injection container. Everything is kept in
// memory until InitWithDatabase is called.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		Reader:  excel.NewDataReader(excel.DefaultReaderConfig(), logger),
	}

	if cfg.Cleaning.ProfilePath != "" {
		p, err := profile.Load(cfg.Cleaning.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load cleaning profile: %w", err)
		}
		c.Profile = p
		logger.Info("cleaning profile %q loaded from %s", p.Name, cfg.Cleaning.ProfilePath)
	}

	noise := cleaner.DefaultNoise()
	if cfg.Cleaning.NoiseSeed != 0 {
		noise = cleaner.NewSeededNoise(cfg.Cleaning.NoiseSeed)
	}
	c.Cleaner = cleaner.NewCleaner(noise, logger)

	c.initServices()
	return c, nil
}

// InitWithDatabase migrates the schema and switches sessions to persisted mode
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	if err := migration.NewRunner(c.Logger).Run(ctx, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.DB = db
	c.RunRepo = postgres.NewRunRepository(db)
	c.initServices()

	c.Logger.Info("container initialized with database persistence")
	return nil
}

// serviceOptions applies the loaded profile on top of the process defaults
func (c *Container) serviceOptions() app.SessionServiceOptions {
	defaults := c.Profile.Apply(c.Config.Cleaning.Defaults).Normalize()
	return app.SessionServiceOptions{
		Cleaner:    c.Cleaner,
		Repository: c.RunRepo,
		Metrics:    c.Metrics,
		Defaults:   defaults,
		Weights:    c.Profile.ApplyWeights(c.Config.Weights),
		Logger:     c.Logger,
	}
}

func (c *Container) initServices() {
	c.Sessions = app.NewSessionService(c.serviceOptions())
}

// Server builds the HTTP handler
func (c *Container) Server() *api.Server {
	return api.NewServer(api.Config{
		MaxUploadMB:         c.Config.Server.MaxUploadMB,
		MaxReportOperations: 50,
	}, c.Sessions, c.Reader, c.Metrics, c.Logger)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	c.Logger.Sync()
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
