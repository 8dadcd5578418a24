package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/catalog"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/config"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/db"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/osrs"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/repository"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/service"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Catalog         *catalog.Catalog
	OSRS            *osrs.Client
	AuthService     *service.AuthService
	GoalService     *service.GoalService
	ProgressService *service.ProgressService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database and run migrations
	database, err := db.Open(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to load catalog: %v", err)
	}

	// Repositories
	goalRepository := repository.NewGoalRepository(database)
	progressRepository := repository.NewProgressRepository(database)

	// Storage (optional, screenshots are dropped without it)
	var screenshots storage.Storage
	if cfg.StorageEnabled() {
		s3Storage, err := storage.New(cfg)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to initialize storage: %v", err)
		}
		screenshots = s3Storage
	}

	// Services
	progressService, err := service.NewProgressService(progressRepository, screenshots, cfg.WebhookSecret)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize progress service: %v", err)
	}

	osrsClient := osrs.NewClient(osrs.Options{
		Proxies:   cfg.HiscoresProxies,
		Timeout:   cfg.HiscoresTimeout,
		UserAgent: cfg.UserAgent,

		CollectionLogURL: cfg.CollectionLogURL,
	})

	return &App{
		Cfg:             cfg,
		DB:              database,
		Catalog:         cat,
		OSRS:            osrsClient,
		AuthService:     service.NewAuthService(cfg.Secret(), cfg.JWTExpiry),
		GoalService:     service.NewGoalService(goalRepository),
		ProgressService: progressService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
