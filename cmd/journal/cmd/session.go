package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/catalog"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/config"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/db"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/flags"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/journal"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/localstore"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/osrs"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/remote"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/repository"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/views"
)

// identityKey holds the signed-in user between invocations.
const identityKey = "journal_user_id"

// session wires the engine, its stores and the dependent views for one
// command invocation.
type session struct {
	cfg     *config.Config
	kv      *localstore.BoltStore
	flags   *flags.Store
	catalog *catalog.Catalog
	remote  remote.Store

	engine  *journal.Engine
	builder *journal.Builder
	bridge  *journal.Bridge

	journal      *views.JournalView
	requirements *views.RequirementsView
	steps        *views.TaskStepsView

	stats *osrs.StatsCache
	osrs  *osrs.Client

	load    journal.LoadResult
	closers []func() error
}

func openSession(ctx context.Context) (*session, error) {
	cfg := config.Load()

	if err := os.MkdirAll(filepath.Dir(cfg.LocalStorePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	kv, err := localstore.OpenBolt(cfg.LocalStorePath)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, kv: kv, closers: []func() error{kv.Close}}

	s.catalog, err = catalog.Load()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	s.remote, err = s.openRemote(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.flags = flags.New(kv)
	s.stats = osrs.NewStatsCache(kv)
	s.osrs = osrs.NewClient(osrs.Options{
		Proxies:   cfg.HiscoresProxies,
		Timeout:   cfg.HiscoresTimeout,
		UserAgent: cfg.UserAgent,

		CollectionLogURL: cfg.CollectionLogURL,
	})

	s.engine = journal.New(kv, s.flags, journal.Options{
		Remote:        s.remote,
		RemoteTimeout: cfg.RemoteTimeout,
	})
	s.builder = journal.NewBuilder(s.catalog, s.flags)
	s.journal = views.NewJournalView()
	s.requirements = views.NewRequirementsView(s.catalog, s.stats)
	s.steps = views.NewTaskStepsView(s.catalog, s.flags)
	s.bridge = journal.NewBridge(s.engine, s.flags, s.catalog, s.journal, s.requirements, s.steps)
	s.closers = append(s.closers, func() error {
		s.bridge.Close()
		s.engine.Close()
		return nil
	})

	userID, err := s.identity(ctx)
	if err != nil {
		slog.Warn("failed to read signed-in identity", "error", err)
	}
	if userID != "" && s.remote != nil {
		s.load, err = s.engine.SignIn(ctx, userID)
		if err != nil {
			s.Close()
			return nil, err
		}
	} else {
		s.load = s.engine.LoadGoals(ctx)
	}
	for _, loadErr := range s.load.Errors {
		slog.Warn("goal load fell back", "error", loadErr, "source", s.load.Source)
	}

	return s, nil
}

// openRemote returns the configured remote goal store, or nil for
// local-only use.
func (s *session) openRemote(ctx context.Context) (remote.Store, error) {
	switch s.cfg.RemoteBackend {
	case "":
		return nil, nil
	case "sql":
		database, err := db.Open(s.cfg.DBDriver, s.cfg.DBConnection)
		if err != nil {
			return nil, fmt.Errorf("failed to open remote database: %w", err)
		}
		s.closers = append(s.closers, database.Close)
		return remote.NewSQLStore(repository.NewGoalRepository(database), s.cfg.RemotePollInterval), nil
	case "firestore":
		store, err := remote.NewFirestoreStore(ctx, s.cfg.FirestoreProject)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown REMOTE_BACKEND %q", s.cfg.RemoteBackend)
	}
}

func (s *session) identity(ctx context.Context) (string, error) {
	v, err := s.kv.Get(ctx, identityKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return "", nil
	}
	return string(v), err
}

// Close releases resources in reverse order of acquisition.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Error("failed to close session resource", "error", err)
		}
	}
	s.closers = nil
}
