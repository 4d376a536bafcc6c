package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/DaanHessen/rollwright/internal/rng"
	"github.com/DaanHessen/rollwright/internal/roller"
	"github.com/DaanHessen/rollwright/internal/store"
	"github.com/DaanHessen/rollwright/internal/text"
	"github.com/DaanHessen/rollwright/internal/util"
)

// migrateTimeout bounds the automatic migration run before opening the store.
const migrateTimeout = 30 * time.Second

// app carries what the commands share: configuration, flag overrides and the open store.
type app struct {
	cfg util.Config

	seed     string
	dsn      string
	logLevel string
	plain    bool

	db *store.DB
}

// applyFlags lets command line flags win over the environment.
func (a *app) applyFlags() {
	if a.seed != "" {
		a.cfg.SeedText = a.seed
	}
	if a.dsn != "" {
		a.cfg.DSN = a.dsn
	}
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}
	a.cfg.Version = version
}

// openStore migrates and opens the database when a DSN is configured.
func (a *app) openStore(ctx context.Context) error {
	if a.cfg.DSN == "" {
		return store.ErrNoDSN
	}
	if a.db != nil {
		return nil
	}
	mig, err := store.NewMigrator(a.cfg.DSN)
	if err != nil {
		return err
	}
	migCtx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()
	if err := mig.Up(migCtx); err != nil && !errors.Is(err, store.ErrNoChange) {
		return err
	}
	db, err := store.Open(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.db = db
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

// service builds the roller. Without a DSN the service runs without persistence;
// a configured but unreachable database is an error only when requireStore is set.
func (a *app) service(ctx context.Context, requireStore bool) (roller.Service, error) {
	seed, err := a.seedValue()
	if err != nil {
		return nil, err
	}
	opts := roller.Options{
		Seed:      seed,
		Limits:    a.cfg.Limits(),
		Sampling:  a.cfg.Sampling(),
		CacheSize: a.cfg.CacheSize,
		CacheTTL:  a.cfg.CacheTTL,
	}
	switch err := a.openStore(ctx); {
	case err == nil:
		opts.History = store.NewRollRepo(a.db)
		opts.Presets = store.NewPresetRepo(a.db)
	case requireStore && errors.Is(err, store.ErrNoDSN):
		return nil, fmt.Errorf("%w: set DATABASE_URL or pass --dsn", err)
	case requireStore:
		return nil, err
	case !errors.Is(err, store.ErrNoDSN):
		slog.Warn("Persistence disabled", "error", err)
	}
	return roller.NewService(opts), nil
}

func (a *app) seedValue() (rng.Seed, error) {
	if a.cfg.SeedText == "" {
		s, err := rng.RandomSeed()
		if err != nil {
			return rng.Seed{}, err
		}
		a.cfg.SeedText = s.Text
		slog.Debug("Generated seed", "seed", s.Text)
		return s, nil
	}
	return rng.NewSeed(a.cfg.SeedText)
}

// renderer picks colour output only for terminals.
func (a *app) renderer(w io.Writer) text.Renderer {
	if a.plain || !isTerminal(w) {
		return text.NewPlain()
	}
	return text.NewStyled(text.PaletteFor(a.cfg.Theme))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
