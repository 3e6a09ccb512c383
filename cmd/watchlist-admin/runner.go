package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/listenupapp/watchlist-server/internal/auth"
	"github.com/listenupapp/watchlist-server/internal/cache"
	"github.com/listenupapp/watchlist-server/internal/config"
	"github.com/listenupapp/watchlist-server/internal/logger"
	"github.com/listenupapp/watchlist-server/internal/search"
	"github.com/listenupapp/watchlist-server/internal/service"
	"github.com/listenupapp/watchlist-server/internal/store/sqlite"
)

// Runner holds the services the subcommands operate on. They are opened
// against the server's data directory, so the server should be stopped
// while the CLI runs.
type Runner struct {
	out    io.Writer
	logger *slog.Logger

	store *sqlite.Store
	index *search.SearchIndex
	cache *cache.Cache

	auth   *service.AuthService
	lists  *service.ListService
	search *service.SearchService
}

// Open loads configuration and opens the store, index and cache.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	args := []string{"-env-file", cmd.String("env-file")}
	if p := cmd.String("data-path"); p != "" {
		args = append(args, "-data-path", p)
	}
	cfg, err := config.Load(args)
	if err != nil {
		return ctx, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		Environment: cfg.App.Environment,
		Writer:      os.Stderr,
	})
	return ctx, r.openServices(cfg, log.Logger)
}

func (r *Runner) openServices(cfg *config.Config, log *slog.Logger) error {
	r.logger = log

	st, err := sqlite.Open(cfg.Data.DatabasePath(), log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	r.store = st

	index, err := search.NewSearchIndex(search.Options{DataPath: cfg.Data.SearchPath(), Logger: log})
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	r.index = index

	if cfg.Cache.Enabled {
		c, err := cache.Open(cache.Options{Dir: cfg.Cache.Path, Logger: log})
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		r.cache = c
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return fmt.Errorf("load auth key: %w", err)
	}
	tokens, err := auth.NewTokenService(hex.EncodeToString(key), cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
	if err != nil {
		return err
	}

	sessions := service.NewSessionService(st, tokens, log)
	r.auth = service.NewAuthService(st, tokens, sessions, log)
	r.lists = service.NewListService(st, index, log)
	r.search = service.NewSearchService(service.SearchServiceOptions{
		Cache:    r.cache,
		CacheTTL: cfg.Cache.TTL,
		Index:    index,
		Store:    st,
		Logger:   log,
	})
	return nil
}

// Close releases everything Open acquired.
func (r *Runner) Close(_ context.Context, _ *cli.Command) error {
	var errs []error
	if r.cache != nil {
		errs = append(errs, r.cache.Close())
	}
	if r.index != nil {
		errs = append(errs, r.index.Close())
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	return errors.Join(errs...)
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}
