package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"gamemaster-quiz/internal/app"
	"gamemaster-quiz/internal/config"
	"gamemaster-quiz/internal/infra/jsonfile"
	"gamemaster-quiz/internal/infra/memory"
	pgcatalog "gamemaster-quiz/internal/infra/postgres"
	rediscache "gamemaster-quiz/internal/infra/redis"
	"gamemaster-quiz/internal/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// application is the set of services every command works with.
type application struct {
	cfg     config.Config
	log     *logger.Logger
	auth    *app.AuthService
	scoring *app.ScoreService
	catalog *app.CatalogService
	quiz    *app.QuizService
	admin   *app.AdminService
	closers []func()
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.log.Sync()
}

// buildApp opens the stores selected by the config and wires the services.
func buildApp(ctx context.Context, configPath string) (*application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &application{cfg: cfg, log: log}

	users, err := jsonfile.OpenUserStore(filepath.Join(cfg.Data.Dir, "users.json"))
	if err != nil {
		a.Close()
		return nil, err
	}
	scores, err := jsonfile.OpenScoreStore(filepath.Join(cfg.Data.Dir, "scores.json"))
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := a.openBankStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	cache, err := a.openBankCache(store)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.catalog = app.NewCatalogService(store, cache, log)
	a.scoring = app.NewScoreService(scores, users, cfg.Scoring.LeaderboardSize, log)
	a.auth = app.NewAuthService(users, cfg.Auth.Salt, log)
	a.quiz = app.NewQuizService(a.catalog, users, a.scoring, log, app.WithPoints(cfg.Scoring.PointsPerAnswer))
	a.admin = app.NewAdminService(users, scores, a.scoring, a.catalog, jsonfile.NewArchive(cfg.Data.Dir, cfg.Data.BackupDir), log)

	log.Debug("application ready", "data_dir", cfg.Data.Dir, "catalog", cfg.Catalog.Source, "cache", cfg.Catalog.Cache)
	return a, nil
}

func (a *application) openBankStore(ctx context.Context) (app.BankStore, error) {
	switch a.cfg.Catalog.Source {
	case "files":
		catalog := jsonfile.NewCatalog(filepath.Join(a.cfg.Data.Dir, "quizzes"))
		if err := catalog.EnsureDirs(); err != nil {
			return nil, err
		}
		return catalog, nil
	case "postgres":
		if err := runMigrationsWithConfig(ctx, a.cfg, a.log); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, a.cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		return pgcatalog.NewCatalog(pool), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", a.cfg.Catalog.Source)
	}
}

func (a *application) openBankCache(store app.BankStore) (app.BankCache, error) {
	ttl := config.TTLDuration(a.cfg.Catalog.TTL, defaultCacheTTL)
	switch a.cfg.Catalog.Cache {
	case "memory":
		return memory.NewBankCache(store, ttl), nil
	case "none":
		return memory.NewBankCache(store, 0), nil
	case "redis":
		if a.cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis cache selected but redis addr not configured")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		a.closers = append(a.closers, func() { _ = client.Close() })
		return rediscache.NewBankCache(client, store, ttl), nil
	default:
		return nil, fmt.Errorf("unknown catalog cache %q", a.cfg.Catalog.Cache)
	}
}
