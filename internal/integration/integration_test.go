package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"gamemaster-quiz/internal/app"
	"gamemaster-quiz/internal/domain"
	"gamemaster-quiz/internal/infra/memory"
	pgcatalog "gamemaster-quiz/internal/infra/postgres"
	pgmigrations "gamemaster-quiz/internal/infra/postgres/migrations"
	infraredis "gamemaster-quiz/internal/infra/redis"
	"gamemaster-quiz/internal/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizOverPostgresCatalogAndRedisCache(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	log := logger.NewNop()
	store := pgcatalog.NewCatalog(pool)
	cache := infraredis.NewBankCache(redisClient, store, 5*time.Minute)
	catalog := app.NewCatalogService(store, cache, log)

	written, err := catalog.SeedDefaults(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(written) != 3 {
		t.Fatalf("expected 3 seeded banks, got %v", written)
	}
	refs, err := catalog.ListAvailable(ctx)
	if err != nil || len(refs) != 3 {
		t.Fatalf("list: %+v %v", refs, err)
	}

	users := memory.NewUserStore()
	scores := memory.NewScoreStore()
	auth := app.NewAuthService(users, "salt", log)
	scoring := app.NewScoreService(scores, users, 50, log)
	quiz := app.NewQuizService(catalog, users, scoring, log)

	if err := auth.Register(ctx, "alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	session, err := quiz.LoadQuiz(ctx, "HISTORY", false, "alice")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	for {
		q, ok := session.CurrentQuestion()
		if !ok {
			break
		}
		if _, err := session.SubmitAnswer(ctx, q.CorrectIndex); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if session.Score() != 50 {
		t.Fatalf("expected 50 points, got %d", session.Score())
	}
	if n, err := redisClient.Exists(ctx, "quiz:bank:builtin:history").Result(); err != nil || n != 1 {
		t.Fatalf("expected history cached in redis, n=%d err=%v", n, err)
	}

	ref, err := catalog.CreateCustom(ctx, "alice", "Quick", []domain.Question{{Prompt: "Q?", Options: []string{"a", "b"}, CorrectIndex: 1}})
	if err != nil {
		t.Fatalf("create custom: %v", err)
	}
	bank, err := catalog.GetBank(ctx, domain.BankKey{ID: ref.ID, Custom: true})
	if err != nil || bank.CreatedBy != "alice" || len(bank.Questions[0].Options) != 4 {
		t.Fatalf("custom bank round trip: %+v %v", bank, err)
	}
	if err := catalog.DeleteBank(ctx, domain.BankKey{ID: ref.ID, Custom: true}); err != nil {
		t.Fatalf("delete custom: %v", err)
	}
	if _, err := catalog.GetBank(ctx, domain.BankKey{ID: ref.ID, Custom: true}); err == nil {
		t.Fatalf("deleted bank should not be served from cache")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
