package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-arena-service/internal/arena"
	"quiz-arena-service/internal/domain"
	pgstore "quiz-arena-service/internal/infra/postgres"
	pgmigrations "quiz-arena-service/internal/infra/postgres/migrations"
	infraredis "quiz-arena-service/internal/infra/redis"
	transport "quiz-arena-service/internal/transport/http"
)

func TestRoundEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestionSet(t, ctx, pgURL, sampleSet())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := pgstore.NewSetLoader(pool)
	bank := infraredis.NewQuestionBank(redisClient, loader, 5*time.Minute)
	rooms := infraredis.NewRoomStore(redisClient, 5*time.Minute)
	results := pgstore.NewResultWriter(pool)
	hub := transport.NewHub(nil)
	service := arena.NewService(rooms, results, hub, bank, arena.Options{}, nil)

	if err := service.CreateOrResumeRoom(ctx, "4821", "host-conn"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := service.Join(ctx, "4821", "conn-a", "u1", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := service.Join(ctx, "4821", "conn-b", "u2", "Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := service.PushBankQuestion(ctx, "4821", "host-conn", "set-1", 0); err != nil {
		t.Fatalf("push bank question: %v", err)
	}
	if err := service.SubmitAnswer(ctx, "4821", "conn-a", 1, "u1", "Alice"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := service.SubmitAnswer(ctx, "4821", "conn-b", 0, "u2", "Bob"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := service.ShowResults(ctx, "4821", "host-conn"); err != nil {
		t.Fatalf("show results: %v", err)
	}

	var raw []byte
	deadline := time.Now().Add(10 * time.Second)
	for {
		err = pool.QueryRow(ctx, `SELECT data FROM round_results WHERE room_code=$1`, "4821").Scan(&raw)
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("round result never persisted: %v", err)
	}

	var saved domain.RoundResult
	if err := json.Unmarshal(raw, &saved); err != nil {
		t.Fatalf("unmarshal saved result: %v", err)
	}
	if saved.Stats.TotalPlayers != 2 || saved.Stats.AnsweredCount != 2 {
		t.Fatalf("unexpected stats %+v", saved.Stats)
	}
	if saved.Stats.OptionCounts[0] != 1 || saved.Stats.OptionCounts[1] != 1 {
		t.Fatalf("unexpected histogram %v", saved.Stats.OptionCounts)
	}
	if saved.CorrectIndex != 1 {
		t.Fatalf("expected correct index 1 in snapshot, got %d", saved.CorrectIndex)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "arena", "POSTGRES_PASSWORD": "arenapass", "POSTGRES_DB": "arenadb"},
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
	dsn := fmt.Sprintf("postgres://arena:arenapass@%s:%s/arenadb?sslmode=disable", host, port.Port())
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

func seedQuestionSet(t *testing.T, ctx context.Context, dsn string, set domain.QuestionSet) {
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

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal set: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO question_sets (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, set.ID, string(data)); err != nil {
		t.Fatalf("insert set: %v", err)
	}
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID:    "set-1",
		Title: "Arithmetic",
		Questions: []domain.QuestionSpec{
			{
				Text:             "What is 2 + 2?",
				Options:          []string{"3", "4", "5", "6"},
				CorrectIndex:     1,
				TimeLimitSeconds: 15,
			},
		},
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
