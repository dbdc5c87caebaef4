package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-arena-service/internal/arena"
	"quiz-arena-service/internal/config"
	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/infra/memory"
	pgstore "quiz-arena-service/internal/infra/postgres"
	redisstore "quiz-arena-service/internal/infra/redis"
	transport "quiz-arena-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the arena server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 4*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.SetLoader = memory.NewStaticSetLoader(sampleSets())
	if pool != nil {
		loader = pgstore.NewSetLoader(pool)
	}

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var bank arena.QuestionBank
	if redisClient != nil {
		bank = redisstore.NewQuestionBank(redisClient, loader, bankTTL)
	} else {
		bank = memory.NewQuestionBank(loader, bankTTL)
	}

	var rooms arena.RoomStore
	if redisClient != nil {
		rooms = redisstore.NewRoomStore(redisClient, redisTTL)
	} else {
		rooms = memory.NewRoomStore()
	}

	var results arena.ResultWriter = memory.NewResultWriter()
	if pool != nil {
		results = pgstore.NewResultWriter(pool)
	}

	hub := transport.NewHub(logger)
	service := arena.NewService(rooms, results, hub, bank, arena.Options{
		Scoring:            domain.ScoringByName(cfg.Arena.Scoring),
		NotifyHostOnRejoin: cfg.Arena.NotifyHostOnRejoin,
	}, logger)
	wsHandler := transport.NewWSHandler(service, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting arena server", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server start failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleSets provides a minimal question bank; with Postgres configured the
// JSONB loader replaces this.
func sampleSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"arithmetic-1": {
			ID:    "arithmetic-1",
			Title: "Mental arithmetic warmup",
			Questions: []domain.QuestionSpec{
				{
					Text:             "What is 2 + 2?",
					Options:          []string{"3", "4", "5", "6"},
					CorrectIndex:     1,
					TimeLimitSeconds: 15,
				},
				{
					Text:             "What is 9 * 7?",
					Options:          []string{"56", "63", "72", "81"},
					CorrectIndex:     1,
					TimeLimitSeconds: 20,
				},
			},
		},
	}
}
