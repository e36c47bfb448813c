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
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"kanjizoo/internal/config"
	"kanjizoo/internal/domain"
	"kanjizoo/internal/game"
	fileloader "kanjizoo/internal/infra/file"
	"kanjizoo/internal/infra/memory"
	pgloader "kanjizoo/internal/infra/postgres"
	rediscatalog "kanjizoo/internal/infra/redis"
	transport "kanjizoo/internal/transport/http"
)

// catalogRepository is what the server needs from either cache flavor.
type catalogRepository interface {
	GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the game server",
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

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	catalogID := cfg.Catalog.ID
	if catalogID == "" {
		catalogID = "animals"
	}

	var loader memory.CatalogLoader = memory.NewStaticCatalogLoader(defaultCatalogs())
	switch {
	case pool != nil:
		loader = pgloader.NewCatalogLoader(pool)
	case cfg.Catalog.File != "":
		loader = fileloader.NewCatalogLoader(cfg.Catalog.File)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var repo catalogRepository
	if redisClient != nil {
		repo = rediscatalog.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		repo = memory.NewCatalogRepository(loader, catalogTTL)
	}

	catalog, err := repo.GetCatalog(ctx, catalogID)
	if err != nil {
		return err
	}
	if len(catalog.Items) < domain.MinCatalogSize {
		return domain.ErrCatalogTooSmall
	}
	logger.Info().Str("catalog", catalogID).Int("items", len(catalog.Items)).Msg("catalog loaded")

	hub := transport.NewHub(logger.With().Str("component", "hub").Logger())
	session := game.New(catalog.Items, hub, game.DefaultSettings(), nil,
		logger.With().Str("component", "session").Logger())

	sessionCtx, cancelSession := context.WithCancel(context.Background())
	defer cancelSession()
	go session.Run(sessionCtx)

	wsHandler := transport.NewWSHandler(session, hub, logger.With().Str("component", "ws").Logger())

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
		logger.Info().Str("port", finalPort).Msg("starting kanjizoo server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info().Msg("shutting down server...")
	case <-ctx.Done():
		logger.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// defaultCatalogs provides the built-in content used when neither a catalog
// file nor Postgres is configured.
func defaultCatalogs() map[string]domain.Catalog {
	return map[string]domain.Catalog{
		"animals": {
			ID: "animals",
			Items: []domain.CatalogItem{
				{Symbol: "犬", Phonetic: "いぬ", Meaning: "dog", Picture: "🐕"},
				{Symbol: "猫", Phonetic: "ねこ", Meaning: "cat", Picture: "🐱"},
				{Symbol: "鳥", Phonetic: "とり", Meaning: "bird", Picture: "🐦"},
				{Symbol: "魚", Phonetic: "さかな", Meaning: "fish", Picture: "🐟"},
				{Symbol: "馬", Phonetic: "うま", Meaning: "horse", Picture: "🐴"},
				{Symbol: "牛", Phonetic: "うし", Meaning: "cow", Picture: "🐄"},
				{Symbol: "虫", Phonetic: "むし", Meaning: "insect", Picture: "🐛"},
				{Symbol: "羊", Phonetic: "ひつじ", Meaning: "sheep", Picture: "🐑"},
				{Symbol: "熊", Phonetic: "くま", Meaning: "bear", Picture: "🐻"},
				{Symbol: "豚", Phonetic: "ぶた", Meaning: "pig", Picture: "🐷"},
				{Symbol: "兎", Phonetic: "うさぎ", Meaning: "rabbit", Picture: "🐰"},
				{Symbol: "象", Phonetic: "ぞう", Meaning: "elephant", Picture: "🐘"},
			},
		},
	}
}
