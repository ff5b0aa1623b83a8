package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m2tx/kimap_agent/assets"
	"github.com/m2tx/kimap_agent/internal/agent"
	"github.com/m2tx/kimap_agent/internal/config"
	"github.com/m2tx/kimap_agent/internal/functions"
	"github.com/m2tx/kimap_agent/internal/geocoding"
	"github.com/m2tx/kimap_agent/internal/places"
	"github.com/m2tx/kimap_agent/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/genai"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return err
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}))
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Warn("mongodb disconnect", "error", err)
		}
	}()

	database := mongoClient.Database(cfg.MongoDB)

	sessions, closeSessions, err := openSessionRepository(cfg, database)
	if err != nil {
		return err
	}
	defer closeSessions()

	svc := places.NewService(repository.NewMongoPlaceRepository(database), logger)
	geocoder := geocoding.New(cfg.MapsKey,
		geocoding.WithBaseURL(cfg.GeocodingURL),
		geocoding.WithLogger(logger),
	)

	registry, err := functions.NewRegistry(svc, geocoder)
	if err != nil {
		return err
	}

	completer := agent.NewGeminiCompleter(client, cfg.Model, agent.GenerationConfig{
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
		MaxOutputTokens: cfg.MaxOutputTokens,
	})

	a := agent.New(completer, registry, assets.SystemInstruction,
		agent.WithSessionRepository(sessions),
		agent.WithLogger(logger),
		agent.WithMaxIterations(cfg.MaxIterations),
		agent.WithCallTimeout(cfg.CallTimeout),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           newHandler(a, newClientLimiter(cfg.RateLimit), logger.With("component", "http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}()

	logger.Info("Kimap GPT ready",
		"addr", "http://localhost:"+cfg.HTTPPort,
		"model", cfg.Model,
		"session_store", cfg.SessionStore,
		"functions", len(registry.Names()))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func openSessionRepository(cfg config.Config, database *mongo.Database) (repository.SessionRepository, func(), error) {
	switch cfg.SessionStore {
	case config.StoreSQLite:
		repo, err := repository.OpenSQLiteSessionRepository(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { repo.Close() }, nil
	case config.StoreMemory:
		return repository.NewMemorySessionRepository(), func() {}, nil
	default:
		return repository.NewMongoSessionRepository(database, ""), func() {}, nil
	}
}
