package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/m2tx/kimap_agent/internal/config"
	"github.com/m2tx/kimap_agent/internal/functions"
	"github.com/m2tx/kimap_agent/internal/geocoding"
	"github.com/m2tx/kimap_agent/internal/mcpserver"
	"github.com/m2tx/kimap_agent/internal/places"
	"github.com/m2tx/kimap_agent/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	version bool
	debug   bool
)

func init() {
	flag.BoolVar(&version, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
}

func main() {
	flag.Parse()

	if version {
		fmt.Printf("%s version %s\n", mcpserver.ServerName, mcpserver.ServerVersion)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logLevel := cfg.LogLevel
	if debug {
		logLevel = slog.LevelDebug
	}

	// stdout carries the MCP protocol.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	mongoClient, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}))
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(ctx)

	svc := places.NewService(repository.NewMongoPlaceRepository(mongoClient.Database(cfg.MongoDB)), logger)
	geocoder := geocoding.New(cfg.MapsKey,
		geocoding.WithBaseURL(cfg.GeocodingURL),
		geocoding.WithLogger(logger),
	)

	registry, err := functions.NewRegistry(svc, geocoder)
	if err != nil {
		return err
	}

	srv, err := mcpserver.New(registry, logger)
	if err != nil {
		return err
	}

	logger.Info("starting Kimap MCP server", "functions", len(registry.Names()), "debug", debug)
	return srv.Run()
}
