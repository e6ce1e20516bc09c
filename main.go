package main

import (
	"fmt"
	"os"

	"github.com/loglens/loglens/internal/api"
	"github.com/loglens/loglens/internal/config"
	"github.com/loglens/loglens/internal/elasticsearch"
	"github.com/loglens/loglens/internal/logger"
	"github.com/loglens/loglens/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load(config.GetConfigPath("config.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	// Initialize logger
	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting loglens service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
		logger.Bool("debug", cfg.Service.Debug),
	)

	// Setup Elasticsearch
	esClient, err := setupElasticsearch(cfg, log)
	if err != nil {
		log.Error("Failed to create Elasticsearch client", logger.Error(err))
		return 1
	}

	return runServer(cfg, esClient, log)
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, err
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// setupElasticsearch creates and connects the Elasticsearch client.
func setupElasticsearch(cfg *config.Config, log logger.Logger) (*elasticsearch.Client, error) {
	log.Info("Connecting to Elasticsearch", logger.String("url", cfg.Elasticsearch.URL))
	esClient, err := elasticsearch.NewClient(&cfg.Elasticsearch)
	if err != nil {
		return nil, err
	}
	log.Info("Successfully connected to Elasticsearch")
	return esClient, nil
}

// runServer creates the compare service and HTTP server, then runs with
// graceful shutdown.
func runServer(cfg *config.Config, esClient *elasticsearch.Client, log logger.Logger) int {
	compareService := service.NewCompareService(
		esClient,
		cfg.ChannelSpecs(),
		cfg.Service.SearchTimeout,
		cfg.Service.Version,
		log,
	)
	log.Info("Compare service initialized",
		logger.Int("channels", len(cfg.Channels)),
	)

	handler := api.NewHandler(compareService, log)
	server := api.NewServer(handler, cfg, log)

	if runErr := server.Run(); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return 1
	}

	log.Info("Loglens service exited cleanly")
	return 0
}
