package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"documind/internal/config"
	"documind/internal/embedding"
	"documind/internal/llmservice"
	"documind/internal/rag"
	"documind/internal/server"
	"documind/internal/session"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	openAIEmbedder, err := embedding.NewOpenAIEmbedder(
		cfg.Embedding.BaseURL,
		config.APIKey(cfg.Embedding.APIKeyEnv),
		cfg.Embedding.Model,
		cfg.Embedding.Timeout(),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create embedder")
	}
	var embedder embedding.Embedder = openAIEmbedder
	if cfg.Embedding.CacheSize > 0 {
		embedder = embedding.WithCache(embedder, cfg.Embedding.CacheSize, cfg.Embedding.CacheTTL())
	}

	generator, err := llmservice.NewOpenAIGenerator(
		cfg.LLM.BaseURL,
		config.APIKey(cfg.LLM.APIKeyEnv),
		cfg.LLM.Model,
		cfg.LLM.Timeout(),
		cfg.LLM.Temperature,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create generator")
	}

	store, err := session.NewStore(cfg.Session.MaxSessions)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create session store")
	}

	engine := rag.New(store, embedder, generator, rag.Config{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
		TopK:         cfg.RAG.TopK,
		HistoryTurns: cfg.RAG.HistoryTurns,
		IndexBackend: cfg.RAG.IndexBackend,
	})

	handler := server.NewHandler(engine)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.NewRouter(handler, cfg.Server.MaxUploadBytes()),
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("index_backend", cfg.RAG.IndexBackend).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped")
}
