package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/verigraph/verigraph/internal/api"
	"github.com/verigraph/verigraph/internal/buildconfig"
	"github.com/verigraph/verigraph/internal/config"
	"github.com/verigraph/verigraph/internal/llm"
	"github.com/verigraph/verigraph/internal/retrieval"
	"github.com/verigraph/verigraph/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	provider := config.LLMProvider()
	client, err := llm.NewClient(provider, config.LLMAPIKey())
	if err != nil {
		logger.Fatal("inference client initialization failed", zap.String("provider", provider), zap.Error(err))
	}
	logger.Info("inference client initialized", zap.String("provider", provider))

	retriever := retrieval.NewHTTPRetriever(config.RetrievalURL())

	engineCfg := service.EngineConfig{
		RetrievalTopK:        config.RetrievalTopK(),
		FollowupTopK:         config.FollowupTopK(),
		MaxFollowupQueries:   config.MaxFollowupQueries(),
		MaxPaths:             config.MaxPaths(),
		MaxDepth:             config.MaxDepth(),
		MaxCandidatesPerStep: config.MaxCandidatesPerStep(),
		MaxGauntletCalls:     config.MaxGauntletCalls(),
		WallClockBudget:      config.QueryBudget(),
		MaxAnswerNodes:       config.MaxAnswerNodes(),
		Gauntlet: service.GauntletConfig{
			Weights: service.Weights{
				SourceMatcher:       config.SourceMatcherWeight(),
				HallucinationHunter: config.HallucinationHunterWeight(),
				LogicExpert:         config.LogicExpertWeight(),
			},
			AcceptThreshold:        config.AcceptThreshold(),
			ExpertTimeout:          config.ExpertTimeout(),
			MaxConsecutiveFailures: config.MaxExpertFailures(),
		},
	}

	engine := service.NewEngine(retriever, client, engineCfg, logger)
	app := api.NewApp(engine, provider, engineCfg, logger)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
