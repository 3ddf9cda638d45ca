package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"geoint-analysis-service/config"
	"geoint-analysis-service/demo"
	"geoint-analysis-service/gemini"
	"geoint-analysis-service/geocode"
	"geoint-analysis-service/handlers"
	"geoint-analysis-service/llm"
	"geoint-analysis-service/metrics"
	"geoint-analysis-service/openai"
	"geoint-analysis-service/orchestrator"
	"geoint-analysis-service/session"
	"geoint-analysis-service/stubllm"
)

func main() {
	cfg := config.Load()
	log.SetLevelFromString(cfg.LogLevel)

	var client llm.Client
	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Fatal("GEMINI_API_KEY environment variable is required when LLM_PROVIDER=gemini")
		}
		client = gemini.NewClient(cfg)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required when LLM_PROVIDER=openai")
		}
		client = openai.NewClient(cfg)
	case "stub":
		client = stubllm.NewClient()
	default:
		log.Fatalf("Unknown LLM_PROVIDER %q (want gemini, openai or stub)", cfg.LLMProvider)
	}
	log.Infof("Using %s analysis provider", client.SourceName())

	metrics.Register()

	sessions := session.NewManager(
		session.Limits{LogCapacity: cfg.SystemLogCapacity, ChatCapacity: cfg.ChatCapacity},
		cfg.FlickerInterval,
	)
	defer sessions.Close()

	orch := orchestrator.New(client)
	geocoder := geocode.NewCachedService(geocode.NewClient(cfg.NominatimBaseURL))
	h := handlers.NewHandlers(sessions, orch, demo.NewLoader(cfg), geocoder)

	router := gin.Default()
	h.RegisterRoutes(router.Group("/api/v1"))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
