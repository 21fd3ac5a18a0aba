package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"reviewlens/analysis"
	"reviewlens/api"
	"reviewlens/config"
	"reviewlens/db"
	"reviewlens/feed"
	"reviewlens/insights"
)

func loadLexicon(path string) *analysis.Lexicon {
	if path == "" {
		log.Println("📖 Using built-in lexicon")
		return analysis.DefaultLexicon()
	}
	lex, err := analysis.LoadLexicon(path)
	if err != nil {
		log.Fatalf("❌ Lexicon load failed: %v", err)
	}
	log.Printf("📖 Loaded lexicon from %s", path)
	return lex
}

func main() {
	log.Println("🚀 Starting reviewlens feedback service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("❌ Database initialization failed:", err)
	}
	defer store.Close()
	log.Printf("✅ Using %s feedback store", cfg.Database.Driver)

	analyzer := analysis.NewAnalyzer(loadLexicon(cfg.Lexicon.Path))

	// Initialize services
	feedService := feed.NewFeedService(store, analyzer)
	insightsService := insights.NewInsightsService(store)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewRouter(cfg.Server, feedService, insightsService),
	}

	go func() {
		log.Printf("🚀 Server starting on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Graceful shutdown failed: %v", err)
	}
}
