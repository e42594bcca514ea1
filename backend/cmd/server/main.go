package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bakerybot/backend/internal/bot"
	"bakerybot/backend/internal/catalog"
	"bakerybot/backend/internal/embedding"
	"bakerybot/backend/internal/fallback"
	"bakerybot/backend/internal/graph"
	"bakerybot/backend/internal/line"
	"bakerybot/backend/internal/matcher"
	"bakerybot/backend/internal/session"
	"bakerybot/backend/pkg/config"
	"bakerybot/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting webhook server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify Neo4j connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Initialize dependencies
	repo := graph.NewRepository(driver)
	embedder := embedding.NewProvider(cfg.EmbeddingURL, cfg.EmbeddingModel)
	sessions := session.NewStore(cfg.SessionTTL)
	orch := bot.NewOrchestrator(
		repo,
		matcher.New(embedder),
		fallback.NewClient(cfg.FallbackURL, cfg.FallbackModel, cfg.FallbackTimeout),
		catalog.NewScraper(cfg.CatalogBaseURL, cfg.RequestTimeout),
		sessions,
		bot.Options{
			SimilarityThreshold: cfg.SimilarityThreshold,
			NameThreshold:       cfg.NameThreshold,
		},
	)
	channel := line.NewClient(cfg.LineAPIURL, cfg.LineChannelToken, cfg.RequestTimeout)

	// Evict stale conversation state in the background
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.SessionTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if evicted := sessions.Sweep(); evicted > 0 {
					log.Debug("Swept stale sessions", zap.Int("evicted", evicted))
				}
			case <-sweepDone:
				return
			}
		}
	}()

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/webhook", webhookHandler(orch, channel, cfg.RequestTimeout, log))

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	close(sweepDone)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// webhookHandler runs one conversation turn per delivery. Every delivery is
// acknowledged with 200 so the channel does not retry: malformed events are
// dropped after logging, and turn-level failures already degrade to safe
// replies inside the orchestrator
func webhookHandler(orch *bot.Orchestrator, channel *line.Client, timeout time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			log.Warn("Failed to read webhook body", zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		event, err := line.ParseEvent(body)
		if err != nil {
			// Signature verification is not performed; keep the header
			// around in the logs for debugging deliveries
			log.Warn("Dropping malformed webhook event",
				zap.Error(err),
				zap.String("signature", c.GetHeader("X-Line-Signature")),
			)
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		replies := orch.HandleMessage(ctx, event.Source.UserID, event.Message.Text)
		if len(replies) == 0 {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		if err := channel.Reply(ctx, event.ReplyToken, replies...); err != nil {
			log.Error("Reply delivery failed",
				zap.String("uid", event.Source.UserID),
				zap.Error(err),
			)
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
