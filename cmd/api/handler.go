package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authDelivery "github.com/abbywylie/Ripple/internal/auth/delivery"
	authUsecase "github.com/abbywylie/Ripple/internal/auth/usecase"
	netDelivery "github.com/abbywylie/Ripple/internal/networking/delivery"
	netRepo "github.com/abbywylie/Ripple/internal/networking/repository"
	netScheduler "github.com/abbywylie/Ripple/internal/networking/scheduler"
	netUsecase "github.com/abbywylie/Ripple/internal/networking/usecase"
	"github.com/abbywylie/Ripple/pkg/ai"
	"github.com/abbywylie/Ripple/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase       authUsecase.AuthUsecase
	gmailHandler      *authDelivery.GmailHandler
	networkingHandler *netDelivery.NetworkingHandler
	config            *config.Config

	SyncWorker *netUsecase.SyncWorkerService
	poller     *netScheduler.Poller
}

func NewHandler(cfg *config.Config, authUc authUsecase.AuthUsecase, gmailUc *authUsecase.GmailUsecase, store netRepo.ThreadStateRepository, runs netRepo.SyncRunRepository) *Handler {
	// Initialize runtime config for settings API
	InitRuntimeConfig(cfg.OllamaBaseURL, cfg.OllamaModel)

	// Oracle provider with dynamic Ollama getters for runtime updates
	provider, err := ai.NewProvider(ai.Config{
		Provider:     ai.ProviderType(cfg.AIProvider),
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModels: ai.OpenAIModels{
			Classify: cfg.OpenAIClassifyModel,
			Summary:  cfg.OpenAISummaryModel,
			Meeting:  cfg.OpenAIMeetingModel,
		},
		GeminiAPIKey:     cfg.GeminiApiKey,
		GeminiModel:      cfg.GeminiModel,
		GetOllamaBaseURL: GetRuntimeOllamaBaseURL,
		GetOllamaModel:   GetRuntimeOllamaModel,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize AI provider: %v. Every message will be treated as not networking.", err)
	} else {
		log.Printf("AI provider initialized: %s", provider.Name())
	}
	oracle := ai.NewOracle(provider, cfg.OracleTimeout)

	processor := netUsecase.NewMessageProcessor(store, oracle)
	syncUc := netUsecase.NewSyncUsecase(gmailUc, processor, runs, cfg.MaxMessagesPerPoll)
	contactUc := netUsecase.NewContactUsecase(store)

	syncWorker := netUsecase.NewSyncWorkerService(syncUc, cfg.SyncWorkers)
	syncWorker.Start()

	poller := netScheduler.NewPoller(gmailUc, syncWorker, cfg.PollInterval)
	poller.Start()

	return &Handler{
		authUsecase:       authUc,
		gmailHandler:      authDelivery.NewGmailHandler(gmailUc, cfg.FrontendURL, pubsubTopicPath(cfg)),
		networkingHandler: netDelivery.NewNetworkingHandler(syncUc, contactUc, syncWorker),
		config:            cfg,
		SyncWorker:        syncWorker,
		poller:            poller,
	}
}

// pubsubTopicPath is the full topic resource Gmail publishes to
func pubsubTopicPath(cfg *config.Config) string {
	if cfg.GoogleProjectID == "" || cfg.GooglePubSubTopic == "" {
		return ""
	}
	return "projects/" + cfg.GoogleProjectID + "/topics/" + ShortTopicName(cfg.GooglePubSubTopic)
}

// Router builds the gin engine with CORS and all routes
func (h *Handler) Router() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.gmailHandler, h.networkingHandler)
	return r
}

// Start serves HTTP until SIGINT/SIGTERM, then stops the background workers
func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    addr,
		Handler: h.Router(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errCh:
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = srv.Shutdown(ctx)
		cancel()
	}

	h.poller.Stop()
	h.SyncWorker.Stop()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
