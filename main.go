package main

import (
	"context"
	"log"

	api "github.com/abbywylie/Ripple/cmd/api"
	authdomain "github.com/abbywylie/Ripple/internal/auth/domain"
	authRepo "github.com/abbywylie/Ripple/internal/auth/repository"
	authUsecase "github.com/abbywylie/Ripple/internal/auth/usecase"
	netdomain "github.com/abbywylie/Ripple/internal/networking/domain"
	netRepo "github.com/abbywylie/Ripple/internal/networking/repository"
	"github.com/abbywylie/Ripple/internal/notification"
	"github.com/abbywylie/Ripple/pkg/config"
	"github.com/abbywylie/Ripple/pkg/database"
	"github.com/abbywylie/Ripple/pkg/gmail"
	"github.com/abbywylie/Ripple/pkg/tokencrypt"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate the tables this service owns
	models := []interface{}{
		&netdomain.Contact{}, &netdomain.Thread{}, &netdomain.Message{}, &netdomain.SyncRun{},
		&authdomain.GmailToken{}, &authdomain.OAuthState{},
	}
	// The users table belongs to the Ripple backend; only a local database gets one
	if !database.IsPostgres(db) {
		models = append(models, &authdomain.User{})
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	gmailTokenRepo := authRepo.NewGmailTokenRepository(db)
	threadStateRepo := netRepo.NewThreadStateRepository(db)
	syncRunRepo := netRepo.NewSyncRunRepository(db)

	cipher := tokencrypt.New(cfg.TokenEncryptionKey)
	if !cipher.Enabled() {
		log.Printf("[WARN] TOKEN_ENCRYPTION_KEY not set, Gmail tokens are stored in plaintext")
	}

	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	if !gmailService.Configured() {
		log.Printf("[WARN] GOOGLE_OAUTH_CLIENT_ID/SECRET not set, Gmail connection disabled")
	}

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, cfg)
	gmailUsecaseInstance := authUsecase.NewGmailUsecase(gmailTokenRepo, gmailService, cipher)

	// Initialize HTTP handler, sync workers and poller
	handler := api.NewHandler(cfg, authUsecaseInstance, gmailUsecaseInstance, threadStateRepo, syncRunRepo)

	// Initialize Notification Service (Pub/Sub)
	// Only start if project ID is configured
	if cfg.GoogleProjectID != "" {
		topicName := api.ShortTopicName(cfg.GooglePubSubTopic)
		if topicName == "" {
			topicName = "gmail-updates"
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		notifService, err := notification.NewService(ctx, cfg.GoogleProjectID, topicName, cfg.GoogleCredentials, gmailUsecaseInstance, handler.SyncWorker)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
		} else {
			defer notifService.Close()
			go notifService.Start(ctx)
		}
	} else {
		log.Printf("[WARN] GoogleProjectID not configured, notification service disabled")
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
