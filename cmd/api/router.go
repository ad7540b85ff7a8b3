package api

import (
	"net/http"
	"strings"

	authDelivery "github.com/abbywylie/Ripple/internal/auth/delivery"
	authUsecase "github.com/abbywylie/Ripple/internal/auth/usecase"
	netDelivery "github.com/abbywylie/Ripple/internal/networking/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, gmailHandler *authDelivery.GmailHandler, networkingHandler *netDelivery.NetworkingHandler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		gmail := api.Group("/gmail")
		{
			// Google redirects here without our bearer token; the state carries the user
			gmail.GET("/oauth/callback", gmailHandler.Callback)

			protected := gmail.Group("")
			protected.Use(authDelivery.AuthMiddleware(authUsecase))
			{
				protected.GET("/oauth/url", gmailHandler.AuthorizationURL)
				protected.DELETE("/oauth", gmailHandler.Disconnect)
				protected.POST("/watch", gmailHandler.Watch)

				protected.POST("/sync", networkingHandler.Sync)
				protected.GET("/status", networkingHandler.Status)
				protected.GET("/contacts", networkingHandler.ListContacts)
				protected.GET("/contacts/:email", networkingHandler.GetContact)
				protected.GET("/threads/:id/messages", networkingHandler.ThreadMessages)
			}
		}

		// Settings routes (public) - Runtime configuration
		settings := api.Group("/settings")
		{
			settings.GET("/ollama", GetOllamaSettings)
			settings.PUT("/ollama", UpdateOllamaSettings)
			settings.POST("/ollama/test", TestOllamaConnection)
		}
	}
}

// ShortTopicName extracts the topic id from a full Pub/Sub resource name
func ShortTopicName(topic string) string {
	if parts := strings.Split(topic, "/"); len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return topic
}
