package delivery

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	authdomain "github.com/abbywylie/Ripple/internal/auth/domain"
	authdto "github.com/abbywylie/Ripple/internal/auth/dto"
	"github.com/abbywylie/Ripple/internal/auth/usecase"
	netdomain "github.com/abbywylie/Ripple/internal/networking/domain"

	"github.com/gin-gonic/gin"
)

// GmailHandler serves the Gmail account linking endpoints
type GmailHandler struct {
	gmailUsecase *usecase.GmailUsecase
	frontendURL  string
	pubsubTopic  string
}

func NewGmailHandler(gmailUsecase *usecase.GmailUsecase, frontendURL, pubsubTopic string) *GmailHandler {
	return &GmailHandler{
		gmailUsecase: gmailUsecase,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		pubsubTopic:  pubsubTopic,
	}
}

// AuthorizationURL returns the Google consent URL
// GET /api/gmail/oauth/url
func (h *GmailHandler) AuthorizationURL(c *gin.Context) {
	authURL, err := h.gmailUsecase.AuthorizationURL(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		if errors.Is(err, authdomain.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, authdto.AuthorizationURLResponse{AuthorizationURL: authURL})
}

// Callback completes the consent flow and redirects to the frontend
// GET /api/gmail/oauth/callback
func (h *GmailHandler) Callback(c *gin.Context) {
	if oauthErr := c.Query("error"); oauthErr != "" {
		h.redirect(c, url.Values{"error": {oauthErr}})
		return
	}

	_, err := h.gmailUsecase.HandleCallback(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		log.Printf("[GmailOAuth] Callback failed: %v", err)
		reason := "connection_failed"
		switch {
		case errors.Is(err, authdomain.ErrInvalidState):
			reason = "invalid_state"
		case errors.Is(err, authdomain.ErrNotGmailAddress):
			reason = "not_gmail"
		}
		h.redirect(c, url.Values{"error": {reason}})
		return
	}

	h.redirect(c, url.Values{"connected": {"1"}})
}

func (h *GmailHandler) redirect(c *gin.Context, params url.Values) {
	c.Redirect(http.StatusFound, h.frontendURL+"/gmail?"+params.Encode())
}

// Disconnect unlinks the user's Gmail account
// DELETE /api/gmail/oauth
func (h *GmailHandler) Disconnect(c *gin.Context) {
	err := h.gmailUsecase.Disconnect(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		if errors.Is(err, netdomain.ErrNotConnected) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Gmail disconnected"})
}

// Watch registers Gmail push notifications for the user
// POST /api/gmail/watch
func (h *GmailHandler) Watch(c *gin.Context) {
	var req authdto.WatchRequest
	_ = c.ShouldBindJSON(&req)
	topic := req.TopicName
	if topic == "" {
		topic = h.pubsubTopic
	}
	if topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pub/Sub topic is not configured"})
		return
	}

	historyID, err := h.gmailUsecase.Watch(c.Request.Context(), c.GetString("userID"), topic)
	if err != nil {
		if errors.Is(err, netdomain.ErrNotConnected) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, authdto.WatchResponse{TopicName: topic, HistoryID: historyID})
}
