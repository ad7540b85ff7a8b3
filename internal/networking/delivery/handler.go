package delivery

import (
	"errors"
	"net/http"
	"strings"

	"github.com/abbywylie/Ripple/internal/networking/domain"
	"github.com/abbywylie/Ripple/internal/networking/dto"
	"github.com/abbywylie/Ripple/internal/networking/usecase"

	"github.com/gin-gonic/gin"
)

// SyncQueue accepts background sync jobs
type SyncQueue interface {
	Enqueue(job usecase.SyncJob) bool
}

type NetworkingHandler struct {
	syncUsecase    *usecase.SyncUsecase
	contactUsecase *usecase.ContactUsecase
	queue          SyncQueue
}

func NewNetworkingHandler(syncUsecase *usecase.SyncUsecase, contactUsecase *usecase.ContactUsecase, queue SyncQueue) *NetworkingHandler {
	return &NetworkingHandler{
		syncUsecase:    syncUsecase,
		contactUsecase: contactUsecase,
		queue:          queue,
	}
}

// Sync runs the pipeline over the user's recent mail
// POST /api/gmail/sync
func (h *NetworkingHandler) Sync(c *gin.Context) {
	userID := c.GetString("userID")

	if async := c.Query("async"); async == "1" || async == "true" {
		if h.queue == nil || !h.queue.Enqueue(usecase.SyncJob{UserID: userID, Trigger: usecase.TriggerManual}) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sync queue is full"})
			return
		}
		c.JSON(http.StatusAccepted, dto.SyncQueuedResponse{Queued: true, UserID: userID})
		return
	}

	report, err := h.syncUsecase.SyncUser(c.Request.Context(), userID, usecase.TriggerManual)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Status returns the Gmail connection and last sync of the user
// GET /api/gmail/status
func (h *NetworkingHandler) Status(c *gin.Context) {
	status, err := h.syncUsecase.Status(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListContacts returns the user's networking contacts
// GET /api/gmail/contacts?q=
func (h *NetworkingHandler) ListContacts(c *gin.Context) {
	contacts, err := h.contactUsecase.ListContacts(c.Request.Context(), c.GetString("userID"), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	c.JSON(http.StatusOK, dto.ContactListResponse{Contacts: contacts, Total: len(contacts)})
}

// GetContact returns one contact with its threads
// GET /api/gmail/contacts/:email
func (h *NetworkingHandler) GetContact(c *gin.Context) {
	email := strings.TrimSpace(c.Param("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	detail, err := h.contactUsecase.GetContact(c.Request.Context(), email, c.GetString("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ThreadMessages returns the stored summaries of a thread
// GET /api/gmail/threads/:id/messages
func (h *NetworkingHandler) ThreadMessages(c *gin.Context) {
	threadID := c.Param("id")
	messages, err := h.contactUsecase.ThreadMessages(c.Request.Context(), threadID, c.GetString("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ThreadMessagesResponse{ThreadID: threadID, Messages: messages})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotConnected):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSyncInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
