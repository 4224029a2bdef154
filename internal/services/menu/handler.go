package menu

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"malume-nico/internal/logger"
	"malume-nico/internal/models"
)

// cacheControl keeps the menu in client caches for a day while letting stale
// copies be revalidated for a few extra minutes.
const cacheControl = "public, max-age=86400, stale-while-revalidate=300"

// Lister returns the active menu. *Repository implements it.
type Lister interface {
	GetActiveItems(ctx context.Context) ([]models.MenuItem, error)
}

// Handler serves the read-only menu endpoint with ETag revalidation.
type Handler struct {
	repo   Lister
	logger *logger.Logger
}

// NewHandler creates a menu handler.
func NewHandler(repo Lister, log *logger.Logger) *Handler {
	return &Handler{repo: repo, logger: log}
}

// Register attaches the menu routes to the router.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/menu", h.GetMenu)
}

// GetMenu handles GET /menu. The ETag is a digest of the serialized item
// list, so any price or availability change invalidates cached copies.
func (h *Handler) GetMenu(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	items, err := h.repo.GetActiveItems(ctx)
	if err != nil {
		requestID := logger.GenerateRequestID()
		h.logger.Error("menu_fetch_failed", "Failed to fetch menu", requestID, err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "request_id": requestID})
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}

	body, err := json.Marshal(items)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	etag := fmt.Sprintf(`"%x"`, sha256.Sum256(body))
	c.Header("ETag", etag)
	c.Header("Cache-Control", cacheControl)

	if match := c.GetHeader("If-None-Match"); match == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
