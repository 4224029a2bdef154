package order

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"malume-nico/internal/logger"
	"malume-nico/internal/models"
)

const requestTimeout = 15 * time.Second

// Handler exposes the order API over HTTP.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates an order handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// Register attaches the order routes to the router.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.POST("/orders", h.Create)
	r.GET("/orders", h.List)
	r.GET("/orders/:id", h.Get)
	r.PUT("/orders/:id/items", h.ReplaceItems)
	r.PATCH("/orders/:id/status", h.UpdateStatus)
	r.GET("/orders/:id/events", h.Events)
	r.POST("/price", h.Price)
	r.GET("/stats/daily", h.DailySummary)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if !h.service.HealthCheck(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Create handles POST /orders.
func (h *Handler) Create(c *gin.Context) {
	requestID := logger.GenerateRequestID()

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.Create(ctx, &req, requestID)
	if err != nil {
		h.writeError(c, err, requestID)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// ReplaceItems handles PUT /orders/:id/items.
func (h *Handler) ReplaceItems(c *gin.Context) {
	requestID := logger.GenerateRequestID()

	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req struct {
		Items []models.ItemSelection `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	o, items, err := h.service.ReplaceItems(ctx, orderID, req.Items, requestID)
	if err != nil {
		h.writeError(c, err, requestID)
		return
	}
	c.JSON(http.StatusOK, OrderWithItems{Order: o, Items: items})
}

// Get handles GET /orders/:id.
func (h *Handler) Get(c *gin.Context) {
	requestID := logger.GenerateRequestID()

	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	o, items, err := h.service.Get(ctx, orderID)
	if err != nil {
		h.writeError(c, err, requestID)
		return
	}
	c.JSON(http.StatusOK, OrderWithItems{Order: o, Items: items})
}

// UpdateStatus handles PATCH /orders/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	requestID := logger.GenerateRequestID()

	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	o, err := h.service.UpdateStatus(ctx, orderID, req.Status, requestID)
	if err != nil {
		h.writeError(c, err, requestID)
		return
	}
	c.JSON(http.StatusOK, o)
}

// List handles GET /orders.
func (h *Handler) List(c *gin.Context) {
	requestID := logger.GenerateRequestID()

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	orders, err := h.service.List(ctx, limit)
	if err != nil {
		h.writeError(c, err, requestID)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Events handles GET /orders/:id/events.
func (h *Handler) Events(c *gin.Context) {
	requestID := logger.GenerateRequestID()

	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	events, err := h.service.Events(ctx, orderID)
	if err != nil {
		h.writeError(c, err, requestID)
		return
	}
	if events == nil {
		events = []models.OrderEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Price handles POST /price.
func (h *Handler) Price(c *gin.Context) {
	requestID := logger.GenerateRequestID()

	var req PricePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	quote, err := h.service.PricePreview(ctx, &req)
	if err != nil {
		h.writeError(c, err, requestID)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// DailySummary handles GET /stats/daily.
func (h *Handler) DailySummary(c *gin.Context) {
	requestID := logger.GenerateRequestID()

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.Summary(ctx)
	if err != nil {
		h.writeError(c, err, requestID)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return 0, false
	}
	return id, true
}

// writeError maps service errors onto HTTP statuses: validation 400, missing
// order 404, illegal status transition 409, anything else 500 after a full
// rollback.
func (h *Handler) writeError(c *gin.Context, err error, requestID string) {
	var verr ValidationError
	var terr models.InvalidTransitionError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.As(err, &terr):
		c.JSON(http.StatusConflict, gin.H{"error": terr.Error()})
	default:
		h.logger.Error("request_failed", "Request failed", requestID, err, map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "request_id": requestID})
	}
}
