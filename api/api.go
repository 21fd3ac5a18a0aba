// Package api exposes feedback submission, per-product listings and the
// dashboard aggregates over HTTP.
package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"reviewlens/config"
	"reviewlens/db"
	"reviewlens/feed"
	"reviewlens/insights"
)

type Handler struct {
	feed     *feed.FeedService
	insights *insights.InsightsService
}

// NewRouter registers every route on a new gin engine
func NewRouter(cfg config.ServerConfig, feedService *feed.FeedService, insightsService *insights.InsightsService) *gin.Engine {
	h := &Handler{feed: feedService, insights: insightsService}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), requestID(), cors(cfg.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/feedback", h.submitFeedback)
	r.GET("/feedback/:productId", h.getProductFeedback)
	r.GET("/similar/:id", h.getSimilarFeedback)
	r.GET("/stats", h.getStats)
	r.GET("/theme-stats", h.getThemeStats)
	r.GET("/insights", h.getInsights)

	return r
}

type submitFeedbackRequest struct {
	ProductID string   `json:"productId" binding:"required"`
	Rating    *float32 `json:"rating" binding:"required,gte=1,lte=5"`
	Review    string   `json:"review" binding:"required"`
}

func (h *Handler) submitFeedback(c *gin.Context) {
	var req submitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingMessage(err)})
		return
	}

	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" || strings.TrimSpace(req.Review) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing fields"})
		return
	}

	resp, err := h.feed.Submit(c.Request.Context(), feed.SubmitRequest{
		ProductID: req.ProductID,
		Rating:    *req.Rating,
		Review:    req.Review,
	})
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Feedback submitted successfully",
		"data":    resp,
	})
}

// bindingMessage tells a missing field apart from an out-of-range rating
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	for _, fe := range verrs {
		if fe.Tag() != "required" {
			return "Rating must be between 1 and 5"
		}
	}
	return "Missing fields"
}

func (h *Handler) getProductFeedback(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	resp, total, err := h.feed.GetProductFeedback(c.Request.Context(), c.Param("productId"), page, pageSize)
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getSimilarFeedback(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	resp, err := h.feed.SimilarFeedback(c.Request.Context(), uint(id), limit)
	switch {
	case errors.Is(err, db.ErrUnsupported):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		h.internalError(c, err)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

func (h *Handler) getStats(c *gin.Context) {
	resp, err := h.insights.GetStats(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getThemeStats(c *gin.Context) {
	resp, err := h.insights.GetThemeStats(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getInsights(c *gin.Context) {
	resp, err := h.insights.GetInsights(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) internalError(c *gin.Context, err error) {
	log.Printf("❌ [%s] %s %s: %v", c.GetString(requestIDKey), c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
