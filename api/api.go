// Package api exposes feed configuration, preview and RSS rendering over
// HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/feedgen/configure"
	"github.com/pevans/feedgen/feeds"
	"github.com/pevans/feedgen/rss"
	"github.com/pevans/feedgen/scraper"
)

// Store is the part of the feed store the API reads and deletes through.
type Store interface {
	ListFeeds() ([]feeds.FeedConfig, error)
	GetByURL(url string) (*feeds.FeedConfig, error)
	DeleteFeed(url string) error
}

// Options configures an APIServer.
type Options struct {
	// APIKey, when set, is required on every /api/v1 request as X-API-Key
	// or an Authorization bearer token.
	APIKey string

	// BaseURL is used for the RSS self link. Defaults to the request host.
	BaseURL string

	Version string
	Logger  *slog.Logger
}

// APIServer represents the HTTP API server for feed management.
type APIServer struct {
	store     Store
	service   *configure.Service
	generator *rss.Generator
	opts      Options
	logger    *slog.Logger
	started   time.Time
}

// NewAPIServer creates a new API server.
func NewAPIServer(store Store, service *configure.Service, opts Options) *APIServer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &APIServer{
		store:     store,
		service:   service,
		generator: rss.NewGenerator(opts.Version),
		opts:      opts,
		logger:    logger.With("component", "api"),
		started:   time.Now(),
	}
}

// SetupRouter configures the Gin router with all API routes.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(s.requestLogger(), gin.Recovery())

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.HandleHealth)

	api := router.Group("/api/v1")
	if s.opts.APIKey != "" {
		api.Use(authMiddleware(s.opts.APIKey))
	}
	api.GET("/feeds", s.HandleListFeeds)
	api.GET("/feeds/show", s.HandleGetFeed)
	api.PUT("/feeds", s.HandleSaveFeed)
	api.DELETE("/feeds", s.HandleDeleteFeed)
	api.GET("/feeds/rss", s.HandleFeedRSS)
	api.POST("/preview", s.HandlePreview)
	api.POST("/detect", s.HandleDetect)

	return router
}

// requestLogger logs each request through slog.
func (s *APIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// authMiddleware requires the API key in X-API-Key or as a bearer token.
func authMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-API-Key")
		if auth := c.GetHeader("Authorization"); provided == "" && strings.HasPrefix(auth, "Bearer ") {
			provided = strings.TrimPrefix(auth, "Bearer ")
		}

		if provided == "" || provided != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "A valid API key is required"))
			return
		}

		c.Next()
	}
}

// ListFeedsResponse represents the response for GET /api/v1/feeds.
type ListFeedsResponse struct {
	Feeds []feeds.FeedConfig `json:"feeds"`
	Total int                `json:"total"`
}

// SaveFeedRequest represents the request for PUT /api/v1/feeds.
type SaveFeedRequest struct {
	URL           string                 `json:"url" binding:"required"`
	Auto          bool                   `json:"auto"`
	Selectors     scraper.SelectorConfig `json:"selectors"`
	WebhookTarget string                 `json:"webhook_target"`
}

// PreviewRequest represents the request for POST /api/v1/preview.
type PreviewRequest struct {
	URL       string                 `json:"url" binding:"required"`
	Auto      bool                   `json:"auto"`
	Selectors scraper.SelectorConfig `json:"selectors"`
}

// DetectRequest represents the request for POST /api/v1/detect.
type DetectRequest struct {
	URL string `json:"url" binding:"required"`
}

// DetectResponse represents the response for POST /api/v1/detect.
type DetectResponse struct {
	URL          string `json:"url"`
	ItemSelector string `json:"item_selector"`
	Found        bool   `json:"found"`
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// handleError maps domain errors to HTTP responses.
func (s *APIServer) handleError(c *gin.Context, err error) {
	var fetchErr *scraper.FetchError
	var parseErr *scraper.ParseError

	switch {
	case errors.Is(err, feeds.ErrFeedNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case errors.Is(err, configure.ErrURLRequired), errors.Is(err, configure.ErrItemSelectorRequired):
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
	case errors.As(err, &fetchErr), errors.As(err, &parseErr):
		c.JSON(http.StatusBadGateway, errorResponse("fetch_error", err.Error()))
	default:
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
	}
}

// queryURL reads the required url query parameter.
func queryURL(c *gin.Context) (string, bool) {
	pageURL := strings.TrimSpace(c.Query("url"))
	if pageURL == "" {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "url query parameter is required"))
		return "", false
	}
	return pageURL, true
}

// HandleHealth handles GET /health.
func (s *APIServer) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   s.opts.Version,
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleListFeeds handles GET /api/v1/feeds.
func (s *APIServer) HandleListFeeds(c *gin.Context) {
	list, err := s.store.ListFeeds()
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListFeedsResponse{
		Feeds: list,
		Total: len(list),
	})
}

// HandleGetFeed handles GET /api/v1/feeds/show?url=.
func (s *APIServer) HandleGetFeed(c *gin.Context) {
	pageURL, ok := queryURL(c)
	if !ok {
		return
	}

	feed, err := s.store.GetByURL(pageURL)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, feed)
}

// HandleSaveFeed handles PUT /api/v1/feeds.
func (s *APIServer) HandleSaveFeed(c *gin.Context) {
	var req SaveFeedRequest

	// Bind JSON -- Gin validates required fields automatically
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	result, err := s.service.Save(c.Request.Context(), configure.SaveRequest{
		URL:           req.URL,
		Auto:          req.Auto,
		Selectors:     req.Selectors,
		WebhookTarget: req.WebhookTarget,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleDeleteFeed handles DELETE /api/v1/feeds?url=.
func (s *APIServer) HandleDeleteFeed(c *gin.Context) {
	pageURL, ok := queryURL(c)
	if !ok {
		return
	}

	if err := s.store.DeleteFeed(pageURL); err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HandlePreview handles POST /api/v1/preview.
func (s *APIServer) HandlePreview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	result, err := s.service.Preview(c.Request.Context(), configure.PreviewRequest{
		URL:       req.URL,
		Auto:      req.Auto,
		Selectors: req.Selectors,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleDetect handles POST /api/v1/detect.
func (s *APIServer) HandleDetect(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	selector, err := s.service.Detect(c.Request.Context(), req.URL)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, DetectResponse{
		URL:          strings.TrimSpace(req.URL),
		ItemSelector: selector,
		Found:        selector != "",
	})
}

// HandleFeedRSS handles GET /api/v1/feeds/rss?url=.
func (s *APIServer) HandleFeedRSS(c *gin.Context) {
	pageURL, ok := queryURL(c)
	if !ok {
		return
	}

	feed, items, err := s.service.FeedItems(c.Request.Context(), pageURL)
	if err != nil {
		s.handleError(c, err)
		return
	}

	body := s.generator.Render(rss.Channel{
		Link:     feed.URL,
		SelfLink: s.selfLink(c, feed.URL),
	}, items)

	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Header("X-Last-Updated", feed.UpdatedAt.UTC().Format(time.RFC3339))
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(body))
}

func (s *APIServer) selfLink(c *gin.Context, pageURL string) string {
	base := strings.TrimSuffix(s.opts.BaseURL, "/")
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/api/v1/feeds/rss?url=" + url.QueryEscape(pageURL)
}
