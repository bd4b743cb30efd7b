// Package server exposes the dashboard tables over HTTP.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/auth"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/notify"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/views"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	viewerContextKey = "tunedesk_viewer"

	defaultHeartbeatInterval = 25 * time.Second
	accessTokenQueryParam    = "access_token"
)

var (
	errMissingSessionValidator = errors.New("session validator dependency required")
	errMissingViewerResolver   = errors.New("viewer resolver dependency required")
	errMissingRegistry         = errors.New("view registry dependency required")
	errMissingSource           = errors.New("catalog source dependency required")
)

// SessionValidator authenticates dashboard requests.
type SessionValidator interface {
	ValidateRequest(r *http.Request) (auth.SessionClaims, error)
	ValidateToken(token string) (auth.SessionClaims, error)
}

// ViewerResolver maps validated claims to the dashboard viewer.
type ViewerResolver interface {
	ResolveViewer(claims auth.SessionClaims) (views.Viewer, error)
}

// Dependencies lists everything the HTTP handler needs.
type Dependencies struct {
	Sessions          SessionValidator
	Viewers           ViewerResolver
	Registry          *views.Registry
	Source            catalog.Source
	Hub               *notify.Hub
	AllowedOrigins    []string
	HeartbeatInterval time.Duration
	Logger            *zap.Logger
	Clock             func() time.Time
}

// NewHTTPHandler wires the dashboard routes.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Sessions == nil {
		return nil, errMissingSessionValidator
	}
	if deps.Viewers == nil {
		return nil, errMissingViewerResolver
	}
	if deps.Registry == nil {
		return nil, errMissingRegistry
	}
	if deps.Source == nil {
		return nil, errMissingSource
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := deps.Hub
	if hub == nil {
		hub = notify.NewHub()
	}
	heartbeat := deps.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(deps.AllowedOrigins))

	handler := &httpHandler{
		sessions:  deps.Sessions,
		viewers:   deps.Viewers,
		registry:  deps.Registry,
		source:    deps.Source,
		hub:       hub,
		heartbeat: heartbeat,
		logger:    logger,
		now:       clock,
	}

	router.GET("/healthz", handler.handleHealth)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)

	protected.POST("/views", handler.handleCreateView)
	protected.GET("/views/:id", handler.handleGetView)
	protected.PATCH("/views/:id", handler.handleUpdateView)
	protected.DELETE("/views/:id", handler.handleDeleteView)
	protected.POST("/views/:id/reload", handler.handleReloadView)
	protected.POST("/views/:id/sort", handler.handleToggleSort)
	protected.POST("/views/:id/pages/next", handler.handleNextPage)
	protected.POST("/views/:id/pages/prev", handler.handlePrevPage)
	protected.POST("/views/:id/selection/toggle", handler.handleToggleRow)
	protected.POST("/views/:id/selection/toggle-all", handler.handleToggleAll)
	protected.POST("/views/:id/rows/:rowID/activate", handler.handleActivateRow)
	protected.GET("/views/:id/export.csv", handler.handleExport)

	protected.PATCH("/records/:entity/:id/status", handler.handleUpdateStatus)
	protected.DELETE("/records/:entity/:id", handler.handleDeleteRecord)

	protected.GET("/events/stream", handler.handleEventStream)

	return router, nil
}

type httpHandler struct {
	sessions  SessionValidator
	viewers   ViewerResolver
	registry  *views.Registry
	source    catalog.Source
	hub       *notify.Hub
	heartbeat time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Last-Event-ID"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		config.AllowOriginFunc = func(string) bool { return true }
	} else {
		config.AllowOrigins = origins
	}
	return cors.New(config)
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.registry.Len()})
}

// authorizeRequest accepts the bearer header or session cookie, and the access_token
// query parameter for event streams that cannot set headers.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	claims, err := h.sessions.ValidateRequest(c.Request)
	if errors.Is(err, auth.ErrMissingSessionToken) {
		if token := c.Query(accessTokenQueryParam); token != "" {
			claims, err = h.sessions.ValidateToken(token)
		}
	}
	if err != nil {
		if errors.Is(err, auth.ErrExpiredSessionToken) || errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, auth.ErrMissingSessionToken) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	viewer, err := h.viewers.ResolveViewer(claims)
	if err != nil {
		h.logger.Warn("viewer resolution failed", zap.Error(err), zap.String("subject", claims.Subject))
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}
	c.Set(viewerContextKey, viewer)
	c.Next()
}

func viewerFrom(c *gin.Context) (views.Viewer, bool) {
	value, ok := c.Get(viewerContextKey)
	if !ok {
		return views.Viewer{}, false
	}
	viewer, ok := value.(views.Viewer)
	return viewer, ok && viewer.UserID != ""
}
