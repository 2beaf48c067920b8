// Package server exposes workspace sessions over HTTP.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/b0ase/cashboard/canvas"
	"github.com/b0ase/cashboard/catalog"
	"github.com/b0ase/cashboard/editor"
	"github.com/b0ase/cashboard/logging"
	"github.com/b0ase/cashboard/metrics"
	"github.com/b0ase/cashboard/model"
	"github.com/b0ase/cashboard/store"
	"github.com/b0ase/cashboard/tabs"
	"github.com/b0ase/cashboard/workspace"
)

const Version = "1.0.0"

// APIResponse represents the API response
type APIResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func sendResponse(c *gin.Context, statusCode int, success bool, data map[string]interface{}, errorMsg string) {
	c.JSON(statusCode, APIResponse{Success: success, Data: data, Error: errorMsg})
}

func sendSuccess(c *gin.Context, data map[string]interface{}) {
	sendResponse(c, http.StatusOK, true, data, "")
}

func sendCreated(c *gin.Context, data map[string]interface{}) {
	sendResponse(c, http.StatusCreated, true, data, "")
}

func sendError(c *gin.Context, statusCode int, errorMsg string) {
	sendResponse(c, statusCode, false, nil, errorMsg)
}

// sendErr picks the status for a domain error.
func sendErr(c *gin.Context, err error) {
	sendError(c, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrSessionNotFound),
		errors.Is(err, canvas.ErrNodeNotFound),
		errors.Is(err, canvas.ErrEdgeNotFound),
		errors.Is(err, tabs.ErrTabNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrNoModal),
		errors.Is(err, tabs.ErrProtectedTab):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnknownKind),
		errors.Is(err, canvas.ErrInvalidValue),
		errors.Is(err, editor.ErrValidation),
		errors.Is(err, workspace.ErrUnknownFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Deps are the collaborators the handlers use.
type Deps struct {
	Sessions *workspace.Manager
	Store    *store.CanvasStore
	Catalog  *catalog.Catalog
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

type handlers struct {
	Deps
	log *zap.Logger
}

func handleHealth(c *gin.Context) {
	sendSuccess(c, map[string]interface{}{"status": "healthy", "timestamp": time.Now().Unix(), "version": Version})
}

func requestLogger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

// NewRouter builds the Gin router with routes and middleware
func NewRouter(d Deps) *gin.Engine {
	if d.Catalog == nil {
		d.Catalog = catalog.Builtin()
	}
	h := &handlers{Deps: d, log: logging.OrNop(d.Logger)}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log), cors)

	r.GET("/health", handleHealth)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	r.GET("/catalog/:kind", h.catalogItems)
	r.GET("/canvases", h.listCanvases)
	r.DELETE("/canvases/:title", h.deleteCanvas)

	r.POST("/sessions", h.createSession)
	r.GET("/sessions", h.listSessions)

	s := r.Group("/sessions/:id", h.session)
	s.GET("", h.state)
	s.DELETE("", h.deleteSession)
	s.GET("/logs", h.logs)

	s.GET("/views", h.views)
	s.POST("/nodes", h.addNode)
	s.PATCH("/nodes/:node", h.patchNode)
	s.DELETE("/nodes/:node", h.deleteNode)
	s.POST("/nodes/:node/open", h.openNode)
	s.GET("/nodes/:node/form", h.form)
	s.PUT("/nodes/:node/form", h.editNode)
	s.POST("/edges", h.connect)
	s.DELETE("/edges/:edge", h.deleteEdge)

	s.POST("/pick", h.pick)
	s.GET("/modal", h.modal)
	s.DELETE("/modal", h.closeModal)
	s.POST("/modal/select", h.selectTemplate)

	s.GET("/breadcrumbs", h.breadcrumbs)
	s.POST("/back", h.back)
	s.POST("/breadcrumbs/:index", h.jump)

	s.POST("/tabs", h.createTab)
	s.POST("/node-tabs/:node", h.createNodeTab)
	s.PUT("/tabs/:tab", h.renameTab)
	s.POST("/tabs/:tab/activate", h.switchTab)
	s.DELETE("/tabs/:tab", h.closeTab)

	s.PUT("/viewport", h.setViewport)
	s.PUT("/settings", h.setSettings)
	s.POST("/running", h.toggleRunning)
	s.POST("/auto", h.toggleAuto)
	s.POST("/style", h.cycleStyle)
	s.POST("/zoom/:dir", h.zoom)

	s.GET("/export", h.export)
	s.POST("/import", h.importDoc)

	return r
}
