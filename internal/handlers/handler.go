// Package handlers exposes the shared reading store over HTTP. It never
// touches the BLE session; all it sees are store snapshots.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chengwu26/heart-rate-monitor/internal/logger"
	"github.com/chengwu26/heart-rate-monitor/internal/store"
)

// Handler wires the HTTP layer to the store and the rendered theme page.
type Handler struct {
	store *store.Store
	page  []byte // theme rendered once at startup
	log   *logger.Logger
}

// New constructs an HTTP handler serving snapshots from st and the
// pre-rendered theme page.
func New(st *store.Store, page string, log *logger.Logger) *Handler {
	return &Handler{store: st, page: []byte(page), log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", h.index)
	router.GET("/heart-rate", h.heartRate)
	router.GET("/ws", h.wsStream)

	return router
}

func (h *Handler) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", h.page)
}
