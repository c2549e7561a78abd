package audit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the recorded event trail over HTTP
type Handler struct {
	recorder *PostgresRecorder
	logger   *zap.Logger
}

// NewHandler creates a new audit handler
func NewHandler(recorder *PostgresRecorder, logger *zap.Logger) *Handler {
	return &Handler{recorder: recorder, logger: logger}
}

// RegisterRoutes registers audit routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/events")
	{
		group.GET("", h.listEvents)
	}
}

// listEvents handles GET /events?kind=&limit=
func (h *Handler) listEvents(c *gin.Context) {
	var kind *EventKind
	if raw := c.Query("kind"); raw != "" {
		k := EventKind(raw)
		kind = &k
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	events, err := h.recorder.ListRecent(c.Request.Context(), kind, limit)
	if err != nil {
		h.logger.Error("Failed to list ledger events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
