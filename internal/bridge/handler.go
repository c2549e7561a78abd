package bridge

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"donation-chain/marketplace-ledger/ledger-backend/internal/governance"
	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
)

// Handler handles HTTP requests for bridge asset registration and lookup.
// Inbound asset movements arrive through the transport adapter, not HTTP.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new bridge handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers bridge routes. Asset registration sits behind the
// governance middleware.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, governanceGate gin.HandlerFunc) {
	group := router.Group("/bridge")
	{
		group.GET("/assets/:id", h.assetLocation)
		group.POST("/assets", governanceGate, h.registerAsset)
	}
}

type registerAssetRequest struct {
	Asset ExternalAsset `json:"asset" binding:"required"`
}

// registerAsset handles POST /bridge/assets
func (h *Handler) registerAsset(c *gin.Context) {
	origin, ok := governance.OriginFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing governance origin"})
		return
	}

	var req registerAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.service.RegisterAsset(c.Request.Context(), origin, req.Asset)
	if err != nil {
		h.logger.Error("Failed to register bridge asset", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"asset_id": id.String()})
}

// assetLocation handles GET /bridge/assets/:id
func (h *Handler) assetLocation(c *gin.Context) {
	id, err := ledger.ParseAssetID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset, ok := h.service.AssetLocation(c.Request.Context(), id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrAssetNotRegistered.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": id.String(), "asset": asset})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, governance.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNonFungibleAsset), errors.Is(err, ErrAccountConversion):
		return http.StatusBadRequest
	case errors.Is(err, ErrAssetNotRegistered):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAssetAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
