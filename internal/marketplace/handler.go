package marketplace

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
	"donation-chain/marketplace-ledger/ledger-backend/internal/participants"
)

// Handler handles HTTP requests for marketplace operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new marketplace handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers marketplace routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/products")
	{
		group.POST("", h.listProduct)
		group.GET("/:id", h.product)
		group.POST("/:id/purchase", h.buy)
	}
}

type listProductRequest struct {
	Seller    string `json:"seller" binding:"required"`
	Category  string `json:"category" binding:"required"`
	Price     string `json:"price" binding:"required"`
	ContentID string `json:"content_id" binding:"required"`
}

// listProduct handles POST /products
func (h *Handler) listProduct(c *gin.Context) {
	var req listProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := participants.ParseCategory(req.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	price, err := ledger.ParseAmount(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.service.ListProduct(c.Request.Context(), ledger.AccountID(req.Seller), category, price, participants.ContentID(req.ContentID))
	if err != nil {
		h.logger.Error("Failed to list product", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product_id": id})
}

type buyRequest struct {
	Buyer string `json:"buyer" binding:"required"`
}

// buy handles POST /products/:id/purchase
func (h *Handler) buy(c *gin.Context) {
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := ProductID(c.Param("id"))
	if err := h.service.Buy(c.Request.Context(), ledger.AccountID(req.Buyer), id); err != nil {
		h.logger.Error("Failed to buy product", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sold"})
}

// product handles GET /products/:id
func (h *Handler) product(c *gin.Context) {
	id := ProductID(c.Param("id"))
	info, ok := h.service.Product(c.Request.Context(), id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrProductNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSellerNotValid), errors.Is(err, ErrBuyerNotValid):
		return http.StatusForbidden
	case errors.Is(err, ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrProductAlreadyListed), errors.Is(err, ErrProductAlreadySold):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientTokenBalance), errors.Is(err, ledger.ErrTokenBalanceBelowMinimum):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
