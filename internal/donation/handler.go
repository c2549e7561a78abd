package donation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
	"donation-chain/marketplace-ledger/ledger-backend/internal/participants"
)

// Handler handles HTTP requests for donations and claims
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new donation handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers donation routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/donations")
	{
		group.POST("", h.donate)
		group.POST("/claims", h.claim)
		group.GET("/escrow", h.escrow)
	}
}

type donateRequest struct {
	Donor     string `json:"donor" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
	Category  string `json:"category" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
}

// donate handles POST /donations
func (h *Handler) donate(c *gin.Context) {
	var req donateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := participants.ParseCategory(req.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Donate(c.Request.Context(), ledger.AccountID(req.Donor), ledger.AccountID(req.Recipient), category, amount); err != nil {
		h.logger.Error("Failed to process donation", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "donated"})
}

type claimRequest struct {
	Seller   string `json:"seller" binding:"required"`
	Category string `json:"category" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

// claim handles POST /donations/claims
func (h *Handler) claim(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := participants.ParseCategory(req.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.ClaimToken(c.Request.Context(), ledger.AccountID(req.Seller), category, amount); err != nil {
		h.logger.Error("Failed to process claim", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "claimed"})
}

// escrow handles GET /donations/escrow
func (h *Handler) escrow(c *gin.Context) {
	balance := h.service.EscrowBalance(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"account": h.service.EscrowAccount(),
		"balance": balance.String(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrRecipientNotValid), errors.Is(err, ErrCallerNotValid):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientTokenBalance),
		errors.Is(err, ledger.ErrBalanceBelowMinimum),
		errors.Is(err, ledger.ErrTokenBalanceBelowMinimum),
		errors.Is(err, ledger.ErrUnknownAccount):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
