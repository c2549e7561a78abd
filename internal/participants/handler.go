package participants

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"donation-chain/marketplace-ledger/ledger-backend/internal/governance"
	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
)

// Handler handles HTTP requests for registry operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new registry handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers registry routes. Approval routes sit behind the
// governance middleware.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, governanceGate gin.HandlerFunc) {
	group := router.Group("/participants")
	{
		group.POST("/ngos/applications", h.applyAsNgo)
		group.POST("/sellers/applications", h.applyAsSeller)
		group.GET("/:account", h.membership)

		approvals := group.Group("", governanceGate)
		{
			approvals.POST("/ngos/:account/approval", h.approveNgo)
			approvals.POST("/sellers/:account/approval", h.approveSeller)
		}
	}
}

type ngoApplicationRequest struct {
	Applicant  string   `json:"applicant" binding:"required"`
	Categories []string `json:"categories" binding:"required"`
	ContentID  string   `json:"content_id" binding:"required"`
}

// applyAsNgo handles POST /participants/ngos/applications
func (h *Handler) applyAsNgo(c *gin.Context) {
	var req ngoApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info := NgoInfo{ContentID: ContentID(req.ContentID)}
	for _, raw := range req.Categories {
		category, err := ParseCategory(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		info.Categories = append(info.Categories, category)
	}

	if err := h.service.ApplyAsNgo(c.Request.Context(), ledger.AccountID(req.Applicant), info); err != nil {
		h.logger.Error("Failed to apply as ngo", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "waiting"})
}

type sellerApplicationRequest struct {
	Applicant string `json:"applicant" binding:"required"`
	Category  string `json:"category" binding:"required"`
	ContentID string `json:"content_id" binding:"required"`
}

// applyAsSeller handles POST /participants/sellers/applications
func (h *Handler) applyAsSeller(c *gin.Context) {
	var req sellerApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := ParseCategory(req.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info := SellerInfo{Category: category, ContentID: ContentID(req.ContentID)}

	if err := h.service.ApplyAsSeller(c.Request.Context(), ledger.AccountID(req.Applicant), info); err != nil {
		h.logger.Error("Failed to apply as seller", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "waiting"})
}

// approveNgo handles POST /participants/ngos/:account/approval
func (h *Handler) approveNgo(c *gin.Context) {
	origin, ok := governance.OriginFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing governance origin"})
		return
	}
	applicant := ledger.AccountID(c.Param("account"))
	if err := h.service.ApproveNgo(c.Request.Context(), origin, applicant); err != nil {
		h.logger.Error("Failed to approve ngo", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "active"})
}

// approveSeller handles POST /participants/sellers/:account/approval
func (h *Handler) approveSeller(c *gin.Context) {
	origin, ok := governance.OriginFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing governance origin"})
		return
	}
	applicant := ledger.AccountID(c.Param("account"))
	if err := h.service.ApproveSeller(c.Request.Context(), origin, applicant); err != nil {
		h.logger.Error("Failed to approve seller", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "active"})
}

// membership handles GET /participants/:account
func (h *Handler) membership(c *gin.Context) {
	account := ledger.AccountID(c.Param("account"))
	c.JSON(http.StatusOK, h.service.Membership(c.Request.Context(), account))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, governance.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrIdentityNotFound):
		return http.StatusForbidden
	case errors.Is(err, ErrNotPartOfWaitingList):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyPartOfWaitingList), errors.Is(err, ErrAlreadyPartOfActiveList):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrBalanceBelowMinimum),
		errors.Is(err, ledger.ErrUnknownAccount):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
