package handlers

import (
	"context"
	"errors"
	"net/http"

	"ewallet/internal/models"
	"ewallet/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=http_handlers.go -destination=../../test/mock_wallet_service.go -package=test WalletService

type WalletService interface {
	CreateWallet(ctx context.Context, ownerName string) (models.Wallet, error)
	Recharge(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, description string) (models.Wallet, error)
	Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, description string) (models.Wallet, error)
	GetWallet(ctx context.Context, walletID uuid.UUID) (models.Wallet, error)
	GetTransactions(ctx context.Context, walletID uuid.UUID) ([]models.WalletTransaction, error)
}

type WalletHTTPHandler struct {
	service WalletService
}

func NewWalletHTTPHandler(service WalletService) *WalletHTTPHandler {
	return &WalletHTTPHandler{service: service}
}

func (h *WalletHTTPHandler) RegisterRoutes(r *gin.Engine) {
	wallets := r.Group("/api/wallets")
	{
		wallets.POST("", h.HandleCreateWallet)
		wallets.GET("/:wallet_id", h.HandleGetWallet)
		wallets.POST("/:wallet_id/recharge", h.HandleRecharge)
		wallets.POST("/transfer", h.HandleTransfer)
		wallets.GET("/:wallet_id/transactions", h.HandleGetTransactions)
	}
}

func (h *WalletHTTPHandler) HandleCreateWallet(c *gin.Context) {
	var req models.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	wallet, err := h.service.CreateWallet(c.Request.Context(), req.OwnerName)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, wallet)
}

func (h *WalletHTTPHandler) HandleGetWallet(c *gin.Context) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}
	wallet, err := h.service.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (h *WalletHTTPHandler) HandleRecharge(c *gin.Context) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}
	var req models.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be > 0"})
		return
	}
	wallet, err := h.service.Recharge(c.Request.Context(), walletID, req.Amount, req.Description)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (h *WalletHTTPHandler) HandleTransfer(c *gin.Context) {
	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be > 0"})
		return
	}
	wallet, err := h.service.Transfer(c.Request.Context(), req.FromWalletID, req.ToWalletID, req.Amount, req.Description)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (h *WalletHTTPHandler) HandleGetTransactions(c *gin.Context) {
	walletID, ok := walletIDParam(c)
	if !ok {
		return
	}
	txs, err := h.service.GetTransactions(c.Request.Context(), walletID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if txs == nil {
		txs = []models.WalletTransaction{}
	}
	c.JSON(http.StatusOK, txs)
}

func walletIDParam(c *gin.Context) (uuid.UUID, bool) {
	walletID, err := uuid.Parse(c.Param("wallet_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet_id"})
		return uuid.Nil, false
	}
	return walletID, true
}

// statusFor maps the domain error taxonomy onto HTTP status codes: lookup
// failures to 404, business-rule violations to 400, storage errors to 503.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrWalletNotFound), errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrInvalidAmount),
		errors.Is(err, repository.ErrSameWallet),
		errors.Is(err, repository.ErrInsufficientBalance),
		errors.Is(err, repository.ErrUsernameTaken),
		errors.Is(err, repository.ErrEmailTaken):
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}
