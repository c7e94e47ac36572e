package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SignupRequest struct {
	Username string `json:"username" binding:"required,max=40"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateWalletRequest struct {
	OwnerName string `json:"ownerName" binding:"required,max=100"`
}

type RechargeRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

type TransferRequest struct {
	FromWalletID uuid.UUID       `json:"fromWalletId" binding:"required"`
	ToWalletID   uuid.UUID       `json:"toWalletId" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Description  string          `json:"description"`
}
