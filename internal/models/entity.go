package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction type tags. A transfer always produces one debit and one credit
// row sharing a reference token.
const (
	TxTypeRecharge       = "RECHARGE"
	TxTypeTransferDebit  = "TRANSFER_DEBIT"
	TxTypeTransferCredit = "TRANSFER_CREDIT"
)

type UserAccount struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type Wallet struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	OwnerName string          `db:"owner_name" json:"ownerName"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Reference string          `db:"reference" json:"reference"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// WalletTransaction is an immutable ledger row. Amount is signed: credits are
// positive, debits negative. BalanceAfter is the owning wallet's balance
// immediately after the movement was applied.
type WalletTransaction struct {
	ID           int64           `db:"id" json:"id"`
	WalletID     uuid.UUID       `db:"wallet_id" json:"walletId"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Type         string          `db:"type" json:"type"`
	Description  string          `db:"description" json:"description,omitempty"`
	Reference    string          `db:"reference" json:"reference"`
	BalanceAfter decimal.Decimal `db:"balance_after" json:"balanceAfter"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}

// UserProfile is the view returned by signup and login: the resolved user plus
// the wallet the auth gateway binds to it.
type UserProfile struct {
	UserID        uuid.UUID       `json:"userId"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	WalletID      uuid.UUID       `json:"walletId"`
	WalletBalance decimal.Decimal `json:"walletBalance"`
}
