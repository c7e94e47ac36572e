package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"ewallet/internal/models"
	"ewallet/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=../../test/mock_ledger_store.go -package=test LedgerStore

// LedgerStore is the durable source of truth the engine drives. Mutations go
// through Atomic so a wallet update and its transaction rows commit as one unit.
type LedgerStore interface {
	CreateWallet(ctx context.Context, ownerName string) (models.Wallet, error)
	GetWallet(ctx context.Context, id uuid.UUID) (models.Wallet, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID) ([]models.WalletTransaction, error)
	Atomic(ctx context.Context, fn func(u repository.Unit) error) error
}

// WalletService enforces the ledger rules: balances never go negative, every
// balance change appends exactly one transaction row, and a transfer's two
// sides commit together or not at all.
type WalletService struct {
	store  LedgerStore
	logger *slog.Logger
}

func NewWalletService(store LedgerStore, logger *slog.Logger) *WalletService {
	return &WalletService{
		store:  store,
		logger: logger,
	}
}

func (s *WalletService) CreateWallet(ctx context.Context, ownerName string) (models.Wallet, error) {
	w, err := s.store.CreateWallet(ctx, ownerName)
	if err != nil {
		return models.Wallet{}, err
	}
	s.logger.Info("Wallet created",
		slog.String("wallet_id", w.ID.String()),
		slog.String("owner_name", w.OwnerName),
	)
	return w, nil
}

func (s *WalletService) Recharge(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, description string) (models.Wallet, error) {
	if !amount.IsPositive() {
		s.logger.Error("Recharge failed: amount must be positive",
			slog.String("wallet_id", walletID.String()),
			slog.Any("amount", amount),
		)
		return models.Wallet{}, repository.ErrInvalidAmount
	}

	var wallet models.Wallet
	err := s.store.Atomic(ctx, func(u repository.Unit) error {
		w, err := u.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		w.Balance = w.Balance.Add(amount)
		tx := models.WalletTransaction{
			WalletID:     w.ID,
			Amount:       amount,
			Type:         models.TxTypeRecharge,
			Description:  description,
			Reference:    uuid.NewString(),
			BalanceAfter: w.Balance,
		}
		if err := u.SaveWallet(ctx, &w); err != nil {
			return err
		}
		if err := u.AppendTransaction(ctx, &tx); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			s.logger.Warn("Recharge failed: wallet not found",
				slog.String("wallet_id", walletID.String()),
			)
			return models.Wallet{}, err
		}
		s.logger.Error("Recharge failed",
			slog.String("wallet_id", walletID.String()),
			slog.Any("amount", amount),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}
	return wallet, nil
}

// Transfer moves amount between two wallets. Both balance updates and both
// transaction rows (debit and credit, one shared reference) are committed as
// a single unit. Row locks are taken in wallet id order so two transfers in
// opposite directions between the same pair cannot deadlock.
func (s *WalletService) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, description string) (models.Wallet, error) {
	if fromID == toID {
		s.logger.Error("Transfer failed: same wallet on both sides",
			slog.String("wallet_id", fromID.String()),
		)
		return models.Wallet{}, repository.ErrSameWallet
	}
	if !amount.IsPositive() {
		s.logger.Error("Transfer failed: amount must be positive",
			slog.String("from_wallet_id", fromID.String()),
			slog.Any("amount", amount),
		)
		return models.Wallet{}, repository.ErrInvalidAmount
	}

	var source models.Wallet
	err := s.store.Atomic(ctx, func(u repository.Unit) error {
		firstID, secondID := fromID, toID
		if bytes.Compare(toID[:], fromID[:]) < 0 {
			firstID, secondID = toID, fromID
		}
		first, err := u.GetWalletForUpdate(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := u.GetWalletForUpdate(ctx, secondID)
		if err != nil {
			return err
		}
		from, to := &first, &second
		if first.ID != fromID {
			from, to = &second, &first
		}

		if from.Balance.LessThan(amount) {
			return repository.ErrInsufficientBalance
		}

		reference := uuid.NewString()
		from.Balance = from.Balance.Sub(amount)
		to.Balance = to.Balance.Add(amount)

		debit := models.WalletTransaction{
			WalletID:     from.ID,
			Amount:       amount.Neg(),
			Type:         models.TxTypeTransferDebit,
			Description:  description,
			Reference:    reference,
			BalanceAfter: from.Balance,
		}
		credit := models.WalletTransaction{
			WalletID:     to.ID,
			Amount:       amount,
			Type:         models.TxTypeTransferCredit,
			Description:  description,
			Reference:    reference,
			BalanceAfter: to.Balance,
		}

		if err := u.SaveWallets(ctx, []*models.Wallet{from, to}); err != nil {
			return err
		}
		if err := u.AppendTransactions(ctx, []*models.WalletTransaction{&debit, &credit}); err != nil {
			return err
		}
		source = *from
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrWalletNotFound):
			s.logger.Warn("Transfer failed: wallet not found",
				slog.String("from_wallet_id", fromID.String()),
				slog.String("to_wallet_id", toID.String()),
			)
		case errors.Is(err, repository.ErrInsufficientBalance):
			s.logger.Warn("Transfer failed: insufficient balance",
				slog.String("from_wallet_id", fromID.String()),
				slog.Any("amount", amount),
			)
		default:
			s.logger.Error("Transfer failed",
				slog.String("from_wallet_id", fromID.String()),
				slog.String("to_wallet_id", toID.String()),
				slog.Any("amount", amount),
				slog.Any("err", err),
			)
		}
		return models.Wallet{}, err
	}
	return source, nil
}

func (s *WalletService) GetWallet(ctx context.Context, walletID uuid.UUID) (models.Wallet, error) {
	w, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			s.logger.Warn("GetWallet: wallet not found",
				slog.String("wallet_id", walletID.String()),
			)
			return models.Wallet{}, err
		}
		s.logger.Error("GetWallet failed",
			slog.String("wallet_id", walletID.String()),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}
	return w, nil
}

func (s *WalletService) GetTransactions(ctx context.Context, walletID uuid.UUID) ([]models.WalletTransaction, error) {
	if _, err := s.store.GetWallet(ctx, walletID); err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			s.logger.Warn("GetTransactions: wallet not found",
				slog.String("wallet_id", walletID.String()),
			)
		}
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, walletID)
	if err != nil {
		s.logger.Error("GetTransactions failed",
			slog.String("wallet_id", walletID.String()),
			slog.Any("err", err),
		)
		return nil, err
	}
	return txs, nil
}
