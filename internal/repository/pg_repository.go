package repository

import (
	"context"
	"errors"
	"log/slog"

	"ewallet/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrSameWallet          = errors.New("from and to wallet cannot be the same")
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

//go:generate mockgen -source=pg_repository.go -destination=../../test/mock_unit.go -package=test Unit

// Unit is the set of operations available inside one atomic unit of work.
// Everything called through a Unit commits together or not at all.
type Unit interface {
	GetWalletForUpdate(ctx context.Context, id uuid.UUID) (models.Wallet, error)
	SaveWallet(ctx context.Context, w *models.Wallet) error
	SaveWallets(ctx context.Context, ws []*models.Wallet) error
	AppendTransaction(ctx context.Context, tx *models.WalletTransaction) error
	AppendTransactions(ctx context.Context, txs []*models.WalletTransaction) error
}

// WalletPGRepository is the ledger store: wallets plus the append-only
// wallet_transactions log, backed by PostgreSQL.
type WalletPGRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewWalletPGRepository(pool *pgxpool.Pool, logger *slog.Logger) *WalletPGRepository {
	return &WalletPGRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *WalletPGRepository) CreateWallet(ctx context.Context, ownerName string) (models.Wallet, error) {
	w := models.Wallet{
		ID:        uuid.New(),
		OwnerName: ownerName,
		Reference: uuid.NewString(),
	}
	err := r.pool.QueryRow(ctx, `
        INSERT INTO wallets (id, owner_name, balance, reference)
        VALUES ($1, $2, 0, $3)
        RETURNING balance, created_at, updated_at`,
		w.ID, w.OwnerName, w.Reference,
	).Scan(&w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create wallet",
			slog.String("owner_name", ownerName),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}
	return w, nil
}

func (r *WalletPGRepository) GetWallet(ctx context.Context, id uuid.UUID) (models.Wallet, error) {
	w, err := scanWallet(r.pool.QueryRow(ctx, walletQuery+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Wallet{}, ErrWalletNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get wallet",
			slog.String("wallet_id", id.String()),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}
	return w, nil
}

// ListTransactions returns the wallet's history most-recent-first. The id
// tiebreak keeps the order strict when rows share a created_at.
func (r *WalletPGRepository) ListTransactions(ctx context.Context, walletID uuid.UUID) ([]models.WalletTransaction, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, wallet_id, amount, type, COALESCE(description, ''), reference, balance_after, created_at
        FROM wallet_transactions
        WHERE wallet_id = $1
        ORDER BY created_at DESC, id DESC`, walletID)
	if err != nil {
		r.logger.Error("Failed to list transactions",
			slog.String("wallet_id", walletID.String()),
			slog.Any("err", err),
		)
		return nil, err
	}
	defer rows.Close()

	var txs []models.WalletTransaction
	for rows.Next() {
		var tx models.WalletTransaction
		if err := rows.Scan(&tx.ID, &tx.WalletID, &tx.Amount, &tx.Type, &tx.Description,
			&tx.Reference, &tx.BalanceAfter, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Atomic runs fn inside a single database transaction. Any error from fn or
// from commit rolls back every write made through the Unit.
func (r *WalletPGRepository) Atomic(ctx context.Context, fn func(u Unit) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		r.logger.Error("Failed to begin transaction", slog.Any("err", err))
		return err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.Error("Failed to rollback transaction", slog.Any("err", err))
		}
	}()

	if err := fn(&pgUnit{tx: tx, logger: r.logger}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit transaction", slog.Any("err", err))
		return err
	}
	return nil
}

const walletQuery = `SELECT id, owner_name, balance, COALESCE(reference, ''), created_at, updated_at FROM wallets`

func scanWallet(row pgx.Row) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.OwnerName, &w.Balance, &w.Reference, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

// pgUnit implements Unit on top of an open pgx transaction.
type pgUnit struct {
	tx     pgx.Tx
	logger *slog.Logger
}

func (u *pgUnit) GetWalletForUpdate(ctx context.Context, id uuid.UUID) (models.Wallet, error) {
	w, err := scanWallet(u.tx.QueryRow(ctx, walletQuery+` WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Wallet{}, ErrWalletNotFound
	}
	if err != nil {
		u.logger.Error("Failed to select wallet for update",
			slog.String("wallet_id", id.String()),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}
	return w, nil
}

func (u *pgUnit) SaveWallet(ctx context.Context, w *models.Wallet) error {
	err := u.tx.QueryRow(ctx, `
        UPDATE wallets SET balance = $1, updated_at = NOW()
        WHERE id = $2
        RETURNING updated_at`, w.Balance, w.ID).Scan(&w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrWalletNotFound
	}
	if err != nil {
		var pgErr *pgconn.PgError
		// 23514 is the balance >= 0 check constraint; the engine validates
		// first, this only catches a bypass.
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			return ErrInsufficientBalance
		}
		u.logger.Error("Failed to save wallet",
			slog.String("wallet_id", w.ID.String()),
			slog.Any("err", err),
		)
		return err
	}
	return nil
}

func (u *pgUnit) SaveWallets(ctx context.Context, ws []*models.Wallet) error {
	for _, w := range ws {
		if err := u.SaveWallet(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func (u *pgUnit) AppendTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	err := u.tx.QueryRow(ctx, `
        INSERT INTO wallet_transactions (wallet_id, amount, type, description, reference, balance_after)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`,
		tx.WalletID, tx.Amount, tx.Type, tx.Description, tx.Reference, tx.BalanceAfter,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		u.logger.Error("Failed to append transaction",
			slog.String("wallet_id", tx.WalletID.String()),
			slog.String("type", tx.Type),
			slog.Any("err", err),
		)
		return err
	}
	return nil
}

func (u *pgUnit) AppendTransactions(ctx context.Context, txs []*models.WalletTransaction) error {
	for _, tx := range txs {
		if err := u.AppendTransaction(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}
