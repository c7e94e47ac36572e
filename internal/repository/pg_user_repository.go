package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ewallet/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserPGRepository persists user accounts and the 1:1 wallet created at signup.
type UserPGRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewUserPGRepository(pool *pgxpool.Pool, logger *slog.Logger) *UserPGRepository {
	return &UserPGRepository{
		pool:   pool,
		logger: logger,
	}
}

// CreateUserWithWallet inserts the user and their zero-balance wallet in one
// transaction. Duplicate username or email surfaces as ErrUsernameTaken or
// ErrEmailTaken.
func (r *UserPGRepository) CreateUserWithWallet(ctx context.Context, user *models.UserAccount) (models.Wallet, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		r.logger.Error("Failed to begin transaction", slog.Any("err", err))
		return models.Wallet{}, err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.Error("Failed to rollback transaction", slog.Any("err", err))
		}
	}()

	user.ID = uuid.New()
	err = tx.QueryRow(ctx, `
        INSERT INTO users (id, username, email, password_hash)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`,
		user.ID, user.Username, user.Email, user.PasswordHash,
	).Scan(&user.CreatedAt)
	if err != nil {
		if dupErr := duplicateSignupError(err); dupErr != nil {
			return models.Wallet{}, dupErr
		}
		r.logger.Error("Failed to create user",
			slog.String("username", user.Username),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}

	w := models.Wallet{
		ID:        uuid.New(),
		OwnerName: user.Username,
		Reference: uuid.NewString(),
	}
	err = tx.QueryRow(ctx, `
        INSERT INTO wallets (id, user_id, owner_name, balance, reference)
        VALUES ($1, $2, $3, 0, $4)
        RETURNING balance, created_at, updated_at`,
		w.ID, user.ID, w.OwnerName, w.Reference,
	).Scan(&w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create wallet for user",
			slog.String("user_id", user.ID.String()),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit transaction", slog.Any("err", err))
		return models.Wallet{}, err
	}
	return w, nil
}

func (r *UserPGRepository) FindByUsername(ctx context.Context, username string) (models.UserAccount, error) {
	var u models.UserAccount
	err := r.pool.QueryRow(ctx, `
        SELECT id, username, email, password_hash, created_at
        FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.UserAccount{}, ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("Failed to find user",
			slog.String("username", username),
			slog.Any("err", err),
		)
		return models.UserAccount{}, err
	}
	return u, nil
}

func (r *UserPGRepository) GetWalletByUserID(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	w, err := scanWallet(r.pool.QueryRow(ctx, walletQuery+` WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Wallet{}, ErrWalletNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get wallet by user",
			slog.String("user_id", userID.String()),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}
	return w, nil
}

// duplicateSignupError maps a unique violation on the users table to the
// matching domain error, or nil when err is something else.
func duplicateSignupError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	if strings.Contains(pgErr.ConstraintName, "email") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}
