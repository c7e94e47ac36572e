package service

import (
	"context"
	"errors"
	"log/slog"

	"ewallet/internal/models"
	"ewallet/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=auth_service.go -destination=../../test/mock_user_store.go -package=test UserStore

// UserStore persists accounts and resolves a user to their wallet.
type UserStore interface {
	CreateUserWithWallet(ctx context.Context, user *models.UserAccount) (models.Wallet, error)
	FindByUsername(ctx context.Context, username string) (models.UserAccount, error)
	GetWalletByUserID(ctx context.Context, userID uuid.UUID) (models.Wallet, error)
}

// AuthService is the account gateway: it resolves a login to a user and that
// user's wallet identity. It never touches balances itself.
type AuthService struct {
	store  UserStore
	logger *slog.Logger
}

func NewAuthService(store UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:  store,
		logger: logger,
	}
}

// Signup registers a user and creates their zero-balance wallet atomically.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (models.UserProfile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Signup failed: password hashing",
			slog.String("username", username),
			slog.Any("err", err),
		)
		return models.UserProfile{}, err
	}

	user := models.UserAccount{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	wallet, err := s.store.CreateUserWithWallet(ctx, &user)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) || errors.Is(err, repository.ErrEmailTaken) {
			s.logger.Warn("Signup rejected: duplicate account",
				slog.String("username", username),
				slog.Any("err", err),
			)
			return models.UserProfile{}, err
		}
		s.logger.Error("Signup failed",
			slog.String("username", username),
			slog.Any("err", err),
		)
		return models.UserProfile{}, err
	}

	s.logger.Info("User registered",
		slog.String("user_id", user.ID.String()),
		slog.String("wallet_id", wallet.ID.String()),
	)
	return profile(user, wallet), nil
}

// Login verifies credentials and resolves the caller's wallet.
func (s *AuthService) Login(ctx context.Context, username, password string) (models.UserProfile, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("Login failed: user not found",
				slog.String("username", username),
			)
			return models.UserProfile{}, err
		}
		s.logger.Error("Login failed",
			slog.String("username", username),
			slog.Any("err", err),
		)
		return models.UserProfile{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("Login failed: invalid credentials",
			slog.String("username", username),
		)
		return models.UserProfile{}, repository.ErrInvalidCredentials
	}

	wallet, err := s.store.GetWalletByUserID(ctx, user.ID)
	if err != nil {
		s.logger.Error("Login failed: wallet lookup",
			slog.String("user_id", user.ID.String()),
			slog.Any("err", err),
		)
		return models.UserProfile{}, err
	}

	return profile(user, wallet), nil
}

func profile(user models.UserAccount, wallet models.Wallet) models.UserProfile {
	return models.UserProfile{
		UserID:        user.ID,
		Username:      user.Username,
		Email:         user.Email,
		WalletID:      wallet.ID,
		WalletBalance: wallet.Balance,
	}
}
