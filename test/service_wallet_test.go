package test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"ewallet/internal/models"
	"ewallet/internal/repository"
	"ewallet/internal/service"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// runAtomic makes the store mock execute the unit-of-work closure against the
// provided unit mock, the way the real store runs it inside a transaction.
func runAtomic(store *MockLedgerStore, unit *MockUnit) *gomock.Call {
	return store.EXPECT().
		Atomic(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(repository.Unit) error) error {
			return fn(unit)
		})
}

func TestCreateWallet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	want := models.Wallet{ID: uuid.New(), OwnerName: "Alice", Balance: decimal.Zero}
	mockStore.EXPECT().
		CreateWallet(gomock.Any(), "Alice").
		Return(want, nil)

	w, err := svc.CreateWallet(context.Background(), "Alice")
	assert.NoError(t, err)
	assert.Equal(t, want.ID, w.ID)
	assert.Equal(t, "Alice", w.OwnerName)
	assert.True(t, w.Balance.IsZero())
}

func TestRecharge_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	mockUnit := NewMockUnit(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	walletID := uuid.New()
	amount := decimal.NewFromFloat(50.00)

	runAtomic(mockStore, mockUnit)
	mockUnit.EXPECT().
		GetWalletForUpdate(gomock.Any(), walletID).
		Return(models.Wallet{ID: walletID, OwnerName: "Alice", Balance: decimal.NewFromInt(100)}, nil)
	mockUnit.EXPECT().
		SaveWallet(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, w *models.Wallet) error {
			assert.True(t, w.Balance.Equal(decimal.NewFromInt(150)))
			return nil
		})
	mockUnit.EXPECT().
		AppendTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *models.WalletTransaction) error {
			assert.Equal(t, walletID, tx.WalletID)
			assert.Equal(t, models.TxTypeRecharge, tx.Type)
			assert.True(t, tx.Amount.Equal(amount))
			assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(150)))
			assert.NotEmpty(t, tx.Reference)
			assert.Equal(t, "top up", tx.Description)
			return nil
		})

	w, err := svc.Recharge(context.Background(), walletID, amount, "top up")
	assert.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(150)))
}

func TestRecharge_InvalidAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	_, err := svc.Recharge(context.Background(), uuid.New(), decimal.Zero, "")
	assert.ErrorIs(t, err, repository.ErrInvalidAmount)

	_, err = svc.Recharge(context.Background(), uuid.New(), decimal.NewFromInt(-10), "")
	assert.ErrorIs(t, err, repository.ErrInvalidAmount)
}

func TestRecharge_WalletNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	mockUnit := NewMockUnit(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	walletID := uuid.New()
	runAtomic(mockStore, mockUnit)
	mockUnit.EXPECT().
		GetWalletForUpdate(gomock.Any(), walletID).
		Return(models.Wallet{}, repository.ErrWalletNotFound)

	_, err := svc.Recharge(context.Background(), walletID, decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, repository.ErrWalletNotFound)
}

func TestTransfer_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	mockUnit := NewMockUnit(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	fromID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	toID := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	amount := decimal.NewFromFloat(20.00)

	runAtomic(mockStore, mockUnit)
	gomock.InOrder(
		mockUnit.EXPECT().
			GetWalletForUpdate(gomock.Any(), fromID).
			Return(models.Wallet{ID: fromID, OwnerName: "Alice", Balance: decimal.NewFromInt(50)}, nil),
		mockUnit.EXPECT().
			GetWalletForUpdate(gomock.Any(), toID).
			Return(models.Wallet{ID: toID, OwnerName: "Bob", Balance: decimal.Zero}, nil),
	)
	mockUnit.EXPECT().
		SaveWallets(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ws []*models.Wallet) error {
			assert.Len(t, ws, 2)
			assert.Equal(t, fromID, ws[0].ID)
			assert.True(t, ws[0].Balance.Equal(decimal.NewFromInt(30)))
			assert.Equal(t, toID, ws[1].ID)
			assert.True(t, ws[1].Balance.Equal(decimal.NewFromInt(20)))
			return nil
		})
	mockUnit.EXPECT().
		AppendTransactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, txs []*models.WalletTransaction) error {
			assert.Len(t, txs, 2)
			debit, credit := txs[0], txs[1]
			assert.Equal(t, models.TxTypeTransferDebit, debit.Type)
			assert.Equal(t, fromID, debit.WalletID)
			assert.True(t, debit.Amount.Equal(amount.Neg()))
			assert.True(t, debit.BalanceAfter.Equal(decimal.NewFromInt(30)))
			assert.Equal(t, models.TxTypeTransferCredit, credit.Type)
			assert.Equal(t, toID, credit.WalletID)
			assert.True(t, credit.Amount.Equal(amount))
			assert.True(t, credit.BalanceAfter.Equal(decimal.NewFromInt(20)))
			assert.NotEmpty(t, debit.Reference)
			assert.Equal(t, debit.Reference, credit.Reference)
			return nil
		})

	w, err := svc.Transfer(context.Background(), fromID, toID, amount, "lunch")
	assert.NoError(t, err)
	assert.Equal(t, fromID, w.ID)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(30)))
}

func TestTransfer_LocksInWalletIDOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	mockUnit := NewMockUnit(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	// The source id sorts after the destination, so the destination row must
	// be locked first.
	fromID := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	toID := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	runAtomic(mockStore, mockUnit)
	gomock.InOrder(
		mockUnit.EXPECT().
			GetWalletForUpdate(gomock.Any(), toID).
			Return(models.Wallet{ID: toID, Balance: decimal.Zero}, nil),
		mockUnit.EXPECT().
			GetWalletForUpdate(gomock.Any(), fromID).
			Return(models.Wallet{ID: fromID, Balance: decimal.NewFromInt(10)}, nil),
	)
	mockUnit.EXPECT().SaveWallets(gomock.Any(), gomock.Any()).Return(nil)
	mockUnit.EXPECT().AppendTransactions(gomock.Any(), gomock.Any()).Return(nil)

	w, err := svc.Transfer(context.Background(), fromID, toID, decimal.NewFromInt(10), "")
	assert.NoError(t, err)
	assert.Equal(t, fromID, w.ID)
	assert.True(t, w.Balance.IsZero())
}

func TestTransfer_SameWallet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	id := uuid.New()
	_, err := svc.Transfer(context.Background(), id, id, decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, repository.ErrSameWallet)
}

func TestTransfer_InvalidAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	_, err := svc.Transfer(context.Background(), uuid.New(), uuid.New(), decimal.Zero, "")
	assert.ErrorIs(t, err, repository.ErrInvalidAmount)
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	mockUnit := NewMockUnit(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	fromID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	toID := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	runAtomic(mockStore, mockUnit)
	mockUnit.EXPECT().
		GetWalletForUpdate(gomock.Any(), fromID).
		Return(models.Wallet{ID: fromID, Balance: decimal.NewFromInt(30)}, nil)
	mockUnit.EXPECT().
		GetWalletForUpdate(gomock.Any(), toID).
		Return(models.Wallet{ID: toID, Balance: decimal.Zero}, nil)

	_, err := svc.Transfer(context.Background(), fromID, toID, decimal.NewFromInt(1000), "")
	assert.ErrorIs(t, err, repository.ErrInsufficientBalance)
}

func TestTransfer_ExactBalanceAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	mockUnit := NewMockUnit(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	fromID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	toID := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	runAtomic(mockStore, mockUnit)
	mockUnit.EXPECT().
		GetWalletForUpdate(gomock.Any(), fromID).
		Return(models.Wallet{ID: fromID, Balance: decimal.NewFromInt(25)}, nil)
	mockUnit.EXPECT().
		GetWalletForUpdate(gomock.Any(), toID).
		Return(models.Wallet{ID: toID, Balance: decimal.Zero}, nil)
	mockUnit.EXPECT().SaveWallets(gomock.Any(), gomock.Any()).Return(nil)
	mockUnit.EXPECT().AppendTransactions(gomock.Any(), gomock.Any()).Return(nil)

	w, err := svc.Transfer(context.Background(), fromID, toID, decimal.NewFromInt(25), "")
	assert.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
}

func TestTransfer_WalletNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	mockUnit := NewMockUnit(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	fromID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	toID := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	runAtomic(mockStore, mockUnit)
	mockUnit.EXPECT().
		GetWalletForUpdate(gomock.Any(), fromID).
		Return(models.Wallet{ID: fromID, Balance: decimal.NewFromInt(100)}, nil)
	mockUnit.EXPECT().
		GetWalletForUpdate(gomock.Any(), toID).
		Return(models.Wallet{}, repository.ErrWalletNotFound)

	_, err := svc.Transfer(context.Background(), fromID, toID, decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, repository.ErrWalletNotFound)
}

func TestGetWallet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	walletID := uuid.New()
	mockStore.EXPECT().
		GetWallet(gomock.Any(), walletID).
		Return(models.Wallet{}, repository.ErrWalletNotFound)

	_, err := svc.GetWallet(context.Background(), walletID)
	assert.ErrorIs(t, err, repository.ErrWalletNotFound)
}

func TestGetTransactions_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	walletID := uuid.New()
	history := []models.WalletTransaction{
		{ID: 2, WalletID: walletID, Type: models.TxTypeRecharge},
		{ID: 1, WalletID: walletID, Type: models.TxTypeRecharge},
	}
	mockStore.EXPECT().
		GetWallet(gomock.Any(), walletID).
		Return(models.Wallet{ID: walletID}, nil)
	mockStore.EXPECT().
		ListTransactions(gomock.Any(), walletID).
		Return(history, nil)

	txs, err := svc.GetTransactions(context.Background(), walletID)
	assert.NoError(t, err)
	assert.Equal(t, history, txs)
}

func TestGetTransactions_WalletNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	walletID := uuid.New()
	mockStore.EXPECT().
		GetWallet(gomock.Any(), walletID).
		Return(models.Wallet{}, repository.ErrWalletNotFound)

	_, err := svc.GetTransactions(context.Background(), walletID)
	assert.ErrorIs(t, err, repository.ErrWalletNotFound)
}

func TestRecharge_StorageErrorRollsThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockStore := NewMockLedgerStore(ctrl)
	mockUnit := NewMockUnit(ctrl)
	svc := service.NewWalletService(mockStore, testLogger)

	walletID := uuid.New()
	runAtomic(mockStore, mockUnit)
	mockUnit.EXPECT().
		GetWalletForUpdate(gomock.Any(), walletID).
		Return(models.Wallet{ID: walletID, Balance: decimal.Zero}, nil)
	mockUnit.EXPECT().
		SaveWallet(gomock.Any(), gomock.Any()).
		Return(assert.AnError)

	_, err := svc.Recharge(context.Background(), walletID, decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, assert.AnError)
}
