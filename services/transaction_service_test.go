package services

import (
	"cashbook/models"
	"cashbook/services/servicestest"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	pendingID  = "3f6c1a2e-8d4b-4c1e-9a57-2b1d0e6f7a01"
	approvedID = "3f6c1a2e-8d4b-4c1e-9a57-2b1d0e6f7a02"
	absentID   = "3f6c1a2e-8d4b-4c1e-9a57-2b1d0e6f7a03"
	puneID     = "3f6c1a2e-8d4b-4c1e-9a57-2b1d0e6f7a04"
)

func newTestTransactionService(t *testing.T) (*TransactionService, *servicestest.MemoryStore, *servicestest.RecordingNotifier) {
	t.Helper()
	store := newMemoryStore()
	store.Users = []*models.User{
		{ID: "admin-1", FullName: "Admin", Email: "admin@example.com", Role: models.RoleAdmin},
		{ID: "staff-1", FullName: "Staff", Email: "staff@example.com", Role: models.RoleStaff, Branch: "Mumbai"},
	}
	notifier := &servicestest.RecordingNotifier{}
	s := NewTransactionService(store, store, store, notifier, nil)
	s.now = func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC) }
	return s, store, notifier
}

func validSubmission() SubmitTransactionDTO {
	return SubmitTransactionDTO{
		Branch:          "mumbai",
		TransactionDate: "2024-01-15",
		CashIn:          decimal.Zero,
		CashOut:         decimal.RequireFromString("250.456"),
		BillStatus:      string(models.BillStatusYetToPay),
		NatureOfExpense: "Stationery",
		VoucherNo:       "V-100",
	}
}

func TestTransactionService_Submit(t *testing.T) {
	s, store, _ := newTestTransactionService(t)

	created, err := s.Submit(context.Background(), mumbaiStaff, validSubmission())
	require.NoError(t, err)

	require.NotEmpty(t, created.ID)
	require.Equal(t, "Mumbai", created.Branch)
	require.Equal(t, models.VerificationStatusPending, created.VerificationStatus)
	require.Equal(t, "250.46", created.CashOut.StringFixed(2))
	require.Equal(t, day("2024-01-15"), created.TransactionDate)
	require.NotNil(t, created.StaffID)
	require.Equal(t, "staff-1", *created.StaffID)

	stored, err := store.GetTransaction(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.VoucherNo, stored.VoucherNo)
}

func TestTransactionService_SubmitRejectsInvalidInput(t *testing.T) {
	s, _, _ := newTestTransactionService(t)
	ctx := context.Background()

	otherBranch := validSubmission()
	otherBranch.Branch = "Pune"
	_, err := s.Submit(ctx, mumbaiStaff, otherBranch)
	require.ErrorIs(t, err, ErrForbiddenBranch)

	cases := map[string]func(*SubmitTransactionDTO){
		"bad date":        func(d *SubmitTransactionDTO) { d.TransactionDate = "15/01/2024" },
		"negative amount": func(d *SubmitTransactionDTO) { d.CashIn = decimal.NewFromInt(-1) },
		"both zero":       func(d *SubmitTransactionDTO) { d.CashOut = decimal.Zero },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			dto := validSubmission()
			mutate(&dto)
			_, err := s.Submit(ctx, mumbaiStaff, dto)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	// Администратор может вносить транзакции любого филиала
	_, err = s.Submit(ctx, adminActor, otherBranch)
	require.NoError(t, err)
}

func TestTransactionService_VerifyApprove(t *testing.T) {
	s, store, notifier := newTestTransactionService(t)
	pending := tx(pendingID, "Mumbai", "2024-01-10", base, 100, 0, models.VerificationStatusPending)
	pending.StaffID = strPtr("staff-1")
	store.AddTransactions(pending)

	verified, err := s.Verify(context.Background(), adminActor, pendingID, VerifyTransactionDTO{Status: "approved"})
	require.NoError(t, err)

	require.Equal(t, models.VerificationStatusApproved, verified.VerificationStatus)
	require.Equal(t, "admin-1", *verified.VerifiedBy)
	require.Equal(t, s.now(), *verified.VerifiedAt)
	require.Nil(t, verified.RejectionReason)

	require.Len(t, notifier.Verifications, 1)
	require.Equal(t, "staff@example.com", notifier.Verifications[0].To)
	require.Equal(t, pendingID, notifier.Verifications[0].Transaction.ID)

	// Решение окончательное
	_, err = s.Verify(context.Background(), adminActor, pendingID, VerifyTransactionDTO{Status: "rejected", Reason: "late"})
	require.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestTransactionService_VerifyReject(t *testing.T) {
	s, store, _ := newTestTransactionService(t)
	store.AddTransactions(tx(pendingID, "Mumbai", "2024-01-10", base, 100, 0, models.VerificationStatusPending))
	ctx := context.Background()

	_, err := s.Verify(ctx, adminActor, pendingID, VerifyTransactionDTO{Status: "rejected", Reason: "  "})
	require.ErrorIs(t, err, ErrInvalidInput)

	rejected, err := s.Verify(ctx, adminActor, pendingID, VerifyTransactionDTO{Status: "rejected", Reason: "no bill attached"})
	require.NoError(t, err)
	require.Equal(t, models.VerificationStatusRejected, rejected.VerificationStatus)
	require.Equal(t, "no bill attached", *rejected.RejectionReason)
}

func TestTransactionService_VerifyPermissionsAndLookup(t *testing.T) {
	s, store, _ := newTestTransactionService(t)
	store.AddTransactions(tx(pendingID, "Mumbai", "2024-01-10", base, 100, 0, models.VerificationStatusPending))
	ctx := context.Background()

	_, err := s.Verify(ctx, mumbaiStaff, pendingID, VerifyTransactionDTO{Status: "approved"})
	require.ErrorIs(t, err, ErrAdminOnly)

	_, err = s.Verify(ctx, adminActor, "missing", VerifyTransactionDTO{Status: "approved"})
	require.ErrorIs(t, err, ErrTransactionNotFound)

	_, err = s.Verify(ctx, adminActor, pendingID, VerifyTransactionDTO{Status: "pending"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransactionService_NotificationFailureDoesNotFailVerify(t *testing.T) {
	s, store, notifier := newTestTransactionService(t)
	notifier.Err = errors.New("smtp down")
	pending := tx(pendingID, "Mumbai", "2024-01-10", base, 100, 0, models.VerificationStatusPending)
	pending.StaffID = strPtr("staff-1")
	store.AddTransactions(pending)

	_, err := s.Verify(context.Background(), adminActor, pendingID, VerifyTransactionDTO{Status: "approved"})
	require.NoError(t, err)
}

func TestTransactionService_Get(t *testing.T) {
	s, store, _ := newTestTransactionService(t)
	store.AddTransactions(tx(puneID, "Pune", "2024-01-10", base, 100, 0, models.VerificationStatusPending))
	ctx := context.Background()

	_, err := s.Get(ctx, mumbaiStaff, puneID)
	require.ErrorIs(t, err, ErrForbiddenBranch)

	got, err := s.Get(ctx, adminActor, puneID)
	require.NoError(t, err)
	require.Equal(t, "Pune", got.Branch)

	_, err = s.Get(ctx, adminActor, "nope")
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestTransactionService_Delete(t *testing.T) {
	s, store, _ := newTestTransactionService(t)
	store.AddTransactions(
		tx(pendingID, "Mumbai", "2024-01-10", base, 100, 0, models.VerificationStatusPending),
		tx(approvedID, "Mumbai", "2024-01-11", base, 100, 0, models.VerificationStatusApproved),
	)
	ctx := context.Background()

	require.ErrorIs(t, s.Delete(ctx, mumbaiStaff, pendingID), ErrAdminOnly)
	require.ErrorIs(t, s.Delete(ctx, adminActor, approvedID), ErrInvalidStatusTransition)
	require.ErrorIs(t, s.Delete(ctx, adminActor, absentID), ErrTransactionNotFound)

	require.NoError(t, s.Delete(ctx, adminActor, pendingID))
	_, err := store.GetTransaction(ctx, pendingID)
	require.Error(t, err)
}

func TestTransactionService_MalformedIDIsNotFound(t *testing.T) {
	s, store, _ := newTestTransactionService(t)
	// Хранилище в памяти нашло бы запись по любому ключу
	store.AddTransactions(tx("abc", "Mumbai", "2024-01-10", base, 100, 0, models.VerificationStatusPending))
	ctx := context.Background()

	_, err := s.Get(ctx, adminActor, "abc")
	require.ErrorIs(t, err, ErrTransactionNotFound)

	_, err = s.Verify(ctx, adminActor, "abc", VerifyTransactionDTO{Status: "approved"})
	require.ErrorIs(t, err, ErrTransactionNotFound)

	require.ErrorIs(t, s.Delete(ctx, adminActor, "abc"), ErrTransactionNotFound)

	stored, err := store.GetTransaction(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, models.VerificationStatusPending, stored.VerificationStatus)
}

func TestTransactionService_SubmitUsesOpeningBalanceSpelling(t *testing.T) {
	s, store, _ := newTestTransactionService(t)
	store.Openings = []models.OpeningBalance{{ID: 1, Branch: "Mumbai", OpeningBalance: decimal.NewFromInt(1000)}}
	ctx := context.Background()

	dto := validSubmission()
	dto.Branch = "  mumbai "
	created, err := s.Submit(ctx, adminActor, dto)
	require.NoError(t, err)
	require.Equal(t, "Mumbai", created.Branch)

	// Филиал без остатка на начало сохраняется как введен
	dto.Branch = "Nashik"
	created, err = s.Submit(ctx, adminActor, dto)
	require.NoError(t, err)
	require.Equal(t, "Nashik", created.Branch)

	store.OpeningsErr = errStoreDown
	_, err = s.Submit(ctx, adminActor, dto)
	require.ErrorIs(t, err, errStoreDown)
}
