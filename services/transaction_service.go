package services

import (
	"cashbook/models"
	"cashbook/utils"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubmitTransactionDTO содержит данные новой кассовой транзакции
type SubmitTransactionDTO struct {
	Branch          string          `json:"branch" validate:"required,max=100"`
	TransactionDate string          `json:"transaction_date" validate:"required,datetime=2006-01-02"`
	CashIn          decimal.Decimal `json:"cash_in"`
	CashOut         decimal.Decimal `json:"cash_out"`
	BillStatus      string          `json:"bill_status" validate:"required,max=30"`
	NatureOfExpense string          `json:"nature_of_expense" validate:"required,max=100"`
	VoucherNo       string          `json:"voucher_no" validate:"required,max=50"`
	Notes           *string         `json:"notes,omitempty"`
}

// VerifyTransactionDTO содержит решение администратора по транзакции
type VerifyTransactionDTO struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Reason string `json:"reason" validate:"required_if=Status rejected,max=255"`
}

// TransactionService предоставляет методы для работы с кассовыми транзакциями
type TransactionService struct {
	transactions TransactionStore
	openings     OpeningBalanceStore
	users        UserStore
	notifier     Notifier
	metrics      *utils.Metrics
	now          func() time.Time
}

// NewTransactionService создает новый экземпляр TransactionService
func NewTransactionService(transactions TransactionStore, openings OpeningBalanceStore, users UserStore, notifier Notifier, metrics *utils.Metrics) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		openings:     openings,
		users:        users,
		notifier:     notifier,
		metrics:      metrics,
		now:          time.Now,
	}
}

// Submit создает транзакцию в статусе pending
func (s *TransactionService) Submit(ctx context.Context, actor Actor, dto SubmitTransactionDTO) (*models.CashTransaction, error) {
	start := time.Now()

	branch := strings.TrimSpace(dto.Branch)
	if !actor.CanAccessBranch(branch) {
		return nil, ErrForbiddenBranch
	}
	// Сотрудник пишет в свой филиал в сохраненном написании
	if !actor.IsAdmin() {
		branch = actor.Branch
	} else {
		canonical, err := s.canonicalBranch(ctx, branch)
		if err != nil {
			return nil, err
		}
		branch = canonical
	}

	date, err := time.Parse(time.DateOnly, dto.TransactionDate)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction_date must be YYYY-MM-DD", ErrInvalidInput)
	}
	if dto.CashIn.IsNegative() || dto.CashOut.IsNegative() {
		return nil, fmt.Errorf("%w: amounts must not be negative", ErrInvalidInput)
	}
	if dto.CashIn.IsZero() && dto.CashOut.IsZero() {
		return nil, fmt.Errorf("%w: cash_in or cash_out must be set", ErrInvalidInput)
	}

	transaction := &models.CashTransaction{
		Branch:             branch,
		TransactionDate:    date,
		CashIn:             dto.CashIn.Round(2),
		CashOut:            dto.CashOut.Round(2),
		VerificationStatus: models.VerificationStatusPending,
		BillStatus:         models.BillStatus(dto.BillStatus),
		NatureOfExpense:    strings.TrimSpace(dto.NatureOfExpense),
		VoucherNo:          strings.TrimSpace(dto.VoucherNo),
		Notes:              dto.Notes,
	}
	if actor.UserID != "" {
		staffID := actor.UserID
		transaction.StaffID = &staffID
	}

	err = s.transactions.CreateTransaction(ctx, transaction)
	utils.LogOperation("submit_transaction", start, err)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения транзакции: %w", err)
	}

	return transaction, nil
}

// canonicalBranch возвращает написание филиала из остатков на начало, если оно есть
func (s *TransactionService) canonicalBranch(ctx context.Context, branch string) (string, error) {
	if s.openings == nil {
		return branch, nil
	}
	balances, err := s.openings.ListOpeningBalances(ctx)
	if err != nil {
		return "", fmt.Errorf("ошибка получения остатков на начало: %w", err)
	}
	if ob, ok := findOpeningBalance(branch, balances); ok {
		return ob.Branch, nil
	}
	return branch, nil
}

// validTransactionID отсекает ID, которые не могут быть ключом транзакции
func validTransactionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrTransactionNotFound
	}
	return nil
}

// Get возвращает транзакцию, если она доступна пользователю
func (s *TransactionService) Get(ctx context.Context, actor Actor, id string) (*models.CashTransaction, error) {
	if err := validTransactionID(id); err != nil {
		return nil, err
	}
	transaction, err := s.transactions.GetTransaction(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTransactionNotFound)
	}
	if !actor.CanAccessBranch(transaction.Branch) {
		return nil, ErrForbiddenBranch
	}
	return transaction, nil
}

// Verify одобряет или отклоняет транзакцию.
// Переход возможен только из pending, решение окончательное.
func (s *TransactionService) Verify(ctx context.Context, actor Actor, id string, dto VerifyTransactionDTO) (*models.CashTransaction, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}

	status := models.VerificationStatus(dto.Status)
	if status != models.VerificationStatusApproved && status != models.VerificationStatusRejected {
		return nil, fmt.Errorf("%w: status must be approved or rejected", ErrInvalidInput)
	}
	reason := strings.TrimSpace(dto.Reason)
	if status == models.VerificationStatusRejected && reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrInvalidInput)
	}
	if err := validTransactionID(id); err != nil {
		return nil, err
	}

	start := time.Now()
	transaction, err := s.transactions.UpdateTransaction(ctx, id, func(t *models.CashTransaction) error {
		if t.VerificationStatus != models.VerificationStatusPending {
			return ErrInvalidStatusTransition
		}

		now := s.now()
		verifier := actor.UserID
		t.VerificationStatus = status
		t.VerifiedBy = &verifier
		t.VerifiedAt = &now
		t.RejectionReason = nil
		if status == models.VerificationStatusRejected {
			t.RejectionReason = &reason
		}
		return nil
	})
	utils.LogOperation("verify_transaction", start, err)
	if err != nil {
		if errors.Is(err, ErrInvalidStatusTransition) {
			return nil, err
		}
		return nil, notFound(err, ErrTransactionNotFound)
	}

	if s.metrics != nil {
		s.metrics.RecordVerification(string(status))
	}
	s.notifyStaff(ctx, *transaction)

	return transaction, nil
}

// notifyStaff сообщает сотруднику о решении. Ошибки только логируются.
func (s *TransactionService) notifyStaff(ctx context.Context, t models.CashTransaction) {
	if s.notifier == nil || t.StaffID == nil {
		return
	}

	staff, err := s.users.GetUserByID(ctx, *t.StaffID)
	if err != nil {
		utils.Logger().Warn("staff member for notification not found",
			zap.String("transaction_id", t.ID),
			zap.Error(err),
		)
		return
	}

	if err := s.notifier.SendVerificationResult(staff.Email, t); err != nil {
		utils.Logger().Error("failed to send verification email",
			zap.String("transaction_id", t.ID),
			zap.String("to", staff.Email),
			zap.Error(err),
		)
	}
}

// Delete удаляет непроверенную транзакцию
func (s *TransactionService) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	if err := validTransactionID(id); err != nil {
		return err
	}

	err := s.transactions.DeleteTransaction(ctx, id, func(t *models.CashTransaction) error {
		if t.VerificationStatus != models.VerificationStatusPending {
			return ErrInvalidStatusTransition
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidStatusTransition) {
			return err
		}
		return notFound(err, ErrTransactionNotFound)
	}

	utils.LogInfo("Транзакция %s удалена администратором %s", id, actor.UserID)
	return nil
}
