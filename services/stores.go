package services

import (
	"cashbook/database"
	"cashbook/models"
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionStore описывает хранилище транзакций. Реализуется *database.Database.
type TransactionStore interface {
	ListTransactions(ctx context.Context, q database.TransactionQuery) ([]models.CashTransaction, error)
	GetTransaction(ctx context.Context, id string) (*models.CashTransaction, error)
	CreateTransaction(ctx context.Context, transaction *models.CashTransaction) error
	UpdateTransaction(ctx context.Context, id string, fn func(*models.CashTransaction) error) (*models.CashTransaction, error)
	DeleteTransaction(ctx context.Context, id string, check func(*models.CashTransaction) error) error
	CountPendingByBranch(ctx context.Context) (map[string]int64, error)
}

// OpeningBalanceStore описывает хранилище остатков на начало
type OpeningBalanceStore interface {
	ListOpeningBalances(ctx context.Context) ([]models.OpeningBalance, error)
	UpsertOpeningBalance(ctx context.Context, branch string, amount decimal.Decimal) (*models.OpeningBalance, error)
}

// UserStore описывает хранилище пользователей
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User, prepare func(existing int64) error) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
}

var (
	_ TransactionStore    = (*database.Database)(nil)
	_ OpeningBalanceStore = (*database.Database)(nil)
	_ UserStore           = (*database.Database)(nil)
)

// Actor описывает пользователя, от имени которого выполняется операция
type Actor struct {
	UserID string
	Email  string
	Role   models.Role
	Branch string
}

// IsAdmin сообщает, есть ли у пользователя права администратора
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanAccessBranch проверяет доступ к филиалу. Сотрудник видит только свой филиал.
func (a Actor) CanAccessBranch(branch string) bool {
	return a.IsAdmin() || strings.EqualFold(a.Branch, branch)
}
