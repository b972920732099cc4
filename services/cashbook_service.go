package services

import (
	"cashbook/database"
	"cashbook/utils"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// CashbookQuery содержит параметры экрана кассовой книги
type CashbookQuery struct {
	Branch   string
	From     *time.Time
	To       *time.Time
	Filter   Filter
	Page     int
	PageSize int
}

// Pagination описывает текущую страницу списка
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// CashbookPage представляет одну страницу кассовой книги с полными итогами
type CashbookPage struct {
	Cashbook
	Pagination Pagination `json:"pagination"`
}

// CashbookService собирает кассовую книгу из данных хранилища
type CashbookService struct {
	transactions TransactionStore
	balances     OpeningBalanceStore
	metrics      *utils.Metrics
}

// NewCashbookService создает новый экземпляр CashbookService
func NewCashbookService(transactions TransactionStore, balances OpeningBalanceStore, metrics *utils.Metrics) *CashbookService {
	return &CashbookService{
		transactions: transactions,
		balances:     balances,
		metrics:      metrics,
	}
}

// resolveBranch определяет филиал выборки с учетом прав пользователя
func resolveBranch(actor Actor, branch string) (string, error) {
	if actor.IsAdmin() {
		if isWildcard(branch) {
			return AllFilter, nil
		}
		return branch, nil
	}

	// Сотрудник всегда ограничен своим филиалом
	if !isWildcard(branch) && !actor.CanAccessBranch(branch) {
		return "", ErrForbiddenBranch
	}
	return actor.Branch, nil
}

// Build рассчитывает кассовую книгу целиком, без разбиения на страницы
func (s *CashbookService) Build(ctx context.Context, actor Actor, q CashbookQuery) (Cashbook, string, error) {
	branch, err := resolveBranch(actor, q.Branch)
	if err != nil {
		return Cashbook{}, "", err
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return Cashbook{}, "", fmt.Errorf("%w: from is after to", ErrInvalidInput)
	}

	// Получаем транзакции филиала за период
	transactions, err := s.transactions.ListTransactions(ctx, database.TransactionQuery{
		Branch: branch,
		From:   q.From,
		To:     q.To,
	})
	if err != nil {
		return Cashbook{}, "", fmt.Errorf("ошибка получения транзакций: %w", err)
	}

	// Остатки на начало нужны всегда полностью: итог по всем филиалам суммирует их все
	openingBalances, err := s.balances.ListOpeningBalances(ctx)
	if err != nil {
		return Cashbook{}, "", fmt.Errorf("ошибка получения остатков на начало: %w", err)
	}

	start := time.Now()
	cb := BuildCashbook(CashbookInput{
		Transactions:    transactions,
		OpeningBalances: openingBalances,
		Branch:          branch,
		Filter:          q.Filter,
	})
	if s.metrics != nil {
		s.metrics.RecordCashbook(time.Since(start), len(transactions), len(cb.Rejected))
	}

	for _, rejected := range cb.Rejected {
		utils.Logger().Warn("transaction excluded from cashbook",
			zap.String("id", rejected.ID),
			zap.String("reason", rejected.Reason),
			zap.String("branch", branch),
		)
	}

	return cb, branch, nil
}

// GetCashbook возвращает страницу кассовой книги
func (s *CashbookService) GetCashbook(ctx context.Context, actor Actor, q CashbookQuery) (*CashbookPage, error) {
	cb, _, err := s.Build(ctx, actor, q)
	if err != nil {
		return nil, err
	}
	page := Paginate(cb, q.Page, q.PageSize)
	return &page, nil
}

// Paginate вырезает страницу из списка в порядке отображения.
// Остатки и итоги не пересчитываются.
func Paginate(cb Cashbook, page, pageSize int) CashbookPage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}

	total := len(cb.Transactions)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	out := cb
	out.Transactions = cb.Transactions[start:end:end]
	return CashbookPage{
		Cashbook: out,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}
}
