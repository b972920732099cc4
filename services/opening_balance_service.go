package services

import (
	"cashbook/models"
	"cashbook/utils"
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SetOpeningBalanceDTO содержит остаток филиала на начало периода
type SetOpeningBalanceDTO struct {
	Branch         string          `json:"branch" validate:"required,max=100"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// OpeningBalanceService предоставляет методы для работы с остатками на начало
type OpeningBalanceService struct {
	store OpeningBalanceStore
}

// NewOpeningBalanceService создает новый экземпляр OpeningBalanceService
func NewOpeningBalanceService(store OpeningBalanceStore) *OpeningBalanceService {
	return &OpeningBalanceService{store: store}
}

// List возвращает остатки, доступные пользователю
func (s *OpeningBalanceService) List(ctx context.Context, actor Actor) ([]models.OpeningBalance, error) {
	balances, err := s.store.ListOpeningBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения остатков на начало: %w", err)
	}
	if actor.IsAdmin() {
		return balances, nil
	}

	visible := make([]models.OpeningBalance, 0, 1)
	for _, b := range balances {
		if actor.CanAccessBranch(b.Branch) {
			visible = append(visible, b)
		}
	}
	return visible, nil
}

// Set создает или обновляет остаток филиала. Доступно только администратору.
func (s *OpeningBalanceService) Set(ctx context.Context, actor Actor, dto SetOpeningBalanceDTO) (*models.OpeningBalance, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}

	branch := strings.TrimSpace(dto.Branch)
	if branch == "" || strings.EqualFold(branch, AllFilter) {
		return nil, fmt.Errorf("%w: branch name is reserved or empty", ErrInvalidInput)
	}

	balance, err := s.store.UpsertOpeningBalance(ctx, branch, dto.OpeningBalance.Round(2))
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения остатка на начало: %w", err)
	}

	utils.LogInfo("Остаток на начало филиала %s установлен: %s", balance.Branch, utils.FormatINR(balance.OpeningBalance))
	return balance, nil
}
