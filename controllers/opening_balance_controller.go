package controllers

import (
	"cashbook/middleware"
	"cashbook/services"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// OpeningBalanceController обрабатывает запросы остатков на начало
type OpeningBalanceController struct {
	balances  *services.OpeningBalanceService
	validator *validator.Validate
}

// NewOpeningBalanceController создает новый экземпляр OpeningBalanceController
func NewOpeningBalanceController(balances *services.OpeningBalanceService) *OpeningBalanceController {
	return &OpeningBalanceController{
		balances:  balances,
		validator: newValidator(),
	}
}

// List возвращает остатки на начало
func (c *OpeningBalanceController) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	balances, err := c.balances.List(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balances)
}

// Set создает или обновляет остаток филиала
func (c *OpeningBalanceController) Set(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var dto services.SetOpeningBalanceDTO
	if err := decodeJSON(r, &dto); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validateRequest(c.validator, dto); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	balance, err := c.balances.Set(r.Context(), actor, dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}
