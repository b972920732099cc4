package controllers

import (
	"cashbook/middleware"
	"cashbook/services"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// TransactionController обрабатывает запросы, связанные с кассовыми транзакциями
type TransactionController struct {
	transactions *services.TransactionService
	validator    *validator.Validate
}

// NewTransactionController создает новый экземпляр TransactionController
func NewTransactionController(transactions *services.TransactionService) *TransactionController {
	return &TransactionController{
		transactions: transactions,
		validator:    newValidator(),
	}
}

// Submit обрабатывает запрос на создание транзакции
func (c *TransactionController) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var dto services.SubmitTransactionDTO
	if err := decodeJSON(r, &dto); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Валидируем DTO
	if err := validateRequest(c.validator, dto); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	transaction, err := c.transactions.Submit(r.Context(), actor, dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, transaction)
}

// Get возвращает транзакцию по ID
func (c *TransactionController) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	transaction, err := c.transactions.Get(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transaction)
}

// Verify обрабатывает решение администратора по транзакции
func (c *TransactionController) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var dto services.VerifyTransactionDTO
	if err := decodeJSON(r, &dto); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validateRequest(c.validator, dto); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	transaction, err := c.transactions.Verify(r.Context(), actor, mux.Vars(r)["id"], dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transaction)
}

// Delete удаляет непроверенную транзакцию
func (c *TransactionController) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := c.transactions.Delete(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
