package controllers

import (
	"bytes"
	"cashbook/middleware"
	"cashbook/services"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// CashbookController обрабатывает запросы кассовой книги
type CashbookController struct {
	cashbook *services.CashbookService
	export   *services.ExportService
}

// NewCashbookController создает новый экземпляр CashbookController
func NewCashbookController(cashbook *services.CashbookService, export *services.ExportService) *CashbookController {
	return &CashbookController{cashbook: cashbook, export: export}
}

func parseDateParam(values url.Values, name string) (*time.Time, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("parameter %s must be YYYY-MM-DD", name)
	}
	return &d, nil
}

func parseIntParam(values url.Values, name string) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("parameter %s must be a non-negative integer", name)
	}
	return n, nil
}

// parseCashbookQuery читает параметры экрана кассовой книги из строки запроса
func parseCashbookQuery(r *http.Request) (services.CashbookQuery, error) {
	values := r.URL.Query()
	q := services.CashbookQuery{
		Branch: values.Get("branch"),
		Filter: services.Filter{
			StaffID:            values.Get("staff_id"),
			BillStatus:         values.Get("bill_status"),
			Category:           values.Get("category"),
			VerificationStatus: values.Get("verification_status"),
		},
	}

	var err error
	if q.From, err = parseDateParam(values, "from"); err != nil {
		return q, err
	}
	if q.To, err = parseDateParam(values, "to"); err != nil {
		return q, err
	}
	if q.Page, err = parseIntParam(values, "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = parseIntParam(values, "page_size"); err != nil {
		return q, err
	}
	return q, nil
}

// GetCashbook возвращает страницу кассовой книги с итогами
func (c *CashbookController) GetCashbook(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	q, err := parseCashbookQuery(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := c.cashbook.GetCashbook(r.Context(), actor, q)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// ExportXML выгружает кассовую книгу целиком в XML
func (c *CashbookController) ExportXML(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	q, err := parseCashbookQuery(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Собираем документ в памяти до отправки статуса
	var buf bytes.Buffer
	if err := c.export.WriteXML(r.Context(), actor, q, &buf); err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="cashbook.xml"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
