package controllers

import (
	"cashbook/models"
	"cashbook/services"
	"cashbook/services/servicestest"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	pendingTxID = "9b2e4c70-1a3d-4f5e-8c6b-7d8e9f0a1b01"
	puneTxID    = "9b2e4c70-1a3d-4f5e-8c6b-7d8e9f0a1b02"
)

func newTransactionController(store *servicestest.MemoryStore) (*TransactionController, *servicestest.RecordingNotifier) {
	notifier := &servicestest.RecordingNotifier{}
	return NewTransactionController(services.NewTransactionService(store, store, store, notifier, nil)), notifier
}

func TestTransactionController_Submit(t *testing.T) {
	store := newStore()
	c, _ := newTransactionController(store)

	body := `{"branch":"Mumbai","transaction_date":"2024-03-05","cash_in":"0","cash_out":"120.50",` +
		`"bill_status":"Paid","nature_of_expense":"Courier","voucher_no":"V-9"}`
	rr := serve(c.Submit, request(http.MethodPost, "/api/transactions", body, staffClaims, nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	var created models.CashTransaction
	decodeBody(t, rr, &created)
	require.Equal(t, models.VerificationStatusPending, created.VerificationStatus)
	require.Equal(t, "120.5", created.CashOut.String())

	missing := `{"branch":"Mumbai","transaction_date":"2024-03-05","cash_out":"10","bill_status":"Paid","nature_of_expense":"Courier"}`
	rr = serve(c.Submit, request(http.MethodPost, "/api/transactions", missing, staffClaims, nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "field VoucherNo is required", errorMessage(t, rr))

	badDate := `{"branch":"Mumbai","transaction_date":"05/03/2024","cash_out":"10","bill_status":"Paid","nature_of_expense":"Courier","voucher_no":"V-1"}`
	rr = serve(c.Submit, request(http.MethodPost, "/api/transactions", badDate, staffClaims, nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	foreign := `{"branch":"Pune","transaction_date":"2024-03-05","cash_out":"10","bill_status":"Paid","nature_of_expense":"Courier","voucher_no":"V-1"}`
	rr = serve(c.Submit, request(http.MethodPost, "/api/transactions", foreign, staffClaims, nil))
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestTransactionController_VerifyFlow(t *testing.T) {
	store := newStore()
	pending := cashTx(pendingTxID, "Mumbai", "2024-01-10", 100, 0, models.VerificationStatusPending)
	store.AddTransactions(pending)
	c, _ := newTransactionController(store)
	vars := map[string]string{"id": pendingTxID}

	rr := serve(c.Verify, request(http.MethodPost, "/api/transactions/"+pendingTxID+"/verify", `{"status":"rejected"}`, adminClaims, vars))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(c.Verify, request(http.MethodPost, "/api/transactions/"+pendingTxID+"/verify", `{"status":"approved"}`, adminClaims, vars))
	require.Equal(t, http.StatusOK, rr.Code)

	var verified models.CashTransaction
	decodeBody(t, rr, &verified)
	require.Equal(t, models.VerificationStatusApproved, verified.VerificationStatus)

	rr = serve(c.Verify, request(http.MethodPost, "/api/transactions/"+pendingTxID+"/verify", `{"status":"rejected","reason":"dup"}`, adminClaims, vars))
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = serve(c.Verify, request(http.MethodPost, "/api/transactions/9b2e4c70-1a3d-4f5e-8c6b-7d8e9f0a1bff/verify", `{"status":"approved"}`, adminClaims, map[string]string{"id": "9b2e4c70-1a3d-4f5e-8c6b-7d8e9f0a1bff"}))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(c.Verify, request(http.MethodPost, "/api/transactions/X/verify", `{"status":"approved"}`, adminClaims, map[string]string{"id": "X"}))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransactionController_GetAndDelete(t *testing.T) {
	store := newStore()
	store.AddTransactions(
		cashTx(pendingTxID, "Mumbai", "2024-01-10", 100, 0, models.VerificationStatusPending),
		cashTx(puneTxID, "Pune", "2024-01-10", 100, 0, models.VerificationStatusPending),
	)
	c, _ := newTransactionController(store)

	rr := serve(c.Get, request(http.MethodGet, "/api/transactions/"+pendingTxID, "", staffClaims, map[string]string{"id": pendingTxID}))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(c.Get, request(http.MethodGet, "/api/transactions/"+puneTxID, "", staffClaims, map[string]string{"id": puneTxID}))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(c.Delete, request(http.MethodDelete, "/api/transactions/"+pendingTxID, "", adminClaims, map[string]string{"id": pendingTxID}))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(c.Get, request(http.MethodGet, "/api/transactions/"+pendingTxID, "", adminClaims, map[string]string{"id": pendingTxID}))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransactionController_MalformedIDReturnsNotFound(t *testing.T) {
	c, _ := newTransactionController(newStore())
	vars := map[string]string{"id": "abc"}

	rr := serve(c.Get, request(http.MethodGet, "/api/transactions/abc", "", adminClaims, vars))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(c.Delete, request(http.MethodDelete, "/api/transactions/abc", "", adminClaims, vars))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
