package controllers

import (
	"cashbook/models"
	"cashbook/services"
	"cashbook/services/servicestest"
	"net/http"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func newCashbookController(store *servicestest.MemoryStore) *CashbookController {
	cashbook := services.NewCashbookService(store, store, nil)
	return NewCashbookController(cashbook, services.NewExportService(cashbook))
}

func seededStore() *servicestest.MemoryStore {
	store := newStore()
	store.AddTransactions(
		cashTx("T1", "Mumbai", "2024-01-01", 500, 0, models.VerificationStatusApproved),
		cashTx("T2", "Mumbai", "2024-01-02", 0, 200, models.VerificationStatusPending),
		cashTx("T3", "Mumbai", "2024-01-03", 300, 0, models.VerificationStatusApproved),
		cashTx("P1", "Pune", "2024-01-02", 50, 0, models.VerificationStatusApproved),
	)
	return store
}

type cashbookResponse struct {
	AnnotatedTransactions []struct {
		ID                string `json:"id"`
		CalculatedBalance string `json:"calculatedBalance"`
	} `json:"annotatedTransactions"`
	GrandTotal      *map[string]interface{}            `json:"grandTotal"`
	BranchSummaries map[string]map[string]interface{} `json:"branchSummaries"`
	Pagination      services.Pagination               `json:"pagination"`
}

func TestCashbookController_GetCashbook(t *testing.T) {
	c := newCashbookController(seededStore())

	rr := serve(c.GetCashbook, request(http.MethodGet, "/api/cashbook?branch=Mumbai&page_size=2", "", adminClaims, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body cashbookResponse
	decodeBody(t, rr, &body)

	require.Len(t, body.AnnotatedTransactions, 2)
	require.Equal(t, "T3", body.AnnotatedTransactions[0].ID)
	require.Equal(t, "1800", body.AnnotatedTransactions[0].CalculatedBalance)
	require.Equal(t, "1500", body.AnnotatedTransactions[1].CalculatedBalance)
	require.Nil(t, body.GrandTotal)
	require.Contains(t, body.BranchSummaries, "Mumbai")
	require.Equal(t, services.Pagination{Page: 1, PageSize: 2, TotalItems: 3, TotalPages: 2}, body.Pagination)
}

func TestCashbookController_AllBranchesHasGrandTotal(t *testing.T) {
	c := newCashbookController(seededStore())

	rr := serve(c.GetCashbook, request(http.MethodGet, "/api/cashbook?branch=all", "", adminClaims, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body cashbookResponse
	decodeBody(t, rr, &body)
	require.NotNil(t, body.GrandTotal)
	require.Equal(t, "1850", (*body.GrandTotal)["closing_balance"])
	require.Len(t, body.BranchSummaries, 2)
}

func TestCashbookController_Errors(t *testing.T) {
	c := newCashbookController(seededStore())

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"bad date", "/api/cashbook?from=01-01-2024", http.StatusBadRequest},
		{"bad page", "/api/cashbook?page=-1", http.StatusBadRequest},
		{"reversed range", "/api/cashbook?from=2024-02-01&to=2024-01-01", http.StatusBadRequest},
		{"foreign branch", "/api/cashbook?branch=Pune", http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(c.GetCashbook, request(http.MethodGet, tc.target, "", staffClaims, nil))
			require.Equal(t, tc.status, rr.Code)
			require.NotEmpty(t, errorMessage(t, rr))
		})
	}

	rr := serve(c.GetCashbook, request(http.MethodGet, "/api/cashbook", "", nil, nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCashbookController_ExportXML(t *testing.T) {
	c := newCashbookController(seededStore())

	rr := serve(c.ExportXML, request(http.MethodGet, "/api/cashbook/export.xml?from=2024-01-02", "", staffClaims, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "application/xml"))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(rr.Body.Bytes()))
	root := doc.SelectElement("CASHBOOK")
	require.Equal(t, "Mumbai", root.SelectAttrValue("branch", ""))
	require.Equal(t, "2024-01-02", root.SelectAttrValue("from", ""))
	require.Len(t, root.SelectElements("VOUCHER"), 2)

	rr = serve(c.ExportXML, request(http.MethodGet, "/api/cashbook/export.xml?branch=Pune", "", staffClaims, nil))
	require.Equal(t, http.StatusForbidden, rr.Code)
}
