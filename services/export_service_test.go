package services

import (
	"bytes"
	"cashbook/models"
	"context"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func TestRenderCashbookXML(t *testing.T) {
	openings := []models.OpeningBalance{{Branch: "X", OpeningBalance: amount(1000)}}
	cb := BuildCashbook(CashbookInput{
		Transactions: []models.CashTransaction{
			tx("T1", "X", "2024-01-01", base, 500, 0, models.VerificationStatusApproved),
			tx("T3", "X", "2024-01-02", base.Add(2*time.Hour), 300, 0, models.VerificationStatusApproved),
			tx("T2", "X", "2024-01-02", base.Add(time.Hour), 0, 200, models.VerificationStatusPending),
		},
		OpeningBalances: openings,
		Branch:          AllFilter,
	})
	from := day("2024-01-01")
	generated := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	doc := RenderCashbookXML(cb, AllFilter, &from, nil, generated)

	root := doc.SelectElement("CASHBOOK")
	require.NotNil(t, root)
	require.Equal(t, "all", root.SelectAttrValue("branch", ""))
	require.Equal(t, "2024-01-01", root.SelectAttrValue("from", ""))
	require.Equal(t, "", root.SelectAttrValue("to", "missing"))
	require.Equal(t, "2024-02-01T10:00:00Z", root.SelectAttrValue("generated", ""))

	summaries := root.SelectElements("SUMMARY")
	require.Len(t, summaries, 2)
	require.Equal(t, "all", summaries[0].SelectAttrValue("scope", ""))
	require.Equal(t, "1800.00", summaries[0].SelectElement("CLOSING").Text())
	require.Equal(t, "₹1,800.00", summaries[0].SelectElement("CLOSING").SelectAttrValue("display", ""))
	require.Equal(t, "X", summaries[1].SelectAttrValue("branch", ""))
	require.Equal(t, "2", summaries[1].SelectElement("COUNT").Text())

	vouchers := root.SelectElements("VOUCHER")
	require.Len(t, vouchers, 3)
	var order, balances []string
	for _, v := range vouchers {
		order = append(order, v.SelectAttrValue("id", ""))
		balances = append(balances, v.SelectElement("BALANCE").Text())
	}
	require.Equal(t, []string{"T3", "T2", "T1"}, order)
	require.Equal(t, []string{"1800.00", "1500.00", "1500.00"}, balances)
	require.Equal(t, "pending", vouchers[1].SelectAttrValue("status", ""))
	require.Equal(t, "V-T2", vouchers[1].SelectElement("VOUCHERNO").Text())
}

func TestExportService_WriteXML(t *testing.T) {
	cashbook, _ := seededCashbookService(t)
	s := NewExportService(cashbook)
	s.now = func() time.Time { return time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC) }

	var buf bytes.Buffer
	require.NoError(t, s.WriteXML(context.Background(), mumbaiStaff, CashbookQuery{}, &buf))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))
	root := doc.SelectElement("CASHBOOK")
	require.Equal(t, "Mumbai", root.SelectAttrValue("branch", ""))
	require.Len(t, root.SelectElements("VOUCHER"), 3)

	err := s.WriteXML(context.Background(), mumbaiStaff, CashbookQuery{Branch: "Pune"}, &buf)
	require.ErrorIs(t, err, ErrForbiddenBranch)
}
