package services

import (
	"cashbook/utils"
	"context"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// ExportService выгружает кассовую книгу в XML
type ExportService struct {
	cashbook *CashbookService
	now      func() time.Time
}

// NewExportService создает новый экземпляр ExportService
func NewExportService(cashbook *CashbookService) *ExportService {
	return &ExportService{cashbook: cashbook, now: time.Now}
}

// WriteXML рассчитывает кассовую книгу целиком и пишет ее в w
func (s *ExportService) WriteXML(ctx context.Context, actor Actor, q CashbookQuery, w io.Writer) error {
	start := time.Now()

	cb, branch, err := s.cashbook.Build(ctx, actor, q)
	if err != nil {
		return err
	}

	doc := RenderCashbookXML(cb, branch, q.From, q.To, s.now())
	_, err = doc.WriteTo(w)
	utils.LogOperation("export_xml", start, err)
	return err
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

// addAmount добавляет сумму с двумя знаками и ее отображение в рупиях
func addAmount(parent *etree.Element, tag string, value decimal.Decimal) {
	el := parent.CreateElement(tag)
	el.CreateAttr("display", utils.FormatINR(value))
	el.SetText(value.StringFixed(2))
}

func addSummary(parent *etree.Element, scope, branch string, summary Summary) {
	el := parent.CreateElement("SUMMARY")
	el.CreateAttr("scope", scope)
	if branch != "" {
		el.CreateAttr("branch", branch)
	}
	addAmount(el, "OPENING", summary.OpeningBalance)
	addAmount(el, "CASHIN", summary.TotalCashIn)
	addAmount(el, "CASHOUT", summary.TotalCashOut)
	addAmount(el, "CLOSING", summary.ClosingBalance)
	el.CreateElement("COUNT").SetText(strconv.Itoa(summary.TransactionCount))
}

// RenderCashbookXML строит XML-документ кассовой книги.
// Ваучеры идут в порядке отображения, сводки филиалов по алфавиту.
func RenderCashbookXML(cb Cashbook, branch string, from, to *time.Time, generated time.Time) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("CASHBOOK")
	root.CreateAttr("branch", branch)
	root.CreateAttr("from", formatDate(from))
	root.CreateAttr("to", formatDate(to))
	root.CreateAttr("generated", generated.UTC().Format(time.RFC3339))

	if cb.GrandTotal != nil {
		addSummary(root, "all", "", *cb.GrandTotal)
	}

	branches := make([]string, 0, len(cb.BranchSummaries))
	for name := range cb.BranchSummaries {
		branches = append(branches, name)
	}
	sort.Strings(branches)
	for _, name := range branches {
		addSummary(root, "branch", name, cb.BranchSummaries[name])
	}

	for _, t := range cb.Transactions {
		v := root.CreateElement("VOUCHER")
		v.CreateAttr("id", t.ID)
		v.CreateAttr("status", string(t.VerificationStatus))
		v.CreateElement("DATE").SetText(t.TransactionDate.Format(time.DateOnly))
		v.CreateElement("VOUCHERNO").SetText(t.VoucherNo)
		v.CreateElement("BRANCH").SetText(t.Branch)
		v.CreateElement("CATEGORY").SetText(t.NatureOfExpense)
		v.CreateElement("BILLSTATUS").SetText(string(t.BillStatus))
		addAmount(v, "CASHIN", t.CashIn)
		addAmount(v, "CASHOUT", t.CashOut)
		addAmount(v, "BALANCE", t.CalculatedBalance)
	}

	doc.Indent(2)
	return doc
}
