package services

import (
	"cashbook/models"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AllFilter означает отсутствие ограничения по значению фильтра
const AllFilter = "all"

// ErrMalformedRecord возвращается для записей, которые нельзя учесть в остатке
var ErrMalformedRecord = errors.New("malformed transaction record")

// MalformedRecordError описывает отклоненную при фильтрации запись
type MalformedRecordError struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("transaction %s: %s", e.ID, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// Summary представляет агрегаты по филиалу или по всем филиалам
type Summary struct {
	OpeningBalance   decimal.Decimal `json:"opening_balance"`
	TotalCashIn      decimal.Decimal `json:"total_cash_in"`
	TotalCashOut     decimal.Decimal `json:"total_cash_out"`
	ClosingBalance   decimal.Decimal `json:"closing_balance"`
	TransactionCount int             `json:"transaction_count"`
}

// AnnotatedTransaction представляет транзакцию с рассчитанным нарастающим остатком
type AnnotatedTransaction struct {
	models.CashTransaction
	CalculatedBalance decimal.Decimal `json:"calculatedBalance"`
}

// Filter содержит значения фильтров экрана кассовой книги.
// Пустое значение и AllFilter пропускают любую запись.
type Filter struct {
	StaffID            string
	BillStatus         string
	Category           string
	VerificationStatus string
}

// Match проверяет транзакцию по всем фильтрам одновременно
func (f Filter) Match(t models.CashTransaction) bool {
	if !isWildcard(f.StaffID) && (t.StaffID == nil || *t.StaffID != f.StaffID) {
		return false
	}
	if !isWildcard(f.BillStatus) && string(t.BillStatus) != f.BillStatus {
		return false
	}
	if !isWildcard(f.Category) && t.NatureOfExpense != f.Category {
		return false
	}
	if !isWildcard(f.VerificationStatus) && string(t.VerificationStatus) != f.VerificationStatus {
		return false
	}
	return true
}

// CashbookInput содержит данные, уже ограниченные по филиалу и периоду
type CashbookInput struct {
	Transactions    []models.CashTransaction
	OpeningBalances []models.OpeningBalance
	Branch          string
	Filter          Filter
}

// Cashbook представляет результат расчета кассовой книги
type Cashbook struct {
	Transactions    []AnnotatedTransaction  `json:"annotatedTransactions"`
	GrandTotal      *Summary                `json:"grandTotal"`
	BranchSummaries map[string]Summary      `json:"branchSummaries"`
	Rejected        []*MalformedRecordError `json:"rejected,omitempty"`
}

func isWildcard(value string) bool {
	return value == "" || value == AllFilter
}

// normalizeBranch приводит имя филиала к ключу для поиска остатка на начало
func normalizeBranch(branch string) string {
	return strings.ToLower(branch)
}

// findOpeningBalance ищет строку остатка филиала без учета регистра
func findOpeningBalance(branch string, openingBalances []models.OpeningBalance) (models.OpeningBalance, bool) {
	key := normalizeBranch(branch)
	for _, ob := range openingBalances {
		if normalizeBranch(ob.Branch) == key {
			return ob, true
		}
	}
	return models.OpeningBalance{}, false
}

// openingBalanceFor возвращает остаток на начало филиала или ноль
func openingBalanceFor(branch string, openingBalances []models.OpeningBalance) decimal.Decimal {
	if ob, ok := findOpeningBalance(branch, openingBalances); ok {
		return ob.OpeningBalance
	}
	return decimal.Zero
}

// validateRecord проверяет, что запись можно упорядочить и учесть
func validateRecord(t models.CashTransaction) *MalformedRecordError {
	switch {
	case t.TransactionDate.IsZero():
		return &MalformedRecordError{ID: t.ID, Reason: "missing transaction date"}
	case t.CashIn.IsNegative():
		return &MalformedRecordError{ID: t.ID, Reason: "negative cash in"}
	case t.CashOut.IsNegative():
		return &MalformedRecordError{ID: t.ID, Reason: "negative cash out"}
	}
	return nil
}

// splitMalformed отделяет некорректные записи от корректных
func splitMalformed(transactions []models.CashTransaction) ([]models.CashTransaction, []*MalformedRecordError) {
	valid := make([]models.CashTransaction, 0, len(transactions))
	var rejected []*MalformedRecordError
	for _, t := range transactions {
		if err := validateRecord(t); err != nil {
			rejected = append(rejected, err)
			continue
		}
		valid = append(valid, t)
	}
	return valid, rejected
}

func applyFilter(transactions []models.CashTransaction, filter Filter) []models.CashTransaction {
	passed := make([]models.CashTransaction, 0, len(transactions))
	for _, t := range transactions {
		if filter.Match(t) {
			passed = append(passed, t)
		}
	}
	return passed
}

func approvedOnly(transactions []models.CashTransaction) []models.CashTransaction {
	approved := make([]models.CashTransaction, 0, len(transactions))
	for _, t := range transactions {
		if t.IsApproved() {
			approved = append(approved, t)
		}
	}
	return approved
}

// FilterTransactions отбрасывает некорректные записи и применяет фильтры.
// Филиал и период сюда не входят: они применяются при выборке из базы.
func FilterTransactions(transactions []models.CashTransaction, filter Filter) ([]models.CashTransaction, []*MalformedRecordError) {
	valid, rejected := splitMalformed(transactions)
	return applyFilter(valid, filter), rejected
}

// summarize считает итоги по одобренным транзакциям
func summarize(opening decimal.Decimal, approved []models.CashTransaction) Summary {
	totalIn := decimal.Zero
	totalOut := decimal.Zero
	for _, t := range approved {
		totalIn = totalIn.Add(t.CashIn)
		totalOut = totalOut.Add(t.CashOut)
	}
	return Summary{
		OpeningBalance:   opening,
		TotalCashIn:      totalIn,
		TotalCashOut:     totalOut,
		ClosingBalance:   opening.Add(totalIn).Sub(totalOut),
		TransactionCount: len(approved),
	}
}

// ComputeGrandTotal считает итог по всем филиалам.
// Остаток на начало суммируется по всем филиалам, даже без транзакций.
func ComputeGrandTotal(openingBalances []models.OpeningBalance, approvedTransactions []models.CashTransaction) Summary {
	opening := decimal.Zero
	for _, ob := range openingBalances {
		opening = opening.Add(ob.OpeningBalance)
	}
	return summarize(opening, approvedTransactions)
}

// ComputeBranchSummary считает итог по одному филиалу.
// Остаток на начало ищется без учета регистра, транзакции сравниваются точно.
func ComputeBranchSummary(branch string, openingBalances []models.OpeningBalance, approvedTransactions []models.CashTransaction) Summary {
	var branchTransactions []models.CashTransaction
	for _, t := range approvedTransactions {
		if t.Branch == branch {
			branchTransactions = append(branchTransactions, t)
		}
	}
	return summarize(openingBalanceFor(branch, openingBalances), branchTransactions)
}

// chronologicallyBefore сравнивает по дате транзакции, при равенстве по времени создания
func chronologicallyBefore(a, b models.CashTransaction) bool {
	if !a.TransactionDate.Equal(b.TransactionDate) {
		return a.TransactionDate.Before(b.TransactionDate)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// ComputeRunningBalances рассчитывает нарастающий остаток для каждой транзакции.
//
// Остаток накапливается от старых записей к новым, причем только одобренные
// транзакции его меняют. Остальные получают текущее значение без изменений.
// Результат возвращается в порядке отображения: от новых к старым.
// Входной срез не изменяется.
func ComputeRunningBalances(filtered []models.CashTransaction, branch string, openingBalances []models.OpeningBalance, grandTotalOpening decimal.Decimal) []AnnotatedTransaction {
	running := grandTotalOpening
	if !isWildcard(branch) {
		running = openingBalanceFor(branch, openingBalances)
	}

	annotated := make([]AnnotatedTransaction, len(filtered))
	for i, t := range filtered {
		annotated[i] = AnnotatedTransaction{CashTransaction: t}
	}

	// Первая сортировка: по возрастанию, для накопления остатка
	sort.SliceStable(annotated, func(i, j int) bool {
		return chronologicallyBefore(annotated[i].CashTransaction, annotated[j].CashTransaction)
	})

	for i := range annotated {
		if annotated[i].IsApproved() {
			running = running.Add(annotated[i].CashIn).Sub(annotated[i].CashOut)
		}
		annotated[i].CalculatedBalance = running
	}

	// Вторая сортировка: по убыванию, для отображения. Остатки не пересчитываются.
	sort.SliceStable(annotated, func(i, j int) bool {
		return chronologicallyBefore(annotated[j].CashTransaction, annotated[i].CashTransaction)
	})

	return annotated
}

// summaryBranches возвращает филиалы для сводки при выборе всех филиалов
func summaryBranches(transactions []models.CashTransaction, openingBalances []models.OpeningBalance) []string {
	seen := make(map[string]bool)
	covered := make(map[string]bool)
	var branches []string
	for _, t := range transactions {
		if seen[t.Branch] {
			continue
		}
		seen[t.Branch] = true
		covered[normalizeBranch(t.Branch)] = true
		branches = append(branches, t.Branch)
	}
	for _, ob := range openingBalances {
		key := normalizeBranch(ob.Branch)
		if covered[key] {
			continue
		}
		covered[key] = true
		branches = append(branches, ob.Branch)
	}
	return branches
}

// BuildCashbook собирает кассовую книгу: аннотированный список и итоги.
// Итоги строятся по всем одобренным транзакциям входа, без учета фильтров экрана.
func BuildCashbook(in CashbookInput) Cashbook {
	valid, rejected := splitMalformed(in.Transactions)
	approved := approvedOnly(valid)

	cb := Cashbook{
		BranchSummaries: make(map[string]Summary),
		Rejected:        rejected,
	}

	grandOpening := decimal.Zero
	if isWildcard(in.Branch) {
		total := ComputeGrandTotal(in.OpeningBalances, approved)
		cb.GrandTotal = &total
		grandOpening = total.OpeningBalance
		for _, branch := range summaryBranches(valid, in.OpeningBalances) {
			cb.BranchSummaries[branch] = ComputeBranchSummary(branch, in.OpeningBalances, approved)
		}
	} else {
		cb.BranchSummaries[in.Branch] = ComputeBranchSummary(in.Branch, in.OpeningBalances, approved)
	}

	cb.Transactions = ComputeRunningBalances(applyFilter(valid, in.Filter), in.Branch, in.OpeningBalances, grandOpening)
	return cb
}
