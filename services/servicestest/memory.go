// Package servicestest содержит хранилище в памяти и уведомления для тестов сервисов и контроллеров.
package servicestest

import (
	"cashbook/database"
	"cashbook/models"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MemoryStore хранит данные в памяти и реализует все хранилища сервисов
type MemoryStore struct {
	mu           sync.Mutex
	transactions map[string]models.CashTransaction
	Openings     []models.OpeningBalance
	Users        []*models.User
	// ListErr возвращается из ListTransactions, если задана
	ListErr error
	// OpeningsErr возвращается из ListOpeningBalances, если задана
	OpeningsErr error
	// LastQuery хранит последний запрос ListTransactions
	LastQuery database.TransactionQuery
}

// NewMemoryStore создает пустое хранилище
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{transactions: make(map[string]models.CashTransaction)}
}

// AddTransactions добавляет или заменяет транзакции
func (m *MemoryStore) AddTransactions(txs ...models.CashTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range txs {
		m.transactions[t.ID] = t
	}
}

func (m *MemoryStore) ListTransactions(_ context.Context, q database.TransactionQuery) ([]models.CashTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastQuery = q
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	var out []models.CashTransaction
	for _, t := range m.transactions {
		if q.Branch != "" && q.Branch != "all" && t.Branch != q.Branch {
			continue
		}
		if q.From != nil && t.TransactionDate.Before(*q.From) {
			continue
		}
		if q.To != nil && t.TransactionDate.After(*q.To) {
			continue
		}
		out = append(out, t)
	}
	// Обход map случаен, фиксируем порядок входа
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetTransaction(_ context.Context, id string) (*models.CashTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (m *MemoryStore) CreateTransaction(_ context.Context, t *models.CashTransaction) error {
	if err := t.BeforeCreate(nil); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[t.ID] = *t
	return nil
}

func (m *MemoryStore) UpdateTransaction(_ context.Context, id string, fn func(*models.CashTransaction) error) (*models.CashTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if err := fn(&t); err != nil {
		return nil, err
	}
	m.transactions[id] = t
	return &t, nil
}

func (m *MemoryStore) DeleteTransaction(_ context.Context, id string, check func(*models.CashTransaction) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := check(&t); err != nil {
		return err
	}
	delete(m.transactions, id)
	return nil
}

func (m *MemoryStore) CountPendingByBranch(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, t := range m.transactions {
		if t.VerificationStatus == models.VerificationStatusPending {
			counts[t.Branch]++
		}
	}
	return counts, nil
}

func (m *MemoryStore) ListOpeningBalances(_ context.Context) ([]models.OpeningBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OpeningsErr != nil {
		return nil, m.OpeningsErr
	}
	return append([]models.OpeningBalance(nil), m.Openings...), nil
}

func (m *MemoryStore) UpsertOpeningBalance(_ context.Context, branch string, amount decimal.Decimal) (*models.OpeningBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Openings {
		if strings.EqualFold(m.Openings[i].Branch, branch) {
			m.Openings[i].OpeningBalance = amount
			ob := m.Openings[i]
			return &ob, nil
		}
	}
	ob := models.OpeningBalance{ID: uint(len(m.Openings) + 1), Branch: branch, OpeningBalance: amount}
	m.Openings = append(m.Openings, ob)
	return &ob, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User, prepare func(existing int64) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prepare != nil {
		if err := prepare(int64(len(m.Users))); err != nil {
			return err
		}
	}
	if err := user.BeforeCreate(nil); err != nil {
		return err
	}
	for _, u := range m.Users {
		if strings.EqualFold(u.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	stored := *user
	m.Users = append(m.Users, &stored)
	return nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.ID == id {
			found := *u
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if strings.EqualFold(strings.TrimSpace(u.Email), strings.TrimSpace(email)) {
			found := *u
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemoryStore) ListAdmins(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var admins []models.User
	for _, u := range m.Users {
		if u.IsAdmin() {
			admins = append(admins, *u)
		}
	}
	return admins, nil
}

type SentVerification struct {
	To          string
	Transaction models.CashTransaction
}

type SentDigest struct {
	To      string
	Pending map[string]int64
}

// RecordingNotifier запоминает отправленные уведомления
type RecordingNotifier struct {
	mu            sync.Mutex
	Verifications []SentVerification
	Digests       []SentDigest
	Err           error
}

func (n *RecordingNotifier) SendVerificationResult(to string, t models.CashTransaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Verifications = append(n.Verifications, SentVerification{To: to, Transaction: t})
	return nil
}

func (n *RecordingNotifier) SendPendingDigest(to string, pending map[string]int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Digests = append(n.Digests, SentDigest{To: to, Pending: pending})
	return nil
}

