package database

import (
	"cashbook/models"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionQuery ограничивает выборку транзакций филиалом и периодом.
// Пустой филиал или "all" означает все филиалы, nil в границах периода означает отсутствие границы.
type TransactionQuery struct {
	Branch string
	From   *time.Time
	To     *time.Time
}

// scope применяет ограничения запроса к выборке
func (q TransactionQuery) scope(db *gorm.DB) *gorm.DB {
	if q.Branch != "" && q.Branch != "all" {
		db = db.Where("branch = ?", q.Branch)
	}
	if q.From != nil {
		db = db.Where("transaction_date >= ?", q.From.Format(time.DateOnly))
	}
	if q.To != nil {
		db = db.Where("transaction_date <= ?", q.To.Format(time.DateOnly))
	}
	return db
}

// ListTransactions возвращает транзакции филиала за период
func (d *Database) ListTransactions(ctx context.Context, q TransactionQuery) ([]models.CashTransaction, error) {
	var transactions []models.CashTransaction
	err := d.DB.WithContext(ctx).
		Scopes(q.scope).
		Order("transaction_date, created_at").
		Find(&transactions).Error
	return transactions, err
}

// GetTransaction возвращает транзакцию по ID
func (d *Database) GetTransaction(ctx context.Context, id string) (*models.CashTransaction, error) {
	var transaction models.CashTransaction
	if err := d.DB.WithContext(ctx).First(&transaction, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

// CreateTransaction сохраняет новую транзакцию
func (d *Database) CreateTransaction(ctx context.Context, transaction *models.CashTransaction) error {
	return d.DB.WithContext(ctx).Create(transaction).Error
}

// UpdateTransaction изменяет транзакцию под блокировкой строки.
// Если fn возвращает ошибку, изменения не сохраняются.
func (d *Database) UpdateTransaction(ctx context.Context, id string, fn func(*models.CashTransaction) error) (*models.CashTransaction, error) {
	var transaction models.CashTransaction
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Блокируем строку до конца транзакции
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&transaction, "id = ?", id).Error; err != nil {
			return err
		}
		if err := fn(&transaction); err != nil {
			return err
		}
		return tx.Save(&transaction).Error
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// DeleteTransaction удаляет транзакцию, если check ее разрешает
func (d *Database) DeleteTransaction(ctx context.Context, id string, check func(*models.CashTransaction) error) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var transaction models.CashTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&transaction, "id = ?", id).Error; err != nil {
			return err
		}
		if err := check(&transaction); err != nil {
			return err
		}
		return tx.Delete(&transaction).Error
	})
}

// CountPendingByBranch считает непроверенные транзакции по филиалам
func (d *Database) CountPendingByBranch(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Branch string
		Count  int64
	}
	err := d.DB.WithContext(ctx).
		Model(&models.CashTransaction{}).
		Select("branch, COUNT(*) AS count").
		Where("verification_status = ?", models.VerificationStatusPending).
		Group("branch").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Branch] = row.Count
	}
	return counts, nil
}
