package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpeningBalance хранит остаток наличных филиала на начало учетного периода.
// Имя филиала уникально без учета регистра (индекс на LOWER(branch) в миграции).
type OpeningBalance struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"-"`
	Branch         string          `gorm:"column:branch;not null;size:100" json:"branch"`
	OpeningBalance decimal.Decimal `gorm:"column:opening_balance;type:decimal(14,2);not null;default:0" json:"opening_balance"`
	CreatedAt      time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (OpeningBalance) TableName() string {
	return "opening_balances"
}
