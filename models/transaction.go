package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VerificationStatus представляет статус проверки транзакции администратором
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

// BillStatus представляет статус оплаты счета по транзакции
type BillStatus string

const (
	BillStatusPaid     BillStatus = "Paid"
	BillStatusYetToPay BillStatus = "Yet to pay"
	BillStatusRefund   BillStatus = "Refund"
)

// CashTransaction представляет одно движение наличных по филиалу
type CashTransaction struct {
	ID                 string             `gorm:"type:uuid;primaryKey" json:"id"`
	Branch             string             `gorm:"column:branch;not null;size:100;index" json:"branch"`
	StaffID            *string            `gorm:"column:staff_id;type:uuid;index" json:"staff_id"`
	TransactionDate    time.Time          `gorm:"column:transaction_date;type:date;not null;index" json:"transaction_date"`
	CashIn             decimal.Decimal    `gorm:"column:cash_in;type:decimal(14,2);not null;default:0" json:"cash_in"`
	CashOut            decimal.Decimal    `gorm:"column:cash_out;type:decimal(14,2);not null;default:0" json:"cash_out"`
	VerificationStatus VerificationStatus `gorm:"column:verification_status;type:varchar(20);not null;default:'pending'" json:"verification_status"`
	BillStatus         BillStatus         `gorm:"column:bill_status;type:varchar(30);not null" json:"bill_status"`
	NatureOfExpense    string             `gorm:"column:nature_of_expense;size:100;not null" json:"nature_of_expense"`
	VoucherNo          string             `gorm:"column:voucher_no;size:50;not null" json:"voucher_no"`
	Notes              *string            `gorm:"column:notes" json:"notes,omitempty"`
	VerifiedBy         *string            `gorm:"column:verified_by;type:uuid" json:"verified_by,omitempty"`
	VerifiedAt         *time.Time         `gorm:"column:verified_at" json:"verified_at,omitempty"`
	RejectionReason    *string            `gorm:"column:rejection_reason;size:255" json:"rejection_reason,omitempty"`
	CreatedAt          time.Time          `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CashTransaction) TableName() string {
	return "cash_transactions"
}

// BeforeCreate назначает идентификатор, если он не задан
func (t *CashTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// IsApproved сообщает, участвует ли транзакция в расчете остатка
func (t CashTransaction) IsApproved() bool {
	return t.VerificationStatus == VerificationStatusApproved
}
