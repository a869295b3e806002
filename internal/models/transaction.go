package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one ledger entry. Amount is positive for money leaving the
// account and negative for money coming in.
type Transaction struct {
	Base
	PlaidTransactionID *string         `gorm:"uniqueIndex:uq_transactions_plaid_transaction_id" json:"plaid_transaction_id,omitempty"`
	AccountID          string          `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID         *string         `gorm:"type:uuid;index" json:"category_id"`
	Description        *string         `json:"description"`
	Amount             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Date               time.Time       `gorm:"type:date;not null;index" json:"date"`
	Datetime           *time.Time      `json:"datetime,omitempty"`
	Pending            bool            `gorm:"not null" json:"pending"`

	// Relationships
	Account  *Account  `gorm:"foreignKey:AccountID;constraint:OnDelete:RESTRICT" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`
}
