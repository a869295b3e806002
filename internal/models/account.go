package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is either linked to a provider item (PlaidAccountID and ItemID set)
// or created manually (both nil). Balances are copied from the provider and
// are never derived from transactions.
type Account struct {
	Base
	PlaidAccountID     *string             `gorm:"uniqueIndex:uq_accounts_plaid_account_id" json:"plaid_account_id,omitempty"`
	ItemID             *string             `gorm:"type:uuid;index" json:"item_id,omitempty"`
	Name               string              `gorm:"not null" json:"name"`
	Mask               *string             `json:"mask,omitempty"`
	Type               string              `gorm:"not null" json:"type"`
	Subtype            *string             `json:"subtype,omitempty"`
	CurrentBalance     decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"current_balance"`
	AvailableBalance   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"available_balance"`
	Currency           string              `gorm:"type:varchar(3);not null" json:"currency"`
	BalanceLastUpdated *time.Time          `json:"balance_last_updated,omitempty"`
	IsActive           bool                `gorm:"not null" json:"is_active"`

	// Relationships
	Item *PlaidItem `gorm:"foreignKey:ItemID;constraint:OnDelete:SET NULL" json:"-"`
}

// IsLinked reports whether the account is managed by a provider item.
func (a *Account) IsLinked() bool {
	return a.PlaidAccountID != nil
}
