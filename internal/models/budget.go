package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is the planned amount for one category in one month. There is at
// most one row per (budget_month, category_id).
type Budget struct {
	Base
	BudgetMonth   time.Time       `gorm:"type:date;not null;uniqueIndex:uq_budget_month_category,priority:1" json:"budget_month"`
	PlannedAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"planned_amount"`
	CategoryID    string          `gorm:"type:uuid;not null;uniqueIndex:uq_budget_month_category,priority:2" json:"category_id"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
}
