package models

// CategoryType governs sign handling and inclusion in budget totals.
type CategoryType string

const (
	CategoryTypeIncome   CategoryType = "income"
	CategoryTypeExpense  CategoryType = "expense"
	CategoryTypeTransfer CategoryType = "transfer"
)

// IsValid reports whether t is one of the known category types.
func (t CategoryType) IsValid() bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeTransfer:
		return true
	}
	return false
}

// CategoryGroup is an ordered heading that owns categories. Deleting a
// group deletes its categories through the categories.group_id foreign key.
type CategoryGroup struct {
	Base
	Name      string `gorm:"not null;uniqueIndex:uq_category_groups_name" json:"name"`
	SortOrder int    `gorm:"not null" json:"sort_order"`

	// Populated by the service layer, not by GORM.
	Categories []Category `gorm:"-" json:"categories,omitempty"`
}

// Category is a budget line. Its name is unique within its group.
type Category struct {
	Base
	GroupID   string       `gorm:"type:uuid;not null;uniqueIndex:uq_category_group_name,priority:1" json:"group_id"`
	Name      string       `gorm:"not null;uniqueIndex:uq_category_group_name,priority:2" json:"name"`
	SortOrder int          `gorm:"not null" json:"sort_order"`
	Type      CategoryType `gorm:"type:varchar(16);not null" json:"type"`
	IsActive  bool         `gorm:"not null" json:"is_active"`

	// Relationships
	Group *CategoryGroup `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
}
