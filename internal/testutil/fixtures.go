package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"pennywise/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Money parses a decimal literal and fails the test if it is malformed.
func Money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}

// CreateTestGroup creates a category group with a unique name.
func CreateTestGroup(t *testing.T, db *gorm.DB, sortOrder int) *models.CategoryGroup {
	t.Helper()

	group := &models.CategoryGroup{
		Name:      fmt.Sprintf("Test Group %d", nextID()),
		SortOrder: sortOrder,
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateTestCategory creates an active category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, groupID string, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return CreateTestCategoryNamed(t, db, groupID, fmt.Sprintf("Test Category %d", nextID()), categoryType, 0)
}

// CreateTestCategoryNamed creates an active category with an explicit name and position.
func CreateTestCategoryNamed(t *testing.T, db *gorm.DB, groupID, name string, categoryType models.CategoryType, sortOrder int) *models.Category {
	t.Helper()

	category := &models.Category{
		GroupID:   groupID,
		Name:      name,
		SortOrder: sortOrder,
		Type:      categoryType,
		IsActive:  true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestAccount creates an active manual account with the given balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, balance string) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:           fmt.Sprintf("Test Account %d", nextID()),
		Type:           "depository",
		CurrentBalance: Money(t, balance),
		Currency:       "USD",
		IsActive:       true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestItem creates a provider item holding an already-encrypted token.
func CreateTestItem(t *testing.T, db *gorm.DB, encryptedToken string) *models.PlaidItem {
	t.Helper()

	item := &models.PlaidItem{
		PlaidItemID:          fmt.Sprintf("item-%d", nextID()),
		AccessTokenEncrypted: encryptedToken,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test item: %v", err)
	}
	return item
}

// CreateTestLinkedAccount creates an account linked to item with the given provider id.
func CreateTestLinkedAccount(t *testing.T, db *gorm.DB, itemID, plaidAccountID string) *models.Account {
	t.Helper()

	account := &models.Account{
		PlaidAccountID: StrPtr(plaidAccountID),
		ItemID:         StrPtr(itemID),
		Name:           fmt.Sprintf("Linked Account %d", nextID()),
		Type:           "depository",
		CurrentBalance: decimal.Zero,
		Currency:       "USD",
		IsActive:       true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create linked account: %v", err)
	}
	return account
}

// CreateTestTransaction creates a manual transaction in the given account.
// categoryID may be nil.
func CreateTestTransaction(t *testing.T, db *gorm.DB, accountID string, categoryID *string, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		AccountID:   accountID,
		CategoryID:  categoryID,
		Description: StrPtr(fmt.Sprintf("Test Transaction %d", nextID())),
		Amount:      Money(t, amount),
		Date:        models.NormalizeDate(date),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a budget row for the month containing month.
func CreateTestBudget(t *testing.T, db *gorm.DB, categoryID string, month time.Time, planned string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		BudgetMonth:   models.FirstOfMonth(month),
		PlannedAmount: Money(t, planned),
		CategoryID:    categoryID,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
