package testutil_test

import (
	"testing"
	"time"

	"pennywise/internal/errors"
	"pennywise/internal/models"
	"pennywise/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"category_groups", "categories", "plaid_items", "accounts", "transactions", "budgets", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestGroup(t, first, 0)

	var count int64
	second.Model(&models.CategoryGroup{}).Count(&count)
	if count != 0 {
		t.Errorf("expected empty second database, got %d groups", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	group := testutil.CreateTestGroup(t, db, 1)
	if group.ID == "" {
		t.Fatal("group should have an ID")
	}

	category := testutil.CreateTestCategory(t, db, group.ID, models.CategoryTypeExpense)
	if category.Type != models.CategoryTypeExpense {
		t.Errorf("expected expense category, got %s", category.Type)
	}

	account := testutil.CreateTestAccount(t, db, "125.50")
	if !account.CurrentBalance.Equal(testutil.Money(t, "125.50")) {
		t.Errorf("expected balance 125.50, got %s", account.CurrentBalance)
	}

	tx := testutil.CreateTestTransaction(t, db, account.ID, &category.ID, "42.10", time.Date(2024, 3, 5, 15, 4, 0, 0, time.UTC))
	if !tx.Date.Equal(testutil.Date(2024, 3, 5)) {
		t.Errorf("expected date normalized to midnight, got %s", tx.Date)
	}

	budget := testutil.CreateTestBudget(t, db, category.ID, testutil.Date(2024, 3, 17), "300")
	if !budget.BudgetMonth.Equal(testutil.Date(2024, 3, 1)) {
		t.Errorf("expected first of month, got %s", budget.BudgetMonth)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	err := db.Create(&models.Category{GroupID: "00000000-0000-7000-8000-000000000000", Name: "Orphan", Type: models.CategoryTypeExpense}).Error
	if err == nil {
		t.Fatal("expected foreign key violation for unknown group")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
