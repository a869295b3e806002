package services

import (
	"testing"

	"pennywise/internal/models"
	"pennywise/internal/patch"
	"pennywise/internal/testutil"
)

func TestCreateGroup(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryGroupService(db)

		group, err := svc.CreateGroup("Housing", 1)
		testutil.AssertNoError(t, err)

		if group.ID == "" {
			t.Fatal("expected group ID to be set")
		}
		if group.Name != "Housing" || group.SortOrder != 1 {
			t.Errorf("unexpected group %+v", group)
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryGroupService(db)

		_, err := svc.CreateGroup("Food", 0)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateGroup("Food", 1)
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY_GROUP")
	})

	t.Run("blank_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryGroupService(db)

		_, err := svc.CreateGroup("   ", 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListGroups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryGroupService(db)

	second := testutil.CreateTestGroup(t, db, 2)
	first := testutil.CreateTestGroup(t, db, 1)
	testutil.CreateTestCategoryNamed(t, db, first.ID, "Zeta", models.CategoryTypeExpense, 1)
	testutil.CreateTestCategoryNamed(t, db, first.ID, "Alpha", models.CategoryTypeExpense, 0)

	groups, err := svc.ListGroups()
	testutil.AssertNoError(t, err)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].ID != first.ID || groups[1].ID != second.ID {
		t.Error("expected groups ordered by sort_order")
	}
	if len(groups[0].Categories) != 2 || groups[0].Categories[0].Name != "Alpha" {
		t.Errorf("expected nested categories ordered by sort_order, got %+v", groups[0].Categories)
	}
	if groups[1].Categories == nil || len(groups[1].Categories) != 0 {
		t.Error("expected empty, non-nil categories for a group without categories")
	}
}

func TestUpdateGroup(t *testing.T) {
	t.Run("rename", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryGroupService(db)
		group := testutil.CreateTestGroup(t, db, 0)

		updated, err := svc.UpdateGroup(group.ID, CategoryGroupUpdate{Name: patch.Some("Bills")})
		testutil.AssertNoError(t, err)

		if updated.Name != "Bills" {
			t.Errorf("expected name Bills, got %s", updated.Name)
		}
		if updated.SortOrder != 0 {
			t.Errorf("expected sort order unchanged, got %d", updated.SortOrder)
		}
	})

	t.Run("rename_to_existing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryGroupService(db)
		a := testutil.CreateTestGroup(t, db, 0)
		b := testutil.CreateTestGroup(t, db, 1)

		_, err := svc.UpdateGroup(b.ID, CategoryGroupUpdate{Name: patch.Some(a.Name)})
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY_GROUP")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryGroupService(db)

		_, err := svc.UpdateGroup("00000000-0000-0000-0000-000000000000", CategoryGroupUpdate{SortOrder: patch.Some(3)})
		testutil.AssertAppError(t, err, "CATEGORY_GROUP_NOT_FOUND")
	})
}

func TestDeleteGroup(t *testing.T) {
	t.Run("cascades_to_categories_and_budgets", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryGroupService(db)

		group := testutil.CreateTestGroup(t, db, 0)
		cat := testutil.CreateTestCategory(t, db, group.ID, models.CategoryTypeExpense)
		testutil.CreateTestBudget(t, db, cat.ID, testutil.Date(2024, 3, 1), "100")
		account := testutil.CreateTestAccount(t, db, "0")
		txn := testutil.CreateTestTransaction(t, db, account.ID, &cat.ID, "10", testutil.Date(2024, 3, 2))

		testutil.AssertNoError(t, svc.DeleteGroup(group.ID))

		var count int64
		db.Model(&models.Category{}).Where("group_id = ?", group.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected categories to be deleted, got %d", count)
		}
		db.Model(&models.Budget{}).Count(&count)
		if count != 0 {
			t.Errorf("expected budgets to be deleted, got %d", count)
		}

		var reloaded models.Transaction
		testutil.AssertNoError(t, db.First(&reloaded, "id = ?", txn.ID).Error)
		if reloaded.CategoryID != nil {
			t.Error("expected transaction to become uncategorized")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryGroupService(db)

		err := svc.DeleteGroup("00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "CATEGORY_GROUP_NOT_FOUND")
	})
}

func TestCreateCategory(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		group := testutil.CreateTestGroup(t, db, 0)

		cat, err := svc.CreateCategory(CategoryInput{
			GroupID: group.ID,
			Name:    "Groceries",
			Type:    models.CategoryTypeExpense,
		})
		testutil.AssertNoError(t, err)

		if cat.ID == "" {
			t.Fatal("expected category ID to be set")
		}
		if !cat.IsActive {
			t.Error("expected new category to be active")
		}
		if cat.Type != models.CategoryTypeExpense {
			t.Errorf("expected type expense, got %s", cat.Type)
		}
	})

	t.Run("inactive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		group := testutil.CreateTestGroup(t, db, 0)
		inactive := false

		cat, err := svc.CreateCategory(CategoryInput{GroupID: group.ID, Name: "Old", Type: models.CategoryTypeExpense, IsActive: &inactive})
		testutil.AssertNoError(t, err)

		var reloaded models.Category
		testutil.AssertNoError(t, db.First(&reloaded, "id = ?", cat.ID).Error)
		if reloaded.IsActive {
			t.Error("expected category to be stored inactive")
		}
	})

	t.Run("duplicate_name_in_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		group := testutil.CreateTestGroup(t, db, 0)

		_, err := svc.CreateCategory(CategoryInput{GroupID: group.ID, Name: "Fuel", Type: models.CategoryTypeExpense})
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(CategoryInput{GroupID: group.ID, Name: "Fuel", Type: models.CategoryTypeExpense})
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})

	t.Run("same_name_in_other_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		a := testutil.CreateTestGroup(t, db, 0)
		b := testutil.CreateTestGroup(t, db, 1)

		_, err := svc.CreateCategory(CategoryInput{GroupID: a.ID, Name: "Misc", Type: models.CategoryTypeExpense})
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(CategoryInput{GroupID: b.ID, Name: "Misc", Type: models.CategoryTypeExpense})
		testutil.AssertNoError(t, err)
	})

	t.Run("unknown_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		_, err := svc.CreateCategory(CategoryInput{GroupID: "00000000-0000-0000-0000-000000000000", Name: "X", Type: models.CategoryTypeIncome})
		testutil.AssertAppError(t, err, "CATEGORY_GROUP_NOT_FOUND")
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		group := testutil.CreateTestGroup(t, db, 0)

		_, err := svc.CreateCategory(CategoryInput{GroupID: group.ID, Name: "X", Type: "savings"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListCategories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)

	late := testutil.CreateTestGroup(t, db, 5)
	early := testutil.CreateTestGroup(t, db, 1)
	testutil.CreateTestCategoryNamed(t, db, late.ID, "Late", models.CategoryTypeExpense, 0)
	testutil.CreateTestCategoryNamed(t, db, early.ID, "Second", models.CategoryTypeExpense, 1)
	testutil.CreateTestCategoryNamed(t, db, early.ID, "First", models.CategoryTypeExpense, 0)

	t.Run("all_in_display_order", func(t *testing.T) {
		cats, err := svc.ListCategories(nil)
		testutil.AssertNoError(t, err)

		names := make([]string, 0, len(cats))
		for _, c := range cats {
			names = append(names, c.Name)
		}
		want := []string{"First", "Second", "Late"}
		if len(names) != len(want) {
			t.Fatalf("expected %v, got %v", want, names)
		}
		for i := range want {
			if names[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, names)
			}
		}
	})

	t.Run("filter_by_group", func(t *testing.T) {
		cats, err := svc.ListCategories(&late.ID)
		testutil.AssertNoError(t, err)

		if len(cats) != 1 || cats[0].Name != "Late" {
			t.Errorf("expected only Late, got %+v", cats)
		}
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("partial_update", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		group := testutil.CreateTestGroup(t, db, 0)
		cat := testutil.CreateTestCategoryNamed(t, db, group.ID, "Dining", models.CategoryTypeExpense, 3)

		updated, err := svc.UpdateCategory(cat.ID, CategoryUpdate{IsActive: patch.Some(false)})
		testutil.AssertNoError(t, err)

		if updated.IsActive {
			t.Error("expected category to be deactivated")
		}
		if updated.Name != "Dining" || updated.SortOrder != 3 {
			t.Errorf("expected other fields unchanged, got %+v", updated)
		}
	})

	t.Run("move_to_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		a := testutil.CreateTestGroup(t, db, 0)
		b := testutil.CreateTestGroup(t, db, 1)
		cat := testutil.CreateTestCategory(t, db, a.ID, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, cat.ID, testutil.Date(2024, 3, 1), "50")

		updated, err := svc.UpdateCategory(cat.ID, CategoryUpdate{GroupID: patch.Some(b.ID)})
		testutil.AssertNoError(t, err)

		if updated.GroupID != b.ID {
			t.Errorf("expected group %s, got %s", b.ID, updated.GroupID)
		}
		var count int64
		db.Model(&models.Budget{}).Where("id = ?", budget.ID).Count(&count)
		if count != 1 {
			t.Error("expected budget to survive the move")
		}
	})

	t.Run("move_into_name_conflict", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		a := testutil.CreateTestGroup(t, db, 0)
		b := testutil.CreateTestGroup(t, db, 1)
		cat := testutil.CreateTestCategoryNamed(t, db, a.ID, "Gifts", models.CategoryTypeExpense, 0)
		testutil.CreateTestCategoryNamed(t, db, b.ID, "Gifts", models.CategoryTypeExpense, 0)

		_, err := svc.UpdateCategory(cat.ID, CategoryUpdate{GroupID: patch.Some(b.ID)})
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})

	t.Run("null_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		group := testutil.CreateTestGroup(t, db, 0)
		cat := testutil.CreateTestCategory(t, db, group.ID, models.CategoryTypeExpense)

		_, err := svc.UpdateCategory(cat.ID, CategoryUpdate{Name: patch.Null[string]()})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestDeleteCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)

	group := testutil.CreateTestGroup(t, db, 0)
	cat := testutil.CreateTestCategory(t, db, group.ID, models.CategoryTypeExpense)
	testutil.CreateTestBudget(t, db, cat.ID, testutil.Date(2024, 3, 1), "75")
	account := testutil.CreateTestAccount(t, db, "0")
	txn := testutil.CreateTestTransaction(t, db, account.ID, &cat.ID, "12.34", testutil.Date(2024, 3, 9))

	testutil.AssertNoError(t, svc.DeleteCategory(cat.ID))

	var count int64
	db.Model(&models.Budget{}).Where("category_id = ?", cat.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected budgets to be deleted with the category, got %d", count)
	}

	var reloaded models.Transaction
	testutil.AssertNoError(t, db.First(&reloaded, "id = ?", txn.ID).Error)
	if reloaded.CategoryID != nil {
		t.Error("expected transaction category to be cleared")
	}
	if !reloaded.Amount.Equal(testutil.Money(t, "12.34")) {
		t.Errorf("expected amount preserved, got %s", reloaded.Amount)
	}

	_, err := svc.GetCategoryByID(cat.ID)
	testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
}
