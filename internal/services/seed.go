package services

import (
	"errors"

	"gorm.io/gorm"

	"pennywise/internal/logger"
	"pennywise/internal/models"
)

type seedCategory struct {
	name      string
	kind      models.CategoryType
	sortOrder int
}

type seedGroup struct {
	name       string
	sortOrder  int
	categories []seedCategory
}

var defaultCategoryGroups = []seedGroup{
	{name: "Income", sortOrder: 0, categories: []seedCategory{
		{"Paycheck", models.CategoryTypeIncome, 0},
		{"Bonus", models.CategoryTypeIncome, 1},
		{"Interest", models.CategoryTypeIncome, 2},
	}},
	{name: "Saving", sortOrder: 0, categories: []seedCategory{
		{"House Fund", models.CategoryTypeExpense, 0},
	}},
	{name: "Housing", sortOrder: 1, categories: []seedCategory{
		{"Rent/Mortgage", models.CategoryTypeExpense, 0},
		{"Utilities", models.CategoryTypeExpense, 1},
		{"Maintenance", models.CategoryTypeExpense, 2},
	}},
	{name: "Food", sortOrder: 2, categories: []seedCategory{
		{"Groceries", models.CategoryTypeExpense, 0},
		{"Restaurants", models.CategoryTypeExpense, 1},
	}},
	{name: "Transportation", sortOrder: 3, categories: []seedCategory{
		{"Fuel", models.CategoryTypeExpense, 0},
		{"Public Transit", models.CategoryTypeExpense, 1},
		{"Service/Parts", models.CategoryTypeExpense, 2},
	}},
}

// SeedDefaultCategories creates the starter groups and categories that do not
// exist yet, matching by name. Existing rows are never modified, so it is
// safe to run on every start. It returns the number of rows created.
func SeedDefaultCategories(db *gorm.DB) (int, error) {
	created := 0

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, sg := range defaultCategoryGroups {
			var group models.CategoryGroup
			err := tx.Where("name = ?", sg.name).First(&group).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				group = models.CategoryGroup{Name: sg.name, SortOrder: sg.sortOrder}
				if err := tx.Create(&group).Error; err != nil {
					return err
				}
				created++
			} else if err != nil {
				return err
			}

			for _, sc := range sg.categories {
				var count int64
				if err := tx.Model(&models.Category{}).
					Where("group_id = ? AND name = ?", group.ID, sc.name).
					Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					continue
				}

				category := &models.Category{
					GroupID:   group.ID,
					Name:      sc.name,
					SortOrder: sc.sortOrder,
					Type:      sc.kind,
					IsActive:  true,
				}
				if err := tx.Create(category).Error; err != nil {
					return err
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		logger.Get().Infow("seeded default categories", "created", created)
	}
	return created, nil
}
