package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/models"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget plans an amount for a category in a month. There can be only
// one budget per category and month.
func (s *budgetService) CreateBudget(input BudgetInput) (*models.Budget, error) {
	month, _, err := ResolveMonth(input.Month)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCategoryExists(input.CategoryID); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(month, input.CategoryID, ""); err != nil {
		return nil, err
	}

	budget := &models.Budget{
		BudgetMonth:   month,
		PlannedAmount: input.PlannedAmount.Round(2),
		CategoryID:    input.CategoryID,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, classifyWriteError(err, apperrors.ErrDuplicateBudget, apperrors.ErrCategoryNotFound)
	}

	return budget, nil
}

// ListBudgets returns budgets ordered by month, optionally limited to one month.
func (s *budgetService) ListBudgets(month *string) ([]models.Budget, error) {
	q := s.db.Model(&models.Budget{}).Preload("Category")
	if month != nil {
		start, end, err := ResolveMonth(*month)
		if err != nil {
			return nil, err
		}
		q = q.Where("budget_month >= ? AND budget_month < ?", start, end)
	}

	var budgets []models.Budget
	if err := q.Order("budget_month ASC, category_id ASC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if budgets == nil {
		budgets = []models.Budget{}
	}
	return budgets, nil
}

// GetBudgetByID retrieves a budget with its category.
func (s *budgetService) GetBudgetByID(budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ?", budgetID).First(&budget).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrBudgetNotFound)
	}
	return &budget, nil
}

// UpdateBudget applies the fields present in update.
func (s *budgetService) UpdateBudget(budgetID string, update BudgetUpdate) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(budgetID)
	if err != nil {
		return nil, err
	}

	if update.Month.Null || update.CategoryID.Null || update.PlannedAmount.Null {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget fields cannot be null")
	}

	updates := make(map[string]any)
	targetMonth := models.FirstOfMonth(budget.BudgetMonth)
	targetCategory := budget.CategoryID

	if token, ok := update.Month.Get(); ok {
		month, _, err := ResolveMonth(token)
		if err != nil {
			return nil, err
		}
		targetMonth = month
		updates["budget_month"] = month
	}
	if categoryID, ok := update.CategoryID.Get(); ok {
		if categoryID != budget.CategoryID {
			if err := s.ensureCategoryExists(categoryID); err != nil {
				return nil, err
			}
		}
		targetCategory = categoryID
		updates["category_id"] = categoryID
	}
	if !targetMonth.Equal(models.FirstOfMonth(budget.BudgetMonth)) || targetCategory != budget.CategoryID {
		if err := s.ensureUnique(targetMonth, targetCategory, budget.ID); err != nil {
			return nil, err
		}
	}
	if amount, ok := update.PlannedAmount.Get(); ok {
		updates["planned_amount"] = amount.Round(2)
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Budget{}).Where("id = ?", budget.ID).Updates(updates).Error; err != nil {
			return nil, classifyWriteError(err, apperrors.ErrDuplicateBudget, apperrors.ErrCategoryNotFound)
		}
	}

	return s.GetBudgetByID(budgetID)
}

// DeleteBudget deletes a budget
func (s *budgetService) DeleteBudget(budgetID string) error {
	budget, err := s.GetBudgetByID(budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(&models.Budget{}, "id = ?", budget.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *budgetService) ensureCategoryExists(categoryID string) error {
	if categoryID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category_id is required")
	}
	var count int64
	if err := s.db.Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// ensureUnique checks (month, category) against existing rows.
func (s *budgetService) ensureUnique(month time.Time, categoryID, excludeID string) error {
	q := s.db.Model(&models.Budget{}).
		Where("category_id = ? AND budget_month >= ? AND budget_month < ?", categoryID, month, month.AddDate(0, 1, 0))
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateBudget
	}
	return nil
}
