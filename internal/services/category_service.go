package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category inside an existing group.
func (s *categoryService) CreateCategory(input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !input.Type.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income, expense or transfer")
	}

	if err := s.ensureGroupExists(input.GroupID); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(input.GroupID, name, ""); err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	category := &models.Category{
		GroupID:   input.GroupID,
		Name:      name,
		SortOrder: input.SortOrder,
		Type:      input.Type,
		IsActive:  isActive,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, classifyWriteError(err, apperrors.ErrDuplicateCategory, apperrors.ErrCategoryGroupNotFound)
	}

	return category, nil
}

// ListCategories returns categories in display order, optionally limited to one group.
func (s *categoryService) ListCategories(groupID *string) ([]models.Category, error) {
	q := s.db.Model(&models.Category{}).
		Joins("JOIN category_groups ON category_groups.id = categories.group_id")
	if groupID != nil {
		q = q.Where("categories.group_id = ?", *groupID)
	}

	var categories []models.Category
	if err := q.Order("category_groups.sort_order ASC, category_groups.name ASC, categories.sort_order ASC, categories.name ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrCategoryNotFound)
	}
	return &category, nil
}

// UpdateCategory applies the fields present in update. Moving a category to
// another group keeps its budgets and transactions.
func (s *categoryService) UpdateCategory(categoryID string, update CategoryUpdate) (*models.Category, error) {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return nil, err
	}

	for _, null := range []bool{update.GroupID.Null, update.Name.Null, update.SortOrder.Null, update.Type.Null, update.IsActive.Null} {
		if null {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category fields cannot be null")
		}
	}

	updates := make(map[string]any)
	targetGroup := category.GroupID
	targetName := category.Name

	if groupID, ok := update.GroupID.Get(); ok {
		if groupID != category.GroupID {
			if err := s.ensureGroupExists(groupID); err != nil {
				return nil, err
			}
		}
		targetGroup = groupID
		updates["group_id"] = groupID
	}
	if name, ok := update.Name.Get(); ok {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		targetName = name
		updates["name"] = name
	}
	if targetGroup != category.GroupID || targetName != category.Name {
		if err := s.ensureUniqueName(targetGroup, targetName, category.ID); err != nil {
			return nil, err
		}
	}
	if sortOrder, ok := update.SortOrder.Get(); ok {
		updates["sort_order"] = sortOrder
	}
	if categoryType, ok := update.Type.Get(); ok {
		if !categoryType.IsValid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income, expense or transfer")
		}
		updates["type"] = categoryType
	}
	if isActive, ok := update.IsActive.Get(); ok {
		updates["is_active"] = isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, classifyWriteError(err, apperrors.ErrDuplicateCategory, apperrors.ErrCategoryGroupNotFound)
		}
	}

	return s.GetCategoryByID(categoryID)
}

// DeleteCategory deletes a category. Its budgets are removed and its
// transactions become uncategorized.
func (s *categoryService) DeleteCategory(categoryID string) error {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(&models.Category{}, "id = ?", category.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *categoryService) ensureGroupExists(groupID string) error {
	if groupID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "group_id is required")
	}
	var count int64
	if err := s.db.Model(&models.CategoryGroup{}).Where("id = ?", groupID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryGroupNotFound
	}
	return nil
}

func (s *categoryService) ensureUniqueName(groupID, name, excludeID string) error {
	q := s.db.Model(&models.Category{}).Where("group_id = ? AND name = ?", groupID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}
