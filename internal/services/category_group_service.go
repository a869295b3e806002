package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/models"
)

// categoryGroupService handles category group business logic.
type categoryGroupService struct {
	db *gorm.DB
}

// NewCategoryGroupService creates a new CategoryGroupServicer.
func NewCategoryGroupService(db *gorm.DB) CategoryGroupServicer {
	return &categoryGroupService{db: db}
}

// CreateGroup creates a new category group with a unique name.
func (s *categoryGroupService) CreateGroup(name string, sortOrder int) (*models.CategoryGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group name is required")
	}

	if err := s.ensureUniqueName(name, ""); err != nil {
		return nil, err
	}

	group := &models.CategoryGroup{Name: name, SortOrder: sortOrder}
	if err := s.db.Create(group).Error; err != nil {
		return nil, classifyWriteError(err, apperrors.ErrDuplicateCategoryGroup, nil)
	}
	group.Categories = []models.Category{}
	return group, nil
}

// ListGroups returns every group in display order with its categories nested.
func (s *categoryGroupService) ListGroups() ([]models.CategoryGroup, error) {
	var groups []models.CategoryGroup
	if err := s.db.Order("sort_order ASC, name ASC, id ASC").Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := s.db.Order("sort_order ASC, name ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	byGroup := make(map[string][]models.Category, len(groups))
	for _, cat := range categories {
		byGroup[cat.GroupID] = append(byGroup[cat.GroupID], cat)
	}
	for i := range groups {
		groups[i].Categories = byGroup[groups[i].ID]
		if groups[i].Categories == nil {
			groups[i].Categories = []models.Category{}
		}
	}
	return groups, nil
}

// GetGroupByID retrieves a group with its categories.
func (s *categoryGroupService) GetGroupByID(groupID string) (*models.CategoryGroup, error) {
	var group models.CategoryGroup
	if err := s.db.Where("id = ?", groupID).First(&group).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrCategoryGroupNotFound)
	}

	if err := s.db.Where("group_id = ?", group.ID).
		Order("sort_order ASC, name ASC, id ASC").
		Find(&group.Categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if group.Categories == nil {
		group.Categories = []models.Category{}
	}
	return &group, nil
}

// UpdateGroup applies the fields present in update.
func (s *categoryGroupService) UpdateGroup(groupID string, update CategoryGroupUpdate) (*models.CategoryGroup, error) {
	group, err := s.GetGroupByID(groupID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if name, ok := update.Name.Get(); ok {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group name cannot be empty")
		}
		if name != group.Name {
			if err := s.ensureUniqueName(name, group.ID); err != nil {
				return nil, err
			}
		}
		updates["name"] = name
	} else if update.Name.Null {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group name cannot be null")
	}
	if sortOrder, ok := update.SortOrder.Get(); ok {
		updates["sort_order"] = sortOrder
	}

	if len(updates) > 0 {
		if err := s.db.Model(group).Updates(updates).Error; err != nil {
			return nil, classifyWriteError(err, apperrors.ErrDuplicateCategoryGroup, nil)
		}
	}

	return s.GetGroupByID(groupID)
}

// DeleteGroup deletes a group. Its categories, and their budgets, are removed
// by the database; transactions in those categories become uncategorized.
func (s *categoryGroupService) DeleteGroup(groupID string) error {
	group, err := s.GetGroupByID(groupID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(&models.CategoryGroup{}, "id = ?", group.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *categoryGroupService) ensureUniqueName(name, excludeID string) error {
	q := s.db.Model(&models.CategoryGroup{}).Where("name = ?", name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategoryGroup
	}
	return nil
}
