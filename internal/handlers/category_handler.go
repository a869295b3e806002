package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pennywise/internal/models"
	"pennywise/internal/patch"
	"pennywise/internal/services"
)

// CategoryHandler handles category-related requests.
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category.
type CreateCategoryRequest struct {
	GroupID   string              `json:"group_id" binding:"required,uuid"`
	Name      string              `json:"name" binding:"required,min=1,max=100"`
	SortOrder int                 `json:"sort_order"`
	Type      models.CategoryType `json:"type" binding:"required,category_type"`
	IsActive  *bool               `json:"is_active"`
}

// UpdateCategoryRequest represents a partial update of a category.
type UpdateCategoryRequest struct {
	GroupID   patch.Field[string]              `json:"group_id" swaggertype:"string" binding:"omitempty,uuid"`
	Name      patch.Field[string]              `json:"name" swaggertype:"string" binding:"omitempty,min=1,max=100"`
	SortOrder patch.Field[int]                 `json:"sort_order" swaggertype:"integer"`
	Type      patch.Field[models.CategoryType] `json:"type" swaggertype:"string" binding:"omitempty,category_type"`
	IsActive  patch.Field[bool]                `json:"is_active" swaggertype:"boolean"`
}

// CreateCategory handles the creation of a new category.
// @Summary     Create a category
// @Description Create a budget category inside a group
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     409 {object} ErrorResponse "Duplicate name in group"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := h.categoryService.CreateCategory(services.CategoryInput{
		GroupID:   req.GroupID,
		Name:      req.Name,
		SortOrder: req.SortOrder,
		Type:      req.Type,
		IsActive:  req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_CATEGORY", "category", category.ID, c.ClientIP(),
		map[string]any{"name": category.Name, "group_id": category.GroupID, "type": category.Type})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// ListCategories lists categories, optionally restricted to one group.
// @Summary     List categories
// @Tags        categories
// @Produce     json
// @Param       group_id query string false "Filter by group"
// @Success     200 {array} models.Category
// @Failure     400 {object} ErrorResponse "Invalid group_id"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	groupID, err := parseUUIDQuery(c, "group_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.categoryService.ListCategories(groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory handles retrieving a category.
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory applies a partial update to a category.
// @Summary     Update category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       id      path string                true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to change"
// @Success     200 {object} models.Category
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category or group not found"
// @Failure     409 {object} ErrorResponse "Duplicate name in group"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := h.categoryService.UpdateCategory(id, services.CategoryUpdate{
		GroupID:   req.GroupID,
		Name:      req.Name,
		SortOrder: req.SortOrder,
		Type:      req.Type,
		IsActive:  req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("UPDATE_CATEGORY", "category", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory deletes a category. Its budgets go with it and its
// transactions become uncategorized.
// @Summary     Delete category
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_CATEGORY", "category", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
