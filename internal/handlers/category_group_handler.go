package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pennywise/internal/patch"
	"pennywise/internal/services"
)

// CategoryGroupHandler handles category group requests.
type CategoryGroupHandler struct {
	groupService services.CategoryGroupServicer
	auditService services.AuditServicer
}

// NewCategoryGroupHandler creates a new CategoryGroupHandler.
func NewCategoryGroupHandler(groupService services.CategoryGroupServicer, auditService services.AuditServicer) *CategoryGroupHandler {
	return &CategoryGroupHandler{groupService: groupService, auditService: auditService}
}

// CreateCategoryGroupRequest represents the request payload for creating a group.
type CreateCategoryGroupRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	SortOrder int    `json:"sort_order"`
}

// UpdateCategoryGroupRequest represents a partial update of a group.
type UpdateCategoryGroupRequest struct {
	Name      patch.Field[string] `json:"name" swaggertype:"string" binding:"omitempty,min=1,max=100"`
	SortOrder patch.Field[int]    `json:"sort_order" swaggertype:"integer"`
}

// CreateGroup handles the creation of a category group.
// @Summary     Create a category group
// @Tags        category-groups
// @Accept      json
// @Produce     json
// @Param       request body CreateCategoryGroupRequest true "Group details"
// @Success     201 {object} models.CategoryGroup "Group created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /category-groups [post]
func (h *CategoryGroupHandler) CreateGroup(c *gin.Context) {
	var req CreateCategoryGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	group, err := h.groupService.CreateGroup(req.Name, req.SortOrder)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_CATEGORY_GROUP", "category_group", group.ID, c.ClientIP(),
		map[string]any{"name": group.Name, "sort_order": group.SortOrder})

	c.JSON(http.StatusCreated, gin.H{"category_group": group})
}

// ListGroups returns every group with its categories nested.
// @Summary     List category groups
// @Tags        category-groups
// @Produce     json
// @Success     200 {array} models.CategoryGroup
// @Router      /category-groups [get]
func (h *CategoryGroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groupService.ListGroups()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category_groups": groups})
}

// GetGroup returns one group with its categories.
// @Summary     Get category group by ID
// @Tags        category-groups
// @Produce     json
// @Param       id path string true "Group ID"
// @Success     200 {object} models.CategoryGroup
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /category-groups/{id} [get]
func (h *CategoryGroupHandler) GetGroup(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	group, err := h.groupService.GetGroupByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category_group": group})
}

// UpdateGroup applies a partial update to a group.
// @Summary     Update category group
// @Tags        category-groups
// @Accept      json
// @Produce     json
// @Param       id      path string                     true "Group ID"
// @Param       request body UpdateCategoryGroupRequest true "Fields to change"
// @Success     200 {object} models.CategoryGroup
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /category-groups/{id} [put]
func (h *CategoryGroupHandler) UpdateGroup(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	group, err := h.groupService.UpdateGroup(id, services.CategoryGroupUpdate{
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("UPDATE_CATEGORY_GROUP", "category_group", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"category_group": group})
}

// DeleteGroup deletes a group and, through the store, its categories.
// @Summary     Delete category group
// @Tags        category-groups
// @Produce     json
// @Param       id path string true "Group ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /category-groups/{id} [delete]
func (h *CategoryGroupHandler) DeleteGroup(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.groupService.DeleteGroup(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_CATEGORY_GROUP", "category_group", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Category group deleted successfully"})
}
