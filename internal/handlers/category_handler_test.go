package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/models"
	"pennywise/internal/services"
)

// --- mock category group service ---

type mockCategoryGroupService struct {
	createGroupFn func(name string, sortOrder int) (*models.CategoryGroup, error)
	listGroupsFn  func() ([]models.CategoryGroup, error)
	getGroupFn    func(id string) (*models.CategoryGroup, error)
	updateGroupFn func(id string, upd services.CategoryGroupUpdate) (*models.CategoryGroup, error)
	deleteGroupFn func(id string) error
}

func (m *mockCategoryGroupService) CreateGroup(name string, sortOrder int) (*models.CategoryGroup, error) {
	if m.createGroupFn != nil {
		return m.createGroupFn(name, sortOrder)
	}
	return &models.CategoryGroup{Base: models.Base{ID: testID}, Name: name, SortOrder: sortOrder}, nil
}

func (m *mockCategoryGroupService) ListGroups() ([]models.CategoryGroup, error) {
	if m.listGroupsFn != nil {
		return m.listGroupsFn()
	}
	return []models.CategoryGroup{}, nil
}

func (m *mockCategoryGroupService) GetGroupByID(id string) (*models.CategoryGroup, error) {
	if m.getGroupFn != nil {
		return m.getGroupFn(id)
	}
	return &models.CategoryGroup{Base: models.Base{ID: id}}, nil
}

func (m *mockCategoryGroupService) UpdateGroup(id string, upd services.CategoryGroupUpdate) (*models.CategoryGroup, error) {
	if m.updateGroupFn != nil {
		return m.updateGroupFn(id, upd)
	}
	return &models.CategoryGroup{Base: models.Base{ID: id}}, nil
}

func (m *mockCategoryGroupService) DeleteGroup(id string) error {
	if m.deleteGroupFn != nil {
		return m.deleteGroupFn(id)
	}
	return nil
}

var _ services.CategoryGroupServicer = (*mockCategoryGroupService)(nil)

// --- mock category service ---

type mockCategoryService struct {
	createCategoryFn func(input services.CategoryInput) (*models.Category, error)
	listCategoriesFn func(groupID *string) ([]models.Category, error)
	getCategoryFn    func(id string) (*models.Category, error)
	updateCategoryFn func(id string, upd services.CategoryUpdate) (*models.Category, error)
	deleteCategoryFn func(id string) error
}

func (m *mockCategoryService) CreateCategory(input services.CategoryInput) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(input)
	}
	return &models.Category{Base: models.Base{ID: testID}, GroupID: input.GroupID, Name: input.Name, Type: input.Type, IsActive: true}, nil
}

func (m *mockCategoryService) ListCategories(groupID *string) ([]models.Category, error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(groupID)
	}
	return []models.Category{}, nil
}

func (m *mockCategoryService) GetCategoryByID(id string) (*models.Category, error) {
	if m.getCategoryFn != nil {
		return m.getCategoryFn(id)
	}
	return &models.Category{Base: models.Base{ID: id}}, nil
}

func (m *mockCategoryService) UpdateCategory(id string, upd services.CategoryUpdate) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(id, upd)
	}
	return &models.Category{Base: models.Base{ID: id}}, nil
}

func (m *mockCategoryService) DeleteCategory(id string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(id)
	}
	return nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

func setupGroupRouter(handler *CategoryGroupHandler) *gin.Engine {
	r := gin.New()
	r.POST("/category-groups", handler.CreateGroup)
	r.GET("/category-groups", handler.ListGroups)
	r.GET("/category-groups/:id", handler.GetGroup)
	r.PUT("/category-groups/:id", handler.UpdateGroup)
	r.DELETE("/category-groups/:id", handler.DeleteGroup)
	return r
}

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	r.POST("/categories", handler.CreateCategory)
	r.GET("/categories", handler.ListCategories)
	r.GET("/categories/:id", handler.GetCategory)
	r.PUT("/categories/:id", handler.UpdateCategory)
	r.DELETE("/categories/:id", handler.DeleteCategory)
	return r
}

func TestCategoryGroupHandler_CreateGroup(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupGroupRouter(NewCategoryGroupHandler(&mockCategoryGroupService{}, audit))

		rec := doRequest(r, "POST", "/category-groups", `{"name":"Food","sort_order":2}`)

		assertStatus(t, rec, http.StatusCreated)
		group := parseJSON(t, rec)["category_group"].(map[string]interface{})
		if group["name"] != "Food" || group["sort_order"].(float64) != 2 {
			t.Errorf("unexpected group %v", group)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "CREATE_CATEGORY_GROUP" {
			t.Errorf("expected one audit entry, got %v", got)
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		r := setupGroupRouter(NewCategoryGroupHandler(&mockCategoryGroupService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/category-groups", `{"sort_order":2}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 409 on duplicate", func(t *testing.T) {
		svc := &mockCategoryGroupService{
			createGroupFn: func(_ string, _ int) (*models.CategoryGroup, error) {
				return nil, apperrors.ErrDuplicateCategoryGroup
			},
		}
		r := setupGroupRouter(NewCategoryGroupHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/category-groups", `{"name":"Food"}`)

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_CATEGORY_GROUP")
	})
}

func TestCategoryGroupHandler_UpdateGroup(t *testing.T) {
	t.Run("passes only present fields", func(t *testing.T) {
		var got services.CategoryGroupUpdate
		svc := &mockCategoryGroupService{
			updateGroupFn: func(_ string, upd services.CategoryGroupUpdate) (*models.CategoryGroup, error) {
				got = upd
				return &models.CategoryGroup{}, nil
			},
		}
		r := setupGroupRouter(NewCategoryGroupHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/category-groups/"+testID, `{"sort_order":4}`)

		assertStatus(t, rec, http.StatusOK)
		if got.Name.Set {
			t.Error("expected name to be absent")
		}
		if v, ok := got.SortOrder.Get(); !ok || v != 4 {
			t.Errorf("expected sort_order 4, got %+v", got.SortOrder)
		}
	})

	t.Run("returns 400 on invalid ID", func(t *testing.T) {
		r := setupGroupRouter(NewCategoryGroupHandler(&mockCategoryGroupService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/category-groups/abc", `{"name":"X"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on oversized name", func(t *testing.T) {
		r := setupGroupRouter(NewCategoryGroupHandler(&mockCategoryGroupService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/category-groups/"+testID, `{"name":"`+strings.Repeat("x", 101)+`"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestCategoryGroupHandler_DeleteGroup(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var deleted string
		svc := &mockCategoryGroupService{deleteGroupFn: func(id string) error { deleted = id; return nil }}
		r := setupGroupRouter(NewCategoryGroupHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/category-groups/"+testID, "")

		assertStatus(t, rec, http.StatusOK)
		if deleted != testID {
			t.Errorf("expected %s to be deleted, got %s", testID, deleted)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockCategoryGroupService{deleteGroupFn: func(string) error { return apperrors.ErrCategoryGroupNotFound }}
		r := setupGroupRouter(NewCategoryGroupHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/category-groups/"+testID, "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_GROUP_NOT_FOUND")
	})
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories",
			`{"group_id":"`+testID+`","name":"Groceries","type":"expense"}`)

		assertStatus(t, rec, http.StatusCreated)
		category := parseJSON(t, rec)["category"].(map[string]interface{})
		if category["type"] != "expense" || category["group_id"] != testID {
			t.Errorf("unexpected category %v", category)
		}
	})

	t.Run("returns 400 on invalid type", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories",
			`{"group_id":"`+testID+`","name":"Groceries","type":"savings"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on malformed group_id", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories", `{"group_id":"7","name":"Groceries","type":"expense"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("returns 404 when group missing", func(t *testing.T) {
		svc := &mockCategoryService{
			createCategoryFn: func(services.CategoryInput) (*models.Category, error) {
				return nil, apperrors.ErrCategoryGroupNotFound
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories",
			`{"group_id":"`+testID+`","name":"Groceries","type":"expense"}`)

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_GROUP_NOT_FOUND")
	})
}

func TestCategoryHandler_ListCategories(t *testing.T) {
	t.Run("passes group filter", func(t *testing.T) {
		var got *string
		svc := &mockCategoryService{
			listCategoriesFn: func(groupID *string) ([]models.Category, error) {
				got = groupID
				return []models.Category{{Name: "Groceries"}}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories?group_id="+testID, "")

		assertStatus(t, rec, http.StatusOK)
		if got == nil || *got != testID {
			t.Errorf("expected group filter %s, got %v", testID, got)
		}
		if n := len(parseJSON(t, rec)["categories"].([]interface{})); n != 1 {
			t.Errorf("expected 1 category, got %d", n)
		}
	})

	t.Run("returns 400 on malformed group_id", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories?group_id=nope", "")

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestCategoryHandler_UpdateCategory(t *testing.T) {
	t.Run("moves category and deactivates it", func(t *testing.T) {
		var got services.CategoryUpdate
		svc := &mockCategoryService{
			updateCategoryFn: func(_ string, upd services.CategoryUpdate) (*models.Category, error) {
				got = upd
				return &models.Category{}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/categories/"+testID, `{"group_id":"`+otherTestID+`","is_active":false}`)

		assertStatus(t, rec, http.StatusOK)
		if v, ok := got.GroupID.Get(); !ok || v != otherTestID {
			t.Errorf("expected group move, got %+v", got.GroupID)
		}
		if v, ok := got.IsActive.Get(); !ok || v {
			t.Errorf("expected is_active=false, got %+v", got.IsActive)
		}
		if got.Name.Set || got.Type.Set {
			t.Error("expected absent fields to stay unset")
		}
	})

	t.Run("returns 400 on invalid type", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/categories/"+testID, `{"type":"other"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestCategoryHandler_GetAndDelete(t *testing.T) {
	svc := &mockCategoryService{
		getCategoryFn:    func(string) (*models.Category, error) { return nil, apperrors.ErrCategoryNotFound },
		deleteCategoryFn: func(string) error { return apperrors.ErrCategoryNotFound },
	}
	r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/categories/"+testID, "")
	assertStatus(t, rec, http.StatusNotFound)
	assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")

	rec = doRequest(r, "DELETE", "/categories/"+testID, "")
	assertStatus(t, rec, http.StatusNotFound)
}
