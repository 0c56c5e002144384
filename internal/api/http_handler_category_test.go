package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stand-catalog-service/internal/domain"
	"stand-catalog-service/internal/store"
)

// MockCategoryStorer is a mock implementation of store.CategoryStorer
type MockCategoryStorer struct {
	mock.Mock
}

func (m *MockCategoryStorer) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) ListCategories(ctx context.Context, params store.ListCategoriesParams) ([]domain.Category, int, error) {
	args := m.Called(ctx, params)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Int(1), args.Error(2)
}

func (m *MockCategoryStorer) AllCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Error(1)
}

func (m *MockCategoryStorer) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryStorer) DeleteCategory(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// setupTestChiServer mounts the handler on a chi router. Stores and importer
// not exercised by a test may be nil.
func setupTestChiServer(t *testing.T, cs store.CategoryStorer, ps store.ProductStorer, imp Importer) *httptest.Server {
	t.Helper()
	handler := NewHTTPHandler(cs, ps, imp, zap.NewNop(), 1<<20)
	router := chi.NewRouter()
	handler.RegisterRoutes(router, 0)
	return httptest.NewServer(router)
}

// PtrTo returns a pointer to v.
func PtrTo[T any](v T) *T {
	return &v
}

func doJSON(t *testing.T, method, url string, payload any) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return res
}

func decodeError(t *testing.T, res *http.Response) string {
	t.Helper()
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	return errResp.Error
}

func TestHTTPHandler_CreateCategory_Success(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil, nil)
	defer server.Close()

	now := time.Now().Truncate(time.Millisecond)
	inputPayload := CategoryInput{
		Name:        "Iluminação & Acessórios",
		Description: PtrTo("Spots, braços e refletores"),
	}
	expectedCreatedCategory := &domain.Category{
		ID:          1,
		Name:        inputPayload.Name,
		Slug:        "iluminacao-acessorios",
		Description: inputPayload.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mockCatStore.On("CreateCategory", mock.Anything, mock.MatchedBy(func(cat *domain.Category) bool {
		return cat.Name == inputPayload.Name && cat.Slug == "iluminacao-acessorios" &&
			cat.Description != nil && *cat.Description == *inputPayload.Description
	})).Return(expectedCreatedCategory, nil).Once()

	res := doJSON(t, http.MethodPost, server.URL+"/api/v1/categories", inputPayload)
	defer res.Body.Close()

	require.Equal(t, http.StatusCreated, res.StatusCode)

	var responseCategory domain.Category
	require.NoError(t, json.NewDecoder(res.Body).Decode(&responseCategory))
	assert.Equal(t, expectedCreatedCategory.ID, responseCategory.ID)
	assert.Equal(t, expectedCreatedCategory.Name, responseCategory.Name)
	assert.Equal(t, expectedCreatedCategory.Slug, responseCategory.Slug)
	require.NotNil(t, responseCategory.Description)
	assert.Equal(t, *expectedCreatedCategory.Description, *responseCategory.Description)
	assert.WithinDuration(t, now, responseCategory.CreatedAt, time.Second*5)

	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_CreateCategory_ExplicitSlugIsNormalized(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil, nil)
	defer server.Close()

	mockCatStore.On("CreateCategory", mock.Anything, mock.MatchedBy(func(cat *domain.Category) bool {
		return cat.Slug == "my-custom-slug"
	})).Return(&domain.Category{ID: 3, Name: "Stands", Slug: "my-custom-slug"}, nil).Once()

	res := doJSON(t, http.MethodPost, server.URL+"/api/v1/categories", CategoryInput{Name: "Stands", Slug: "My Custom  Slug"})
	defer res.Body.Close()

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_CreateCategory_InvalidPayload_Validation(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil, nil)
	defer server.Close()

	tests := []struct {
		name    string
		payload CategoryInput
	}{
		{"empty name", CategoryInput{Name: ""}},
		{"no slug characters", CategoryInput{Name: "!!!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := doJSON(t, http.MethodPost, server.URL+"/api/v1/categories", tt.payload)
			defer res.Body.Close()

			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			assert.Contains(t, decodeError(t, res), "Validation failed")
		})
	}
	mockCatStore.AssertNotCalled(t, "CreateCategory", mock.Anything, mock.Anything)
}

func TestHTTPHandler_CreateCategory_Conflicts(t *testing.T) {
	for _, storeErr := range []error{store.ErrCategoryNameExists, store.ErrCategorySlugExists} {
		t.Run(storeErr.Error(), func(t *testing.T) {
			mockCatStore := new(MockCategoryStorer)
			server := setupTestChiServer(t, mockCatStore, nil, nil)
			defer server.Close()

			mockCatStore.On("CreateCategory", mock.Anything, mock.AnythingOfType("*domain.Category")).
				Return(nil, storeErr).Once()

			res := doJSON(t, http.MethodPost, server.URL+"/api/v1/categories", CategoryInput{Name: "Existing Name"})
			defer res.Body.Close()

			assert.Equal(t, http.StatusConflict, res.StatusCode)
			assert.Equal(t, storeErr.Error(), decodeError(t, res))
			mockCatStore.AssertExpectations(t)
		})
	}
}

func TestHTTPHandler_ListCategories_Success(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil, nil)
	defer server.Close()

	now := time.Now().Truncate(time.Millisecond)
	expectedCategories := []domain.Category{
		{ID: 1, Name: "Cat A", Slug: "cat-a", CreatedAt: now, UpdatedAt: now},
		{ID: 2, Name: "Cat B", Slug: "cat-b", CreatedAt: now, UpdatedAt: now},
	}

	mockCatStore.On("ListCategories", mock.Anything, store.ListCategoriesParams{Limit: 2, Offset: 2}).
		Return(expectedCategories, 5, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/categories?page=2&limit=2")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var responsePayload ListResponse[domain.Category]
	require.NoError(t, json.NewDecoder(res.Body).Decode(&responsePayload))

	assert.Len(t, responsePayload.Data, 2)
	assert.Equal(t, "Cat A", responsePayload.Data[0].Name)
	assert.Equal(t, Pagination{Page: 2, Limit: 2, TotalItems: 5, TotalPages: 3}, responsePayload.Pagination)

	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_ListCategories_DefaultsAndEmpty(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil, nil)
	defer server.Close()

	mockCatStore.On("ListCategories", mock.Anything, store.ListCategoriesParams{Limit: 100, Offset: 0}).
		Return(nil, 0, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/categories?page=-3&limit=1000")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(res.Body).Decode(&raw))
	assert.JSONEq(t, `[]`, string(raw["data"]))

	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_GetCategoryByID_Found(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil, nil)
	defer server.Close()

	categoryID := int64(1)
	expectedCategory := &domain.Category{ID: categoryID, Name: "Fetched Category", Slug: "fetched-category", Description: PtrTo("Details")}

	mockCatStore.On("GetCategoryByID", mock.Anything, categoryID).Return(expectedCategory, nil).Once()

	res, err := http.Get(server.URL + fmt.Sprintf("/api/v1/categories/%d", categoryID))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var responseCategory domain.Category
	require.NoError(t, json.NewDecoder(res.Body).Decode(&responseCategory))
	assert.Equal(t, expectedCategory.ID, responseCategory.ID)
	assert.Equal(t, expectedCategory.Slug, responseCategory.Slug)

	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_GetCategoryByID_BadID(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil, nil)
	defer server.Close()

	for _, id := range []string{"abc", "0", "-5"} {
		res, err := http.Get(server.URL + "/api/v1/categories/" + id)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, id)
		res.Body.Close()
	}
	mockCatStore.AssertNotCalled(t, "GetCategoryByID", mock.Anything, mock.Anything)
}

func TestHTTPHandler_GetCategoryByID_NotFound(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil, nil)
	defer server.Close()

	categoryID := int64(99)
	mockCatStore.On("GetCategoryByID", mock.Anything, categoryID).Return(nil, store.ErrCategoryNotFound).Once()

	res, err := http.Get(server.URL + fmt.Sprintf("/api/v1/categories/%d", categoryID))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, store.ErrCategoryNotFound.Error(), decodeError(t, res))

	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_GetCategoryByID_StoreFailure(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil, nil)
	defer server.Close()

	mockCatStore.On("GetCategoryByID", mock.Anything, int64(4)).Return(nil, fmt.Errorf("connection refused")).Once()

	res, err := http.Get(server.URL + "/api/v1/categories/4")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "Failed to retrieve category", decodeError(t, res))
}

func TestHTTPHandler_UpdateCategory_Success(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil, nil)
	defer server.Close()

	categoryID := int64(1)
	updatePayload := CategoryInput{Name: "Updated Category Name", Description: PtrTo("Updated Description")}
	expectedUpdatedCategory := &domain.Category{
		ID:          categoryID,
		Name:        updatePayload.Name,
		Slug:        "updated-category-name",
		Description: updatePayload.Description,
	}

	mockCatStore.On("UpdateCategory", mock.Anything, mock.MatchedBy(func(cat *domain.Category) bool {
		return cat.ID == categoryID && cat.Name == updatePayload.Name && cat.Slug == "updated-category-name"
	})).Return(expectedUpdatedCategory, nil).Once()

	res := doJSON(t, http.MethodPut, server.URL+fmt.Sprintf("/api/v1/categories/%d", categoryID), updatePayload)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var responseCategory domain.Category
	require.NoError(t, json.NewDecoder(res.Body).Decode(&responseCategory))
	assert.Equal(t, expectedUpdatedCategory.Name, responseCategory.Name)
	require.NotNil(t, responseCategory.Description)
	assert.Equal(t, *expectedUpdatedCategory.Description, *responseCategory.Description)

	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_UpdateCategory_NotFound(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil, nil)
	defer server.Close()

	categoryID := int64(99)
	mockCatStore.On("UpdateCategory", mock.Anything, mock.MatchedBy(func(cat *domain.Category) bool {
		return cat.ID == categoryID
	})).Return(nil, store.ErrCategoryNotFound).Once()

	res := doJSON(t, http.MethodPut, server.URL+fmt.Sprintf("/api/v1/categories/%d", categoryID), CategoryInput{Name: "Non Existent Update"})
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, store.ErrCategoryNotFound.Error(), decodeError(t, res))

	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_DeleteCategory_Success(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil, nil)
	defer server.Close()

	mockCatStore.On("DeleteCategory", mock.Anything, int64(1)).Return(nil).Once()

	res := doJSON(t, http.MethodDelete, server.URL+"/api/v1/categories/1", nil)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_DeleteCategory_Errors(t *testing.T) {
	tests := []struct {
		storeErr error
		status   int
	}{
		{store.ErrCategoryNotFound, http.StatusNotFound},
		{store.ErrCategoryInUse, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.storeErr.Error(), func(t *testing.T) {
			mockCatStore := new(MockCategoryStorer)
			server := setupTestChiServer(t, mockCatStore, nil, nil)
			defer server.Close()

			mockCatStore.On("DeleteCategory", mock.Anything, int64(99)).Return(tt.storeErr).Once()

			res := doJSON(t, http.MethodDelete, server.URL+"/api/v1/categories/99", nil)
			defer res.Body.Close()

			assert.Equal(t, tt.status, res.StatusCode)
			assert.Equal(t, tt.storeErr.Error(), decodeError(t, res))
			mockCatStore.AssertExpectations(t)
		})
	}
}
