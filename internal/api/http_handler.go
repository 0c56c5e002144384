package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stand-catalog-service/internal/domain"
	"stand-catalog-service/internal/importer"
	"stand-catalog-service/internal/store"
)

// Importer runs a spreadsheet import. *importer.Normalizer satisfies it.
type Importer interface {
	Import(ctx context.Context, filename string, r io.Reader) (importer.Outcome, error)
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	categoryStore  store.CategoryStorer
	productStore   store.ProductStorer
	importer       Importer
	logger         *zap.Logger
	validate       *validator.Validate
	maxUploadBytes int64
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(cs store.CategoryStorer, ps store.ProductStorer, imp Importer, logger *zap.Logger, maxUploadBytes int64) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		categoryStore:  cs,
		productStore:   ps,
		importer:       imp,
		logger:         logger,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// ListResponse is the envelope of paginated list endpoints.
type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func newListResponse[T any](data []T, page, limit, total int) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return ListResponse[T]{
		Data:       data,
		Pagination: Pagination{Page: page, Limit: limit, TotalItems: total, TotalPages: totalPages},
	}
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("encoding JSON response failed", zap.Error(err))
	}
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	writeJSON(h.logger, w, code, payload)
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Error: message})
}

// pageParams reads page and limit query parameters: limit defaults to 10 and
// is capped at 100, page defaults to 1.
func pageParams(r *http.Request) (page, limit, offset int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	page, err = strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	return page, limit, (page - 1) * limit
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *HTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// --- Category Handlers ---

// CategoryInput is the body of category create and update requests. Slug is
// derived from Name when omitted.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Slug        string  `json:"slug" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty"`
}

func (in CategoryInput) toDomain(id int64) (*domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	slug := domain.Slugify(in.Slug)
	if slug == "" {
		slug = domain.Slugify(name)
	}
	if slug == "" {
		return nil, errors.New("name must contain at least one letter or digit")
	}
	return &domain.Category{ID: id, Name: name, Slug: slug, Description: in.Description}, nil
}

func (h *HTTPHandler) categoryStoreError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, store.ErrCategoryNotFound):
		h.respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
	case errors.Is(err, store.ErrCategoryNameExists):
		h.respondWithError(w, http.StatusConflict, store.ErrCategoryNameExists.Error())
	case errors.Is(err, store.ErrCategorySlugExists):
		h.respondWithError(w, http.StatusConflict, store.ErrCategorySlugExists.Error())
	case errors.Is(err, store.ErrCategoryInUse):
		h.respondWithError(w, http.StatusConflict, store.ErrCategoryInUse.Error())
	default:
		h.logger.Error("category store operation failed", zap.String("action", action), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to "+action+" category")
	}
}

func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	category, err := input.toDomain(0)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	created, err := h.categoryStore.CreateCategory(r.Context(), category)
	if err != nil {
		h.categoryStoreError(w, err, "create")
		return
	}
	h.respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := pageParams(r)

	categories, total, err := h.categoryStore.ListCategories(r.Context(), store.ListCategoriesParams{Limit: limit, Offset: offset})
	if err != nil {
		h.categoryStoreError(w, err, "list")
		return
	}
	h.respondWithJSON(w, http.StatusOK, newListResponse(categories, page, limit, total))
}

func (h *HTTPHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := idParam(r, "categoryId")
	if !ok {
		h.respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	category, err := h.categoryStore.GetCategoryByID(r.Context(), categoryID)
	if err != nil {
		h.categoryStoreError(w, err, "retrieve")
		return
	}
	h.respondWithJSON(w, http.StatusOK, category)
}

func (h *HTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := idParam(r, "categoryId")
	if !ok {
		h.respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	var input CategoryInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	category, err := input.toDomain(categoryID)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	updated, err := h.categoryStore.UpdateCategory(r.Context(), category)
	if err != nil {
		h.categoryStoreError(w, err, "update")
		return
	}
	h.respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := idParam(r, "categoryId")
	if !ok {
		h.respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	if err := h.categoryStore.DeleteCategory(r.Context(), categoryID); err != nil {
		h.categoryStoreError(w, err, "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Product Handlers ---

// ProductInput is the body of product create and update requests. Name
// defaults to "<item code> - <description>".
type ProductInput struct {
	CategoryID       int64            `json:"category_id" validate:"required,gt=0"`
	ItemCode         string           `json:"item_code" validate:"required,max=100"`
	Name             string           `json:"name" validate:"omitempty,max=255"`
	Description      *string          `json:"description" validate:"omitempty"`
	FrameSize        *string          `json:"frame_size" validate:"omitempty,max=100"`
	GraphicSize      *string          `json:"graphic_size" validate:"omitempty,max=100"`
	PiecesPerCarton  *int32           `json:"pieces_per_carton" validate:"omitempty,gte=0"`
	GrossWeight      *string          `json:"gross_weight" validate:"omitempty,max=50"`
	PackingSize      *string          `json:"packing_size" validate:"omitempty,max=100"`
	Price            *decimal.Decimal `json:"price"`
	DistributorPrice *decimal.Decimal `json:"distributor_price"`
	Status           string           `json:"status" validate:"omitempty,oneof=active inactive draft"`
}

func (in ProductInput) toDomain(id int64) (*domain.Product, error) {
	for label, price := range map[string]*decimal.Decimal{"price": in.Price, "distributor_price": in.DistributorPrice} {
		if price != nil && price.IsNegative() {
			return nil, fmt.Errorf("%s must not be negative", label)
		}
	}

	code := strings.TrimSpace(in.ItemCode)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		if in.Description == nil || strings.TrimSpace(*in.Description) == "" {
			return nil, errors.New("name or description is required")
		}
		name = domain.DisplayName(code, strings.TrimSpace(*in.Description))
	}

	p := &domain.Product{
		ID:              id,
		CategoryID:      in.CategoryID,
		ItemCode:        code,
		Name:            name,
		Description:     in.Description,
		FrameSize:       in.FrameSize,
		GraphicSize:     in.GraphicSize,
		PiecesPerCarton: in.PiecesPerCarton,
		GrossWeight:     in.GrossWeight,
		PackingSize:     in.PackingSize,
		Status:          domain.ProductStatus(in.Status),
	}
	if in.Price != nil {
		p.Price = decimal.NewNullDecimal(*in.Price)
	}
	if in.DistributorPrice != nil {
		p.DistributorPrice = decimal.NewNullDecimal(*in.DistributorPrice)
	}
	if p.Status == "" {
		p.Status = domain.ProductStatusActive
	}
	return p, nil
}

func (h *HTTPHandler) productStoreError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, store.ErrProductNotFound):
		h.respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
	case errors.Is(err, store.ErrInvalidCategory):
		h.respondWithError(w, http.StatusBadRequest, "Invalid category_id: category does not exist.")
	default:
		h.logger.Error("product store operation failed", zap.String("action", action), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to "+action+" product")
	}
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	product, err := input.toDomain(0)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	created, err := h.productStore.CreateProduct(r.Context(), product)
	if err != nil {
		h.productStoreError(w, err, "create")
		return
	}
	h.respondWithJSON(w, http.StatusCreated, created)
}

var productSortFields = map[string]bool{"": true, "name": true, "item_code": true, "price": true, "created_at": true}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit, offset := pageParams(r)
	params := store.ListProductsParams{Limit: limit, Offset: offset}

	if search := strings.TrimSpace(q.Get("q")); search != "" {
		params.SearchQuery = &search
	}
	if idStr := q.Get("category_id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			h.respondWithError(w, http.StatusBadRequest, "Invalid category_id format")
			return
		}
		params.CategoryID = &id
	}
	if s := q.Get("status"); s != "" {
		st := domain.ProductStatus(s)
		if !st.Valid() {
			h.respondWithError(w, http.StatusBadRequest, "Invalid status value. Allowed: active, inactive, draft")
			return
		}
		params.Status = &st
	}
	for _, bound := range []struct {
		key string
		dst **float64
	}{{"min_price", &params.MinPrice}, {"max_price", &params.MaxPrice}} {
		raw := q.Get(bound.key)
		if raw == "" {
			continue
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			h.respondWithError(w, http.StatusBadRequest, "Invalid "+bound.key+" format")
			return
		}
		*bound.dst = &price
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		h.respondWithError(w, http.StatusBadRequest, "min_price cannot exceed max_price")
		return
	}

	params.SortBy = q.Get("sort_by")
	params.SortOrder = strings.ToLower(q.Get("sort_order"))
	if !productSortFields[params.SortBy] {
		h.respondWithError(w, http.StatusBadRequest, "Invalid sort_by field. Allowed: name, item_code, price, created_at")
		return
	}
	if params.SortOrder != "" && params.SortOrder != "asc" && params.SortOrder != "desc" {
		h.respondWithError(w, http.StatusBadRequest, "Invalid sort_order value. Allowed: asc, desc")
		return
	}

	products, total, err := h.productStore.ListProducts(r.Context(), params)
	if err != nil {
		h.productStoreError(w, err, "list")
		return
	}
	h.respondWithJSON(w, http.StatusOK, newListResponse(products, page, limit, total))
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "productId")
	if !ok {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		h.productStoreError(w, err, "retrieve")
		return
	}
	h.respondWithJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "productId")
	if !ok {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input ProductInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	product, err := input.toDomain(productID)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	updated, err := h.productStore.UpdateProduct(r.Context(), product)
	if err != nil {
		h.productStoreError(w, err, "update")
		return
	}
	h.respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "productId")
	if !ok {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := h.productStore.DeleteProduct(r.Context(), productID); err != nil {
		h.productStoreError(w, err, "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service. Category and
// product routes are cut off after requestTimeout (zero disables it). Import
// routes are mounted outside that group: a large workbook is bounded by the
// upload limit, not the request deadline.
func (h *HTTPHandler) RegisterRoutes(r chi.Router, requestTimeout time.Duration) {
	r.Group(func(r chi.Router) {
		if requestTimeout > 0 {
			r.Use(middleware.Timeout(requestTimeout))
		}

		r.Route("/api/v1/categories", func(r chi.Router) {
			r.Post("/", h.CreateCategory)
			r.Get("/", h.ListCategories)
			r.Route("/{categoryId}", func(r chi.Router) {
				r.Get("/", h.GetCategoryByID)
				r.Put("/", h.UpdateCategory)
				r.Delete("/", h.DeleteCategory)
			})
		})

		r.Route("/api/v1/products", func(r chi.Router) {
			r.Post("/", h.CreateProduct)
			r.Get("/", h.ListProducts)
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", h.GetProductByID)
				r.Put("/", h.UpdateProduct)
				r.Delete("/", h.DeleteProduct)
			})
		})
	})

	r.Route("/api/v1/imports", func(r chi.Router) {
		r.Post("/", h.ImportCatalog)
		r.Get("/template", h.DownloadTemplate)
	})
}
