package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/gw-catalog/internal/images"
	"github.com/sbilibin2017/gw-catalog/internal/models"
	"github.com/sbilibin2017/gw-catalog/internal/services"
	"github.com/sbilibin2017/gw-catalog/internal/validation"
)

//go:generate mockgen -source=product.go -destination=product_mock.go -package=handlers

// ProductLister lists the whole catalog.
type ProductLister interface {
	List(ctx context.Context) ([]models.ProductDB, error)
}

// BrandLister lists the products of one brand.
type BrandLister interface {
	ListByBrand(ctx context.Context, brand string) ([]models.ProductDB, error)
}

// ProductGetter loads a single product.
type ProductGetter interface {
	Get(ctx context.Context, id int64) (*models.ProductDB, error)
}

// ProductCreator creates a product from fields and uploads.
type ProductCreator interface {
	Create(ctx context.Context, in models.ProductInput, uploads []images.Upload) (*models.ProductDB, error)
}

// ProductUpdater updates a product from fields and uploads.
type ProductUpdater interface {
	Update(ctx context.Context, id int64, in models.ProductInput, uploads []images.Upload) (*models.ProductDB, error)
}

// ProductDeleter deletes a product and its images.
type ProductDeleter interface {
	Delete(ctx context.Context, id int64) error
}

// productID reads the {id} route parameter. Only positive integers are ids.
func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeProductNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "Product not found")
}

// writeProductWriteError maps create/update/delete failures to responses.
func writeProductWriteError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	var imgErr *images.ValidationError
	switch {
	case errors.As(err, &reqErr):
		writeError(w, http.StatusBadRequest, reqErr.message)
	case errors.As(err, &imgErr):
		writeError(w, http.StatusBadRequest, imgErr.Message)
	case errors.Is(err, services.ErrProductNotFound):
		writeProductNotFound(w)
	case errors.Is(err, images.ErrProcessing):
		writeServerError(w, err, "Error processing image")
	default:
		writeInternalError(w, err)
	}
}

// validateProductInput checks field lengths. brand_name must be present when required
// and may never be blank when supplied.
func validateProductInput(in models.ProductInput, requireBrand bool) []models.FieldError {
	var errs []models.FieldError
	if (in.BrandName == nil && requireBrand) || (in.BrandName != nil && strings.TrimSpace(*in.BrandName) == "") {
		errs = append(errs, models.FieldError{Field: "brand_name", Message: "Brand name is required"})
	}
	return append(errs, validation.Struct(in)...)
}

// NewListProductsHandler returns an HTTP handler listing every product.
// @Summary List products
// @Description All products, newest first
// @Tags products
// @Produce json
// @Success 200 {array} models.ProductDB
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/products [get]
func NewListProductsHandler(svc ProductLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.List(r.Context())
		if err != nil {
			writeInternalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	}
}

// NewListProductsByBrandHandler returns an HTTP handler listing one brand.
// @Summary List products by brand
// @Description Products whose brand_name equals brandName, newest first
// @Tags products
// @Produce json
// @Param brandName path string true "Brand name"
// @Success 200 {array} models.ProductDB
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/products/brand/{brandName} [get]
func NewListProductsByBrandHandler(svc BrandLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListByBrand(r.Context(), chi.URLParam(r, "brandName"))
		if err != nil {
			writeInternalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	}
}

// NewGetProductHandler returns an HTTP handler for a single product.
// @Summary Get product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.ProductDB
// @Failure 404 {object} models.ErrorResponse "Product not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/products/{id} [get]
func NewGetProductHandler(svc ProductGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := productID(r)
		if !ok {
			writeProductNotFound(w)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, services.ErrProductNotFound) {
				writeProductNotFound(w)
				return
			}
			writeInternalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

// NewCreateProductHandler returns an HTTP handler creating a product with up to five images.
// @Summary Create product
// @Description Multipart form with product fields and up to 5 files in "images".
// @Tags products
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param brand_name formData string true "Brand name"
// @Param colors formData string false "Colors"
// @Param fabric formData string false "Fabric"
// @Param sizes formData string false "Sizes"
// @Param description formData string false "Description"
// @Param images formData file false "Product images (JPEG, PNG, WebP, max 5MB each)"
// @Success 201 {object} models.ProductDB
// @Failure 400 {object} models.ErrorResponse "Invalid fields or uploads"
// @Failure 401 {object} models.ErrorResponse "Authentication required"
// @Failure 403 {object} models.ErrorResponse "Admin access required"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/products [post]
func NewCreateProductHandler(svc ProductCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, uploads, err := parseProductRequest(w, r)
		if err != nil {
			writeProductWriteError(w, err)
			return
		}
		if errs := validateProductInput(in, true); len(errs) > 0 {
			writeValidationErrors(w, errs)
			return
		}

		product, err := svc.Create(r.Context(), in, uploads)
		if err != nil {
			writeProductWriteError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, product)
	}
}

// NewUpdateProductHandler returns an HTTP handler updating a product.
// New images replace the stored list; without images the list is kept.
// @Summary Update product
// @Tags products
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param brand_name formData string false "Brand name"
// @Param colors formData string false "Colors"
// @Param fabric formData string false "Fabric"
// @Param sizes formData string false "Sizes"
// @Param description formData string false "Description"
// @Param images formData file false "Replacement images"
// @Success 200 {object} models.ProductDB
// @Failure 400 {object} models.ErrorResponse "Invalid fields or uploads"
// @Failure 401 {object} models.ErrorResponse "Authentication required"
// @Failure 403 {object} models.ErrorResponse "Admin access required"
// @Failure 404 {object} models.ErrorResponse "Product not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/products/{id} [put]
func NewUpdateProductHandler(svc ProductUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := productID(r)
		if !ok {
			writeProductNotFound(w)
			return
		}

		in, uploads, err := parseProductRequest(w, r)
		if err != nil {
			writeProductWriteError(w, err)
			return
		}
		if errs := validateProductInput(in, false); len(errs) > 0 {
			writeValidationErrors(w, errs)
			return
		}

		product, err := svc.Update(r.Context(), id, in, uploads)
		if err != nil {
			writeProductWriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

// NewDeleteProductHandler returns an HTTP handler deleting a product and its images.
// @Summary Delete product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} models.MessageResponse "Product deleted successfully"
// @Failure 401 {object} models.ErrorResponse "Authentication required"
// @Failure 403 {object} models.ErrorResponse "Admin access required"
// @Failure 404 {object} models.ErrorResponse "Product not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/products/{id} [delete]
func NewDeleteProductHandler(svc ProductDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := productID(r)
		if !ok {
			writeProductNotFound(w)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			writeProductWriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Product deleted successfully"})
	}
}
