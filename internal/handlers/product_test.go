package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/gw-catalog/internal/images"
	"github.com/sbilibin2017/gw-catalog/internal/models"
	"github.com/sbilibin2017/gw-catalog/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type filePart struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files []filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func pngPart(name string) filePart {
	return filePart{field: imagesField, name: name, contentType: "image/png", data: []byte("\x89PNG fake")}
}

func decodeErrorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestListProductsHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := NewMockProductLister(ctrl)

	t.Run("empty catalog is an empty array", func(t *testing.T) {
		mockSvc.EXPECT().List(gomock.Any()).Return([]models.ProductDB{}, nil)

		rr := httptest.NewRecorder()
		NewListProductsHandler(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("images serialized as array", func(t *testing.T) {
		mockSvc.EXPECT().List(gomock.Any()).Return([]models.ProductDB{
			{ID: 1, BrandName: "Acme", Images: models.ImageList{"/uploads/a.jpg"}},
		}, nil)

		rr := httptest.NewRecorder()
		NewListProductsHandler(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products", nil))

		var got []map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, []any{"/uploads/a.jpg"}, got[0]["images"])
		assert.Equal(t, "Acme", got[0]["brand_name"])
	})

	t.Run("store failure", func(t *testing.T) {
		mockSvc.EXPECT().List(gomock.Any()).Return(nil, errors.New("db down"))

		rr := httptest.NewRecorder()
		NewListProductsHandler(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Internal server error", decodeErrorBody(t, rr))
	})
}

func TestListProductsByBrandHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := NewMockBrandLister(ctrl)
	mockSvc.EXPECT().ListByBrand(gomock.Any(), "Acme Co").Return([]models.ProductDB{{ID: 2, BrandName: "Acme Co"}}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/products/brand/Acme%20Co", nil), "brandName", "Acme Co")
	rr := httptest.NewRecorder()
	NewListProductsByBrandHandler(mockSvc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"brand_name":"Acme Co"`)
}

func TestGetProductHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := NewMockProductGetter(ctrl)

	tests := []struct {
		name         string
		id           string
		mockSetup    func()
		expectedCode int
	}{
		{
			name: "found",
			id:   "1",
			mockSetup: func() {
				mockSvc.EXPECT().Get(gomock.Any(), int64(1)).Return(&models.ProductDB{ID: 1, BrandName: "Acme"}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "missing",
			id:   "999",
			mockSetup: func() {
				mockSvc.EXPECT().Get(gomock.Any(), int64(999)).Return(nil, services.ErrProductNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{name: "not a number", id: "abc", mockSetup: func() {}, expectedCode: http.StatusNotFound},
		{name: "zero", id: "0", mockSetup: func() {}, expectedCode: http.StatusNotFound},
		{name: "negative", id: "-4", mockSetup: func() {}, expectedCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/products/"+tt.id, nil), "id", tt.id)
			rr := httptest.NewRecorder()
			NewGetProductHandler(mockSvc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
			if tt.expectedCode == http.StatusNotFound {
				assert.Equal(t, "Product not found", decodeErrorBody(t, rr))
			}
		})
	}
}

func TestCreateProductHandler_Multipart(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := NewMockProductCreator(ctrl)

	body, ct := multipartBody(t,
		map[string]string{"brand_name": "Acme", "colors": "Red, Blue"},
		[]filePart{pngPart("a.png"), pngPart("b.png")},
	)

	mockSvc.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in models.ProductInput, uploads []images.Upload) (*models.ProductDB, error) {
			require.NotNil(t, in.BrandName)
			assert.Equal(t, "Acme", *in.BrandName)
			assert.Equal(t, "Red, Blue", *in.Colors)
			assert.Nil(t, in.Fabric)
			require.Len(t, uploads, 2)
			assert.Equal(t, "a.png", uploads[0].Filename)
			assert.Equal(t, "image/png", uploads[0].ContentType)
			return &models.ProductDB{
				ID:        10,
				BrandName: "Acme",
				Colors:    in.Colors,
				Images:    models.ImageList{"/uploads/1-a.jpg", "/uploads/1-b.jpg"},
			}, nil
		})

	req := httptest.NewRequest(http.MethodPost, "/api/products", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	NewCreateProductHandler(mockSvc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var got models.ProductDB
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, int64(10), got.ID)
	assert.Len(t, got.Images, 2)
}

func TestCreateProductHandler_Rejections(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := NewMockProductCreator(ctrl)

	six := make([]filePart, 0, 6)
	for i := 0; i < 6; i++ {
		six = append(six, pngPart(fmt.Sprintf("%d.png", i)))
	}
	big := pngPart("big.png")
	big.data = bytes.Repeat([]byte{1}, images.MaxFileSize+1)

	tests := []struct {
		name          string
		fields        map[string]string
		files         []filePart
		expectedError string
	}{
		{
			name:          "too many files",
			fields:        map[string]string{"brand_name": "Acme"},
			files:         six,
			expectedError: "Too many files. Maximum is 5.",
		},
		{
			name:          "file too large",
			fields:        map[string]string{"brand_name": "Acme"},
			files:         []filePart{big},
			expectedError: "File too large. Maximum size is 5MB.",
		},
		{
			name:          "file under another field",
			fields:        map[string]string{"brand_name": "Acme"},
			files:         []filePart{{field: "photos", name: "a.png", contentType: "image/png", data: []byte("x")}},
			expectedError: errUnexpectedFile.message,
		},
		{
			name:          "parent directory in filename",
			fields:        map[string]string{"brand_name": "Acme"},
			files:         []filePart{pngPart("../x.png")},
			expectedError: "Invalid filename.",
		},
		{
			name:          "nested traversal in filename",
			fields:        map[string]string{"brand_name": "Acme"},
			files:         []filePart{pngPart("a.png"), pngPart("../../etc/evil.png")},
			expectedError: "Invalid filename.",
		},
		{
			name:          "disallowed declared type",
			fields:        map[string]string{"brand_name": "Acme"},
			files:         []filePart{{field: imagesField, name: "doc.pdf", contentType: "application/pdf", data: []byte("%PDF")}},
			expectedError: "Invalid file type. Only JPEG, PNG and WebP images are allowed.",
		},
		{
			name:          "oversized text field",
			fields:        map[string]string{"brand_name": "Acme", "description": strings.Repeat("d", maxFieldSize+1)},
			expectedError: "Field value too large.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fields, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/api/products", body)
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()

			NewCreateProductHandler(mockSvc).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.expectedError, decodeErrorBody(t, rr))
		})
	}
}

func TestParseProductRequest_KeepsRawFilename(t *testing.T) {
	body, ct := multipartBody(t, map[string]string{"brand_name": "Acme"}, []filePart{pngPart("dir/a.png")})
	req := httptest.NewRequest(http.MethodPost, "/api/products", body)
	req.Header.Set("Content-Type", ct)

	_, uploads, err := parseProductRequest(httptest.NewRecorder(), req)

	var imgErr *images.ValidationError
	require.ErrorAs(t, err, &imgErr)
	assert.Equal(t, "dir/a.png", imgErr.Filename)
	assert.Nil(t, uploads)
}

func TestCreateProductHandler_MissingBrand(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := NewMockProductCreator(ctrl)

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(`{"colors":"Red"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	NewCreateProductHandler(mockSvc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"errors":[{"field":"brand_name","message":"Brand name is required"}]}`, rr.Body.String())
}

func TestCreateProductHandler_ServiceErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := NewMockProductCreator(ctrl)

	tests := []struct {
		name          string
		err           error
		expectedCode  int
		expectedError string
	}{
		{
			name:          "disallowed file type",
			err:           &images.ValidationError{Filename: "doc.pdf", Message: "Invalid file type. Only JPEG, PNG and WebP images are allowed."},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid file type. Only JPEG, PNG and WebP images are allowed.",
		},
		{
			name:          "processing failure",
			err:           fmt.Errorf("%w: a.png: bad data", images.ErrProcessing),
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Error processing image",
		},
		{
			name:          "insert failure",
			err:           errors.New("insert failed"),
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tt.err)

			body, ct := multipartBody(t, map[string]string{"brand_name": "Acme"}, []filePart{pngPart("a.png")})
			req := httptest.NewRequest(http.MethodPost, "/api/products", body)
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()
			NewCreateProductHandler(mockSvc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
			assert.Equal(t, tt.expectedError, decodeErrorBody(t, rr))
		})
	}
}

func TestCreateProductHandler_URLEncoded(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := NewMockProductCreator(ctrl)

	form := url.Values{"brand_name": {"Acme"}, "sizes": {"S,M,L"}}
	mockSvc.EXPECT().Create(gomock.Any(), models.ProductInput{BrandName: strPtr("Acme"), Sizes: strPtr("S,M,L")}, gomock.Nil()).
		Return(&models.ProductDB{ID: 3, BrandName: "Acme", Images: models.ImageList{}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	NewCreateProductHandler(mockSvc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"images":[]`)
}

func TestUpdateProductHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := NewMockProductUpdater(ctrl)

	t.Run("missing product", func(t *testing.T) {
		mockSvc.EXPECT().Update(gomock.Any(), int64(999), gomock.Any(), gomock.Nil()).Return(nil, services.ErrProductNotFound)

		req := httptest.NewRequest(http.MethodPut, "/api/products/999", bytes.NewBufferString(`{"colors":"Blue"}`))
		req.Header.Set("Content-Type", "application/json")
		req = withURLParam(req, "id", "999")
		rr := httptest.NewRecorder()
		NewUpdateProductHandler(mockSvc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Product not found", decodeErrorBody(t, rr))
	})

	t.Run("partial fields", func(t *testing.T) {
		mockSvc.EXPECT().Update(gomock.Any(), int64(3), models.ProductInput{Colors: strPtr("Blue")}, gomock.Nil()).
			Return(&models.ProductDB{ID: 3, BrandName: "Acme", Colors: strPtr("Blue")}, nil)

		req := httptest.NewRequest(http.MethodPut, "/api/products/3", bytes.NewBufferString(`{"colors":"Blue"}`))
		req.Header.Set("Content-Type", "application/json")
		req = withURLParam(req, "id", "3")
		rr := httptest.NewRecorder()
		NewUpdateProductHandler(mockSvc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"colors":"Blue"`)
	})

	t.Run("blank brand rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/products/3", bytes.NewBufferString(`{"brand_name":"  "}`))
		req.Header.Set("Content-Type", "application/json")
		req = withURLParam(req, "id", "3")
		rr := httptest.NewRecorder()
		NewUpdateProductHandler(mockSvc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/products/x", nil), "id", "x")
		rr := httptest.NewRecorder()
		NewUpdateProductHandler(mockSvc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("with replacement images", func(t *testing.T) {
		mockSvc.EXPECT().Update(gomock.Any(), int64(3), gomock.Any(), gomock.Len(1)).
			Return(&models.ProductDB{ID: 3, Images: models.ImageList{"/uploads/2-n.jpg"}}, nil)

		body, ct := multipartBody(t, nil, []filePart{pngPart("n.png")})
		req := httptest.NewRequest(http.MethodPut, "/api/products/3", body)
		req.Header.Set("Content-Type", ct)
		req = withURLParam(req, "id", "3")
		rr := httptest.NewRecorder()
		NewUpdateProductHandler(mockSvc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestDeleteProductHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := NewMockProductDeleter(ctrl)

	t.Run("deleted", func(t *testing.T) {
		mockSvc.EXPECT().Delete(gomock.Any(), int64(4)).Return(nil)

		req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/products/4", nil), "id", "4")
		rr := httptest.NewRecorder()
		NewDeleteProductHandler(mockSvc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"Product deleted successfully"}`, rr.Body.String())
	})

	t.Run("already gone", func(t *testing.T) {
		mockSvc.EXPECT().Delete(gomock.Any(), int64(4)).Return(services.ErrProductNotFound)

		req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/products/4", nil), "id", "4")
		rr := httptest.NewRecorder()
		NewDeleteProductHandler(mockSvc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
