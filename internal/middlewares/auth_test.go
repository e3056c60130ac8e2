package middlewares

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/gw-catalog/internal/jwt"
	"github.com/sbilibin2017/gw-catalog/internal/models"
	"github.com/sbilibin2017/gw-catalog/internal/services"
	"github.com/stretchr/testify/assert"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestAuthMiddleware(t *testing.T) {
	user := &models.UserDB{ID: 1, Username: "admin", Role: models.RoleAdmin}

	tests := []struct {
		name             string
		mockSetup        func(tok *MockTokener, auth *MockAuthenticator)
		expectedStatus   int
		expectedError    string
		expectNextCalled bool
	}{
		{
			name: "NoToken",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).
					Return("", jwt.ErrTokenMissing)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Authentication required",
		},
		{
			name: "ExpiredToken",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("old", nil)
				auth.EXPECT().Authenticate(gomock.Any(), "old").Return(nil, jwt.ErrTokenExpired)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Token expired",
		},
		{
			name: "InvalidToken",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("sometoken", nil)
				auth.EXPECT().Authenticate(gomock.Any(), "sometoken").Return(nil, jwt.ErrTokenInvalid)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid token",
		},
		{
			name: "RevokedToken",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("gone", nil)
				auth.EXPECT().Authenticate(gomock.Any(), "gone").Return(nil, services.ErrTokenRevoked)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Token revoked",
		},
		{
			name: "UserDeleted",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("orphan", nil)
				auth.EXPECT().Authenticate(gomock.Any(), "orphan").Return(nil, services.ErrUserNotFound)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "User not found",
		},
		{
			name: "StoreFailure",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("tok", nil)
				auth.EXPECT().Authenticate(gomock.Any(), "tok").Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Internal server error",
		},
		{
			name: "ValidToken",
			mockSetup: func(tok *MockTokener, auth *MockAuthenticator) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).Return("validtoken", nil)
				auth.EXPECT().Authenticate(gomock.Any(), "validtoken").Return(user, nil)
			},
			expectedStatus:   http.StatusOK,
			expectNextCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			tok := NewMockTokener(ctrl)
			auth := NewMockAuthenticator(ctrl)
			tt.mockSetup(tok, auth)

			nextCalled := false
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				got, ok := UserFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, user, got)
				assert.Equal(t, "validtoken", TokenFromContext(r.Context()))
				w.WriteHeader(http.StatusOK)
			})

			handler := AuthMiddleware(tok, auth)(nextHandler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectNextCalled, nextCalled)
			if tt.expectedError != "" {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
				assert.Equal(t, tt.expectedError, decodeError(t, rr))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name           string
		user           *models.UserDB
		expectedStatus int
		expectedError  string
	}{
		{name: "Admin", user: &models.UserDB{ID: 1, Role: models.RoleAdmin}, expectedStatus: http.StatusOK},
		{name: "Customer", user: &models.UserDB{ID: 2, Role: models.RoleCustomer}, expectedStatus: http.StatusForbidden, expectedError: "Admin access required"},
		{name: "Anonymous", expectedStatus: http.StatusUnauthorized, expectedError: "Authentication required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			handler := RequireRole(models.RoleAdmin)(next)

			req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), tt.user, "tok"))
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, rr))
			}
		})
	}
}
