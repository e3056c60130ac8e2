package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sbilibin2017/gw-catalog/internal/logger"
	"github.com/sbilibin2017/gw-catalog/internal/middlewares"
	"github.com/sbilibin2017/gw-catalog/internal/models"
	"github.com/sbilibin2017/gw-catalog/internal/services"
	"github.com/sbilibin2017/gw-catalog/internal/validation"
)

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=handlers

// Loginer defines the interface that the login service must implement.
type Loginer interface {
	Login(ctx context.Context, username, password string) (*models.UserDB, string, error)
}

// PasswordChanger changes the password of an authenticated user.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
}

// Profiler loads the profile of an authenticated user.
type Profiler interface {
	Profile(ctx context.Context, userID int64) (*models.UserDB, error)
}

// Logouter revokes a bearer token.
type Logouter interface {
	Logout(ctx context.Context, tokenString string) error
}

const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// NewLoginHandler returns an HTTP handler for user login.
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body models.LoginRequest true "Login Request"
// @Success 200 {object} models.LoginResponse "User and JWT token"
// @Failure 400 {object} models.ValidationErrorResponse "Missing username or password"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/auth/login [post]
func NewLoginHandler(svc Loginer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		req.Username = strings.TrimSpace(req.Username)

		if errs := validation.Struct(req); len(errs) > 0 {
			writeValidationErrors(w, errs)
			return
		}

		user, token, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidCredentials):
				writeError(w, http.StatusUnauthorized, "Invalid credentials")
			case errors.Is(err, services.ErrAccountMisconfigured):
				writeError(w, http.StatusInternalServerError, "User account configuration error")
			default:
				writeInternalError(w, err)
			}
			return
		}

		logger.Log.Infow("user logged in", "user_id", user.ID)
		writeJSON(w, http.StatusOK, models.LoginResponse{
			User:  models.NewUserSummary(user),
			Token: token,
		})
	}
}

// NewChangePasswordHandler returns an HTTP handler that replaces the caller's password.
// @Summary Change password
// @Description Verify the current password and store a new one
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ChangePasswordRequest true "Change Password Request"
// @Success 200 {object} models.MessageResponse "Password updated successfully"
// @Failure 400 {object} models.ValidationErrorResponse "Invalid fields"
// @Failure 401 {object} models.ErrorResponse "Current password is incorrect"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/auth/change-password [post]
func NewChangePasswordHandler(svc PasswordChanger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewares.UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		var req models.ChangePasswordRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if errs := validation.Struct(req); len(errs) > 0 {
			writeValidationErrors(w, errs)
			return
		}

		err := svc.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrCurrentPasswordIncorrect):
				writeError(w, http.StatusUnauthorized, "Current password is incorrect")
			case errors.Is(err, services.ErrWeakPassword):
				var errs []models.FieldError
				for _, problem := range validation.PasswordProblems(req.NewPassword) {
					errs = append(errs, models.FieldError{Field: "newPassword", Message: problem})
				}
				writeValidationErrors(w, errs)
			case errors.Is(err, services.ErrUserNotFound):
				writeError(w, http.StatusNotFound, "User not found")
			case errors.Is(err, services.ErrAccountMisconfigured):
				writeError(w, http.StatusInternalServerError, "User account configuration error")
			default:
				writeInternalError(w, err)
			}
			return
		}

		writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Password updated successfully"})
	}
}

// NewMeHandler returns an HTTP handler that reports the caller's profile.
// @Summary Current user
// @Description Return the authenticated user's profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ProfileResponse "Profile"
// @Failure 401 {object} models.ErrorResponse "Authentication required"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /api/auth/me [get]
func NewMeHandler(svc Profiler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewares.UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		profile, err := svc.Profile(r.Context(), user.ID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				writeError(w, http.StatusNotFound, "User not found")
				return
			}
			writeInternalError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, models.NewProfileResponse(profile))
	}
}

// NewLogoutHandler returns an HTTP handler that revokes the caller's token.
// @Summary Logout
// @Description Revoke the bearer token until it expires
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.MessageResponse "Logged out successfully"
// @Failure 401 {object} models.ErrorResponse "Authentication required"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/auth/logout [post]
func NewLogoutHandler(svc Logouter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middlewares.TokenFromContext(r.Context())
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		if err := svc.Logout(r.Context(), token); err != nil {
			writeInternalError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
	}
}
