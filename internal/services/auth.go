package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sbilibin2017/gw-catalog/internal/jwt"
	"github.com/sbilibin2017/gw-catalog/internal/logger"
	"github.com/sbilibin2017/gw-catalog/internal/models"
	"github.com/sbilibin2017/gw-catalog/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=services

// Error variables
var (
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrUserNotFound             = errors.New("user not found")
	ErrAccountMisconfigured     = errors.New("user account configuration error")
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
	ErrWeakPassword             = errors.New("password does not meet the policy")
	ErrTokenRevoked             = errors.New("token revoked")
)

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByUsername(ctx context.Context, username string) (*models.UserDB, error)
	GetByID(ctx context.Context, id int64) (*models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	UpdateLastLogin(ctx context.Context, id int64) error
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}

// TokenManager issues and verifies session tokens.
type TokenManager interface {
	Generate(ctx context.Context, userID int64) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// TokenDenylist remembers logged-out tokens.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthService handles login, token verification and password changes.
type AuthService struct {
	reader   UserReader
	writer   UserWriter
	tokens   TokenManager
	denylist TokenDenylist
}

// NewAuthService creates a new AuthService instance. denylist may be nil,
// logout then does not revoke tokens.
func NewAuthService(reader UserReader, writer UserWriter, tokens TokenManager, denylist TokenDenylist) *AuthService {
	return &AuthService{
		reader:   reader,
		writer:   writer,
		tokens:   tokens,
		denylist: denylist,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnCompare spends the time of a real bcrypt comparison so unknown
// usernames are not distinguishable by latency.
func burnCompare(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("gw-catalog-unknown-user"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Login authenticates a user, stamps last_login and returns the user with a token.
func (svc *AuthService) Login(ctx context.Context, username, password string) (*models.UserDB, string, error) {
	user, err := svc.reader.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return nil, "", err
	}
	if user == nil {
		burnCompare(password)
		logger.Log.Warnw("login for unknown user", "username", username)
		return nil, "", ErrInvalidCredentials
	}

	if strings.TrimSpace(user.PasswordHash) == "" {
		logger.Log.Errorw("user has no password hash", "user_id", user.ID)
		return nil, "", ErrAccountMisconfigured
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Log.Warnw("invalid credentials", "username", username)
		return nil, "", ErrInvalidCredentials
	}

	if err := svc.writer.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Log.Errorw("failed to update last login", "user_id", user.ID, "err", err)
		return nil, "", err
	}

	token, err := svc.tokens.Generate(ctx, user.ID)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return nil, "", err
	}

	return user, token, nil
}

// Authenticate verifies a bearer token and loads its user.
// Token errors from the jwt package are returned unchanged.
func (svc *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.UserDB, error) {
	claims, err := svc.tokens.GetClaims(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	if svc.denylist != nil {
		revoked, err := svc.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			logger.Log.Errorw("failed to check token denylist", "err", err)
			return nil, err
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	user, err := svc.reader.GetByID(ctx, claims.UserID)
	if err != nil {
		logger.Log.Errorw("failed to get user", "user_id", claims.UserID, "err", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Profile reloads the user record.
func (svc *AuthService) Profile(ctx context.Context, userID int64) (*models.UserDB, error) {
	user, err := svc.reader.GetByID(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to get user", "user_id", userID, "err", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (svc *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if len(validation.PasswordProblems(newPassword)) > 0 {
		return ErrWeakPassword
	}

	user, err := svc.reader.GetByID(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to get user", "user_id", userID, "err", err)
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if strings.TrimSpace(user.PasswordHash) == "" {
		logger.Log.Errorw("user has no password hash", "user_id", user.ID)
		return ErrAccountMisconfigured
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		logger.Log.Warnw("current password mismatch", "user_id", user.ID)
		return ErrCurrentPasswordIncorrect
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return ErrWeakPassword
	}
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return err
	}

	if err := svc.writer.UpdatePasswordHash(ctx, user.ID, string(hashedPassword)); err != nil {
		logger.Log.Errorw("failed to save password", "user_id", user.ID, "err", err)
		return err
	}
	return nil
}

// Logout revokes the token for the rest of its lifetime.
func (svc *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := svc.tokens.GetClaims(ctx, tokenString)
	if err != nil {
		return err
	}
	if svc.denylist == nil {
		logger.Log.Warnw("token denylist not configured, logout is client side only", "user_id", claims.UserID)
		return nil
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := svc.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
		logger.Log.Errorw("failed to revoke token", "user_id", claims.UserID, "err", err)
		return err
	}
	return nil
}
