// Package middleware provides authentication, logging, metrics, tracing and
// rate limiting middleware for the HTTP server.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"cinelog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Token claim values shared by issuer and verifier.
const (
	TokenIssuer   = "cinelog-api"
	TokenAudience = "cinelog-client"
)

// Locals keys set by the auth guards.
const (
	LocalUser   = "user"
	LocalUserID = "userID"
	LocalClaims = "claims"
)

var (
	ErrTokenMissing = errors.New("token missing")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims are the JWT claims carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, ErrTokenInvalid
	}
	return uint(id), nil
}

// UserLoader resolves the user a token refers to.
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// TokenManager issues, verifies and revokes access tokens. Revoked token ids
// are kept in Redis when available and in process memory otherwise.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewTokenManager creates a TokenManager signing with secret.
func NewTokenManager(secret string, ttl time.Duration, rdb *redis.Client) *TokenManager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret:  []byte(secret),
		ttl:     ttl,
		redis:   rdb,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// Issue signs a new token for the user.
func (m *TokenManager) Issue(userID uint) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies the signature, standard claims and revocation state.
func (m *TokenManager) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}

	if m.isRevoked(ctx, claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blocks the token id until the token would have expired anyway.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(m.now()); remaining > 0 {
			ttl = remaining
		}
	}

	if m.redis != nil {
		err := m.redis.Set(ctx, revokedKey(claims.ID), "1", ttl).Err()
		if err == nil {
			return nil
		}
		Logger.WarnContext(ctx, "token revocation fell back to memory", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for jti, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, jti)
		}
	}
	m.revoked[claims.ID] = now.Add(ttl)
	return nil
}

func (m *TokenManager) isRevoked(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}
	if m.redis != nil {
		n, err := m.redis.Exists(ctx, revokedKey(jti)).Result()
		if err == nil && n > 0 {
			return true
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[jti]
	return ok && m.now().Before(exp)
}

func revokedKey(jti string) string {
	return "blacklist:" + jti
}

// BearerToken extracts the token from "Authorization: Bearer <token>". WebSocket
// upgrades may pass it as ?token= instead, since browsers cannot set headers there.
func BearerToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if strings.EqualFold(c.Get(fiber.HeaderUpgrade), "websocket") {
		return c.Query("token")
	}
	return ""
}

// Required rejects anonymous requests. A missing token or unknown user is 401;
// a bad, expired or revoked token is 403.
func (m *TokenManager) Required(users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := m.Parse(c.UserContext(), BearerToken(c))
		if err != nil {
			if errors.Is(err, ErrTokenMissing) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Access token is required"))
			}
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError(tokenErrorMessage(err)))
		}

		userID, _ := claims.UserID()
		user, err := users.GetByID(c.UserContext(), userID)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("User not found"))
			}
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}

		setIdentity(c, user, claims)
		return c.Next()
	}
}

// Optional attaches the viewer when a valid token is present and otherwise
// proceeds anonymously.
func (m *TokenManager) Optional(users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return c.Next()
		}
		claims, err := m.Parse(c.UserContext(), token)
		if err != nil {
			return c.Next()
		}
		userID, _ := claims.UserID()
		user, err := users.GetByID(c.UserContext(), userID)
		if err != nil {
			return c.Next()
		}
		setIdentity(c, user, claims)
		return c.Next()
	}
}

func setIdentity(c *fiber.Ctx, user *models.User, claims *Claims) {
	c.Locals(LocalUser, user)
	c.Locals(LocalUserID, user.ID)
	c.Locals(LocalClaims, claims)
	c.SetUserContext(WithUserID(c.UserContext(), user.ID))
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, ErrTokenRevoked):
		return "Token has been revoked"
	default:
		return "Invalid token"
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(LocalUser).(*models.User)
	return user, ok && user != nil
}

// ViewerID returns the authenticated user's id, or 0 for anonymous viewers.
func ViewerID(c *fiber.Ctx) uint {
	if id, ok := c.Locals(LocalUserID).(uint); ok {
		return id
	}
	return 0
}

// AdminRequired rejects non-admin users with 403. It must run after Required.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Access token is required"))
		}
		if !user.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}
