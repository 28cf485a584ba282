package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	userIDKey    = "user_id"
	usernameKey  = "username"
	tokenIDKey   = "token_id"
	expiresAtKey = "token_expires_at"
)

// TokenChecker is satisfied by *cache.RedisClient.
type TokenChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

type JWTConfig struct {
	Secret string
	// Revocations is consulted for signed-out tokens when set.
	Revocations TokenChecker
}

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

var errTokenRevoked = errors.New("token has been revoked")

// NewJWTAuth rejects requests without a valid bearer token.
func NewJWTAuth(cfg *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := cfg.authenticate(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// NewOptionalJWTAuth identifies the caller when a valid token is present and
// lets the request through as anonymous otherwise.
func NewOptionalJWTAuth(cfg *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := cfg.authenticate(c.Request.Context(), tokenString); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

func (cfg *JWTConfig) authenticate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := ParseToken(tokenString, cfg.Secret)
	if err != nil {
		return nil, err
	}

	if cfg.Revocations != nil && claims.ID != "" {
		revoked, err := cfg.Revocations.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, errTokenRevoked
		}
	}

	return claims, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setIdentity(c *gin.Context, claims *Claims) {
	c.Set(userIDKey, claims.UserID)
	c.Set(usernameKey, claims.Username)
	c.Set(tokenIDKey, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(expiresAtKey, claims.ExpiresAt.Time)
	}
}

// GetUserID returns the authenticated user id, or "" for anonymous requests.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetUsername returns the username carried by the token, or "".
func GetUsername(c *gin.Context) string {
	return c.GetString(usernameKey)
}

// GetToken returns the id and expiry of the token the request carried.
func GetToken(c *gin.Context) (string, time.Time) {
	return c.GetString(tokenIDKey), c.GetTime(expiresAtKey)
}

// GenerateToken signs an HS256 token for the user that expires after expire.
func GenerateToken(userID, username, secret string, expire time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user")
	}
	return claims, nil
}
