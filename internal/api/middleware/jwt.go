package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"greenledger.io/greenledger/internal/domain"
)

// ErrJWTSigningKeyMissing is returned when tokens cannot be verified.
var ErrJWTSigningKeyMissing = errors.New("jwt signing key is not configured")

// JWTClaims defines custom JWT claims for GreenLedger.
type JWTClaims struct {
	UserID         string   `json:"user_id"`
	Username       string   `json:"username,omitempty"`
	OrganizationID int64    `json:"organization_id"`
	Role           string   `json:"role"`
	Permissions    []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Actor returns the domain identity carried by the claims.
func (c *JWTClaims) Actor() domain.Actor {
	return domain.Actor{
		UserID:         c.UserID,
		OrganizationID: c.OrganizationID,
		Role:           domain.Role(c.Role),
	}
}

// JWTConfig holds JWT signing configuration.
type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	ExpiresIn  time.Duration
}

// Identity is the subject of a new token.
type Identity struct {
	UserID         string
	Username       string
	OrganizationID int64
	Role           domain.Role
	// Permissions defaults to the role's permissions when nil.
	Permissions []string
}

// GenerateToken creates a signed JWT for the given identity.
func GenerateToken(cfg JWTConfig, id Identity) (string, time.Time, error) {
	if len(cfg.SigningKey) == 0 {
		return "", time.Time{}, ErrJWTSigningKeyMissing
	}
	now := time.Now()
	expiresAt := now.Add(cfg.ExpiresIn)

	perms := id.Permissions
	if perms == nil {
		perms = domain.PermissionsFor(id.Role)
	}

	claims := JWTClaims{
		UserID:         id.UserID,
		Username:       id.Username,
		OrganizationID: id.OrganizationID,
		Role:           string(id.Role),
		Permissions:    perms,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    cfg.Issuer,
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken parses and verifies a signed token.
func (cfg JWTConfig) ValidateToken(tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if len(cfg.SigningKey) == 0 {
			return nil, ErrJWTSigningKeyMissing
		}
		return cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id", jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}

// JWTAuth returns a Gin middleware that validates Bearer tokens and populates context.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "invalid authorization header format",
			})
			return
		}

		claims, err := cfg.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": msg,
			})
			return
		}

		// Populate context for downstream handlers.
		c.Set(string(ctxKeyUserID), claims.UserID)
		c.Set("permissions", claims.Permissions)
		c.Request = c.Request.WithContext(SetActorContext(c.Request.Context(), claims.Actor()))

		c.Next()
	}
}
