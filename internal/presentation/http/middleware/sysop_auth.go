package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/matchdaymedia/leaguedesk-go/pkg/config"
)

const sysopTokenLifetime = 12 * time.Hour

// sysopClaims are the JWT claims carried by a sysop session token
type sysopClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// VerifySysopPassword checks a login attempt against SYSOP_PASSWORD. The
// configured value may be a bcrypt hash or, for local development, plain text.
func VerifySysopPassword(attempt string) bool {
	configured := config.SysopPassword
	if configured == "" {
		return false
	}
	if strings.HasPrefix(configured, "$2a$") || strings.HasPrefix(configured, "$2b$") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(attempt)) == nil
	}
	return attempt == configured
}

// IssueSysopToken mints a signed session token for the sysop dashboard
func IssueSysopToken() (string, error) {
	if config.JWTSecret == "" {
		return "", fmt.Errorf("JWT_SECRET is not configured")
	}
	now := time.Now()
	claims := sysopClaims{
		Role: "sysop",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "leaguedesk",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sysopTokenLifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// ValidateSysopToken parses and verifies a sysop session token
func ValidateSysopToken(tokenString string) error {
	claims := &sysopClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(config.JWTSecret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid || claims.Role != "sysop" {
		return fmt.Errorf("invalid sysop token")
	}
	return nil
}

// SysOpAuth guards the sysop API. Requests must carry a bearer token minted
// by the login endpoint. When no password is configured the dashboard is
// open, which mirrors a fresh local install.
func SysOpAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.SysopPassword == "" {
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if err := ValidateSysopToken(strings.TrimPrefix(auth, "Bearer ")); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Next()
	}
}
