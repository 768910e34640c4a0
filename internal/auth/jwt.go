// Package auth guards the agent's API with bearer tokens. The platform's
// own session/credential bootstrap lives in the automation gateway; this
// only protects who may drive the agent.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates API bearer tokens signed with the shared secret
type Verifier struct {
	secret []byte
}

// NewVerifier creates a new token verifier. An empty secret disables
// verification entirely (local development).
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Enabled reports whether token verification is active
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// VerifyToken parses and validates a bearer token, returning its subject
func (v *Verifier) VerifyToken(tokenString string) (string, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to verify token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}
	subject, _ := claims["sub"].(string)
	return subject, nil
}

// Middleware returns a gin middleware that rejects requests without a valid
// bearer token. A no-op when verification is disabled.
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !v.Enabled() {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		subject, err := v.VerifyToken(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("subject", subject)
		c.Next()
	}
}
