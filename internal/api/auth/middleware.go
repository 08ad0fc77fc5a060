// Package auth resolves the caller identity of API requests.
//
// Tokens are issued by an external identity service and signed with a shared
// HMAC secret. The token subject is the opaque owner id that scopes projects.
package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"pulsewatch/internal/api/types"
	"pulsewatch/internal/config"
)

const claimsKey = "auth_claims"

// Middleware rejects requests without a valid bearer token and stores the
// verified claims in the gin context.
func Middleware(cfg config.JWTConfig) gin.HandlerFunc {
	secret := []byte(cfg.Secret)

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			types.AbortWithError(c, types.AuthenticationError("Authorization header required"))
			return
		}

		// Check Bearer prefix
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			types.AbortWithError(c, types.AuthenticationError("Invalid authorization header format"))
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := parser.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			types.AbortWithError(c, types.AuthenticationError("Invalid or expired token"))
			return
		}
		if claims.Subject == "" {
			types.AbortWithError(c, types.AuthenticationError("Token has no subject"))
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Claims returns the verified token claims, or nil outside Middleware.
func Claims(c *gin.Context) *jwt.RegisteredClaims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.RegisteredClaims)
	return claims
}

// OwnerID returns the caller identity of an authenticated request.
func OwnerID(c *gin.Context) string {
	if claims := Claims(c); claims != nil {
		return claims.Subject
	}
	return ""
}
