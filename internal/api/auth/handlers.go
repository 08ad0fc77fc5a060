package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pulsewatch/internal/api/types"
)

// IdentityResponse describes the caller behind the bearer token.
type IdentityResponse struct {
	OwnerID   string     `json:"owner_id"`
	Issuer    string     `json:"issuer,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Me handles GET /api/v1/auth/me
//
// Returns the identity resolved from the token. Useful for clients to verify
// their credentials before managing projects.
func Me(c *gin.Context) {
	claims := Claims(c)
	if claims == nil {
		types.AbortWithError(c, types.AuthenticationError("Not authenticated"))
		return
	}

	resp := IdentityResponse{
		OwnerID: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.UTC()
		resp.ExpiresAt = &exp
	}

	c.JSON(http.StatusOK, types.SuccessResponse(resp))
}
