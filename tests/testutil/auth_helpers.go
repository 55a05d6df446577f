package testutil

import (
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"

	"github.com/Rajvansh-1/starbucks-rewards-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims carrying a role custom
// claim, shaped exactly like what the real JWT middleware produces.
func MockValidatedClaims(subject, issuer, role string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Role: role,
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID, issuer, role string) {
	claims := MockValidatedClaims(userID, issuer, role)
	c.Set("user_id", userID)
	c.Set("access_token", "mock-token")
	c.Set("validated_claims", claims)
}

// MockAuthMiddleware returns a gin middleware that authenticates every request
// as the given Auth0 subject with the given role.
func MockAuthMiddleware(auth0ID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, auth0ID, "https://test.auth0.com/", role)
		c.Next()
	}
}
