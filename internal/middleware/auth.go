package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/osvaldoandrade/imagegenie/pkg/auth"
	"github.com/osvaldoandrade/imagegenie/pkg/auth/static"
	"github.com/osvaldoandrade/imagegenie/pkg/config"

	"github.com/gin-gonic/gin"
)

const claimsKey = "userClaims"

// AuthMiddleware checks the local bearer token. In dev with no token configured
// every caller is treated as the local operator.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	token := strings.TrimSpace(cfg.LocalToken)
	if token == "" && cfg.Env == "dev" {
		open := &auth.Claims{Subject: "local", Scopes: []string{static.ScopeControl}}
		return func(c *gin.Context) {
			c.Set(claimsKey, open)
			c.Next()
		}
	}
	validator, err := static.NewValidator(token, "local")
	if err != nil {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "local token not configured"})
		}
	}
	return func(c *gin.Context) {
		claims, err := validateBearer(validator, c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireScope rejects callers whose claims lack scope.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(claimsKey)
		claims, _ := v.(*auth.Claims)
		if !claims.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing scope " + scope})
			return
		}
		c.Next()
	}
}

func validateBearer(validator auth.Validator, authHeader string) (*auth.Claims, error) {
	if strings.TrimSpace(authHeader) == "" {
		return nil, fmt.Errorf("missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, fmt.Errorf("invalid Authorization format")
	}
	return validator.Validate(parts[1])
}
