package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-analysis/internal/models"
	appErrors "github.com/noah-isme/sma-result-analysis/pkg/errors"
	"github.com/noah-isme/sma-result-analysis/pkg/response"
)

// RoleSelf grants access when the caller owns the addressed resource.
const RoleSelf = "SELF"

// SelfMatcher reports whether claims own the resource addressed by the request.
type SelfMatcher func(c *gin.Context, claims *models.JWTClaims) bool

// StudentProfileReader resolves the student profile of a user account.
type StudentProfileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

// RBAC enforces role-based access control; SELF matches the :id param against the user id.
func RBAC(allowed ...string) gin.HandlerFunc {
	return RBACWithSelf(ParamMatchesUser("id"), allowed...)
}

// RBACWithSelf is RBAC with a custom ownership check for SELF.
func RBACWithSelf(self SelfMatcher, allowed ...string) gin.HandlerFunc {
	allowSelf := false
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, a := range allowed {
		if a == RoleSelf {
			allowSelf = true
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}
		if allowSelf && self != nil && self(c, claims) {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// AdminRoles lists every administrative role followed by extra.
func AdminRoles(extra ...string) []string {
	roles := []string{string(models.RoleSuperAdmin), string(models.RoleAdmin)}
	return append(roles, extra...)
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

// ParamMatchesUser matches a path param against the caller's user id.
func ParamMatchesUser(param string) SelfMatcher {
	return func(c *gin.Context, claims *models.JWTClaims) bool {
		target := c.Param(param)
		return target != "" && target == claims.UserID
	}
}

// StudentMatchesUser matches a student id path param against the caller's
// own student profile.
func StudentMatchesUser(students StudentProfileReader, param string) SelfMatcher {
	return func(c *gin.Context, claims *models.JWTClaims) bool {
		target := c.Param(param)
		if target == "" || claims.Role != models.RoleStudent {
			return false
		}
		profile, err := students.FindByUserID(c.Request.Context(), claims.UserID)
		if err != nil || profile == nil {
			return false
		}
		return profile.ID == target
	}
}
