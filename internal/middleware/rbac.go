package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/response"
)

// RequireRole allows the request when the token's role is one of roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return requireRole(response.ErrForbidden, roles...)
}

// RequireStaff allows admins, advisors and lecturers.
func RequireStaff() gin.HandlerFunc {
	return requireRole(response.ErrStaffAccessOnly, model.StaffRoles...)
}

// RequireStudent allows student tokens only.
func RequireStudent() gin.HandlerFunc {
	return requireRole(response.ErrStudentAccessOnly, model.RoleStudent)
}

func requireRole(code response.ErrCode, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			_ = c.Error(errNoClaims)
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if !slices.Contains(roles, claims.Role) {
			response.AbortFail(c, http.StatusForbidden, code)
			return
		}

		c.Next()
	}
}
