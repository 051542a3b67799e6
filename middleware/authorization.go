package middleware

import (
	"net/http"

	"p9e.in/roofline/config"
	"p9e.in/roofline/models"
)

// RequirePermission gates a route on a "resource:action" permission.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r)
			if claims == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// Get user with role information
			var user models.User
			if err := config.DB.Preload("RoleModel.Permissions").First(&user, "id = ?", claims.UserID).Error; err != nil {
				http.Error(w, "user not found", http.StatusUnauthorized)
				return
			}

			// Admins have all permissions
			if claims.Role == "admin" {
				next.ServeHTTP(w, r)
				return
			}

			if !user.HasPermission(permission) {
				http.Error(w, "insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission checks if user has any of the provided permissions
func RequireAnyPermission(permissions []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r)
			if claims == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			var user models.User
			if err := config.DB.Preload("RoleModel.Permissions").First(&user, "id = ?", claims.UserID).Error; err != nil {
				http.Error(w, "user not found", http.StatusUnauthorized)
				return
			}

			if claims.Role == "admin" {
				next.ServeHTTP(w, r)
				return
			}

			for _, p := range permissions {
				if user.HasPermission(p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "insufficient permissions", http.StatusForbidden)
		})
	}
}
