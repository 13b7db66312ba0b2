package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Roles recognized by the system.
const (
	RoleAdmin    = "ADMIN"
	RoleDoctor   = "DOCTOR"
	RoleOperator = "OPERATOR"
)

// Permissions gate individual operations. Handlers declare the permission
// they need; the role matrix below decides who holds it.
const (
	PermPatientCreate = "patient:create"
	PermPatientView   = "patient:view"
	PermPatientEdit   = "patient:edit"

	PermOPDCreate = "opd:create"
	PermOPDView   = "opd:view"
	PermOPDEdit   = "opd:edit"

	PermBillingCreate = "billing:create"
	PermBillingView   = "billing:view"
	PermBillingEdit   = "billing:edit"
	PermBillingCancel = "billing:cancel"

	PermConsultationView = "consultation:view"
	PermConsultationEdit = "consultation:edit"

	PermMastersView = "masters:view"
	PermMastersEdit = "masters:edit"
)

// rolePermissions maps each role to the permissions it holds. Operators run
// the front desk but cannot edit or cancel bills once raised; doctors work
// the queue and write clinical notes. Consultation notes belong to doctors
// alone; admins stay out of the clinical record.
var rolePermissions = map[string][]string{
	RoleAdmin: {
		PermPatientCreate, PermPatientView, PermPatientEdit,
		PermOPDCreate, PermOPDView, PermOPDEdit,
		PermBillingCreate, PermBillingView, PermBillingEdit, PermBillingCancel,
		PermMastersView, PermMastersEdit,
	},
	RoleDoctor: {
		PermOPDView, PermOPDEdit,
		PermConsultationView, PermConsultationEdit,
	},
	RoleOperator: {
		PermPatientCreate, PermPatientView, PermPatientEdit,
		PermOPDCreate, PermOPDView, PermOPDEdit,
		PermBillingCreate, PermBillingView,
		PermMastersView,
	},
}

// ValidRole reports whether role is one of the recognized roles.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// PermissionsForRole returns the permissions held by role.
func PermissionsForRole(role string) []string {
	return rolePermissions[role]
}

// HasPermission reports whether role holds the given permission.
func HasPermission(role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// RequirePermission returns middleware that rejects callers whose role holds
// none of the given permissions.
func RequirePermission(permissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			for _, required := range permissions {
				if HasPermission(role, required) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required permission: %s", strings.Join(permissions, " or ")))
		}
	}
}

// RequireRole returns middleware that checks if the user has at least one of
// the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole := RoleFromContext(c.Request().Context())
			for _, required := range roles {
				if userRole == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
