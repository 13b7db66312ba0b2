package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRole(role string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), UserRoleKey, role)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestHasPermission_Matrix(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleAdmin, PermBillingCancel, true},
		{RoleAdmin, PermBillingEdit, true},
		{RoleAdmin, PermMastersEdit, true},
		{RoleOperator, PermBillingCreate, true},
		{RoleOperator, PermBillingView, true},
		{RoleOperator, PermBillingEdit, false},
		{RoleOperator, PermBillingCancel, false},
		{RoleOperator, PermMastersView, true},
		{RoleOperator, PermMastersEdit, false},
		{RoleDoctor, PermOPDView, true},
		{RoleDoctor, PermOPDEdit, true},
		{RoleDoctor, PermConsultationView, true},
		{RoleDoctor, PermConsultationEdit, true},
		{RoleAdmin, PermConsultationView, false},
		{RoleOperator, PermConsultationEdit, false},
		{RoleDoctor, PermBillingView, false},
		{RoleDoctor, PermPatientCreate, false},
		{"NURSE", PermOPDView, false},
	}

	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.permission); got != tt.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.role, tt.permission, got, tt.want)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleDoctor, RoleOperator} {
		if !ValidRole(role) {
			t.Errorf("expected %s to be valid", role)
		}
	}
	if ValidRole("SUPERUSER") {
		t.Error("expected SUPERUSER to be invalid")
	}
	if ValidRole("") {
		t.Error("expected empty role to be invalid")
	}
}

func TestRequirePermission_Allowed(t *testing.T) {
	c := contextWithRole(RoleOperator)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := RequirePermission(PermBillingCreate)
	h := mw(handler)
	if err := h(c); err != nil {
		t.Fatalf("expected operator to create bills, got %v", err)
	}
}

func TestRequirePermission_Denied(t *testing.T) {
	c := contextWithRole(RoleOperator)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := RequirePermission(PermBillingCancel)
	h := mw(handler)
	err := h(c)

	if err == nil {
		t.Fatal("expected operator to be denied billing:cancel")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
}

func TestRequirePermission_NoRole(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := RequirePermission(PermOPDView)
	h := mw(handler)
	err := h(c)

	if err == nil {
		t.Fatal("expected error for missing role")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", httpErr.Code)
	}
}

func TestRequirePermission_AnyOf(t *testing.T) {
	c := contextWithRole(RoleDoctor)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	// Doctor lacks billing:view but holds opd:view
	mw := RequirePermission(PermBillingView, PermOPDView)
	h := mw(handler)
	if err := h(c); err != nil {
		t.Fatalf("expected any-of match to pass, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	c := contextWithRole(RoleAdmin)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := RequireRole(RoleAdmin)
	h := mw(handler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c = contextWithRole(RoleDoctor)
	h = RequireRole(RoleAdmin)(handler)
	err := h(c)
	if err == nil {
		t.Fatal("expected doctor to be denied admin route")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
}
