package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHasCapability(t *testing.T) {
	if !HasCapability([]string{CapDoctor}, CapDoctor) {
		t.Error("doctor should hold doctor capability")
	}
	if HasCapability([]string{CapNurse}, CapDoctor) {
		t.Error("nurse should not hold doctor capability")
	}
	if !HasCapability([]string{CapAdmin}, CapNurse) {
		t.Error("admin should hold every capability")
	}
	if HasCapability(nil, CapPatient) {
		t.Error("empty role set should hold nothing")
	}
}

func TestCheck(t *testing.T) {
	ctx := WithIdentity(context.Background(), "u1", []string{CapNurse})
	if !Check(ctx, CapNurse) {
		t.Error("expected nurse check to pass")
	}
	if Check(ctx, CapDoctor) {
		t.Error("expected doctor check to fail")
	}
	if Check(context.Background(), CapNurse) {
		t.Error("expected check on empty context to fail")
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetRequest(req.WithContext(WithIdentity(req.Context(), "u1", []string{CapDoctor})))

	if err := RequireRole(CapDoctor)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetRequest(req.WithContext(WithIdentity(req.Context(), "u1", []string{CapPatient})))

	err := RequireRole(CapDoctor)(handler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 HTTPError, got %v", err)
	}
}
