package prescribing

import (
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRegisterRoutes(t *testing.T) {
	e := echo.New()
	h := NewHandler(nil, nil)
	h.RegisterRoutes(e.Group("/api/v1"))

	want := map[string]bool{
		"GET /api/v1/prescriptions":     false,
		"GET /api/v1/prescriptions/:id": false,
		"POST /api/v1/prescriptions":    false,
		"GET /api/v1/medical-histories": false,
	}
	for _, r := range e.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, seen := range want {
		if !seen {
			t.Errorf("route %s not registered", route)
		}
	}
}
