package stats

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dcclinic/clinic/internal/platform/apperr"
	"github.com/dcclinic/clinic/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.CapAdmin))
	g.GET("/statistics", h.GetStatistics)
}

func intParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

// GetStatistics resolves the most specific period requested: a month range
// wins over a quarter range, which wins over a year range.
func (h *Handler) GetStatistics(c echo.Context) error {
	startYear, err := intParam(c, "startYear", time.Now().Year())
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if c.QueryParam("startMonth") != "" || c.QueryParam("endMonth") != "" {
		startMonth, err := intParam(c, "startMonth", 1)
		if err != nil {
			return err
		}
		endMonth, err := intParam(c, "endMonth", 12)
		if err != nil {
			return err
		}
		items, err := h.svc.Monthly(ctx, startYear, startMonth, endMonth)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(http.StatusOK, items)
	}

	if c.QueryParam("startQuarter") != "" || c.QueryParam("endQuarter") != "" {
		startQuarter, err := intParam(c, "startQuarter", 1)
		if err != nil {
			return err
		}
		endQuarter, err := intParam(c, "endQuarter", 4)
		if err != nil {
			return err
		}
		items, err := h.svc.Quarterly(ctx, startYear, startQuarter, endQuarter)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(http.StatusOK, items)
	}

	endYear, err := intParam(c, "endYear", startYear)
	if err != nil {
		return err
	}
	items, err := h.svc.Yearly(ctx, startYear, endYear)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
