package payment

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dcclinic/clinic/internal/platform/apperr"
	"github.com/dcclinic/clinic/internal/platform/auth"
	"github.com/dcclinic/clinic/pkg/pagination"
)

// Caller identifies the profile behind an authenticated request.
type Caller struct {
	ProfileID uuid.UUID
	Kind      string
}

type CallerResolver interface {
	Caller(ctx context.Context, userID string) (*Caller, error)
}

type Handler struct {
	svc     *Service
	callers CallerResolver
}

func NewHandler(svc *Service, callers CallerResolver) *Handler {
	return &Handler{svc: svc, callers: callers}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/payments", h.ListPayments)
	api.GET("/payments/:id", h.GetPayment)

	nurseGroup := api.Group("", auth.RequireRole(auth.CapNurse))
	nurseGroup.PATCH("/payments/:id", h.SettlePayment)
}

func (h *Handler) caller(c echo.Context) (*Caller, error) {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	caller, err := h.callers.Caller(c.Request().Context(), userID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusForbidden, "no profile for authenticated user")
	}
	return caller, nil
}

func (h *Handler) GetPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// ListPayments scopes results to the caller: patients see their own bills,
// staff see the unsettled queue.
func (h *Handler) ListPayments(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	var (
		items []*Payment
		total int
	)
	if caller.Kind == "patient" {
		items, total, err = h.svc.ListByPatient(ctx, caller.ProfileID, pg.Limit, pg.Offset)
	} else {
		items, total, err = h.svc.ListUnsettled(ctx, pg.Limit, pg.Offset)
	}
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type settleRequest struct {
	Fee    float64 `json:"fee"`
	Method string  `json:"payment_method"`
}

func (h *Handler) SettlePayment(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req settleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.svc.Settle(c.Request().Context(), id, caller.ProfileID, req.Fee, req.Method)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
