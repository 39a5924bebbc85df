package scheduling

import (
	"context"
	"net/http"
	"time"

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
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/:id", h.GetAppointment)

	patientGroup := api.Group("", auth.RequireRole(auth.CapPatient))
	patientGroup.POST("/appointments", h.BookAppointment)
	patientGroup.DELETE("/appointments/:id", h.CancelAppointment)

	nurseGroup := api.Group("", auth.RequireRole(auth.CapNurse))
	nurseGroup.PATCH("/appointments/:id/confirm", h.ConfirmAppointment)
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

type bookRequest struct {
	ScheduledTime time.Time `json:"scheduled_time"`
	Reason        string    `json:"reason"`
}

func (h *Handler) BookAppointment(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a := &Appointment{
		PatientID:     caller.ProfileID,
		ScheduledTime: req.ScheduledTime,
		Reason:        req.Reason,
	}
	if err := h.svc.Book(c.Request().Context(), a); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// ListAppointments scopes results to the caller's role: patients see their own
// bookings, nurses the unconfirmed queue, doctors their confirmed but not yet
// examined appointments.
func (h *Handler) ListAppointments(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	var (
		items []*Appointment
		total int
	)
	switch caller.Kind {
	case "patient":
		items, total, err = h.svc.ListByPatient(ctx, caller.ProfileID, pg.Limit, pg.Offset)
	case "doctor":
		items, total, err = h.svc.ListPendingByDoctor(ctx, caller.ProfileID, pg.Limit, pg.Offset)
	default:
		items, total, err = h.svc.ListUnconfirmed(ctx, pg.Limit, pg.Offset)
	}
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type confirmRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
}

func (h *Handler) ConfirmAppointment(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Confirm(c.Request().Context(), id, req.DoctorID, caller.ProfileID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Cancel(c.Request().Context(), id, caller.ProfileID); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
