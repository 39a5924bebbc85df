package prescribing

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
	api.GET("/prescriptions", h.ListPrescriptions)
	api.GET("/prescriptions/:id", h.GetPrescription)

	doctorGroup := api.Group("", auth.RequireRole(auth.CapDoctor))
	doctorGroup.POST("/prescriptions", h.IssuePrescription)
	doctorGroup.GET("/medical-histories", h.GetPatientHistory)
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

func (h *Handler) IssuePrescription(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	var in IssueInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.svc.Issue(c.Request().Context(), caller.ProfileID, &in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c echo.Context) error {
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

// ListPrescriptions scopes results to the caller: doctors see what they
// issued, patients what was issued to them.
func (h *Handler) ListPrescriptions(c echo.Context) error {
	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	var (
		items []*Prescription
		total int
	)
	switch caller.Kind {
	case "doctor":
		items, total, err = h.svc.ListByDoctor(ctx, caller.ProfileID, pg.Limit, pg.Offset)
	case "patient":
		items, total, err = h.svc.ListByPatient(ctx, caller.ProfileID, pg.Limit, pg.Offset)
	default:
		patientID, perr := uuid.Parse(c.QueryParam("patient_id"))
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "patient_id query parameter is required")
		}
		items, total, err = h.svc.ListByPatient(ctx, patientID, pg.Limit, pg.Offset)
	}
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPatientHistory(c echo.Context) error {
	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	pg := pagination.FromContext(c)

	var from, to *time.Time
	if raw := c.QueryParam("start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date")
		}
		from = &t
	}
	if raw := c.QueryParam("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end_date")
		}
		to = &t
	}

	items, total, err := h.svc.History(c.Request().Context(), patientID, from, to, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
