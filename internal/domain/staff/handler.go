package staff

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dcclinic/clinic/internal/platform/apperr"
	"github.com/dcclinic/clinic/internal/platform/auth"
	"github.com/dcclinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Any authenticated user can read their own profile.
	api.GET("/profiles/me", h.GetMyProfile)

	readGroup := api.Group("", auth.RequireRole(auth.CapAdmin, auth.CapDoctor, auth.CapNurse))
	readGroup.GET("/profiles", h.ListProfiles)
	readGroup.GET("/profiles/:id", h.GetProfile)

	adminGroup := api.Group("", auth.RequireRole(auth.CapAdmin))
	adminGroup.POST("/profiles", h.CreateProfile)
	adminGroup.PUT("/profiles/:id", h.UpdateProfile)
	adminGroup.DELETE("/profiles/:id", h.DeactivateProfile)
}

func (h *Handler) CreateProfile(c echo.Context) error {
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateProfile(c.Request().Context(), &p); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetProfile(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetMyProfile(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	p, err := h.svc.GetByUserID(c.Request().Context(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListProfiles(c echo.Context) error {
	pg := pagination.FromContext(c)
	kind := ProfileKind(c.QueryParam("kind"))
	if kind == "" {
		kind = KindPatient
	}
	items, total, err := h.svc.ListByKind(c.Request().Context(), kind, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdateProfile(c.Request().Context(), &p); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeactivateProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeactivateProfile(c.Request().Context(), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
