package report

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nutrilab/nutrilab/internal/platform/apperr"
	"github.com/nutrilab/nutrilab/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reports", h.ListOwn)
	api.GET("/reports/:id", h.Get)

	doctorOnly := auth.RequireRole(auth.RoleDoctor)
	api.POST("/reports", h.Create, doctorOnly)
	api.POST("/reports/:id/approve", h.Approve, doctorOnly)
	api.GET("/doctor/reports/:id", h.Get, doctorOnly)
}

func identity(c echo.Context) *auth.Identity {
	id, _ := auth.IdentityFromContext(c.Request().Context())
	return id
}

// reportID treats a malformed id like an unknown one.
func reportID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("report", c.Param("id"))
	}
	return id, nil
}

func (h *Handler) Get(c echo.Context) error {
	if identity(c) == nil {
		return apperr.HTTP(apperr.Unauthenticated())
	}
	id, err := reportID(c)
	if err != nil {
		return apperr.HTTP(err)
	}
	rp, err := h.svc.Get(c.Request().Context(), identity(c), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, rp)
}

func (h *Handler) ListOwn(c echo.Context) error {
	items, err := h.svc.ListOwn(c.Request().Context(), identity(c))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Approve(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return apperr.HTTP(err)
	}
	rp, err := h.svc.Approve(c.Request().Context(), identity(c), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, rp)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rp, err := h.svc.Create(c.Request().Context(), identity(c), &in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, rp)
}
