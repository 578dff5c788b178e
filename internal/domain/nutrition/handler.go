package nutrition

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nutrilab/nutrilab/internal/platform/apperr"
	"github.com/nutrilab/nutrilab/internal/platform/auth"
)

type Handler struct {
	svc           *Service
	redirectDelay time.Duration
}

func NewHandler(svc *Service, redirectDelay time.Duration) *Handler {
	return &Handler{svc: svc, redirectDelay: redirectDelay}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/requests", h.ListOwn)
	api.POST("/patient-information", h.SubmitIntake)

	doctor := api.Group("/doctor", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/pending-requests", h.ListPending)
	doctor.POST("/requests/:id/review", h.Review)
	doctor.POST("/requests/:id/approve", h.Approve)
	doctor.POST("/requests/:id/reject", h.Reject)
}

func identity(c echo.Context) *auth.Identity {
	id, _ := auth.IdentityFromContext(c.Request().Context())
	return id
}

func (h *Handler) SubmitIntake(c echo.Context) error {
	id := identity(c)
	if id == nil {
		return apperr.HTTP(apperr.Unauthenticated())
	}
	var form IntakeForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctl := NewIntakeController(h.svc.Submit, h.redirectDelay)
	res, err := ctl.Submit(c.Request().Context(), id, &form)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListOwn(c echo.Context) error {
	statuses, err := ParseStatusFilter(c.QueryParam("status"))
	if err != nil {
		return apperr.HTTP(err)
	}
	items, err := h.svc.ListOwn(c.Request().Context(), identity(c), statuses)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListPending(c echo.Context) error {
	items, err := h.svc.ListPending(c.Request().Context(), identity(c))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Review(c echo.Context) error  { return h.transition(c, h.svc.Review) }
func (h *Handler) Approve(c echo.Context) error { return h.transition(c, h.svc.Approve) }
func (h *Handler) Reject(c echo.Context) error  { return h.transition(c, h.svc.Reject) }

type transitionFunc func(ctx context.Context, id *auth.Identity, requestID uuid.UUID) (*NutritionRequest, error)

func (h *Handler) transition(c echo.Context, fn transitionFunc) error {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.HTTP(apperr.NotFound("nutrition request", c.Param("id")))
	}
	rec, err := fn(c.Request().Context(), identity(c), requestID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}
