package user

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/nutrilab/nutrilab/internal/platform/apperr"
	"github.com/nutrilab/nutrilab/internal/platform/auth"
	"github.com/nutrilab/nutrilab/pkg/pagination"
)

const maxWebhookBody = 1 << 20

// SignatureVerifier checks an inbound webhook. *webhook.Verifier
// implements it.
type SignatureVerifier interface {
	Verify(h http.Header, body []byte) error
}

type Handler struct {
	svc      *Service
	verifier SignatureVerifier
	logger   zerolog.Logger
}

// NewHandler builds the handler. A nil verifier rejects every webhook.
func NewHandler(svc *Service, verifier SignatureVerifier, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, verifier: verifier, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group, webhooks *echo.Group) {
	api.GET("/me", h.Me)

	adminOnly := auth.RequireRole(auth.RoleAdmin)
	api.GET("/admin/users", h.List, adminOnly)
	api.PUT("/admin/users/:id/role", h.SetRole, adminOnly)

	webhooks.POST("/clerk", h.ClerkWebhook)
}

func identity(c echo.Context) *auth.Identity {
	id, _ := auth.IdentityFromContext(c.Request().Context())
	return id
}

func (h *Handler) Me(c echo.Context) error {
	me, err := h.svc.Me(c.Request().Context(), identity(c))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, me)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), identity(c), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) SetRole(c echo.Context) error {
	var in SetRoleInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, err := h.svc.SetRole(c.Request().Context(), identity(c), c.Param("id"), &in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ClerkWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	if h.verifier == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "webhook verification not configured")
	}
	if err := h.verifier.Verify(c.Request().Header, body); err != nil {
		h.logger.Warn().Err(err).Str("remote_ip", c.RealIP()).Msg("rejected webhook")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook signature")
	}

	var ev ClerkEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid webhook payload")
	}
	res, err := h.svc.HandleEvent(c.Request().Context(), &ev)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}
