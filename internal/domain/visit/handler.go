package visit

import (
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/ivisit/api/internal/platform/auth"
	"github.com/ivisit/api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/visits", h.List)
	g.GET("/visits/:id", h.Get)
	g.PATCH("/visits/:id", h.Update)
	g.POST("/visits/:id/lifecycle", h.AdvanceLifecycle)
}

func (h *Handler) List(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	p := pagination.FromContext(c)

	visits, total, err := h.svc.ListByUser(c.Request().Context(), r.UserID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, p.Limit, p.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	v, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err == pgx.ErrNoRows {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if v.UserID != r.UserID {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Update(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	existing, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err == pgx.ErrNoRows || (err == nil && existing.UserID != r.UserID) {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var p Patch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	v, err := h.svc.Update(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

type lifecycleRequest struct {
	State LifecycleState `json:"state"`
}

// AdvanceLifecycle moves a visit forward through its lifecycle, for example
// from rating_pending to rated once the user submits a rating. Backward or
// out-of-order moves are rejected.
func (h *Handler) AdvanceLifecycle(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	existing, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err == pgx.ErrNoRows || (err == nil && existing.UserID != r.UserID) {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req lifecycleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	v, err := h.svc.AdvanceLifecycle(c.Request().Context(), c.Param("id"), req.State)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}
