package request

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/ivisit/api/internal/platform/auth"
)

// httpError maps flow errors onto status codes: bad input is the caller's
// fault, a missing row is 404, anything else is a server-side failure.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, pgx.ErrNoRows):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

type Handler struct {
	store        *Store
	orchestrator *Orchestrator
	handlers     *Handlers
	sessions     *Sessions
}

func NewHandler(store *Store, orchestrator *Orchestrator, handlers *Handlers, sessions *Sessions) *Handler {
	return &Handler{store: store, orchestrator: orchestrator, handlers: handlers, sessions: sessions}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/requests", h.Initiate)
	g.POST("/requests/:id/complete", h.Complete)
	g.POST("/requests/actions/:kind", h.Action)
	g.GET("/requests", h.ListActive)
	g.GET("/requests/active", h.GetActive)
	g.GET("/requests/:id", h.Get)
	g.GET("/requests/:id/topics", h.Topics)
	g.GET("/requests/sessions", h.Sessions)
}

type initiateRequest struct {
	ServiceType ServiceType `json:"service_type"`
	HospitalID  uuid.UUID   `json:"hospital_id"`
}

func (h *Handler) Initiate(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	var body initiateRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req, err := h.orchestrator.Initiate(c.Request().Context(), InitiateInput{
		ServiceType: body.ServiceType,
		HospitalID:  body.HospitalID,
		UserID:      r.UserID,
		Name:        r.Name,
		Phone:       r.Phone,
	})
	if err != nil {
		return httpError(err)
	}
	if req == nil {
		// Another initiation of this type is in flight; not an error.
		return c.JSON(http.StatusAccepted, map[string]string{
			"result": "ignored",
			"reason": "a request of this type is already in flight",
		})
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) Complete(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	if err := h.orchestrator.Complete(c.Request().Context(), r.UserID, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Action(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	kind, err := ParseActionKind(c.Param("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.handlers.Execute(c.Request().Context(), r.UserID, kind); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) ListActive(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	requests, err := h.store.ListActive(c.Request().Context(), r.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, requests)
}

func (h *Handler) GetActive(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	serviceType := ServiceType(c.QueryParam("service_type"))
	if !serviceType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "service_type must be ambulance or bed")
	}

	req, err := h.store.GetActive(c.Request().Context(), r.UserID, serviceType)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if req == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no active request")
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) Get(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	req, err := h.store.Get(c.Request().Context(), c.Param("id"))
	if err == pgx.ErrNoRows {
		return echo.NewHTTPError(http.StatusNotFound, "request not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if req.UserID != r.UserID {
		return echo.NewHTTPError(http.StatusNotFound, "request not found")
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) Topics(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	req, err := h.store.Get(c.Request().Context(), c.Param("id"))
	if err == pgx.ErrNoRows {
		return echo.NewHTTPError(http.StatusNotFound, "request not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if req.UserID != r.UserID {
		return echo.NewHTTPError(http.StatusNotFound, "request not found")
	}
	return c.JSON(http.StatusOK, h.store.Topics(req))
}

func (h *Handler) Sessions(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	return c.JSON(http.StatusOK, map[string]*Session{
		"ambulance_trip": h.sessions.Get(r.UserID, ServiceAmbulance),
		"bed_booking":    h.sessions.Get(r.UserID, ServiceBed),
	})
}
