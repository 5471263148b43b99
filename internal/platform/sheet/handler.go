package sheet

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/ivisit/api/internal/platform/auth"
)

// Handler keeps one Controller per user so a device can report its geometry
// and mode and read back the snap points it should honor.
type Handler struct {
	signaler Signaler

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewHandler(signaler Signaler) *Handler {
	return &Handler{signaler: signaler, controllers: make(map[string]*Controller)}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.PUT("/sheet/geometry", h.SetGeometry)
	g.PUT("/sheet/mode", h.SetMode)
	g.POST("/sheet/change", h.Change)
	g.GET("/sheet", h.Get)
}

func (h *Handler) controller(c echo.Context) (*Controller, error) {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	ctrl, ok := h.controllers[r.UserID]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusConflict, "no geometry reported yet")
	}
	return ctrl, nil
}

func (h *Handler) SetGeometry(c echo.Context) error {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	var g Geometry
	if err := c.Bind(&g); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if ctrl, ok := h.controllers[r.UserID]; ok {
		if err := ctrl.SetGeometry(g); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, ctrl.Snapshot())
	}

	ctrl, err := NewController(g, h.signaler)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.controllers[r.UserID] = ctrl
	return c.JSON(http.StatusOK, ctrl.Snapshot())
}

type modeRequest struct {
	Mode Mode `json:"mode"`
}

func (h *Handler) SetMode(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}

	var req modeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.SetMode(req.Mode); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, ctrl.Snapshot())
}

type changeRequest struct {
	Index int `json:"index"`
}

func (h *Handler) Change(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}

	var req changeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.HandleSheetChange(req.Index); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) Get(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctrl.Snapshot())
}
