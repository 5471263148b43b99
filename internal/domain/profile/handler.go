package profile

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/ivisit/api/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/profile/medical", h.GetMedical)
	g.PUT("/profile/medical", h.SaveMedical)
	g.GET("/profile/contacts", h.ListContacts)
	g.POST("/profile/contacts", h.AddContact)
	g.DELETE("/profile/contacts/:id", h.RemoveContact)
	g.GET("/profile/preferences", h.GetPreferences)
	g.PUT("/profile/preferences", h.SavePreferences)
}

func requester(c echo.Context) (auth.Requester, error) {
	r, ok := auth.RequesterFromContext(c)
	if !ok {
		return auth.Requester{}, echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	return r, nil
}

func (h *Handler) GetMedical(c echo.Context) error {
	r, err := requester(c)
	if err != nil {
		return err
	}

	p, err := h.svc.MedicalProfileSnapshot(c.Request().Context(), r.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no medical profile saved")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SaveMedical(c echo.Context) error {
	r, err := requester(c)
	if err != nil {
		return err
	}

	var p MedicalProfile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p.UserID = r.UserID

	if err := h.svc.SaveMedicalProfile(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListContacts(c echo.Context) error {
	r, err := requester(c)
	if err != nil {
		return err
	}

	contacts, err := h.svc.EmergencyContactsSnapshot(c.Request().Context(), r.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, contacts)
}

func (h *Handler) AddContact(c echo.Context) error {
	r, err := requester(c)
	if err != nil {
		return err
	}

	var contact EmergencyContact
	if err := c.Bind(&contact); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	contact.UserID = r.UserID

	if err := h.svc.AddEmergencyContact(c.Request().Context(), &contact); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, contact)
}

func (h *Handler) RemoveContact(c echo.Context) error {
	r, err := requester(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid contact id")
	}

	err = h.svc.RemoveEmergencyContact(c.Request().Context(), r.UserID, id)
	if err == pgx.ErrNoRows {
		return echo.NewHTTPError(http.StatusNotFound, "contact not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetPreferences(c echo.Context) error {
	r, err := requester(c)
	if err != nil {
		return err
	}

	p, err := h.svc.GetPreferences(c.Request().Context(), r.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SavePreferences(c echo.Context) error {
	r, err := requester(c)
	if err != nil {
		return err
	}

	var p Preferences
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p.UserID = r.UserID

	if err := h.svc.SavePreferences(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
