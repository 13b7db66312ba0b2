package masters

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medidesk/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/masters")
	g.GET("/service-charges", h.Charges, auth.RequirePermission(auth.PermMastersView))
	g.GET("/service-charges/search", h.SearchCharges, auth.RequirePermission(auth.PermMastersView))
	g.GET("/service-charges/:id", h.GetCharge, auth.RequirePermission(auth.PermMastersView))
	g.POST("/service-charges", h.CreateCharge, auth.RequirePermission(auth.PermMastersEdit))
	g.PUT("/service-charges/:id", h.UpdateCharge, auth.RequirePermission(auth.PermMastersEdit))
	g.DELETE("/service-charges/:id", h.DeleteCharge, auth.RequirePermission(auth.PermMastersEdit))
	g.GET("/service-categories", h.Categories, auth.RequirePermission(auth.PermMastersView))
}

func (h *Handler) Charges(c echo.Context) error {
	charges, err := h.svc.Charges(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list service charges")
	}
	return c.JSON(http.StatusOK, charges)
}

func (h *Handler) SearchCharges(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	charges, err := h.svc.SearchCharges(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to search service charges")
	}
	return c.JSON(http.StatusOK, charges)
}

func (h *Handler) GetCharge(c echo.Context) error {
	id, err := parseChargeID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	charge, err := h.svc.Charge(c.Request().Context(), id)
	if err != nil {
		return mapMastersError(err)
	}
	return c.JSON(http.StatusOK, charge)
}

func (h *Handler) CreateCharge(c echo.Context) error {
	var req ChargeInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	charge, err := h.svc.CreateCharge(c.Request().Context(), &req)
	if err != nil {
		return mapMastersError(err)
	}
	return c.JSON(http.StatusCreated, charge)
}

func (h *Handler) UpdateCharge(c echo.Context) error {
	id, err := parseChargeID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req ChargeInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	charge, err := h.svc.UpdateCharge(c.Request().Context(), id, &req)
	if err != nil {
		return mapMastersError(err)
	}
	return c.JSON(http.StatusOK, charge)
}

func (h *Handler) DeleteCharge(c echo.Context) error {
	id, err := parseChargeID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	deleted, err := h.svc.DeleteCharge(c.Request().Context(), id)
	if err != nil {
		return mapMastersError(err)
	}
	return c.JSON(http.StatusOK, deleted)
}

func (h *Handler) Categories(c echo.Context) error {
	cats, err := h.svc.Categories(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list service categories")
	}
	return c.JSON(http.StatusOK, cats)
}

func parseChargeID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func mapMastersError(err error) error {
	switch {
	case errors.Is(err, ErrChargeNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCategoryNotFound),
		errors.Is(err, ErrInvalidCharge):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
