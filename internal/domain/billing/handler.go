package billing

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medidesk/hms/internal/platform/auth"
	"github.com/medidesk/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/bills")
	g.POST("", h.CreateBill, auth.RequirePermission(auth.PermBillingCreate))
	g.GET("", h.ListBills, auth.RequirePermission(auth.PermBillingView))
	g.GET("/patient/:uhid", h.PatientBills, auth.RequirePermission(auth.PermBillingView))
	g.GET("/:id", h.GetBill, auth.RequirePermission(auth.PermBillingView))
	g.GET("/:id/items", h.BillItems, auth.RequirePermission(auth.PermBillingView))
	g.PUT("/:id", h.UpdateBill, auth.RequirePermission(auth.PermBillingEdit))
	g.POST("/:id/cancel", h.CancelBill, auth.RequirePermission(auth.PermBillingCancel))
}

func (h *Handler) CreateBill(c echo.Context) error {
	var req CreateInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	createdBy := auth.UsernameFromContext(c.Request().Context())

	bill, err := h.svc.CreateBill(c.Request().Context(), &req, createdBy)
	if err != nil {
		return mapBillError(err)
	}
	return c.JSON(http.StatusCreated, bill)
}

func (h *Handler) GetBill(c echo.Context) error {
	id, err := parseBillID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	bill, err := h.svc.GetBill(c.Request().Context(), id)
	if err != nil {
		return mapBillError(err)
	}
	return c.JSON(http.StatusOK, bill)
}

func (h *Handler) BillItems(c echo.Context) error {
	id, err := parseBillID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	bill, err := h.svc.GetBill(c.Request().Context(), id)
	if err != nil {
		return mapBillError(err)
	}
	return c.JSON(http.StatusOK, bill.Items)
}

func (h *Handler) ListBills(c echo.Context) error {
	pg := pagination.FromContext(c)

	var f ListFilters
	if v := c.QueryParam("from_date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from_date, expected YYYY-MM-DD")
		}
		f.FromDate = &d
	}
	if v := c.QueryParam("to_date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to_date, expected YYYY-MM-DD")
		}
		f.ToDate = &d
	}
	f.BillType = c.QueryParam("bill_type")
	f.Search = c.QueryParam("search")

	bills, total, err := h.svc.ListBills(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list bills")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(bills, total, pg.Limit, pg.Offset))
}

func (h *Handler) PatientBills(c echo.Context) error {
	uhid := c.Param("uhid")
	if uhid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "uhid is required")
	}
	pg := pagination.FromContext(c)
	bills, total, err := h.svc.PatientBills(c.Request().Context(), uhid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list patient bills")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(bills, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateBill(c echo.Context) error {
	id, err := parseBillID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req UpdateInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	bill, err := h.svc.UpdateBill(c.Request().Context(), id, &req)
	if err != nil {
		return mapBillError(err)
	}
	return c.JSON(http.StatusOK, bill)
}

type cancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func (h *Handler) CancelBill(c echo.Context) error {
	id, err := parseBillID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cancelledBy := auth.UsernameFromContext(c.Request().Context())

	cancellation, err := h.svc.CancelBill(c.Request().Context(), id, cancelledBy, req.Reason)
	if err != nil {
		return mapBillError(err)
	}
	return c.JSON(http.StatusOK, cancellation)
}

func parseBillID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func mapBillError(err error) error {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]interface{}{
			"message": "Validation failed",
			"errors":  vErr.Errors,
		})
	case errors.Is(err, ErrBillNotFound),
		errors.Is(err, ErrPatientNotFound),
		errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrOPDNotFound):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrBillCancelled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
