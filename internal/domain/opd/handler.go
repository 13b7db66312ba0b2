package opd

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
	loc *time.Location
}

// NewHandler builds the queue handler. loc is the hospital's time zone,
// used when a request omits visit_date.
func NewHandler(svc *Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{svc: svc, loc: loc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/opd")
	g.POST("", h.Enqueue, auth.RequirePermission(auth.PermOPDCreate))
	g.GET("", h.Queue, auth.RequirePermission(auth.PermOPDView))
	g.GET("/doctors", h.Doctors, auth.RequirePermission(auth.PermOPDView))
	g.GET("/visit-types", h.VisitTypes, auth.RequirePermission(auth.PermOPDView))
	g.GET("/patient/:uhid", h.PatientVisits, auth.RequirePermission(auth.PermOPDView))
	g.GET("/:id", h.GetEntry, auth.RequirePermission(auth.PermOPDView))
	g.PATCH("/:id/status", h.SetStatus, auth.RequirePermission(auth.PermOPDEdit))
	g.DELETE("/:id", h.Dequeue, auth.RequirePermission(auth.PermOPDEdit))
}

type enqueueRequest struct {
	UHID        string `json:"uhid"`
	DoctorID    int64  `json:"doctor_id"`
	VisitTypeID int64  `json:"visit_type_id"`
	VisitDate   string `json:"visit_date"`
}

func (h *Handler) Enqueue(c echo.Context) error {
	var req enqueueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.UHID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "uhid is required")
	}
	if req.DoctorID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id is required")
	}
	if req.VisitTypeID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "visit_type_id is required")
	}

	visitDate := VisitDateAt(time.Now(), h.loc)
	if req.VisitDate != "" {
		var err error
		visitDate, err = ParseVisitDate(req.VisitDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid visit_date, expected YYYY-MM-DD")
		}
	}

	entry, err := h.svc.Enqueue(c.Request().Context(), EnqueueInput{
		UHID:        req.UHID,
		DoctorID:    req.DoctorID,
		VisitTypeID: req.VisitTypeID,
		VisitDate:   visitDate,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) GetEntry(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	entry, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) Queue(c echo.Context) error {
	pg := pagination.FromContext(c)

	var f QueueFilters
	if v := c.QueryParam("visit_date"); v != "" {
		d, err := ParseVisitDate(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid visit_date, expected YYYY-MM-DD")
		}
		f.VisitDate = &d
	}
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		f.DoctorID = &id
	}
	if v := c.QueryParam("status"); v != "" {
		stored, err := ParseStatus(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		f.Status = &stored
	}

	items, total, err := h.svc.Queue(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list queue")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) PatientVisits(c echo.Context) error {
	uhid := c.Param("uhid")
	if uhid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "uhid is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.PatientVisits(c.Request().Context(), uhid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list patient visits")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.svc.SetStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) Dequeue(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	deleted, err := h.svc.Dequeue(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, deleted)
}

func (h *Handler) Doctors(c echo.Context) error {
	doctors, err := h.svc.Doctors(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list doctors")
	}
	return c.JSON(http.StatusOK, doctors)
}

func (h *Handler) VisitTypes(c echo.Context) error {
	types, err := h.svc.VisitTypes(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list visit types")
	}
	return c.JSON(http.StatusOK, types)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrEntryNotFound),
		errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrVisitTypeNotFound),
		errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
