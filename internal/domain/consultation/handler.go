package consultation

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

// RegisterRoutes mounts the consultation endpoints. Clinical notes are the
// doctor's surface; admins can only remove a record outright.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/consultations")
	g.POST("", h.Create, auth.RequirePermission(auth.PermConsultationEdit))
	g.GET("", h.List, auth.RequirePermission(auth.PermConsultationView))
	g.GET("/patient/:uhid", h.PatientHistory, auth.RequirePermission(auth.PermConsultationView))
	g.GET("/:id", h.Get, auth.RequirePermission(auth.PermConsultationView))
	g.PUT("/:id", h.Update, auth.RequirePermission(auth.PermConsultationEdit))
	g.DELETE("/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
}

type createRequest struct {
	UHID                 string  `json:"uhid"`
	DoctorID             int64   `json:"doctor_id"`
	OPDID                *int64  `json:"opd_id"`
	Diagnosis            *string `json:"diagnosis"`
	TreatmentPlan        *string `json:"treatment_plan"`
	FollowupInstructions *string `json:"followup_instructions"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.UHID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "uhid is required")
	}
	if req.DoctorID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id is required")
	}

	cn, err := h.svc.Create(c.Request().Context(), CreateInput{
		UHID:                 req.UHID,
		DoctorID:             req.DoctorID,
		OPDID:                req.OPDID,
		Diagnosis:            req.Diagnosis,
		TreatmentPlan:        req.TreatmentPlan,
		FollowupInstructions: req.FollowupInstructions,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, cn)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cn, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cn)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	var f Filters
	if v := c.QueryParam("uhid"); v != "" {
		f.UHID = &v
	}
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		f.DoctorID = &id
	}
	if v := c.QueryParam("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		f.Date = &d
	}

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list consultations")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) PatientHistory(c echo.Context) error {
	uhid := c.Param("uhid")
	if uhid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "uhid is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.PatientHistory(c.Request().Context(), uhid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list patient consultations")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateRequest struct {
	Diagnosis            *string `json:"diagnosis"`
	TreatmentPlan        *string `json:"treatment_plan"`
	FollowupInstructions *string `json:"followup_instructions"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cn, err := h.svc.Update(c.Request().Context(), id, UpdateInput{
		Diagnosis:            req.Diagnosis,
		TreatmentPlan:        req.TreatmentPlan,
		FollowupInstructions: req.FollowupInstructions,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cn)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"id": id})
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrConsultationNotFound),
		errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDoctorNotFound),
		errors.Is(err, ErrOPDNotFound),
		errors.Is(err, ErrNoFields):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
