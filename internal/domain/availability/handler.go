package availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Slot discovery is open to any authenticated user; patients search here
	// before booking.
	api.GET("/provider/availability/search", h.SearchSlots)
	api.GET("/provider/:id/availability", h.ListProviderSlots)

	mine := api.Group("/provider", auth.RequireRole("provider"))
	mine.POST("/availability", h.CreateAvailability)
	mine.PUT("/availability/:slotId", h.UpdateSlot)
	mine.DELETE("/availability/:slotId", h.DeleteSlot)
	mine.GET("/:id/availability/stats", h.Stats)
}

func (h *Handler) CreateAvailability(c echo.Context) error {
	var w Window
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if auth.UserIDFromContext(c.Request().Context()) != w.ProviderID.String() {
		return echo.NewHTTPError(http.StatusForbidden, "you can only manage your own availability")
	}

	result, err := h.svc.CreateAvailability(c.Request().Context(), w)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListProviderSlots(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	from, to, err := rangeParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pg := pagination.FromContext(c)
	slots, total, err := h.svc.ListByProvider(c.Request().Context(), id, from, to, pg.Limit, pg.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(slots, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateSlot(c echo.Context) error {
	slotID, err := uuid.Parse(c.Param("slotId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	providerID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	var patch SlotPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	slot, err := h.svc.UpdateSlot(c.Request().Context(), slotID, providerID, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *Handler) DeleteSlot(c echo.Context) error {
	slotID, err := uuid.Parse(c.Param("slotId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	providerID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	deleteRecurring := c.QueryParam("delete_recurring") == "true"
	reason := c.QueryParam("reason")

	result, err := h.svc.DeleteSlot(c.Request().Context(), slotID, providerID, deleteRecurring, reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Stats(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if auth.UserIDFromContext(c.Request().Context()) != id.String() {
		return echo.NewHTTPError(http.StatusForbidden, "you can only view your own statistics")
	}
	from, to, err := rangeParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	st, err := h.svc.Stats(c.Request().Context(), id, from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) SearchSlots(c echo.Context) error {
	var crit SearchCriteria

	if raw := c.QueryParam("date"); raw != "" {
		d, err := ParseDate(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		crit.From = d
		crit.To = d.AddDate(0, 0, 1)
	} else {
		from, to, err := rangeParams(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		crit.From = from
		crit.To = to
	}

	if raw := c.QueryParam("provider_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid provider_id")
		}
		crit.ProviderID = id
	}
	if raw := c.QueryParam("min_duration"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid min_duration")
		}
		crit.MinDuration = n
	}
	if raw := c.QueryParam("max_price"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid max_price")
		}
		crit.MaxPrice = &f
	}
	crit.AppointmentType = c.QueryParam("appointment_type")
	crit.Specialization = c.QueryParam("specialization")
	crit.LocationQuery = c.QueryParam("location")
	crit.VirtualOnly = c.QueryParam("virtual_only") == "true"
	crit.InPersonOnly = c.QueryParam("in_person_only") == "true"

	pg := pagination.FromContext(c)
	results, total, err := h.svc.Search(c.Request().Context(), crit, pg.Limit, pg.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(results, total, pg.Limit, pg.Offset))
}

// rangeParams reads the optional date_from and date_to query parameters.
// date_to is inclusive, so the returned upper bound is midnight of the
// following day.
func rangeParams(c echo.Context) (from, to time.Time, err error) {
	if raw := c.QueryParam("date_from"); raw != "" {
		if from, err = ParseDate(raw); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if raw := c.QueryParam("date_to"); raw != "" {
		if to, err = ParseDate(raw); err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}

func respondError(c echo.Context, err error) error {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "invalid availability configuration",
			"errors":  vErr.Errors,
		})
	}
	var cErr *ConflictError
	if errors.As(err, &cErr) {
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"message":           cErr.Error(),
			"conflicting_slots": len(cErr.Conflicts),
		})
	}
	switch {
	case errors.Is(err, ErrProviderNotFound),
		errors.Is(err, ErrSlotNotFound),
		errors.Is(err, ErrAvailabilityNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSlotBooked):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
