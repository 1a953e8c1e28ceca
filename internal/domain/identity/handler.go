package identity

import (
	"errors"
	"net/http"

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
	// Provider profiles are browsable by anyone authenticated; patients pick
	// a provider from this list before searching for slots.
	providers := api.Group("/providers")
	providers.GET("", h.ListProviders)
	providers.GET("/:id", h.GetProvider)

	providerSelf := api.Group("/providers", auth.RequireRole(RoleProvider))
	providerSelf.PUT("/:id", h.UpdateProviderProfile)

	patients := api.Group("/patients")
	patients.GET("/:id", h.GetPatient)

	patientList := api.Group("/patients", auth.RequireRole(RoleProvider))
	patientList.GET("", h.ListPatients)

	patientSelf := api.Group("/patients", auth.RequireRole(RolePatient))
	patientSelf.PUT("/:id", h.UpdatePatientProfile)
}

// -- Provider Handlers --

func (h *Handler) GetProvider(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetProvider(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "provider not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListProviders(c echo.Context) error {
	pg := pagination.FromContext(c)
	providers, total, err := h.svc.ListProviders(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(providers, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateProviderProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if auth.UserIDFromContext(c.Request().Context()) != id.String() {
		return echo.NewHTTPError(http.StatusForbidden, "you can only update your own profile")
	}
	cur, err := h.svc.GetProvider(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "provider not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var in Provider
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Email, password, and verified flags never change through this endpoint.
	cur.FirstName = in.FirstName
	cur.LastName = in.LastName
	cur.Phone = in.Phone
	cur.Specialization = in.Specialization
	cur.Qualifications = in.Qualifications
	cur.LicenseNumber = in.LicenseNumber
	cur.ConsultationFee = in.ConsultationFee

	if err := h.svc.UpdateProviderProfile(c.Request().Context(), cur); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, cur)
}

// -- Patient Handlers --

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) == RolePatient && auth.UserIDFromContext(ctx) != id.String() {
		return echo.NewHTTPError(http.StatusForbidden, "patients can only view their own record")
	}
	p, err := h.svc.GetPatient(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatientProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if auth.UserIDFromContext(c.Request().Context()) != id.String() {
		return echo.NewHTTPError(http.StatusForbidden, "you can only update your own profile")
	}
	cur, err := h.svc.GetPatient(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var in Patient
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Email, password, and verified flags never change through this endpoint.
	cur.FirstName = in.FirstName
	cur.LastName = in.LastName
	cur.Phone = in.Phone
	cur.DateOfBirth = in.DateOfBirth
	cur.Gender = in.Gender
	cur.AddressLine1 = in.AddressLine1
	cur.AddressLine2 = in.AddressLine2
	cur.City = in.City
	cur.State = in.State
	cur.PostalCode = in.PostalCode
	cur.Country = in.Country

	if err := h.svc.UpdatePatientProfile(c.Request().Context(), cur); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, cur)
}
