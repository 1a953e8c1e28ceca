package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/domain/identity"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the auth endpoints. Everything here except logout is
// listed in the JWT skipper; logout carries a bearer token so the server
// knows whose session is ending.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/auth")
	g.POST("/register/provider", h.RegisterProvider)
	g.POST("/register/patient", h.RegisterPatient)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
	g.POST("/verify/request", h.RequestVerification)
	g.POST("/verify/confirm", h.ConfirmVerification)
}

type registerProviderRequest struct {
	identity.Provider
	Password string `json:"password"`
}

type registerPatientRequest struct {
	identity.Patient
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	Everywhere   bool   `json:"everywhere"`
}

type verifyRequest struct {
	Role    string `json:"role"`
	Channel string `json:"channel"`
	Email   string `json:"email"`
}

type confirmRequest struct {
	Role    string `json:"role"`
	Channel string `json:"channel"`
	Email   string `json:"email"`
	Code    string `json:"code"`
}

func (h *Handler) RegisterProvider(c echo.Context) error {
	var req registerProviderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pair, err := h.svc.RegisterProvider(c.Request().Context(), &req.Provider, req.Password)
	if errors.Is(err, identity.ErrEmailTaken) {
		return echo.NewHTTPError(http.StatusConflict, "email is already registered")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"user":   &req.Provider,
		"tokens": pair,
	})
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req registerPatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pair, err := h.svc.RegisterPatient(c.Request().Context(), &req.Patient, req.Password)
	if errors.Is(err, identity.ErrEmailTaken) {
		return echo.NewHTTPError(http.StatusConflict, "email is already registered")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"user":   &req.Patient,
		"tokens": pair,
	})
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pair, err := h.svc.Login(c.Request().Context(), req.Email, req.Password, req.Role)
	if errors.Is(err, ErrUnknownRole) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if errors.Is(err, ErrInvalidCredentials) {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}
	pair, err := h.svc.Refresh(c.Request().Context(), req.RefreshToken)
	if errors.Is(err, ErrInvalidRefreshToken) {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *Handler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}
	err := h.svc.Logout(c.Request().Context(), req.RefreshToken, req.Everywhere)
	if errors.Is(err, ErrInvalidRefreshToken) {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RequestVerification(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err := h.svc.RequestVerification(c.Request().Context(), req.Role, req.Channel, req.Email)
	if errors.Is(err, ErrUnknownRole) || errors.Is(err, ErrUnknownChannel) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "verification code sent if the account exists",
	})
}

func (h *Handler) ConfirmVerification(c echo.Context) error {
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err := h.svc.ConfirmVerification(c.Request().Context(), req.Role, req.Channel, req.Email, req.Code)
	if errors.Is(err, ErrUnknownRole) || errors.Is(err, ErrUnknownChannel) || errors.Is(err, ErrInvalidCode) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "account verified",
	})
}
