package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func runTimed(t *testing.T, d time.Duration, h echo.HandlerFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability/search", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	return RequestTimeout(d)(h)(c)
}

func TestRequestTimeout_FastHandlerUnaffected(t *testing.T) {
	sawDeadline := false
	err := runTimed(t, 5*time.Second, func(c echo.Context) error {
		_, sawDeadline = c.Request().Context().Deadline()
		return c.NoContent(http.StatusNoContent)
	})
	if err != nil {
		t.Fatalf("fast handler returned %v", err)
	}
	if !sawDeadline {
		t.Error("handler context carried no deadline")
	}
}

func TestRequestTimeout_SlowHandlerGets504(t *testing.T) {
	err := runTimed(t, 20*time.Millisecond, func(c echo.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return c.NoContent(http.StatusNoContent)
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
	})

	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("err = %v (%T), want *echo.HTTPError", err, err)
	}
	if he.Code != http.StatusGatewayTimeout {
		t.Errorf("code = %d, want 504", he.Code)
	}
}

func TestRequestTimeout_HandlerErrorPassesThrough(t *testing.T) {
	err := runTimed(t, 5*time.Second, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "provider not found")
	})

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want *echo.HTTPError 404", err)
	}
}

func TestRequestTimeout_ClientCancelIsNot504(t *testing.T) {
	e := echo.New()
	parent, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability/search", nil).WithContext(parent)
	c := e.NewContext(req, httptest.NewRecorder())

	err := RequestTimeout(time.Second)(func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.Request().Context().Err()
	})(c)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
