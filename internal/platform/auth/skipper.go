package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that should bypass authentication. These are
// infrastructure endpoints (health checks) and the endpoints a client must be
// able to reach before it holds a token.
var publicPaths = map[string]bool{
	"/health":                        true,
	"/health/db":                     true,
	"/api/v1/auth/register/provider": true,
	"/api/v1/auth/register/patient":  true,
	"/api/v1/auth/login":             true,
	"/api/v1/auth/refresh":           true,
	"/api/v1/auth/verify/request":    true,
	"/api/v1/auth/verify/confirm":    true,
}

// AuthSkipper returns true for requests whose path should skip authentication.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path is reachable without a bearer
// token.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
