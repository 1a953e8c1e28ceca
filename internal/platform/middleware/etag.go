package middleware

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CacheConfig controls the Cache-Control, Vary, and ETag headers attached to
// GET responses on the API group.
type CacheConfig struct {
	MaxAge       int      // max-age in seconds
	Private      bool     // responses are scoped to the caller
	NoStore      bool     // forbid storage entirely
	VaryHeaders  []string // request headers that change the response
	ExcludePaths []string // exact paths left untouched
}

// DefaultCacheConfig returns the settings used for the versioned API. Slot
// grids go stale as bookings land, so revalidation is kept short, and every
// response is private to the authenticated account.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxAge:      60,
		Private:     true,
		VaryHeaders: []string{"Accept", "Authorization"},
	}
}

// etagWriter buffers the response body so the handler's full output is
// available for hashing before anything reaches the client.
type etagWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *etagWriter) WriteHeader(code int) { w.status = code }

func (w *etagWriter) Write(b []byte) (int, error) { return w.body.Write(b) }

// flush releases the buffered status and body to the wrapped writer.
func (w *etagWriter) flush() error {
	w.ResponseWriter.WriteHeader(w.status)
	if w.body.Len() == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.body.Bytes())
	return err
}

// ETagMiddleware adds ETag, Cache-Control, and Vary headers to successful GET
// and HEAD responses and answers If-None-Match revalidations with 304 Not
// Modified. Error responses and excluded paths pass through without cache
// headers. Handler errors propagate to the error handler untouched.
func ETagMiddleware(cfg CacheConfig) echo.MiddlewareFunc {
	cacheControl := cacheControlValue(cfg)
	vary := strings.Join(cfg.VaryHeaders, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				return next(c)
			}
			for _, p := range cfg.ExcludePaths {
				if req.URL.Path == p {
					return next(c)
				}
			}

			res := c.Response()
			orig := res.Writer
			w := &etagWriter{ResponseWriter: orig, status: http.StatusOK}
			res.Writer = w
			err := next(c)
			res.Writer = orig
			if err != nil {
				return err
			}
			if w.status >= 400 {
				return w.flush()
			}

			res.Header().Set("Cache-Control", cacheControl)
			if vary != "" {
				res.Header().Set("Vary", vary)
			}
			tag := weakETag(w.body.Bytes())
			res.Header().Set("ETag", tag)

			if match := req.Header.Get("If-None-Match"); match != "" && etagMatch(match, tag) {
				orig.WriteHeader(http.StatusNotModified)
				return nil
			}
			return w.flush()
		}
	}
}

// weakETag builds a weak validator from the body length and an FNV-1a hash,
// in the form W/"<len hex>-<hash hex>".
func weakETag(body []byte) string {
	h := fnv.New64a()
	h.Write(body)
	return fmt.Sprintf(`W/"%x-%x"`, len(body), h.Sum64())
}

// etagMatch reports whether any candidate in an If-None-Match header value
// matches tag. Handles the * wildcard, comma-separated lists, and weak
// comparison, where W/"v" and "v" are equal.
func etagMatch(header, tag string) bool {
	header = strings.TrimSpace(header)
	if header == "*" {
		return true
	}
	tag = strings.TrimPrefix(tag, "W/")
	for _, cand := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(cand), "W/") == tag {
			return true
		}
	}
	return false
}

func cacheControlValue(cfg CacheConfig) string {
	if cfg.NoStore {
		return "no-store"
	}
	scope := "public"
	if cfg.Private {
		scope = "private"
	}
	return fmt.Sprintf("%s, max-age=%d", scope, cfg.MaxAge)
}
