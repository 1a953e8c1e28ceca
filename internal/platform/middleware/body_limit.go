package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// BodyLimit caps the request body size. The limit is a human-readable
// string: "1M", "512K", "2G", or a bare byte count. Oversized bodies get
// HTTP 413, whether announced by Content-Length or discovered mid-read on
// a chunked upload.
func BodyLimit(limit string) echo.MiddlewareFunc {
	limitBytes := parseLimit(limit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}
			if req.ContentLength > limitBytes {
				return payloadTooLargeError(limitBytes)
			}
			req.Body = &cappedBody{ReadCloser: req.Body, limit: limitBytes}
			return next(c)
		}
	}
}

// cappedBody counts consumed bytes and fails the read once the cap is
// passed. Content-Length is not trusted; the count is authoritative.
type cappedBody struct {
	io.ReadCloser
	limit int64
	read  int64
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.read > b.limit {
		return 0, payloadTooLargeError(b.limit)
	}
	// Read at most one byte past the cap so overflow is visible.
	if room := b.limit - b.read + 1; int64(len(p)) > room {
		p = p[:room]
	}
	n, err := b.ReadCloser.Read(p)
	b.read += int64(n)
	if b.read > b.limit {
		return 0, payloadTooLargeError(b.limit)
	}
	return n, err
}

func payloadTooLargeError(limit int64) error {
	return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
		fmt.Sprintf("request body exceeds maximum allowed size of %d bytes", limit))
}

// parseLimit converts a size string such as "1M" or "512K" into bytes.
// Unparseable values fall back to 1 MB.
func parseLimit(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "G"), strings.HasSuffix(s, "GB"):
		mult = 1 << 30
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "MB"):
		mult = 1 << 20
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "KB"):
		mult = 1 << 10
	}
	n, err := strconv.ParseInt(strings.TrimRight(s, "KMGB"), 10, 64)
	if err != nil || n < 0 {
		return 1 << 20
	}
	return n * mult
}
