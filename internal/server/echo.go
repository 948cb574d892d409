package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// MountEcho serves h under basePath of an existing echo instance. h must be
// built with the same basePath.
func MountEcho(e *echo.Echo, basePath string, h http.Handler) {
	base := sanitizeBase(basePath)
	wrapped := echo.WrapHandler(h)
	if base != "" {
		e.Any(base, wrapped)
	}
	e.Any(base+"/*", wrapped)
}
