package progress

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers reading progress routes on the local API.
func RegisterRoutes(e *echo.Echo, svc *Service) {
	h := &handler{
		progressService: svc,
	}

	g := e.Group("/progress")
	g.GET("", h.list)
	g.PUT("", h.save)
}
