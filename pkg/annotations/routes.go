package annotations

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers annotation routes on the local API.
func RegisterRoutes(e *echo.Echo, svc *Service) {
	h := &handler{
		annotationsService: svc,
	}

	g := e.Group("/annotations")
	g.GET("", h.list)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}
