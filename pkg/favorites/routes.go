package favorites

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers favorite routes on the local API.
func RegisterRoutes(e *echo.Echo, svc *Service) {
	h := &handler{
		favoritesService: svc,
	}

	g := e.Group("/favorites")
	g.GET("", h.list)
	g.POST("", h.create)
	g.DELETE("/:id", h.delete)
}
