package syncqueue

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the sync control surface on the local API.
func RegisterRoutes(e *echo.Echo, store Store, drainer *Drainer, online OnlineChecker) {
	h := &handler{
		store:   store,
		drainer: drainer,
		online:  online,
	}

	g := e.Group("/sync")
	g.GET("/status", h.status)
	g.POST("/drain", h.drain)
	g.GET("/dead-letter", h.deadLetters)
}
