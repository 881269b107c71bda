package syncqueue

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba-sync/pkg/errcodes"
	"github.com/pkg/errors"
)

type handler struct {
	store   Store
	drainer *Drainer
	online  OnlineChecker
}

type statusResponse struct {
	Online   bool       `json:"online"`
	Pending  int        `json:"pending"`
	InFlight bool       `json:"in_flight"`
	LastSync *time.Time `json:"last_sync,omitempty"`
}

func (h *handler) status(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.store.Read(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := statusResponse{
		Online:   h.online.Online(),
		Pending:  len(items),
		InFlight: h.drainer.InFlight(),
	}
	if t, ok := h.store.LastSync(ctx); ok {
		resp.LastSync = &t
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) drain(c echo.Context) error {
	if !h.online.Online() {
		return errcodes.Offline()
	}
	if h.drainer.InFlight() {
		return errcodes.Conflict("A sync is already in progress.")
	}

	// A drain pass runs to completion once started, even when the caller
	// disconnects, so it is detached from the request lifetime.
	ctx := context.WithoutCancel(c.Request().Context())
	succeeded, failed := h.drainer.DrainAll(ctx, true)

	return errors.WithStack(c.JSON(http.StatusOK, echo.Map{
		"succeeded": succeeded,
		"failed":    failed,
	}))
}

func (h *handler) deadLetters(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.store.DeadLetters(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, echo.Map{"items": items}))
}
