package progress

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba-sync/pkg/library"
	"github.com/pkg/errors"
)

type handler struct {
	progressService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListProgressQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	progress, err := h.progressService.ListProgress(ctx, library.ListProgressOptions{
		UserID: params.UserID,
		BookID: params.BookID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, echo.Map{"progress": progress}))
}

func (h *handler) save(c echo.Context) error {
	ctx := c.Request().Context()

	params := SaveProgressPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	progress, err := h.progressService.SaveProgress(ctx, SaveProgressOptions{
		UserID:      params.UserID,
		BookID:      params.BookID,
		CurrentPage: params.CurrentPage,
		TotalPages:  params.TotalPages,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, progress))
}
