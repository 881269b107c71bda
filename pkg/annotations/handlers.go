package annotations

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba-sync/pkg/errcodes"
	"github.com/maktabaapp/maktaba-sync/pkg/library"
	"github.com/maktabaapp/maktaba-sync/pkg/models"
	"github.com/pkg/errors"
)

type handler struct {
	annotationsService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListAnnotationsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	annotations, err := h.annotationsService.ListAnnotations(ctx, library.ListAnnotationsOptions{
		UserID: params.UserID,
		BookID: params.BookID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, echo.Map{"annotations": annotations}))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateAnnotationPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	annotation, err := h.annotationsService.CreateAnnotation(ctx, CreateAnnotationOptions{
		UserID:       params.UserID,
		BookID:       params.BookID,
		PageNumber:   params.PageNumber,
		SelectedText: params.SelectedText,
		Note:         params.Note,
		Color:        params.Color,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, annotation))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return errcodes.NotFound("Annotation")
	}

	params := UpdateAnnotationPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	patch := &models.AnnotationPatch{
		PageNumber:   params.PageNumber,
		SelectedText: params.SelectedText,
		Note:         params.Note,
		Color:        params.Color,
	}

	if err := h.annotationsService.UpdateAnnotation(ctx, id, patch); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return errcodes.NotFound("Annotation")
	}

	if err := h.annotationsService.DeleteAnnotation(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
