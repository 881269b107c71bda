package favorites

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba-sync/pkg/errcodes"
	"github.com/maktabaapp/maktaba-sync/pkg/library"
	"github.com/pkg/errors"
)

type handler struct {
	favoritesService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListFavoritesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	favorites, err := h.favoritesService.ListFavorites(ctx, library.ListFavoritesOptions{
		UserID: params.UserID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, echo.Map{"favorites": favorites}))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateFavoritePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	favorite, err := h.favoritesService.CreateFavorite(ctx, CreateFavoriteOptions{
		UserID: params.UserID,
		BookID: params.BookID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, favorite))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return errcodes.NotFound("Favorite")
	}

	if err := h.favoritesService.DeleteFavorite(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
