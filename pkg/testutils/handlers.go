package testutils

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba-sync/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db *bun.DB
}

// reset clears every sync slot and cached view so end-to-end tests start from
// a blank agent.
// POST /test/reset.
func (h *handler) reset(c echo.Context) error {
	ctx := c.Request().Context()

	tables := []interface{}{
		(*models.Annotation)(nil),
		(*models.ReadingProgress)(nil),
		(*models.Favorite)(nil),
		(*models.Book)(nil),
	}
	for _, table := range tables {
		_, err := h.db.NewDelete().Model(table).Where("1 = 1").Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	// Slots and view staleness live outside the models package.
	for _, query := range []string{"DELETE FROM sync_slots", "DELETE FROM view_state"} {
		if _, err := h.db.ExecContext(ctx, query); err != nil {
			return errors.WithStack(err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}

type seedBooksRequest struct {
	Books []*models.Book `json:"books" validate:"required,min=1"`
}

// seedBooks inserts catalog snapshot rows directly into the cache.
// POST /test/books.
func (h *handler) seedBooks(c echo.Context) error {
	ctx := c.Request().Context()

	req := seedBooksRequest{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	_, err := h.db.NewInsert().Model(&req.Books).Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusCreated)
}
