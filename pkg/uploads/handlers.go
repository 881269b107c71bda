package uploads

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba-sync/pkg/errcodes"
	"github.com/pkg/errors"
)

type handler struct{}

func (h *handler) validate(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errcodes.MalformedPayload()
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	result, err := Validate(fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

// RegisterRoutes registers the staged upload check on the local API.
func RegisterRoutes(e *echo.Echo) {
	h := &handler{}

	e.POST("/uploads/validate", h.validate)
}
