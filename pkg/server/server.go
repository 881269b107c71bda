package server

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/maktabaapp/maktaba-sync/pkg/annotations"
	"github.com/maktabaapp/maktaba-sync/pkg/binder"
	"github.com/maktabaapp/maktaba-sync/pkg/config"
	"github.com/maktabaapp/maktaba-sync/pkg/errcodes"
	"github.com/maktabaapp/maktaba-sync/pkg/favorites"
	"github.com/maktabaapp/maktaba-sync/pkg/library"
	"github.com/maktabaapp/maktaba-sync/pkg/notify"
	"github.com/maktabaapp/maktaba-sync/pkg/progress"
	"github.com/maktabaapp/maktaba-sync/pkg/remote"
	"github.com/maktabaapp/maktaba-sync/pkg/syncqueue"
	"github.com/maktabaapp/maktaba-sync/pkg/testutils"
	"github.com/maktabaapp/maktaba-sync/pkg/uploads"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

// OnlineChecker reports the current connectivity state.
type OnlineChecker interface {
	Online() bool
}

// Dependencies are the shared components the local API serves. They are
// constructed once in the agent entrypoint so the HTTP surface, the drain
// coordinator, and the connectivity monitor all see the same state.
type Dependencies struct {
	DB       *bun.DB
	Store    syncqueue.Store
	Drainer  *syncqueue.Drainer
	Online   OnlineChecker
	Library  *library.Service
	Client   remote.Client
	Notifier notify.Notifier
}

// New builds the local HTTP API that reading clients on this device talk to.
func New(cfg *config.Config, deps Dependencies) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	annotationsService := annotations.NewService(deps.Store, deps.Library, deps.Client, deps.Online, deps.Notifier)
	progressService := progress.NewService(deps.Store, deps.Library, deps.Client, deps.Online)
	favoritesService := favorites.NewService(deps.Store, deps.Library, deps.Client, deps.Online)

	annotations.RegisterRoutes(e, annotationsService)
	progress.RegisterRoutes(e, progressService)
	favorites.RegisterRoutes(e, favoritesService)
	syncqueue.RegisterRoutes(e, deps.Store, deps.Drainer, deps.Online)
	uploads.RegisterRoutes(e)

	if os.Getenv("ENVIRONMENT") == "test" {
		testutils.RegisterRoutes(e, deps.DB)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
