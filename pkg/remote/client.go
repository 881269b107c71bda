package remote

import (
	"context"

	"github.com/maktabaapp/maktaba-sync/pkg/models"
	"github.com/pkg/errors"
)

// ErrTokenExpired is returned before any round trip when the configured
// access token is visibly past its expiry.
var ErrTokenExpired = errors.New("access token is expired")

// Client is the backend data API surface the agent writes to. The three
// collections (annotations, reading progress, favorites) are keyed by
// identifier; progress is upserted on the (book_id, user_id) composite key.
type Client interface {
	Ping(ctx context.Context) error

	CreateAnnotation(ctx context.Context, annotation *models.Annotation) error
	UpdateAnnotation(ctx context.Context, id string, patch *models.AnnotationPatch) error
	DeleteAnnotation(ctx context.Context, id string) error

	UpsertProgress(ctx context.Context, progress *models.ReadingProgress) error

	CreateFavorite(ctx context.Context, favorite *models.Favorite) error
	DeleteFavorite(ctx context.Context, id string) error

	ListAnnotations(ctx context.Context, userID string) ([]*models.Annotation, error)
	ListProgress(ctx context.Context, userID string) ([]*models.ReadingProgress, error)
	ListFavorites(ctx context.Context, userID string) ([]*models.Favorite, error)
	ListBooks(ctx context.Context) ([]*models.Book, error)
}
