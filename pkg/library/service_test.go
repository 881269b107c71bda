package library

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/maktabaapp/maktaba-sync/pkg/migrations"
	"github.com/maktabaapp/maktaba-sync/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

type stubOnline struct{ online bool }

func (s stubOnline) Online() bool { return s.online }

// listRemote serves canned list responses.
type listRemote struct {
	annotations []*models.Annotation
	progress    []*models.ReadingProgress
	favorites   []*models.Favorite
	books       []*models.Book
	err         error
	listCalls   int
}

func (f *listRemote) Ping(_ context.Context) error { return f.err }

func (f *listRemote) CreateAnnotation(_ context.Context, _ *models.Annotation) error { return f.err }

func (f *listRemote) UpdateAnnotation(_ context.Context, _ string, _ *models.AnnotationPatch) error {
	return f.err
}

func (f *listRemote) DeleteAnnotation(_ context.Context, _ string) error { return f.err }

func (f *listRemote) UpsertProgress(_ context.Context, _ *models.ReadingProgress) error {
	return f.err
}

func (f *listRemote) CreateFavorite(_ context.Context, _ *models.Favorite) error { return f.err }

func (f *listRemote) DeleteFavorite(_ context.Context, _ string) error { return f.err }

func (f *listRemote) ListAnnotations(_ context.Context, _ string) ([]*models.Annotation, error) {
	f.listCalls++
	return f.annotations, f.err
}

func (f *listRemote) ListProgress(_ context.Context, _ string) ([]*models.ReadingProgress, error) {
	f.listCalls++
	return f.progress, f.err
}

func (f *listRemote) ListFavorites(_ context.Context, _ string) ([]*models.Favorite, error) {
	f.listCalls++
	return f.favorites, f.err
}

func (f *listRemote) ListBooks(_ context.Context) ([]*models.Book, error) {
	f.listCalls++
	return f.books, f.err
}

func testAnnotation(id, userID, bookID string) *models.Annotation {
	now := time.Now()
	return &models.Annotation{
		ID:           id,
		UserID:       userID,
		BookID:       bookID,
		PageNumber:   1,
		SelectedText: "نص مختار",
		Color:        "yellow",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestService_SaveAndListAnnotations(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &listRemote{}, stubOnline{false})
	ctx := context.Background()

	require.NoError(t, svc.SaveAnnotation(ctx, testAnnotation("a1", "u1", "b1")))
	require.NoError(t, svc.SaveAnnotation(ctx, testAnnotation("a2", "u1", "b2")))
	require.NoError(t, svc.SaveAnnotation(ctx, testAnnotation("a3", "u2", "b1")))

	annotations, err := svc.ListAnnotations(ctx, ListAnnotationsOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, annotations, 2)

	bookID := "b1"
	annotations, err = svc.ListAnnotations(ctx, ListAnnotationsOptions{UserID: "u1", BookID: &bookID})
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	assert.Equal(t, "a1", annotations[0].ID)

	t.Run("save is an upsert", func(t *testing.T) {
		updated := testAnnotation("a1", "u1", "b1")
		updated.PageNumber = 42
		require.NoError(t, svc.SaveAnnotation(ctx, updated))

		annotations, err := svc.ListAnnotations(ctx, ListAnnotationsOptions{UserID: "u1", BookID: &bookID})
		require.NoError(t, err)
		require.Len(t, annotations, 1)
		assert.Equal(t, 42, annotations[0].PageNumber)
	})

	t.Run("delete removes from the view", func(t *testing.T) {
		require.NoError(t, svc.DeleteAnnotation(ctx, "a1"))
		annotations, err := svc.ListAnnotations(ctx, ListAnnotationsOptions{UserID: "u1", BookID: &bookID})
		require.NoError(t, err)
		assert.Empty(t, annotations)
	})
}

func TestService_SaveProgressUpsert(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &listRemote{}, stubOnline{false})
	ctx := context.Background()

	require.NoError(t, svc.SaveProgress(ctx, &models.ReadingProgress{
		BookID: "b1", UserID: "u1", CurrentPage: 10, TotalPages: 300, LastReadAt: time.Now(),
	}))
	require.NoError(t, svc.SaveProgress(ctx, &models.ReadingProgress{
		BookID: "b1", UserID: "u1", CurrentPage: 25, TotalPages: 300, LastReadAt: time.Now(),
	}))

	progress, err := svc.ListProgress(ctx, ListProgressOptions{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, 25, progress[0].CurrentPage)
}

func TestService_RefreshOnStaleRead(t *testing.T) {
	db := setupTestDB(t)
	client := &listRemote{
		favorites: []*models.Favorite{
			{ID: "f1", UserID: "u1", BookID: "b1", CreatedAt: time.Now()},
		},
	}
	svc := NewService(db, client, stubOnline{true})
	ctx := context.Background()

	// Never-refreshed view counts as stale, so the first online read pulls
	// from the backend.
	favorites, err := svc.ListFavorites(ctx, ListFavoritesOptions{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, 1, client.listCalls)

	// The view is now fresh; a second read stays local.
	_, err = svc.ListFavorites(ctx, ListFavoritesOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, client.listCalls)

	// Invalidate forces the next read back to the backend.
	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.ListFavorites(ctx, ListFavoritesOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, client.listCalls)
}

func TestService_StaleReadOfflineServesCache(t *testing.T) {
	db := setupTestDB(t)
	client := &listRemote{}
	svc := NewService(db, client, stubOnline{false})
	ctx := context.Background()

	require.NoError(t, svc.SaveFavorite(ctx, &models.Favorite{ID: "f1", UserID: "u1", BookID: "b1", CreatedAt: time.Now()}))
	require.NoError(t, svc.Invalidate(ctx))

	favorites, err := svc.ListFavorites(ctx, ListFavoritesOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, favorites, 1)
	assert.Zero(t, client.listCalls, "offline reads never hit the backend")
}

func TestService_RefreshFailureKeepsCache(t *testing.T) {
	db := setupTestDB(t)
	client := &listRemote{err: errors.New("backend down")}
	svc := NewService(db, client, stubOnline{true})
	ctx := context.Background()

	require.NoError(t, svc.SaveFavorite(ctx, &models.Favorite{ID: "f1", UserID: "u1", BookID: "b1", CreatedAt: time.Now()}))
	require.NoError(t, svc.Invalidate(ctx))

	favorites, err := svc.ListFavorites(ctx, ListFavoritesOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, favorites, 1, "failed refresh falls back to cached rows")
}
