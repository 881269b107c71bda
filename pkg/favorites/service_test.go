package favorites

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/maktabaapp/maktaba-sync/pkg/library"
	"github.com/maktabaapp/maktaba-sync/pkg/migrations"
	"github.com/maktabaapp/maktaba-sync/pkg/models"
	"github.com/maktabaapp/maktaba-sync/pkg/syncqueue"
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

type fakeRemote struct {
	err   error
	calls []string
}

func (f *fakeRemote) Ping(_ context.Context) error { return f.err }

func (f *fakeRemote) CreateAnnotation(_ context.Context, _ *models.Annotation) error { return f.err }

func (f *fakeRemote) UpdateAnnotation(_ context.Context, _ string, _ *models.AnnotationPatch) error {
	return f.err
}

func (f *fakeRemote) DeleteAnnotation(_ context.Context, _ string) error { return f.err }

func (f *fakeRemote) UpsertProgress(_ context.Context, _ *models.ReadingProgress) error {
	return f.err
}

func (f *fakeRemote) CreateFavorite(_ context.Context, _ *models.Favorite) error {
	f.calls = append(f.calls, "create_favorite")
	return f.err
}

func (f *fakeRemote) DeleteFavorite(_ context.Context, _ string) error {
	f.calls = append(f.calls, "delete_favorite")
	return f.err
}

func (f *fakeRemote) ListAnnotations(_ context.Context, _ string) ([]*models.Annotation, error) {
	return nil, f.err
}

func (f *fakeRemote) ListProgress(_ context.Context, _ string) ([]*models.ReadingProgress, error) {
	return nil, f.err
}

func (f *fakeRemote) ListFavorites(_ context.Context, _ string) ([]*models.Favorite, error) {
	return nil, f.err
}

func (f *fakeRemote) ListBooks(_ context.Context) ([]*models.Book, error) { return nil, f.err }

func setup(t *testing.T, online bool) (*Service, *syncqueue.SlotStore, *fakeRemote) {
	t.Helper()

	db := setupTestDB(t)
	queue := syncqueue.NewSlotStore(db)
	client := &fakeRemote{}
	lib := library.NewService(db, client, stubOnline{online})

	return NewService(queue, lib, client, stubOnline{online}), queue, client
}

func TestService_CreateFavorite(t *testing.T) {
	ctx := context.Background()

	t.Run("online writes through", func(t *testing.T) {
		svc, queue, client := setup(t, true)

		favorite, err := svc.CreateFavorite(ctx, CreateFavoriteOptions{UserID: "u1", BookID: "b1"})
		require.NoError(t, err)
		assert.NotEmpty(t, favorite.ID)
		assert.Equal(t, []string{"create_favorite"}, client.calls)

		items, err := queue.Read(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("offline queues and caches", func(t *testing.T) {
		svc, queue, client := setup(t, false)

		favorite, err := svc.CreateFavorite(ctx, CreateFavoriteOptions{UserID: "u1", BookID: "b1"})
		require.NoError(t, err)
		assert.Empty(t, client.calls)

		items, err := queue.Read(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, syncqueue.KindFavorite, items[0].Kind)
		assert.Equal(t, syncqueue.OperationCreate, items[0].Operation)

		favorites, err := svc.ListFavorites(ctx, library.ListFavoritesOptions{UserID: "u1"})
		require.NoError(t, err)
		require.Len(t, favorites, 1)
		assert.Equal(t, favorite.ID, favorites[0].ID)
	})
}

func TestService_DeleteFavorite(t *testing.T) {
	ctx := context.Background()

	svc, queue, client := setup(t, false)

	favorite, err := svc.CreateFavorite(ctx, CreateFavoriteOptions{UserID: "u1", BookID: "b1"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFavorite(ctx, favorite.ID))
	assert.Empty(t, client.calls)

	favorites, err := svc.ListFavorites(ctx, library.ListFavoritesOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, favorites)

	items, err := queue.Read(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, syncqueue.OperationDelete, items[1].Operation)
}
