package annotations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/maktabaapp/maktaba-sync/pkg/library"
	"github.com/maktabaapp/maktaba-sync/pkg/migrations"
	"github.com/maktabaapp/maktaba-sync/pkg/models"
	"github.com/maktabaapp/maktaba-sync/pkg/notify"
	"github.com/maktabaapp/maktaba-sync/pkg/syncqueue"
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

type recordingNotifier struct {
	infos []string
}

func (n *recordingNotifier) Info(msg string)    { n.infos = append(n.infos, msg) }
func (n *recordingNotifier) Success(msg string) {}
func (n *recordingNotifier) Warn(msg string)    {}

type fakeRemote struct {
	err   error
	calls []string
}

func (f *fakeRemote) Ping(_ context.Context) error { return f.err }

func (f *fakeRemote) CreateAnnotation(_ context.Context, _ *models.Annotation) error {
	f.calls = append(f.calls, "create_annotation")
	return f.err
}

func (f *fakeRemote) UpdateAnnotation(_ context.Context, _ string, _ *models.AnnotationPatch) error {
	f.calls = append(f.calls, "update_annotation")
	return f.err
}

func (f *fakeRemote) DeleteAnnotation(_ context.Context, _ string) error {
	f.calls = append(f.calls, "delete_annotation")
	return f.err
}

func (f *fakeRemote) UpsertProgress(_ context.Context, _ *models.ReadingProgress) error {
	return f.err
}

func (f *fakeRemote) CreateFavorite(_ context.Context, _ *models.Favorite) error { return f.err }

func (f *fakeRemote) DeleteFavorite(_ context.Context, _ string) error { return f.err }

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

type fixture struct {
	svc      *Service
	queue    *syncqueue.SlotStore
	client   *fakeRemote
	notifier *recordingNotifier
}

func setup(t *testing.T, online bool, clientErr error) *fixture {
	t.Helper()

	db := setupTestDB(t)
	queue := syncqueue.NewSlotStore(db)
	client := &fakeRemote{err: clientErr}
	notifier := &recordingNotifier{}
	lib := library.NewService(db, client, stubOnline{online})

	return &fixture{
		svc:      NewService(queue, lib, client, stubOnline{online}, notifier),
		queue:    queue,
		client:   client,
		notifier: notifier,
	}
}

func TestService_CreateAnnotation(t *testing.T) {
	ctx := context.Background()

	t.Run("online writes through and skips the queue", func(t *testing.T) {
		f := setup(t, true, nil)

		annotation, err := f.svc.CreateAnnotation(ctx, CreateAnnotationOptions{
			UserID: "u1", BookID: "b1", PageNumber: 12, SelectedText: "المقدمة", Color: "yellow",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, annotation.ID)
		assert.Equal(t, []string{"create_annotation"}, f.client.calls)

		items, err := f.queue.Read(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Empty(t, f.notifier.infos)

		annotations, err := f.svc.ListAnnotations(ctx, library.ListAnnotationsOptions{UserID: "u1"})
		require.NoError(t, err)
		assert.Len(t, annotations, 1)
	})

	t.Run("offline queues and advises", func(t *testing.T) {
		f := setup(t, false, nil)

		annotation, err := f.svc.CreateAnnotation(ctx, CreateAnnotationOptions{
			UserID: "u1", BookID: "b1", PageNumber: 12, SelectedText: "المقدمة", Color: "yellow",
		})
		require.NoError(t, err)
		assert.Empty(t, f.client.calls, "offline writes never hit the backend")

		items, err := f.queue.Read(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, syncqueue.KindAnnotation, items[0].Kind)
		assert.Equal(t, syncqueue.OperationCreate, items[0].Operation)

		assert.Equal(t, []string{notify.AnnotationSavedOffline}, f.notifier.infos)

		// The cached view reflects the write immediately.
		annotations, err := f.svc.ListAnnotations(ctx, library.ListAnnotationsOptions{UserID: "u1"})
		require.NoError(t, err)
		require.Len(t, annotations, 1)
		assert.Equal(t, annotation.ID, annotations[0].ID)
	})

	t.Run("failed online write falls back to the queue", func(t *testing.T) {
		f := setup(t, true, errors.New("backend down"))

		_, err := f.svc.CreateAnnotation(ctx, CreateAnnotationOptions{
			UserID: "u1", BookID: "b1", PageNumber: 12, SelectedText: "المقدمة", Color: "yellow",
		})
		require.NoError(t, err)

		items, err := f.queue.Read(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, []string{notify.AnnotationSavedOffline}, f.notifier.infos)
	})
}

func TestService_UpdateAnnotation(t *testing.T) {
	ctx := context.Background()

	t.Run("offline patches the cache and queues", func(t *testing.T) {
		f := setup(t, false, nil)

		annotation, err := f.svc.CreateAnnotation(ctx, CreateAnnotationOptions{
			UserID: "u1", BookID: "b1", PageNumber: 12, SelectedText: "المقدمة", Color: "yellow",
		})
		require.NoError(t, err)

		note := "worth rereading"
		err = f.svc.UpdateAnnotation(ctx, annotation.ID, &models.AnnotationPatch{Note: &note})
		require.NoError(t, err)

		annotations, err := f.svc.ListAnnotations(ctx, library.ListAnnotationsOptions{UserID: "u1"})
		require.NoError(t, err)
		require.Len(t, annotations, 1)
		require.NotNil(t, annotations[0].Note)
		assert.Equal(t, note, *annotations[0].Note)

		items, err := f.queue.Read(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, syncqueue.OperationUpdate, items[1].Operation)
		assert.Contains(t, f.notifier.infos, notify.AnnotationUpdatedOffline)
	})

	t.Run("online writes through", func(t *testing.T) {
		f := setup(t, true, nil)

		note := "worth rereading"
		err := f.svc.UpdateAnnotation(ctx, "a1", &models.AnnotationPatch{Note: &note})
		require.NoError(t, err)
		assert.Equal(t, []string{"update_annotation"}, f.client.calls)

		items, err := f.queue.Read(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestService_DeleteAnnotation(t *testing.T) {
	ctx := context.Background()

	f := setup(t, false, nil)

	annotation, err := f.svc.CreateAnnotation(ctx, CreateAnnotationOptions{
		UserID: "u1", BookID: "b1", PageNumber: 12, SelectedText: "المقدمة", Color: "yellow",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteAnnotation(ctx, annotation.ID))

	annotations, err := f.svc.ListAnnotations(ctx, library.ListAnnotationsOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, annotations)

	items, err := f.queue.Read(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, syncqueue.OperationDelete, items[1].Operation)
	assert.Contains(t, f.notifier.infos, notify.AnnotationDeletedOffline)
}
