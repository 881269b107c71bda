package library

import (
	"context"
	"database/sql"
	"time"

	"github.com/maktabaapp/maktaba-sync/pkg/models"
	"github.com/maktabaapp/maktaba-sync/pkg/remote"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// OnlineChecker reports the current connectivity state.
type OnlineChecker interface {
	Online() bool
}

// Service owns the local cached views of the user's library data. Reads are
// served from SQLite so they keep working offline; a stale view is refreshed
// from the backend on the next read that finds the agent online.
type Service struct {
	db     *bun.DB
	client remote.Client
	online OnlineChecker
	log    logger.Logger
}

func NewService(db *bun.DB, client remote.Client, online OnlineChecker) *Service {
	return &Service{
		db:     db,
		client: client,
		online: online,
		log:    logger.New(),
	}
}

// Invalidate marks every cached view stale. The drain coordinator calls this
// after a pass so the next reads pick up the backend's post-sync state.
func (svc *Service) Invalidate(ctx context.Context) error {
	for _, scope := range allScopes {
		state := &viewState{Scope: scope, Stale: true}
		_, err := svc.db.NewInsert().
			Model(state).
			On("CONFLICT (scope) DO UPDATE").
			Set("stale = EXCLUDED.stale").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (svc *Service) isStale(ctx context.Context, scope string) bool {
	state := &viewState{}
	err := svc.db.NewSelect().
		Model(state).
		Where("vs.scope = ?", scope).
		Scan(ctx)
	if err != nil {
		// No state row yet means the view has never been refreshed.
		return errors.Is(err, sql.ErrNoRows)
	}
	return state.Stale
}

func (svc *Service) markFresh(ctx context.Context, scope string) error {
	now := time.Now()
	state := &viewState{Scope: scope, Stale: false, RefreshedAt: &now}
	_, err := svc.db.NewInsert().
		Model(state).
		On("CONFLICT (scope) DO UPDATE").
		Set("stale = EXCLUDED.stale").
		Set("refreshed_at = EXCLUDED.refreshed_at").
		Exec(ctx)
	return errors.WithStack(err)
}

// refreshIfStale refreshes one scope from the backend when it is stale and
// the agent is online. Refresh failures are logged, not surfaced: the cached
// rows are still the best available answer.
func (svc *Service) refreshIfStale(ctx context.Context, scope, userID string) {
	if !svc.isStale(ctx, scope) || !svc.online.Online() {
		return
	}

	var err error
	switch scope {
	case ScopeAnnotations:
		err = svc.refreshAnnotations(ctx, userID)
	case ScopeProgress:
		err = svc.refreshProgress(ctx, userID)
	case ScopeFavorites:
		err = svc.refreshFavorites(ctx, userID)
	case ScopeBooks:
		err = svc.refreshBooks(ctx)
	}
	if err != nil {
		svc.log.Err(err).Warn("refresh cached view error", logger.Data{"scope": scope})
		return
	}

	if err := svc.markFresh(ctx, scope); err != nil {
		svc.log.Err(err).Error("mark view fresh error", logger.Data{"scope": scope})
	}
}

func (svc *Service) refreshAnnotations(ctx context.Context, userID string) error {
	annotations, err := svc.client.ListAnnotations(ctx, userID)
	if err != nil {
		return err
	}
	return replaceView(ctx, svc.db, annotations)
}

func (svc *Service) refreshProgress(ctx context.Context, userID string) error {
	progress, err := svc.client.ListProgress(ctx, userID)
	if err != nil {
		return err
	}
	return replaceView(ctx, svc.db, progress)
}

func (svc *Service) refreshFavorites(ctx context.Context, userID string) error {
	favorites, err := svc.client.ListFavorites(ctx, userID)
	if err != nil {
		return err
	}
	return replaceView(ctx, svc.db, favorites)
}

func (svc *Service) refreshBooks(ctx context.Context) error {
	books, err := svc.client.ListBooks(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, book := range books {
		book.CachedAt = now
	}
	return replaceView(ctx, svc.db, books)
}

// replaceView swaps the full contents of one cached table in a transaction.
func replaceView[T any](ctx context.Context, db *bun.DB, rows []*T) error {
	return db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*T)(nil)).Where("1 = 1").Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if len(rows) > 0 {
			_, err = tx.NewInsert().Model(&rows).Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
}

type ListAnnotationsOptions struct {
	UserID string
	BookID *string
}

func (svc *Service) ListAnnotations(ctx context.Context, opts ListAnnotationsOptions) ([]*models.Annotation, error) {
	svc.refreshIfStale(ctx, ScopeAnnotations, opts.UserID)

	var annotations []*models.Annotation
	q := svc.db.NewSelect().
		Model(&annotations).
		Where("ca.user_id = ?", opts.UserID).
		Order("ca.created_at ASC")
	if opts.BookID != nil {
		q = q.Where("ca.book_id = ?", *opts.BookID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return annotations, nil
}

type ListProgressOptions struct {
	UserID string
	BookID *string
}

func (svc *Service) ListProgress(ctx context.Context, opts ListProgressOptions) ([]*models.ReadingProgress, error) {
	svc.refreshIfStale(ctx, ScopeProgress, opts.UserID)

	var progress []*models.ReadingProgress
	q := svc.db.NewSelect().
		Model(&progress).
		Where("cp.user_id = ?", opts.UserID).
		Order("cp.last_read_at DESC")
	if opts.BookID != nil {
		q = q.Where("cp.book_id = ?", *opts.BookID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return progress, nil
}

type ListFavoritesOptions struct {
	UserID string
}

func (svc *Service) ListFavorites(ctx context.Context, opts ListFavoritesOptions) ([]*models.Favorite, error) {
	svc.refreshIfStale(ctx, ScopeFavorites, opts.UserID)

	var favorites []*models.Favorite
	err := svc.db.NewSelect().
		Model(&favorites).
		Where("cf.user_id = ?", opts.UserID).
		Order("cf.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return favorites, nil
}

// SaveAnnotation upserts an annotation into the cached view so reads reflect
// offline writes before the next drain.
func (svc *Service) SaveAnnotation(ctx context.Context, annotation *models.Annotation) error {
	_, err := svc.db.NewInsert().
		Model(annotation).
		On("CONFLICT (id) DO UPDATE").
		Set("page_number = EXCLUDED.page_number").
		Set("selected_text = EXCLUDED.selected_text").
		Set("note = EXCLUDED.note").
		Set("color = EXCLUDED.color").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return errors.WithStack(err)
}

// PatchAnnotation applies the non-nil patch fields to a cached annotation.
func (svc *Service) PatchAnnotation(ctx context.Context, id string, patch *models.AnnotationPatch) error {
	q := svc.db.NewUpdate().
		Model((*models.Annotation)(nil)).
		Where("id = ?", id).
		Set("updated_at = ?", time.Now())
	if patch.PageNumber != nil {
		q = q.Set("page_number = ?", *patch.PageNumber)
	}
	if patch.SelectedText != nil {
		q = q.Set("selected_text = ?", *patch.SelectedText)
	}
	if patch.Note != nil {
		q = q.Set("note = ?", *patch.Note)
	}
	if patch.Color != nil {
		q = q.Set("color = ?", *patch.Color)
	}
	_, err := q.Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) DeleteAnnotation(ctx context.Context, id string) error {
	_, err := svc.db.NewDelete().
		Model((*models.Annotation)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) SaveProgress(ctx context.Context, progress *models.ReadingProgress) error {
	_, err := svc.db.NewInsert().
		Model(progress).
		On("CONFLICT (book_id, user_id) DO UPDATE").
		Set("current_page = EXCLUDED.current_page").
		Set("total_pages = EXCLUDED.total_pages").
		Set("last_read_at = EXCLUDED.last_read_at").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) SaveFavorite(ctx context.Context, favorite *models.Favorite) error {
	// A repeat favorite of the same book is a no-op.
	_, err := svc.db.NewInsert().
		Model(favorite).
		On("CONFLICT (user_id, book_id) DO NOTHING").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) DeleteFavorite(ctx context.Context, id string) error {
	_, err := svc.db.NewDelete().
		Model((*models.Favorite)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return errors.WithStack(err)
}
