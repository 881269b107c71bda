package favorites

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/maktabaapp/maktaba-sync/pkg/library"
	"github.com/maktabaapp/maktaba-sync/pkg/models"
	"github.com/maktabaapp/maktaba-sync/pkg/remote"
	"github.com/maktabaapp/maktaba-sync/pkg/syncqueue"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// OnlineChecker reports the current connectivity state.
type OnlineChecker interface {
	Online() bool
}

// Service toggles favorites. Like progress updates, offline favorite changes
// are queued without an advisory.
type Service struct {
	queue   syncqueue.Store
	library *library.Service
	client  remote.Client
	online  OnlineChecker
	log     logger.Logger
}

func NewService(queue syncqueue.Store, lib *library.Service, client remote.Client, online OnlineChecker) *Service {
	return &Service{
		queue:   queue,
		library: lib,
		client:  client,
		online:  online,
		log:     logger.New(),
	}
}

type CreateFavoriteOptions struct {
	UserID string
	BookID string
}

func (svc *Service) CreateFavorite(ctx context.Context, opts CreateFavoriteOptions) (*models.Favorite, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	favorite := &models.Favorite{
		ID:        id.String(),
		UserID:    opts.UserID,
		BookID:    opts.BookID,
		CreatedAt: time.Now(),
	}

	if err := svc.library.SaveFavorite(ctx, favorite); err != nil {
		return nil, err
	}

	if svc.online.Online() {
		err := svc.client.CreateFavorite(ctx, favorite)
		if err == nil {
			return favorite, nil
		}
		svc.log.Err(err).Warn("create favorite remote error; queueing", logger.Data{"favorite_id": favorite.ID})
	}

	item, err := syncqueue.NewItem(syncqueue.FavoriteCreate{Favorite: favorite})
	if err != nil {
		return nil, err
	}
	if err := svc.queue.Append(ctx, item); err != nil {
		return nil, err
	}
	return favorite, nil
}

func (svc *Service) DeleteFavorite(ctx context.Context, id string) error {
	if err := svc.library.DeleteFavorite(ctx, id); err != nil {
		return err
	}

	if svc.online.Online() {
		err := svc.client.DeleteFavorite(ctx, id)
		if err == nil {
			return nil
		}
		svc.log.Err(err).Warn("delete favorite remote error; queueing", logger.Data{"favorite_id": id})
	}

	item, err := syncqueue.NewItem(syncqueue.FavoriteDelete{ID: id})
	if err != nil {
		return err
	}
	return svc.queue.Append(ctx, item)
}

func (svc *Service) ListFavorites(ctx context.Context, opts library.ListFavoritesOptions) ([]*models.Favorite, error) {
	return svc.library.ListFavorites(ctx, opts)
}
