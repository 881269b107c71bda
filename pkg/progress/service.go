package progress

import (
	"context"
	"time"

	"github.com/maktabaapp/maktaba-sync/pkg/library"
	"github.com/maktabaapp/maktaba-sync/pkg/models"
	"github.com/maktabaapp/maktaba-sync/pkg/remote"
	"github.com/maktabaapp/maktaba-sync/pkg/syncqueue"
	"github.com/robinjoseph08/golib/logger"
)

// OnlineChecker reports the current connectivity state.
type OnlineChecker interface {
	Online() bool
}

// Service records reading progress. Progress updates are silent and
// high-frequency: offline updates are queued without an advisory, and the
// queue keeps only the newest pending update per book.
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

type SaveProgressOptions struct {
	UserID      string
	BookID      string
	CurrentPage int
	TotalPages  int
}

func (svc *Service) SaveProgress(ctx context.Context, opts SaveProgressOptions) (*models.ReadingProgress, error) {
	progress := &models.ReadingProgress{
		BookID:      opts.BookID,
		UserID:      opts.UserID,
		CurrentPage: opts.CurrentPage,
		TotalPages:  opts.TotalPages,
		LastReadAt:  time.Now(),
	}

	if err := svc.library.SaveProgress(ctx, progress); err != nil {
		return nil, err
	}

	if svc.online.Online() {
		err := svc.client.UpsertProgress(ctx, progress)
		if err == nil {
			return progress, nil
		}
		svc.log.Err(err).Warn("upsert progress remote error; queueing", logger.Data{"book_id": progress.BookID})
	}

	item, err := syncqueue.NewItem(syncqueue.ProgressUpsert{Progress: progress})
	if err != nil {
		return nil, err
	}
	if err := svc.queue.Append(ctx, item); err != nil {
		return nil, err
	}
	return progress, nil
}

func (svc *Service) ListProgress(ctx context.Context, opts library.ListProgressOptions) ([]*models.ReadingProgress, error) {
	return svc.library.ListProgress(ctx, opts)
}
