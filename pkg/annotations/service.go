package annotations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/maktabaapp/maktaba-sync/pkg/library"
	"github.com/maktabaapp/maktaba-sync/pkg/models"
	"github.com/maktabaapp/maktaba-sync/pkg/notify"
	"github.com/maktabaapp/maktaba-sync/pkg/remote"
	"github.com/maktabaapp/maktaba-sync/pkg/syncqueue"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// OnlineChecker reports the current connectivity state.
type OnlineChecker interface {
	Online() bool
}

// Service handles annotation writes for the local reading client. Online
// writes go straight to the backend; offline writes are applied to the local
// cache, queued for the next drain, and acknowledged with an advisory.
type Service struct {
	queue    syncqueue.Store
	library  *library.Service
	client   remote.Client
	online   OnlineChecker
	notifier notify.Notifier
	log      logger.Logger
}

func NewService(queue syncqueue.Store, lib *library.Service, client remote.Client, online OnlineChecker, notifier notify.Notifier) *Service {
	return &Service{
		queue:    queue,
		library:  lib,
		client:   client,
		online:   online,
		notifier: notifier,
		log:      logger.New(),
	}
}

type CreateAnnotationOptions struct {
	UserID       string
	BookID       string
	PageNumber   int
	SelectedText string
	Note         *string
	Color        string
}

func (svc *Service) CreateAnnotation(ctx context.Context, opts CreateAnnotationOptions) (*models.Annotation, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	now := time.Now()
	annotation := &models.Annotation{
		ID:           id.String(),
		UserID:       opts.UserID,
		BookID:       opts.BookID,
		PageNumber:   opts.PageNumber,
		SelectedText: opts.SelectedText,
		Note:         opts.Note,
		Color:        opts.Color,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := svc.library.SaveAnnotation(ctx, annotation); err != nil {
		return nil, err
	}

	if svc.online.Online() {
		err := svc.client.CreateAnnotation(ctx, annotation)
		if err == nil {
			return annotation, nil
		}
		svc.log.Err(err).Warn("create annotation remote error; queueing", logger.Data{"annotation_id": annotation.ID})
	}

	if err := svc.enqueue(ctx, syncqueue.AnnotationCreate{Annotation: annotation}); err != nil {
		return nil, err
	}
	svc.notifier.Info(notify.AnnotationSavedOffline)
	return annotation, nil
}

func (svc *Service) UpdateAnnotation(ctx context.Context, id string, patch *models.AnnotationPatch) error {
	if err := svc.library.PatchAnnotation(ctx, id, patch); err != nil {
		return err
	}

	if svc.online.Online() {
		err := svc.client.UpdateAnnotation(ctx, id, patch)
		if err == nil {
			return nil
		}
		svc.log.Err(err).Warn("update annotation remote error; queueing", logger.Data{"annotation_id": id})
	}

	if err := svc.enqueue(ctx, syncqueue.AnnotationUpdate{ID: id, Patch: patch}); err != nil {
		return err
	}
	svc.notifier.Info(notify.AnnotationUpdatedOffline)
	return nil
}

func (svc *Service) DeleteAnnotation(ctx context.Context, id string) error {
	if err := svc.library.DeleteAnnotation(ctx, id); err != nil {
		return err
	}

	if svc.online.Online() {
		err := svc.client.DeleteAnnotation(ctx, id)
		if err == nil {
			return nil
		}
		svc.log.Err(err).Warn("delete annotation remote error; queueing", logger.Data{"annotation_id": id})
	}

	if err := svc.enqueue(ctx, syncqueue.AnnotationDelete{ID: id}); err != nil {
		return err
	}
	svc.notifier.Info(notify.AnnotationDeletedOffline)
	return nil
}

func (svc *Service) ListAnnotations(ctx context.Context, opts library.ListAnnotationsOptions) ([]*models.Annotation, error) {
	return svc.library.ListAnnotations(ctx, opts)
}

func (svc *Service) enqueue(ctx context.Context, m syncqueue.Mutation) error {
	item, err := syncqueue.NewItem(m)
	if err != nil {
		return err
	}
	return svc.queue.Append(ctx, item)
}
