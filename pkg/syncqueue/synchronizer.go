package syncqueue

import (
	"context"

	"github.com/maktabaapp/maktaba-sync/pkg/remote"
	"github.com/robinjoseph08/golib/logger"
)

// Synchronizer applies one queued item to the backend. A false return means
// the item stays queued and its retry count is bumped by the drainer; errors
// never propagate past this boundary.
type Synchronizer struct {
	client remote.Client
	log    logger.Logger
}

func NewSynchronizer(client remote.Client) *Synchronizer {
	return &Synchronizer{
		client: client,
		log:    logger.New(),
	}
}

func (s *Synchronizer) Apply(ctx context.Context, item *SyncItem) bool {
	mutation, err := item.DecodeMutation()
	if err != nil {
		// An undecodable item can never succeed; it keeps failing until the
		// retry ceiling evicts it.
		s.log.Err(err).Error("decode sync item error", logger.Data{"item_id": item.ID, "kind": item.Kind, "operation": item.Operation})
		return false
	}

	switch m := mutation.(type) {
	case AnnotationCreate:
		err = s.client.CreateAnnotation(ctx, m.Annotation)
	case AnnotationUpdate:
		err = s.client.UpdateAnnotation(ctx, m.ID, m.Patch)
	case AnnotationDelete:
		err = s.client.DeleteAnnotation(ctx, m.ID)
	case ProgressUpsert:
		err = s.client.UpsertProgress(ctx, m.Progress)
	case FavoriteCreate:
		err = s.client.CreateFavorite(ctx, m.Favorite)
	case FavoriteDelete:
		err = s.client.DeleteFavorite(ctx, m.ID)
	}

	if err != nil {
		s.log.Err(err).Warn("apply sync item error", logger.Data{"item_id": item.ID, "kind": item.Kind, "operation": item.Operation, "retry_count": item.RetryCount})
		return false
	}
	return true
}
