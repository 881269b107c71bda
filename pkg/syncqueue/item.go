package syncqueue

import (
	"time"

	"github.com/google/uuid"
	"github.com/maktabaapp/maktaba-sync/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	KindAnnotation      = "annotation"
	KindReadingProgress = "reading_progress"
	KindFavorite        = "favorite"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// RetryCeiling is the number of failed apply attempts after which an item is
// evicted from the queue into the dead-letter list.
const RetryCeiling = 5

// SyncItem is one deferred mutation, persisted in the queue slot until it is
// applied to the backend or evicted.
type SyncItem struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Operation  string          `json:"operation"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	RetryCount int             `json:"retry_count,omitempty"`
}

// Mutation is a typed offline mutation. The concrete variants make dispatch
// exhaustive at compile time instead of relying on string matches.
type Mutation interface {
	Kind() string
	Operation() string
	payload() (json.RawMessage, error)
}

type AnnotationCreate struct {
	Annotation *models.Annotation
}

func (AnnotationCreate) Kind() string      { return KindAnnotation }
func (AnnotationCreate) Operation() string { return OperationCreate }
func (m AnnotationCreate) payload() (json.RawMessage, error) {
	return marshalPayload(m.Annotation)
}

type annotationUpdatePayload struct {
	ID string `json:"id"`
	*models.AnnotationPatch
}

type AnnotationUpdate struct {
	ID    string
	Patch *models.AnnotationPatch
}

func (AnnotationUpdate) Kind() string      { return KindAnnotation }
func (AnnotationUpdate) Operation() string { return OperationUpdate }
func (m AnnotationUpdate) payload() (json.RawMessage, error) {
	return marshalPayload(annotationUpdatePayload{m.ID, m.Patch})
}

type deletePayload struct {
	ID string `json:"id"`
}

type AnnotationDelete struct {
	ID string
}

func (AnnotationDelete) Kind() string      { return KindAnnotation }
func (AnnotationDelete) Operation() string { return OperationDelete }
func (m AnnotationDelete) payload() (json.RawMessage, error) {
	return marshalPayload(deletePayload{m.ID})
}

type ProgressUpsert struct {
	Progress *models.ReadingProgress
}

func (ProgressUpsert) Kind() string      { return KindReadingProgress }
func (ProgressUpsert) Operation() string { return OperationUpdate }
func (m ProgressUpsert) payload() (json.RawMessage, error) {
	return marshalPayload(m.Progress)
}

type FavoriteCreate struct {
	Favorite *models.Favorite
}

func (FavoriteCreate) Kind() string      { return KindFavorite }
func (FavoriteCreate) Operation() string { return OperationCreate }
func (m FavoriteCreate) payload() (json.RawMessage, error) {
	return marshalPayload(m.Favorite)
}

type FavoriteDelete struct {
	ID string
}

func (FavoriteDelete) Kind() string      { return KindFavorite }
func (FavoriteDelete) Operation() string { return OperationDelete }
func (m FavoriteDelete) payload() (json.RawMessage, error) {
	return marshalPayload(deletePayload{m.ID})
}

func marshalPayload(v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// NewItem wraps a mutation in a queue envelope with a fresh ID.
func NewItem(m Mutation) (*SyncItem, error) {
	payload, err := m.payload()
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &SyncItem{
		ID:         id.String(),
		Kind:       m.Kind(),
		Operation:  m.Operation(),
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}, nil
}

// DecodeMutation restores the typed mutation from a persisted envelope.
func (item *SyncItem) DecodeMutation() (Mutation, error) {
	switch item.Kind {
	case KindAnnotation:
		switch item.Operation {
		case OperationCreate:
			annotation := &models.Annotation{}
			if err := json.Unmarshal(item.Payload, annotation); err != nil {
				return nil, errors.WithStack(err)
			}
			return AnnotationCreate{annotation}, nil
		case OperationUpdate:
			payload := annotationUpdatePayload{AnnotationPatch: &models.AnnotationPatch{}}
			if err := json.Unmarshal(item.Payload, &payload); err != nil {
				return nil, errors.WithStack(err)
			}
			return AnnotationUpdate{payload.ID, payload.AnnotationPatch}, nil
		case OperationDelete:
			payload := deletePayload{}
			if err := json.Unmarshal(item.Payload, &payload); err != nil {
				return nil, errors.WithStack(err)
			}
			return AnnotationDelete{payload.ID}, nil
		}
	case KindReadingProgress:
		progress := &models.ReadingProgress{}
		if err := json.Unmarshal(item.Payload, progress); err != nil {
			return nil, errors.WithStack(err)
		}
		return ProgressUpsert{progress}, nil
	case KindFavorite:
		switch item.Operation {
		case OperationCreate:
			favorite := &models.Favorite{}
			if err := json.Unmarshal(item.Payload, favorite); err != nil {
				return nil, errors.WithStack(err)
			}
			return FavoriteCreate{favorite}, nil
		case OperationDelete:
			payload := deletePayload{}
			if err := json.Unmarshal(item.Payload, &payload); err != nil {
				return nil, errors.WithStack(err)
			}
			return FavoriteDelete{payload.ID}, nil
		}
	}
	return nil, errors.Errorf("unknown mutation %s/%s", item.Kind, item.Operation)
}

// progressBookID extracts the book ID from a pending progress item so the
// store can keep at most one pending progress record per book.
func (item *SyncItem) progressBookID() (string, bool) {
	if item.Kind != KindReadingProgress {
		return "", false
	}
	payload := struct {
		BookID string `json:"book_id"`
	}{}
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return "", false
	}
	return payload.BookID, payload.BookID != ""
}
