package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Annotation is a highlight or margin note on a book page. The same shape is
// used for the backend wire format and the local cached view.
type Annotation struct {
	bun.BaseModel `bun:"table:cached_annotations,alias:ca"`

	ID           string    `bun:"id,pk" json:"id"`
	UserID       string    `bun:"user_id,notnull" json:"user_id"`
	BookID       string    `bun:"book_id,notnull" json:"book_id"`
	PageNumber   int       `bun:"page_number,notnull" json:"page_number"`
	SelectedText string    `bun:"selected_text" json:"selected_text"`
	Note         *string   `bun:"note" json:"note,omitempty"`
	Color        string    `bun:"color" json:"color"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// AnnotationPatch carries the mutable fields of an annotation update. Nil
// fields are left untouched by the backend.
type AnnotationPatch struct {
	PageNumber   *int    `json:"page_number,omitempty"`
	SelectedText *string `json:"selected_text,omitempty"`
	Note         *string `json:"note,omitempty"`
	Color        *string `json:"color,omitempty"`
}
