package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Favorite marks a book as a favorite of a user.
type Favorite struct {
	bun.BaseModel `bun:"table:cached_favorites,alias:cf"`

	ID        string    `bun:"id,pk" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	BookID    string    `bun:"book_id,notnull" json:"book_id"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}
