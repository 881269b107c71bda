package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Book is a catalog snapshot row, cached locally so browsing keeps working
// while offline. It is a subset of the backend's book record.
type Book struct {
	bun.BaseModel `bun:"table:cached_books,alias:cb"`

	ID            string    `bun:"id,pk" json:"id"`
	Title         string    `bun:"title,notnull" json:"title"`
	Author        string    `bun:"author" json:"author"`
	TotalPages    int       `bun:"total_pages" json:"total_pages"`
	CoverMimeType *string   `bun:"cover_mime_type" json:"cover_mime_type"`
	CachedAt      time.Time `bun:"cached_at,notnull" json:"cached_at"`
}
