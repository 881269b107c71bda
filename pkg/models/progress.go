package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ReadingProgress records how far a user has read in a book. The backend
// upserts on the (book_id, user_id) composite key, so there is at most one
// row per user per book.
type ReadingProgress struct {
	bun.BaseModel `bun:"table:cached_progress,alias:cp"`

	BookID      string    `bun:"book_id,pk" json:"book_id"`
	UserID      string    `bun:"user_id,pk" json:"user_id"`
	CurrentPage int       `bun:"current_page,notnull" json:"current_page"`
	TotalPages  int       `bun:"total_pages,notnull" json:"total_pages"`
	LastReadAt  time.Time `bun:"last_read_at,notnull" json:"last_read_at"`
}

// Percent returns the completion percentage, clamped to [0, 100].
func (p *ReadingProgress) Percent() float64 {
	if p.TotalPages <= 0 {
		return 0
	}
	pct := float64(p.CurrentPage) / float64(p.TotalPages) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
