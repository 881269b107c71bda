package library

import (
	"time"

	"github.com/uptrace/bun"
)

// View scopes tracked in view_state.
const (
	ScopeAnnotations = "annotations"
	ScopeProgress    = "progress"
	ScopeFavorites   = "favorites"
	ScopeBooks       = "books"
)

var allScopes = []string{ScopeAnnotations, ScopeProgress, ScopeFavorites, ScopeBooks}

// viewState is the staleness flag for one cached view.
type viewState struct {
	bun.BaseModel `bun:"table:view_state,alias:vs"`

	Scope       string     `bun:"scope,pk"`
	Stale       bool       `bun:"stale,notnull"`
	RefreshedAt *time.Time `bun:"refreshed_at"`
}
