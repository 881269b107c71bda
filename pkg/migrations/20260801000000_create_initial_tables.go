package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		// Named durable-storage slots. The pending queue, the last-sync
		// marker, and the dead-letter list each live in one row.
		_, err := db.Exec(`
			CREATE TABLE sync_slots (
				name TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE cached_annotations (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				book_id TEXT NOT NULL,
				page_number INTEGER NOT NULL,
				selected_text TEXT,
				note TEXT,
				color TEXT,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_cached_annotations_book_id ON cached_annotations (book_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE cached_progress (
				book_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				current_page INTEGER NOT NULL,
				total_pages INTEGER NOT NULL,
				last_read_at TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (book_id, user_id)
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE cached_favorites (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				book_id TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_cached_favorites_user_book ON cached_favorites (user_id, book_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE cached_books (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				author TEXT,
				total_pages INTEGER,
				cover_mime_type TEXT,
				cached_at TIMESTAMPTZ NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		// Staleness flags for the cached views, set after a drain so reads
		// refresh from the backend.
		_, err = db.Exec(`
			CREATE TABLE view_state (
				scope TEXT PRIMARY KEY,
				stale BOOLEAN NOT NULL DEFAULT FALSE,
				refreshed_at TIMESTAMPTZ
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"view_state", "cached_books", "cached_favorites", "cached_progress", "cached_annotations", "sync_slots"} {
			_, err := db.Exec(`DROP TABLE IF EXISTS ` + table)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
