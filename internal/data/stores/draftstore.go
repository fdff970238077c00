package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colonyops/mrview/internal/core/draft"
	"github.com/colonyops/mrview/internal/data/db"
)

// DraftStore implements draft.Store using SQLite.
type DraftStore struct {
	db  *db.DB
	now func() time.Time
}

var _ draft.Store = (*DraftStore)(nil)

// NewDraftStore creates a SQLite-backed draft store.
func NewDraftStore(db *db.DB) *DraftStore {
	return &DraftStore{db: db, now: time.Now}
}

// Load returns the draft for mrID, if any.
func (s *DraftStore) Load(ctx context.Context, mrID string) (draft.Draft, bool, error) {
	var (
		d       = draft.Draft{MRID: mrID}
		updated int64
	)

	err := s.db.Conn().QueryRowContext(ctx,
		"SELECT body, target_id, updated_at FROM drafts WHERE mr_id = ?", mrID,
	).Scan(&d.Body, &d.TargetID, &updated)
	if IsNotFoundError(err) {
		return draft.Draft{}, false, nil
	}
	if err != nil {
		return draft.Draft{}, false, fmt.Errorf("load draft %q: %w", mrID, err)
	}

	d.UpdatedAt = time.Unix(0, updated)
	return d, true, nil
}

// Save upserts d. A blank body deletes the draft instead.
func (s *DraftStore) Save(ctx context.Context, d draft.Draft) error {
	if d.Empty() {
		return s.Delete(ctx, d.MRID)
	}

	updated := d.UpdatedAt
	if updated.IsZero() {
		updated = s.now()
	}

	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO drafts (mr_id, body, target_id, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(mr_id) DO UPDATE SET
				body = excluded.body,
				target_id = excluded.target_id,
				updated_at = excluded.updated_at
		`, d.MRID, d.Body, d.TargetID, updated.UnixNano())
		if err != nil {
			return fmt.Errorf("save draft %q: %w", d.MRID, err)
		}
		return nil
	})
}

// Delete removes the draft for mrID. Missing drafts are not an error.
func (s *DraftStore) Delete(ctx context.Context, mrID string) error {
	if _, err := s.db.Conn().ExecContext(ctx, "DELETE FROM drafts WHERE mr_id = ?", mrID); err != nil {
		return fmt.Errorf("delete draft %q: %w", mrID, err)
	}
	return nil
}
