package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/band-manager/internal/model"
)

// setlistSelect reads a setlist with the number of songs on it.
const setlistSelect = `
	SELECT m.id, m.band_id, m.name, m.description, m.is_active, COUNT(ss.id), m.created_at, m.updated_at
	FROM master_setlists m
	LEFT JOIN setlist_songs ss ON ss.setlist_id = m.id`

func scanSetlist(row rowScanner) (model.MasterSetlist, error) {
	var m model.MasterSetlist
	err := row.Scan(&m.ID, &m.BandID, &m.Name, &m.Description, &m.IsActive, &m.SongCount, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// SetlistRepo manages a band's master setlists and the order of songs on
// them.
type SetlistRepo struct{ db *sql.DB }

func NewSetlistRepo(db *sql.DB) *SetlistRepo { return &SetlistRepo{db: db} }

// ListByBand returns the band's setlists by name with their song counts.
func (r *SetlistRepo) ListByBand(ctx context.Context, bandID uint64) ([]model.MasterSetlist, error) {
	rows, err := r.db.QueryContext(ctx,
		setlistSelect+` WHERE m.band_id = ? GROUP BY m.id ORDER BY m.name, m.id`, bandID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.MasterSetlist{}
	for rows.Next() {
		m, err := scanSetlist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get returns one setlist, or ErrSetlistNotFound.
func (r *SetlistRepo) Get(ctx context.Context, id uint64) (model.MasterSetlist, error) {
	m, err := scanSetlist(r.db.QueryRowContext(ctx, setlistSelect+` WHERE m.id = ? GROUP BY m.id`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrSetlistNotFound
	}
	return m, err
}

// WithSongs returns a setlist and its songs in play order.
func (r *SetlistRepo) WithSongs(ctx context.Context, id uint64) (model.SetlistWithSongs, error) {
	m, err := r.Get(ctx, id)
	if err != nil {
		return model.SetlistWithSongs{}, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.scale, s.genre, ss.position
		FROM setlist_songs ss
		JOIN songs s ON s.id = ss.song_id
		WHERE ss.setlist_id = ?
		ORDER BY ss.position, ss.id`, id)
	if err != nil {
		return model.SetlistWithSongs{}, err
	}
	defer rows.Close()
	out := model.SetlistWithSongs{MasterSetlist: m, Songs: []model.SetlistSong{}}
	for rows.Next() {
		var s model.SetlistSong
		if err := rows.Scan(&s.ID, &s.Title, &s.Scale, &s.Genre, &s.Position); err != nil {
			return model.SetlistWithSongs{}, err
		}
		out.Songs = append(out.Songs, s)
	}
	if err := rows.Err(); err != nil {
		return model.SetlistWithSongs{}, err
	}
	out.SongCount = len(out.Songs)
	return out, nil
}

// Create inserts a validated setlist for bandID.
func (r *SetlistRepo) Create(ctx context.Context, bandID uint64, in model.SetlistInput) (model.MasterSetlist, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO master_setlists (band_id, name, description) VALUES (?, ?, ?)`,
		bandID, in.Name, in.Description)
	if err != nil {
		if isMissingParent(err) {
			return model.MasterSetlist{}, ErrBandNotFound
		}
		return model.MasterSetlist{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.MasterSetlist{}, err
	}
	return r.Get(ctx, uint64(id))
}

// Update applies a validated patch to a setlist.
func (r *SetlistRepo) Update(ctx context.Context, id uint64, patch model.SetlistPatch) (model.MasterSetlist, error) {
	cur, err := r.Get(ctx, id)
	if err != nil {
		return model.MasterSetlist{}, err
	}
	next := patch.Apply(cur)
	if _, err := r.db.ExecContext(ctx,
		`UPDATE master_setlists SET name = ?, description = ? WHERE id = ?`,
		next.Name, next.Description, id); err != nil {
		return model.MasterSetlist{}, err
	}
	return r.Get(ctx, id)
}

// Delete removes a setlist and its song placements.  The songs stay in
// the library.
func (r *SetlistRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM master_setlists WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSetlistNotFound
	}
	return nil
}

// Reorder gives each listed song its index as position, in one
// transaction.  Ids of songs not on the setlist are ignored and unlisted
// songs keep their position.
func (r *SetlistRepo) Reorder(ctx context.Context, id uint64, songIDs []uint64) (model.SetlistWithSongs, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.SetlistWithSongs{}, err
	}
	defer tx.Rollback()

	if _, err := setlistBand(ctx, tx, id); err != nil {
		return model.SetlistWithSongs{}, err
	}
	for pos, songID := range songIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE setlist_songs SET position = ? WHERE setlist_id = ? AND song_id = ?`,
			pos, id, songID); err != nil {
			return model.SetlistWithSongs{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.SetlistWithSongs{}, err
	}
	return r.WithSongs(ctx, id)
}
