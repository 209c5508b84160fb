package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/band-manager/internal/model"
)

// BandRepo manages bands and the membership checks guarding them.
type BandRepo struct{ db *sql.DB }

func NewBandRepo(db *sql.DB) *BandRepo { return &BandRepo{db: db} }

// Create inserts a band and makes the creator its first active admin, in
// one transaction.
func (r *BandRepo) Create(ctx context.Context, name string, creator model.User) (model.Band, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Band{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO bands (name) VALUES (?)`, strings.TrimSpace(name))
	if err != nil {
		return model.Band{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Band{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO band_members (band_id, user_id, name, email, is_admin, is_active) VALUES (?, ?, ?, ?, 1, 1)`,
		id, creator.ID, creator.FullName, creator.Email); err != nil {
		return model.Band{}, err
	}
	var b model.Band
	if err := tx.QueryRowContext(ctx, `SELECT id, name, created_at, updated_at FROM bands WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return model.Band{}, err
	}
	return b, tx.Commit()
}

// GetByID returns ErrBandNotFound when the band does not exist.
func (r *BandRepo) GetByID(ctx context.Context, id uint64) (model.Band, error) {
	var b model.Band
	err := r.db.QueryRowContext(ctx, `SELECT id, name, created_at, updated_at FROM bands WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrBandNotFound
	}
	return b, err
}

// ListForUser returns the bands the user is an active member of, by name.
func (r *BandRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Band, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.name, b.created_at, b.updated_at
		FROM bands b
		JOIN band_members m ON m.band_id = b.id
		WHERE m.user_id = ? AND m.is_active = 1
		ORDER BY b.name, b.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Band{}
	for rows.Next() {
		var b model.Band
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Rename changes the band name.
func (r *BandRepo) Rename(ctx context.Context, id uint64, name string) (model.Band, error) {
	// RowsAffected is zero for an unchanged name too, so existence is
	// decided by the re-read.
	if _, err := r.db.ExecContext(ctx, `UPDATE bands SET name = ? WHERE id = ?`, strings.TrimSpace(name), id); err != nil {
		return model.Band{}, err
	}
	return r.GetByID(ctx, id)
}

// Membership returns the caller's active membership of a band, or
// ErrForbidden when there is none.
func (r *BandRepo) Membership(ctx context.Context, bandID, userID uint64) (model.BandMember, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM band_members WHERE band_id = ? AND user_id = ? AND is_active = 1 LIMIT 1`,
		bandID, userID)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrForbidden
	}
	return m, err
}

// BandOfShow returns the band owning a show, or ErrShowNotFound.
func (r *BandRepo) BandOfShow(ctx context.Context, showID uint64) (uint64, error) {
	var bandID uint64
	err := r.db.QueryRowContext(ctx, `SELECT band_id FROM shows WHERE id = ?`, showID).Scan(&bandID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrShowNotFound
	}
	return bandID, err
}

// BandOfSong returns the band owning a song, or ErrSongNotFound.
func (r *BandRepo) BandOfSong(ctx context.Context, songID uint64) (uint64, error) {
	var bandID uint64
	err := r.db.QueryRowContext(ctx, `SELECT band_id FROM songs WHERE id = ?`, songID).Scan(&bandID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSongNotFound
	}
	return bandID, err
}

// BandOfSetlist returns the band owning a master setlist, or
// ErrSetlistNotFound.
func (r *BandRepo) BandOfSetlist(ctx context.Context, setlistID uint64) (uint64, error) {
	var bandID uint64
	err := r.db.QueryRowContext(ctx, `SELECT band_id FROM master_setlists WHERE id = ?`, setlistID).Scan(&bandID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSetlistNotFound
	}
	return bandID, err
}
