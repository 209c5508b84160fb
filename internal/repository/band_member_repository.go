package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/band-manager/internal/model"
)

const memberColumns = "id, band_id, user_id, name, email, phone, role, is_admin, is_active, joined_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (model.BandMember, error) {
	var m model.BandMember
	err := row.Scan(&m.ID, &m.BandID, &m.UserID, &m.Name, &m.Email, &m.Phone, &m.Role, &m.IsAdmin, &m.IsActive, &m.JoinedAt)
	return m, err
}

// MemberRepo manages the roster of a band.  Every call is scoped to a band
// id so a member id from another band is reported as not found.
type MemberRepo struct{ db *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// List returns the roster: admins first, then by name.
func (r *MemberRepo) List(ctx context.Context, bandID uint64) ([]model.BandMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM band_members WHERE band_id = ? ORDER BY is_admin DESC, name, id`, bandID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BandMember{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ActiveNames returns the names of active members, used as ledger name
// suggestions.
func (r *MemberRepo) ActiveNames(ctx context.Context, bandID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM band_members WHERE band_id = ? AND is_active = 1 ORDER BY name`, bandID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Get returns one member of the band.
func (r *MemberRepo) Get(ctx context.Context, bandID, memberID uint64) (model.BandMember, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM band_members WHERE id = ? AND band_id = ?`, memberID, bandID))
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrMemberNotFound
	}
	return m, err
}

// Create adds a roster entry.  A user can appear at most once per band.
func (r *MemberRepo) Create(ctx context.Context, bandID uint64, in model.BandMemberInput) (model.BandMember, error) {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO band_members (band_id, user_id, name, email, phone, role, is_admin, is_active) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		bandID, in.UserID, strings.TrimSpace(in.Name), in.Email, in.Phone, in.Role, in.IsAdmin, active)
	if err != nil {
		if isDuplicate(err) {
			return model.BandMember{}, fmt.Errorf("user already in band: %w", ErrConflict)
		}
		return model.BandMember{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.BandMember{}, err
	}
	return r.Get(ctx, bandID, uint64(id))
}

// Update replaces a roster entry.  Demoting or deactivating the last
// active admin fails with ErrConflict.
func (r *MemberRepo) Update(ctx context.Context, bandID, memberID uint64, in model.BandMemberInput) (model.BandMember, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.BandMember{}, err
	}
	defer tx.Rollback()

	cur, err := scanMember(tx.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM band_members WHERE id = ? AND band_id = ? FOR UPDATE`, memberID, bandID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.BandMember{}, ErrMemberNotFound
	}
	if err != nil {
		return model.BandMember{}, err
	}
	active := cur.IsActive
	if in.IsActive != nil {
		active = *in.IsActive
	}
	if cur.IsAdmin && cur.IsActive && (!in.IsAdmin || !active) {
		if err := lastAdminGuard(ctx, tx, bandID, memberID); err != nil {
			return model.BandMember{}, err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE band_members SET user_id = ?, name = ?, email = ?, phone = ?, role = ?, is_admin = ?, is_active = ? WHERE id = ? AND band_id = ?`,
		in.UserID, strings.TrimSpace(in.Name), in.Email, in.Phone, in.Role, in.IsAdmin, active, memberID, bandID); err != nil {
		if isDuplicate(err) {
			return model.BandMember{}, fmt.Errorf("user already in band: %w", ErrConflict)
		}
		return model.BandMember{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.BandMember{}, err
	}
	return r.Get(ctx, bandID, memberID)
}

// Delete removes a roster entry.  The last active admin cannot be removed.
func (r *MemberRepo) Delete(ctx context.Context, bandID, memberID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var isAdmin, isActive bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_admin, is_active FROM band_members WHERE id = ? AND band_id = ? FOR UPDATE`, memberID, bandID).
		Scan(&isAdmin, &isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMemberNotFound
	}
	if err != nil {
		return err
	}
	if isAdmin && isActive {
		if err := lastAdminGuard(ctx, tx, bandID, memberID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM band_members WHERE id = ? AND band_id = ?`, memberID, bandID); err != nil {
		return err
	}
	return tx.Commit()
}

// lastAdminGuard fails unless another active admin remains in the band.
func lastAdminGuard(ctx context.Context, tx *sql.Tx, bandID, exceptID uint64) error {
	var others int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM band_members WHERE band_id = ? AND is_admin = 1 AND is_active = 1 AND id <> ?`,
		bandID, exceptID).Scan(&others); err != nil {
		return err
	}
	if others == 0 {
		return fmt.Errorf("band needs at least one admin: %w", ErrConflict)
	}
	return nil
}
