package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/band-manager/internal/model"
)

const showColumns = `id, band_id, venue, show_date, show_time, event_manager, show_members, piece_count,
	description, poster, status, payment, band_fund_amount, created_at, updated_at`

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

func scanShow(row rowScanner) (model.Show, error) {
	var (
		s       model.Show
		members sql.NullString
		status  string
	)
	err := row.Scan(&s.ID, &s.BandID, &s.Venue, &s.ShowDate, &s.ShowTime, &s.EventManager, &members,
		&s.PieceCount, &s.Description, &s.Poster, &status, &s.Payment, &s.BandFundAmount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	s.Status = model.ShowStatus(status)
	if members.Valid && members.String != "" {
		if err := json.Unmarshal([]byte(members.String), &s.ShowMembers); err != nil {
			return s, fmt.Errorf("decode show_members of show %d: %w", s.ID, err)
		}
	}
	return s, nil
}

// show_members is stored as a JSON array in a TEXT column.
func encodeMembers(members []string) (any, error) {
	if len(members) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(members)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Create inserts a validated show and returns the stored row.
func (r *ShowRepo) Create(ctx context.Context, s model.Show) (model.Show, error) {
	members, err := encodeMembers(s.ShowMembers)
	if err != nil {
		return model.Show{}, err
	}
	const q = `INSERT INTO shows (band_id, venue, show_date, show_time, event_manager, show_members, piece_count,
		description, poster, status, payment, band_fund_amount) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.BandID, s.Venue, s.ShowDate, s.ShowTime, s.EventManager, members,
		s.PieceCount, s.Description, s.Poster, string(s.Status), s.Payment, s.BandFundAmount)
	if err != nil {
		if isMissingParent(err) {
			return model.Show{}, ErrBandNotFound
		}
		return model.Show{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Show{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound if
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (model.Show, error) {
	s, err := scanShow(r.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrShowNotFound
	}
	return s, err
}

// ListByBand returns a band's shows, latest first.
func (r *ShowRepo) ListByBand(ctx context.Context, bandID uint64) ([]model.Show, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+showColumns+` FROM shows WHERE band_id = ? ORDER BY show_date DESC, show_time DESC, id DESC`, bandID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Show{}
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update overwrites every editable column of the show.  The band of a show
// never changes.
func (r *ShowRepo) Update(ctx context.Context, id uint64, s model.Show) (model.Show, error) {
	members, err := encodeMembers(s.ShowMembers)
	if err != nil {
		return model.Show{}, err
	}
	const q = `UPDATE shows SET venue = ?, show_date = ?, show_time = ?, event_manager = ?, show_members = ?,
		piece_count = ?, description = ?, poster = ?, status = ?, payment = ?, band_fund_amount = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, s.Venue, s.ShowDate, s.ShowTime, s.EventManager, members,
		s.PieceCount, s.Description, s.Poster, string(s.Status), s.Payment, s.BandFundAmount, id); err != nil {
		return model.Show{}, err
	}
	// A no-op update affects zero rows, so existence comes from the re-read.
	return r.GetByID(ctx, id)
}

// SetPoster stores or clears the poster reference.
func (r *ShowRepo) SetPoster(ctx context.Context, id uint64, poster *string) (model.Show, error) {
	if _, err := r.db.ExecContext(ctx, `UPDATE shows SET poster = ? WHERE id = ?`, poster, id); err != nil {
		return model.Show{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a show; its payments go with it through ON DELETE CASCADE.
func (r *ShowRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrShowNotFound
	}
	return nil
}

// FundTotal sums band_fund_amount over the band's shows.  Shows records
// how many shows contributed a value.
func (r *ShowRepo) FundTotal(ctx context.Context, bandID uint64) (model.BandFund, error) {
	f := model.BandFund{BandID: bandID}
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(band_fund_amount), 0), COUNT(band_fund_amount) FROM shows WHERE band_id = ?`, bandID).
		Scan(&f.Total, &f.Shows)
	return f, err
}
