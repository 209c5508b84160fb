package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/band-manager/internal/model"
)

const paymentColumns = "id, show_id, member_name, amount, notes, created_at, updated_at"

// PaymentRepo stores the per-member payment ledger of shows.  Every call is
// scoped by show id so an entry of another show is reported as not found.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

func scanPayment(row rowScanner) (model.ShowPayment, error) {
	var p model.ShowPayment
	err := row.Scan(&p.ID, &p.ShowID, &p.MemberName, &p.Amount, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListByShow returns the ledger in insertion order.
func (r *PaymentRepo) ListByShow(ctx context.Context, showID uint64) ([]model.ShowPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM show_payments WHERE show_id = ? ORDER BY id`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ShowPayment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns one entry of the show.
func (r *PaymentRepo) Get(ctx context.Context, showID, id uint64) (model.ShowPayment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM show_payments WHERE id = ? AND show_id = ?`, id, showID))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPaymentNotFound
	}
	return p, err
}

// Create appends a validated entry to the show's ledger.
func (r *PaymentRepo) Create(ctx context.Context, showID uint64, in model.PaymentInput) (model.ShowPayment, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO show_payments (show_id, member_name, amount, notes) VALUES (?, ?, ?, ?)`,
		showID, in.MemberName, in.Amount, in.Notes)
	if err != nil {
		if isMissingParent(err) {
			return model.ShowPayment{}, ErrShowNotFound
		}
		return model.ShowPayment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ShowPayment{}, err
	}
	return r.Get(ctx, showID, uint64(id))
}

// Update applies a validated patch to one entry.
func (r *PaymentRepo) Update(ctx context.Context, showID, id uint64, patch model.PaymentPatch) (model.ShowPayment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ShowPayment{}, err
	}
	defer tx.Rollback()

	cur, err := scanPayment(tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM show_payments WHERE id = ? AND show_id = ? FOR UPDATE`, id, showID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ShowPayment{}, ErrPaymentNotFound
	}
	if err != nil {
		return model.ShowPayment{}, err
	}
	next := patch.Apply(cur)
	if _, err := tx.ExecContext(ctx,
		`UPDATE show_payments SET member_name = ?, amount = ?, notes = ? WHERE id = ? AND show_id = ?`,
		next.MemberName, next.Amount, next.Notes, id, showID); err != nil {
		return model.ShowPayment{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.ShowPayment{}, err
	}
	return r.Get(ctx, showID, id)
}

// Delete removes one entry of the show.
func (r *PaymentRepo) Delete(ctx context.Context, showID, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM show_payments WHERE id = ? AND show_id = ?`, id, showID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
