package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/band-manager/internal/model"
)

// ShowSearchQuery defines filters & pagination for searching a band's shows.
type ShowSearchQuery struct {
	BandID     uint64
	Venue      string           // case-insensitive substring
	Status     model.ShowStatus // exact; empty matches all
	TimeFilter string           // "upcoming", "past" or "any"
	Page       int
	PageSize   int
}

const maxPageSize = 100

// Normalize clamps paging to sane values.
func (q *ShowSearchQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
}

// Search returns one page of matching shows and the total match count.
// Upcoming shows are ordered soonest first, everything else latest first.
func (r *ShowRepo) Search(ctx context.Context, q ShowSearchQuery) ([]model.Show, int64, error) {
	q.Normalize()
	where := []string{"band_id = ?"}
	args := []any{q.BandID}

	order := "show_date DESC, show_time DESC, id DESC"
	switch strings.ToLower(q.TimeFilter) {
	case "upcoming":
		where = append(where, "show_date >= CURDATE()")
		order = "show_date ASC, show_time ASC, id ASC"
	case "past":
		where = append(where, "show_date < CURDATE()")
	}

	if q.Venue != "" {
		where = append(where, "LOWER(venue) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Venue)+"%")
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT ` + showColumns + ` FROM shows WHERE ` + cond + ` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)
	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Show, 0, q.PageSize)
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
