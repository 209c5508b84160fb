package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/iliyamo/band-manager/internal/model"
)

const songColumns = "id, band_id, title, description, scale, genre, lyrics, chord_structure, lyrics_with_chords, is_active, created_at, updated_at"

func scanSong(row rowScanner) (model.Song, error) {
	var s model.Song
	err := row.Scan(&s.ID, &s.BandID, &s.Title, &s.Description, &s.Scale, &s.Genre, &s.Lyrics,
		&s.ChordStructure, &s.LyricsWithChords, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SongRepo manages a band's song library and the placement of songs on
// master setlists.
type SongRepo struct{ db *sql.DB }

func NewSongRepo(db *sql.DB) *SongRepo { return &SongRepo{db: db} }

// ListByBand returns every song of the band, inactive ones included, by
// title.  Each song carries the setlists it belongs to.
func (r *SongRepo) ListByBand(ctx context.Context, bandID uint64) ([]model.Song, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+songColumns+` FROM songs WHERE band_id = ? ORDER BY title, id`, bandID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Song{}
	index := map[uint64]int{}
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		s.Setlists = []model.SetlistRef{}
		index[s.ID] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	refs, err := r.db.QueryContext(ctx, `
		SELECT ss.song_id, m.id, m.name
		FROM setlist_songs ss
		JOIN master_setlists m ON m.id = ss.setlist_id
		WHERE m.band_id = ?
		ORDER BY m.name, m.id`, bandID)
	if err != nil {
		return nil, err
	}
	defer refs.Close()
	for refs.Next() {
		var songID uint64
		var ref model.SetlistRef
		if err := refs.Scan(&songID, &ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		if i, ok := index[songID]; ok {
			out[i].Setlists = append(out[i].Setlists, ref)
		}
	}
	return out, refs.Err()
}

// Get returns one song with its setlists, or ErrSongNotFound.
func (r *SongRepo) Get(ctx context.Context, id uint64) (model.Song, error) {
	return getSong(ctx, r.db, id)
}

func getSong(ctx context.Context, q querier, id uint64) (model.Song, error) {
	s, err := scanSong(q.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrSongNotFound
	}
	if err != nil {
		return s, err
	}
	rows, err := q.QueryContext(ctx, `
		SELECT m.id, m.name
		FROM setlist_songs ss
		JOIN master_setlists m ON m.id = ss.setlist_id
		WHERE ss.song_id = ?
		ORDER BY m.name, m.id`, id)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	s.Setlists = []model.SetlistRef{}
	for rows.Next() {
		var ref model.SetlistRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return s, err
		}
		s.Setlists = append(s.Setlists, ref)
	}
	return s, rows.Err()
}

// Create inserts a validated song for bandID and appends it to each of
// in.SetlistIDs that belongs to the same band, in one transaction.
func (r *SongRepo) Create(ctx context.Context, bandID uint64, in model.SongInput) (model.Song, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Song{}, err
	}
	defer tx.Rollback()

	s := in.Song(bandID)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO songs (band_id, title, description, scale, genre, lyrics, chord_structure, lyrics_with_chords, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.BandID, s.Title, s.Description, s.Scale, s.Genre, s.Lyrics, s.ChordStructure, s.LyricsWithChords, s.IsActive)
	if err != nil {
		if isMissingParent(err) {
			return model.Song{}, ErrBandNotFound
		}
		return model.Song{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Song{}, err
	}
	for _, setlistID := range in.SetlistIDs {
		owner, err := setlistBand(ctx, tx, setlistID)
		if errors.Is(err, ErrSetlistNotFound) {
			continue
		}
		if err != nil {
			return model.Song{}, err
		}
		if owner != bandID {
			continue
		}
		if err := appendToSetlist(ctx, tx, setlistID, uint64(id), nil); err != nil && !errors.Is(err, ErrConflict) {
			return model.Song{}, err
		}
	}
	s, err = getSong(ctx, tx, uint64(id))
	if err != nil {
		return model.Song{}, err
	}
	return s, tx.Commit()
}

// Update applies a validated patch to a song.
func (r *SongRepo) Update(ctx context.Context, id uint64, patch model.SongPatch) (model.Song, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Song{}, err
	}
	defer tx.Rollback()

	cur, err := scanSong(tx.QueryRowContext(ctx,
		`SELECT `+songColumns+` FROM songs WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Song{}, ErrSongNotFound
	}
	if err != nil {
		return model.Song{}, err
	}
	next := patch.Apply(cur)
	if _, err := tx.ExecContext(ctx, `
		UPDATE songs SET title = ?, description = ?, scale = ?, genre = ?, lyrics = ?,
			chord_structure = ?, lyrics_with_chords = ?, is_active = ?
		WHERE id = ?`,
		next.Title, next.Description, next.Scale, next.Genre, next.Lyrics,
		next.ChordStructure, next.LyricsWithChords, next.IsActive, id); err != nil {
		return model.Song{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Song{}, err
	}
	return r.Get(ctx, id)
}

// Delete removes a song.  Its setlist placements go with it.
func (r *SongRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSongNotFound
	}
	return nil
}

// AddToSetlist places a song on a setlist of the same band.  A nil
// position appends it.  Placing a song twice is a conflict.
func (r *SongRepo) AddToSetlist(ctx context.Context, songID, setlistID uint64, position *int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var songBand uint64
	err = tx.QueryRowContext(ctx, `SELECT band_id FROM songs WHERE id = ?`, songID).Scan(&songBand)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSongNotFound
	}
	if err != nil {
		return err
	}
	listBand, err := setlistBand(ctx, tx, setlistID)
	if err != nil {
		return err
	}
	if songBand != listBand {
		return ErrBandMismatch
	}
	if err := appendToSetlist(ctx, tx, setlistID, songID, position); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveFromSetlist takes a song off a setlist.  The remaining positions
// are left as they are.
func (r *SongRepo) RemoveFromSetlist(ctx context.Context, songID, setlistID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM setlist_songs WHERE setlist_id = ? AND song_id = ?`, setlistID, songID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSetlistSongNotFound
	}
	return nil
}

// ReplaceSetlists makes setlistIDs the exact set of setlists the song is
// on.  Setlists it leaves lose the song; setlists it joins get it
// appended.  Ids of missing setlists or of another band are skipped.
func (r *SongRepo) ReplaceSetlists(ctx context.Context, songID uint64, setlistIDs []uint64) (model.Song, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Song{}, err
	}
	defer tx.Rollback()

	var bandID uint64
	err = tx.QueryRowContext(ctx, `SELECT band_id FROM songs WHERE id = ? FOR UPDATE`, songID).Scan(&bandID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Song{}, ErrSongNotFound
	}
	if err != nil {
		return model.Song{}, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT setlist_id FROM setlist_songs WHERE song_id = ?`, songID)
	if err != nil {
		return model.Song{}, err
	}
	var current []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return model.Song{}, err
		}
		current = append(current, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.Song{}, err
	}

	for _, id := range current {
		if slices.Contains(setlistIDs, id) {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM setlist_songs WHERE setlist_id = ? AND song_id = ?`, id, songID); err != nil {
			return model.Song{}, fmt.Errorf("leave setlist %d: %w", id, err)
		}
	}
	for _, id := range setlistIDs {
		if slices.Contains(current, id) {
			continue
		}
		owner, err := setlistBand(ctx, tx, id)
		if errors.Is(err, ErrSetlistNotFound) {
			continue
		}
		if err != nil {
			return model.Song{}, err
		}
		if owner != bandID {
			continue
		}
		if err := appendToSetlist(ctx, tx, id, songID, nil); err != nil && !errors.Is(err, ErrConflict) {
			return model.Song{}, fmt.Errorf("join setlist %d: %w", id, err)
		}
	}
	s, err := getSong(ctx, tx, songID)
	if err != nil {
		return model.Song{}, err
	}
	return s, tx.Commit()
}

func setlistBand(ctx context.Context, q querier, setlistID uint64) (uint64, error) {
	var bandID uint64
	err := q.QueryRowContext(ctx, `SELECT band_id FROM master_setlists WHERE id = ?`, setlistID).Scan(&bandID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSetlistNotFound
	}
	return bandID, err
}

// appendToSetlist inserts the placement; a nil position means after the
// current last song.
func appendToSetlist(ctx context.Context, q querier, setlistID, songID uint64, position *int) error {
	var pos int
	if position != nil {
		pos = *position
	} else if err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM setlist_songs WHERE setlist_id = ?`, setlistID).Scan(&pos); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO setlist_songs (setlist_id, song_id, position) VALUES (?, ?, ?)`, setlistID, songID, pos)
	if isDuplicate(err) {
		return fmt.Errorf("song already in setlist: %w", ErrConflict)
	}
	return err
}
