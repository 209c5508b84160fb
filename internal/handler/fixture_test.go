package handler_test

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/band-manager/internal/model"
	"github.com/iliyamo/band-manager/internal/queue"
	"github.com/iliyamo/band-manager/internal/repository"
	"github.com/iliyamo/band-manager/internal/utils"
)

// memDB is an in-memory stand-in for every repository the handlers use.
type memDB struct {
	mu       sync.Mutex
	next     uint64
	users    map[uint64]model.User
	tokens   map[string]memToken
	bands    map[uint64]model.Band
	members  map[uint64]model.BandMember
	shows    map[uint64]model.Show
	payments map[uint64]model.ShowPayment
	songs    map[uint64]model.Song
	setlists map[uint64]model.MasterSetlist
	placed   []memPlacement
}

type memPlacement struct {
	id        uint64
	setlistID uint64
	songID    uint64
	position  int
}

type memToken struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[uint64]model.User{},
		tokens:   map[string]memToken{},
		bands:    map[uint64]model.Band{},
		members:  map[uint64]model.BandMember{},
		shows:    map[uint64]model.Show{},
		payments: map[uint64]model.ShowPayment{},
		songs:    map[uint64]model.Song{},
		setlists: map[uint64]model.MasterSetlist{},
	}
}

func (db *memDB) id() uint64 { db.next++; return db.next }

// users

type memUsers struct{ *memDB }

func (m memUsers) Create(_ context.Context, email, password, fullName string, cost int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u := model.User{ID: m.id(), Email: email, PasswordHash: hash, FullName: fullName, IsActive: true}
	m.users[u.ID] = u
	return u.ID, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return u, repository.ErrUserNotFound
	}
	return u, nil
}

func (m memUsers) UpdatePasswordHash(_ context.Context, id uint64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

// tokens

type memTokens struct{ *memDB }

func (m memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[hash] = memToken{userID: userID, exp: exp}
	return nil
}

func (m memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok || t.revoked || time.Now().After(t.exp) {
		return 0, repository.ErrTokenInvalid
	}
	return t.userID, nil
}

func (m memTokens) Rotate(_ context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[oldHash]
	if !ok || t.revoked || t.userID != userID {
		return repository.ErrTokenInvalid
	}
	t.revoked = true
	m.tokens[oldHash] = t
	m.tokens[newHash] = memToken{userID: userID, exp: exp}
	return nil
}

func (m memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[hash]; ok {
		t.revoked = true
		m.tokens[hash] = t
	}
	return nil
}

func (m memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, t := range m.tokens {
		if t.userID == userID {
			t.revoked = true
			m.tokens[h] = t
		}
	}
	return nil
}

// bands and access

type memBands struct{ *memDB }

func (m memBands) Create(_ context.Context, name string, creator model.User) (model.Band, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := model.Band{ID: m.id(), Name: name}
	m.bands[b.ID] = b
	uid := creator.ID
	mem := model.BandMember{ID: m.id(), BandID: b.ID, UserID: &uid, Name: creator.FullName, IsAdmin: true, IsActive: true}
	m.members[mem.ID] = mem
	return b, nil
}

func (m memBands) GetByID(_ context.Context, id uint64) (model.Band, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bands[id]
	if !ok {
		return b, repository.ErrBandNotFound
	}
	return b, nil
}

func (m memBands) ListForUser(_ context.Context, userID uint64) ([]model.Band, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Band{}
	for _, mem := range m.members {
		if mem.UserID != nil && *mem.UserID == userID && mem.IsActive {
			out = append(out, m.bands[mem.BandID])
		}
	}
	return out, nil
}

func (m memBands) Rename(_ context.Context, id uint64, name string) (model.Band, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bands[id]
	if !ok {
		return b, repository.ErrBandNotFound
	}
	b.Name = name
	m.bands[id] = b
	return b, nil
}

func (m memBands) Membership(_ context.Context, bandID, userID uint64) (model.BandMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range m.members {
		if mem.BandID == bandID && mem.UserID != nil && *mem.UserID == userID && mem.IsActive {
			return mem, nil
		}
	}
	return model.BandMember{}, repository.ErrForbidden
}

func (m memBands) BandOfShow(_ context.Context, showID uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shows[showID]
	if !ok {
		return 0, repository.ErrShowNotFound
	}
	return s.BandID, nil
}

func (m memBands) BandOfSong(_ context.Context, songID uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[songID]
	if !ok {
		return 0, repository.ErrSongNotFound
	}
	return s.BandID, nil
}

func (m memBands) BandOfSetlist(_ context.Context, setlistID uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.setlists[setlistID]
	if !ok {
		return 0, repository.ErrSetlistNotFound
	}
	return l.BandID, nil
}

// roster

type memMembers struct{ *memDB }

func (m memMembers) List(_ context.Context, bandID uint64) ([]model.BandMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.BandMember{}
	for _, mem := range m.members {
		if mem.BandID == bandID {
			out = append(out, mem)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memMembers) ActiveNames(ctx context.Context, bandID uint64) ([]string, error) {
	all, _ := m.List(ctx, bandID)
	var names []string
	for _, mem := range all {
		if mem.IsActive {
			names = append(names, mem.Name)
		}
	}
	return names, nil
}

func (m memMembers) Get(_ context.Context, bandID, memberID uint64) (model.BandMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.members[memberID]
	if !ok || mem.BandID != bandID {
		return model.BandMember{}, repository.ErrMemberNotFound
	}
	return mem, nil
}

func (m memMembers) Create(_ context.Context, bandID uint64, in model.BandMemberInput) (model.BandMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem := model.BandMember{ID: m.id(), BandID: bandID, UserID: in.UserID, Name: in.Name, Email: in.Email,
		Phone: in.Phone, Role: in.Role, IsAdmin: in.IsAdmin, IsActive: in.IsActive == nil || *in.IsActive}
	m.members[mem.ID] = mem
	return mem, nil
}

func (m memMembers) Update(_ context.Context, bandID, memberID uint64, in model.BandMemberInput) (model.BandMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.members[memberID]
	if !ok || mem.BandID != bandID {
		return model.BandMember{}, repository.ErrMemberNotFound
	}
	mem.Name, mem.IsAdmin = in.Name, in.IsAdmin
	m.members[memberID] = mem
	return mem, nil
}

func (m memMembers) Delete(_ context.Context, bandID, memberID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.members[memberID]
	if !ok || mem.BandID != bandID {
		return repository.ErrMemberNotFound
	}
	if mem.IsAdmin {
		admins := 0
		for _, o := range m.members {
			if o.BandID == bandID && o.IsAdmin && o.IsActive {
				admins++
			}
		}
		if admins == 1 {
			return fmt.Errorf("band needs at least one admin: %w", repository.ErrConflict)
		}
	}
	delete(m.members, memberID)
	return nil
}

// shows

type memShows struct{ *memDB }

func (m memShows) Create(_ context.Context, s model.Show) (model.Show, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.id()
	m.shows[s.ID] = s
	return s, nil
}

func (m memShows) GetByID(_ context.Context, id uint64) (model.Show, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shows[id]
	if !ok {
		return s, repository.ErrShowNotFound
	}
	return s, nil
}

func (m memShows) ListByBand(_ context.Context, bandID uint64) ([]model.Show, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Show{}
	for _, s := range m.shows {
		if s.BandID == bandID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].ShowDate.Before(out[i].ShowDate) })
	return out, nil
}

func (m memShows) Search(ctx context.Context, q repository.ShowSearchQuery) ([]model.Show, int64, error) {
	all, _ := m.ListByBand(ctx, q.BandID)
	now := time.Now()
	today := model.NewDate(now.Year(), now.Month(), now.Day())
	var hits []model.Show
	for _, s := range all {
		switch {
		case q.Venue != "" && !strings.Contains(strings.ToLower(s.Venue), strings.ToLower(q.Venue)):
		case q.Status != "" && s.Status != q.Status:
		case q.TimeFilter == "upcoming" && s.ShowDate.Before(today):
		case q.TimeFilter == "past" && !s.ShowDate.Before(today):
		default:
			hits = append(hits, s)
		}
	}
	total := int64(len(hits))
	start := (q.Page - 1) * q.PageSize
	if start > len(hits) {
		start = len(hits)
	}
	end := min(start+q.PageSize, len(hits))
	return append([]model.Show{}, hits[start:end]...), total, nil
}

func (m memShows) Update(_ context.Context, id uint64, s model.Show) (model.Show, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shows[id]; !ok {
		return model.Show{}, repository.ErrShowNotFound
	}
	s.ID = id
	m.shows[id] = s
	return s, nil
}

func (m memShows) SetPoster(_ context.Context, id uint64, poster *string) (model.Show, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shows[id]
	if !ok {
		return s, repository.ErrShowNotFound
	}
	s.Poster = poster
	m.shows[id] = s
	return s, nil
}

func (m memShows) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shows[id]; !ok {
		return repository.ErrShowNotFound
	}
	delete(m.shows, id)
	for pid, p := range m.payments {
		if p.ShowID == id {
			delete(m.payments, pid)
		}
	}
	return nil
}

func (m memShows) FundTotal(_ context.Context, bandID uint64) (model.BandFund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := model.BandFund{BandID: bandID}
	for _, s := range m.shows {
		if s.BandID == bandID && s.BandFundAmount != nil {
			f.Total = f.Total.Add(*s.BandFundAmount)
			f.Shows++
		}
	}
	return f, nil
}

// payments

type memPayments struct{ *memDB }

func (m memPayments) ListByShow(_ context.Context, showID uint64) ([]model.ShowPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.ShowPayment{}
	for _, p := range m.payments {
		if p.ShowID == showID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memPayments) Get(_ context.Context, showID, id uint64) (model.ShowPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || p.ShowID != showID {
		return model.ShowPayment{}, repository.ErrPaymentNotFound
	}
	return p, nil
}

func (m memPayments) Create(_ context.Context, showID uint64, in model.PaymentInput) (model.ShowPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shows[showID]; !ok {
		return model.ShowPayment{}, repository.ErrShowNotFound
	}
	p := model.ShowPayment{ID: m.id(), ShowID: showID, MemberName: in.MemberName, Amount: *in.Amount, Notes: in.Notes}
	m.payments[p.ID] = p
	return p, nil
}

func (m memPayments) Update(_ context.Context, showID, id uint64, patch model.PaymentPatch) (model.ShowPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || p.ShowID != showID {
		return model.ShowPayment{}, repository.ErrPaymentNotFound
	}
	p = patch.Apply(p)
	m.payments[id] = p
	return p, nil
}

func (m memPayments) Delete(_ context.Context, showID, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || p.ShowID != showID {
		return repository.ErrPaymentNotFound
	}
	delete(m.payments, id)
	return nil
}

// songs and setlists

type memSongs struct{ *memDB }

// withSetlists fills in the setlists of s; the caller holds mu.
func (m memSongs) withSetlists(s model.Song) model.Song {
	s.Setlists = []model.SetlistRef{}
	for _, p := range m.placed {
		if p.songID == s.ID {
			l := m.setlists[p.setlistID]
			s.Setlists = append(s.Setlists, model.SetlistRef{ID: l.ID, Name: l.Name})
		}
	}
	sort.Slice(s.Setlists, func(i, j int) bool { return s.Setlists[i].Name < s.Setlists[j].Name })
	return s
}

// place appends songID to setlistID; the caller holds mu.
func (m memSongs) place(songID, setlistID uint64, position *int) error {
	next := 0
	for _, p := range m.placed {
		if p.setlistID != setlistID {
			continue
		}
		if p.songID == songID {
			return fmt.Errorf("song already in setlist: %w", repository.ErrConflict)
		}
		next = max(next, p.position+1)
	}
	if position != nil {
		next = *position
	}
	m.placed = append(m.placed, memPlacement{id: m.id(), setlistID: setlistID, songID: songID, position: next})
	return nil
}

func (m memSongs) ListByBand(_ context.Context, bandID uint64) ([]model.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Song{}
	for _, s := range m.songs {
		if s.BandID == bandID {
			out = append(out, m.withSetlists(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m memSongs) Get(_ context.Context, id uint64) (model.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[id]
	if !ok {
		return s, repository.ErrSongNotFound
	}
	return m.withSetlists(s), nil
}

func (m memSongs) Create(_ context.Context, bandID uint64, in model.SongInput) (model.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := in.Song(bandID)
	s.ID = m.id()
	m.songs[s.ID] = s
	for _, id := range in.SetlistIDs {
		if l, ok := m.setlists[id]; ok && l.BandID == bandID {
			_ = m.place(s.ID, id, nil)
		}
	}
	return m.withSetlists(s), nil
}

func (m memSongs) Update(_ context.Context, id uint64, patch model.SongPatch) (model.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[id]
	if !ok {
		return s, repository.ErrSongNotFound
	}
	s = patch.Apply(s)
	m.songs[id] = s
	return m.withSetlists(s), nil
}

func (m memSongs) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.songs[id]; !ok {
		return repository.ErrSongNotFound
	}
	delete(m.songs, id)
	kept := m.placed[:0]
	for _, p := range m.placed {
		if p.songID != id {
			kept = append(kept, p)
		}
	}
	m.placed = kept
	return nil
}

func (m memSongs) AddToSetlist(_ context.Context, songID, setlistID uint64, position *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[songID]
	if !ok {
		return repository.ErrSongNotFound
	}
	l, ok := m.setlists[setlistID]
	if !ok {
		return repository.ErrSetlistNotFound
	}
	if s.BandID != l.BandID {
		return repository.ErrBandMismatch
	}
	return m.place(songID, setlistID, position)
}

func (m memSongs) RemoveFromSetlist(_ context.Context, songID, setlistID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.placed {
		if p.songID == songID && p.setlistID == setlistID {
			m.placed = append(m.placed[:i], m.placed[i+1:]...)
			return nil
		}
	}
	return repository.ErrSetlistSongNotFound
}

func (m memSongs) ReplaceSetlists(_ context.Context, songID uint64, setlistIDs []uint64) (model.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[songID]
	if !ok {
		return s, repository.ErrSongNotFound
	}
	kept := m.placed[:0]
	for _, p := range m.placed {
		if p.songID != songID || slices.Contains(setlistIDs, p.setlistID) {
			kept = append(kept, p)
		}
	}
	m.placed = kept
	for _, id := range setlistIDs {
		if l, ok := m.setlists[id]; ok && l.BandID == s.BandID {
			_ = m.place(songID, id, nil)
		}
	}
	return m.withSetlists(s), nil
}

type memSetlists struct{ *memDB }

// counted fills in the song count of l; the caller holds mu.
func (m memSetlists) counted(l model.MasterSetlist) model.MasterSetlist {
	l.SongCount = 0
	for _, p := range m.placed {
		if p.setlistID == l.ID {
			l.SongCount++
		}
	}
	return l
}

func (m memSetlists) ListByBand(_ context.Context, bandID uint64) ([]model.MasterSetlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.MasterSetlist{}
	for _, l := range m.setlists {
		if l.BandID == bandID {
			out = append(out, m.counted(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memSetlists) Get(_ context.Context, id uint64) (model.MasterSetlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.setlists[id]
	if !ok {
		return l, repository.ErrSetlistNotFound
	}
	return m.counted(l), nil
}

func (m memSetlists) WithSongs(ctx context.Context, id uint64) (model.SetlistWithSongs, error) {
	l, err := m.Get(ctx, id)
	if err != nil {
		return model.SetlistWithSongs{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []memPlacement
	for _, p := range m.placed {
		if p.setlistID == id {
			rows = append(rows, p)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].position != rows[j].position {
			return rows[i].position < rows[j].position
		}
		return rows[i].id < rows[j].id
	})
	out := model.SetlistWithSongs{MasterSetlist: l, Songs: []model.SetlistSong{}}
	for _, p := range rows {
		s := m.songs[p.songID]
		out.Songs = append(out.Songs, model.SetlistSong{ID: s.ID, Title: s.Title, Scale: s.Scale, Genre: s.Genre, Position: p.position})
	}
	return out, nil
}

func (m memSetlists) Create(_ context.Context, bandID uint64, in model.SetlistInput) (model.MasterSetlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := model.MasterSetlist{ID: m.id(), BandID: bandID, Name: in.Name, Description: in.Description, IsActive: true}
	m.setlists[l.ID] = l
	return l, nil
}

func (m memSetlists) Update(_ context.Context, id uint64, patch model.SetlistPatch) (model.MasterSetlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.setlists[id]
	if !ok {
		return l, repository.ErrSetlistNotFound
	}
	l = patch.Apply(l)
	m.setlists[id] = l
	return m.counted(l), nil
}

func (m memSetlists) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.setlists[id]; !ok {
		return repository.ErrSetlistNotFound
	}
	delete(m.setlists, id)
	kept := m.placed[:0]
	for _, p := range m.placed {
		if p.setlistID != id {
			kept = append(kept, p)
		}
	}
	m.placed = kept
	return nil
}

func (m memSetlists) Reorder(ctx context.Context, id uint64, songIDs []uint64) (model.SetlistWithSongs, error) {
	m.mu.Lock()
	if _, ok := m.setlists[id]; !ok {
		m.mu.Unlock()
		return model.SetlistWithSongs{}, repository.ErrSetlistNotFound
	}
	for pos, songID := range songIDs {
		for i, p := range m.placed {
			if p.setlistID == id && p.songID == songID {
				m.placed[i].position = pos
			}
		}
	}
	m.mu.Unlock()
	return m.WithSongs(ctx, id)
}

// posters and events

type memPosters struct {
	mu      sync.Mutex
	saved   map[string][]byte
	removed []string
	saveErr error
}

func (p *memPosters) Save(_ context.Context, showID uint64, data []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return "", p.saveErr
	}
	ref := fmt.Sprintf("posters/%d/%d.webp", showID, len(p.saved)+1)
	p.saved[ref] = data
	return ref, nil
}

func (p *memPosters) Remove(_ context.Context, ref string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !strings.HasPrefix(ref, "posters/") {
		return false, nil
	}
	p.removed = append(p.removed, ref)
	delete(p.saved, ref)
	return true, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ShowEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev queue.ShowEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []queue.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []queue.EventType
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
