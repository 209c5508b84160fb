package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/band-manager/internal/model"
)

// fakeDB backs fakeShows and fakeLedger with maps and records every call.
type fakeDB struct {
	mu      sync.Mutex
	nextID  uint64
	shows   map[uint64]model.Show
	entries map[uint64][]model.ShowPayment
	calls   []string

	listErr        error
	createEntryErr error
	updateErr      error
	uploadErr      error
	deleteErr      map[uint64]error
	namesErr       error
	names          []string
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		nextID:    100,
		shows:     map[uint64]model.Show{},
		entries:   map[uint64][]model.ShowPayment{},
		deleteErr: map[uint64]error{},
	}
}

func (db *fakeDB) record(format string, args ...any) {
	db.calls = append(db.calls, fmt.Sprintf(format, args...))
}

func (db *fakeDB) callCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.calls)
}

func (db *fakeDB) id() uint64 {
	db.nextID++
	return db.nextID
}

type fakeShows struct{ db *fakeDB }

func (f fakeShows) Create(_ context.Context, p model.ShowPayload) (model.Show, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.record("show.create")
	s, err := model.FromWire(p)
	if err != nil {
		return model.Show{}, err
	}
	s.ID = f.db.id()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	f.db.shows[s.ID] = s
	return s, nil
}

func (f fakeShows) Get(_ context.Context, id uint64) (model.Show, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.record("show.get %d", id)
	s, ok := f.db.shows[id]
	if !ok {
		return model.Show{}, fmt.Errorf("show %d: %w", id, ErrNotFound)
	}
	return s, nil
}

func (f fakeShows) List(_ context.Context, bandID uint64) ([]model.Show, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.record("show.list %d", bandID)
	var out []model.Show
	for _, s := range f.db.shows {
		if s.BandID == bandID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f fakeShows) Update(_ context.Context, id uint64, p model.ShowPayload) (model.Show, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.record("show.update %d", id)
	if f.db.updateErr != nil {
		return model.Show{}, f.db.updateErr
	}
	old, ok := f.db.shows[id]
	if !ok {
		return model.Show{}, fmt.Errorf("show %d: %w", id, ErrNotFound)
	}
	s, err := model.FromWire(p)
	if err != nil {
		return model.Show{}, err
	}
	s.ID = id
	s.CreatedAt = old.CreatedAt
	s.UpdatedAt = time.Now()
	f.db.shows[id] = s
	return s, nil
}

func (f fakeShows) Delete(_ context.Context, id uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.record("show.delete %d", id)
	if _, ok := f.db.shows[id]; !ok {
		return fmt.Errorf("show %d: %w", id, ErrNotFound)
	}
	delete(f.db.shows, id)
	delete(f.db.entries, id)
	return nil
}

func (f fakeShows) UploadPoster(_ context.Context, id uint64, filename string, data []byte) (model.Show, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.record("show.poster %d", id)
	if f.db.uploadErr != nil {
		return model.Show{}, f.db.uploadErr
	}
	s, ok := f.db.shows[id]
	if !ok {
		return model.Show{}, fmt.Errorf("show %d: %w", id, ErrNotFound)
	}
	ref := fmt.Sprintf("posters/%d/%s", id, filename)
	s.Poster = &ref
	f.db.shows[id] = s
	return s, nil
}

type fakeLedger struct{ db *fakeDB }

func (f fakeLedger) ListByShow(_ context.Context, showID uint64) ([]model.ShowPayment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.record("ledger.list %d", showID)
	if f.db.listErr != nil {
		return nil, f.db.listErr
	}
	return append([]model.ShowPayment(nil), f.db.entries[showID]...), nil
}

func (f fakeLedger) Create(_ context.Context, showID uint64, in model.PaymentInput) (model.ShowPayment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.record("ledger.create %d", showID)
	if f.db.createEntryErr != nil {
		return model.ShowPayment{}, f.db.createEntryErr
	}
	if _, ok := f.db.shows[showID]; !ok {
		return model.ShowPayment{}, fmt.Errorf("show %d: %w", showID, ErrNotFound)
	}
	e := model.ShowPayment{ID: f.db.id(), ShowID: showID, MemberName: in.MemberName, Amount: *in.Amount, Notes: in.Notes}
	f.db.entries[showID] = append(f.db.entries[showID], e)
	return e, nil
}

func (f fakeLedger) Update(_ context.Context, showID, entryID uint64, p model.PaymentPatch) (model.ShowPayment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.record("ledger.update %d %d", showID, entryID)
	for i, e := range f.db.entries[showID] {
		if e.ID == entryID {
			f.db.entries[showID][i] = p.Apply(e)
			return f.db.entries[showID][i], nil
		}
	}
	return model.ShowPayment{}, fmt.Errorf("entry %d: %w", entryID, ErrNotFound)
}

func (f fakeLedger) Delete(_ context.Context, showID, entryID uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.record("ledger.delete %d %d", showID, entryID)
	if err := f.db.deleteErr[entryID]; err != nil {
		return err
	}
	list := f.db.entries[showID]
	for i, e := range list {
		if e.ID == entryID {
			f.db.entries[showID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("entry %d: %w", entryID, ErrNotFound)
}

func (f fakeLedger) Summary(_ context.Context, showID uint64) (model.PaymentSummary, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.record("ledger.summary %d", showID)
	s, ok := f.db.shows[showID]
	if !ok {
		return model.PaymentSummary{}, fmt.Errorf("show %d: %w", showID, ErrNotFound)
	}
	return model.Summarize(s, append([]model.ShowPayment(nil), f.db.entries[showID]...)), nil
}

type fakeDirectory struct{ db *fakeDB }

func (f fakeDirectory) MemberNames(_ context.Context, bandID uint64) ([]string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.record("members %d", bandID)
	return f.db.names, f.db.namesErr
}

func newTestController(db *fakeDB) *Controller {
	return NewController(fakeShows{db}, fakeLedger{db}, fakeDirectory{db})
}
