package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/band-manager/internal/model"
)

// State is the position of a Session in the edit workflow.
type State int

const (
	StateClean State = iota
	StateEditing
	StateAwaitingLedger
	StateLedgerReady
	StateSubmitting
	StateReconciling
	StateSaved
	StateCancelled
	// StateClosed is entered when the show or a ledger entry vanished
	// server-side.  The caller must reload and open a new session.
	StateClosed
)

var stateNames = [...]string{
	StateClean:          "Clean",
	StateEditing:        "Editing",
	StateAwaitingLedger: "AwaitingLedger",
	StateLedgerReady:    "LedgerReady",
	StateSubmitting:     "Submitting",
	StateReconciling:    "Reconciling",
	StateSaved:          "Saved",
	StateCancelled:      "Cancelled",
	StateClosed:         "Closed",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further operation is accepted in s.
func (s State) Terminal() bool {
	return s == StateSaved || s == StateCancelled || s == StateClosed
}

// DefaultDeleteConcurrency bounds the ledger deletions issued in parallel
// while reconciling.
const DefaultDeleteConcurrency = 4

// Controller opens edit sessions over a set of stores.  It holds no
// per-session state and may be shared.
type Controller struct {
	shows       ShowStore
	ledger      PaymentLedgerStore
	members     BandMemberDirectory
	log         *zap.Logger
	concurrency int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for state transitions.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithDeleteConcurrency sets how many ledger deletions may run at once.
func WithDeleteConcurrency(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewController wires a controller.  members may be nil, in which case
// Candidates only offers names already on the draft.
func NewController(shows ShowStore, ledger PaymentLedgerStore, members BandMemberDirectory, opts ...Option) *Controller {
	c := &Controller{
		shows:       shows,
		ledger:      ledger,
		members:     members,
		log:         zap.NewNop(),
		concurrency: DefaultDeleteConcurrency,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type posterUpload struct {
	filename string
	data     []byte
}

// Session is one edit of one show, from open to submit or cancel.  A
// Session is not safe for concurrent use.
type Session struct {
	c       *Controller
	state   State
	history []State

	bandID uint64
	showID uint64 // zero until the show exists
	// original is the status last persisted.  It only moves once a
	// submit fully succeeds, so a failed reconcile is retried.
	original model.ShowStatus

	draft         model.ShowDraft
	ledger        []model.ShowPayment
	ledgerLoaded  bool
	// ledgerTouched is set once this session listed or wrote the ledger.
	// Entries written before the first save are still reconciled away.
	ledgerTouched bool
	poster        *posterUpload
	saved         *model.Show
}

// OpenForCreate starts a session for a new show of bandID.  No store call
// is made.
func (c *Controller) OpenForCreate(bandID uint64) *Session {
	return &Session{
		c:        c,
		state:    StateClean,
		history:  []State{StateClean},
		bandID:   bandID,
		original: model.StatusUpcoming,
		draft:    model.ShowDraft{BandID: bandID, Status: model.StatusUpcoming},
	}
}

// OpenForEdit starts a session on an existing show.  When the show is
// already Complete - Payment Received its ledger is fetched immediately.
// If that fetch fails the session is still returned, in Editing (or
// Closed when the show is gone), together with the error.
func (c *Controller) OpenForEdit(ctx context.Context, show model.Show) (*Session, error) {
	if show.ID == 0 {
		return nil, errors.New("reconcile: open for edit: show has no id")
	}
	s := &Session{
		c:        c,
		state:    StateClean,
		history:  []State{StateClean},
		bandID:   show.BandID,
		showID:   show.ID,
		original: show.Status,
		draft:    show.Draft(),
	}
	if s.draft.Status == "" {
		s.draft.Status = model.StatusUpcoming
		s.original = model.StatusUpcoming
	}
	if show.Status.PaymentReceived() {
		if err := s.fetchLedger(ctx, "open"); err != nil {
			return s, err
		}
	}
	return s, nil
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// History returns every state the session has been in, oldest first.
func (s *Session) History() []State { return append([]State(nil), s.history...) }

// ShowID is zero until a created show has been saved.
func (s *Session) ShowID() uint64 { return s.showID }

// BandID returns the band the show belongs to.
func (s *Session) BandID() uint64 { return s.bandID }

// Draft returns a copy of the current unsaved form.
func (s *Session) Draft() model.ShowDraft {
	d := s.draft
	d.ShowMembers = append([]string(nil), s.draft.ShowMembers...)
	return d
}

// Ledger returns the ledger as last listed by the store.
func (s *Session) Ledger() []model.ShowPayment {
	return append([]model.ShowPayment(nil), s.ledger...)
}

// LedgerLoaded reports whether the ledger has been fetched in this session.
func (s *Session) LedgerLoaded() bool { return s.ledgerLoaded }

// Saved returns the persisted show once the session reached Saved.
func (s *Session) Saved() (model.Show, bool) {
	if s.saved == nil {
		return model.Show{}, false
	}
	return *s.saved, true
}

// SetField changes one draft field by its JSON name.  Setting status to
// Complete - Payment Received on an existing show fetches the ledger;
// moving away from it keeps the fetched entries in memory until submit.
func (s *Session) SetField(ctx context.Context, name string, value any) error {
	const op = "set field"
	if !s.editable() {
		return s.stateError(op)
	}
	prev := s.draft.Status
	if err := setDraftField(&s.draft, name, value); err != nil {
		return err
	}
	if s.state == StateClean {
		s.moveTo(StateEditing)
	}
	if name != "status" {
		s.moveTo(s.resting())
		return nil
	}

	now := s.draft.Status
	switch {
	case now.PaymentReceived() && s.showID != 0 && !(prev.PaymentReceived() && s.ledgerLoaded):
		return s.fetchLedger(ctx, op)
	case !now.PaymentReceived():
		s.moveTo(StateEditing)
	default:
		s.moveTo(s.resting())
	}
	return nil
}

// SetPoster queues an image to upload once the show is persisted.
func (s *Session) SetPoster(data []byte, filename string) error {
	if !s.editable() {
		return s.stateError("set poster")
	}
	if len(data) == 0 {
		return validationError("set poster", model.FieldErrors{"poster": "is empty"})
	}
	s.poster = &posterUpload{filename: filename, data: append([]byte(nil), data...)}
	s.moveTo(s.resting())
	return nil
}

// RefreshLedger re-lists the ledger, for example after a failed fetch.
func (s *Session) RefreshLedger(ctx context.Context) error {
	const op = "refresh ledger"
	if !s.editable() || s.showID == 0 || !s.draft.Status.PaymentReceived() {
		return s.stateError(op)
	}
	return s.fetchLedger(ctx, op)
}

// AddLedgerEntry records a payment to name.  It is only allowed while the
// ledger is visible.  The entry is created immediately in the store and
// is not rolled back by Cancel.
func (s *Session) AddLedgerEntry(ctx context.Context, name string, amount *decimal.Decimal, notes *string) (model.ShowPayment, error) {
	const op = "add ledger entry"
	if s.state != StateLedgerReady {
		return model.ShowPayment{}, s.stateError(op)
	}
	in := model.PaymentInput{MemberName: name, Amount: amount, Notes: notes}
	if err := in.Validate(); err != nil {
		var fe model.FieldErrors
		errors.As(err, &fe)
		return model.ShowPayment{}, validationError(op, fe)
	}
	entry, err := s.c.ledger.Create(ctx, s.showID, in)
	if err != nil {
		return model.ShowPayment{}, s.ledgerFailure(op, err)
	}
	s.ledgerTouched = true
	s.c.log.Debug("ledger entry added", zap.Uint64("show_id", s.showID), zap.Uint64("entry_id", entry.ID))
	if err := s.relist(ctx, op); err != nil {
		return entry, err
	}
	return entry, nil
}

// RemoveLedgerEntry deletes one entry.  A missing entry closes the session.
func (s *Session) RemoveLedgerEntry(ctx context.Context, entryID uint64) error {
	const op = "remove ledger entry"
	if s.state != StateLedgerReady {
		return s.stateError(op)
	}
	if err := s.c.ledger.Delete(ctx, s.showID, entryID); err != nil {
		return s.ledgerFailure(op, err)
	}
	s.ledgerTouched = true
	s.c.log.Debug("ledger entry removed", zap.Uint64("show_id", s.showID), zap.Uint64("entry_id", entryID))
	return s.relist(ctx, op)
}

// Candidates returns member-name suggestions: the draft's show members
// followed by the band directory, without case-insensitive duplicates.
// Directory failures are logged and ignored.
func (s *Session) Candidates(ctx context.Context) []string {
	names := append([]string(nil), s.draft.ShowMembers...)
	if s.c.members != nil && s.bandID != 0 {
		dir, err := s.c.members.MemberNames(ctx, s.bandID)
		if err != nil {
			s.c.log.Warn("member directory unavailable", zap.Uint64("band_id", s.bandID), zap.Error(err))
		}
		names = append(names, dir...)
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ClearsLedger reports whether submitting the current draft deletes the
// show's ledger entries.
func (s *Session) ClearsLedger() bool {
	return s.showID != 0 && (s.original.PaymentReceived() || s.ledgerTouched) && !s.draft.Status.PaymentReceived()
}

// Submit validates and persists the draft.  When the show leaves
// Complete - Payment Received, or the ledger was opened in this session
// and the show is not saved as paid, every ledger entry is deleted
// alongside the update.  A second Submit on a saved session returns the saved show
// without calling any store.
func (s *Session) Submit(ctx context.Context) (model.Show, error) {
	const op = "submit"
	if s.state == StateSaved {
		return *s.saved, nil
	}
	if !s.editable() {
		return model.Show{}, s.stateError(op)
	}
	show, err := s.draft.Validate()
	if err != nil {
		var fe model.FieldErrors
		errors.As(err, &fe)
		return model.Show{}, validationError(op, fe)
	}
	show.BandID = s.bandID
	payload := model.ToWire(show)

	s.moveTo(StateSubmitting)
	var saved model.Show
	switch {
	case s.showID == 0:
		saved, err = s.c.shows.Create(ctx, payload)
	case (s.original.PaymentReceived() || s.ledgerTouched) && !show.Status.PaymentReceived():
		s.moveTo(StateReconciling)
		saved, err = s.reconcile(ctx, payload)
	default:
		saved, err = s.c.shows.Update(ctx, s.showID, payload)
	}
	if err != nil {
		return model.Show{}, s.fail(op, err)
	}
	s.showID = saved.ID

	if s.poster != nil {
		withPoster, err := s.c.shows.UploadPoster(ctx, s.showID, s.poster.filename, s.poster.data)
		if err != nil {
			// The record is stored; a retry updates it and uploads again.
			s.original = saved.Status
			return model.Show{}, s.fail("upload poster", err)
		}
		saved = withPoster
		s.poster = nil
	}

	s.original = saved.Status
	s.saved = &saved
	s.moveTo(StateSaved)
	return saved, nil
}

// Cancel discards local edits without calling any store.  Ledger entries
// already added or removed stay as they are.
func (s *Session) Cancel() error {
	switch s.state {
	case StateCancelled:
		return nil
	case StateSaved, StateClosed:
		return s.stateError("cancel")
	}
	s.poster = nil
	s.moveTo(StateCancelled)
	return nil
}

// reconcile deletes every ledger entry of the show while the record
// update runs.  Both sides always run to completion; the joined error
// reports every failure.  Entries already gone count as deleted.
func (s *Session) reconcile(ctx context.Context, payload model.ShowPayload) (model.Show, error) {
	entries, err := s.c.ledger.ListByShow(ctx, s.showID)
	if err != nil {
		return model.Show{}, fmt.Errorf("list ledger: %w", err)
	}

	// One slot per task; the update sits at index 0.  Tasks never return
	// an error to the group so a failure does not cut the others short.
	var (
		saved model.Show
		errs  = make([]error, len(entries)+1)
		g     errgroup.Group
	)
	g.SetLimit(s.c.concurrency + 1)
	g.Go(func() error {
		var err error
		if saved, err = s.c.shows.Update(ctx, s.showID, payload); err != nil {
			errs[0] = fmt.Errorf("update show: %w", err)
		}
		return nil
	})
	for i, e := range entries {
		g.Go(func() error {
			err := s.c.ledger.Delete(ctx, s.showID, e.ID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				errs[i+1] = fmt.Errorf("delete ledger entry %d: %w", e.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs[1:] {
		if err != nil {
			failed++
		}
	}
	s.c.log.Debug("ledger reconciled",
		zap.Uint64("show_id", s.showID),
		zap.Int("entries", len(entries)),
		zap.Int("failed", failed),
		zap.Bool("update_ok", errs[0] == nil))

	if err := errors.Join(errs...); err != nil {
		return model.Show{}, err
	}
	s.ledger = nil
	s.ledgerLoaded = false
	s.ledgerTouched = false
	return saved, nil
}

func (s *Session) fetchLedger(ctx context.Context, op string) error {
	s.moveTo(StateAwaitingLedger)
	entries, err := s.c.ledger.ListByShow(ctx, s.showID)
	if err != nil {
		// A stale ledger must not become visible again.
		s.ledgerLoaded = false
		return s.fail(op, err)
	}
	s.ledger = entries
	s.ledgerLoaded = true
	s.ledgerTouched = true
	s.moveTo(StateLedgerReady)
	return nil
}

// relist refreshes the visible ledger after a mutation.
func (s *Session) relist(ctx context.Context, op string) error {
	entries, err := s.c.ledger.ListByShow(ctx, s.showID)
	if err != nil {
		return s.ledgerFailure(op, err)
	}
	s.ledger = entries
	return nil
}

// ledgerFailure keeps the session in LedgerReady unless the target vanished.
func (s *Session) ledgerFailure(op string, err error) error {
	e := classify(op, err)
	if e.Kind == KindNotFound {
		s.moveTo(StateClosed)
	}
	return e
}

// fail maps a store error and moves the session to where it can retry.
func (s *Session) fail(op string, err error) error {
	e := classify(op, err)
	if e.Kind == KindNotFound {
		s.moveTo(StateClosed)
		return e
	}
	s.moveTo(s.resting())
	return e
}

func (s *Session) editable() bool {
	switch s.state {
	case StateClean, StateEditing, StateLedgerReady:
		return true
	}
	return false
}

// resting is the state an idle session with the current draft sits in.
func (s *Session) resting() State {
	if s.showID != 0 && s.ledgerLoaded && s.draft.Status.PaymentReceived() {
		return StateLedgerReady
	}
	return StateEditing
}

func (s *Session) moveTo(next State) {
	if next == s.state {
		return
	}
	s.c.log.Debug("session state",
		zap.Uint64("show_id", s.showID),
		zap.Stringer("from", s.state),
		zap.Stringer("to", next))
	s.state = next
	s.history = append(s.history, next)
}

func (s *Session) stateError(op string) error {
	return fmt.Errorf("reconcile: %s in state %s: %w", op, s.state, ErrSessionState)
}
