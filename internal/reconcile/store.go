// Package reconcile keeps a show's payment ledger consistent with its
// status while the show is being edited.  A Session walks an explicit
// state machine from open to submit or cancel; the stores it talks to are
// abstract so the same controller runs over the REST client, the SQL
// repositories or in-memory fakes.
package reconcile

import (
	"context"
	"errors"

	"github.com/iliyamo/band-manager/internal/model"
)

// ErrNotFound must be wrapped by store implementations when the show or
// ledger entry addressed by a call no longer exists.
var ErrNotFound = errors.New("not found")

// ShowStore persists show records.
type ShowStore interface {
	Create(ctx context.Context, p model.ShowPayload) (model.Show, error)
	Get(ctx context.Context, id uint64) (model.Show, error)
	List(ctx context.Context, bandID uint64) ([]model.Show, error)
	// Update replaces every field of the show with p.
	Update(ctx context.Context, id uint64, p model.ShowPayload) (model.Show, error)
	Delete(ctx context.Context, id uint64) error
	UploadPoster(ctx context.Context, id uint64, filename string, data []byte) (model.Show, error)
}

// PaymentLedgerStore persists the per-member payments of a show.  Every
// call is scoped to a show id; ListByShow returns entries in insertion
// order.
type PaymentLedgerStore interface {
	ListByShow(ctx context.Context, showID uint64) ([]model.ShowPayment, error)
	Create(ctx context.Context, showID uint64, in model.PaymentInput) (model.ShowPayment, error)
	Update(ctx context.Context, showID, entryID uint64, p model.PaymentPatch) (model.ShowPayment, error)
	Delete(ctx context.Context, showID, entryID uint64) error
	Summary(ctx context.Context, showID uint64) (model.PaymentSummary, error)
}

// BandMemberDirectory supplies name suggestions for ledger entries.  It is
// advisory: ledger names are free text and never checked against it.
type BandMemberDirectory interface {
	MemberNames(ctx context.Context, bandID uint64) ([]string, error)
}
