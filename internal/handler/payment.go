package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/band-manager/internal/model"
	"github.com/iliyamo/band-manager/internal/queue"
)

// PaymentRepository is the ledger storage used by PaymentHandler.  Every
// call is scoped to a show.
type PaymentRepository interface {
	ListByShow(ctx context.Context, showID uint64) ([]model.ShowPayment, error)
	Get(ctx context.Context, showID, id uint64) (model.ShowPayment, error)
	Create(ctx context.Context, showID uint64, in model.PaymentInput) (model.ShowPayment, error)
	Update(ctx context.Context, showID, id uint64, patch model.PaymentPatch) (model.ShowPayment, error)
	Delete(ctx context.Context, showID, id uint64) error
}

// PaymentHandler serves /shows/:id/payments.  The routes sit behind
// RequireBandMember, so the show id in the path is known to exist.
type PaymentHandler struct {
	Shows    ShowRepository
	Payments PaymentRepository
	Events   queue.Publisher
}

func NewPaymentHandler(shows ShowRepository, payments PaymentRepository, events queue.Publisher) *PaymentHandler {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &PaymentHandler{Shows: shows, Payments: payments, Events: events}
}

// List returns the ledger in insertion order.
func (h *PaymentHandler) List(c echo.Context) error {
	showID, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	entries, err := h.Payments.ListByShow(ctx, showID)
	if err != nil {
		return respondError(c, err, "list payments failed")
	}
	return c.JSON(http.StatusOK, entries)
}

// Create adds a ledger entry.  The show's status is not checked.
func (h *PaymentHandler) Create(c echo.Context) error {
	showID, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	var in model.PaymentInput
	if err := c.Bind(&in); err != nil {
		return invalidBody(c)
	}
	if err := in.Validate(); err != nil {
		return respondError(c, err, "create payment failed")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	e, err := h.Payments.Create(ctx, showID, in)
	if err != nil {
		return respondError(c, err, "create payment failed")
	}
	return c.JSON(http.StatusCreated, e)
}

// Get returns one entry of the show's ledger.
func (h *PaymentHandler) Get(c echo.Context) error {
	showID, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	id, ok := parseID(c, "payment_id")
	if !ok {
		return invalidID(c, "payment_id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	e, err := h.Payments.Get(ctx, showID, id)
	if err != nil {
		return respondError(c, err, "load payment failed")
	}
	return c.JSON(http.StatusOK, e)
}

// Update applies a partial change to an entry.
func (h *PaymentHandler) Update(c echo.Context) error {
	showID, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	id, ok := parseID(c, "payment_id")
	if !ok {
		return invalidID(c, "payment_id")
	}
	var patch model.PaymentPatch
	if err := c.Bind(&patch); err != nil {
		return invalidBody(c)
	}
	if err := patch.Validate(); err != nil {
		return respondError(c, err, "update payment failed")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	e, err := h.Payments.Update(ctx, showID, id, patch)
	if err != nil {
		return respondError(c, err, "update payment failed")
	}
	return c.JSON(http.StatusOK, e)
}

// Delete removes an entry.  Removing the last one publishes a ledger clear.
func (h *PaymentHandler) Delete(c echo.Context) error {
	showID, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	id, ok := parseID(c, "payment_id")
	if !ok {
		return invalidID(c, "payment_id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Payments.Delete(ctx, showID, id); err != nil {
		return respondError(c, err, "delete payment failed")
	}
	if rest, err := h.Payments.ListByShow(ctx, showID); err == nil && len(rest) == 0 {
		if s, err := h.Shows.GetByID(ctx, showID); err == nil {
			ev := queue.NewShowEvent(queue.ShowLedgerCleared, s, currentUser(c))
			ev.To = s.Status
			publish(c, h.Events, ev)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Summary returns the show's fee, fund share and ledger totals.
func (h *PaymentHandler) Summary(c echo.Context) error {
	showID, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	s, err := h.Shows.GetByID(ctx, showID)
	if err != nil {
		return respondError(c, err, "load show failed")
	}
	entries, err := h.Payments.ListByShow(ctx, showID)
	if err != nil {
		return respondError(c, err, "list payments failed")
	}
	return c.JSON(http.StatusOK, model.Summarize(s, entries))
}
