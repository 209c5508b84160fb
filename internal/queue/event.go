// Package queue carries show events over RabbitMQ: the API publishes them
// and a background consumer appends them to a log file.
package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/band-manager/internal/model"
)

// QueueName is the durable queue shared by publisher and consumer.
const QueueName = "band.shows"

// EventType names what happened to a show.
type EventType string

const (
	ShowStatusChanged EventType = "show.status_changed"
	ShowLedgerCleared EventType = "show.ledger_cleared"
	ShowDeleted       EventType = "show.deleted"
)

// ShowEvent is the message body.  From and To are set for status changes;
// a ledger clear, reported when the last payment entry of a show is
// deleted, carries the show's current status in To.
type ShowEvent struct {
	Type       EventType        `json:"type"`
	ShowID     uint64           `json:"show_id"`
	BandID     uint64           `json:"band_id"`
	Venue      string           `json:"venue"`
	ShowDate   string           `json:"show_date"`
	From       model.ShowStatus `json:"from,omitempty"`
	To         model.ShowStatus `json:"to,omitempty"`
	ActorID    uint64           `json:"actor_id"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewShowEvent fills the show fields of an event.
func NewShowEvent(t EventType, s model.Show, actor uint64) ShowEvent {
	return ShowEvent{
		Type:       t,
		ShowID:     s.ID,
		BandID:     s.BandID,
		Venue:      s.Venue,
		ShowDate:   s.ShowDate.String(),
		ActorID:    actor,
		OccurredAt: time.Now().UTC(),
	}
}

// Line renders the event as one line of the show log.
func (ev ShowEvent) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | show_id=%d | band_id=%d | venue=%q | date=%s",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.ShowID, ev.BandID, ev.Venue, ev.ShowDate)
	switch ev.Type {
	case ShowStatusChanged:
		fmt.Fprintf(&b, " | from=%q | to=%q", ev.From, ev.To)
	case ShowLedgerCleared:
		fmt.Fprintf(&b, " | status=%q", ev.To)
	}
	fmt.Fprintf(&b, " | actor=%d\n", ev.ActorID)
	return b.String()
}
