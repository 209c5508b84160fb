package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ShowStatus is the lifecycle state of a show.  Any status may follow any
// other; the only rule attached to a change is the payment ledger cleanup
// performed when a show leaves StatusPaymentReceived.
type ShowStatus string

const (
	StatusUpcoming        ShowStatus = "Upcoming"
	StatusDone            ShowStatus = "Done"
	StatusCancelled       ShowStatus = "Cancelled"
	StatusPaymentReceived ShowStatus = "Complete - Payment Received"
)

// ShowStatuses lists every valid status in display order.
var ShowStatuses = []ShowStatus{StatusUpcoming, StatusDone, StatusCancelled, StatusPaymentReceived}

// Valid reports whether s is one of the four known statuses.
func (s ShowStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusDone, StatusCancelled, StatusPaymentReceived:
		return true
	}
	return false
}

// PaymentReceived reports whether the per-member ledger applies to s.
func (s ShowStatus) PaymentReceived() bool { return s == StatusPaymentReceived }

// ParseShowStatus matches a status by its exact value, ignoring case and
// surrounding space.  An empty string yields StatusUpcoming.
func ParseShowStatus(raw string) (ShowStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StatusUpcoming, nil
	}
	for _, s := range ShowStatuses {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown show status %q", raw)
}

// Show is a scheduled performance of a band.  It mirrors a row of the
// `shows` table and is also the JSON body returned by the API.
//
// Fields:
//  ID             – primary key, assigned by the database.
//  BandID         – band that plays the show.
//  Venue          – where the show takes place (never empty).
//  ShowDate       – calendar date of the show (required).
//  ShowTime       – optional start time of day.
//  EventManager   – optional contact at the venue.
//  ShowMembers    – free-text names of who plays, in order; may repeat.
//  PieceCount     – optional line-up size (4pc, 5pc...).
//  Description    – optional notes.
//  Poster         – optional reference to the uploaded poster image.
//  Status         – lifecycle state, Upcoming on creation.
//  Payment        – optional total fee for the show.
//  BandFundAmount – optional share of the fee kept by the band.
type Show struct {
	ID             uint64           `json:"id"`
	BandID         uint64           `json:"band_id"`
	Venue          string           `json:"venue"`
	ShowDate       Date             `json:"show_date"`
	ShowTime       *TimeOfDay       `json:"show_time"`
	EventManager   *string          `json:"event_manager"`
	ShowMembers    []string         `json:"show_members"`
	PieceCount     *int             `json:"piece_count"`
	Description    *string          `json:"description"`
	Poster         *string          `json:"poster"`
	Status         ShowStatus       `json:"status"`
	Payment        *decimal.Decimal `json:"payment"`
	BandFundAmount *decimal.Decimal `json:"band_fund_amount"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ShowDraft is the unvalidated form of a show as typed by a user or sent by
// a client.  Text fields use the empty string for "absent".  Validate drops
// show members that are empty or only whitespace and keeps every other
// name exactly as entered, duplicates included.
type ShowDraft struct {
	BandID         uint64           `json:"band_id"`
	Venue          string           `json:"venue" validate:"required"`
	ShowDate       string           `json:"show_date" validate:"required"`
	ShowTime       string           `json:"show_time"`
	EventManager   string           `json:"event_manager"`
	ShowMembers    []string         `json:"show_members"`
	PieceCount     *int             `json:"piece_count" validate:"omitempty,gt=0"`
	Description    string           `json:"description"`
	Poster         string           `json:"poster"`
	Status         ShowStatus       `json:"status"`
	Payment        *decimal.Decimal `json:"payment" validate:"omitempty,gte=0"`
	BandFundAmount *decimal.Decimal `json:"band_fund_amount" validate:"omitempty,gte=0"`
}

// Validate checks the draft and returns the Show it describes.  Only venue
// and show_date are mandatory.  On failure the error is a FieldErrors.
// The returned Show has no ID or timestamps.
func (d ShowDraft) Validate() (Show, error) {
	d.Venue = strings.TrimSpace(d.Venue)
	d.ShowDate = strings.TrimSpace(d.ShowDate)
	d.ShowTime = strings.TrimSpace(d.ShowTime)

	errs := ValidateStruct(d)
	if errs == nil {
		errs = FieldErrors{}
	}

	var date Date
	if d.ShowDate != "" {
		parsed, err := ParseDate(d.ShowDate)
		if err != nil {
			errs.Add("show_date", "must be a date in YYYY-MM-DD format")
		}
		date = parsed
	}
	var tod *TimeOfDay
	if d.ShowTime != "" {
		parsed, err := ParseTimeOfDay(d.ShowTime)
		if err != nil {
			errs.Add("show_time", "must be a time in HH:MM or HH:MM:SS format")
		}
		tod = &parsed
	}
	status := d.Status
	if status == "" {
		status = StatusUpcoming
	}
	if !status.Valid() {
		errs.Add("status", "must be one of Upcoming, Done, Cancelled, Complete - Payment Received")
	}
	if err := errs.OrNil(); err != nil {
		return Show{}, err
	}

	return Show{
		BandID:         d.BandID,
		Venue:          d.Venue,
		ShowDate:       date,
		ShowTime:       tod,
		EventManager:   optionalText(d.EventManager),
		ShowMembers:    cleanMembers(d.ShowMembers),
		PieceCount:     copyInt(d.PieceCount),
		Description:    optionalText(d.Description),
		Poster:         optionalText(d.Poster),
		Status:         status,
		Payment:        copyDecimal(d.Payment),
		BandFundAmount: copyDecimal(d.BandFundAmount),
	}, nil
}

// Draft turns a validated show back into its editable form.
func (s Show) Draft() ShowDraft {
	d := ShowDraft{
		BandID:         s.BandID,
		Venue:          s.Venue,
		ShowMembers:    append([]string(nil), s.ShowMembers...),
		PieceCount:     copyInt(s.PieceCount),
		Status:         s.Status,
		Payment:        copyDecimal(s.Payment),
		BandFundAmount: copyDecimal(s.BandFundAmount),
	}
	if !s.ShowDate.IsZero() {
		d.ShowDate = s.ShowDate.String()
	}
	if s.ShowTime != nil {
		d.ShowTime = s.ShowTime.String()
	}
	d.EventManager = deref(s.EventManager)
	d.Description = deref(s.Description)
	d.Poster = deref(s.Poster)
	return d
}

// ShowPayload is the wire form of a show used for create and full-record
// update requests.  Every optional field is always present and is null when
// absent, so an update states explicitly which fields are cleared.
type ShowPayload struct {
	BandID         uint64           `json:"band_id"`
	Venue          string           `json:"venue"`
	ShowDate       string           `json:"show_date"`
	ShowTime       *string          `json:"show_time"`
	EventManager   *string          `json:"event_manager"`
	ShowMembers    []string         `json:"show_members"`
	PieceCount     *int             `json:"piece_count"`
	Description    *string          `json:"description"`
	Poster         *string          `json:"poster"`
	Status         ShowStatus       `json:"status"`
	Payment        *decimal.Decimal `json:"payment"`
	BandFundAmount *decimal.Decimal `json:"band_fund_amount"`
}

// ToWire serialises a show: dates as YYYY-MM-DD, times as HH:MM:SS.
func ToWire(s Show) ShowPayload {
	p := ShowPayload{
		BandID:         s.BandID,
		Venue:          s.Venue,
		ShowDate:       s.ShowDate.String(),
		EventManager:   copyString(s.EventManager),
		ShowMembers:    append([]string(nil), s.ShowMembers...),
		PieceCount:     copyInt(s.PieceCount),
		Description:    copyString(s.Description),
		Poster:         copyString(s.Poster),
		Status:         s.Status,
		Payment:        copyDecimal(s.Payment),
		BandFundAmount: copyDecimal(s.BandFundAmount),
	}
	if s.ShowTime != nil {
		t := s.ShowTime.String()
		p.ShowTime = &t
	}
	return p
}

// Draft converts the payload to a draft for validation.
func (p ShowPayload) Draft() ShowDraft {
	return ShowDraft{
		BandID:         p.BandID,
		Venue:          p.Venue,
		ShowDate:       p.ShowDate,
		ShowTime:       deref(p.ShowTime),
		EventManager:   deref(p.EventManager),
		ShowMembers:    append([]string(nil), p.ShowMembers...),
		PieceCount:     copyInt(p.PieceCount),
		Description:    deref(p.Description),
		Poster:         deref(p.Poster),
		Status:         p.Status,
		Payment:        copyDecimal(p.Payment),
		BandFundAmount: copyDecimal(p.BandFundAmount),
	}
}

// FromWire validates a payload and returns the show it encodes.
func FromWire(p ShowPayload) (Show, error) { return p.Draft().Validate() }

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func cleanMembers(in []string) []string {
	var out []string
	for _, name := range in {
		if strings.TrimSpace(name) != "" {
			out = append(out, name)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
