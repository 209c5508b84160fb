package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ShowPayment is one payment ledger entry: the amount paid to a named
// person for a show.  MemberName is free text and need not match a
// BandMember.  Entries are only meaningful while the owning show is
// StatusPaymentReceived.
type ShowPayment struct {
	ID         uint64          `json:"id"`          // show_payments.id
	ShowID     uint64          `json:"show_id"`     // show_payments.show_id
	MemberName string          `json:"member_name"` // show_payments.member_name
	Amount     decimal.Decimal `json:"amount"`      // show_payments.amount
	Notes      *string         `json:"notes"`       // show_payments.notes (nullable)
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// PaymentInput is the body used to create a ledger entry.
type PaymentInput struct {
	MemberName string           `json:"member_name" validate:"required,max=100"`
	Amount     *decimal.Decimal `json:"amount" validate:"required,gte=0"`
	Notes      *string          `json:"notes"`
}

// Validate trims the input and returns FieldErrors when it is unusable.
func (in *PaymentInput) Validate() error {
	in.MemberName = strings.TrimSpace(in.MemberName)
	in.Notes = optionalText(deref(in.Notes))
	return ValidateStruct(*in).OrNil()
}

// PaymentPatch is a partial update of a ledger entry; nil fields are left
// unchanged.
type PaymentPatch struct {
	MemberName *string          `json:"member_name,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Notes      *string          `json:"notes,omitempty"`
}

// Validate rejects a blank member name or a negative amount.
func (p *PaymentPatch) Validate() error {
	errs := ValidateStruct(*p)
	if errs == nil {
		errs = FieldErrors{}
	}
	if p.MemberName != nil {
		name := strings.TrimSpace(*p.MemberName)
		if name == "" {
			errs.Add("member_name", "is required")
		}
		p.MemberName = &name
	}
	return errs.OrNil()
}

// Apply returns e with the patch fields applied.
func (p PaymentPatch) Apply(e ShowPayment) ShowPayment {
	if p.MemberName != nil {
		e.MemberName = *p.MemberName
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Notes != nil {
		e.Notes = optionalText(*p.Notes)
	}
	return e
}

// PaymentSummary aggregates a show's fee, band fund share and ledger.
type PaymentSummary struct {
	ShowID              uint64          `json:"show_id"`
	TotalPayment        decimal.Decimal `json:"total_payment"`
	BandFundAmount      decimal.Decimal `json:"band_fund_amount"`
	TotalMemberPayments decimal.Decimal `json:"total_member_payments"`
	MemberPayments      []ShowPayment   `json:"member_payments"`
}

// Summarize builds the summary of show s from its ledger entries.  Absent
// amounts count as zero.
func Summarize(s Show, entries []ShowPayment) PaymentSummary {
	sum := PaymentSummary{
		ShowID:         s.ID,
		TotalPayment:   decimal.Zero,
		BandFundAmount: decimal.Zero,
		MemberPayments: entries,
	}
	if s.Payment != nil {
		sum.TotalPayment = *s.Payment
	}
	if s.BandFundAmount != nil {
		sum.BandFundAmount = *s.BandFundAmount
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	sum.TotalMemberPayments = total
	if sum.MemberPayments == nil {
		sum.MemberPayments = []ShowPayment{}
	}
	return sum
}

// BandFund is the running total of band_fund_amount across a band's shows.
type BandFund struct {
	BandID uint64          `json:"band_id"`
	Total  decimal.Decimal `json:"total"`
	Shows  int             `json:"shows"`
}
