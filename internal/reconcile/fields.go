package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/band-manager/internal/model"
)

// EditableFields lists the draft fields accepted by Session.SetField.
var EditableFields = []string{
	"venue", "show_date", "show_time", "event_manager", "show_members",
	"piece_count", "description", "poster", "status", "payment", "band_fund_amount",
}

// setDraftField converts value to the type of the named field and stores
// it.  Range checks are left to ShowDraft.Validate at submit time.
func setDraftField(d *model.ShowDraft, name string, value any) error {
	bad := func(msg string) error {
		return validationError("set field", model.FieldErrors{name: msg})
	}
	switch name {
	case "venue", "show_date", "show_time", "event_manager", "description", "poster":
		text, ok := asText(value)
		if !ok {
			return bad("must be text")
		}
		switch name {
		case "venue":
			d.Venue = text
		case "show_date":
			d.ShowDate = text
		case "show_time":
			d.ShowTime = text
		case "event_manager":
			d.EventManager = text
		case "description":
			d.Description = text
		case "poster":
			d.Poster = text
		}
	case "show_members":
		members, ok := asMembers(value)
		if !ok {
			return bad("must be a list of names")
		}
		d.ShowMembers = members
	case "piece_count":
		n, ok := asInt(value)
		if !ok {
			return bad("must be a whole number")
		}
		d.PieceCount = n
	case "payment", "band_fund_amount":
		amount, ok := asDecimal(value)
		if !ok {
			return bad("must be a number")
		}
		if name == "payment" {
			d.Payment = amount
		} else {
			d.BandFundAmount = amount
		}
	case "status":
		var raw string
		switch v := value.(type) {
		case model.ShowStatus:
			raw = string(v)
		case string:
			raw = v
		default:
			return bad("must be text")
		}
		st, err := model.ParseShowStatus(raw)
		if err != nil {
			return bad("must be one of Upcoming, Done, Cancelled, Complete - Payment Received")
		}
		d.Status = st
	default:
		return bad("is not an editable field")
	}
	return nil
}

func asText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case *string:
		if t == nil {
			return "", true
		}
		return *t, true
	case fmt.Stringer:
		return t.String(), true
	}
	return "", false
}

// asMembers accepts a slice or a comma separated string.
func asMembers(v any) ([]string, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case []string:
		return append([]string(nil), t...), true
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, true
	}
	return nil, false
}

func asInt(v any) (*int, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case int:
		return &t, true
	case *int:
		if t == nil {
			return nil, true
		}
		n := *t
		return &n, true
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, true
		}
		n, err := strconv.Atoi(t)
		if err != nil {
			return nil, false
		}
		return &n, true
	}
	return nil, false
}

func asDecimal(v any) (*decimal.Decimal, bool) {
	var d decimal.Decimal
	switch t := v.(type) {
	case nil:
		return nil, true
	case decimal.Decimal:
		d = t
	case *decimal.Decimal:
		if t == nil {
			return nil, true
		}
		d = *t
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	case float64:
		d = decimal.NewFromFloat(t)
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, true
		}
		parsed, err := decimal.NewFromString(t)
		if err != nil {
			return nil, false
		}
		d = parsed
	default:
		return nil, false
	}
	return &d, true
}
