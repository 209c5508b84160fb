package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/band-manager/internal/model"
	"github.com/iliyamo/band-manager/internal/reconcile"
)

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"venue=The Hall", "status=Complete - Payment Received", "description="})
	require.NoError(t, err)
	assert.Equal(t, []assignment{
		{"venue", "The Hall"},
		{"status", "Complete - Payment Received"},
		{"description", ""},
	}, got)

	_, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	for _, bad := range []string{"0", "-1", "x"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestDescribeFieldErrors(t *testing.T) {
	err := &reconcile.Error{
		Kind:   reconcile.KindValidation,
		Op:     "submit",
		Fields: model.FieldErrors{"venue": "is required", "show_date": "is required"},
	}
	assert.Equal(t, "submit: invalid input\n  show_date: is required\n  venue: is required", describe(err))
	assert.Equal(t, "boom", describe(errors.New("boom")))
}

// fakeAPI serves one paid show and its ledger.
type fakeAPI struct {
	mu      sync.Mutex
	status  model.ShowStatus
	entries []model.ShowPayment
	calls   []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	date, _ := model.ParseDate("2026-05-01")
	show := model.Show{ID: 5, BandID: 1, Venue: "Hall", ShowDate: date, Status: f.status}
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/shows/5":
		_ = json.NewEncoder(w).Encode(show)
	case r.Method == http.MethodPut && r.URL.Path == "/api/v1/shows/5":
		var p model.ShowPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		f.status = p.Status
		show.Status = p.Status
		_ = json.NewEncoder(w).Encode(show)
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/shows/5/payments":
		if f.entries == nil {
			f.entries = []model.ShowPayment{}
		}
		_ = json.NewEncoder(w).Encode(f.entries)
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/shows/5/payments":
		var in model.PaymentInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		e := model.ShowPayment{ID: uint64(len(f.entries) + 10), ShowID: 5, MemberName: in.MemberName, Amount: *in.Amount}
		f.entries = append(f.entries, e)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(e)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/v1/shows/5/payments/"):
		if len(f.entries) > 0 {
			f.entries = f.entries[1:]
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"not found"}`)
	}
}

func (f *fakeAPI) state() (model.ShowStatus, []model.ShowPayment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, append([]model.ShowPayment(nil), f.entries...)
}

func run(t *testing.T, api *fakeAPI, args ...string) (string, error) {
	t.Helper()
	out, _, err := runBoth(t, api, args...)
	return out, err
}

// runBoth returns stdout and stderr of one command invocation.
func runBoth(t *testing.T, api *fakeAPI, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("BANDCTL_BAND_ID", "")
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--api", srv.URL + "/api/v1", "--token", "t"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestPaymentsAddOnPaidShow(t *testing.T) {
	api := &fakeAPI{status: model.StatusPaymentReceived}
	out, err := run(t, api, "payments", "add", "5", "--member", "Ann", "--amount", "40")
	require.NoError(t, err)
	assert.Contains(t, out, `"member_name": "Ann"`)
	_, entries := api.state()
	require.Len(t, entries, 1)
}

func TestPaymentsAddRejectsUnpaidShow(t *testing.T) {
	api := &fakeAPI{status: model.StatusDone}
	_, err := run(t, api, "payments", "add", "5", "--member", "Ann", "--amount", "40")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Complete - Payment Received")
	_, entries := api.state()
	assert.Empty(t, entries)
}

func TestEditLeavingPaidClearsLedger(t *testing.T) {
	api := &fakeAPI{
		status:  model.StatusPaymentReceived,
		entries: []model.ShowPayment{
			{ID: 1, ShowID: 5, MemberName: "Ann"},
			{ID: 2, ShowID: 5, MemberName: "Bo"},
		},
	}
	out, errOut, err := runBoth(t, api, "shows", "edit", "5", "--set", "status=Done")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "Done"`)
	assert.Contains(t, errOut, "clearing 2 ledger entries")
	status, entries := api.state()
	assert.Empty(t, entries)
	assert.Equal(t, model.StatusDone, status)
}

func TestEditBetweenUnpaidStatusesLeavesLedgerAlone(t *testing.T) {
	api := &fakeAPI{status: model.StatusDone}
	_, errOut, err := runBoth(t, api, "shows", "edit", "5", "--set", "status=Cancelled")
	require.NoError(t, err)
	assert.NotContains(t, errOut, "clearing")
	status, _ := api.state()
	assert.Equal(t, model.StatusCancelled, status)
}

func TestCreateRequiresBand(t *testing.T) {
	_, err := run(t, &fakeAPI{}, "shows", "create", "--set", "venue=Hall")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--band")
}
