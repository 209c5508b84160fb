package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/band-manager/internal/config"
	"github.com/iliyamo/band-manager/internal/handler"
	"github.com/iliyamo/band-manager/internal/model"
	"github.com/iliyamo/band-manager/internal/queue"
	"github.com/iliyamo/band-manager/internal/router"
	"github.com/iliyamo/band-manager/internal/storage"
	"github.com/iliyamo/band-manager/internal/utils"
)

const secret = "handler-test-secret"

type app struct {
	e       *echo.Echo
	db      *memDB
	cfg     config.Config
	shows   *handler.ShowHandler
	posters *memPosters
	events  *recordingPublisher

	mu     sync.Mutex
	purged []uint64
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newApp(t *testing.T) *app {
	t.Helper()
	a := &app{
		e:       echo.New(),
		db:      newMemDB(),
		cfg:     config.Config{JWTSecret: secret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4},
		posters: &memPosters{saved: map[string][]byte{}},
		events:  &recordingPublisher{},
	}
	users, tokens, bands := memUsers{a.db}, memTokens{a.db}, memBands{a.db}

	a.shows = handler.NewShowHandler(memShows{a.db}, bands, a.posters, a.events)
	a.shows.PurgeFund = func(_ context.Context, bandID uint64) {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.purged = append(a.purged, bandID)
	}
	payments := handler.NewPaymentHandler(memShows{a.db}, memPayments{a.db}, a.events)

	router.RegisterRoutes(a.e, nil)
	router.RegisterAuth(a.e, handler.NewAuthHandler(a.cfg, users, tokens), secret, passthrough)
	router.RegisterBands(a.e, handler.NewBandHandler(bands, users), handler.NewMemberHandler(memMembers{a.db}),
		a.shows, bands, secret, passthrough)
	router.RegisterShows(a.e, a.shows, payments, bands, secret)
	router.RegisterLibrary(a.e, handler.NewSongHandler(memSongs{a.db}), handler.NewSetlistHandler(memSetlists{a.db}), bands, secret)
	return a
}

func (a *app) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

type session struct {
	token   string
	refresh string
	userID  uint64
}

func (a *app) signup(t *testing.T, email, name string) session {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", echo.Map{
		"email": email, "password": "correct-horse", "full_name": name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		User    model.User `json:"user"`
		Access  struct{ Token string }
		Refresh struct{ Token string }
	}
	decode(t, rec, &resp)
	return session{token: resp.Access.Token, refresh: resp.Refresh.Token, userID: resp.User.ID}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (a *app) createBand(t *testing.T, s session, name string) model.Band {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/bands", s.token, echo.Map{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var b model.Band
	decode(t, rec, &b)
	return b
}

func (a *app) createShow(t *testing.T, s session, body echo.Map) model.Show {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/shows", s.token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var show model.Show
	decode(t, rec, &show)
	return show
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAuthFlow(t *testing.T) {
	a := newApp(t)
	s := a.signup(t, "Ann@Example.com", "Ann Lee")

	rec := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", echo.Map{
		"email": "ann@example.com", "password": "correct-horse", "full_name": "Ann",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/auth/signup", "", echo.Map{"email": "nope", "password": "short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var verr struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decode(t, rec, &verr)
	assert.Equal(t, "must be a valid email address", verr.Fields["email"])
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "full_name")

	rec = a.do(t, http.MethodPost, "/api/v1/auth/login", "", echo.Map{"email": "ann@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = a.do(t, http.MethodPost, "/api/v1/auth/login", "", echo.Map{"email": " ANN@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/auth/me", s.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.User
	decode(t, rec, &me)
	assert.Equal(t, "ann@example.com", me.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = a.do(t, http.MethodPost, "/api/v1/auth/refresh", "", echo.Map{"refresh_token": s.refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	var rotated struct{ Refresh struct{ Token string } }
	decode(t, rec, &rotated)

	rec = a.do(t, http.MethodPost, "/api/v1/auth/refresh", "", echo.Map{"refresh_token": s.refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "a refresh token is single use")

	rec = a.do(t, http.MethodPost, "/api/v1/auth/logout", "", echo.Map{"refresh_token": rotated.Refresh.Token})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodPost, "/api/v1/auth/refresh", "", echo.Map{"refresh_token": rotated.Refresh.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(t, http.MethodPost, "/api/v1/auth/logout", s.token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLoginUpgradesHashCost(t *testing.T) {
	a := newApp(t)
	a.signup(t, "bob@example.com", "Bob")

	a.cfg.BcryptCost = 5
	e := echo.New()
	router.RegisterAuth(e, handler.NewAuthHandler(a.cfg, memUsers{a.db}, memTokens{a.db}), secret, passthrough)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewBufferString(`{"email":"bob@example.com","password":"correct-horse"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := memUsers{a.db}.GetByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.False(t, utils.NeedsRehash(u.PasswordHash, 5))
}

func TestBandAccess(t *testing.T) {
	a := newApp(t)
	ann := a.signup(t, "ann@example.com", "Ann")
	bob := a.signup(t, "bob@example.com", "Bob")
	band := a.createBand(t, ann, "The Tides")

	rec := a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bands/%d", band.ID), ann.token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bands/%d", band.ID), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bands/%d", band.ID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bands/%d/members", band.ID), ann.token, echo.Map{
		"user_id": bob.userID, "name": "Bob", "email": "  ", "role": "drums",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bobMember model.BandMember
	decode(t, rec, &bobMember)
	assert.Nil(t, bobMember.Email)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bands/%d/members/names", band.ID), bob.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Ann","Bob"]`, rec.Body.String())

	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bands/%d/members", band.ID), bob.token, echo.Map{"name": "Cy"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "plain members cannot edit the roster")

	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bands/%d/members", band.ID), ann.token, echo.Map{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var roster []model.BandMember
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bands/%d/members", band.ID), ann.token, nil)
	decode(t, rec, &roster)
	require.Len(t, roster, 2)
	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/bands/%d/members/%d", band.ID, roster[0].ID), ann.token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "the last admin stays")

	rec = a.do(t, http.MethodPut, fmt.Sprintf("/api/v1/bands/%d", band.ID), bob.token, echo.Map{"name": "Tides"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodGet, "/api/v1/bands", bob.token, nil)
	assert.JSONEq(t, `[`+mustJSON(t, model.Band{ID: band.ID, Name: "Tides"})+`]`, rec.Body.String())
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestShowAndLedgerEndpoints(t *testing.T) {
	a := newApp(t)
	ann := a.signup(t, "ann@example.com", "Ann")
	eve := a.signup(t, "eve@example.com", "Eve")
	band := a.createBand(t, ann, "The Tides")

	rec := a.do(t, http.MethodPost, "/api/v1/shows", ann.token, echo.Map{"band_id": band.ID, "show_date": "2024-13-01"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"venue":"is required"`)
	assert.Contains(t, rec.Body.String(), `"show_date":"must be a date in YYYY-MM-DD format"`)

	rec = a.do(t, http.MethodPost, "/api/v1/shows", eve.token, echo.Map{"band_id": band.ID, "venue": "X", "show_date": "2024-06-01"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	show := a.createShow(t, ann, echo.Map{
		"band_id": band.ID, "venue": "Blue Note", "show_date": "2024-06-01",
		"payment": "1000", "band_fund_amount": "100",
	})
	assert.Equal(t, model.StatusUpcoming, show.Status)
	a.createShow(t, ann, echo.Map{"band_id": band.ID, "venue": "Later", "show_date": "2024-07-01"})

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bands/%d/shows", band.ID), ann.token, nil)
	var listed []model.Show
	decode(t, rec, &listed)
	require.Len(t, listed, 2)
	assert.Equal(t, "Later", listed[0].Venue)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/shows/%d", show.ID), eve.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodGet, "/api/v1/shows/999", ann.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	show.Status = model.StatusPaymentReceived
	rec = a.do(t, http.MethodPut, fmt.Sprintf("/api/v1/shows/%d", show.ID), ann.token, model.ToWire(show))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []queue.EventType{queue.ShowStatusChanged}, a.events.types())
	assert.Equal(t, model.StatusUpcoming, a.events.events[0].From)
	assert.Equal(t, model.StatusPaymentReceived, a.events.events[0].To)

	var entries []model.ShowPayment
	for _, in := range []echo.Map{{"member_name": "Ann", "amount": "500"}, {"member_name": "Bob", "amount": "250.50", "notes": " "}} {
		rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/shows/%d/payments", show.ID), ann.token, in)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var e model.ShowPayment
		decode(t, rec, &e)
		entries = append(entries, e)
	}
	assert.Nil(t, entries[1].Notes)

	rec = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/shows/%d/payments", show.ID), ann.token, echo.Map{"member_name": "Cy", "amount": "-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPut, fmt.Sprintf("/api/v1/shows/%d/payments/%d", show.ID, entries[0].ID), ann.token, echo.Map{"amount": "600"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/shows/%d/payments/summary", show.ID), ann.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sum model.PaymentSummary
	decode(t, rec, &sum)
	assert.True(t, sum.TotalPayment.Equal(decimal.NewFromInt(1000)))
	assert.True(t, sum.TotalMemberPayments.Equal(decimal.RequireFromString("850.50")))
	assert.Len(t, sum.MemberPayments, 2)

	other := a.createShow(t, ann, echo.Map{"band_id": band.ID, "venue": "Elsewhere", "show_date": "2024-08-01"})
	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/shows/%d/payments/%d", other.ID, entries[0].ID), ann.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "entries are scoped to their show")

	for _, e := range entries {
		rec = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/shows/%d/payments/%d", show.ID, e.ID), ann.token, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	assert.Equal(t, []queue.EventType{queue.ShowStatusChanged, queue.ShowLedgerCleared}, a.events.types())

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bands/%d/fund", band.ID), ann.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fund model.BandFund
	decode(t, rec, &fund)
	assert.True(t, fund.Total.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 1, fund.Shows)

	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/shows/%d", show.ID), ann.token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, a.events.types(), queue.ShowDeleted)
	a.mu.Lock()
	assert.Len(t, a.purged, 5, "create x3, update, delete")
	a.mu.Unlock()
}

func upload(t *testing.T, a *app, s session, showID uint64, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", "poster.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/shows/%d/poster", showID), &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func TestShowSearch(t *testing.T) {
	a := newApp(t)
	ann := a.signup(t, "ann@example.com", "Ann")
	band := a.createBand(t, ann, "The Tides")
	for i, venue := range []string{"Blue Note", "Blue Moon", "Red Room"} {
		a.createShow(t, ann, echo.Map{"band_id": band.ID, "venue": venue, "show_date": fmt.Sprintf("2024-06-0%d", i+1)})
	}

	base := fmt.Sprintf("/api/v1/bands/%d/shows/search", band.ID)
	rec := a.do(t, http.MethodGet, base+"?venue=blue&page_size=1", ann.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Items    []model.Show `json:"items"`
		Total    int64        `json:"total"`
		Page     int          `json:"page"`
		PageSize int          `json:"page_size"`
	}
	decode(t, rec, &page)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Blue Moon", page.Items[0].Venue)

	rec = a.do(t, http.MethodGet, base+"?when=upcoming", ann.token, nil)
	page.Items = nil
	decode(t, rec, &page)
	assert.Empty(t, page.Items)

	rec = a.do(t, http.MethodGet, base+"?status=bogus", ann.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(t, http.MethodGet, base+"?page=x", ann.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPosterEndpoints(t *testing.T) {
	a := newApp(t)
	ann := a.signup(t, "ann@example.com", "Ann")
	band := a.createBand(t, ann, "The Tides")
	show := a.createShow(t, ann, echo.Map{"band_id": band.ID, "venue": "Blue Note", "show_date": "2024-06-01"})

	rec := upload(t, a, ann, show.ID, []byte("first"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got model.Show
	decode(t, rec, &got)
	require.NotNil(t, got.Poster)
	first := *got.Poster

	rec = upload(t, a, ann, show.ID, []byte("second"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{first}, a.posters.removed, "the replaced poster is removed")

	a.posters.saveErr = storage.ErrUnsupportedImage
	rec = upload(t, a, ann, show.ID, []byte("not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/shows/%d/poster", show.ID), ann.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &got)
	assert.Nil(t, got.Poster)
	assert.Len(t, a.posters.removed, 2)

	a.shows.Posters = nil
	rec = upload(t, a, ann, show.ID, []byte("x"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
