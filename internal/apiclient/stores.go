package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/iliyamo/band-manager/internal/model"
	"github.com/iliyamo/band-manager/internal/reconcile"
)

// ShowClient implements reconcile.ShowStore.
type ShowClient struct{ c *Client }

// LedgerClient implements reconcile.PaymentLedgerStore.
type LedgerClient struct{ c *Client }

// DirectoryClient implements reconcile.BandMemberDirectory.
type DirectoryClient struct{ c *Client }

var (
	_ reconcile.ShowStore           = ShowClient{}
	_ reconcile.PaymentLedgerStore  = LedgerClient{}
	_ reconcile.BandMemberDirectory = DirectoryClient{}
)

func (c *Client) Shows() ShowClient { return ShowClient{c} }
func (c *Client) Ledger() LedgerClient { return LedgerClient{c} }
func (c *Client) Directory() DirectoryClient { return DirectoryClient{c} }

func (s ShowClient) Create(ctx context.Context, p model.ShowPayload) (model.Show, error) {
	var out model.Show
	return out, s.c.do(ctx, http.MethodPost, "/shows", p, &out)
}

func (s ShowClient) Get(ctx context.Context, id uint64) (model.Show, error) {
	var out model.Show
	return out, s.c.do(ctx, http.MethodGet, fmt.Sprintf("/shows/%d", id), nil, &out)
}

func (s ShowClient) List(ctx context.Context, bandID uint64) ([]model.Show, error) {
	var out []model.Show
	return out, s.c.do(ctx, http.MethodGet, fmt.Sprintf("/bands/%d/shows", bandID), nil, &out)
}

func (s ShowClient) Update(ctx context.Context, id uint64, p model.ShowPayload) (model.Show, error) {
	var out model.Show
	return out, s.c.do(ctx, http.MethodPut, fmt.Sprintf("/shows/%d", id), p, &out)
}

func (s ShowClient) Delete(ctx context.Context, id uint64) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/shows/%d", id), nil, nil)
}

// UploadPoster sends data as the multipart field "file".
func (s ShowClient) UploadPoster(ctx context.Context, id uint64, filename string, data []byte) (model.Show, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return model.Show{}, err
	}
	if _, err := fw.Write(data); err != nil {
		return model.Show{}, err
	}
	if err := w.Close(); err != nil {
		return model.Show{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.c.base+fmt.Sprintf("/shows/%d/poster", id), &body)
	if err != nil {
		return model.Show{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	var out model.Show
	return out, s.c.send(req, &out)
}

func (l LedgerClient) ListByShow(ctx context.Context, showID uint64) ([]model.ShowPayment, error) {
	var out []model.ShowPayment
	return out, l.c.do(ctx, http.MethodGet, fmt.Sprintf("/shows/%d/payments", showID), nil, &out)
}

func (l LedgerClient) Create(ctx context.Context, showID uint64, in model.PaymentInput) (model.ShowPayment, error) {
	var out model.ShowPayment
	return out, l.c.do(ctx, http.MethodPost, fmt.Sprintf("/shows/%d/payments", showID), in, &out)
}

func (l LedgerClient) Update(ctx context.Context, showID, entryID uint64, p model.PaymentPatch) (model.ShowPayment, error) {
	var out model.ShowPayment
	return out, l.c.do(ctx, http.MethodPut, fmt.Sprintf("/shows/%d/payments/%d", showID, entryID), p, &out)
}

func (l LedgerClient) Delete(ctx context.Context, showID, entryID uint64) error {
	return l.c.do(ctx, http.MethodDelete, fmt.Sprintf("/shows/%d/payments/%d", showID, entryID), nil, nil)
}

func (l LedgerClient) Summary(ctx context.Context, showID uint64) (model.PaymentSummary, error) {
	var out model.PaymentSummary
	return out, l.c.do(ctx, http.MethodGet, fmt.Sprintf("/shows/%d/payments/summary", showID), nil, &out)
}

func (d DirectoryClient) MemberNames(ctx context.Context, bandID uint64) ([]string, error) {
	var out []string
	return out, d.c.do(ctx, http.MethodGet, fmt.Sprintf("/bands/%d/members/names", bandID), nil, &out)
}
