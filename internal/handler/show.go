package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/band-manager/internal/logger"
	"github.com/iliyamo/band-manager/internal/middleware"
	"github.com/iliyamo/band-manager/internal/model"
	"github.com/iliyamo/band-manager/internal/queue"
	"github.com/iliyamo/band-manager/internal/repository"
)

// ShowRepository is the show storage used by ShowHandler.
type ShowRepository interface {
	Create(ctx context.Context, s model.Show) (model.Show, error)
	GetByID(ctx context.Context, id uint64) (model.Show, error)
	ListByBand(ctx context.Context, bandID uint64) ([]model.Show, error)
	Search(ctx context.Context, q repository.ShowSearchQuery) ([]model.Show, int64, error)
	Update(ctx context.Context, id uint64, s model.Show) (model.Show, error)
	SetPoster(ctx context.Context, id uint64, poster *string) (model.Show, error)
	Delete(ctx context.Context, id uint64) error
	FundTotal(ctx context.Context, bandID uint64) (model.BandFund, error)
}

// PosterStorage keeps uploaded posters.  Remove reports false for
// references it did not issue.
type PosterStorage interface {
	Save(ctx context.Context, showID uint64, data []byte) (string, error)
	Remove(ctx context.Context, ref string) (bool, error)
}

// ShowHandler serves /shows and the band-scoped show listing.
type ShowHandler struct {
	Shows   ShowRepository
	Access  middleware.BandAccess
	Posters PosterStorage // nil when object storage is disabled
	Events  queue.Publisher
	// PurgeFund drops cached fund totals of a band; optional.
	PurgeFund func(ctx context.Context, bandID uint64)
	// MaxPosterBytes caps the multipart file read into memory.
	MaxPosterBytes int64
}

func NewShowHandler(shows ShowRepository, access middleware.BandAccess, posters PosterStorage, events queue.Publisher) *ShowHandler {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &ShowHandler{Shows: shows, Access: access, Posters: posters, Events: events, MaxPosterBytes: 10 << 20}
}

// Create validates a ShowDraft and stores it.  The caller must be an
// active member of the draft's band.
func (h *ShowHandler) Create(c echo.Context) error {
	var d model.ShowDraft
	if err := c.Bind(&d); err != nil {
		return invalidBody(c)
	}
	if d.BandID == 0 {
		return respondError(c, model.FieldErrors{"band_id": "is required"}, "create show failed")
	}
	s, err := d.Validate()
	if err != nil {
		return respondError(c, err, "create show failed")
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	if _, err := h.Access.Membership(ctx, d.BandID, currentUser(c)); err != nil {
		return respondError(c, err, "check membership failed")
	}
	created, err := h.Shows.Create(ctx, s)
	if err != nil {
		return respondError(c, err, "create show failed")
	}
	h.fundChanged(ctx, created.BandID)
	return c.JSON(http.StatusCreated, created)
}

// Get returns one show.
func (h *ShowHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	s, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err, "load show failed")
	}
	return c.JSON(http.StatusOK, s)
}

// ListByBand returns the band's shows, latest date first.
func (h *ShowHandler) ListByBand(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	shows, err := h.Shows.ListByBand(ctx, middleware.BandID(c))
	if err != nil {
		return respondError(c, err, "list shows failed")
	}
	return c.JSON(http.StatusOK, shows)
}

type searchResp struct {
	Items    []model.Show `json:"items"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// Search filters the band's shows by venue, status and date with paging:
// ?venue=&status=&when=upcoming|past|any&page=&page_size=
func (h *ShowHandler) Search(c echo.Context) error {
	q := repository.ShowSearchQuery{
		BandID:     middleware.BandID(c),
		Venue:      c.QueryParam("venue"),
		TimeFilter: c.QueryParam("when"),
	}
	if err := echo.QueryParamsBinder(c).
		Int("page", &q.Page).
		Int("page_size", &q.PageSize).
		BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "page and page_size must be integers"})
	}
	if raw := c.QueryParam("status"); raw != "" {
		st, err := model.ParseShowStatus(raw)
		if err != nil {
			return respondError(c, model.FieldErrors{"status": "must be one of Upcoming, Done, Cancelled, Complete - Payment Received"}, "")
		}
		q.Status = st
	}
	q.Normalize()

	ctx, cancel := dbContext(c)
	defer cancel()
	items, total, err := h.Shows.Search(ctx, q)
	if err != nil {
		return respondError(c, err, "search shows failed")
	}
	return c.JSON(http.StatusOK, searchResp{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize})
}

// Update replaces every field of a show with the payload.  A show cannot
// move to another band.  Status changes are published as events; payment
// entries are left to the client's reconciliation.
func (h *ShowHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	var p model.ShowPayload
	if err := c.Bind(&p); err != nil {
		return invalidBody(c)
	}
	p.BandID = middleware.BandID(c)
	next, err := model.FromWire(p)
	if err != nil {
		return respondError(c, err, "update show failed")
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	prev, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err, "load show failed")
	}
	saved, err := h.Shows.Update(ctx, id, next)
	if err != nil {
		return respondError(c, err, "update show failed")
	}
	if prev.Status != saved.Status {
		ev := queue.NewShowEvent(queue.ShowStatusChanged, saved, currentUser(c))
		ev.From, ev.To = prev.Status, saved.Status
		h.publish(c, ev)
	}
	h.fundChanged(ctx, saved.BandID)
	return c.JSON(http.StatusOK, saved)
}

// Delete removes a show; its payments go with it.
func (h *ShowHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	s, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err, "load show failed")
	}
	if err := h.Shows.Delete(ctx, id); err != nil {
		return respondError(c, err, "delete show failed")
	}
	if s.Poster != nil {
		h.removePoster(c, *s.Poster)
	}
	h.publish(c, queue.NewShowEvent(queue.ShowDeleted, s, currentUser(c)))
	h.fundChanged(ctx, s.BandID)
	return c.NoContent(http.StatusNoContent)
}

// Fund returns the sum of band_fund_amount over the band's shows.
func (h *ShowHandler) Fund(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	f, err := h.Shows.FundTotal(ctx, middleware.BandID(c))
	if err != nil {
		return respondError(c, err, "load band fund failed")
	}
	return c.JSON(http.StatusOK, f)
}

// UploadPoster stores the multipart "file" as the show's poster, replacing
// any previous upload.
func (h *ShowHandler) UploadPoster(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	if h.Posters == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "poster storage is disabled"})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart field \"file\" is required"})
	}
	if h.MaxPosterBytes > 0 && fh.Size > h.MaxPosterBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "poster exceeds upload limit"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
	}

	ctx := c.Request().Context()
	prev, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err, "load show failed")
	}
	ref, err := h.Posters.Save(ctx, id, data)
	if err != nil {
		return respondError(c, err, "store poster failed")
	}
	saved, err := h.Shows.SetPoster(ctx, id, &ref)
	if err != nil {
		h.removePoster(c, ref)
		return respondError(c, err, "update show failed")
	}
	if prev.Poster != nil && *prev.Poster != ref {
		h.removePoster(c, *prev.Poster)
	}
	return c.JSON(http.StatusOK, saved)
}

// DeletePoster clears the poster of a show.
func (h *ShowHandler) DeletePoster(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	prev, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err, "load show failed")
	}
	saved, err := h.Shows.SetPoster(ctx, id, nil)
	if err != nil {
		return respondError(c, err, "update show failed")
	}
	if prev.Poster != nil {
		h.removePoster(c, *prev.Poster)
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *ShowHandler) removePoster(c echo.Context, ref string) {
	if h.Posters == nil {
		return
	}
	if _, err := h.Posters.Remove(context.WithoutCancel(c.Request().Context()), ref); err != nil {
		logger.FromContext(c).Warn("remove poster failed", zap.String("ref", ref), zap.Error(err))
	}
}

func (h *ShowHandler) publish(c echo.Context, ev queue.ShowEvent) {
	publish(c, h.Events, ev)
}

func (h *ShowHandler) fundChanged(ctx context.Context, bandID uint64) {
	if h.PurgeFund != nil {
		h.PurgeFund(context.WithoutCancel(ctx), bandID)
	}
}

// publish sends ev and only logs a failure; events never fail a request.
func publish(c echo.Context, p queue.Publisher, ev queue.ShowEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(context.WithoutCancel(c.Request().Context()), ev); err != nil {
		logger.FromContext(c).Warn("publish event failed",
			zap.String("type", string(ev.Type)), zap.Uint64("show_id", ev.ShowID), zap.Error(err))
	}
}

// FundPath is the request path of a band's fund total, used as cache key.
func FundPath(bandID uint64) string {
	return fmt.Sprintf("/api/v1/bands/%d/fund", bandID)
}
