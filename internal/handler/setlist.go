package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/band-manager/internal/middleware"
	"github.com/iliyamo/band-manager/internal/model"
)

// SetlistRepository is the master setlist storage used by SetlistHandler.
type SetlistRepository interface {
	ListByBand(ctx context.Context, bandID uint64) ([]model.MasterSetlist, error)
	Get(ctx context.Context, id uint64) (model.MasterSetlist, error)
	WithSongs(ctx context.Context, id uint64) (model.SetlistWithSongs, error)
	Create(ctx context.Context, bandID uint64, in model.SetlistInput) (model.MasterSetlist, error)
	Update(ctx context.Context, id uint64, patch model.SetlistPatch) (model.MasterSetlist, error)
	Delete(ctx context.Context, id uint64) error
	Reorder(ctx context.Context, id uint64, songIDs []uint64) (model.SetlistWithSongs, error)
}

// SetlistHandler serves /bands/:id/setlists and /setlists/:id.
type SetlistHandler struct {
	Setlists SetlistRepository
}

func NewSetlistHandler(setlists SetlistRepository) *SetlistHandler {
	return &SetlistHandler{Setlists: setlists}
}

// List returns the band's setlists with song counts.
func (h *SetlistHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	out, err := h.Setlists.ListByBand(ctx, middleware.BandID(c))
	if err != nil {
		return respondError(c, err, "list setlists failed")
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds an empty setlist to the band.
func (h *SetlistHandler) Create(c echo.Context) error {
	var in model.SetlistInput
	if err := c.Bind(&in); err != nil {
		return invalidBody(c)
	}
	if err := in.Validate(); err != nil {
		return respondError(c, err, "create setlist failed")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Setlists.Create(ctx, middleware.BandID(c), in)
	if err != nil {
		return respondError(c, err, "create setlist failed")
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *SetlistHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Setlists.Get(ctx, id)
	if err != nil {
		return respondError(c, err, "load setlist failed")
	}
	return c.JSON(http.StatusOK, m)
}

// Songs returns the setlist with its songs in play order.
func (h *SetlistHandler) Songs(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Setlists.WithSongs(ctx, id)
	if err != nil {
		return respondError(c, err, "load setlist failed")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *SetlistHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	var patch model.SetlistPatch
	if err := c.Bind(&patch); err != nil {
		return invalidBody(c)
	}
	if err := patch.Validate(); err != nil {
		return respondError(c, err, "update setlist failed")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Setlists.Update(ctx, id, patch)
	if err != nil {
		return respondError(c, err, "update setlist failed")
	}
	return c.JSON(http.StatusOK, m)
}

// Delete removes the setlist.  Its songs stay in the library.
func (h *SetlistHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Setlists.Delete(ctx, id); err != nil {
		return respondError(c, err, "delete setlist failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Reorder takes {"song_ids": [...]} and returns the reordered setlist.
func (h *SetlistHandler) Reorder(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	var order model.SetlistOrder
	if err := c.Bind(&order); err != nil {
		return invalidBody(c)
	}
	if errs := model.ValidateStruct(order); errs != nil {
		return respondError(c, errs, "reorder setlist failed")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Setlists.Reorder(ctx, id, order.SongIDs)
	if err != nil {
		return respondError(c, err, "reorder setlist failed")
	}
	return c.JSON(http.StatusOK, m)
}
