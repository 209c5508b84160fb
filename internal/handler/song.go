package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/band-manager/internal/middleware"
	"github.com/iliyamo/band-manager/internal/model"
)

// SongRepository is the song library storage used by SongHandler.
type SongRepository interface {
	ListByBand(ctx context.Context, bandID uint64) ([]model.Song, error)
	Get(ctx context.Context, id uint64) (model.Song, error)
	Create(ctx context.Context, bandID uint64, in model.SongInput) (model.Song, error)
	Update(ctx context.Context, id uint64, patch model.SongPatch) (model.Song, error)
	Delete(ctx context.Context, id uint64) error
	AddToSetlist(ctx context.Context, songID, setlistID uint64, position *int) error
	RemoveFromSetlist(ctx context.Context, songID, setlistID uint64) error
	ReplaceSetlists(ctx context.Context, songID uint64, setlistIDs []uint64) (model.Song, error)
}

// SongHandler serves /bands/:id/songs and /songs/:id.  The routes sit
// behind RequireBandMember.
type SongHandler struct {
	Songs SongRepository
}

func NewSongHandler(songs SongRepository) *SongHandler { return &SongHandler{Songs: songs} }

// List returns the band's songs by title, each with its setlists.
func (h *SongHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	songs, err := h.Songs.ListByBand(ctx, middleware.BandID(c))
	if err != nil {
		return respondError(c, err, "list songs failed")
	}
	return c.JSON(http.StatusOK, songs)
}

// Create adds a song to the band's library, optionally placing it on
// setlists of the band.
func (h *SongHandler) Create(c echo.Context) error {
	var in model.SongInput
	if err := c.Bind(&in); err != nil {
		return invalidBody(c)
	}
	if err := in.Validate(); err != nil {
		return respondError(c, err, "create song failed")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	s, err := h.Songs.Create(ctx, middleware.BandID(c), in)
	if err != nil {
		return respondError(c, err, "create song failed")
	}
	return c.JSON(http.StatusCreated, s)
}

// Get returns one song with its setlists.
func (h *SongHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	s, err := h.Songs.Get(ctx, id)
	if err != nil {
		return respondError(c, err, "load song failed")
	}
	return c.JSON(http.StatusOK, s)
}

// Update applies a partial change to a song.
func (h *SongHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	var patch model.SongPatch
	if err := c.Bind(&patch); err != nil {
		return invalidBody(c)
	}
	if err := patch.Validate(); err != nil {
		return respondError(c, err, "update song failed")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	s, err := h.Songs.Update(ctx, id, patch)
	if err != nil {
		return respondError(c, err, "update song failed")
	}
	return c.JSON(http.StatusOK, s)
}

// Delete removes a song from the library and from every setlist.
func (h *SongHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Songs.Delete(ctx, id); err != nil {
		return respondError(c, err, "delete song failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// AddToSetlist places the song on a setlist.  The body is optional:
// {"position": n}.  Without a position the song is appended.
func (h *SongHandler) AddToSetlist(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	setlistID, ok := parseID(c, "setlist_id")
	if !ok {
		return invalidID(c, "setlist_id")
	}
	var p model.SetlistPlacement
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&p); err != nil {
			return invalidBody(c)
		}
	}
	if errs := model.ValidateStruct(p); errs != nil {
		return respondError(c, errs, "add song to setlist failed")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Songs.AddToSetlist(ctx, id, setlistID, p.Position); err != nil {
		return respondError(c, err, "add song to setlist failed")
	}
	s, err := h.Songs.Get(ctx, id)
	if err != nil {
		return respondError(c, err, "load song failed")
	}
	return c.JSON(http.StatusCreated, s)
}

// RemoveFromSetlist takes the song off a setlist.
func (h *SongHandler) RemoveFromSetlist(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	setlistID, ok := parseID(c, "setlist_id")
	if !ok {
		return invalidID(c, "setlist_id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Songs.RemoveFromSetlist(ctx, id, setlistID); err != nil {
		return respondError(c, err, "remove song from setlist failed")
	}
	return c.NoContent(http.StatusNoContent)
}

type songSetlistsReq struct {
	SetlistIDs []uint64 `json:"setlist_ids"`
}

// ReplaceSetlists makes {"setlist_ids": [...]} the exact set of setlists
// the song is on.  An empty list takes it off every setlist.
func (h *SongHandler) ReplaceSetlists(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}
	var req songSetlistsReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	s, err := h.Songs.ReplaceSetlists(ctx, id, req.SetlistIDs)
	if err != nil {
		return respondError(c, err, "update song setlists failed")
	}
	return c.JSON(http.StatusOK, s)
}
