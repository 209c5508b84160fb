package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/band-manager/internal/model"
	"github.com/iliyamo/band-manager/internal/repository"
)

// BandAccess is the slice of BandRepo the access checks need.
type BandAccess interface {
	Membership(ctx context.Context, bandID, userID uint64) (model.BandMember, error)
	BandOfShow(ctx context.Context, showID uint64) (uint64, error)
	BandOfSong(ctx context.Context, songID uint64) (uint64, error)
	BandOfSetlist(ctx context.Context, setlistID uint64) (uint64, error)
}

// Scope tells the access middleware how to find the band of a request.
type Scope int

const (
	BandParam    Scope = iota // :id is a band id
	ShowParam                 // :id is a show id, its band is looked up
	SongParam                 // :id is a song id
	SetlistParam              // :id is a master setlist id
)

// owner resolves the band of a band-scoped resource.  missing is the
// error lookup reports when the resource does not exist.
type owner struct {
	lookup  func(ctx context.Context, id uint64) (uint64, error)
	missing error
	name    string
}

func (s Scope) owner(bands BandAccess) (owner, bool) {
	switch s {
	case ShowParam:
		return owner{bands.BandOfShow, repository.ErrShowNotFound, "show"}, true
	case SongParam:
		return owner{bands.BandOfSong, repository.ErrSongNotFound, "song"}, true
	case SetlistParam:
		return owner{bands.BandOfSetlist, repository.ErrSetlistNotFound, "setlist"}, true
	}
	return owner{}, false
}

// RequireBandMember rejects the request unless the authenticated user is an
// active member of the band addressed by the route.  On success the band
// id is stored under "band_id" and the membership under "membership".
func RequireBandMember(bands BandAccess, scope Scope) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := UserID(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
			}
			id, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil || id == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
			}
			ctx := c.Request().Context()

			bandID := id
			if o, ok := scope.owner(bands); ok {
				bandID, err = o.lookup(ctx, id)
				if errors.Is(err, o.missing) {
					return c.JSON(http.StatusNotFound, echo.Map{"error": o.name + " not found"})
				}
				if err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load " + o.name})
				}
			}

			m, err := bands.Membership(ctx, bandID, uid)
			if errors.Is(err, repository.ErrForbidden) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check membership"})
			}
			c.Set("band_id", bandID)
			c.Set("membership", m)
			return next(c)
		}
	}
}

// RequireBandAdmin must run after RequireBandMember.
func RequireBandAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m, ok := c.Get("membership").(model.BandMember)
			if !ok || !m.IsAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "band admin required"})
			}
			return next(c)
		}
	}
}

// BandID returns the band resolved by RequireBandMember.
func BandID(c echo.Context) uint64 {
	id, _ := c.Get("band_id").(uint64)
	return id
}
