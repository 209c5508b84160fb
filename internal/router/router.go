// Package router registers the HTTP routes on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/band-manager/internal/handler"
	"github.com/iliyamo/band-manager/internal/middleware"
)

// Prefix is the mount point of the versioned API.
const Prefix = "/api/v1"

// RegisterRoutes registers routes that do not require authentication:
// the liveness probe and, when db is non-nil, the readiness probe.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterAuth registers the account endpoints.  Token-issuing routes are
// wrapped in limiter; logout accepts either a refresh token or a bearer.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(Prefix + "/auth")
	g.POST("/signup", a.Signup, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh, limiter)
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterBands registers band, roster and band-scoped show routes.  Every
// /bands/:id route requires an active membership; roster changes require
// the admin flag.  fundCache wraps the fund total.
func RegisterBands(e *echo.Echo, b *handler.BandHandler, m *handler.MemberHandler, s *handler.ShowHandler,
	access middleware.BandAccess, jwtSecret string, fundCache echo.MiddlewareFunc) {
	g := e.Group(Prefix, middleware.JWTAuth(jwtSecret))
	g.POST("/bands", b.Create)
	g.GET("/bands", b.List)

	member := middleware.RequireBandMember(access, middleware.BandParam)
	admin := middleware.RequireBandAdmin()
	band := g.Group("/bands/:id", member)
	band.GET("", b.Get)
	band.PUT("", b.Rename)
	band.GET("/members", m.List)
	band.GET("/members/names", m.Names)
	band.POST("/members", m.Create, admin)
	band.PUT("/members/:member_id", m.Update, admin)
	band.DELETE("/members/:member_id", m.Delete, admin)
	band.GET("/shows", s.ListByBand)
	band.GET("/shows/search", s.Search)
	band.GET("/fund", s.Fund, fundCache)
}

// RegisterShows registers show, poster and payment routes.  Membership is
// checked against the band owning the show in the path.
func RegisterShows(e *echo.Echo, s *handler.ShowHandler, p *handler.PaymentHandler,
	access middleware.BandAccess, jwtSecret string) {
	g := e.Group(Prefix, middleware.JWTAuth(jwtSecret))
	g.POST("/shows", s.Create)

	show := g.Group("/shows/:id", middleware.RequireBandMember(access, middleware.ShowParam))
	show.GET("", s.Get)
	show.PUT("", s.Update)
	show.DELETE("", s.Delete)
	show.POST("/poster", s.UploadPoster)
	show.DELETE("/poster", s.DeletePoster)
	show.GET("/payments", p.List)
	show.POST("/payments", p.Create)
	show.GET("/payments/summary", p.Summary)
	show.GET("/payments/:payment_id", p.Get)
	show.PUT("/payments/:payment_id", p.Update)
	show.DELETE("/payments/:payment_id", p.Delete)
}

// RegisterLibrary registers the song library and master setlist routes.
// Songs and setlists resolve their band for the membership check.
func RegisterLibrary(e *echo.Echo, songs *handler.SongHandler, setlists *handler.SetlistHandler,
	access middleware.BandAccess, jwtSecret string) {
	g := e.Group(Prefix, middleware.JWTAuth(jwtSecret))

	band := g.Group("/bands/:id", middleware.RequireBandMember(access, middleware.BandParam))
	band.GET("/songs", songs.List)
	band.POST("/songs", songs.Create)
	band.GET("/setlists", setlists.List)
	band.POST("/setlists", setlists.Create)

	song := g.Group("/songs/:id", middleware.RequireBandMember(access, middleware.SongParam))
	song.GET("", songs.Get)
	song.PUT("", songs.Update)
	song.DELETE("", songs.Delete)
	song.PUT("/setlists", songs.ReplaceSetlists)
	song.POST("/setlists/:setlist_id", songs.AddToSetlist)
	song.DELETE("/setlists/:setlist_id", songs.RemoveFromSetlist)

	setlist := g.Group("/setlists/:id", middleware.RequireBandMember(access, middleware.SetlistParam))
	setlist.GET("", setlists.Get)
	setlist.PUT("", setlists.Update)
	setlist.DELETE("", setlists.Delete)
	setlist.GET("/songs", setlists.Songs)
	setlist.PUT("/songs", setlists.Reorder)
}
