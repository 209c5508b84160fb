package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/band-manager/internal/middleware"
	"github.com/iliyamo/band-manager/internal/model"
)

// BandStore is the band storage used by BandHandler.
type BandStore interface {
	Create(ctx context.Context, name string, creator model.User) (model.Band, error)
	GetByID(ctx context.Context, id uint64) (model.Band, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.Band, error)
	Rename(ctx context.Context, id uint64, name string) (model.Band, error)
}

// MemberStore is the roster storage used by MemberHandler.
type MemberStore interface {
	List(ctx context.Context, bandID uint64) ([]model.BandMember, error)
	ActiveNames(ctx context.Context, bandID uint64) ([]string, error)
	Get(ctx context.Context, bandID, memberID uint64) (model.BandMember, error)
	Create(ctx context.Context, bandID uint64, in model.BandMemberInput) (model.BandMember, error)
	Update(ctx context.Context, bandID, memberID uint64, in model.BandMemberInput) (model.BandMember, error)
	Delete(ctx context.Context, bandID, memberID uint64) error
}

// BandHandler serves /bands.
type BandHandler struct {
	Bands BandStore
	Users UserStore
}

func NewBandHandler(b BandStore, u UserStore) *BandHandler {
	return &BandHandler{Bands: b, Users: u}
}

type bandReq struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (r *bandReq) check() error {
	r.Name = strings.TrimSpace(r.Name)
	return model.ValidateStruct(*r).OrNil()
}

// Create makes a band whose first admin is the caller.
func (h *BandHandler) Create(c echo.Context) error {
	var req bandReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := req.check(); err != nil {
		return respondError(c, err, "create band failed")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, currentUser(c))
	if err != nil {
		return respondError(c, err, "load user failed")
	}
	b, err := h.Bands.Create(ctx, req.Name, u)
	if err != nil {
		return respondError(c, err, "create band failed")
	}
	return c.JSON(http.StatusCreated, b)
}

// List returns the bands the caller is an active member of.
func (h *BandHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	bands, err := h.Bands.ListForUser(ctx, currentUser(c))
	if err != nil {
		return respondError(c, err, "list bands failed")
	}
	return c.JSON(http.StatusOK, bands)
}

// Get returns one band together with the caller's membership.
func (h *BandHandler) Get(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	b, err := h.Bands.GetByID(ctx, middleware.BandID(c))
	if err != nil {
		return respondError(c, err, "load band failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"band": b, "membership": c.Get("membership")})
}

// Rename changes the band name.
func (h *BandHandler) Rename(c echo.Context) error {
	var req bandReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := req.check(); err != nil {
		return respondError(c, err, "rename band failed")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	b, err := h.Bands.Rename(ctx, middleware.BandID(c), req.Name)
	if err != nil {
		return respondError(c, err, "rename band failed")
	}
	return c.JSON(http.StatusOK, b)
}

// MemberHandler serves /bands/:id/members.
type MemberHandler struct {
	Members MemberStore
}

func NewMemberHandler(m MemberStore) *MemberHandler { return &MemberHandler{Members: m} }

func bindMember(c echo.Context) (model.BandMemberInput, error) {
	var in model.BandMemberInput
	if err := c.Bind(&in); err != nil {
		return in, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = blankToNil(in.Email)
	in.Phone = blankToNil(in.Phone)
	in.Role = blankToNil(in.Role)
	return in, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// List returns the roster, admins first.
func (h *MemberHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	members, err := h.Members.List(ctx, middleware.BandID(c))
	if err != nil {
		return respondError(c, err, "list members failed")
	}
	return c.JSON(http.StatusOK, members)
}

// Names returns the names of active members, offered as ledger name
// suggestions.
func (h *MemberHandler) Names(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	names, err := h.Members.ActiveNames(ctx, middleware.BandID(c))
	if err != nil {
		return respondError(c, err, "list member names failed")
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, names)
}

// Create adds a roster entry.  Admin only.
func (h *MemberHandler) Create(c echo.Context) error {
	in, err := bindMember(c)
	if err != nil {
		return invalidBody(c)
	}
	if err := in.Validate(); err != nil {
		return respondError(c, err, "add member failed")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Members.Create(ctx, middleware.BandID(c), in)
	if err != nil {
		return respondError(c, err, "add member failed")
	}
	return c.JSON(http.StatusCreated, m)
}

// Update replaces a roster entry.  Admin only.
func (h *MemberHandler) Update(c echo.Context) error {
	memberID, ok := parseID(c, "member_id")
	if !ok {
		return invalidID(c, "member_id")
	}
	in, err := bindMember(c)
	if err != nil {
		return invalidBody(c)
	}
	if err := in.Validate(); err != nil {
		return respondError(c, err, "update member failed")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Members.Update(ctx, middleware.BandID(c), memberID, in)
	if err != nil {
		return respondError(c, err, "update member failed")
	}
	return c.JSON(http.StatusOK, m)
}

// Delete removes a roster entry.  Admin only; the last admin stays.
func (h *MemberHandler) Delete(c echo.Context) error {
	memberID, ok := parseID(c, "member_id")
	if !ok {
		return invalidID(c, "member_id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Members.Delete(ctx, middleware.BandID(c), memberID); err != nil {
		return respondError(c, err, "remove member failed")
	}
	return c.NoContent(http.StatusNoContent)
}
