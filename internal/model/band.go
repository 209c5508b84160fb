package model

import "time"

// Band is a group of musicians sharing shows and a band fund.
type Band struct {
	ID        uint64    `json:"id"`         // bands.id
	Name      string    `json:"name"`       // bands.name
	CreatedAt time.Time `json:"created_at"` // bands.created_at
	UpdatedAt time.Time `json:"updated_at"` // bands.updated_at
}

// BandMember is one entry of a band roster.  A member may be linked to a
// user account (UserID) or be a roster-only name.  Admin members manage
// the roster; a band always keeps at least one active admin.
//
// Fields:
//  ID       – primary key.
//  BandID   – owning band.
//  UserID   – linked account, nil for roster-only members.
//  Name     – display name, also offered as a ledger name suggestion.
//  Email    – optional contact email.
//  Phone    – optional contact phone.
//  Role     – free-text instrument or role ("drums", "vocals").
//  IsAdmin  – may manage the roster.
//  IsActive – counted as part of the band.
//  JoinedAt – when the member joined.
type BandMember struct {
	ID       uint64    `json:"id"`
	BandID   uint64    `json:"band_id"`
	UserID   *uint64   `json:"user_id"`
	Name     string    `json:"name"`
	Email    *string   `json:"email"`
	Phone    *string   `json:"phone"`
	Role     *string   `json:"role"`
	IsAdmin  bool      `json:"is_admin"`
	IsActive bool      `json:"is_active"`
	JoinedAt time.Time `json:"joined_at"`
}

// BandMemberInput is the request body for adding or editing a roster entry.
type BandMemberInput struct {
	UserID   *uint64 `json:"user_id"`
	Name     string  `json:"name" validate:"required,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Role     *string `json:"role" validate:"omitempty,max=64"`
	IsAdmin  bool    `json:"is_admin"`
	IsActive *bool   `json:"is_active"`
}

// Validate returns FieldErrors when the input is unusable.
func (in BandMemberInput) Validate() error { return ValidateStruct(in).OrNil() }
