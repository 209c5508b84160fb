package model

import (
	"strings"
	"time"
)

// Song is one entry of a band's song library.  Setlists lists the master
// setlists the song currently belongs to, by setlist name.
type Song struct {
	ID               uint64       `json:"id"`                 // songs.id
	BandID           uint64       `json:"band_id"`            // songs.band_id
	Title            string       `json:"title"`              // songs.title
	Description      *string      `json:"description"`        // songs.description (nullable)
	Scale            *string      `json:"scale"`              // songs.scale, e.g. "G Minor"
	Genre            *string      `json:"genre"`              // songs.genre
	Lyrics           *string      `json:"lyrics"`             // songs.lyrics
	ChordStructure   *string      `json:"chord_structure"`    // songs.chord_structure
	LyricsWithChords *string      `json:"lyrics_with_chords"` // songs.lyrics_with_chords
	IsActive         bool         `json:"is_active"`          // songs.is_active
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	Setlists         []SetlistRef `json:"setlists"`
}

// SetlistRef names a setlist inside a song response.
type SetlistRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// SongInput is the body used to create a song.  SetlistIDs optionally
// places the new song at the end of those setlists; ids of setlists that
// do not belong to the song's band are skipped.
type SongInput struct {
	Title            string   `json:"title" validate:"required,max=200"`
	Description      *string  `json:"description"`
	Scale            *string  `json:"scale" validate:"omitempty,max=50"`
	Genre            *string  `json:"genre" validate:"omitempty,max=50"`
	Lyrics           *string  `json:"lyrics"`
	ChordStructure   *string  `json:"chord_structure"`
	LyricsWithChords *string  `json:"lyrics_with_chords"`
	IsActive         *bool    `json:"is_active"`
	SetlistIDs       []uint64 `json:"setlist_ids"`
}

// Validate trims the input and returns FieldErrors when it is unusable.
// Blank optional text becomes nil.
func (in *SongInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	for _, p := range []**string{&in.Description, &in.Scale, &in.Genre, &in.Lyrics, &in.ChordStructure, &in.LyricsWithChords} {
		*p = optionalText(deref(*p))
	}
	return ValidateStruct(*in).OrNil()
}

// Song returns the song described by the input, owned by bandID.
func (in SongInput) Song(bandID uint64) Song {
	return Song{
		BandID:           bandID,
		Title:            in.Title,
		Description:      in.Description,
		Scale:            in.Scale,
		Genre:            in.Genre,
		Lyrics:           in.Lyrics,
		ChordStructure:   in.ChordStructure,
		LyricsWithChords: in.LyricsWithChords,
		IsActive:         in.IsActive == nil || *in.IsActive,
	}
}

// SongPatch is a partial update of a song; nil fields are left unchanged
// and an empty string clears an optional text field.
type SongPatch struct {
	Title            *string `json:"title,omitempty"`
	Description      *string `json:"description,omitempty"`
	Scale            *string `json:"scale,omitempty" validate:"omitempty,max=50"`
	Genre            *string `json:"genre,omitempty" validate:"omitempty,max=50"`
	Lyrics           *string `json:"lyrics,omitempty"`
	ChordStructure   *string `json:"chord_structure,omitempty"`
	LyricsWithChords *string `json:"lyrics_with_chords,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

// Validate rejects a blank or overlong title.
func (p *SongPatch) Validate() error {
	errs := ValidateStruct(*p)
	if errs == nil {
		errs = FieldErrors{}
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		switch {
		case title == "":
			errs.Add("title", "is required")
		case len(title) > 200:
			errs.Add("title", "must be at most 200 characters")
		}
		p.Title = &title
	}
	return errs.OrNil()
}

// Apply returns s with the patch fields applied.
func (p SongPatch) Apply(s Song) Song {
	if p.Title != nil {
		s.Title = *p.Title
	}
	set := func(dst **string, v *string) {
		if v != nil {
			*dst = optionalText(*v)
		}
	}
	set(&s.Description, p.Description)
	set(&s.Scale, p.Scale)
	set(&s.Genre, p.Genre)
	set(&s.Lyrics, p.Lyrics)
	set(&s.ChordStructure, p.ChordStructure)
	set(&s.LyricsWithChords, p.LyricsWithChords)
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
	return s
}

// MasterSetlist is a named, ordered collection of a band's songs that
// show setlists are drawn from.
type MasterSetlist struct {
	ID          uint64    `json:"id"`          // master_setlists.id
	BandID      uint64    `json:"band_id"`     // master_setlists.band_id
	Name        string    `json:"name"`        // master_setlists.name
	Description *string   `json:"description"` // master_setlists.description (nullable)
	IsActive    bool      `json:"is_active"`   // master_setlists.is_active
	SongCount   int       `json:"song_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SetlistInput is the body used to create a setlist.
type SetlistInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description"`
}

// Validate trims the input and returns FieldErrors when it is unusable.
func (in *SetlistInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = optionalText(deref(in.Description))
	return ValidateStruct(*in).OrNil()
}

// SetlistPatch is a partial update of a setlist; nil fields are left
// unchanged.
type SetlistPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Validate rejects a blank or overlong name.
func (p *SetlistPatch) Validate() error {
	if p.Name == nil {
		return nil
	}
	name := strings.TrimSpace(*p.Name)
	p.Name = &name
	switch {
	case name == "":
		return FieldErrors{"name": "is required"}
	case len(name) > 100:
		return FieldErrors{"name": "must be at most 100 characters"}
	}
	return nil
}

// Apply returns s with the patch fields applied.
func (p SetlistPatch) Apply(s MasterSetlist) MasterSetlist {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = optionalText(*p.Description)
	}
	return s
}

// SetlistSong is one song of a setlist in play order.  Position starts at
// zero; gaps are allowed after removals.
type SetlistSong struct {
	ID       uint64  `json:"id"` // songs.id
	Title    string  `json:"title"`
	Scale    *string `json:"scale"`
	Genre    *string `json:"genre"`
	Position int     `json:"position"` // setlist_songs.position
}

// SetlistWithSongs is a setlist together with its songs.
type SetlistWithSongs struct {
	MasterSetlist
	Songs []SetlistSong `json:"songs"`
}

// SetlistOrder is the body of a reorder request: every listed song takes
// its index as position.  Songs not in the setlist are ignored.
type SetlistOrder struct {
	SongIDs []uint64 `json:"song_ids" validate:"required"`
}

// SetlistPlacement is the optional body when adding a song to a setlist.
// A nil Position appends the song.
type SetlistPlacement struct {
	Position *int `json:"position" validate:"omitempty,gte=0"`
}
