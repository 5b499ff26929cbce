package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// BookPatch lists the fields an edit may change. Nil fields are left alone.
type BookPatch struct {
	Title      *string
	Author     *string
	Genres     *[]string
	Rating     *float64
	Cover      *string
	Desc       *string
	Pages      *int
	Content    *ReadingContent
	Collection *string
}

func (p BookPatch) apply(b Book) Book {
	b = b.clone()
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Genres != nil {
		b.Genres = slices.Clone(*p.Genres)
	}
	if p.Rating != nil {
		b.Rating = *p.Rating
	}
	if p.Cover != nil {
		b.Cover = *p.Cover
	}
	if p.Desc != nil {
		b.Desc = *p.Desc
	}
	if p.Pages != nil {
		b.Pages = PageCount(*p.Pages)
	}
	if p.Content != nil {
		b.Content = *p.Content
		b.Content.pages = slices.Clone(b.Content.pages)
	}
	if p.Collection != nil {
		b.Collection = *p.Collection
	}
	return b
}

// Patch turns a full editor form into a patch that overwrites every
// editable field except the rating.
func (in BookInput) Patch() BookPatch {
	genres := slices.Clone(in.Genres)
	content := in.Content
	return BookPatch{
		Title:      &in.Title,
		Author:     &in.Author,
		Genres:     &genres,
		Cover:      &in.Cover,
		Desc:       &in.Desc,
		Pages:      &in.Pages,
		Content:    &content,
		Collection: &in.Collection,
	}
}

type bookPatchRecord struct {
	ID         json.RawMessage `json:"id"`
	Title      *string         `json:"title"`
	Author     *string         `json:"author"`
	Genres     *[]string       `json:"genres"`
	Rating     *float64        `json:"rating"`
	Cover      *string         `json:"cover"`
	Desc       *string         `json:"desc"`
	Pages      *PageCount      `json:"pages"`
	PDFURL     *string         `json:"pdfUrl"`
	PageImages *[]string       `json:"pageImages"`
	Collection *string         `json:"collection"`
}

// ParseBookPatch decodes a JSON edit. Unknown fields, an id, or both
// content sources at once are rejected.
func ParseBookPatch(data []byte) (BookPatch, error) {
	var rec bookPatchRecord
	if err := decodeStrict(data, &rec); err != nil {
		return BookPatch{}, err
	}
	if rec.ID != nil {
		return BookPatch{}, &ValidationError{Field: "id", Err: ErrImmutableField}
	}

	p := BookPatch{
		Title:      rec.Title,
		Author:     rec.Author,
		Genres:     rec.Genres,
		Rating:     rec.Rating,
		Cover:      rec.Cover,
		Desc:       rec.Desc,
		Collection: rec.Collection,
	}
	if rec.Pages != nil {
		n := int(*rec.Pages)
		p.Pages = &n
	}
	switch {
	case rec.PDFURL != nil && rec.PageImages != nil:
		return BookPatch{}, &ValidationError{Field: "content", Err: ErrAmbiguousContent}
	case rec.PDFURL != nil:
		c := PDFContent(*rec.PDFURL)
		p.Content = &c
	case rec.PageImages != nil:
		c := ImagePagesContent(*rec.PageImages)
		p.Content = &c
	}
	return p, nil
}

// UserPatch lists the fields of a User that may change after registration.
type UserPatch struct {
	Name       *string
	Password   *string
	Avatar     *string
	Bio        *string
	Stats      *Stats
	WeeklyGoal *WeeklyGoal
	History    *[]int64
	Favorites  *[]int64
}

func (p UserPatch) apply(u User) User {
	u = u.clone()
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Stats != nil {
		u.Stats = *p.Stats
	}
	if p.WeeklyGoal != nil {
		u.WeeklyGoal = *p.WeeklyGoal
	}
	if p.History != nil {
		u.History = cloneIDs(*p.History)
	}
	if p.Favorites != nil {
		u.Favorites = cloneIDs(*p.Favorites)
	}
	return u
}

// ProfilePatch is what a reader may edit on their own profile.
type ProfilePatch struct {
	Name         *string `json:"name"`
	Avatar       *string `json:"avatar"`
	Bio          *string `json:"bio"`
	WeeklyTarget *int    `json:"weeklyTarget"`
}

func ParseProfilePatch(data []byte) (ProfilePatch, error) {
	var p ProfilePatch
	if err := decodeStrict(data, &p); err != nil {
		return ProfilePatch{}, err
	}
	return p, nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if field, ok := unknownField(err); ok {
			return &ValidationError{Field: field, Err: ErrUnknownField}
		}
		return &ValidationError{Err: fmt.Errorf("decode patch: %w", err)}
	}
	return nil
}

// unknownField extracts the field name from encoding/json's
// DisallowUnknownFields error.
func unknownField(err error) (string, bool) {
	rest, ok := strings.CutPrefix(err.Error(), "json: unknown field ")
	if !ok {
		return "", false
	}
	name, uerr := strconv.Unquote(rest)
	if uerr != nil {
		return rest, true
	}
	return name, true
}
