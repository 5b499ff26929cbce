package library

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// Role distinguishes catalog administrators from regular readers.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Stats accumulates a reader's progress. TotalTime is in minutes.
type Stats struct {
	BooksReadYear int `json:"booksReadYear"`
	PagesRead     int `json:"pagesRead"`
	CurrentStreak int `json:"currentStreak"`
	TotalTime     int `json:"totalTime"`
}

type WeeklyGoal struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

// User is a registered reader. Passwords are kept as entered.
type User struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Password   string     `json:"password"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Avatar     string     `json:"avatar"`
	Bio        string     `json:"bio"`
	Stats      Stats      `json:"stats"`
	WeeklyGoal WeeklyGoal `json:"weeklyGoal"`
	History    []int64    `json:"history"`   // most recent first, no duplicates
	Favorites  []int64    `json:"favorites"` // at most MaxFavorites entries
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Level grows by one for every three books finished this year.
func (u User) Level() int { return u.Stats.BooksReadYear/3 + 1 }

func (u User) HasFavorite(bookID int64) bool { return slices.Contains(u.Favorites, bookID) }

func (u User) clone() User {
	u.History = cloneIDs(u.History)
	u.Favorites = cloneIDs(u.Favorites)
	return u
}

func cloneIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return slices.Clone(ids)
}

// PageCount is a page total that tolerates strings in stored records.
// A string counts its leading integer ("72 pages" is 72); anything
// without one decodes as zero.
type PageCount int

func (p *PageCount) UnmarshalJSON(b []byte) error {
	*p = 0
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*p = PageCount(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = PageCount(leadingInt(s))
	}
	return nil
}

// leadingInt parses an optionally signed run of digits at the start of
// s, after leading whitespace.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// ContentKind tags which reading source a book carries.
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentPDF
	ContentImagePages
)

func (k ContentKind) String() string {
	switch k {
	case ContentPDF:
		return "pdf"
	case ContentImagePages:
		return "images"
	default:
		return "none"
	}
}

// ReadingContent is the single authoritative source the reader renders:
// a PDF, an ordered list of page images, or nothing.
type ReadingContent struct {
	kind  ContentKind
	pdf   string
	pages []string
}

func NoContent() ReadingContent { return ReadingContent{} }

func PDFContent(uri string) ReadingContent {
	if strings.TrimSpace(uri) == "" {
		return NoContent()
	}
	return ReadingContent{kind: ContentPDF, pdf: uri}
}

func ImagePagesContent(uris []string) ReadingContent {
	if len(uris) == 0 {
		return NoContent()
	}
	return ReadingContent{kind: ContentImagePages, pages: slices.Clone(uris)}
}

// resolveContent maps the stored pdfUrl/pageImages pair onto a single
// variant. Page images take precedence when both are present.
func resolveContent(pdfURL string, pageImages []string) ReadingContent {
	if len(pageImages) > 0 {
		return ImagePagesContent(pageImages)
	}
	return PDFContent(pdfURL)
}

func (c ReadingContent) Kind() ContentKind { return c.kind }

func (c ReadingContent) PDF() (string, bool) {
	return c.pdf, c.kind == ContentPDF
}

func (c ReadingContent) Pages() []string {
	if c.kind != ContentImagePages {
		return nil
	}
	return slices.Clone(c.pages)
}

// PDFEmbedURL returns the PDF address with the viewer chrome disabled.
func (c ReadingContent) PDFEmbedURL() string {
	if c.kind != ContentPDF {
		return ""
	}
	return c.pdf + "#toolbar=0&navpanes=0&scrollbar=0"
}

// Book is a catalog entry.
type Book struct {
	ID         int64
	Title      string
	Author     string
	Genres     []string
	Rating     float64
	Cover      string
	Desc       string
	Pages      PageCount
	Content    ReadingContent
	Collection string
}

// DefaultFinishPages is credited when a finished book has no usable page count.
const DefaultFinishPages = 100

// CountedPages is the number of pages credited when the book is finished.
func (b Book) CountedPages() int {
	if b.Pages > 0 {
		return int(b.Pages)
	}
	return DefaultFinishPages
}

func (b Book) HasGenre(genre string) bool { return slices.Contains(b.Genres, genre) }

func (b Book) clone() Book {
	b.Genres = slices.Clone(b.Genres)
	b.Content.pages = slices.Clone(b.Content.pages)
	return b
}

// bookRecord is the stored shape of a Book.
type bookRecord struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Genres     []string  `json:"genres"`
	Rating     float64   `json:"rating"`
	Cover      string    `json:"cover"`
	Desc       string    `json:"desc"`
	Pages      PageCount `json:"pages"`
	PDFURL     string    `json:"pdfUrl,omitempty"`
	PageImages []string  `json:"pageImages,omitempty"`
	Collection string    `json:"collection,omitempty"`
}

func (b Book) MarshalJSON() ([]byte, error) {
	rec := bookRecord{
		ID:         b.ID,
		Title:      b.Title,
		Author:     b.Author,
		Genres:     b.Genres,
		Rating:     b.Rating,
		Cover:      b.Cover,
		Desc:       b.Desc,
		Pages:      b.Pages,
		Collection: b.Collection,
	}
	if rec.Genres == nil {
		rec.Genres = []string{}
	}
	switch b.Content.kind {
	case ContentPDF:
		rec.PDFURL = b.Content.pdf
	case ContentImagePages:
		rec.PageImages = b.Content.pages
	}
	return json.Marshal(rec)
}

func (b *Book) UnmarshalJSON(data []byte) error {
	var rec bookRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*b = Book{
		ID:         rec.ID,
		Title:      rec.Title,
		Author:     rec.Author,
		Genres:     rec.Genres,
		Rating:     rec.Rating,
		Cover:      rec.Cover,
		Desc:       rec.Desc,
		Pages:      rec.Pages,
		Content:    resolveContent(rec.PDFURL, rec.PageImages),
		Collection: rec.Collection,
	}
	return nil
}

// Notification is an admin broadcast shown to every reader.
type Notification struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	Date string `json:"date"`
	Read bool   `json:"read"`
}

// TopPick is the featured banner on the home view. ID references a Book.
type TopPick struct {
	ID          int64  `json:"id"`
	BannerTitle string `json:"bannerTitle"`
	BannerDesc  string `json:"bannerDesc"`
	BannerCover string `json:"bannerCover"`
}

// BookInput carries the fields of a new catalog entry.
type BookInput struct {
	Title      string
	Author     string
	Genres     []string
	Cover      string
	Desc       string
	Pages      int
	Content    ReadingContent
	Collection string
}

// NewUser carries the registration form.
type NewUser struct {
	Username string
	Password string
	Name     string
}
