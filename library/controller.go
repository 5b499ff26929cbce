package library

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ViewKind names the screen the application is on.
type ViewKind int

const (
	ViewLoggedOut ViewKind = iota
	ViewHome
	ViewDetail
	ViewReader
	ViewProfile
)

func (k ViewKind) String() string {
	switch k {
	case ViewHome:
		return "home"
	case ViewDetail:
		return "detail"
	case ViewReader:
		return "reader"
	case ViewProfile:
		return "profile"
	default:
		return "login"
	}
}

// View is the current screen. Book is set for Detail and Reader only.
type View struct {
	Kind ViewKind
	Book *Book
}

const (
	// GenreAll is the filter value that matches every book.
	GenreAll = "All"
	// FinishMinutes is the reading time credited per finished book.
	FinishMinutes = 120
	MaxFavorites  = 3
	// RecentHistoryLen is how many history entries the profile shows.
	RecentHistoryLen = 4
)

// Modals holds which overlay forms are open.
type Modals struct {
	BookEditor    bool
	EditingID     int64 // 0 when the editor creates a new book
	Notify        bool
	TopPick       bool
	Notifications bool
}

// Controller is the view state machine. Presentation code calls its
// intents and renders from its queries; it never touches the Store
// directly.
type Controller struct {
	mu      sync.Mutex
	store   *Store
	session *Session
	log     *zap.Logger

	view   View
	search string
	genre  string
	modals Modals

	// formToken identifies the currently open editor. Closing or
	// replacing the editor bumps it so late uploads are dropped.
	formToken    uint64
	pendingCover string
}

// NewController restores the persisted session: the first view is Home
// when it resolves and LoggedOut otherwise.
func NewController(store *Store, session *Session, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		store:   store,
		session: session,
		log:     log,
		view:    View{Kind: ViewLoggedOut},
		genre:   GenreAll,
	}
	if u, ok := session.Restore(); ok {
		c.view = View{Kind: ViewHome}
		log.Debug("session restored", zap.String("username", u.Username))
	}
	return c
}

// ------------------ Queries ------------------

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.view
	if v.Book != nil {
		b := v.Book.clone()
		v.Book = &b
	}
	return v
}

func (c *Controller) CurrentUser() (User, bool) { return c.session.Current() }

func (c *Controller) IsAdmin() bool {
	u, ok := c.session.Current()
	return ok && u.IsAdmin()
}

func (c *Controller) Search() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

func (c *Controller) GenreFilter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.genre
}

func (c *Controller) Modals() Modals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modals
}

// FilteredBooks is the catalog narrowed by the search text (case
// insensitive title substring) and the genre filter.
func (c *Controller) FilteredBooks() []Book {
	c.mu.Lock()
	search, genre := c.search, c.genre
	c.mu.Unlock()
	return FilterBooks(c.store.Books(), search, genre)
}

// FilterBooks applies the search and genre filter to books.
func FilterBooks(books []Book, search, genre string) []Book {
	needle := strings.ToLower(search)
	out := make([]Book, 0, len(books))
	for _, b := range books {
		if !strings.Contains(strings.ToLower(b.Title), needle) {
			continue
		}
		if genre != GenreAll && !b.HasGenre(genre) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Genres lists every distinct genre in the catalog, sorted.
func (c *Controller) Genres() []string {
	seen := map[string]struct{}{}
	var genres []string
	for _, b := range c.store.Books() {
		for _, g := range b.Genres {
			if _, ok := seen[g]; ok || g == "" {
				continue
			}
			seen[g] = struct{}{}
			genres = append(genres, g)
		}
	}
	slices.Sort(genres)
	return genres
}

func (c *Controller) Notifications() []Notification { return c.store.Notifications() }
func (c *Controller) UnreadCount() int              { return c.store.UnreadCount() }
func (c *Controller) TopPick() TopPick              { return c.store.TopPick() }

// FavoriteBooks resolves the current user's favorites, skipping deleted books.
func (c *Controller) FavoriteBooks() []Book {
	u, ok := c.session.Current()
	if !ok {
		return nil
	}
	return c.store.BooksByIDs(u.Favorites)
}

// RecentHistory resolves up to n of the most recently finished books,
// skipping deleted ones.
func (c *Controller) RecentHistory(n int) []Book {
	u, ok := c.session.Current()
	if !ok {
		return nil
	}
	ids := u.History
	if n >= 0 && len(ids) > n {
		ids = ids[:n]
	}
	return c.store.BooksByIDs(ids)
}

// ------------------ Session intents ------------------

func (c *Controller) Login(username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view.Kind != ViewLoggedOut {
		return ErrInvalidTransition
	}
	if _, err := c.session.Login(username, password); err != nil {
		return err
	}
	c.goTo(View{Kind: ViewHome})
	return nil
}

func (c *Controller) Register(in NewUser) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view.Kind != ViewLoggedOut {
		return ErrInvalidTransition
	}
	u, err := c.store.AddUser(in)
	if err != nil {
		return err
	}
	c.session.Begin(u)
	c.goTo(View{Kind: ViewHome})
	return nil
}

// Logout works from any view and forgets every transient selection.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Logout()
	c.search = ""
	c.genre = GenreAll
	c.goTo(View{Kind: ViewLoggedOut})
}

// ------------------ Navigation intents ------------------

// SelectBook opens the detail view from Home or Profile.
func (c *Controller) SelectBook(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view.Kind != ViewHome && c.view.Kind != ViewProfile {
		return ErrInvalidTransition
	}
	b, ok := c.store.Book(id)
	if !ok {
		return fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	c.goTo(View{Kind: ViewDetail, Book: &b})
	return nil
}

// OpenTopPick opens the banner's book, or the first catalog book when
// the banner points at a deleted one.
func (c *Controller) OpenTopPick() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view.Kind != ViewHome {
		return ErrInvalidTransition
	}
	b, ok := c.store.Book(c.store.TopPick().ID)
	if !ok {
		books := c.store.Books()
		if len(books) == 0 {
			return fmt.Errorf("top pick: %w", ErrNotFound)
		}
		b = books[0]
	}
	c.goTo(View{Kind: ViewDetail, Book: &b})
	return nil
}

func (c *Controller) Read() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view.Kind != ViewDetail {
		return ErrInvalidTransition
	}
	c.goTo(View{Kind: ViewReader, Book: c.view.Book})
	return nil
}

func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.view.Kind {
	case ViewReader:
		c.goTo(View{Kind: ViewDetail, Book: c.view.Book})
	case ViewDetail, ViewProfile:
		c.goTo(View{Kind: ViewHome})
	default:
		return ErrInvalidTransition
	}
	return nil
}

func (c *Controller) ShowProfile() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view.Kind != ViewHome {
		return ErrInvalidTransition
	}
	c.goTo(View{Kind: ViewProfile})
	return nil
}

func (c *Controller) ShowHome() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view.Kind != ViewProfile {
		return ErrInvalidTransition
	}
	c.goTo(View{Kind: ViewHome})
	return nil
}

// goTo switches view and closes any open form. Caller holds c.mu.
func (c *Controller) goTo(v View) {
	c.log.Debug("view", zap.Stringer("from", c.view.Kind), zap.Stringer("to", v.Kind))
	c.view = v
	c.closeModals()
}

// ------------------ Reading intents ------------------

// Finish credits the book in the reader to the current user and returns
// to Home.
func (c *Controller) Finish() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view.Kind != ViewReader || c.view.Book == nil {
		return ErrInvalidTransition
	}
	u, ok := c.session.Current()
	if !ok {
		return ErrNotLoggedIn
	}
	b := c.view.Book

	stats := u.Stats
	stats.BooksReadYear++
	stats.PagesRead += b.CountedPages()
	stats.TotalTime += FinishMinutes

	goal := u.WeeklyGoal
	goal.Current++

	history := make([]int64, 0, len(u.History)+1)
	history = append(history, b.ID)
	for _, id := range u.History {
		if id != b.ID {
			history = append(history, id)
		}
	}

	if _, err := c.store.UpdateUser(u.ID, UserPatch{Stats: &stats, WeeklyGoal: &goal, History: &history}); err != nil {
		return err
	}
	c.log.Debug("book finished", zap.Int64("book_id", b.ID), zap.String("user_id", u.ID))
	c.goTo(View{Kind: ViewHome})
	return nil
}

// ToggleFavorite adds or removes bookID from the current user's
// favorites. Adding beyond MaxFavorites is rejected and changes nothing.
func (c *Controller) ToggleFavorite(bookID int64) (added bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.session.Current()
	if !ok {
		return false, ErrNotLoggedIn
	}

	var favs []int64
	if u.HasFavorite(bookID) {
		favs = slices.DeleteFunc(slices.Clone(u.Favorites), func(id int64) bool { return id == bookID })
	} else {
		if len(u.Favorites) >= MaxFavorites {
			c.log.Debug("favorite limit reached", zap.Int64("book_id", bookID))
			return false, &ValidationError{Field: "favorites", Err: ErrFavoriteLimit}
		}
		favs = append(slices.Clone(u.Favorites), bookID)
		added = true
	}
	if _, err := c.store.UpdateUser(u.ID, UserPatch{Favorites: &favs}); err != nil {
		return false, err
	}
	return added, nil
}

func (c *Controller) SetSearch(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = s
}

// SetGenreFilter narrows the catalog to one genre. Empty means GenreAll.
func (c *Controller) SetGenreFilter(g string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g == "" {
		g = GenreAll
	}
	c.genre = g
}

// ------------------ Profile intents ------------------

func (c *Controller) UpdateProfile(p ProfilePatch) (User, error) {
	u, ok := c.session.Current()
	if !ok {
		return User{}, ErrNotLoggedIn
	}
	up := UserPatch{Name: p.Name, Avatar: p.Avatar, Bio: p.Bio}
	if p.WeeklyTarget != nil {
		if *p.WeeklyTarget < 1 {
			return User{}, &ValidationError{Field: "weeklyTarget", Err: errors.New("must be at least 1")}
		}
		goal := u.WeeklyGoal
		goal.Target = *p.WeeklyTarget
		up.WeeklyGoal = &goal
	}
	return c.store.UpdateUser(u.ID, up)
}

// OpenNotifications shows the tray and marks everything read.
func (c *Controller) OpenNotifications() []Notification {
	c.mu.Lock()
	c.modals.Notifications = true
	c.mu.Unlock()
	list := c.store.Notifications()
	c.store.MarkAllNotificationsRead()
	return list
}

// ------------------ Admin intents ------------------
//
// Role checks belong to the presentation layer; these intents assume
// the caller already verified IsAdmin.

// OpenBookEditor opens the book form, for a new book when editingID is
// 0. The returned token identifies this form instance.
func (c *Controller) OpenBookEditor(editingID int64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeModals()
	c.modals.BookEditor = true
	c.modals.EditingID = editingID
	return c.formToken
}

// AttachCover stores an uploaded cover on the open editor. Uploads that
// finish after their form was closed or replaced get ErrStaleUpload.
func (c *Controller) AttachCover(token uint64, uri string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.modals.BookEditor || token != c.formToken {
		return ErrStaleUpload
	}
	c.pendingCover = uri
	return nil
}

// SaveBook submits the open editor: it edits the book being edited or
// adds a new one. An attached cover fills in an empty Cover.
func (c *Controller) SaveBook(in BookInput) (Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(in.Title) == "" {
		return Book{}, &ValidationError{Field: "title", Err: ErrEmptyField}
	}
	if in.Cover == "" {
		in.Cover = c.pendingCover
	}

	var (
		b   Book
		err error
	)
	if c.modals.BookEditor && c.modals.EditingID != 0 {
		b, err = c.store.UpdateBook(c.modals.EditingID, in.Patch())
		if err != nil {
			return Book{}, err
		}
		c.refreshSelected(b)
	} else {
		b = c.store.AddBook(in)
	}
	c.closeModals()
	return b, nil
}

// EditBook applies a partial edit outside the editor form.
func (c *Controller) EditBook(id int64, p BookPatch) (Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.store.UpdateBook(id, p)
	if err != nil {
		return Book{}, err
	}
	c.refreshSelected(b)
	return b, nil
}

// DeleteBook removes a book and returns to Home.
func (c *Controller) DeleteBook(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.DeleteBook(id)
	c.log.Info("book deleted", zap.Int64("book_id", id))
	if c.view.Kind != ViewLoggedOut {
		c.goTo(View{Kind: ViewHome})
	}
}

func (c *Controller) SendNotification(text string) (Notification, error) {
	if strings.TrimSpace(text) == "" {
		return Notification{}, &ValidationError{Field: "text", Err: ErrEmptyField}
	}
	n := c.store.PushNotification(text)
	c.mu.Lock()
	c.closeModals()
	c.mu.Unlock()
	return n, nil
}

func (c *Controller) SetTopPick(tp TopPick) {
	c.store.SetTopPick(tp)
	c.mu.Lock()
	c.closeModals()
	c.mu.Unlock()
}

// OpenNotifyForm and OpenTopPickForm flag the matching admin modal.
func (c *Controller) OpenNotifyForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeModals()
	c.modals.Notify = true
}

func (c *Controller) OpenTopPickForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeModals()
	c.modals.TopPick = true
}

func (c *Controller) CloseModals() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeModals()
}

func (c *Controller) closeModals() {
	c.modals = Modals{}
	c.formToken++
	c.pendingCover = ""
}

func (c *Controller) refreshSelected(b Book) {
	if c.view.Book != nil && c.view.Book.ID == b.ID {
		nb := b.clone()
		c.view.Book = &nb
	}
}
