package library

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// NotificationDateLayout formats Notification.Date.
const NotificationDateLayout = "2006-01-02"

// Store owns the catalog, the accounts, the notifications and the top
// pick. Every mutation builds the next collection value, swaps it in and
// mirrors it to Storage before returning.
type Store struct {
	mu        sync.RWMutex
	storage   *Storage
	log       *zap.Logger
	now       func() time.Time
	newUserID func() (string, error)

	books         []Book
	users         []User
	notifications []Notification
	topPick       TopPick
}

type StoreOption func(*Store)

// WithClock replaces time.Now for id and date generation.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func WithStoreLogger(log *zap.Logger) StoreOption {
	return func(s *Store) { s.log = log }
}

// WithUserIDs replaces the uuid generator used for new accounts.
func WithUserIDs(gen func() (string, error)) StoreOption {
	return func(s *Store) { s.newUserID = gen }
}

// NewStore loads every collection from storage, using seed for whatever
// is missing.
func NewStore(storage *Storage, seed Seed, opts ...StoreOption) *Store {
	s := &Store{
		storage: storage,
		log:     zap.NewNop(),
		now:     time.Now,
		newUserID: func() (string, error) {
			id, err := uuid.NewV4()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.books = cloneBooks(Load(storage, KeyBooks, seed.Books))
	s.users = cloneUsers(Load(storage, KeyUsers, seed.Users))
	s.notifications = append([]Notification{}, Load(storage, KeyNotifications, seed.Notifications)...)
	s.topPick = Load(storage, KeyTopPick, seed.TopPick)

	s.log.Debug("store loaded",
		zap.Int("books", len(s.books)),
		zap.Int("users", len(s.users)),
		zap.Int("notifications", len(s.notifications)),
	)
	return s
}

// ------------------ Books ------------------

func (s *Store) Books() []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBooks(s.books)
}

func (s *Store) Book(id int64) (Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		if b.ID == id {
			return b.clone(), true
		}
	}
	return Book{}, false
}

// BooksByIDs returns the books for ids in the given order. Ids that no
// longer resolve are skipped.
func (s *Store) BooksByIDs(ids []int64) []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Book, 0, len(ids))
	for _, id := range ids {
		for _, b := range s.books {
			if b.ID == id {
				out = append(out, b.clone())
				break
			}
		}
	}
	return out
}

// AddBook appends a new book with a fresh id and a zero rating.
func (s *Store) AddBook(in BookInput) Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	for _, b := range s.books {
		if b.ID >= id {
			id = b.ID + 1
		}
	}
	b := Book{
		ID:         id,
		Title:      in.Title,
		Author:     in.Author,
		Genres:     in.Genres,
		Cover:      in.Cover,
		Desc:       in.Desc,
		Pages:      PageCount(in.Pages),
		Content:    in.Content,
		Collection: in.Collection,
	}.clone()

	next := append(cloneBooks(s.books), b)
	s.books = next
	s.storage.Save(KeyBooks, next)
	return b.clone()
}

// UpdateBook merges p onto the book with the given id. The id never changes.
func (s *Store) UpdateBook(id int64, p BookPatch) (Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneBooks(s.books)
	for i, b := range next {
		if b.ID != id {
			continue
		}
		updated := p.apply(b)
		updated.ID = b.ID
		next[i] = updated
		s.books = next
		s.storage.Save(KeyBooks, next)
		return updated.clone(), nil
	}
	return Book{}, fmt.Errorf("book %d: %w", id, ErrNotFound)
}

// DeleteBook removes the book. Users that still reference it are left as they are.
func (s *Store) DeleteBook(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Book, 0, len(s.books))
	for _, b := range s.books {
		if b.ID != id {
			next = append(next, b.clone())
		}
	}
	s.books = next
	s.storage.Save(KeyBooks, next)
}

// ------------------ Users ------------------

func (s *Store) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUsers(s.users)
}

func (s *Store) User(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u.clone(), true
		}
	}
	return User{}, false
}

// FindByCredentials returns the user whose username and password both
// match exactly.
func (s *Store) FindByCredentials(username, password string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username && u.Password == password {
			return u.clone(), true
		}
	}
	return User{}, false
}

// AddUser registers a reader. A taken username yields an AuthError and
// leaves the store untouched.
func (s *Store) AddUser(in NewUser) (User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return User{}, &ValidationError{Field: "username", Err: ErrEmptyField}
	}
	if in.Password == "" {
		return User{}, &ValidationError{Field: "password", Err: ErrEmptyField}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == in.Username {
			return User{}, &AuthError{Err: ErrUsernameTaken}
		}
	}
	id, err := s.newUserID()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}
	u := User{
		ID:         id,
		Username:   in.Username,
		Password:   in.Password,
		Name:       in.Name,
		Role:       RoleUser,
		Avatar:     defaultAvatar,
		Bio:        defaultBio,
		WeeklyGoal: WeeklyGoal{Target: defaultWeeklyGoal},
		History:    []int64{},
		Favorites:  []int64{},
	}

	next := append(cloneUsers(s.users), u)
	s.users = next
	s.storage.Save(KeyUsers, next)
	return u.clone(), nil
}

func (s *Store) UpdateUser(id string, p UserPatch) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneUsers(s.users)
	for i, u := range next {
		if u.ID != id {
			continue
		}
		updated := p.apply(u)
		next[i] = updated
		s.users = next
		s.storage.Save(KeyUsers, next)
		return updated.clone(), nil
	}
	return User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// ------------------ Notifications ------------------

// Notifications returns every notification, newest first.
func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Notification{}, s.notifications...)
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, nt := range s.notifications {
		if !nt.Read {
			n++
		}
	}
	return n
}

// PushNotification prepends an unread notification.
func (s *Store) PushNotification(text string) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := now.UnixMilli()
	for _, n := range s.notifications {
		if n.ID >= id {
			id = n.ID + 1
		}
	}
	n := Notification{ID: id, Text: text, Date: now.Format(NotificationDateLayout)}

	next := make([]Notification, 0, len(s.notifications)+1)
	next = append(next, n)
	next = append(next, s.notifications...)
	s.notifications = next
	s.storage.Save(KeyNotifications, next)
	return n
}

func (s *Store) MarkAllNotificationsRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Notification, len(s.notifications))
	for i, n := range s.notifications {
		n.Read = true
		next[i] = n
	}
	s.notifications = next
	s.storage.Save(KeyNotifications, next)
}

// ------------------ Top pick ------------------

func (s *Store) TopPick() TopPick {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topPick
}

// SetTopPick replaces the banner wholesale.
func (s *Store) SetTopPick(tp TopPick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topPick = tp
	s.storage.Save(KeyTopPick, tp)
}

// ------------------ Utilities ------------------

func cloneBooks(in []Book) []Book {
	out := make([]Book, len(in))
	for i, b := range in {
		out[i] = b.clone()
	}
	return out
}

func cloneUsers(in []User) []User {
	out := make([]User, len(in))
	for i, u := range in {
		out[i] = u.clone()
	}
	return out
}
