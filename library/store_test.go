package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreStartsFromSeed(t *testing.T) {
	s := newTestStore(t, newMemKV())
	assert.Len(t, s.Books(), 5)
	assert.Len(t, s.Users(), 1)
	assert.Equal(t, 1, s.UnreadCount())
	assert.Equal(t, int64(1), s.TopPick().ID)
}

func TestStoredStateWinsOverSeed(t *testing.T) {
	kv := newMemKV()
	NewStorage(kv, nil).Save(KeyBooks, []Book{{ID: 42, Title: "Only", Genres: []string{}}})

	s := newTestStore(t, kv)
	books := s.Books()
	require.Len(t, books, 1)
	assert.Equal(t, "Only", books[0].Title)
	// Untouched collections still come from the seed.
	assert.Len(t, s.Users(), 1)
}

func TestAddBookAssignsUniqueIDs(t *testing.T) {
	kv := newMemKV()
	s := newTestStore(t, kv)

	a := s.AddBook(BookInput{Title: "A", Genres: []string{"Poetry"}, Pages: 40})
	b := s.AddBook(BookInput{Title: "B"})

	// Same clock reading for both: the second id is bumped.
	assert.Equal(t, fixedNow.UnixMilli(), a.ID)
	assert.Equal(t, a.ID+1, b.ID)
	assert.Zero(t, a.Rating)
	assert.Len(t, s.Books(), 7)

	reloaded := newTestStore(t, kv)
	got, ok := reloaded.Book(a.ID)
	require.True(t, ok)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, PageCount(40), got.Pages)
}

func TestUpdateBook(t *testing.T) {
	s := newTestStore(t, newMemKV())
	title := "Neon Rain (Revised)"
	rating := 3.9

	got, err := s.UpdateBook(2, BookPatch{Title: &title, Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, "Cyber Dreams", got.Author)
	assert.Equal(t, 3.9, got.Rating)

	stored, _ := s.Book(2)
	assert.Equal(t, got, stored)

	_, err = s.UpdateBook(999, BookPatch{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReturnedBooksAreCopies(t *testing.T) {
	s := newTestStore(t, newMemKV())
	b, _ := s.Book(1)
	b.Genres[0] = "Horror"
	b.Title = "changed"

	again, _ := s.Book(1)
	assert.Equal(t, "Chronicles of Aether", again.Title)
	assert.Equal(t, "Fantasy", again.Genres[0])
}

func TestDeleteBookKeepsUserReferences(t *testing.T) {
	s := newTestStore(t, newMemKV())
	favs := []int64{5, 1}
	_, err := s.UpdateUser("admin", UserPatch{Favorites: &favs})
	require.NoError(t, err)

	s.DeleteBook(5)
	_, ok := s.Book(5)
	assert.False(t, ok)

	u, _ := s.User("admin")
	assert.Equal(t, []int64{5, 1}, u.Favorites)
	assert.Equal(t, []int64{1}, bookIDs(s.BooksByIDs(u.Favorites)))
}

func TestAddUser(t *testing.T) {
	s := NewStore(NewStorage(newMemKV(), nil), testSeed(), WithUserIDs(func() (string, error) { return "u-1", nil }))

	u, err := s.AddUser(NewUser{Username: "ana", Password: "pw", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, Stats{}, u.Stats)
	assert.Equal(t, WeeklyGoal{Target: 5}, u.WeeklyGoal)
	assert.Empty(t, u.History)
	assert.Empty(t, u.Favorites)
	assert.NotEmpty(t, u.Avatar)
}

func TestAddUserGeneratesUUIDs(t *testing.T) {
	s := newTestStore(t, newMemKV())
	a, err := s.AddUser(NewUser{Username: "a", Password: "pw"})
	require.NoError(t, err)
	b, err := s.AddUser(NewUser{Username: "b", Password: "pw"})
	require.NoError(t, err)
	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDuplicateUsernameIsRejected(t *testing.T) {
	s := newTestStore(t, newMemKV())

	_, err := s.AddUser(NewUser{Username: "ana", Password: "pw"})
	require.NoError(t, err)
	_, err = s.AddUser(NewUser{Username: "ana", Password: "other"})

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	require.ErrorIs(t, err, ErrUsernameTaken)

	count := 0
	for _, u := range s.Users() {
		if u.Username == "ana" {
			count++
			assert.Equal(t, "pw", u.Password)
		}
	}
	assert.Equal(t, 1, count)
}

func TestAddUserRequiresCredentials(t *testing.T) {
	s := newTestStore(t, newMemKV())
	_, err := s.AddUser(NewUser{Username: " ", Password: "pw"})
	require.ErrorIs(t, err, ErrEmptyField)
	_, err = s.AddUser(NewUser{Username: "ana"})
	require.ErrorIs(t, err, ErrEmptyField)
	assert.Len(t, s.Users(), 1)
}

func TestNotifications(t *testing.T) {
	kv := newMemKV()
	s := newTestStore(t, kv)

	n := s.PushNotification("Volume 2 is out")
	assert.False(t, n.Read)
	assert.Equal(t, "2026-03-14", n.Date)

	list := s.Notifications()
	require.Len(t, list, 2)
	assert.Equal(t, "Volume 2 is out", list[0].Text)
	assert.Equal(t, 2, s.UnreadCount())

	s.MarkAllNotificationsRead()
	assert.Zero(t, s.UnreadCount())
	assert.Zero(t, newTestStore(t, kv).UnreadCount())
}

func TestPushNotificationIDsStayUnique(t *testing.T) {
	s := newTestStore(t, newMemKV())
	a := s.PushNotification("one")
	b := s.PushNotification("two")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSetTopPickReplacesBanner(t *testing.T) {
	kv := newMemKV()
	s := newTestStore(t, kv)
	tp := TopPick{ID: 3, BannerTitle: "Silent Cosmos", BannerDesc: "Quiet.", BannerCover: "/banner.jpg"}
	s.SetTopPick(tp)

	assert.Equal(t, tp, s.TopPick())
	assert.Equal(t, tp, newTestStore(t, kv).TopPick())
}

func bookIDs(books []Book) []int64 {
	ids := make([]int64, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	return ids
}
