package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loggedInReader registers a regular reader and leaves the app on Home.
func loggedInReader(t *testing.T) *testApp {
	t.Helper()
	app := newTestApp(t)
	require.NoError(t, app.ctrl.Register(NewUser{Username: "ana", Password: "pw", Name: "Ana"}))
	require.Equal(t, ViewHome, app.ctrl.View().Kind)
	return app
}

func finishBook(t *testing.T, c *Controller, id int64) {
	t.Helper()
	require.NoError(t, c.SelectBook(id))
	require.NoError(t, c.Read())
	require.NoError(t, c.Finish())
}

func TestStartsLoggedOut(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, ViewLoggedOut, app.ctrl.View().Kind)
	assert.Equal(t, GenreAll, app.ctrl.GenreFilter())
	_, ok := app.ctrl.CurrentUser()
	assert.False(t, ok)
}

func TestLoginAndRestart(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.ctrl.Login("admin", "secret"))
	assert.Equal(t, ViewHome, app.ctrl.View().Kind)
	assert.True(t, app.ctrl.IsAdmin())

	restarted := reopenTestApp(t, app.kv)
	assert.Equal(t, ViewHome, restarted.ctrl.View().Kind)
	assert.True(t, restarted.ctrl.IsAdmin())
}

func TestFailedLoginStaysLoggedOut(t *testing.T) {
	app := newTestApp(t)
	err := app.ctrl.Login("admin", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, ViewLoggedOut, app.ctrl.View().Kind)
}

func TestRegisterLogsIn(t *testing.T) {
	app := loggedInReader(t)
	u, ok := app.ctrl.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "ana", u.Username)
	assert.False(t, app.ctrl.IsAdmin())
}

func TestRegisterDuplicateStaysLoggedOut(t *testing.T) {
	app := newTestApp(t)
	err := app.ctrl.Register(NewUser{Username: "admin", Password: "x"})
	require.ErrorIs(t, err, ErrUsernameTaken)
	assert.Equal(t, ViewLoggedOut, app.ctrl.View().Kind)
	assert.Len(t, app.store.Users(), 1)
}

func TestNavigation(t *testing.T) {
	app := loggedInReader(t)
	c := app.ctrl

	require.NoError(t, c.SelectBook(3))
	v := c.View()
	assert.Equal(t, ViewDetail, v.Kind)
	require.NotNil(t, v.Book)
	assert.Equal(t, int64(3), v.Book.ID)

	require.NoError(t, c.Read())
	v = c.View()
	assert.Equal(t, ViewReader, v.Kind)
	assert.Equal(t, int64(3), v.Book.ID)

	require.NoError(t, c.Back())
	v = c.View()
	assert.Equal(t, ViewDetail, v.Kind)
	assert.Equal(t, int64(3), v.Book.ID)

	require.NoError(t, c.Back())
	v = c.View()
	assert.Equal(t, ViewHome, v.Kind)
	assert.Nil(t, v.Book)

	require.NoError(t, c.ShowProfile())
	assert.Equal(t, ViewProfile, c.View().Kind)
	require.NoError(t, c.SelectBook(1))
	assert.Equal(t, ViewDetail, c.View().Kind)
	require.NoError(t, c.Back())
	require.NoError(t, c.ShowProfile())
	require.NoError(t, c.ShowHome())
	assert.Equal(t, ViewHome, c.View().Kind)
}

func TestInvalidTransitions(t *testing.T) {
	app := newTestApp(t)
	c := app.ctrl

	assert.ErrorIs(t, c.SelectBook(1), ErrInvalidTransition)
	assert.ErrorIs(t, c.Back(), ErrInvalidTransition)
	assert.ErrorIs(t, c.ShowProfile(), ErrInvalidTransition)

	require.NoError(t, c.Login("admin", "secret"))
	assert.ErrorIs(t, c.Login("admin", "secret"), ErrInvalidTransition)
	assert.ErrorIs(t, c.Read(), ErrInvalidTransition)
	assert.ErrorIs(t, c.Finish(), ErrInvalidTransition)
	assert.ErrorIs(t, c.ShowHome(), ErrInvalidTransition)
	assert.ErrorIs(t, c.Back(), ErrInvalidTransition)

	require.NoError(t, c.SelectBook(1))
	assert.ErrorIs(t, c.Finish(), ErrInvalidTransition)
	assert.ErrorIs(t, c.SelectBook(2), ErrInvalidTransition)
	assert.Equal(t, ViewDetail, c.View().Kind)
}

func TestSelectMissingBook(t *testing.T) {
	app := loggedInReader(t)
	require.ErrorIs(t, app.ctrl.SelectBook(404), ErrNotFound)
	assert.Equal(t, ViewHome, app.ctrl.View().Kind)
}

func TestFinishCreditsReader(t *testing.T) {
	app := loggedInReader(t)
	finishBook(t, app.ctrl, 4)

	assert.Equal(t, ViewHome, app.ctrl.View().Kind)
	u, _ := app.ctrl.CurrentUser()
	assert.Equal(t, Stats{BooksReadYear: 1, PagesRead: 72, TotalTime: 120}, u.Stats)
	assert.Equal(t, WeeklyGoal{Current: 1, Target: 5}, u.WeeklyGoal)
	assert.Equal(t, []int64{4}, u.History)

	// Persisted, so a restart sees the same progress.
	again, _ := reopenTestApp(t, app.kv).ctrl.CurrentUser()
	assert.Equal(t, u.Stats, again.Stats)
	assert.Equal(t, []int64{4}, again.History)
}

func TestFinishWithoutPageCount(t *testing.T) {
	app := loggedInReader(t)
	finishBook(t, app.ctrl, 5)

	u, _ := app.ctrl.CurrentUser()
	assert.Equal(t, DefaultFinishPages, u.Stats.PagesRead)
}

func TestFinishMovesBookToFrontOfHistory(t *testing.T) {
	app := loggedInReader(t)
	for _, id := range []int64{1, 2, 1} {
		finishBook(t, app.ctrl, id)
	}
	u, _ := app.ctrl.CurrentUser()
	assert.Equal(t, []int64{1, 2}, u.History)
	assert.Equal(t, 3, u.Stats.BooksReadYear)
	assert.Equal(t, 2, u.Level())
}

func TestRecentHistory(t *testing.T) {
	app := loggedInReader(t)
	for _, id := range []int64{1, 2, 3, 4, 5} {
		finishBook(t, app.ctrl, id)
	}
	recent := app.ctrl.RecentHistory(RecentHistoryLen)
	assert.Equal(t, []int64{5, 4, 3, 2}, bookIDs(recent))
}

func TestToggleFavorite(t *testing.T) {
	app := loggedInReader(t)
	c := app.ctrl

	for _, id := range []int64{1, 2, 3} {
		added, err := c.ToggleFavorite(id)
		require.NoError(t, err)
		assert.True(t, added)
	}

	added, err := c.ToggleFavorite(4)
	require.ErrorIs(t, err, ErrFavoriteLimit)
	assert.False(t, added)
	u, _ := c.CurrentUser()
	assert.Equal(t, []int64{1, 2, 3}, u.Favorites)

	added, err = c.ToggleFavorite(2)
	require.NoError(t, err)
	assert.False(t, added)
	u, _ = c.CurrentUser()
	assert.Equal(t, []int64{1, 3}, u.Favorites)

	_, err = c.ToggleFavorite(4)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 4}, bookIDs(c.FavoriteBooks()))
}

func TestToggleFavoriteNeedsSession(t *testing.T) {
	app := newTestApp(t)
	_, err := app.ctrl.ToggleFavorite(1)
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestFilteredBooks(t *testing.T) {
	app := loggedInReader(t)
	c := app.ctrl

	assert.Len(t, c.FilteredBooks(), 5)

	c.SetSearch("NEON")
	assert.Equal(t, []int64{2}, bookIDs(c.FilteredBooks()))

	c.SetSearch("")
	c.SetGenreFilter("Sci-Fi")
	assert.Equal(t, []int64{2, 3}, bookIDs(c.FilteredBooks()))

	c.SetSearch("cosmos")
	assert.Equal(t, []int64{3}, bookIDs(c.FilteredBooks()))

	c.SetSearch("aether")
	assert.Empty(t, c.FilteredBooks())

	c.SetGenreFilter("")
	assert.Equal(t, GenreAll, c.GenreFilter())
	assert.Equal(t, []int64{1}, bookIDs(c.FilteredBooks()))
}

func TestGenres(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, []string{"Adventure", "Comics", "Fantasy", "Marvel", "Noir", "Sci-Fi"}, app.ctrl.Genres())
}

func TestLogoutResetsSelections(t *testing.T) {
	app := loggedInReader(t)
	c := app.ctrl
	c.SetSearch("rain")
	c.SetGenreFilter("Noir")
	require.NoError(t, c.SelectBook(2))

	c.Logout()
	assert.Equal(t, ViewLoggedOut, c.View().Kind)
	assert.Empty(t, c.Search())
	assert.Equal(t, GenreAll, c.GenreFilter())
	assert.Equal(t, ViewLoggedOut, reopenTestApp(t, app.kv).ctrl.View().Kind)
}

func TestDeletingReferencedBook(t *testing.T) {
	app := loggedInReader(t)
	c := app.ctrl
	_, err := c.ToggleFavorite(5)
	require.NoError(t, err)
	finishBook(t, c, 5)
	require.NoError(t, c.SelectBook(5))

	c.DeleteBook(5)
	assert.Equal(t, ViewHome, c.View().Kind)
	assert.Empty(t, c.FavoriteBooks())
	assert.Empty(t, c.RecentHistory(RecentHistoryLen))

	u, _ := c.CurrentUser()
	assert.Equal(t, []int64{5}, u.Favorites)
	assert.Equal(t, []int64{5}, u.History)
}

func TestOpenTopPick(t *testing.T) {
	app := loggedInReader(t)
	c := app.ctrl

	require.NoError(t, c.OpenTopPick())
	assert.Equal(t, int64(1), c.View().Book.ID)
	require.NoError(t, c.Back())

	c.SetTopPick(TopPick{ID: 999, BannerTitle: "Gone"})
	app.store.DeleteBook(1)
	require.NoError(t, c.OpenTopPick())
	assert.Equal(t, int64(2), c.View().Book.ID)
}

func TestOpenNotificationsMarksRead(t *testing.T) {
	app := loggedInReader(t)
	c := app.ctrl
	assert.Equal(t, 1, c.UnreadCount())

	list := c.OpenNotifications()
	require.Len(t, list, 1)
	assert.False(t, list[0].Read)
	assert.True(t, c.Modals().Notifications)
	assert.Zero(t, c.UnreadCount())
}

func TestUpdateProfile(t *testing.T) {
	app := loggedInReader(t)
	c := app.ctrl

	name, target := "Ana Maria", 8
	u, err := c.UpdateProfile(ProfilePatch{Name: &name, WeeklyTarget: &target})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", u.Name)
	assert.Equal(t, 8, u.WeeklyGoal.Target)
	assert.Equal(t, RoleUser, u.Role)

	zero := 0
	_, err = c.UpdateProfile(ProfilePatch{WeeklyTarget: &zero})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "weeklyTarget", ve.Field)
}

func TestStaleCoverUploadIsDropped(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.ctrl.Login("admin", "secret"))
	c := app.ctrl

	first := c.OpenBookEditor(0)
	second := c.OpenBookEditor(0)
	assert.ErrorIs(t, c.AttachCover(first, "data:image/png;base64,AAAA"), ErrStaleUpload)
	require.NoError(t, c.AttachCover(second, "data:image/png;base64,BBBB"))

	c.CloseModals()
	assert.ErrorIs(t, c.AttachCover(second, "data:image/png;base64,CCCC"), ErrStaleUpload)
}

func TestSaveBookUsesAttachedCover(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.ctrl.Login("admin", "secret"))
	c := app.ctrl

	tok := c.OpenBookEditor(0)
	require.NoError(t, c.AttachCover(tok, "data:image/png;base64,AAAA"))
	b, err := c.SaveBook(BookInput{Title: "Fresh", Genres: []string{"Poetry"}, Pages: 12})
	require.NoError(t, err)

	assert.Equal(t, "data:image/png;base64,AAAA", b.Cover)
	assert.Zero(t, b.Rating)
	assert.Equal(t, Modals{}, c.Modals())
	assert.Len(t, app.store.Books(), 6)
}

func TestSaveBookEditsSelectedBook(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.ctrl.Login("admin", "secret"))
	c := app.ctrl
	require.NoError(t, c.SelectBook(2))

	c.OpenBookEditor(2)
	b, err := c.SaveBook(BookInput{Title: "Neon Rain II", Author: "Cyber Dreams", Genres: []string{"Noir"}, Pages: 230})
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, 4.5, b.Rating)

	v := c.View()
	assert.Equal(t, ViewDetail, v.Kind)
	assert.Equal(t, "Neon Rain II", v.Book.Title)
	assert.Len(t, app.store.Books(), 5)
}

func TestSaveBookRequiresTitle(t *testing.T) {
	app := newTestApp(t)
	app.ctrl.OpenBookEditor(0)
	_, err := app.ctrl.SaveBook(BookInput{Title: "  "})
	require.ErrorIs(t, err, ErrEmptyField)
	assert.True(t, app.ctrl.Modals().BookEditor)
}

func TestEditBookRefreshesReader(t *testing.T) {
	app := loggedInReader(t)
	c := app.ctrl
	require.NoError(t, c.SelectBook(4))
	require.NoError(t, c.Read())

	content := PDFContent("/pdf/turf.pdf")
	_, err := c.EditBook(4, BookPatch{Content: &content})
	require.NoError(t, err)

	v := c.View()
	assert.Equal(t, ViewReader, v.Kind)
	assert.Equal(t, ContentPDF, v.Book.Content.Kind())
}

func TestSendNotification(t *testing.T) {
	app := newTestApp(t)
	c := app.ctrl
	c.OpenNotifyForm()
	assert.True(t, c.Modals().Notify)

	_, err := c.SendNotification(" ")
	require.ErrorIs(t, err, ErrEmptyField)

	n, err := c.SendNotification("New arrivals")
	require.NoError(t, err)
	assert.Equal(t, n, c.Notifications()[0])
	assert.False(t, c.Modals().Notify)
}

func TestNavigationClosesModals(t *testing.T) {
	app := loggedInReader(t)
	c := app.ctrl
	c.OpenTopPickForm()
	assert.True(t, c.Modals().TopPick)

	require.NoError(t, c.SelectBook(1))
	assert.Equal(t, Modals{}, c.Modals())
}
