package tui

import (
	"errors"
	"fmt"
	"slices"

	"air-library/library"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// homeMode is what keystrokes on the home screen currently drive.
type homeMode int

const (
	ModeBrowse homeMode = iota
	ModeSearch
	ModeCompose
	ModeConfirmDelete
)

const (
	fieldName = iota
	fieldUsername
	fieldPassword
)

// BookItem is a catalog entry in the home list.
type BookItem struct{ Book library.Book }

func (i BookItem) FilterValue() string { return i.Book.Title }
func (i BookItem) Title() string       { return i.Book.Title }
func (i BookItem) Description() string {
	return fmt.Sprintf("%s · ★ %.1f · %s", i.Book.Author, i.Book.Rating, joinGenres(i.Book.Genres))
}

// Model renders the Controller. Every keystroke becomes a Controller
// intent; the screen shown is always the Controller's view.
type Model struct {
	c *library.Controller

	width  int
	height int

	// login / register form
	inputs      []textinput.Model
	focus       int
	registering bool

	// home
	list     list.Model
	mode     homeMode
	search   textinput.Model
	compose  textinput.Model
	deleteID int64

	// reader
	page int

	// profile: index into favorites followed by recent history
	cursor int

	status    string
	statusErr bool
}

func NewModel(c *library.Controller) Model {
	inputs := make([]textinput.Model, 3)
	for i, ph := range []string{"Your name", "Username", "Password"} {
		in := textinput.New()
		in.Placeholder = ph
		in.CharLimit = 64
		inputs[i] = in
	}
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '•'

	search := textinput.New()
	search.Placeholder = "Search titles"
	search.Prompt = "/ "

	compose := textinput.New()
	compose.Placeholder = "Message to every reader"
	compose.CharLimit = 280

	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = "Catalog"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = titleStyle

	m := Model{c: c, inputs: inputs, list: l, search: search, compose: compose, focus: fieldUsername}
	m.inputs[fieldUsername].Focus()
	m.refresh()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.EnterAltScreen)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, max(msg.Height-12, 5))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.c.Modals().Notifications {
			// Any key dismisses the tray.
			m.c.CloseModals()
			return m, nil
		}
		m.status, m.statusErr = "", false

		switch m.c.View().Kind {
		case library.ViewLoggedOut:
			return m.updateLogin(msg)
		case library.ViewHome:
			return m.updateHome(msg)
		case library.ViewDetail:
			return m.updateDetail(msg)
		case library.ViewReader:
			return m.updateReader(msg)
		case library.ViewProfile:
			return m.updateProfile(msg)
		}
	}

	if m.c.View().Kind == library.ViewLoggedOut {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

// ------------------ Login ------------------

func (m Model) loginFields() []int {
	if m.registering {
		return []int{fieldName, fieldUsername, fieldPassword}
	}
	return []int{fieldUsername, fieldPassword}
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fields := m.loginFields()
	pos := slices.Index(fields, m.focus)

	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "ctrl+r":
		m.registering = !m.registering
		return m, m.focusField(m.loginFields()[0])
	case "tab", "down":
		return m, m.focusField(fields[(pos+1)%len(fields)])
	case "shift+tab", "up":
		return m, m.focusField(fields[(pos+len(fields)-1)%len(fields)])
	case "enter":
		if pos < len(fields)-1 {
			return m, m.focusField(fields[pos+1])
		}
		return m.submitLogin()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) focusField(i int) tea.Cmd {
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	m.focus = i
	return m.inputs[i].Focus()
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	username := m.inputs[fieldUsername].Value()
	password := m.inputs[fieldPassword].Value()

	var err error
	if m.registering {
		err = m.c.Register(library.NewUser{Username: username, Password: password, Name: m.inputs[fieldName].Value()})
	} else {
		err = m.c.Login(username, password)
	}
	m.inputs[fieldPassword].SetValue("")
	if err != nil {
		m.setErr(err)
		return m, m.focusField(fieldPassword)
	}
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.registering = false
	m.focus = fieldUsername
	m.refresh()
	if u, ok := m.c.CurrentUser(); ok {
		m.status = "Welcome, " + displayName(u)
	}
	return m, nil
}

// ------------------ Home ------------------

func (m Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeSearch:
		return m.updateSearch(msg)
	case ModeCompose:
		return m.updateCompose(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	admin := m.c.IsAdmin()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.mode = ModeSearch
		m.search.SetValue(m.c.Search())
		return m, m.search.Focus()
	case "g":
		m.c.SetGenreFilter(m.nextGenre())
		m.refresh()
		return m, nil
	case "enter":
		if it, ok := m.list.SelectedItem().(BookItem); ok {
			m.check(m.c.SelectBook(it.Book.ID))
		}
		return m, nil
	case "t":
		m.check(m.c.OpenTopPick())
		return m, nil
	case "p":
		m.cursor = 0
		m.check(m.c.ShowProfile())
		return m, nil
	case "n":
		m.c.OpenNotifications()
		return m, nil
	case "L":
		m.c.Logout()
		m.mode = ModeBrowse
		m.refresh()
		return m, m.focusField(fieldUsername)
	case "N":
		if admin {
			m.mode = ModeCompose
			m.c.OpenNotifyForm()
			m.compose.SetValue("")
			return m, m.compose.Focus()
		}
	case "x":
		if it, ok := m.list.SelectedItem().(BookItem); ok && admin {
			m.mode = ModeConfirmDelete
			m.deleteID = it.Book.ID
			return m, nil
		}
	case "T":
		if it, ok := m.list.SelectedItem().(BookItem); ok && admin {
			b := it.Book
			m.c.SetTopPick(library.TopPick{ID: b.ID, BannerTitle: b.Title, BannerDesc: b.Desc, BannerCover: b.Cover})
			m.status = fmt.Sprintf("%q is the top pick", b.Title)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		m.c.SetSearch("")
		fallthrough
	case "enter":
		m.mode = ModeBrowse
		m.search.Blur()
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.c.SetSearch(m.search.Value())
	m.refresh()
	return m, cmd
}

func (m Model) updateCompose(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeBrowse
		m.compose.Blur()
		m.c.CloseModals()
		return m, nil
	case "enter":
		if _, err := m.c.SendNotification(m.compose.Value()); err != nil {
			m.setErr(err)
			return m, nil
		}
		m.mode = ModeBrowse
		m.compose.Blur()
		m.status = "Notification sent"
		return m, nil
	}
	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeBrowse
	if msg.String() == "y" {
		m.c.DeleteBook(m.deleteID)
		m.status = "Book deleted"
		m.refresh()
	}
	m.deleteID = 0
	return m, nil
}

// nextGenre cycles All -> each catalog genre -> All.
func (m Model) nextGenre() string {
	genres := append([]string{library.GenreAll}, m.c.Genres()...)
	i := slices.Index(genres, m.c.GenreFilter())
	return genres[(i+1)%len(genres)]
}

// ------------------ Detail & reader ------------------

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r", "enter":
		m.page = 0
		m.check(m.c.Read())
	case "f":
		// Over the limit nothing changes; the heart simply stays off.
		if v := m.c.View(); v.Book != nil {
			if _, err := m.c.ToggleFavorite(v.Book.ID); err != nil && !errors.Is(err, library.ErrFavoriteLimit) {
				m.setErr(err)
			}
		}
	case "esc", "b", "backspace":
		m.check(m.c.Back())
		m.refresh()
	case "x":
		if v := m.c.View(); v.Book != nil && m.c.IsAdmin() {
			m.c.DeleteBook(v.Book.ID)
			m.status = "Book deleted"
			m.refresh()
		}
	}
	return m, nil
}

func (m Model) updateReader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.c.View()
	pages := 0
	if v.Book != nil {
		pages = len(v.Book.Content.Pages())
	}
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "right", "l", " ":
		if m.page < pages-1 {
			m.page++
		}
	case "left", "h":
		if m.page > 0 {
			m.page--
		}
	case "F":
		title := v.Book.Title
		if m.check(m.c.Finish()) {
			m.status = fmt.Sprintf("Finished %q", title)
			m.refresh()
		}
	case "esc", "b", "backspace":
		m.check(m.c.Back())
	}
	return m, nil
}

// ------------------ Profile ------------------

func (m Model) profileBooks() []library.Book {
	return append(m.c.FavoriteBooks(), m.c.RecentHistory(library.RecentHistoryLen)...)
}

func (m Model) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	books := m.profileBooks()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(books)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(books) {
			m.check(m.c.SelectBook(books[m.cursor].ID))
		}
	case "esc", "b", "backspace", "h":
		m.check(m.c.ShowHome())
		m.refresh()
	}
	return m, nil
}

// ------------------ Helpers ------------------

// refresh reloads the list from the Controller's filtered catalog.
func (m *Model) refresh() {
	books := m.c.FilteredBooks()
	items := make([]list.Item, len(books))
	for i, b := range books {
		items[i] = BookItem{Book: b}
	}
	m.list.SetItems(items)
	if g := m.c.GenreFilter(); g != library.GenreAll {
		m.list.Title = "Catalog · " + g
	} else {
		m.list.Title = "Catalog"
	}
}

// check records err in the status line and reports whether it was nil.
func (m *Model) check(err error) bool {
	if err != nil {
		m.setErr(err)
		return false
	}
	return true
}

func (m *Model) setErr(err error) {
	m.status, m.statusErr = errText(err), true
}

func errText(err error) string {
	switch {
	case errors.Is(err, library.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, library.ErrUsernameTaken):
		return "That username is already taken"
	case errors.Is(err, library.ErrEmptyField):
		return "Please fill in every field"
	case errors.Is(err, library.ErrInvalidTransition):
		return "Not available here"
	case errors.Is(err, library.ErrNotFound):
		return "That book no longer exists"
	}
	return err.Error()
}

func displayName(u library.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Run starts the full-screen interface.
func Run(c *library.Controller) error {
	_, err := tea.NewProgram(NewModel(c)).Run()
	return err
}
