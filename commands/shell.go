package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"air-library/library"
	"air-library/output"

	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive prompt that keeps the current screen between commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			sh := &shell{ctx: cmd.Context(), p: newPrompter(cmd), lm: lm, c: lm.Controller()}
			return sh.run()
		})
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

type shell struct {
	ctx context.Context
	p   *prompter
	lm  *library.LibraryManager
	c   *library.Controller
}

const shellHelp = `Available commands:
  Account:  login, register, logout, profile, edit profile
  Browse:   list, search, genre, genres, open <id>, top pick, home, back
  Reading:  read, page <n>, finish, favorite
  Inbox:    notifications
  Admin:    add book, edit book, delete book, upload cover, notify, set top pick
  System:   help, exit`

func (s *shell) run() error {
	output.Primary("Welcome to Air, your digital library!")
	output.Line("%s", shellHelp)

	for {
		line, err := s.p.line(s.prompt())
		if errors.Is(err, io.EOF) {
			output.Line("")
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		name, arg := splitCommand(line)
		if name == "exit" || name == "quit" {
			output.Line("Goodbye!")
			return nil
		}
		if err := s.dispatch(name, arg); err != nil {
			output.Error("%v", describe(err))
		}
	}
}

// prompt shows where the user is, e.g. "[detail: Neon Rain] > ".
func (s *shell) prompt() string {
	v := s.c.View()
	label := v.Kind.String()
	if v.Book != nil {
		label += ": " + library.TruncateString(v.Book.Title, 24)
	}
	if n := s.c.UnreadCount(); n > 0 && v.Kind != library.ViewLoggedOut {
		label += fmt.Sprintf(" ✉%d", n)
	}
	return "\n[" + label + "] > "
}

func (s *shell) dispatch(name, arg string) error {
	switch name {
	case "help":
		output.Line("%s", shellHelp)
		return nil
	case "login":
		return s.handleLogin()
	case "register":
		return s.handleRegister()
	}

	u, ok := s.c.CurrentUser()
	if !ok {
		return errLoginRequired
	}
	switch name {
	case "logout":
		s.c.Logout()
		output.Success("Logged out")
	case "list":
		s.handleList()
	case "search":
		s.handleSearch(arg)
	case "genre":
		s.handleGenre(arg)
	case "genres":
		output.Line("%s, %s", library.GenreAll, strings.Join(s.c.Genres(), ", "))
	case "open":
		return s.handleOpen(arg)
	case "top pick":
		if err := s.c.OpenTopPick(); err != nil {
			return err
		}
		s.showSelected()
	case "home":
		if err := s.c.ShowHome(); err != nil {
			return err
		}
		s.handleList()
	case "back":
		if err := s.c.Back(); err != nil {
			return err
		}
		if s.c.View().Kind == library.ViewHome {
			s.handleList()
		} else {
			s.showSelected()
		}
	case "read":
		if err := s.c.Read(); err != nil {
			return err
		}
		return printReader(*s.c.View().Book, 0)
	case "page":
		return s.handlePage(arg)
	case "finish":
		return s.handleFinish()
	case "favorite":
		return s.handleFavorite()
	case "profile":
		if err := s.c.ShowProfile(); err != nil {
			return err
		}
		printProfile(s.c, u)
	case "edit profile":
		return s.handleEditProfile()
	case "notifications":
		for _, n := range s.c.OpenNotifications() {
			output.Line("%s %s  %s", output.UnreadMark(n.Read), n.Date, n.Text)
		}
		s.c.CloseModals()
	case "add book", "edit book", "delete book", "upload cover", "notify", "set top pick":
		if !u.IsAdmin() {
			return errAdminOnly
		}
		return s.dispatchAdmin(name, arg)
	default:
		output.Line("Unknown command. Type \"help\" to see the available commands.")
	}
	return nil
}

func (s *shell) dispatchAdmin(name, arg string) error {
	switch name {
	case "add book":
		return s.handleSaveBook(0)
	case "edit book":
		id, err := s.bookArg(arg)
		if err != nil {
			return err
		}
		return s.handleSaveBook(id)
	case "delete book":
		return s.handleDeleteBook(arg)
	case "upload cover":
		return s.handleUploadCover()
	case "notify":
		s.c.OpenNotifyForm()
		text, err := s.p.line("Message: ")
		if err != nil {
			return err
		}
		if _, err := s.c.SendNotification(text); err != nil {
			return err
		}
		output.Success("Notification sent")
	case "set top pick":
		return s.handleSetTopPick(arg)
	}
	return nil
}

func (s *shell) handleLogin() error {
	username, err := s.p.exact("Username: ")
	if err != nil {
		return err
	}
	password, err := s.p.password("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if err := s.c.Login(username, password); err != nil {
		return err
	}
	u, _ := s.c.CurrentUser()
	output.Success("Welcome back, %s", displayName(u))
	s.handleList()
	return nil
}

func (s *shell) handleRegister() error {
	name, err := s.p.line("Name: ")
	if err != nil {
		return err
	}
	username, err := s.p.exact("Username: ")
	if err != nil {
		return err
	}
	password, err := s.p.password(fmt.Sprintf("Choose a password for %s: ", username))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if err := s.c.Register(library.NewUser{Username: username, Password: password, Name: name}); err != nil {
		return err
	}
	output.Success("Account %s created", username)
	s.handleList()
	return nil
}

func (s *shell) handleList() {
	if tp := s.c.TopPick(); tp.BannerTitle != "" {
		output.Primary("★ Top pick: %s", tp.BannerTitle)
	}
	if q, g := s.c.Search(), s.c.GenreFilter(); q != "" || g != library.GenreAll {
		output.Muted("search %q · genre %s", q, g)
	}
	books := s.c.FilteredBooks()
	if len(books) == 0 {
		output.Warning("No books match.")
		return
	}
	printBookTable(books)
}

func (s *shell) handleSearch(arg string) {
	q := arg
	if q == "" {
		q, _ = s.p.line("Title contains (empty clears): ")
	}
	s.c.SetSearch(q)
	s.handleList()
}

func (s *shell) handleGenre(arg string) {
	g := arg
	if g == "" {
		output.Muted("%s, %s", library.GenreAll, strings.Join(s.c.Genres(), ", "))
		g, _ = s.p.line("Genre: ")
	}
	s.c.SetGenreFilter(g)
	s.handleList()
}

func (s *shell) handleOpen(arg string) error {
	id, err := s.bookArg(arg)
	if err != nil {
		return err
	}
	if err := s.c.SelectBook(id); err != nil {
		return err
	}
	s.showSelected()
	return nil
}

func (s *shell) showSelected() {
	v := s.c.View()
	if v.Book == nil {
		return
	}
	u, _ := s.c.CurrentUser()
	printBookDetail(*v.Book, u.HasFavorite(v.Book.ID))
}

func (s *shell) handlePage(arg string) error {
	v := s.c.View()
	if v.Kind != library.ViewReader {
		return library.ErrInvalidTransition
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid page: %q", arg)
	}
	return printReader(*v.Book, n)
}

func (s *shell) handleFinish() error {
	v := s.c.View()
	if err := s.c.Finish(); err != nil {
		return err
	}
	u, _ := s.c.CurrentUser()
	output.Success("Finished %q · %d books this year · level %d", v.Book.Title, u.Stats.BooksReadYear, u.Level())
	return nil
}

// handleFavorite toggles the open book. Hitting the limit only prints a
// notice.
func (s *shell) handleFavorite() error {
	v := s.c.View()
	if v.Book == nil {
		return errors.New("open a book first")
	}
	added, err := s.c.ToggleFavorite(v.Book.ID)
	switch {
	case errors.Is(err, library.ErrFavoriteLimit):
		output.Warning("You already have %d favorites.", library.MaxFavorites)
		return nil
	case err != nil:
		return err
	case added:
		output.Success("♥ Added to favorites")
	default:
		output.Success("Removed from favorites")
	}
	return nil
}

func (s *shell) handleEditProfile() error {
	u, _ := s.c.CurrentUser()
	output.Muted("Press Enter to keep the current value.")
	var p library.ProfilePatch
	for _, f := range []struct {
		label, cur string
		dst        **string
	}{
		{"Name", u.Name, &p.Name},
		{"Avatar URL", u.Avatar, &p.Avatar},
		{"Bio", u.Bio, &p.Bio},
	} {
		v, err := s.p.line(fmt.Sprintf("%s [%s]: ", f.label, library.TruncateString(f.cur, 30)))
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = &v
		}
	}
	target, err := s.p.line(fmt.Sprintf("Weekly target [%d]: ", u.WeeklyGoal.Target))
	if err != nil {
		return err
	}
	if target != "" {
		n, err := strconv.Atoi(target)
		if err != nil {
			return fmt.Errorf("invalid weekly target: %q", target)
		}
		p.WeeklyTarget = &n
	}
	if _, err := s.c.UpdateProfile(p); err != nil {
		return err
	}
	output.Success("Profile updated")
	return nil
}

// handleSaveBook walks through the editor form. id 0 adds a book.
func (s *shell) handleSaveBook(id int64) error {
	var cur library.Book
	if id != 0 {
		b, ok := s.lm.Store().Book(id)
		if !ok {
			return fmt.Errorf("book %d: %w", id, library.ErrNotFound)
		}
		cur = b
		output.Muted("Press Enter to keep the current value.")
	}
	// Keep a cover uploaded into this same form.
	if m := s.c.Modals(); !m.BookEditor || m.EditingID != id {
		s.c.OpenBookEditor(id)
	}

	ask := func(label, def string) (string, error) {
		if def != "" {
			label = fmt.Sprintf("%s [%s]", label, library.TruncateString(def, 30))
		}
		v, err := s.p.line(label + ": ")
		if err != nil || v != "" {
			return v, err
		}
		return def, nil
	}

	var (
		in  library.BookInput
		err error
	)
	if in.Title, err = ask("Title", cur.Title); err != nil {
		return err
	}
	if in.Author, err = ask("Author", cur.Author); err != nil {
		return err
	}
	genres, err := ask("Genres (comma-separated)", strings.Join(cur.Genres, ", "))
	if err != nil {
		return err
	}
	in.Genres = splitGenres(genres)
	if in.Desc, err = ask("Description", cur.Desc); err != nil {
		return err
	}
	if in.Cover, err = ask("Cover URL (or run 'upload cover' first)", cur.Cover); err != nil {
		return err
	}
	pages, err := ask("Pages", pageDefault(cur.Pages))
	if err != nil {
		return err
	}
	if pages != "" {
		if in.Pages, err = strconv.Atoi(pages); err != nil {
			return fmt.Errorf("invalid page count: %q", pages)
		}
	}
	if in.Collection, err = ask("Collection", cur.Collection); err != nil {
		return err
	}
	if in.Content, err = s.askContent(cur.Content); err != nil {
		return err
	}

	b, err := s.c.SaveBook(in)
	if err != nil {
		return err
	}
	output.Success("Saved %q (ID %d)", b.Title, b.ID)
	return nil
}

func (s *shell) askContent(cur library.ReadingContent) (library.ReadingContent, error) {
	pdf, _ := cur.PDF()
	label := "PDF URL"
	if pdf != "" {
		label += " [" + library.TruncateString(pdf, 30) + "]"
	}
	v, err := s.p.line(label + ": ")
	if err != nil {
		return cur, err
	}
	if v != "" {
		return library.PDFContent(v), nil
	}
	if pdf != "" {
		return cur, nil
	}
	label = "Page image URLs (comma-separated)"
	if n := len(cur.Pages()); n > 0 {
		label += fmt.Sprintf(" [%d pages]", n)
	}
	v, err = s.p.line(label + ": ")
	if err != nil || v == "" {
		return cur, err
	}
	return library.ImagePagesContent(splitGenres(v)), nil
}

// handleUploadCover opens a new-book form and attaches a local image to
// it. The next "add book" picks the cover up.
func (s *shell) handleUploadCover() error {
	token := s.c.OpenBookEditor(0)
	path, err := s.p.line("Image file: ")
	if err != nil {
		return err
	}
	task, err := s.startUpload(path)
	if err != nil {
		return err
	}
	output.Muted("Uploading...")
	uri, err := task.Wait(s.ctx)
	if err != nil {
		return err
	}
	if err := s.c.AttachCover(token, uri); err != nil {
		return err
	}
	output.Success("Cover ready (%d KB)", len(uri)/1024)
	return nil
}

func (s *shell) startUpload(path string) (*library.UploadTask, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	task := library.StartUpload(s.ctx, f, cfg.UploadLimit())
	go func() {
		<-task.Done()
		f.Close()
	}()
	return task, nil
}

func (s *shell) handleDeleteBook(arg string) error {
	id, err := s.bookArg(arg)
	if err != nil {
		return err
	}
	b, ok := s.lm.Store().Book(id)
	if !ok {
		return fmt.Errorf("book %d: %w", id, library.ErrNotFound)
	}
	yes, err := s.p.confirm(fmt.Sprintf("Delete %q?", b.Title))
	if err != nil || !yes {
		return err
	}
	s.c.DeleteBook(id)
	output.Success("Deleted %q", b.Title)
	return nil
}

func (s *shell) handleSetTopPick(arg string) error {
	id, err := s.bookArg(arg)
	if err != nil {
		return err
	}
	b, ok := s.lm.Store().Book(id)
	if !ok {
		return fmt.Errorf("book %d: %w", id, library.ErrNotFound)
	}
	s.c.OpenTopPickForm()
	desc, err := s.p.line("Banner text (Enter uses the description): ")
	if err != nil {
		return err
	}
	if desc == "" {
		desc = b.Desc
	}
	s.c.SetTopPick(library.TopPick{ID: b.ID, BannerTitle: b.Title, BannerDesc: desc, BannerCover: b.Cover})
	output.Success("Top pick is now %q", b.Title)
	return nil
}

// bookArg parses arg, or the open book when arg is empty, or asks.
func (s *shell) bookArg(arg string) (int64, error) {
	if arg == "" {
		if v := s.c.View(); v.Book != nil {
			return v.Book.ID, nil
		}
		var err error
		if arg, err = s.p.line("Book ID: "); err != nil {
			return 0, err
		}
	}
	return parseBookID(arg)
}

// splitCommand separates a trailing argument from the command words:
// "open 3" -> ("open", "3"), "search neon rain" -> ("search", "neon rain").
func splitCommand(line string) (name, arg string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", ""
	}
	for _, two := range []string{"add book", "edit book", "delete book", "upload cover", "set top pick", "top pick", "edit profile"} {
		words := strings.Fields(two)
		if len(fields) >= len(words) && strings.EqualFold(strings.Join(fields[:len(words)], " "), two) {
			return two, strings.Join(fields[len(words):], " ")
		}
	}
	return strings.ToLower(fields[0]), strings.Join(fields[1:], " ")
}

func pageDefault(p library.PageCount) string {
	if p <= 0 {
		return ""
	}
	return strconv.Itoa(int(p))
}
