package tui

import (
	"fmt"
	"strings"

	"air-library/library"

	"github.com/charmbracelet/lipgloss"
)

// View renders the UI
func (m Model) View() string {
	var body string
	v := m.c.View()
	switch v.Kind {
	case library.ViewLoggedOut:
		body = m.viewLogin()
	case library.ViewHome:
		body = m.viewHome()
	case library.ViewDetail:
		body = m.viewDetail(*v.Book)
	case library.ViewReader:
		body = m.viewReader(*v.Book)
	case library.ViewProfile:
		body = m.viewProfile()
	}

	if m.c.Modals().Notifications {
		body = m.viewNotifications()
	}
	if m.status != "" {
		style := successStyle
		if m.statusErr {
			style = dangerStyle
		}
		body = lipgloss.JoinVertical(lipgloss.Left, body, style.Render(m.status))
	}
	return body
}

func (m Model) viewLogin() string {
	var b strings.Builder
	title := "Log in to Air"
	if m.registering {
		title = "Create your Air account"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	for _, i := range m.loginFields() {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	toggle := "new account"
	if m.registering {
		toggle = "back to login"
	}
	b.WriteString(helpLine("tab", "next field", "enter", "submit", "ctrl+r", toggle, "esc", "quit"))

	box := activeBoxStyle.Render(b.String())
	if m.width == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) viewHome() string {
	var parts []string

	header := titleStyle.Render("Air")
	if u, ok := m.c.CurrentUser(); ok {
		header += "  " + subtitleStyle.Render(fmt.Sprintf("%s · level %d", displayName(u), u.Level()))
	}
	if n := m.c.UnreadCount(); n > 0 {
		header += "  " + warningStyle.Render(fmt.Sprintf("✉ %d", n))
	}
	parts = append(parts, header)

	if tp := m.c.TopPick(); tp.BannerTitle != "" {
		banner := selectedItemStyle.Render("★ "+tp.BannerTitle) + "\n" + mutedStyle.Render(library.TruncateString(tp.BannerDesc, 70))
		parts = append(parts, bannerStyle.Render(banner))
	}

	switch m.mode {
	case ModeSearch:
		parts = append(parts, m.search.View())
	case ModeCompose:
		parts = append(parts, activeBoxStyle.Render("New notification\n"+m.compose.View()))
	case ModeConfirmDelete:
		title := fmt.Sprintf("book %d", m.deleteID)
		if it, ok := m.list.SelectedItem().(BookItem); ok {
			title = fmt.Sprintf("%q", it.Book.Title)
		}
		parts = append(parts, dangerStyle.Render(fmt.Sprintf("Delete %s? (y/n)", title)))
	default:
		if q := m.c.Search(); q != "" {
			parts = append(parts, mutedStyle.Render("Search: "+q))
		}
	}

	parts = append(parts, m.list.View())

	keys := []string{"enter", "open", "/", "search", "g", "genre", "t", "top pick", "p", "profile", "n", "inbox", "L", "logout", "q", "quit"}
	if m.c.IsAdmin() {
		keys = append(keys, "N", "notify", "T", "feature", "x", "delete")
	}
	parts = append(parts, helpLine(keys...))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewDetail(b library.Book) string {
	var s strings.Builder
	title := b.Title
	if u, ok := m.c.CurrentUser(); ok && u.HasFavorite(b.ID) {
		title += " ♥"
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n")
	s.WriteString(subtitleStyle.Render("by " + b.Author))
	if b.Collection != "" {
		s.WriteString(mutedStyle.Render("  · " + b.Collection))
	}
	s.WriteString("\n\n")
	fmt.Fprintf(&s, "★ %.1f   %s\n", b.Rating, joinGenres(b.Genres))
	if b.Pages > 0 {
		fmt.Fprintf(&s, "%d pages\n", b.Pages)
	}
	s.WriteString(formatLabel(b.Content))
	if b.Desc != "" {
		s.WriteString("\n\n")
		s.WriteString(lipgloss.NewStyle().Width(min(max(m.width-8, 30), 80)).Render(b.Desc))
	}

	keys := []string{"r", "read", "f", "favorite", "esc", "back"}
	if m.c.IsAdmin() {
		keys = append(keys, "x", "delete")
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxStyle.Render(s.String()), helpLine(keys...))
}

func (m Model) viewReader(b library.Book) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(b.Title))
	s.WriteString("\n")

	switch b.Content.Kind() {
	case library.ContentPDF:
		s.WriteString("Open in a PDF viewer:\n")
		s.WriteString(selectedItemStyle.Render(b.Content.PDFEmbedURL()))
	case library.ContentImagePages:
		pages := b.Content.Pages()
		page := min(m.page, len(pages)-1)
		fmt.Fprintf(&s, "Page %d of %d\n", page+1, len(pages))
		s.WriteString(itemStyle.Render(pages[page]))
		s.WriteString("\n\n")
		s.WriteString(FormatProgressBar(page+1, len(pages), 30))
	default:
		s.WriteString(warningStyle.Render("This title has no readable content yet."))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		boxStyle.Render(s.String()),
		helpLine("←/→", "turn page", "F", "finish", "esc", "back"),
	)
}

func (m Model) viewProfile() string {
	u, ok := m.c.CurrentUser()
	if !ok {
		return ""
	}
	var s strings.Builder
	s.WriteString(titleStyle.Render(displayName(u)))
	s.WriteString("\n")
	s.WriteString(subtitleStyle.Render(fmt.Sprintf("@%s · level %d", u.Username, u.Level())))
	if u.Bio != "" {
		s.WriteString("\n" + u.Bio)
	}
	s.WriteString("\n\n")
	fmt.Fprintf(&s, "Books this year  %d\n", u.Stats.BooksReadYear)
	fmt.Fprintf(&s, "Pages read       %d\n", u.Stats.PagesRead)
	fmt.Fprintf(&s, "Reading time     %dh%02dm\n", u.Stats.TotalTime/60, u.Stats.TotalTime%60)
	fmt.Fprintf(&s, "Weekly goal      %s\n", FormatProgressBar(u.WeeklyGoal.Current, u.WeeklyGoal.Target, 20))

	favs := m.c.FavoriteBooks()
	recent := m.c.RecentHistory(library.RecentHistoryLen)
	s.WriteString("\n" + selectedItemStyle.Render("Favorites") + "\n")
	s.WriteString(m.bookLines(favs, 0, "No favorites yet."))
	s.WriteString("\n" + selectedItemStyle.Render("Recently finished") + "\n")
	s.WriteString(m.bookLines(recent, len(favs), "Nothing finished yet."))

	return lipgloss.JoinVertical(lipgloss.Left,
		boxStyle.Render(s.String()),
		helpLine("↑/↓", "move", "enter", "open", "esc", "home"),
	)
}

// bookLines lists books, highlighting the one under the cursor. offset is
// the cursor index of the first entry.
func (m Model) bookLines(books []library.Book, offset int, empty string) string {
	if len(books) == 0 {
		return mutedStyle.Render(empty) + "\n"
	}
	var s strings.Builder
	for i, b := range books {
		if offset+i == m.cursor {
			s.WriteString(selectedItemStyle.Render("▸ " + b.Title))
		} else {
			s.WriteString(itemStyle.Render("  " + b.Title))
		}
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) viewNotifications() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Notifications"))
	s.WriteString("\n")
	list := m.c.Notifications()
	if len(list) == 0 {
		s.WriteString(mutedStyle.Render("Nothing here yet."))
	}
	for _, n := range list {
		fmt.Fprintf(&s, "%s  %s\n", mutedStyle.Render(n.Date), n.Text)
	}
	s.WriteString(helpLine("any key", "close"))
	return activeBoxStyle.Render(s.String())
}

func formatLabel(c library.ReadingContent) string {
	switch c.Kind() {
	case library.ContentPDF:
		return mutedStyle.Render("PDF")
	case library.ContentImagePages:
		return mutedStyle.Render(fmt.Sprintf("%d page images", len(c.Pages())))
	}
	return mutedStyle.Render("Not available to read yet")
}

func joinGenres(genres []string) string { return strings.Join(genres, ", ") }
