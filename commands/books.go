package commands

import (
	"fmt"
	"strconv"
	"strings"

	"air-library/library"
	"air-library/output"

	"github.com/spf13/cobra"
)

var booksCmd = &cobra.Command{
	Use:     "books",
	Aliases: []string{"book"},
	Short:   "Browse and manage the catalog",
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalog, optionally filtered by title and genre",
	Example: `  air books list
  air books list --search rain --genre Sci-Fi`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if _, err := requireLogin(c); err != nil {
				return err
			}
			search, _ := cmd.Flags().GetString("search")
			genre, _ := cmd.Flags().GetString("genre")
			c.SetSearch(search)
			c.SetGenreFilter(genre)

			if tp := c.TopPick(); tp.BannerTitle != "" && search == "" {
				output.Primary("★ Top pick: %s", tp.BannerTitle)
				if tp.BannerDesc != "" {
					output.Muted("  %s", tp.BannerDesc)
				}
			}
			books := c.FilteredBooks()
			if len(books) == 0 {
				output.Warning("No books match.")
				return nil
			}
			printBookTable(books)
			return nil
		})
	},
}

var booksShowCmd = &cobra.Command{
	Use:   "show <book-id>",
	Short: "Show one book's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			u, err := requireLogin(c)
			if err != nil {
				return err
			}
			if err := c.SelectBook(id); err != nil {
				return describe(err)
			}
			printBookDetail(*c.View().Book, u.HasFavorite(id))
			return nil
		})
	},
}

var booksGenresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List every genre in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if _, err := requireLogin(c); err != nil {
				return err
			}
			output.Line("%s", library.GenreAll)
			for _, g := range c.Genres() {
				output.Line("%s", g)
			}
			return nil
		})
	},
}

var booksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book to the catalog (admin)",
	Example: `  air books add --title "Neon Rain" --author "Cyber Dreams" --genres "Sci-Fi,Noir" --pages 210
  air books add --title "House of X" --pdf /pdf/hox.pdf --cover-file ./hox.png`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if err := requireAdmin(c); err != nil {
				return err
			}
			in, err := bookInputFromFlags(cmd)
			if err != nil {
				return describe(err)
			}
			token := c.OpenBookEditor(0)
			defer c.CloseModals()
			if err := attachCoverFile(cmd, c, token); err != nil {
				return err
			}
			b, err := c.SaveBook(in)
			if err != nil {
				return describe(err)
			}
			output.Success("Added %q with ID %d", b.Title, b.ID)
			return nil
		})
	},
}

var booksEditCmd = &cobra.Command{
	Use:   "edit <book-id>",
	Short: "Change fields of a book (admin)",
	Long: `Change some fields of a book, leaving the rest alone. Use field flags or a
JSON object with --patch; flags win where both set the same field.

  air books edit 2 --rating 4.7 --genres "Sci-Fi,Noir"
  air books edit 4 --patch '{"pageImages":["/img/1.jpg","/img/2.jpg"],"pages":2}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if err := requireAdmin(c); err != nil {
				return err
			}
			patch, err := bookPatchFromFlags(cmd)
			if err != nil {
				return describe(err)
			}
			if path, _ := cmd.Flags().GetString("cover-file"); path != "" {
				uri, err := library.FileToDataURI(cmd.Context(), path, cfg.UploadLimit())
				if err != nil {
					return describe(err)
				}
				patch.Cover = &uri
			}
			b, err := c.EditBook(id, patch)
			if err != nil {
				return describe(err)
			}
			output.Success("Updated %q", b.Title)
			return nil
		})
	},
}

var booksDeleteCmd = &cobra.Command{
	Use:   "delete <book-id>",
	Short: "Remove a book from the catalog (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if err := requireAdmin(c); err != nil {
				return err
			}
			b, ok := lm.Store().Book(id)
			if !ok {
				return describe(fmt.Errorf("book %d: %w", id, library.ErrNotFound))
			}
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				ok, err := newPrompter(cmd).confirm(fmt.Sprintf("Delete %q?", b.Title))
				if err != nil {
					return err
				}
				if !ok {
					output.Info("Kept %q", b.Title)
					return nil
				}
			}
			c.DeleteBook(id)
			output.Success("Deleted %q", b.Title)
			return nil
		})
	},
}

var readCmd = &cobra.Command{
	Use:   "read <book-id>",
	Short: "Open a book's reading content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if _, err := requireLogin(c); err != nil {
				return err
			}
			if err := c.SelectBook(id); err != nil {
				return describe(err)
			}
			if err := c.Read(); err != nil {
				return err
			}
			page, _ := cmd.Flags().GetInt("page")
			return printReader(*c.View().Book, page)
		})
	},
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite <book-id>",
	Short: "Add a book to your favorites, or remove it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if _, err := requireLogin(c); err != nil {
				return err
			}
			b, ok := lm.Store().Book(id)
			if !ok {
				return describe(fmt.Errorf("book %d: %w", id, library.ErrNotFound))
			}
			added, err := c.ToggleFavorite(id)
			if err != nil {
				return describe(err)
			}
			if added {
				output.Success("♥ %q added to favorites", b.Title)
			} else {
				output.Success("%q removed from favorites", b.Title)
			}
			return nil
		})
	},
}

var finishCmd = &cobra.Command{
	Use:   "finish <book-id>",
	Short: "Mark a book as finished and update your stats",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if _, err := requireLogin(c); err != nil {
				return err
			}
			if err := c.SelectBook(id); err != nil {
				return describe(err)
			}
			title := c.View().Book.Title
			if err := c.Read(); err != nil {
				return err
			}
			if err := c.Finish(); err != nil {
				return err
			}
			u, _ := c.CurrentUser()
			output.Success("Finished %q", title)
			output.Line("Books this year %d · pages %d · level %d", u.Stats.BooksReadYear, u.Stats.PagesRead, u.Level())
			output.Line("Weekly goal %s", output.Progress(u.WeeklyGoal.Current, u.WeeklyGoal.Target, 20))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(booksCmd, readCmd, favoriteCmd, finishCmd)
	booksCmd.AddCommand(booksListCmd, booksShowCmd, booksGenresCmd, booksAddCmd, booksEditCmd, booksDeleteCmd)

	booksListCmd.Flags().StringP("search", "s", "", "Case-insensitive title filter")
	booksListCmd.Flags().StringP("genre", "g", library.GenreAll, "Only books with this genre")

	addBookFlags(booksAddCmd)
	_ = booksAddCmd.MarkFlagRequired("title")

	addBookFlags(booksEditCmd)
	booksEditCmd.Flags().Float64("rating", 0, "Rating from 0 to 5")
	booksEditCmd.Flags().Bool("no-content", false, "Remove the PDF or page images")
	booksEditCmd.Flags().String("patch", "", "JSON object with the fields to change")

	booksDeleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	readCmd.Flags().Int("page", 0, "Show a single page of an image-paged book (1-based)")
}

func addBookFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("title", "", "Title")
	f.String("author", "", "Author")
	f.String("genres", "", "Comma-separated genres")
	f.String("cover", "", "Cover image URL")
	f.String("cover-file", "", "Local image to embed as the cover")
	f.String("desc", "", "Description")
	f.Int("pages", 0, "Page count")
	f.String("collection", "", "Series or collection name")
	f.String("pdf", "", "PDF URL to read the book from")
	f.StringArray("page-image", nil, "Page image URL, in reading order (repeatable)")
}

func bookInputFromFlags(cmd *cobra.Command) (library.BookInput, error) {
	f := cmd.Flags()
	var in library.BookInput
	in.Title, _ = f.GetString("title")
	in.Author, _ = f.GetString("author")
	genres, _ := f.GetString("genres")
	in.Genres = splitGenres(genres)
	in.Cover, _ = f.GetString("cover")
	in.Desc, _ = f.GetString("desc")
	in.Pages, _ = f.GetInt("pages")
	in.Collection, _ = f.GetString("collection")

	content, _, err := contentFromFlags(cmd)
	if err != nil {
		return in, err
	}
	in.Content = content
	return in, nil
}

func bookPatchFromFlags(cmd *cobra.Command) (library.BookPatch, error) {
	f := cmd.Flags()
	var p library.BookPatch
	if f.Changed("patch") {
		raw, _ := f.GetString("patch")
		parsed, err := library.ParseBookPatch([]byte(raw))
		if err != nil {
			return p, err
		}
		p = parsed
	}
	for _, s := range []struct {
		name string
		dst  **string
	}{
		{"title", &p.Title}, {"author", &p.Author}, {"cover", &p.Cover},
		{"desc", &p.Desc}, {"collection", &p.Collection},
	} {
		if f.Changed(s.name) {
			v, _ := f.GetString(s.name)
			*s.dst = &v
		}
	}
	if f.Changed("genres") {
		v, _ := f.GetString("genres")
		g := splitGenres(v)
		p.Genres = &g
	}
	if f.Changed("pages") {
		v, _ := f.GetInt("pages")
		p.Pages = &v
	}
	if f.Changed("rating") {
		v, _ := f.GetFloat64("rating")
		if v < 0 || v > 5 {
			return p, &library.ValidationError{Field: "rating", Err: fmt.Errorf("must be between 0 and 5, got %v", v)}
		}
		p.Rating = &v
	}
	content, set, err := contentFromFlags(cmd)
	if err != nil {
		return p, err
	}
	if set {
		p.Content = &content
	}
	if drop, _ := f.GetBool("no-content"); drop {
		if set {
			return p, &library.ValidationError{Field: "content", Err: library.ErrAmbiguousContent}
		}
		none := library.NoContent()
		p.Content = &none
	}
	return p, nil
}

// contentFromFlags reads --pdf and --page-image. set reports whether
// either was given.
func contentFromFlags(cmd *cobra.Command) (c library.ReadingContent, set bool, err error) {
	f := cmd.Flags()
	pdf, _ := f.GetString("pdf")
	pages, _ := f.GetStringArray("page-image")
	switch {
	case f.Changed("pdf") && f.Changed("page-image"):
		return c, false, &library.ValidationError{Field: "content", Err: library.ErrAmbiguousContent}
	case f.Changed("pdf"):
		return library.PDFContent(pdf), true, nil
	case f.Changed("page-image"):
		return library.ImagePagesContent(pages), true, nil
	}
	return library.NoContent(), false, nil
}

// attachCoverFile uploads --cover-file into the open editor.
func attachCoverFile(cmd *cobra.Command, c *library.Controller, token uint64) error {
	path, _ := cmd.Flags().GetString("cover-file")
	if path == "" {
		return nil
	}
	uri, err := library.FileToDataURI(cmd.Context(), path, cfg.UploadLimit())
	if err != nil {
		return describe(err)
	}
	logger.Debug("cover uploaded")
	return c.AttachCover(token, uri)
}

func splitGenres(s string) []string {
	var out []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

func parseBookID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid book ID: %s", s)
	}
	return id, nil
}

func printBookTable(books []library.Book) {
	output.Line("%-14s %-30s %-25s %-5s %-6s %s", "ID", "Title", "Author", "Rate", "Read", "Genres")
	output.Muted("%s", strings.Repeat("-", 100))
	for _, b := range books {
		output.Line("%s", library.PrettyBook(b))
	}
}

func printBookDetail(b library.Book, favorite bool) {
	title := b.Title
	if favorite {
		title += " ♥"
	}
	output.Section(title)
	output.Muted("by %s", b.Author)
	if b.Collection != "" {
		output.Muted("Collection: %s", b.Collection)
	}
	output.Line("")
	output.Line("Rating   %.1f", b.Rating)
	output.Line("Genres   %s", strings.Join(b.Genres, ", "))
	if b.Pages > 0 {
		output.Line("Pages    %d", b.Pages)
	}
	switch b.Content.Kind() {
	case library.ContentPDF:
		output.Line("Format   PDF")
	case library.ContentImagePages:
		output.Line("Format   %d page images", len(b.Content.Pages()))
	default:
		output.Line("Format   not available yet")
	}
	if b.Desc != "" {
		output.Line("")
		output.Line("%s", b.Desc)
	}
}

func printReader(b library.Book, page int) error {
	switch b.Content.Kind() {
	case library.ContentPDF:
		output.Section(b.Title)
		output.Info("Open in a PDF viewer:")
		output.Line("%s", b.Content.PDFEmbedURL())
	case library.ContentImagePages:
		pages := b.Content.Pages()
		if page != 0 {
			if page < 1 || page > len(pages) {
				return fmt.Errorf("page %d out of range 1-%d", page, len(pages))
			}
			output.Line("Page %d/%d  %s", page, len(pages), pages[page-1])
			return nil
		}
		output.Section(b.Title)
		for i, p := range pages {
			output.Line("%4d  %s", i+1, p)
		}
	default:
		output.Warning("%q has no readable content yet.", b.Title)
	}
	return nil
}
