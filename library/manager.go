package library

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LibraryManager is a thin façade that opens the database and wires the
// storage, store, session and controller together, keeping CLI code simple.
type LibraryManager struct {
	db      *Database
	storage *Storage
	store   *Store
	session *Session
	ctrl    *Controller
	log     *zap.Logger
}

// Options configures NewLibraryManager.
type Options struct {
	DBPath   string
	Headless bool // no database: every load yields seed data, writes are dropped
	Logger   *zap.Logger
	Seed     *Seed // defaults to DefaultSeed
	Store    []StoreOption
}

// NewLibraryManager opens (or creates) the SQLite database at opts.DBPath
// and restores the last session.
func NewLibraryManager(opts Options) (*LibraryManager, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	lm := &LibraryManager{log: log}

	if opts.Headless {
		lm.storage = NewHeadlessStorage(log)
	} else {
		db, err := NewDatabase(opts.DBPath)
		if err != nil {
			return nil, err
		}
		lm.db = db
		lm.storage = NewStorage(db, log)
	}

	seed := DefaultSeed(time.Now())
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	storeOpts := append([]StoreOption{WithStoreLogger(log)}, opts.Store...)
	lm.store = NewStore(lm.storage, seed, storeOpts...)
	lm.session = NewSession(lm.store, lm.storage, log)
	lm.ctrl = NewController(lm.store, lm.session, log)
	return lm, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error {
	if lm.db == nil {
		return nil
	}
	return lm.db.Close()
}

func (lm *LibraryManager) Controller() *Controller { return lm.ctrl }
func (lm *LibraryManager) Store() *Store           { return lm.store }
func (lm *LibraryManager) Storage() *Storage       { return lm.storage }

// ------------------ Import ------------------

// ImportBooks reads a JSON array of books from r and adds each as a new
// catalog entry. Incoming ids and ratings are ignored.
func (lm *LibraryManager) ImportBooks(r io.Reader) ([]Book, error) {
	var incoming []Book
	if err := json.NewDecoder(r).Decode(&incoming); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	added := make([]Book, 0, len(incoming))
	for i, b := range incoming {
		if strings.TrimSpace(b.Title) == "" {
			return added, &ValidationError{Field: fmt.Sprintf("[%d].title", i), Err: ErrEmptyField}
		}
		added = append(added, lm.store.AddBook(BookInput{
			Title:      b.Title,
			Author:     b.Author,
			Genres:     b.Genres,
			Cover:      b.Cover,
			Desc:       b.Desc,
			Pages:      int(b.Pages),
			Content:    b.Content,
			Collection: b.Collection,
		}))
	}
	return added, nil
}

// ImportBooksFromFile opens path (relative paths resolve from cwd) and imports it.
func (lm *LibraryManager) ImportBooksFromFile(path string) ([]Book, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return lm.ImportBooks(f)
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b Book) string {
	return fmt.Sprintf("%-14d %-30s %-25s %-5.1f %-6s %s",
		b.ID, TruncateString(b.Title, 30), TruncateString(b.Author, 25), b.Rating,
		b.Content.Kind(), strings.Join(b.Genres, ", "))
}

func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
