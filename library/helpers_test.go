package library

import (
	"fmt"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

// memKV is an in-memory KV used where a real database adds nothing.
type memKV struct {
	data   map[string]string
	putErr error
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Put(key, value string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func (m *memKV) Keys() ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testSeed() Seed {
	pages := make([]string, 3)
	for i := range pages {
		pages[i] = fmt.Sprintf("/img/turf/%d.jpg", i)
	}
	return Seed{
		Books: []Book{
			{ID: 1, Title: "Chronicles of Aether", Author: "J. Skies", Genres: []string{"Fantasy", "Adventure"}, Rating: 4.8, Pages: 320},
			{ID: 2, Title: "Neon Rain", Author: "Cyber Dreams", Genres: []string{"Sci-Fi", "Noir"}, Rating: 4.5, Pages: 210},
			{ID: 3, Title: "Silent Cosmos", Author: "Star Walker", Genres: []string{"Sci-Fi"}, Rating: 5, Pages: 180},
			{ID: 4, Title: "Turf Wars", Author: "DiMartino", Genres: []string{"Comics"}, Pages: 72, Content: ImagePagesContent(pages)},
			{ID: 5, Title: "House of X", Author: "Hickman", Genres: []string{"Comics", "Marvel"}, Content: PDFContent("/pdf/hox.pdf")},
		},
		Users: []User{
			{
				ID:         "admin",
				Username:   "admin",
				Password:   "secret",
				Name:       "Admin",
				Role:       RoleAdmin,
				WeeklyGoal: WeeklyGoal{Target: 5},
				History:    []int64{},
				Favorites:  []int64{},
			},
		},
		Notifications: []Notification{{ID: 1, Text: "Welcome to Air!", Date: "2026-01-01"}},
		TopPick:       TopPick{ID: 1, BannerTitle: "Chronicles of Aether"},
	}
}

func newTestStore(t *testing.T, kv KV) *Store {
	t.Helper()
	return NewStore(NewStorage(kv, nil), testSeed(), WithClock(fixedClock))
}

type testApp struct {
	kv      *memKV
	store   *Store
	session *Session
	ctrl    *Controller
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return reopenTestApp(t, newMemKV())
}

// reopenTestApp builds a fresh app over existing storage, as a restart would.
func reopenTestApp(t *testing.T, kv *memKV) *testApp {
	t.Helper()
	storage := NewStorage(kv, nil)
	store := NewStore(storage, testSeed(), WithClock(fixedClock))
	session := NewSession(store, storage, nil)
	return &testApp{kv: kv, store: store, session: session, ctrl: NewController(store, session, nil)}
}
