package library

import (
	"bytes"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// StorageVersion is part of every namespaced key. Bump it whenever the
// stored JSON shapes change so old layouts are ignored instead of misread.
const StorageVersion = "v2"

const storagePrefix = "air_db_" + StorageVersion + "_"

// Well-known keys.
const (
	KeyBooks         = "books"
	KeyUsers         = "users"
	KeyNotifications = "notifications"
	KeyTopPick       = "topPick"

	// SessionKey holds the logged-in user id. It lives outside the
	// versioned namespace.
	SessionKey = "air_session"
)

// KV is the raw string store Storage sits on. *Database implements it.
type KV interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
	Delete(key string) error
	Keys() ([]string, error)
}

// Storage reads and writes JSON values under the versioned namespace.
// It never returns errors: failures are logged and degrade to the
// fallback value or a no-op. A Storage without a backend is headless.
type Storage struct {
	kv  KV
	log *zap.Logger
}

func NewStorage(kv KV, log *zap.Logger) *Storage {
	if log == nil {
		log = zap.NewNop()
	}
	return &Storage{kv: kv, log: log}
}

// NewHeadlessStorage returns a Storage where Load yields the fallback and
// writes are dropped.
func NewHeadlessStorage(log *zap.Logger) *Storage { return NewStorage(nil, log) }

func (s *Storage) Headless() bool { return s == nil || s.kv == nil }

// Load returns the value stored under key, or fallback when it is
// missing, null, or does not decode into T.
func Load[T any](s *Storage, key string, fallback T) T {
	if s.Headless() {
		return fallback
	}
	raw, ok, err := s.kv.Get(storagePrefix + key)
	if err != nil {
		s.log.Warn("storage read failed", zap.String("key", key), zap.Error(err))
		return fallback
	}
	if !ok {
		return fallback
	}
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fallback
	}
	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		s.log.Warn("storage decode failed", zap.String("key", key), zap.Error(err))
		return fallback
	}
	return v
}

// Save serializes v under key.
func (s *Storage) Save(key string, v any) {
	if s.Headless() {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		s.log.Error("storage encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.kv.Put(storagePrefix+key, string(payload)); err != nil {
		s.log.Error("storage write failed", zap.String("key", key), zap.Error(err))
	}
}

// Keys lists the collections saved under the current namespace, without
// the prefix. Keys of other layouts and raw keys are left out.
func (s *Storage) Keys() []string {
	if s.Headless() {
		return nil
	}
	all, err := s.kv.Keys()
	if err != nil {
		s.log.Warn("storage list failed", zap.Error(err))
		return nil
	}
	var keys []string
	for _, k := range all {
		if name, ok := strings.CutPrefix(k, storagePrefix); ok {
			keys = append(keys, name)
		}
	}
	return keys
}

func (s *Storage) Clear(key string) { s.ClearRaw(storagePrefix + key) }

// LoadRaw reads an un-namespaced string value.
func (s *Storage) LoadRaw(key string) (string, bool) {
	if s.Headless() {
		return "", false
	}
	v, ok, err := s.kv.Get(key)
	if err != nil {
		s.log.Warn("storage read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return v, ok
}

func (s *Storage) SaveRaw(key, value string) {
	if s.Headless() {
		return
	}
	if err := s.kv.Put(key, value); err != nil {
		s.log.Error("storage write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Storage) ClearRaw(key string) {
	if s.Headless() {
		return
	}
	if err := s.kv.Delete(key); err != nil {
		s.log.Error("storage delete failed", zap.String("key", key), zap.Error(err))
	}
}
