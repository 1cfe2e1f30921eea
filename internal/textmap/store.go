package textmap

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"hsrdb/internal/jsonio"
)

// Store is the (language, content address) -> text mapping backed by the
// text_map table. Writes happen during a build; at serve time the store is
// read-only apart from the lazy first-use load of an uningested language.
type Store struct {
	db   *sql.DB
	root string

	mu     sync.Mutex
	loaded map[string]bool
}

// NewStore wraps an open database. root points at the resources directory
// used for lazy language loading; pass "" for build-time stores that never
// lazy-load.
func NewStore(db *sql.DB, root string) *Store {
	return &Store{db: db, root: root, loaded: make(map[string]bool)}
}

const upsertSQL = `
INSERT INTO text_map (lang, hash, text) VALUES (?, ?, ?)
ON CONFLICT(lang, hash) DO UPDATE SET text = excluded.text;`

// Put upserts one entry, last write wins.
func (s *Store) Put(lang, hash, text string) error {
	if _, err := s.db.Exec(upsertSQL, lang, hash, text); err != nil {
		return fmt.Errorf("put text %s/%s: %w", lang, hash, err)
	}
	return nil
}

// BulkUpsert writes a whole language map in one transaction.
func (s *Store) BulkUpsert(lang string, entries map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for hash, text := range entries {
		if _, err := stmt.Exec(lang, hash, text); err != nil {
			return fmt.Errorf("upsert %s/%s: %w", lang, hash, err)
		}
	}
	return tx.Commit()
}

// Get returns the text for one (language, address) pair. A missing pair is a
// normal condition reported through ok, not an error.
func (s *Store) Get(lang, hash string) (string, bool, error) {
	var text string
	err := s.db.QueryRow(`SELECT text FROM text_map WHERE lang = ? AND hash = ?`, lang, hash).Scan(&text)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get text %s/%s: %w", lang, hash, err)
	}
	return text, true, nil
}

// GetMany resolves a batch of addresses for one language. Missing addresses
// are simply absent from the result map.
func (s *Store) GetMany(lang string, hashes []string) (map[string]string, error) {
	out := make(map[string]string, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	// sqlite caps bound parameters, so chunk the IN list.
	const chunk = 500
	for start := 0; start < len(hashes); start += chunk {
		end := start + chunk
		if end > len(hashes) {
			end = len(hashes)
		}
		part := hashes[start:end]

		placeholders := strings.Repeat("?,", len(part))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, 0, len(part)+1)
		args = append(args, lang)
		for _, h := range part {
			args = append(args, h)
		}

		rows, err := s.db.Query(
			`SELECT hash, text FROM text_map WHERE lang = ? AND hash IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("get many %s: %w", lang, err)
		}
		for rows.Next() {
			var hash, text string
			if err := rows.Scan(&hash, &text); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan text row: %w", err)
			}
			out[hash] = text
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate text rows: %w", err)
		}
		rows.Close()
	}
	return out, nil
}

// GetWithFallback tries the requested language, then the fallback chain.
// Under-translated languages show the fallback text rather than nothing.
func (s *Store) GetWithFallback(lang, hash string) (string, bool, error) {
	for _, l := range FallbackChain(lang) {
		if err := s.EnsureLoaded(l); err != nil {
			return "", false, err
		}
		text, ok, err := s.Get(l, hash)
		if err != nil || ok {
			return text, ok, err
		}
	}
	return "", false, nil
}

// EnsureLoaded lazily ingests a language's text maps on first use. Racing
// loads of the same language are harmless: the upserts are idempotent.
func (s *Store) EnsureLoaded(lang string) error {
	if s.root == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded[lang] {
		return nil
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM text_map WHERE lang = ?`, lang).Scan(&n); err != nil {
		return fmt.Errorf("count text_map %s: %w", lang, err)
	}
	if n > 0 {
		s.loaded[lang] = true
		return nil
	}

	entries, err := LoadLanguageFiles(s.root, lang)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		// nothing on disk either; remember so we do not re-stat every call
		s.loaded[lang] = true
		return nil
	}
	if err := s.BulkUpsert(lang, entries); err != nil {
		return err
	}
	log.Printf("[textmap] lazily loaded %s: %d entries", lang, len(entries))
	s.loaded[lang] = true
	return nil
}

// LoadLanguageFiles reads a language's text-map documents from the resources
// root and merges them. TextMapMain{L}.json is applied first, then
// TextMap{L}.json; later files win for duplicate keys.
func LoadLanguageFiles(root, lang string) (map[string]string, error) {
	merged := make(map[string]string)
	for _, name := range []string{"TextMapMain" + lang + ".json", "TextMap" + lang + ".json"} {
		path := filepath.Join(root, "TextMap", name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		doc, err := jsonio.Load(path)
		if err != nil {
			return nil, err
		}
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("text map %s: not a JSON object", path)
		}
		for key, val := range obj {
			merged[key] = stringify(val)
		}
	}
	return merged, nil
}

// stringify renders a text-map value as a stable string. The maps are meant
// to be string valued, but a few entries carry numbers or nulls; those are
// kept in serialized form instead of being dropped.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(raw)
	}
}
