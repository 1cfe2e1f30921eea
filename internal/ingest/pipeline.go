// Package ingest is the batch build: it reads the raw table exports and
// narrative trees under a resources root and materializes the relational
// database. Builds are single-writer and idempotent; re-running over the
// same data upserts every row back to the same state.
package ingest

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"hsrdb/internal/flex"
	"hsrdb/internal/textmap"
)

type Pipeline struct {
	db    *sql.DB
	root  string
	langs []string

	// langMaps holds the merged per-language text maps for the build's
	// materialized-column languages, loaded once up front.
	langMaps map[string]map[string]string

	// Stats accumulates per-step row counters for the meta table and logs.
	Stats map[string]int
}

func New(db *sql.DB, root string, langs []string) *Pipeline {
	if len(langs) == 0 {
		langs = []string{"CHS", "EN"}
	}
	return &Pipeline{
		db:       db,
		root:     root,
		langs:    langs,
		langMaps: make(map[string]map[string]string),
		Stats:    make(map[string]int),
	}
}

// Run executes the whole build in order: text maps first so entity steps
// can materialize their CHS/EN columns, references last because they are
// the slow part.
func (p *Pipeline) Run(includeLevelConfig bool) error {
	start := time.Now()
	if err := p.LoadTextMaps(); err != nil {
		return err
	}
	if err := p.InsertTextMap(); err != nil {
		return err
	}
	if err := p.InsertTalk(); err != nil {
		return err
	}
	if err := p.InsertMissions(); err != nil {
		return err
	}
	if err := p.InsertAvatars(); err != nil {
		return err
	}
	if err := p.InsertItems(); err != nil {
		return err
	}
	if err := p.InsertStoryReferences(includeLevelConfig); err != nil {
		return err
	}

	counts, err := p.TableCounts()
	if err != nil {
		return err
	}
	elapsed := time.Since(start).Round(10 * time.Millisecond)
	if err := p.WriteMeta(map[string]any{
		"include_level_config": includeLevelConfig,
		"elapsed_seconds":      elapsed.Seconds(),
		"table_counts":         counts,
	}); err != nil {
		return err
	}

	log.Printf("[ingest] build completed in %s", elapsed)
	for name, n := range counts {
		log.Printf("[ingest]   %s: %d", name, n)
	}
	return nil
}

// LoadTextMaps reads every configured language's text-map documents into
// memory. Entity steps resolve their materialized CHS/EN columns from these
// maps without touching the database.
func (p *Pipeline) LoadTextMaps() error {
	for _, lang := range p.langs {
		merged, err := textmap.LoadLanguageFiles(p.root, lang)
		if err != nil {
			return fmt.Errorf("load text map %s: %w", lang, err)
		}
		p.langMaps[lang] = merged
		log.Printf("[ingest] TextMap %s: %d entries", lang, len(merged))
	}
	return nil
}

// InsertTextMap writes the loaded language maps into the text_map table.
func (p *Pipeline) InsertTextMap() error {
	store := textmap.NewStore(p.db, "")
	total := 0
	for lang, mapping := range p.langMaps {
		if err := store.BulkUpsert(lang, mapping); err != nil {
			return err
		}
		total += len(mapping)
	}
	p.Stats["text_map"] = total
	log.Printf("[ingest] inserted text_map rows: %d", total)
	return nil
}

// resolve looks a hash up in the in-memory map for one language. Missing
// translations are normal and yield nil.
func (p *Pipeline) resolve(lang string, hash *string) *string {
	if hash == nil {
		return nil
	}
	if text, ok := p.langMaps[lang][*hash]; ok {
		return &text
	}
	return nil
}

// WriteMeta records build provenance. Values that are not strings are
// stored JSON-serialized.
func (p *Pipeline) WriteMeta(extra map[string]any) error {
	payload := map[string]any{
		"build_id":       uuid.NewString(),
		"build_at":       time.Now().Format("2006-01-02 15:04:05"),
		"resources_root": p.root,
		"langs":          p.langs,
		"table_counts":   p.Stats,
	}
	for k, v := range extra {
		payload[k] = v
	}

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("begin meta: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.Prepare(
		`INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`)
	if err != nil {
		return fmt.Errorf("prepare meta: %w", err)
	}
	defer stmt.Close()

	for key, val := range payload {
		text, ok := val.(string)
		if !ok {
			raw, err := json.Marshal(val)
			if err != nil {
				return fmt.Errorf("marshal meta %s: %w", key, err)
			}
			text = string(raw)
		}
		if _, err := stmt.Exec(key, text); err != nil {
			return fmt.Errorf("write meta %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// TableCounts reads the live row count of every entity table.
func (p *Pipeline) TableCounts() (map[string]int, error) {
	names := []string{
		"text_map", "talk_sentence", "talk_sentence_multi_voice", "story_reference",
		"main_mission", "sub_mission", "mission_pack_link",
		"avatar", "avatar_promotion", "avatar_skill", "avatar_rank", "item",
	}
	out := make(map[string]int, len(names))
	for _, name := range names {
		var n int
		if err := p.db.QueryRow(`SELECT COUNT(*) FROM ` + name).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		out[name] = n
	}
	return out, nil
}

// Field accessors shared by the entity steps. A wrong-shaped field becomes
// nil on the row; the row still gets inserted.

func hashPtr(v any) *string {
	if s, ok := flex.Hash(v); ok {
		return &s
	}
	return nil
}

func intPtr(v any) *int64 {
	if n, ok := flex.Int(v); ok {
		return &n
	}
	return nil
}

func floatPtr(v any) *float64 {
	if f, ok := flex.Float(v); ok {
		return &f
	}
	return nil
}

func strPtr(v any) *string {
	if s, ok := flex.Str(v); ok {
		return &s
	}
	return nil
}

// marshalList serializes a list-valued field for a _json column, defaulting
// to an empty list when the field is absent or unparseable.
func marshalList(v any) string {
	if v == nil {
		return "[]"
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

// marshalMap is marshalList for object-valued fields.
func marshalMap(v any) string {
	if v == nil {
		return "{}"
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
