// Package search hosts the cross-shard endpoints: raw text search, term
// explanation, and the corpus stats summary.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"hsrdb/internal/index"
	"hsrdb/internal/textmap"
	"hsrdb/pkg/database"
	"hsrdb/pkg/utils"
)

type Repo struct {
	Set    *database.Set
	Stores map[string]*textmap.Store
	Index  *index.Cache
}

func NewRepo(set *database.Set, stores map[string]*textmap.Store, idx *index.Cache) *Repo {
	return &Repo{Set: set, Stores: stores, Index: idx}
}

func (r *Repo) store(module string) *textmap.Store {
	if s, ok := r.Stores[module]; ok {
		return s
	}
	return r.Stores["default"]
}

type TextRow struct {
	Hash string `json:"hash"`
	Text string `json:"text"`
}

// TextSearch pages through raw text entries of one module's text_map.
func (r *Repo) TextSearch(ctx context.Context, module, q, lang string, p utils.Page) ([]TextRow, int, error) {
	items := []TextRow{}
	if q == "" {
		return items, 0, nil
	}
	if err := r.store(module).EnsureLoaded(lang); err != nil {
		return nil, 0, err
	}

	db := r.Set.For(module)
	like := "%" + q + "%"
	var total int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM text_map WHERE lang = ? AND text LIKE ?`,
		lang, like).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count text: %w", err)
	}
	rows, err := db.QueryContext(ctx,
		`SELECT hash, text FROM text_map WHERE lang = ? AND text LIKE ? LIMIT ? OFFSET ?`,
		lang, like, p.Size, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search text: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row TextRow
		if err := rows.Scan(&row.Hash, &row.Text); err != nil {
			return nil, 0, fmt.Errorf("scan text: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("text rows: %w", err)
	}
	return items, total, nil
}

type TermItem struct {
	Hash  string  `json:"hash"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// ExplainTerm mines the text corpus for glossary-style entries that define
// a term: prefix matches on "term:" shapes first, then general mentions,
// scored by how definition-like the sentence looks. Falls back to CHS when
// the requested language has no hits.
func (r *Repo) ExplainTerm(ctx context.Context, module, term, lang string, limit int) ([]TermItem, string, error) {
	items, err := r.explainInLang(ctx, module, term, lang, limit)
	if err != nil {
		return nil, "", err
	}
	usedLang := lang
	if len(items) == 0 && lang != "CHS" {
		fallback, err := r.explainInLang(ctx, module, term, "CHS", limit)
		if err != nil {
			return nil, "", err
		}
		if len(fallback) > 0 {
			items = fallback
			usedLang = "CHS"
		}
	}
	return items, usedLang, nil
}

func (r *Repo) explainInLang(ctx context.Context, module, term, lang string, limit int) ([]TermItem, error) {
	if err := r.store(module).EnsureLoaded(lang); err != nil {
		return nil, err
	}
	db := r.Set.For(module)

	escaped := utils.EscapeLike(term)
	starts := []string{escaped + "：%", escaped + ":%", escaped + "（%", escaped + " (%"}
	contains := "%" + escaped + "%"

	type rawRow struct{ hash, text string }
	collect := func(query string, args ...any) ([]rawRow, error) {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("term query: %w", err)
		}
		defer rows.Close()
		out := []rawRow{}
		for rows.Next() {
			var row rawRow
			if err := rows.Scan(&row.hash, &row.text); err != nil {
				return nil, fmt.Errorf("scan term row: %w", err)
			}
			out = append(out, row)
		}
		return out, rows.Err()
	}

	rowsA, err := collect(`
		SELECT hash, text
		FROM text_map
		WHERE lang = ?
		  AND LENGTH(text) <= 420
		  AND (
			text LIKE ? ESCAPE '\'
			OR text LIKE ? ESCAPE '\'
			OR text LIKE ? ESCAPE '\'
			OR text LIKE ? ESCAPE '\'
		  )
		LIMIT 300`,
		lang, starts[0], starts[1], starts[2], starts[3])
	if err != nil {
		return nil, err
	}
	rowsB, err := collect(`
		SELECT hash, text
		FROM text_map
		WHERE lang = ?
		  AND LENGTH(text) BETWEEN 6 AND 420
		  AND text LIKE ? ESCAPE '\'
		LIMIT 800`,
		lang, contains)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	scored := []TermItem{}
	for _, row := range append(rowsA, rowsB...) {
		text := strings.TrimSpace(row.text)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		s := scoreTerm(term, text)
		if s < 5 {
			continue
		}
		scored = append(scored, TermItem{
			Hash:  row.hash,
			Text:  text,
			Score: math.Round(s*1000) / 1000,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return len(scored[i].Text) < len(scored[j].Text)
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// scoreTerm ranks candidate texts by how much they read like a definition
// of term. Prefix "term:" shapes win, URLs and long prose lose.
func scoreTerm(term, text string) float64 {
	clean := strings.TrimSpace(text)
	clean = strings.ReplaceAll(clean, "\r", " ")
	clean = strings.ReplaceAll(clean, "\n", " ")
	if clean == "" {
		return -9999
	}
	score := 0.0
	switch {
	case strings.HasPrefix(clean, term+"：") || strings.HasPrefix(clean, term+":"):
		score += 140
	case strings.HasPrefix(clean, term):
		score += 100
	}
	if strings.Contains(clean, "「"+term+"」") || strings.Contains(clean, "【"+term+"】") {
		score += 35
	}
	head := firstRunes(clean, 20)
	if strings.ContainsAny(head, ":：") || strings.Contains(head, "指") || strings.Contains(head, "是") {
		score += 20
	}
	if strings.Contains(clean, "http://") || strings.Contains(clean, "https://") {
		score -= 20
	}
	if strings.Count(clean, term) > 1 {
		score += 8
	}
	score -= float64(len([]rune(clean))) * 0.03
	return score
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

// Stats merges the build metadata from the default shard with live row
// counts probed per shard and the monster index size.
func (r *Repo) Stats(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}

	rows, err := r.Set.For("default").QueryContext(ctx,
		`SELECT key, value FROM meta WHERE key IN ('build_at', 'elapsed_seconds', 'table_counts')`)
	if err != nil {
		return nil, fmt.Errorf("meta: %w", err)
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		out[key] = value
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("meta rows: %w", err)
	}

	for _, key := range []string{"elapsed_seconds", "table_counts"} {
		if raw, ok := out[key].(string); ok {
			var decoded any
			if json.Unmarshal([]byte(raw), &decoded) == nil {
				out[key] = decoded
			}
		}
	}

	tableCounts, ok := out["table_counts"].(map[string]any)
	if !ok {
		tableCounts = map[string]any{}
	}
	for _, probe := range []struct {
		key, module, table string
	}{
		{"talk_sentence", "dialogue", "talk_sentence"},
		{"story_reference", "mission", "story_reference"},
		{"main_mission", "mission", "main_mission"},
		{"avatar", "avatar", "avatar"},
		{"item", "item", "item"},
	} {
		var n int
		err := r.Set.For(probe.module).QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+probe.table).Scan(&n)
		if err == nil {
			tableCounts[probe.key] = n
		}
	}
	out["table_counts"] = tableCounts

	out["monster_count"] = 0
	if idx, err := r.Index.Monsters(); err == nil {
		out["monster_count"] = len(idx.Items)
	}
	return out, nil
}
