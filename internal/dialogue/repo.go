package dialogue

import (
	"context"
	"database/sql"
	"fmt"

	"hsrdb/internal/textmap"
	"hsrdb/pkg/models"
	"hsrdb/pkg/utils"
)

// Repo reads dialogue lines from the dialogue shard. Cross-references live
// in the mission shard, so that database is held separately.
type Repo struct {
	DB    *sql.DB
	RefDB *sql.DB
	Text  *textmap.Store
}

func NewRepo(db, refDB *sql.DB, text *textmap.Store) *Repo {
	return &Repo{DB: db, RefDB: refDB, Text: text}
}

// Line is a search result row, text already in the requested language.
type Line struct {
	TalkSentenceID int64  `json:"talk_sentence_id"`
	Speaker        string `json:"speaker"`
	Text           string `json:"text"`
}

// Search pages through dialogue lines, optionally filtered by a substring
// of speaker or text. CHS tries the FTS table and falls back to LIKE when
// the virtual table is unavailable or matches nothing; EN always uses LIKE;
// other languages join through text_map.
func (r *Repo) Search(ctx context.Context, q, lang, order string, p utils.Page) ([]Line, int, error) {
	orderSQL := "ASC"
	if order == "desc" {
		orderSQL = "DESC"
	}

	if lang == "CHS" || lang == "EN" {
		return r.searchMaterialized(ctx, q, lang, orderSQL, p)
	}
	if err := r.Text.EnsureLoaded(lang); err != nil {
		return nil, 0, err
	}
	return r.searchJoined(ctx, q, lang, orderSQL, p)
}

func (r *Repo) searchMaterialized(ctx context.Context, q, lang, orderSQL string, p utils.Page) ([]Line, int, error) {
	speakerCol, textCol := "speaker_chs", "text_chs"
	if lang == "EN" {
		speakerCol, textCol = "speaker_en", "text_en"
	}

	if q == "" {
		var total int
		if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM talk_sentence`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count dialogue: %w", err)
		}
		rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
			SELECT talk_sentence_id, COALESCE(%s, ''), COALESCE(%s, '')
			FROM talk_sentence
			ORDER BY talk_sentence_id %s
			LIMIT ? OFFSET ?`, speakerCol, textCol, orderSQL),
			p.Size, p.Offset)
		if err != nil {
			return nil, 0, fmt.Errorf("list dialogue: %w", err)
		}
		items, err := scanLines(rows)
		return items, total, err
	}

	like := "%" + q + "%"

	// CHS gets the FTS fast path; fall through to LIKE on error or no hits.
	if lang == "CHS" {
		ftsQ := utils.NormFTS(q)
		var total int
		err := r.DB.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM talk_sentence_fts f
			JOIN talk_sentence t ON t.talk_sentence_id = f.rowid
			WHERE talk_sentence_fts MATCH ?`, ftsQ).Scan(&total)
		if err == nil && total > 0 {
			rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
				SELECT t.talk_sentence_id, COALESCE(t.%s, ''), COALESCE(t.%s, '')
				FROM talk_sentence_fts f
				JOIN talk_sentence t ON t.talk_sentence_id = f.rowid
				WHERE talk_sentence_fts MATCH ?
				ORDER BY t.talk_sentence_id %s
				LIMIT ? OFFSET ?`, speakerCol, textCol, orderSQL),
				ftsQ, p.Size, p.Offset)
			if err != nil {
				return nil, 0, fmt.Errorf("fts dialogue: %w", err)
			}
			items, err := scanLines(rows)
			return items, total, err
		}
	}

	var total int
	err := r.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM talk_sentence WHERE (%s LIKE ? OR %s LIKE ?)`,
		speakerCol, textCol), like, like).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count dialogue: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT talk_sentence_id, COALESCE(%s, ''), COALESCE(%s, '')
		FROM talk_sentence
		WHERE (%s LIKE ? OR %s LIKE ?)
		ORDER BY talk_sentence_id %s
		LIMIT ? OFFSET ?`, speakerCol, textCol, speakerCol, textCol, orderSQL),
		like, like, p.Size, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search dialogue: %w", err)
	}
	items, err := scanLines(rows)
	return items, total, err
}

func (r *Repo) searchJoined(ctx context.Context, q, lang, orderSQL string, p utils.Page) ([]Line, int, error) {
	if q == "" {
		var total int
		if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM talk_sentence`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count dialogue: %w", err)
		}
		rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
			SELECT t.talk_sentence_id, COALESCE(sp.text, ''), COALESCE(tx.text, '')
			FROM talk_sentence t
			LEFT JOIN text_map sp ON sp.lang = ? AND sp.hash = t.speaker_hash
			LEFT JOIN text_map tx ON tx.lang = ? AND tx.hash = t.text_hash
			ORDER BY t.talk_sentence_id %s
			LIMIT ? OFFSET ?`, orderSQL),
			lang, lang, p.Size, p.Offset)
		if err != nil {
			return nil, 0, fmt.Errorf("list dialogue: %w", err)
		}
		items, err := scanLines(rows)
		return items, total, err
	}

	like := "%" + q + "%"
	var total int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM talk_sentence t
		LEFT JOIN text_map sp ON sp.lang = ? AND sp.hash = t.speaker_hash
		LEFT JOIN text_map tx ON tx.lang = ? AND tx.hash = t.text_hash
		WHERE (sp.text LIKE ? OR tx.text LIKE ?)`,
		lang, lang, like, like).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count dialogue: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT t.talk_sentence_id, COALESCE(sp.text, ''), COALESCE(tx.text, '')
		FROM talk_sentence t
		LEFT JOIN text_map sp ON sp.lang = ? AND sp.hash = t.speaker_hash
		LEFT JOIN text_map tx ON tx.lang = ? AND tx.hash = t.text_hash
		WHERE (sp.text LIKE ? OR tx.text LIKE ?)
		ORDER BY t.talk_sentence_id %s
		LIMIT ? OFFSET ?`, orderSQL),
		lang, lang, like, like, p.Size, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search dialogue: %w", err)
	}
	items, err := scanLines(rows)
	return items, total, err
}

func scanLines(rows *sql.Rows) ([]Line, error) {
	defer rows.Close()
	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.TalkSentenceID, &l.Speaker, &l.Text); err != nil {
			return nil, fmt.Errorf("scan dialogue: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialogue rows: %w", err)
	}
	if out == nil {
		out = []Line{}
	}
	return out, nil
}

// Refs pages through the narrative documents referencing one line.
func (r *Repo) Refs(ctx context.Context, talkSentenceID int64, p utils.Page) ([]models.StoryReference, int, error) {
	var total int
	err := r.RefDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM story_reference WHERE talk_sentence_id = ?`, talkSentenceID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count refs: %w", err)
	}

	rows, err := r.RefDB.QueryContext(ctx, `
		SELECT source_path, source_group, json_path, task_type, timeline_name,
		       performance_type, performance_id, trigger_custom_string, custom_string
		FROM story_reference
		WHERE talk_sentence_id = ?
		ORDER BY source_path, json_path
		LIMIT ? OFFSET ?`,
		talkSentenceID, p.Size, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list refs: %w", err)
	}
	defer rows.Close()

	out := []models.StoryReference{}
	for rows.Next() {
		var ref models.StoryReference
		if err := rows.Scan(
			&ref.SourcePath, &ref.SourceGroup, &ref.JSONPath, &ref.TaskType,
			&ref.TimelineName, &ref.PerformanceType, &ref.PerformanceID,
			&ref.TriggerCustomString, &ref.CustomString,
		); err != nil {
			return nil, 0, fmt.Errorf("scan ref: %w", err)
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ref rows: %w", err)
	}
	return out, total, nil
}
