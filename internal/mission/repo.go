package mission

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hsrdb/internal/textmap"
	"hsrdb/pkg/utils"
)

// contentExistsPred keeps placeholder missions out of search results: a
// mission only shows when it has sub-missions or narrative documents.
const contentExistsPred = `
	(
		EXISTS (
			SELECT 1 FROM sub_mission sx
			WHERE sx.main_mission_guess = m.main_mission_id
		)
		OR EXISTS (
			SELECT 1 FROM story_reference sr
			WHERE sr.source_path LIKE ('Story/Mission/' || m.main_mission_id || '/%')
			   OR sr.source_path LIKE ('Config/Level/Mission/' || m.main_mission_id || '/%')
		)
	)`

// Repo reads missions from the mission shard. Mission detail resolves its
// dialogue lines from the dialogue shard.
type Repo struct {
	DB       *sql.DB
	TalkDB   *sql.DB
	Text     *textmap.Store
	TalkText *textmap.Store
}

func NewRepo(db, talkDB *sql.DB, text, talkText *textmap.Store) *Repo {
	return &Repo{DB: db, TalkDB: talkDB, Text: text, TalkText: talkText}
}

type SubMissionPreview struct {
	SubMissionID int64  `json:"sub_mission_id"`
	Target       string `json:"target"`
	Description  string `json:"description"`
}

type SearchRow struct {
	MainMissionID      int64               `json:"main_mission_id"`
	MissionType        *string             `json:"mission_type"`
	Name               string              `json:"name"`
	ChapterID          *int64              `json:"chapter_id"`
	WorldID            *int64              `json:"world_id"`
	DisplayPriority    *int64              `json:"display_priority"`
	SubMissionCount    int                 `json:"sub_mission_count"`
	SubMissionsPreview []SubMissionPreview `json:"sub_missions_preview"`
	SubMissionsMore    int                 `json:"sub_missions_more"`
}

// Search pages through missions whose name, id, or any sub-mission text
// matches q, and decorates each hit with a bounded sub-mission preview.
func (r *Repo) Search(ctx context.Context, q, lang string, p utils.Page, previewLimit int) ([]SearchRow, int, error) {
	materialized := lang == "CHS" || lang == "EN"
	if !materialized {
		if err := r.Text.EnsureLoaded(lang); err != nil {
			return nil, 0, err
		}
	}

	var (
		total int
		rows  *sql.Rows
		err   error
	)
	if materialized {
		nameCol, targetCol, descCol := langCols(lang)
		if q == "" {
			err = r.DB.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM main_mission m WHERE `+contentExistsPred).Scan(&total)
			if err != nil {
				return nil, 0, fmt.Errorf("count missions: %w", err)
			}
			rows, err = r.DB.QueryContext(ctx, fmt.Sprintf(`
				SELECT m.main_mission_id, m.mission_type, COALESCE(m.%s, ''), m.chapter_id, m.world_id, m.display_priority
				FROM main_mission m
				WHERE %s
				ORDER BY m.main_mission_id ASC
				LIMIT ? OFFSET ?`, nameCol, contentExistsPred),
				p.Size, p.Offset)
		} else {
			like := "%" + q + "%"
			matchPred := fmt.Sprintf(`
				(
					m.%s LIKE ?
					OR CAST(m.main_mission_id AS TEXT) LIKE ?
					OR EXISTS (
						SELECT 1 FROM sub_mission s
						WHERE s.main_mission_guess = m.main_mission_id
						  AND (s.%s LIKE ? OR s.%s LIKE ? OR CAST(s.sub_mission_id AS TEXT) LIKE ?)
					)
				)`, nameCol, targetCol, descCol)
			err = r.DB.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM main_mission m WHERE `+contentExistsPred+` AND `+matchPred,
				like, like, like, like, like).Scan(&total)
			if err != nil {
				return nil, 0, fmt.Errorf("count missions: %w", err)
			}
			rows, err = r.DB.QueryContext(ctx, fmt.Sprintf(`
				SELECT m.main_mission_id, m.mission_type, COALESCE(m.%s, ''), m.chapter_id, m.world_id, m.display_priority
				FROM main_mission m
				WHERE %s AND %s
				ORDER BY m.main_mission_id ASC
				LIMIT ? OFFSET ?`, nameCol, contentExistsPred, matchPred),
				like, like, like, like, like, p.Size, p.Offset)
		}
	} else {
		if q == "" {
			err = r.DB.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM main_mission m WHERE `+contentExistsPred).Scan(&total)
			if err != nil {
				return nil, 0, fmt.Errorf("count missions: %w", err)
			}
			rows, err = r.DB.QueryContext(ctx, `
				SELECT m.main_mission_id, m.mission_type, COALESCE(tm.text, ''), m.chapter_id, m.world_id, m.display_priority
				FROM main_mission m
				LEFT JOIN text_map tm ON tm.lang = ? AND tm.hash = m.name_hash
				WHERE `+contentExistsPred+`
				ORDER BY m.main_mission_id ASC
				LIMIT ? OFFSET ?`,
				lang, p.Size, p.Offset)
		} else {
			like := "%" + q + "%"
			matchPred := `
				(
					CAST(m.main_mission_id AS TEXT) LIKE ?
					OR tm.text LIKE ?
					OR EXISTS (
						SELECT 1 FROM sub_mission s
						LEFT JOIN text_map st ON st.lang = ? AND st.hash = s.target_hash
						LEFT JOIN text_map sd ON sd.lang = ? AND sd.hash = s.description_hash
						WHERE s.main_mission_guess = m.main_mission_id
						  AND (st.text LIKE ? OR sd.text LIKE ? OR CAST(s.sub_mission_id AS TEXT) LIKE ?)
					)
				)`
			err = r.DB.QueryRowContext(ctx, `
				SELECT COUNT(*)
				FROM main_mission m
				LEFT JOIN text_map tm ON tm.lang = ? AND tm.hash = m.name_hash
				WHERE `+contentExistsPred+` AND `+matchPred,
				lang, like, like, lang, lang, like, like, like).Scan(&total)
			if err != nil {
				return nil, 0, fmt.Errorf("count missions: %w", err)
			}
			rows, err = r.DB.QueryContext(ctx, `
				SELECT m.main_mission_id, m.mission_type, COALESCE(tm.text, ''), m.chapter_id, m.world_id, m.display_priority
				FROM main_mission m
				LEFT JOIN text_map tm ON tm.lang = ? AND tm.hash = m.name_hash
				WHERE `+contentExistsPred+` AND `+matchPred+`
				ORDER BY m.main_mission_id ASC
				LIMIT ? OFFSET ?`,
				lang, like, like, lang, lang, like, like, like, p.Size, p.Offset)
		}
	}
	if err != nil {
		return nil, 0, fmt.Errorf("search missions: %w", err)
	}

	items, err := scanSearchRows(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachSubPreviews(ctx, items, lang, previewLimit); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func scanSearchRows(rows *sql.Rows) ([]SearchRow, error) {
	defer rows.Close()
	out := []SearchRow{}
	for rows.Next() {
		var row SearchRow
		if err := rows.Scan(
			&row.MainMissionID, &row.MissionType, &row.Name,
			&row.ChapterID, &row.WorldID, &row.DisplayPriority,
		); err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		row.SubMissionsPreview = []SubMissionPreview{}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mission rows: %w", err)
	}
	return out, nil
}

func (r *Repo) attachSubPreviews(ctx context.Context, items []SearchRow, lang string, previewLimit int) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]any, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.MainMissionID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	var (
		rows *sql.Rows
		err  error
	)
	if lang == "CHS" || lang == "EN" {
		_, targetCol, descCol := langCols(lang)
		rows, err = r.DB.QueryContext(ctx, fmt.Sprintf(`
			SELECT main_mission_guess, sub_mission_id, COALESCE(%s, ''), COALESCE(%s, '')
			FROM sub_mission
			WHERE main_mission_guess IN (%s)
			ORDER BY main_mission_guess ASC, sub_mission_id ASC`,
			targetCol, descCol, placeholders), ids...)
	} else {
		args := append([]any{lang, lang}, ids...)
		rows, err = r.DB.QueryContext(ctx, fmt.Sprintf(`
			SELECT s.main_mission_guess, s.sub_mission_id, COALESCE(st.text, ''), COALESCE(sd.text, '')
			FROM sub_mission s
			LEFT JOIN text_map st ON st.lang = ? AND st.hash = s.target_hash
			LEFT JOIN text_map sd ON sd.lang = ? AND sd.hash = s.description_hash
			WHERE s.main_mission_guess IN (%s)
			ORDER BY s.main_mission_guess ASC, s.sub_mission_id ASC`,
			placeholders), args...)
	}
	if err != nil {
		return fmt.Errorf("sub previews: %w", err)
	}
	defer rows.Close()

	subsByMain := make(map[int64][]SubMissionPreview)
	for rows.Next() {
		var mainID int64
		var sub SubMissionPreview
		if err := rows.Scan(&mainID, &sub.SubMissionID, &sub.Target, &sub.Description); err != nil {
			return fmt.Errorf("scan sub preview: %w", err)
		}
		subsByMain[mainID] = append(subsByMain[mainID], sub)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sub preview rows: %w", err)
	}

	for i := range items {
		subs := subsByMain[items[i].MainMissionID]
		items[i].SubMissionCount = len(subs)
		if len(subs) > previewLimit {
			items[i].SubMissionsPreview = subs[:previewLimit]
			items[i].SubMissionsMore = len(subs) - previewLimit
		} else if subs != nil {
			items[i].SubMissionsPreview = subs
		}
	}
	return nil
}

func langCols(lang string) (name, target, desc string) {
	if lang == "EN" {
		return "name_en", "target_en", "description_en"
	}
	return "name_chs", "target_chs", "description_chs"
}
