package avatar

import (
	"context"
	"database/sql"
	"fmt"

	"hsrdb/internal/index"
	"hsrdb/internal/textmap"
	"hsrdb/pkg/utils"
)

// Repo reads characters from the avatar shard. Personal stories come from
// the atlas index because the atlases never went through the relational
// build.
type Repo struct {
	DB    *sql.DB
	Text  *textmap.Store
	Index *index.Cache
}

func NewRepo(db *sql.DB, text *textmap.Store, idx *index.Cache) *Repo {
	return &Repo{DB: db, Text: text, Index: idx}
}

type SearchRow struct {
	AvatarID       int64   `json:"avatar_id"`
	Name           string  `json:"name"`
	FullName       string  `json:"full_name"`
	Rarity         *string `json:"rarity"`
	DamageType     *string `json:"damage_type"`
	AvatarBaseType *string `json:"avatar_base_type"`
}

// Search pages through characters by name. CHS uses the FTS table with a
// LIKE fallback, EN uses LIKE, other languages join through text_map.
func (r *Repo) Search(ctx context.Context, q, lang string, p utils.Page) ([]SearchRow, int, error) {
	if lang == "CHS" || lang == "EN" {
		return r.searchMaterialized(ctx, q, lang, p)
	}
	if err := r.Text.EnsureLoaded(lang); err != nil {
		return nil, 0, err
	}
	return r.searchJoined(ctx, q, lang, p)
}

func (r *Repo) searchMaterialized(ctx context.Context, q, lang string, p utils.Page) ([]SearchRow, int, error) {
	nameCol, fullCol := "name_chs", "full_name_chs"
	if lang == "EN" {
		nameCol, fullCol = "name_en", "full_name_en"
	}

	if q == "" {
		var total int
		if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM avatar`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count avatars: %w", err)
		}
		rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
			SELECT avatar_id, COALESCE(%s, ''), COALESCE(%s, ''), rarity, damage_type, avatar_base_type
			FROM avatar
			ORDER BY avatar_id
			LIMIT ? OFFSET ?`, nameCol, fullCol),
			p.Size, p.Offset)
		if err != nil {
			return nil, 0, fmt.Errorf("list avatars: %w", err)
		}
		items, err := scanSearchRows(rows)
		return items, total, err
	}

	like := "%" + q + "%"

	if lang == "CHS" {
		ftsQ := utils.NormFTS(q)
		var total int
		err := r.DB.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM avatar_fts f
			JOIN avatar a ON a.avatar_id = f.rowid
			WHERE avatar_fts MATCH ?`, ftsQ).Scan(&total)
		if err == nil && total > 0 {
			rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
				SELECT a.avatar_id, COALESCE(a.%s, ''), COALESCE(a.%s, ''), a.rarity, a.damage_type, a.avatar_base_type
				FROM avatar_fts f
				JOIN avatar a ON a.avatar_id = f.rowid
				WHERE avatar_fts MATCH ?
				LIMIT ? OFFSET ?`, nameCol, fullCol),
				ftsQ, p.Size, p.Offset)
			if err != nil {
				return nil, 0, fmt.Errorf("fts avatars: %w", err)
			}
			items, err := scanSearchRows(rows)
			return items, total, err
		}
	}

	var total int
	err := r.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM avatar WHERE (%s LIKE ? OR %s LIKE ?)`, nameCol, fullCol),
		like, like).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count avatars: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT avatar_id, COALESCE(%s, ''), COALESCE(%s, ''), rarity, damage_type, avatar_base_type
		FROM avatar
		WHERE (%s LIKE ? OR %s LIKE ?)
		LIMIT ? OFFSET ?`, nameCol, fullCol, nameCol, fullCol),
		like, like, p.Size, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search avatars: %w", err)
	}
	items, err := scanSearchRows(rows)
	return items, total, err
}

func (r *Repo) searchJoined(ctx context.Context, q, lang string, p utils.Page) ([]SearchRow, int, error) {
	if q == "" {
		var total int
		if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM avatar`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count avatars: %w", err)
		}
		rows, err := r.DB.QueryContext(ctx, `
			SELECT a.avatar_id, COALESCE(nm.text, ''), COALESCE(fn.text, ''), a.rarity, a.damage_type, a.avatar_base_type
			FROM avatar a
			LEFT JOIN text_map nm ON nm.lang = ? AND nm.hash = a.name_hash
			LEFT JOIN text_map fn ON fn.lang = ? AND fn.hash = a.full_name_hash
			ORDER BY a.avatar_id
			LIMIT ? OFFSET ?`,
			lang, lang, p.Size, p.Offset)
		if err != nil {
			return nil, 0, fmt.Errorf("list avatars: %w", err)
		}
		items, err := scanSearchRows(rows)
		return items, total, err
	}

	like := "%" + q + "%"
	var total int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM avatar a
		LEFT JOIN text_map nm ON nm.lang = ? AND nm.hash = a.name_hash
		LEFT JOIN text_map fn ON fn.lang = ? AND fn.hash = a.full_name_hash
		WHERE (nm.text LIKE ? OR fn.text LIKE ? OR CAST(a.avatar_id AS TEXT) LIKE ?)`,
		lang, lang, like, like, like).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count avatars: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT a.avatar_id, COALESCE(nm.text, ''), COALESCE(fn.text, ''), a.rarity, a.damage_type, a.avatar_base_type
		FROM avatar a
		LEFT JOIN text_map nm ON nm.lang = ? AND nm.hash = a.name_hash
		LEFT JOIN text_map fn ON fn.lang = ? AND fn.hash = a.full_name_hash
		WHERE (nm.text LIKE ? OR fn.text LIKE ? OR CAST(a.avatar_id AS TEXT) LIKE ?)
		ORDER BY a.avatar_id
		LIMIT ? OFFSET ?`,
		lang, lang, like, like, like, p.Size, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search avatars: %w", err)
	}
	items, err := scanSearchRows(rows)
	return items, total, err
}

func scanSearchRows(rows *sql.Rows) ([]SearchRow, error) {
	defer rows.Close()
	out := []SearchRow{}
	for rows.Next() {
		var row SearchRow
		if err := rows.Scan(
			&row.AvatarID, &row.Name, &row.FullName,
			&row.Rarity, &row.DamageType, &row.AvatarBaseType,
		); err != nil {
			return nil, fmt.Errorf("scan avatar: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("avatar rows: %w", err)
	}
	return out, nil
}
