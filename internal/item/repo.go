package item

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hsrdb/internal/index"
	"hsrdb/internal/textmap"
	"hsrdb/pkg/utils"
)

// Repo reads inventory items from the item shard. Equipment rows are
// annotated with their light cone skill, resolved from the equipment index.
type Repo struct {
	DB    *sql.DB
	Text  *textmap.Store
	Index *index.Cache
}

func NewRepo(db *sql.DB, text *textmap.Store, idx *index.Cache) *Repo {
	return &Repo{DB: db, Text: text, Index: idx}
}

// Filter narrows a search to one facet value per dimension. Empty values
// are ignored.
type Filter struct {
	Rarity       string
	ItemMainType string
	ItemSubType  string
}

func (f Filter) parts() (conds []string, args []any) {
	if f.Rarity != "" {
		conds = append(conds, "rarity = ?")
		args = append(args, f.Rarity)
	}
	if f.ItemMainType != "" {
		conds = append(conds, "item_main_type = ?")
		args = append(args, f.ItemMainType)
	}
	if f.ItemSubType != "" {
		conds = append(conds, "item_sub_type = ?")
		args = append(args, f.ItemSubType)
	}
	return conds, args
}

type SearchRow struct {
	ItemID        int64             `json:"item_id"`
	ItemMainType  *string           `json:"item_main_type"`
	ItemSubType   *string           `json:"item_sub_type"`
	Rarity        *string           `json:"rarity"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	BGDescription string            `json:"bg_description"`
	Purpose       *string           `json:"purpose"`
	IconPath      *string           `json:"icon_path"`
	LightCone     *LightConeSummary `json:"light_cone"`
}

// Search pages through items by name, description, or background text,
// optionally filtered by facet.
func (r *Repo) Search(ctx context.Context, q, lang string, f Filter, p utils.Page) ([]SearchRow, int, error) {
	var (
		items []SearchRow
		total int
		err   error
	)
	if lang == "CHS" || lang == "EN" {
		items, total, err = r.searchMaterialized(ctx, q, lang, f, p)
	} else {
		if err := r.Text.EnsureLoaded(lang); err != nil {
			return nil, 0, err
		}
		items, total, err = r.searchJoined(ctx, q, lang, f, p)
	}
	if err != nil {
		return nil, 0, err
	}

	equipmentIDs := []int64{}
	for _, it := range items {
		if isEquipment(it.ItemMainType, it.ItemSubType) {
			equipmentIDs = append(equipmentIDs, it.ItemID)
		}
	}
	cones, err := r.lightConeSummaries(lang, equipmentIDs)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].LightCone = cones[items[i].ItemID]
	}
	return items, total, nil
}

func isEquipment(mainType, subType *string) bool {
	return (mainType != nil && *mainType == "Equipment") || (subType != nil && *subType == "Equipment")
}

func itemCols(lang string) (name, desc, bgDesc, purpose string) {
	if lang == "EN" {
		return "item_name_en", "item_desc_en", "item_bg_desc_en", "purpose_text_en"
	}
	return "item_name_chs", "item_desc_chs", "item_bg_desc_chs", "purpose_text_chs"
}

func whereSQL(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

func (r *Repo) searchMaterialized(ctx context.Context, q, lang string, f Filter, p utils.Page) ([]SearchRow, int, error) {
	nameCol, descCol, bgCol, purposeCol := itemCols(lang)
	conds, filterArgs := f.parts()

	if q == "" {
		var total int
		args := append([]any{}, filterArgs...)
		if err := r.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM item "+whereSQL(conds), args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count items: %w", err)
		}
		rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
			SELECT item_id, item_main_type, item_sub_type, rarity,
			       COALESCE(%s, ''), COALESCE(%s, ''), COALESCE(%s, ''), %s, icon_path
			FROM item
			%s
			ORDER BY item_id
			LIMIT ? OFFSET ?`, nameCol, descCol, bgCol, purposeCol, whereSQL(conds)),
			append(args, p.Size, p.Offset)...)
		if err != nil {
			return nil, 0, fmt.Errorf("list items: %w", err)
		}
		items, err := scanSearchRows(rows)
		return items, total, err
	}

	like := "%" + q + "%"
	textCond := fmt.Sprintf("(%s LIKE ? OR %s LIKE ? OR %s LIKE ?)", nameCol, descCol, bgCol)
	conds = append(conds, textCond)

	if lang == "CHS" {
		ftsConds := append([]string{}, conds[:len(conds)-1]...)
		ftsConds = append(ftsConds, "item_fts MATCH ?")
		ftsQ := utils.NormFTS(q)
		ftsArgs := append(append([]any{}, filterArgs...), ftsQ)

		var total int
		err := r.DB.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM item_fts f
			JOIN item i ON i.item_id = f.rowid
			`+whereSQL(ftsConds), ftsArgs...).Scan(&total)
		if err == nil && total > 0 {
			rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
				SELECT i.item_id, i.item_main_type, i.item_sub_type, i.rarity,
				       COALESCE(i.%s, ''), COALESCE(i.%s, ''), COALESCE(i.%s, ''), i.%s, i.icon_path
				FROM item_fts f
				JOIN item i ON i.item_id = f.rowid
				%s
				ORDER BY i.item_id
				LIMIT ? OFFSET ?`, nameCol, descCol, bgCol, purposeCol, whereSQL(ftsConds)),
				append(ftsArgs, p.Size, p.Offset)...)
			if err != nil {
				return nil, 0, fmt.Errorf("fts items: %w", err)
			}
			items, err := scanSearchRows(rows)
			return items, total, err
		}
	}

	args := append(append([]any{}, filterArgs...), like, like, like)
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM item "+whereSQL(conds), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT item_id, item_main_type, item_sub_type, rarity,
		       COALESCE(%s, ''), COALESCE(%s, ''), COALESCE(%s, ''), %s, icon_path
		FROM item
		%s
		ORDER BY item_id
		LIMIT ? OFFSET ?`, nameCol, descCol, bgCol, purposeCol, whereSQL(conds)),
		append(args, p.Size, p.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search items: %w", err)
	}
	items, err := scanSearchRows(rows)
	return items, total, err
}

func (r *Repo) searchJoined(ctx context.Context, q, lang string, f Filter, p utils.Page) ([]SearchRow, int, error) {
	_, _, _, purposeCol := itemCols(lang)
	conds, filterArgs := f.parts()
	joins := `
		LEFT JOIN text_map nm ON nm.lang = ? AND nm.hash = i.item_name_hash
		LEFT JOIN text_map dc ON dc.lang = ? AND dc.hash = i.item_desc_hash
		LEFT JOIN text_map bg ON bg.lang = ? AND bg.hash = i.item_bg_desc_hash`

	if q == "" {
		var total int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM item "+whereSQL(conds),
			filterArgs...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count items: %w", err)
		}
		args := append([]any{lang, lang, lang}, filterArgs...)
		rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
			SELECT i.item_id, i.item_main_type, i.item_sub_type, i.rarity,
			       COALESCE(nm.text, ''), COALESCE(dc.text, ''), COALESCE(bg.text, ''), i.%s, i.icon_path
			FROM item i
			%s
			%s
			ORDER BY i.item_id
			LIMIT ? OFFSET ?`, purposeCol, joins, whereSQL(conds)),
			append(args, p.Size, p.Offset)...)
		if err != nil {
			return nil, 0, fmt.Errorf("list items: %w", err)
		}
		items, err := scanSearchRows(rows)
		return items, total, err
	}

	like := "%" + q + "%"
	conds = append(conds, "(nm.text LIKE ? OR dc.text LIKE ? OR bg.text LIKE ? OR CAST(i.item_id AS TEXT) LIKE ?)")
	args := append([]any{lang, lang, lang}, filterArgs...)
	args = append(args, like, like, like, like)

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM item i "+joins+" "+whereSQL(conds),
		args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT i.item_id, i.item_main_type, i.item_sub_type, i.rarity,
		       COALESCE(nm.text, ''), COALESCE(dc.text, ''), COALESCE(bg.text, ''), i.%s, i.icon_path
		FROM item i
		%s
		%s
		ORDER BY i.item_id
		LIMIT ? OFFSET ?`, purposeCol, joins, whereSQL(conds)),
		append(args, p.Size, p.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search items: %w", err)
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
			&row.ItemID, &row.ItemMainType, &row.ItemSubType, &row.Rarity,
			&row.Name, &row.Description, &row.BGDescription, &row.Purpose, &row.IconPath,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("item rows: %w", err)
	}
	return out, nil
}

type FullItem struct {
	ItemID           int64   `json:"item_id"`
	SourceFile       *string `json:"source_file"`
	ItemMainType     *string `json:"item_main_type"`
	ItemSubType      *string `json:"item_sub_type"`
	Rarity           *string `json:"rarity"`
	PurposeType      *int64  `json:"purpose_type"`
	Purpose          *string `json:"purpose"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	BGDescription    string  `json:"bg_description"`
	IconPath         *string `json:"icon_path"`
	FigureIconPath   *string `json:"figure_icon_path"`
	CurrencyIconPath *string `json:"currency_icon_path"`
	AvatarIconPath   *string `json:"avatar_icon_path"`
	PileLimit        *int64  `json:"pile_limit"`
}

type Detail struct {
	Item      FullItem         `json:"item"`
	LightCone *LightConeDetail `json:"light_cone"`
}

// Detail returns one item with its light cone expansion when the item is a
// piece of equipment. Returns nil when the item does not exist.
func (r *Repo) Detail(ctx context.Context, itemID int64, lang string) (*Detail, error) {
	nameCol, descCol, bgCol, purposeCol := itemCols(lang)

	var (
		it  FullItem
		err error
	)
	if lang == "CHS" || lang == "EN" {
		err = r.DB.QueryRowContext(ctx, fmt.Sprintf(`
			SELECT item_id, source_file, item_main_type, item_sub_type, rarity, purpose_type,
			       %s, COALESCE(%s, ''), COALESCE(%s, ''), COALESCE(%s, ''),
			       icon_path, figure_icon_path, currency_icon_path, avatar_icon_path, pile_limit
			FROM item
			WHERE item_id = ?`, purposeCol, nameCol, descCol, bgCol), itemID).
			Scan(&it.ItemID, &it.SourceFile, &it.ItemMainType, &it.ItemSubType, &it.Rarity, &it.PurposeType,
				&it.Purpose, &it.Name, &it.Description, &it.BGDescription,
				&it.IconPath, &it.FigureIconPath, &it.CurrencyIconPath, &it.AvatarIconPath, &it.PileLimit)
	} else {
		if err := r.Text.EnsureLoaded(lang); err != nil {
			return nil, err
		}
		err = r.DB.QueryRowContext(ctx, fmt.Sprintf(`
			SELECT i.item_id, i.source_file, i.item_main_type, i.item_sub_type, i.rarity, i.purpose_type,
			       i.%s, COALESCE(nm.text, ''), COALESCE(dc.text, ''), COALESCE(bg.text, ''),
			       i.icon_path, i.figure_icon_path, i.currency_icon_path, i.avatar_icon_path, i.pile_limit
			FROM item i
			LEFT JOIN text_map nm ON nm.lang = ? AND nm.hash = i.item_name_hash
			LEFT JOIN text_map dc ON dc.lang = ? AND dc.hash = i.item_desc_hash
			LEFT JOIN text_map bg ON bg.lang = ? AND bg.hash = i.item_bg_desc_hash
			WHERE i.item_id = ?`, purposeCol), lang, lang, lang, itemID).
			Scan(&it.ItemID, &it.SourceFile, &it.ItemMainType, &it.ItemSubType, &it.Rarity, &it.PurposeType,
				&it.Purpose, &it.Name, &it.Description, &it.BGDescription,
				&it.IconPath, &it.FigureIconPath, &it.CurrencyIconPath, &it.AvatarIconPath, &it.PileLimit)
	}
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("item detail: %w", err)
	}

	detail := &Detail{Item: it}
	if isEquipment(it.ItemMainType, it.ItemSubType) {
		detail.LightCone, err = r.lightConeDetail(lang, itemID)
		if err != nil {
			return nil, err
		}
	}
	return detail, nil
}

type Facets struct {
	Rarity       []string `json:"rarity"`
	ItemMainType []string `json:"item_main_type"`
	ItemSubType  []string `json:"item_sub_type"`
}

// FacetValues lists the distinct non-empty values of each filter dimension.
func (r *Repo) FacetValues(ctx context.Context) (*Facets, error) {
	out := &Facets{Rarity: []string{}, ItemMainType: []string{}, ItemSubType: []string{}}
	for _, dim := range []struct {
		col  string
		dest *[]string
	}{
		{"rarity", &out.Rarity},
		{"item_main_type", &out.ItemMainType},
		{"item_sub_type", &out.ItemSubType},
	} {
		rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
			SELECT DISTINCT %s FROM item WHERE %s IS NOT NULL AND %s != '' ORDER BY %s`,
			dim.col, dim.col, dim.col, dim.col))
		if err != nil {
			return nil, fmt.Errorf("item facets %s: %w", dim.col, err)
		}
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan facet: %w", err)
			}
			*dim.dest = append(*dim.dest, v)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("facet rows: %w", err)
		}
		rows.Close()
	}
	return out, nil
}
