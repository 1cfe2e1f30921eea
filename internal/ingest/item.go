package ingest

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hsrdb/internal/flex"
	"hsrdb/internal/jsonio"
)

// InsertItems ingests every ItemConfig*.json table into the shared item
// table. Files are processed in name order; an id redefined by a later file
// updates the earlier row.
func (p *Pipeline) InsertItems() error {
	excel := filepath.Join(p.root, "ExcelOutput")

	purposeMap, err := p.loadItemPurposes(excel)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(excel)
	if err != nil {
		return fmt.Errorf("read excel dir: %w", err)
	}
	var itemFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "ItemConfig") && strings.HasSuffix(name, ".json") {
			itemFiles = append(itemFiles, name)
		}
	}
	sort.Strings(itemFiles)

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("begin items: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO item(
			item_id, source_file, item_main_type, item_sub_type, rarity, purpose_type,
			purpose_text_chs, purpose_text_en, item_name_hash, item_name_chs, item_name_en,
			item_desc_hash, item_desc_chs, item_desc_en, item_bg_desc_hash, item_bg_desc_chs,
			item_bg_desc_en, icon_path, figure_icon_path, currency_icon_path, avatar_icon_path, pile_limit
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			source_file=excluded.source_file,
			item_main_type=excluded.item_main_type,
			item_sub_type=excluded.item_sub_type,
			rarity=excluded.rarity,
			purpose_type=excluded.purpose_type,
			purpose_text_chs=excluded.purpose_text_chs,
			purpose_text_en=excluded.purpose_text_en,
			item_name_hash=excluded.item_name_hash,
			item_name_chs=excluded.item_name_chs,
			item_name_en=excluded.item_name_en,
			item_desc_hash=excluded.item_desc_hash,
			item_desc_chs=excluded.item_desc_chs,
			item_desc_en=excluded.item_desc_en,
			item_bg_desc_hash=excluded.item_bg_desc_hash,
			item_bg_desc_chs=excluded.item_bg_desc_chs,
			item_bg_desc_en=excluded.item_bg_desc_en,
			icon_path=excluded.icon_path,
			figure_icon_path=excluded.figure_icon_path,
			currency_icon_path=excluded.currency_icon_path,
			avatar_icon_path=excluded.avatar_icon_path,
			pile_limit=excluded.pile_limit`)
	if err != nil {
		return fmt.Errorf("prepare item upsert: %w", err)
	}
	defer stmt.Close()

	type ftsText struct{ name, desc string }
	ftsByID := make(map[int64]ftsText)
	upserted := 0

	for _, name := range itemFiles {
		doc, err := jsonio.Load(filepath.Join(excel, name))
		if err != nil {
			return err
		}
		arr, ok := doc.([]any)
		if !ok {
			continue
		}
		for _, entry := range arr {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			itemID, ok := flex.Int(item["ID"])
			if !ok {
				continue
			}

			purposeType := intPtr(item["PurposeType"])
			var purposeCHS, purposeEN *string
			if purposeType != nil {
				if texts, found := purposeMap[*purposeType]; found {
					purposeCHS, purposeEN = texts[0], texts[1]
				}
			}

			nameHash := hashPtr(item["ItemName"])
			descHash := hashPtr(item["ItemDesc"])
			bgHash := hashPtr(item["ItemBGDesc"])
			nameCHS := p.resolve("CHS", nameHash)
			descCHS := p.resolve("CHS", descHash)
			bgCHS := p.resolve("CHS", bgHash)

			_, err := stmt.Exec(
				itemID, name,
				strPtr(item["ItemMainType"]), strPtr(item["ItemSubType"]), strPtr(item["Rarity"]),
				purposeType, purposeCHS, purposeEN,
				nameHash, nameCHS, p.resolve("EN", nameHash),
				descHash, descCHS, p.resolve("EN", descHash),
				bgHash, bgCHS, p.resolve("EN", bgHash),
				strPtr(item["ItemIconPath"]), strPtr(item["ItemFigureIconPath"]),
				strPtr(item["ItemCurrencyIconPath"]), strPtr(item["ItemAvatarIconPath"]),
				intPtr(item["PileLimit"]),
			)
			if err != nil {
				return fmt.Errorf("upsert item %d: %w", itemID, err)
			}
			upserted++

			desc := deref(descCHS)
			if desc == "" {
				desc = deref(bgCHS)
			}
			ftsByID[itemID] = ftsText{name: deref(nameCHS), desc: desc}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit items: %w", err)
	}

	p.rebuildFTS("item_fts", "(rowid, name, description) VALUES(?, ?, ?)", func(insert func(args ...any) error) error {
		for id, text := range ftsByID {
			if err := insert(id, text.name, text.desc); err != nil {
				return err
			}
		}
		return nil
	})

	p.Stats["item"] = len(ftsByID)
	log.Printf("[ingest] item files: %d, rows upserted: %d, unique: %d",
		len(itemFiles), upserted, len(ftsByID))
	return nil
}

// loadItemPurposes reads the purpose lookup table; the localized purpose
// text is denormalized onto each item row.
func (p *Pipeline) loadItemPurposes(excel string) (map[int64][2]*string, error) {
	out := make(map[int64][2]*string)
	path := filepath.Join(excel, "ItemPurpose.json")
	if _, err := os.Stat(path); err != nil {
		return out, nil
	}
	doc, err := jsonio.Load(path)
	if err != nil {
		return nil, err
	}
	arr, ok := doc.([]any)
	if !ok {
		return out, nil
	}
	for _, entry := range arr {
		row, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		pid, ok := flex.Int(row["ID"])
		if !ok {
			continue
		}
		hash := hashPtr(row["PurposeText"])
		out[pid] = [2]*string{p.resolve("CHS", hash), p.resolve("EN", hash)}
	}
	return out, nil
}
