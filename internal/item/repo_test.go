package item

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"hsrdb/internal/index"
	"hsrdb/internal/textmap"
	"hsrdb/pkg/database"
	"hsrdb/pkg/utils"
)

func writeResources(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func newTestRepo(t *testing.T, resourcesRoot string) (*Repo, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepo(db, textmap.NewStore(db, ""), index.NewCache(resourcesRoot)), db
}

func seedItems(t *testing.T, db *sql.DB) {
	t.Helper()
	exec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	exec(`INSERT INTO item (item_id, item_main_type, item_sub_type, rarity, item_name_chs, item_name_en, item_desc_chs, item_desc_en)
	      VALUES (101, 'Material', 'Material', 'Rare', '信用点', 'Credit', '通用货币', 'Common currency')`)
	exec(`INSERT INTO item (item_id, item_main_type, item_sub_type, rarity, item_name_chs, item_name_en)
	      VALUES (102, 'Material', 'Material', 'SuperRare', '星琼', 'Stellar Jade')`)
	exec(`INSERT INTO item (item_id, item_main_type, item_sub_type, rarity, item_name_chs, item_name_en)
	      VALUES (21000, 'Equipment', 'Equipment', 'SuperRare', '余生的第一天', 'On the Fall of an Aeon')`)
}

func TestSearchFacetFilters(t *testing.T) {
	repo, db := newTestRepo(t, t.TempDir())
	seedItems(t, db)

	items, total, err := repo.Search(context.Background(), "", "EN",
		Filter{Rarity: "SuperRare", ItemMainType: "Material"}, utils.Page{Size: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ItemID != 102 {
		t.Fatalf("items = %+v, total = %d", items, total)
	}
}

func TestSearchTextAndFilterCombine(t *testing.T) {
	repo, db := newTestRepo(t, t.TempDir())
	seedItems(t, db)

	// "currency" only matches item 101 through its description
	items, total, err := repo.Search(context.Background(), "currency", "EN",
		Filter{ItemMainType: "Material"}, utils.Page{Size: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || items[0].ItemID != 101 {
		t.Fatalf("items = %+v, total = %d", items, total)
	}
	if items[0].LightCone != nil {
		t.Fatal("material row must not carry a light cone")
	}
}

func TestSearchAnnotatesEquipment(t *testing.T) {
	root := writeResources(t, map[string]string{
		"ExcelOutput/EquipmentConfig.json": `[
			{"EquipmentID": 21000, "SkillID": 2100, "AvatarBaseType": "Knight", "MaxRank": 5, "MaxPromotion": 6}
		]`,
		"ExcelOutput/EquipmentSkillConfig.json": `[
			{"SkillID": 2100, "Level": 1, "SkillName": {"Hash": 71}, "SkillDesc": {"Hash": 72},
			 "ParamList": [{"Value": 0.24}]},
			{"SkillID": 2100, "Level": 2, "SkillName": {"Hash": 71}, "SkillDesc": {"Hash": 72},
			 "ParamList": [{"Value": 0.32}]}
		]`,
	})
	repo, db := newTestRepo(t, root)
	seedItems(t, db)
	for _, row := range [][2]string{
		{"71", "Moment of Victory"},
		{"72", "Increases DEF by #1[i]%."},
	} {
		if _, err := db.Exec(`INSERT INTO text_map (lang, hash, text) VALUES ('EN', ?, ?)`, row[0], row[1]); err != nil {
			t.Fatalf("seed text_map: %v", err)
		}
	}

	items, _, err := repo.Search(context.Background(), "Aeon", "EN", Filter{}, utils.Page{Size: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].LightCone == nil {
		t.Fatalf("items = %+v, want light cone annotation", items)
	}
	lc := items[0].LightCone
	if lc.SkillName == nil || *lc.SkillName != "Moment of Victory" {
		t.Fatalf("skill name = %v", lc.SkillName)
	}
	// summary carries the level-1 skill
	if lc.SkillDesc == nil || *lc.SkillDesc != "Increases DEF by 24%." {
		t.Fatalf("skill desc = %v", lc.SkillDesc)
	}
}

func TestDetailLightConeLevels(t *testing.T) {
	root := writeResources(t, map[string]string{
		"ExcelOutput/EquipmentConfig.json": `[
			{"EquipmentID": 21000, "SkillID": 2100, "MaxRank": 5, "ThumbnailPath": "thumb.png"}
		]`,
		"ExcelOutput/EquipmentSkillConfig.json": `[
			{"SkillID": 2100, "Level": 2, "SkillDesc": {"Hash": 72}, "ParamList": [{"Value": 0.32}]},
			{"SkillID": 2100, "Level": 1, "SkillDesc": {"Hash": 72}, "ParamList": [{"Value": 0.24}]}
		]`,
	})
	repo, db := newTestRepo(t, root)
	seedItems(t, db)
	if _, err := db.Exec(`INSERT INTO text_map (lang, hash, text) VALUES ('EN', '72', 'Increases DEF by #1[i]%.')`); err != nil {
		t.Fatalf("seed text_map: %v", err)
	}

	detail, err := repo.Detail(context.Background(), 21000, "EN")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail == nil || detail.LightCone == nil {
		t.Fatalf("detail = %+v", detail)
	}
	lc := detail.LightCone
	if len(lc.Levels) != 2 || lc.Levels[0].Level != 1 || lc.Levels[1].Level != 2 {
		t.Fatalf("levels = %+v, want sorted", lc.Levels)
	}
	if lc.Levels[1].SkillDesc == nil || *lc.Levels[1].SkillDesc != "Increases DEF by 32%." {
		t.Fatalf("level 2 desc = %v", lc.Levels[1].SkillDesc)
	}
	if lc.ThumbnailPath == nil || *lc.ThumbnailPath != "thumb.png" {
		t.Fatalf("thumbnail = %v", lc.ThumbnailPath)
	}
}

func TestDetailMissingItem(t *testing.T) {
	repo, db := newTestRepo(t, t.TempDir())
	seedItems(t, db)

	detail, err := repo.Detail(context.Background(), 9999, "EN")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail != nil {
		t.Fatalf("detail = %+v, want nil", detail)
	}
}

func TestFacetValues(t *testing.T) {
	repo, db := newTestRepo(t, t.TempDir())
	seedItems(t, db)

	facets, err := repo.FacetValues(context.Background())
	if err != nil {
		t.Fatalf("facets: %v", err)
	}
	if len(facets.Rarity) != 2 || facets.Rarity[0] != "Rare" || facets.Rarity[1] != "SuperRare" {
		t.Fatalf("rarity = %v", facets.Rarity)
	}
	if len(facets.ItemMainType) != 2 {
		t.Fatalf("main types = %v", facets.ItemMainType)
	}
}
