package avatar

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"hsrdb/internal/index"
	"hsrdb/internal/textmap"
	"hsrdb/pkg/database"
	"hsrdb/pkg/utils"
)

func newTestRepo(t *testing.T) (*Repo, *sql.DB) {
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
	return NewRepo(db, textmap.NewStore(db, ""), index.NewCache(t.TempDir())), db
}

func seedAvatar(t *testing.T, db *sql.DB) {
	t.Helper()
	exec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	exec(`INSERT INTO avatar (avatar_id, name_chs, name_en, full_name_chs, full_name_en,
	                          rarity, damage_type, avatar_base_type, max_promotion, max_rank,
	                          rank_id_list_json, skill_id_list_json)
	      VALUES (1001, '三月七', 'March 7th', '三月七·全名', 'March 7th Full',
	              'CombatPowerAvatarRarityType4', 'Ice', 'Knight', 6, 6,
	              '[100101]', '[100102]')`)
	exec(`INSERT INTO avatar (avatar_id, name_chs, name_en, rarity, damage_type, avatar_base_type)
	      VALUES (1002, '丹恒', 'Dan Heng', 'CombatPowerAvatarRarityType4', 'Wind', 'Rogue')`)

	// two promotion stages: levels 1-20 then 21-30
	exec(`INSERT INTO avatar_promotion (avatar_id, promotion, max_level, hp_base, hp_add, attack_base, attack_add, speed_base)
	      VALUES (1001, 0, 20, 100, 10, 50, 5, 101)`)
	exec(`INSERT INTO avatar_promotion (avatar_id, promotion, max_level, hp_base, hp_add, attack_base, attack_add, speed_base)
	      VALUES (1001, 1, 30, 150, 10, 75, 5, 101)`)

	for level := 1; level <= 3; level++ {
		exec(`INSERT INTO avatar_skill (skill_id, level, max_level, name_chs, name_en, desc_chs, desc_en, tag_chs, tag_en, param_json)
		      VALUES (100102, ?, 3, '冻人瞬间', 'Frigid Cold Arrow', '造成#1[i]%的伤害', 'Deals #1[i]% damage', '单攻', 'Single Target', ?)`,
			level, `[{"Value": 0.5}]`)
	}
}

func TestSearchMaterializedLike(t *testing.T) {
	repo, db := newTestRepo(t)
	seedAvatar(t, db)

	items, total, err := repo.Search(context.Background(), "March", "EN", utils.Page{Size: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("items = %+v, total = %d", items, total)
	}
	got := items[0]
	if got.AvatarID != 1001 || got.Name != "March 7th" || got.FullName != "March 7th Full" {
		t.Fatalf("item = %+v", got)
	}
	if got.DamageType == nil || *got.DamageType != "Ice" {
		t.Fatalf("damage type = %v", got.DamageType)
	}
}

func TestSearchEmptyQueryListsAll(t *testing.T) {
	repo, db := newTestRepo(t)
	seedAvatar(t, db)

	items, total, err := repo.Search(context.Background(), "", "CHS", utils.Page{Size: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || len(items) != 2 || items[0].AvatarID != 1001 {
		t.Fatalf("items = %+v, total = %d", items, total)
	}
}

func TestSearchJoinedMatchesID(t *testing.T) {
	repo, db := newTestRepo(t)
	seedAvatar(t, db)

	items, total, err := repo.Search(context.Background(), "1002", "JP", utils.Page{Size: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || items[0].AvatarID != 1002 {
		t.Fatalf("items = %+v, total = %d", items, total)
	}
}

func TestDetailMissingAvatar(t *testing.T) {
	repo, db := newTestRepo(t)
	seedAvatar(t, db)

	detail, err := repo.Detail(context.Background(), 9999, "EN", 10, 80)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail != nil {
		t.Fatalf("detail = %+v, want nil", detail)
	}
}

func TestDetailSkillGroupsAndCurve(t *testing.T) {
	repo, db := newTestRepo(t)
	seedAvatar(t, db)

	detail, err := repo.Detail(context.Background(), 1001, "EN", 2, 30)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail == nil {
		t.Fatal("detail missing")
	}
	if detail.Avatar.Name == nil || *detail.Avatar.Name != "March 7th" {
		t.Fatalf("name = %v", detail.Avatar.Name)
	}

	if len(detail.Promotions) != 2 || detail.Promotions[0].Promotion != 0 {
		t.Fatalf("promotions = %+v", detail.Promotions)
	}
	if len(detail.LevelStats) != 30 {
		t.Fatalf("level stats = %d rows, want 30", len(detail.LevelStats))
	}
	// level 21 crosses into the second stage
	lvl21 := detail.LevelStats[20]
	if lvl21.Promotion != 1 || lvl21.HP == nil || *lvl21.HP != 150+10*20 {
		t.Fatalf("level 21 = %+v", lvl21)
	}
	// checkpoints are level 1 and every tenth
	if len(detail.LevelCheckpoints) != 4 {
		t.Fatalf("checkpoints = %+v", detail.LevelCheckpoints)
	}
	if detail.LevelCheckpoints[0].Level != 1 || detail.LevelCheckpoints[3].Level != 30 {
		t.Fatalf("checkpoint levels = %+v", detail.LevelCheckpoints)
	}

	if len(detail.Skills) != 1 {
		t.Fatalf("skills = %+v", detail.Skills)
	}
	group := detail.Skills[0]
	if group.SkillID != 100102 || group.Name != "Frigid Cold Arrow" || group.Tag != "Single Target" {
		t.Fatalf("group = %+v", group)
	}
	if group.AvailableLevels != 3 || group.ShownLevels != 2 || len(group.Levels) != 2 {
		t.Fatalf("levels: available = %d, shown = %d", group.AvailableLevels, group.ShownLevels)
	}
	lv1 := group.Levels[0]
	if lv1.Description != "Deals 50% damage" {
		t.Fatalf("rendered desc = %q", lv1.Description)
	}
	if len(lv1.ParamValues) != 1 || lv1.ParamValues[0] != 0.5 {
		t.Fatalf("param values = %v", lv1.ParamValues)
	}
}

func TestDetailRankKeysResolve(t *testing.T) {
	repo, db := newTestRepo(t)
	seedAvatar(t, db)

	nameKey, descKey, abilityKey := "RankName_1001_1", "RankDesc_1001_1", "Avatar_1001_Rank_1"
	for _, key := range []string{nameKey, descKey} {
		hash, ok := textmap.HashKey(key)
		if !ok {
			t.Fatalf("hash key %q", key)
		}
		text := "一天磨一剑"
		if key == descKey {
			text = "额外造成#1[i]%伤害"
		}
		if _, err := db.Exec(`INSERT INTO text_map (lang, hash, text) VALUES ('CHS', ?, ?)`, hash, text); err != nil {
			t.Fatalf("seed text_map: %v", err)
		}
	}
	if _, err := db.Exec(`
		INSERT INTO avatar_rank (rank_id, rank, name_raw, desc_raw, skill_add_level_json, rank_ability_json, param_json)
		VALUES (100101, 1, ?, ?, '{"1001001": 1}', ?, '[{"Value": 0.4}]')`,
		nameKey, descKey, `["`+abilityKey+`"]`); err != nil {
		t.Fatalf("seed rank: %v", err)
	}

	detail, err := repo.Detail(context.Background(), 1001, "CHS", 10, 80)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if len(detail.Ranks) != 1 {
		t.Fatalf("ranks = %+v", detail.Ranks)
	}
	rk := detail.Ranks[0]
	if rk.Name == nil || *rk.Name != "一天磨一剑" {
		t.Fatalf("rank name = %v", rk.Name)
	}
	if rk.Description == nil || *rk.Description != "额外造成40%伤害" {
		t.Fatalf("rank desc = %v", rk.Description)
	}
	if rk.NameKey == nil || *rk.NameKey != nameKey {
		t.Fatalf("name key = %v", rk.NameKey)
	}
	if len(rk.SkillAddLevel) != 1 {
		t.Fatalf("skill add level = %+v", rk.SkillAddLevel)
	}
	// ability key has no translation; the key itself is kept with nil text
	if len(rk.RankAbilities) != 1 || rk.RankAbilities[0].Key != abilityKey || rk.RankAbilities[0].Text != nil {
		t.Fatalf("rank abilities = %+v", rk.RankAbilities)
	}
}
