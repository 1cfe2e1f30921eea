package index

import (
	"os"
	"path/filepath"
	"testing"
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

func TestAvatarStoriesSortedAndTitled(t *testing.T) {
	root := writeResources(t, map[string]string{
		"ExcelOutput/StoryAtlas.json": `[
			{"AvatarID": 1001, "StoryID": 2, "Story": {"Hash": 222}, "Unlock": 3},
			{"AvatarID": 1001, "StoryID": 1, "Story": {"Hash": 111}},
			{"AvatarID": 1002, "StoryID": 5, "Story": {"Hash": 555}}
		]`,
		"ExcelOutput/StoryAtlasTextmap.json": `[
			{"StoryID": 1, "StoryName": {"Hash": 91}},
			{"StoryID": 2, "StoryName": {"Hash": 92}}
		]`,
	})

	idx, err := NewCache(root).AvatarStories()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	stories := idx.ByAvatar[1001]
	if len(stories) != 2 || stories[0].StoryID != 1 || stories[1].StoryID != 2 {
		t.Fatalf("stories for 1001 = %+v, want sorted by story id", stories)
	}
	if stories[0].StoryHash == nil || *stories[0].StoryHash != "111" {
		t.Fatalf("story hash = %v", stories[0].StoryHash)
	}
	if h := idx.TitleHash[2]; h == nil || *h != "92" {
		t.Fatalf("title hash for story 2 = %v", h)
	}
}

func TestLightConesLevelsSorted(t *testing.T) {
	root := writeResources(t, map[string]string{
		"ExcelOutput/EquipmentConfig.json": `[
			{"EquipmentID": 21000, "SkillID": 2100, "AvatarBaseType": "Knight",
			 "MaxRank": 5, "MaxPromotion": 6, "ThumbnailPath": "thumb.png"}
		]`,
		"ExcelOutput/EquipmentSkillConfig.json": `[
			{"SkillID": 2100, "Level": 3, "SkillName": {"Hash": 1}, "SkillDesc": {"Hash": 2}},
			{"SkillID": 2100, "Level": 1, "SkillName": {"Hash": 1}, "SkillDesc": {"Hash": 2},
			 "ParamList": [{"Value": 0.24}]}
		]`,
	})

	idx, err := NewCache(root).LightCones()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	lc := idx[21000]
	if lc == nil {
		t.Fatal("equipment 21000 missing")
	}
	if len(lc.Levels) != 2 || lc.Levels[0].Level != 1 || lc.Levels[1].Level != 3 {
		t.Fatalf("levels = %+v, want sorted ascending", lc.Levels)
	}
	if lc.AvatarBaseType == nil || *lc.AvatarBaseType != "Knight" {
		t.Fatalf("base type = %v", lc.AvatarBaseType)
	}
}

func TestLightConesMissingFilesEmpty(t *testing.T) {
	idx, err := NewCache(t.TempDir()).LightCones()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(idx) != 0 {
		t.Fatalf("index = %v, want empty", idx)
	}
}

func TestMonstersMergeTemplate(t *testing.T) {
	root := writeResources(t, map[string]string{
		"ExcelOutput/MonsterConfig.json": `[
			{"MonsterID": 8002, "MonsterTemplateID": 800, "MonsterIntroduction": {"Hash": 42},
			 "SkillList": [9001], "StanceWeakList": ["Fire", "Ice"],
			 "HPModifyRatio": {"Value": 1.5},
			 "DamageTypeResistance": [{"DamageType": "Wind", "Value": {"Value": 0.2}}],
			 "OverrideSkillParams": [{"ZZZ": [{"Value": 0.5}], "AAA": 9001}]},
			{"MonsterID": 8001, "MonsterTemplateID": 800, "MonsterName": {"Hash": 43}}
		]`,
		"ExcelOutput/MonsterTemplateConfig.json": `[
			{"MonsterTemplateID": 800, "MonsterName": {"Hash": 40}, "Rank": "Elite",
			 "HPBase": {"Value": 120.0}, "StanceType": "Ice"}
		]`,
		"ExcelOutput/MonsterSkillConfig.json": `[
			{"SkillID": 9001, "SkillName": {"Hash": 50}, "DamageType": "Fire"}
		]`,
	})

	idx, err := NewCache(root).Monsters()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(idx.Items) != 2 || idx.Items[0].MonsterID != 8001 {
		t.Fatalf("items not sorted by id: %+v", idx.Items)
	}

	m := idx.ByID[8002]
	// template name only fills in when the config row has none
	if m.NameHash == nil || *m.NameHash != "40" {
		t.Fatalf("name hash = %v, want template 40", m.NameHash)
	}
	if own := idx.ByID[8001]; own.NameHash == nil || *own.NameHash != "43" {
		t.Fatalf("own name hash = %v, want 43", own.NameHash)
	}
	if m.Rank == nil || *m.Rank != "Elite" || m.HPBase == nil || *m.HPBase != 120.0 {
		t.Fatalf("template merge incomplete: rank=%v hp=%v", m.Rank, m.HPBase)
	}
	if m.HPModifyRatio == nil || *m.HPModifyRatio != 1.5 {
		t.Fatalf("hp ratio = %v", m.HPModifyRatio)
	}
	if len(m.DamageTypeResistance) != 1 || m.DamageTypeResistance[0].DamageType != "Wind" {
		t.Fatalf("resistances = %+v", m.DamageTypeResistance)
	}
	if _, ok := m.OverrideSkillParams[9001]; !ok {
		t.Fatalf("override params = %+v, want entry for 9001", m.OverrideSkillParams)
	}

	if len(idx.Ranks) != 1 || idx.Ranks[0] != "Elite" {
		t.Fatalf("ranks = %v", idx.Ranks)
	}
	if len(idx.Weaknesses) != 2 || idx.Weaknesses[0] != "Fire" || idx.Weaknesses[1] != "Ice" {
		t.Fatalf("weaknesses = %v", idx.Weaknesses)
	}
	if idx.Skills[9001] == nil || idx.Skills[9001].DamageType == nil || *idx.Skills[9001].DamageType != "Fire" {
		t.Fatalf("skill 9001 = %+v", idx.Skills[9001])
	}
}

func TestCacheResetReloads(t *testing.T) {
	root := writeResources(t, map[string]string{
		"ExcelOutput/StoryAtlas.json":        `[{"AvatarID": 1, "StoryID": 1, "Story": {"Hash": 7}}]`,
		"ExcelOutput/StoryAtlasTextmap.json": `[]`,
	})
	c := NewCache(root)
	first, err := c.AvatarStories()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(first.ByAvatar[1]) != 1 {
		t.Fatalf("stories = %+v", first.ByAvatar)
	}

	path := filepath.Join(root, "ExcelOutput", "StoryAtlas.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if again, _ := c.AvatarStories(); len(again.ByAvatar) != 1 {
		t.Fatal("cache dropped without Reset")
	}
	c.Reset()
	fresh, err := c.AvatarStories()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(fresh.ByAvatar) != 0 {
		t.Fatalf("after reset stories = %+v, want reloaded empty", fresh.ByAvatar)
	}
}
