// Package modules splits the full database into per-module shards: each
// shard carries its domain tables plus exactly the text_map rows its content
// addresses reach.
package modules

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"hsrdb/internal/index"
	"hsrdb/internal/textmap"
)

// Names lists the shards in build order.
var Names = []string{"avatar", "dialogue", "mission", "item", "monster"}

// IsModule reports whether name is a splittable module.
func IsModule(name string) bool {
	for _, m := range Names {
		if m == name {
			return true
		}
	}
	return false
}

// hashSQL per module: SELECTs over the already-copied domain tables whose
// results feed the needed_hash closure directly in SQL.
var hashSQL = map[string][]string{
	"avatar": {
		`SELECT name_hash FROM avatar WHERE name_hash IS NOT NULL AND name_hash != ''`,
		`SELECT full_name_hash FROM avatar WHERE full_name_hash IS NOT NULL AND full_name_hash != ''`,
		`SELECT name_hash FROM avatar_skill WHERE name_hash IS NOT NULL AND name_hash != ''`,
		`SELECT desc_hash FROM avatar_skill WHERE desc_hash IS NOT NULL AND desc_hash != ''`,
		`SELECT tag_hash FROM avatar_skill WHERE tag_hash IS NOT NULL AND tag_hash != ''`,
	},
	"dialogue": {
		`SELECT speaker_hash FROM talk_sentence WHERE speaker_hash IS NOT NULL AND speaker_hash != ''`,
		`SELECT text_hash FROM talk_sentence WHERE text_hash IS NOT NULL AND text_hash != ''`,
	},
	"mission": {
		`SELECT name_hash FROM main_mission WHERE name_hash IS NOT NULL AND name_hash != ''`,
		`SELECT target_hash FROM sub_mission WHERE target_hash IS NOT NULL AND target_hash != ''`,
		`SELECT description_hash FROM sub_mission WHERE description_hash IS NOT NULL AND description_hash != ''`,
	},
	"item": {
		`SELECT item_name_hash FROM item WHERE item_name_hash IS NOT NULL AND item_name_hash != ''`,
		`SELECT item_desc_hash FROM item WHERE item_desc_hash IS NOT NULL AND item_desc_hash != ''`,
		`SELECT item_bg_desc_hash FROM item WHERE item_bg_desc_hash IS NOT NULL AND item_bg_desc_hash != ''`,
	},
}

// gatherHashes computes the text addresses a module reaches beyond its
// table columns: raw keys hashed through the resolver, plus export-index
// addresses that never hit the relational build. Index problems degrade to
// the SQL-derived closure alone.
func gatherHashes(db *sql.DB, idx *index.Cache, module string) (map[string]bool, error) {
	out := make(map[string]bool)
	add := func(raw string) {
		if h, ok := textmap.HashKey(raw); ok {
			out[h] = true
		}
	}

	switch module {
	case "avatar":
		rows, err := db.Query(`SELECT name_raw, desc_raw, rank_ability_json FROM avatar_rank`)
		if err != nil {
			return nil, fmt.Errorf("rank keys: %w", err)
		}
		for rows.Next() {
			var nameRaw, descRaw, abilityJSON *string
			if err := rows.Scan(&nameRaw, &descRaw, &abilityJSON); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan rank keys: %w", err)
			}
			if nameRaw != nil {
				add(*nameRaw)
			}
			if descRaw != nil {
				add(*descRaw)
			}
			if abilityJSON != nil {
				var keys []any
				if json.Unmarshal([]byte(*abilityJSON), &keys) == nil {
					for _, k := range keys {
						if s, ok := k.(string); ok {
							add(s)
						}
					}
				}
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rank key rows: %w", err)
		}

		if stories, err := idx.AvatarStories(); err == nil {
			for _, list := range stories.ByAvatar {
				for _, entry := range list {
					if entry.StoryHash != nil {
						add(*entry.StoryHash)
					}
				}
			}
			for _, h := range stories.TitleHash {
				if h != nil {
					add(*h)
				}
			}
		}

	case "item":
		if cones, err := idx.LightCones(); err == nil {
			for _, entry := range cones {
				for _, lv := range entry.Levels {
					if lv.SkillNameHash != nil {
						add(*lv.SkillNameHash)
					}
					if lv.SkillDescHash != nil {
						add(*lv.SkillDescHash)
					}
				}
			}
		}

	case "monster":
		monsters, err := idx.Monsters()
		if err != nil {
			return out, nil
		}
		for _, m := range monsters.Items {
			if m.NameHash != nil {
				add(*m.NameHash)
			}
			if m.IntroductionHash != nil {
				add(*m.IntroductionHash)
			}
			for _, key := range m.AbilityNameKeys {
				add(key)
			}
		}
		for _, skill := range monsters.Skills {
			for _, h := range []*string{skill.NameHash, skill.DescHash, skill.TypeDescHash, skill.TagHash} {
				if h != nil {
					add(*h)
				}
			}
		}
	}
	return out, nil
}

func sortedHashes(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
