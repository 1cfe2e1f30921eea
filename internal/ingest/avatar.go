package ingest

import (
	"database/sql"
	"fmt"
	"log"
	"path/filepath"

	"hsrdb/internal/flex"
	"hsrdb/internal/jsonio"
)

// InsertAvatars ingests characters plus their promotion, skill, and eidolon
// tables.
func (p *Pipeline) InsertAvatars() error {
	excel := filepath.Join(p.root, "ExcelOutput")

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("begin avatars: %w", err)
	}
	defer tx.Rollback()

	avatarStmt, err := tx.Prepare(`
		INSERT INTO avatar(
			avatar_id, name_hash, name_chs, name_en, full_name_hash, full_name_chs, full_name_en,
			rarity, damage_type, avatar_base_type, sp_need, max_promotion, max_rank,
			rank_id_list_json, skill_id_list_json, release_state
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(avatar_id) DO UPDATE SET
			name_hash=excluded.name_hash,
			name_chs=excluded.name_chs,
			name_en=excluded.name_en,
			full_name_hash=excluded.full_name_hash,
			full_name_chs=excluded.full_name_chs,
			full_name_en=excluded.full_name_en,
			rarity=excluded.rarity,
			damage_type=excluded.damage_type,
			avatar_base_type=excluded.avatar_base_type,
			sp_need=excluded.sp_need,
			max_promotion=excluded.max_promotion,
			max_rank=excluded.max_rank,
			rank_id_list_json=excluded.rank_id_list_json,
			skill_id_list_json=excluded.skill_id_list_json,
			release_state=excluded.release_state`)
	if err != nil {
		return fmt.Errorf("prepare avatar upsert: %w", err)
	}
	defer avatarStmt.Close()

	type ftsRow struct {
		id                                int64
		name, fullName, dmgType, baseType string
	}
	var ftsRows []ftsRow
	avatarCount := 0

	doc, err := jsonio.Load(filepath.Join(excel, "AvatarConfig.json"))
	if err != nil {
		return err
	}
	if arr, ok := doc.([]any); ok {
		for _, entry := range arr {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			aid, ok := flex.Int(item["AvatarID"])
			if !ok {
				continue
			}
			nameHash := hashPtr(item["AvatarName"])
			fullHash := hashPtr(item["AvatarFullName"])
			nameCHS := p.resolve("CHS", nameHash)
			fullCHS := p.resolve("CHS", fullHash)
			dmgType := strPtr(item["DamageType"])
			baseType := strPtr(item["AvatarBaseType"])

			release := 0
			if flex.Bool(item["Release"]) {
				release = 1
			}

			_, err := avatarStmt.Exec(
				aid,
				nameHash, nameCHS, p.resolve("EN", nameHash),
				fullHash, fullCHS, p.resolve("EN", fullHash),
				strPtr(item["Rarity"]), dmgType, baseType,
				floatPtr(item["SPNeed"]),
				intPtr(item["MaxPromotion"]), intPtr(item["MaxRank"]),
				marshalList(item["RankIDList"]), marshalList(item["SkillList"]),
				release,
			)
			if err != nil {
				return fmt.Errorf("upsert avatar %d: %w", aid, err)
			}
			avatarCount++
			ftsRows = append(ftsRows, ftsRow{
				id: aid, name: deref(nameCHS), fullName: deref(fullCHS),
				dmgType: deref(dmgType), baseType: deref(baseType),
			})
		}
	}

	promCount, err := p.insertPromotions(tx, excel)
	if err != nil {
		return err
	}
	skillCount, err := p.insertSkills(tx, excel)
	if err != nil {
		return err
	}
	rankCount, err := p.insertRanks(tx, excel)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit avatars: %w", err)
	}

	p.rebuildFTS("avatar_fts", "(rowid, name, full_name, damage_type, base_type) VALUES(?, ?, ?, ?, ?)", func(insert func(args ...any) error) error {
		for _, row := range ftsRows {
			if err := insert(row.id, row.name, row.fullName, row.dmgType, row.baseType); err != nil {
				return err
			}
		}
		return nil
	})

	p.Stats["avatar"] = avatarCount
	p.Stats["avatar_promotion"] = promCount
	p.Stats["avatar_skill"] = skillCount
	p.Stats["avatar_rank"] = rankCount
	log.Printf("[ingest] avatar: %d, promotion: %d, skill: %d, rank: %d",
		avatarCount, promCount, skillCount, rankCount)
	return nil
}

func (p *Pipeline) insertPromotions(tx *sql.Tx, excel string) (int, error) {
	stmt, err := tx.Prepare(`
		INSERT INTO avatar_promotion(
			avatar_id, promotion, max_level, player_level_require, world_level_require,
			hp_base, hp_add, attack_base, attack_add, defence_base, defence_add,
			speed_base, critical_chance, critical_damage, base_aggro, promotion_cost_json
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(avatar_id, promotion) DO UPDATE SET
			max_level=excluded.max_level,
			player_level_require=excluded.player_level_require,
			world_level_require=excluded.world_level_require,
			hp_base=excluded.hp_base,
			hp_add=excluded.hp_add,
			attack_base=excluded.attack_base,
			attack_add=excluded.attack_add,
			defence_base=excluded.defence_base,
			defence_add=excluded.defence_add,
			speed_base=excluded.speed_base,
			critical_chance=excluded.critical_chance,
			critical_damage=excluded.critical_damage,
			base_aggro=excluded.base_aggro,
			promotion_cost_json=excluded.promotion_cost_json`)
	if err != nil {
		return 0, fmt.Errorf("prepare promotion upsert: %w", err)
	}
	defer stmt.Close()

	doc, err := jsonio.Load(filepath.Join(excel, "AvatarPromotionConfig.json"))
	if err != nil {
		return 0, err
	}
	count := 0
	if arr, ok := doc.([]any); ok {
		for _, entry := range arr {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			aid, ok := flex.Int(item["AvatarID"])
			if !ok {
				continue
			}
			promotion := int64(0)
			if n, ok := flex.Int(item["Promotion"]); ok {
				promotion = n
			}
			_, err := stmt.Exec(
				aid, promotion,
				intPtr(item["MaxLevel"]),
				intPtr(item["PlayerLevelRequire"]), intPtr(item["WorldLevelRequire"]),
				floatPtr(item["HPBase"]), floatPtr(item["HPAdd"]),
				floatPtr(item["AttackBase"]), floatPtr(item["AttackAdd"]),
				floatPtr(item["DefenceBase"]), floatPtr(item["DefenceAdd"]),
				floatPtr(item["SpeedBase"]),
				floatPtr(item["CriticalChance"]), floatPtr(item["CriticalDamage"]),
				floatPtr(item["BaseAggro"]),
				marshalList(item["PromotionCostList"]),
			)
			if err != nil {
				return 0, fmt.Errorf("upsert promotion %d/%d: %w", aid, promotion, err)
			}
			count++
		}
	}
	return count, nil
}

func (p *Pipeline) insertSkills(tx *sql.Tx, excel string) (int, error) {
	stmt, err := tx.Prepare(`
		INSERT INTO avatar_skill(
			skill_id, level, max_level, name_hash, name_chs, name_en,
			desc_hash, desc_chs, desc_en, tag_hash, tag_chs, tag_en,
			skill_trigger_key, skill_effect, attack_type, stance_damage_type,
			sp_base, bp_need, bp_add, param_json
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(skill_id, level) DO UPDATE SET
			max_level=excluded.max_level,
			name_hash=excluded.name_hash,
			name_chs=excluded.name_chs,
			name_en=excluded.name_en,
			desc_hash=excluded.desc_hash,
			desc_chs=excluded.desc_chs,
			desc_en=excluded.desc_en,
			tag_hash=excluded.tag_hash,
			tag_chs=excluded.tag_chs,
			tag_en=excluded.tag_en,
			skill_trigger_key=excluded.skill_trigger_key,
			skill_effect=excluded.skill_effect,
			attack_type=excluded.attack_type,
			stance_damage_type=excluded.stance_damage_type,
			sp_base=excluded.sp_base,
			bp_need=excluded.bp_need,
			bp_add=excluded.bp_add,
			param_json=excluded.param_json`)
	if err != nil {
		return 0, fmt.Errorf("prepare skill upsert: %w", err)
	}
	defer stmt.Close()

	doc, err := jsonio.Load(filepath.Join(excel, "AvatarSkillConfig.json"))
	if err != nil {
		return 0, err
	}
	count := 0
	if arr, ok := doc.([]any); ok {
		for _, entry := range arr {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			sid, ok := flex.Int(item["SkillID"])
			if !ok {
				continue
			}
			lvl, ok := flex.Int(item["Level"])
			if !ok {
				continue
			}
			nameHash := hashPtr(item["SkillName"])
			descHash := hashPtr(item["SkillDesc"])
			tagHash := hashPtr(item["SkillTag"])

			_, err := stmt.Exec(
				sid, lvl, intPtr(item["MaxLevel"]),
				nameHash, p.resolve("CHS", nameHash), p.resolve("EN", nameHash),
				descHash, p.resolve("CHS", descHash), p.resolve("EN", descHash),
				tagHash, p.resolve("CHS", tagHash), p.resolve("EN", tagHash),
				strPtr(item["SkillTriggerKey"]), strPtr(item["SkillEffect"]),
				strPtr(item["AttackType"]), strPtr(item["StanceDamageType"]),
				floatPtr(item["SPBase"]), floatPtr(item["BPNeed"]), floatPtr(item["BPAdd"]),
				marshalList(item["ParamList"]),
			)
			if err != nil {
				return 0, fmt.Errorf("upsert skill %d/%d: %w", sid, lvl, err)
			}
			count++
		}
	}
	return count, nil
}

func (p *Pipeline) insertRanks(tx *sql.Tx, excel string) (int, error) {
	stmt, err := tx.Prepare(`
		INSERT INTO avatar_rank(
			rank_id, rank, trigger_hash, name_raw, desc_raw, icon_path,
			skill_add_level_json, rank_ability_json, param_json
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rank_id) DO UPDATE SET
			rank=excluded.rank,
			trigger_hash=excluded.trigger_hash,
			name_raw=excluded.name_raw,
			desc_raw=excluded.desc_raw,
			icon_path=excluded.icon_path,
			skill_add_level_json=excluded.skill_add_level_json,
			rank_ability_json=excluded.rank_ability_json,
			param_json=excluded.param_json`)
	if err != nil {
		return 0, fmt.Errorf("prepare rank upsert: %w", err)
	}
	defer stmt.Close()

	doc, err := jsonio.Load(filepath.Join(excel, "AvatarRankConfig.json"))
	if err != nil {
		return 0, err
	}
	count := 0
	if arr, ok := doc.([]any); ok {
		for _, entry := range arr {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			rid, ok := flex.Int(item["RankID"])
			if !ok {
				continue
			}
			_, err := stmt.Exec(
				rid, intPtr(item["Rank"]), hashPtr(item["Trigger"]),
				strPtr(item["Name"]), strPtr(item["Desc"]), strPtr(item["IconPath"]),
				marshalMap(item["SkillAddLevelList"]),
				marshalList(item["RankAbility"]), marshalList(item["Param"]),
			)
			if err != nil {
				return 0, fmt.Errorf("upsert rank %d: %w", rid, err)
			}
			count++
		}
	}
	return count, nil
}
