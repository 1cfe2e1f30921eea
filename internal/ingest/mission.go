package ingest

import (
	"fmt"
	"log"
	"path/filepath"

	"hsrdb/internal/flex"
	"hsrdb/internal/jsonio"
)

// InsertMissions ingests main missions, sub-missions, and the mission-pack
// link table.
func (p *Pipeline) InsertMissions() error {
	excel := filepath.Join(p.root, "ExcelOutput")

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("begin missions: %w", err)
	}
	defer tx.Rollback()

	mainStmt, err := tx.Prepare(`
		INSERT INTO main_mission(
			main_mission_id, mission_type, world_id, chapter_id, mission_pack, display_priority,
			name_hash, name_chs, name_en, next_track_main_mission, reward_id, display_reward_id
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(main_mission_id) DO UPDATE SET
			mission_type=excluded.mission_type,
			world_id=excluded.world_id,
			chapter_id=excluded.chapter_id,
			mission_pack=excluded.mission_pack,
			display_priority=excluded.display_priority,
			name_hash=excluded.name_hash,
			name_chs=excluded.name_chs,
			name_en=excluded.name_en,
			next_track_main_mission=excluded.next_track_main_mission,
			reward_id=excluded.reward_id,
			display_reward_id=excluded.display_reward_id`)
	if err != nil {
		return fmt.Errorf("prepare main mission upsert: %w", err)
	}
	defer mainStmt.Close()

	type ftsRow struct {
		id          int64
		name, mtype string
	}
	var ftsRows []ftsRow
	mainCount := 0

	doc, err := jsonio.Load(filepath.Join(excel, "MainMission.json"))
	if err != nil {
		return err
	}
	if arr, ok := doc.([]any); ok {
		for _, entry := range arr {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			mid, ok := flex.Int(item["MainMissionID"])
			if !ok {
				continue
			}
			nameHash := hashPtr(item["Name"])
			nameCHS := p.resolve("CHS", nameHash)
			mtype := strPtr(item["Type"])

			_, err := mainStmt.Exec(
				mid, mtype,
				intPtr(item["WorldID"]), intPtr(item["ChapterID"]),
				intPtr(item["MissionPack"]), intPtr(item["DisplayPriority"]),
				nameHash, nameCHS, p.resolve("EN", nameHash),
				intPtr(item["NextTrackMainMission"]),
				intPtr(item["RewardID"]), intPtr(item["DisplayRewardID"]),
			)
			if err != nil {
				return fmt.Errorf("upsert main mission %d: %w", mid, err)
			}
			mainCount++
			ftsRows = append(ftsRows, ftsRow{id: mid, name: deref(nameCHS), mtype: deref(mtype)})
		}
	}

	subStmt, err := tx.Prepare(`
		INSERT INTO sub_mission(
			sub_mission_id, main_mission_guess, target_hash, target_chs, target_en,
			description_hash, description_chs, description_en
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sub_mission_id) DO UPDATE SET
			main_mission_guess=excluded.main_mission_guess,
			target_hash=excluded.target_hash,
			target_chs=excluded.target_chs,
			target_en=excluded.target_en,
			description_hash=excluded.description_hash,
			description_chs=excluded.description_chs,
			description_en=excluded.description_en`)
	if err != nil {
		return fmt.Errorf("prepare sub mission upsert: %w", err)
	}
	defer subStmt.Close()

	subCount := 0
	subDoc, err := jsonio.Load(filepath.Join(excel, "SubMission.json"))
	if err != nil {
		return err
	}
	if arr, ok := subDoc.([]any); ok {
		for _, entry := range arr {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			sid, ok := flex.Int(item["SubMissionID"])
			if !ok {
				continue
			}
			targetHash := hashPtr(item["TargetText"])
			// the export misspells this field
			descHash := hashPtr(item["DescrptionText"])

			// no explicit foreign key in the export; sid/100 is a guess
			_, err := subStmt.Exec(
				sid, sid/100,
				targetHash, p.resolve("CHS", targetHash), p.resolve("EN", targetHash),
				descHash, p.resolve("CHS", descHash), p.resolve("EN", descHash),
			)
			if err != nil {
				return fmt.Errorf("upsert sub mission %d: %w", sid, err)
			}
			subCount++
		}
	}

	packStmt, err := tx.Prepare(`
		INSERT INTO mission_pack_link(mission_pack, main_mission_id) VALUES(?, ?)
		ON CONFLICT(mission_pack, main_mission_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare pack link upsert: %w", err)
	}
	defer packStmt.Close()

	packCount := 0
	packDoc, err := jsonio.Load(filepath.Join(excel, "MainMissionPack.json"))
	if err == nil {
		if arr, ok := packDoc.([]any); ok {
			for _, entry := range arr {
				item, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				pack, ok := flex.Int(item["MissionPack"])
				if !ok {
					continue
				}
				lst, ok := item["MainMissionIdList"].([]any)
				if !ok {
					continue
				}
				for _, raw := range lst {
					mid, ok := flex.Int(raw)
					if !ok {
						continue
					}
					if _, err := packStmt.Exec(pack, mid); err != nil {
						return fmt.Errorf("upsert pack link %d: %w", pack, err)
					}
					packCount++
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit missions: %w", err)
	}

	p.rebuildFTS("mission_fts", "(rowid, name, mission_type) VALUES(?, ?, ?)", func(insert func(args ...any) error) error {
		for _, row := range ftsRows {
			if err := insert(row.id, row.name, row.mtype); err != nil {
				return err
			}
		}
		return nil
	})

	p.Stats["main_mission"] = mainCount
	p.Stats["sub_mission"] = subCount
	p.Stats["mission_pack_link"] = packCount
	log.Printf("[ingest] main_mission: %d, sub_mission: %d, pack links: %d", mainCount, subCount, packCount)
	return nil
}
