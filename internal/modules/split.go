package modules

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hsrdb/internal/index"
	"hsrdb/pkg/database"
)

// Options configures one shard build.
type Options struct {
	SourceDB      string
	OutputDir     string
	OutputPrefix  string
	ResourcesRoot string
	Langs         []string
	WithTextMap   bool
	Vacuum        bool
}

// OutputPath names the shard file for a module.
func (o Options) OutputPath(module string) string {
	return filepath.Join(o.OutputDir, o.OutputPrefix+"_"+module+".db")
}

// Build writes one module shard from the source database. The output file
// is replaced when it already exists.
func Build(module string, opts Options, idx *index.Cache) (textRows int, err error) {
	outPath := opts.OutputPath(module)
	if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("remove old shard: %w", err)
	}

	db, err := database.OpenForBuild(database.Config{Path: outPath})
	if err != nil {
		return 0, err
	}
	defer db.Close()
	// ATTACH and the needed_hash temp table are per-connection state
	db.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		return 0, err
	}
	ftsOK := database.EnsureFTS(db)

	src, err := filepath.Abs(opts.SourceDB)
	if err != nil {
		return 0, fmt.Errorf("resolve source db: %w", err)
	}
	if _, err := db.Exec(`ATTACH DATABASE ? AS src`, src); err != nil {
		return 0, fmt.Errorf("attach source: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = OFF`); err != nil {
		return 0, fmt.Errorf("pragma foreign_keys: %w", err)
	}

	if err := copyModuleTables(db, module); err != nil {
		return 0, err
	}

	if opts.WithTextMap {
		textRows, err = copyTextMap(db, module, opts.Langs, idx)
		if err != nil {
			return 0, err
		}
	}

	if ftsOK {
		if err := rebuildFTS(db, module); err != nil {
			log.Printf("[modules] %s: fts rebuild skipped: %v", module, err)
		}
	}
	if err := updateMeta(db, module, opts.Langs, src); err != nil {
		return 0, err
	}

	if _, err := db.Exec(`DETACH DATABASE src`); err != nil {
		return 0, fmt.Errorf("detach source: %w", err)
	}
	if opts.Vacuum {
		if _, err := db.Exec(`VACUUM`); err != nil {
			return 0, fmt.Errorf("vacuum: %w", err)
		}
	}
	return textRows, nil
}

func copyAll(db *sql.DB, table string) error {
	if _, err := db.Exec(fmt.Sprintf(`INSERT INTO %s SELECT * FROM src.%s`, table, table)); err != nil {
		return fmt.Errorf("copy %s: %w", table, err)
	}
	return nil
}

func copyModuleTables(db *sql.DB, module string) error {
	if err := copyAll(db, "meta"); err != nil {
		return err
	}

	switch module {
	case "avatar":
		for _, t := range []string{"avatar", "avatar_promotion", "avatar_skill", "avatar_rank"} {
			if err := copyAll(db, t); err != nil {
				return err
			}
		}
	case "dialogue":
		// Keep the dialogue shard focused on sentence text only.
		for _, t := range []string{"talk_sentence", "talk_sentence_multi_voice"} {
			if err := copyAll(db, t); err != nil {
				return err
			}
		}
	case "mission":
		for _, t := range []string{"main_mission", "sub_mission", "mission_pack_link"} {
			if err := copyAll(db, t); err != nil {
				return err
			}
		}
		if _, err := db.Exec(`
			INSERT INTO story_reference(
				source_path, source_group, json_path, task_type, talk_sentence_id,
				timeline_name, performance_type, performance_id, trigger_custom_string, custom_string
			)
			SELECT source_path, source_group, json_path, task_type, talk_sentence_id,
			       timeline_name, performance_type, performance_id, trigger_custom_string, custom_string
			FROM src.story_reference
			WHERE source_path LIKE 'Story/Mission/%' OR source_path LIKE 'Config/Level/Mission/%'`); err != nil {
			return fmt.Errorf("copy story_reference: %w", err)
		}
	case "item":
		if err := copyAll(db, "item"); err != nil {
			return err
		}
	case "monster":
		// The monster API reads the export indexes directly; its shard only
		// carries text_map and meta.
	}
	return nil
}

func copyTextMap(db *sql.DB, module string, langs []string, idx *index.Cache) (int, error) {
	if _, err := db.Exec(`CREATE TEMP TABLE IF NOT EXISTS needed_hash(hash TEXT PRIMARY KEY)`); err != nil {
		return 0, fmt.Errorf("needed_hash table: %w", err)
	}
	for _, sel := range hashSQL[module] {
		if _, err := db.Exec(`INSERT OR IGNORE INTO needed_hash(hash) ` + sel); err != nil {
			return 0, fmt.Errorf("collect hashes: %w", err)
		}
	}

	extra, err := gatherHashes(db, idx, module)
	if err != nil {
		return 0, err
	}
	if len(extra) > 0 {
		tx, err := db.Begin()
		if err != nil {
			return 0, fmt.Errorf("begin: %w", err)
		}
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO needed_hash(hash) VALUES(?)`)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("prepare: %w", err)
		}
		for _, h := range sortedHashes(extra) {
			if _, err := stmt.Exec(h); err != nil {
				stmt.Close()
				tx.Rollback()
				return 0, fmt.Errorf("insert hash: %w", err)
			}
		}
		stmt.Close()
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit hashes: %w", err)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(langs)), ",")
	args := make([]any, 0, len(langs))
	for _, l := range langs {
		args = append(args, l)
	}
	if _, err := db.Exec(fmt.Sprintf(`
		INSERT INTO text_map(lang, hash, text)
		SELECT tm.lang, tm.hash, tm.text
		FROM src.text_map tm
		JOIN needed_hash nh ON nh.hash = tm.hash
		WHERE tm.lang IN (%s)`, placeholders), args...); err != nil {
		return 0, fmt.Errorf("copy text_map: %w", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM text_map`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count text_map: %w", err)
	}
	return n, nil
}

func rebuildFTS(db *sql.DB, module string) error {
	var del, ins string
	switch module {
	case "avatar":
		del = `DELETE FROM avatar_fts`
		ins = `
			INSERT INTO avatar_fts(rowid, name, full_name, damage_type, base_type)
			SELECT avatar_id, COALESCE(name_chs, ''), COALESCE(full_name_chs, ''),
			       COALESCE(damage_type, ''), COALESCE(avatar_base_type, '')
			FROM avatar`
	case "dialogue":
		del = `DELETE FROM talk_sentence_fts`
		ins = `
			INSERT INTO talk_sentence_fts(rowid, speaker, text)
			SELECT talk_sentence_id, COALESCE(speaker_chs, ''), COALESCE(text_chs, '')
			FROM talk_sentence`
	case "mission":
		del = `DELETE FROM mission_fts`
		ins = `
			INSERT INTO mission_fts(rowid, name, mission_type)
			SELECT main_mission_id, COALESCE(name_chs, ''), COALESCE(mission_type, '')
			FROM main_mission`
	case "item":
		del = `DELETE FROM item_fts`
		ins = `
			INSERT INTO item_fts(rowid, name, description)
			SELECT item_id, COALESCE(item_name_chs, ''), COALESCE(item_desc_chs, '')
			FROM item`
	default:
		return nil
	}
	if _, err := db.Exec(del); err != nil {
		return err
	}
	_, err := db.Exec(ins)
	return err
}

func updateMeta(db *sql.DB, module string, langs []string, sourceDB string) error {
	tableCounts := map[string]int{}
	for _, t := range []string{
		"text_map", "talk_sentence", "story_reference", "main_mission",
		"sub_mission", "avatar", "avatar_skill", "avatar_rank", "item",
	} {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + t).Scan(&n); err != nil {
			n = 0
		}
		tableCounts[t] = n
	}

	countsJSON, err := json.Marshal(tableCounts)
	if err != nil {
		return fmt.Errorf("marshal table_counts: %w", err)
	}
	profile := map[string]any{
		"module":    module,
		"langs":     langs,
		"source_db": sourceDB,
		"built_at":  time.Now().Format("2006-01-02 15:04:05"),
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal module_profile: %w", err)
	}

	for _, kv := range [][2]string{
		{"table_counts", string(countsJSON)},
		{"module_profile", string(profileJSON)},
	} {
		if _, err := db.Exec(`
			INSERT INTO meta(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value=excluded.value`, kv[0], kv[1]); err != nil {
			return fmt.Errorf("upsert meta %s: %w", kv[0], err)
		}
	}
	return nil
}
