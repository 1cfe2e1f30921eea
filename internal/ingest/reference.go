package ingest

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"hsrdb/internal/extract"
	"hsrdb/internal/jsonio"
)

// flushThreshold bounds the in-memory reference batch. It has no
// transactional meaning; readers only run after the build completes.
const flushThreshold = 10000

// InsertStoryReferences walks the narrative trees and extracts their
// cross-reference rows. Documents that fail to parse are counted and
// skipped; a broken script never aborts the build.
func (p *Pipeline) InsertStoryReferences(includeLevelConfig bool) error {
	files, err := p.referenceFiles(includeLevelConfig)
	if err != nil {
		return err
	}
	log.Printf("[ingest] reference files: %d", len(files))

	// reference rows carry no stable id to upsert on, so a rebuild starts
	// from an empty table instead of stacking duplicates
	if _, err := p.db.Exec(`DELETE FROM story_reference`); err != nil {
		return fmt.Errorf("clear story_reference: %w", err)
	}

	const insertSQL = `
		INSERT INTO story_reference(
			source_path, source_group, json_path, task_type, talk_sentence_id,
			timeline_name, performance_type, performance_id, trigger_custom_string, custom_string
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var batch [][]any
	total := 0
	parseErrors := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		tx, err := p.db.Begin()
		if err != nil {
			return fmt.Errorf("begin reference flush: %w", err)
		}
		defer tx.Rollback()
		stmt, err := tx.Prepare(insertSQL)
		if err != nil {
			return fmt.Errorf("prepare reference insert: %w", err)
		}
		defer stmt.Close()
		for _, args := range batch {
			if _, err := stmt.Exec(args...); err != nil {
				return fmt.Errorf("insert reference: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit references: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for i, path := range files {
		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		doc, err := jsonio.Load(path)
		if err != nil {
			parseErrors++
			continue
		}

		for _, ref := range extract.Extract(rel, doc) {
			batch = append(batch, []any{
				ref.SourcePath, ref.SourceGroup, ref.JSONPath, ref.TaskType,
				ref.TalkSentenceID, ref.TimelineName, ref.PerformanceType,
				ref.PerformanceID, ref.TriggerCustomString, ref.CustomString,
			})
			total++
		}

		if len(batch) >= flushThreshold {
			if err := flush(); err != nil {
				return err
			}
		}
		if (i+1)%1000 == 0 {
			log.Printf("[ingest] processed %d/%d files, refs: %d", i+1, len(files), total)
		}
	}
	if err := flush(); err != nil {
		return err
	}

	p.Stats["reference_files"] = len(files)
	p.Stats["story_reference"] = total
	p.Stats["reference_parse_errors"] = parseErrors
	log.Printf("[ingest] story_reference: %d rows, parse errors: %d", total, parseErrors)
	return nil
}

// referenceFiles enumerates the narrative documents: everything under
// Story/, plus Config/Level/ unless disabled. Files with the .layout.json
// suffix are editor layout data, not scripts.
func (p *Pipeline) referenceFiles(includeLevelConfig bool) ([]string, error) {
	roots := []string{filepath.Join(p.root, "Story")}
	if includeLevelConfig {
		roots = append(roots, filepath.Join(p.root, "Config", "Level"))
	}

	var files []string
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			// a missing tree is fine, some exports ship without Config/Level
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			name := d.Name()
			if strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".layout.json") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return files, nil
}
