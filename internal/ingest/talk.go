package ingest

import (
	"fmt"
	"log"
	"path/filepath"

	"hsrdb/internal/flex"
	"hsrdb/internal/jsonio"
)

// InsertTalk ingests the dialogue-line table and its multi-voice side table.
func (p *Pipeline) InsertTalk() error {
	excel := filepath.Join(p.root, "ExcelOutput")

	doc, err := jsonio.Load(filepath.Join(excel, "TalkSentenceConfig.json"))
	if err != nil {
		return err
	}

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("begin talk: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO talk_sentence(
			talk_sentence_id, voice_id, speaker_hash, speaker_chs, speaker_en, text_hash, text_chs, text_en
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(talk_sentence_id) DO UPDATE SET
			voice_id=excluded.voice_id,
			speaker_hash=excluded.speaker_hash,
			speaker_chs=excluded.speaker_chs,
			speaker_en=excluded.speaker_en,
			text_hash=excluded.text_hash,
			text_chs=excluded.text_chs,
			text_en=excluded.text_en`)
	if err != nil {
		return fmt.Errorf("prepare talk upsert: %w", err)
	}
	defer stmt.Close()

	type ftsRow struct {
		id            int64
		speaker, text string
	}
	var ftsRows []ftsRow
	talkCount := 0

	if arr, ok := doc.([]any); ok {
		for _, entry := range arr {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			tid, ok := flex.Int(item["TalkSentenceID"])
			if !ok {
				continue
			}
			speakerHash := hashPtr(item["TextmapTalkSentenceName"])
			textHash := hashPtr(item["TalkSentenceText"])
			speakerCHS := p.resolve("CHS", speakerHash)
			textCHS := p.resolve("CHS", textHash)

			_, err := stmt.Exec(
				tid, intPtr(item["VoiceID"]),
				speakerHash, speakerCHS, p.resolve("EN", speakerHash),
				textHash, textCHS, p.resolve("EN", textHash),
			)
			if err != nil {
				return fmt.Errorf("upsert talk %d: %w", tid, err)
			}
			talkCount++
			ftsRows = append(ftsRows, ftsRow{id: tid, speaker: deref(speakerCHS), text: deref(textCHS)})
		}
	}

	mvCount := 0
	mvDoc, err := jsonio.Load(filepath.Join(excel, "TalkSentenceMultiVoice.json"))
	if err == nil {
		mvStmt, err := tx.Prepare(`
			INSERT INTO talk_sentence_multi_voice(talk_sentence_id, seq, voice_id)
			VALUES(?, ?, ?)
			ON CONFLICT(talk_sentence_id, seq, voice_id) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("prepare multi voice upsert: %w", err)
		}
		defer mvStmt.Close()

		if arr, ok := mvDoc.([]any); ok {
			for _, entry := range arr {
				item, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				tid, ok := flex.Int(item["TalkSentenceID"])
				if !ok {
					continue
				}
				voices, ok := item["VoiceIDList"].([]any)
				if !ok {
					continue
				}
				for seq, raw := range voices {
					vid, ok := flex.Int(raw)
					if !ok {
						continue
					}
					if _, err := mvStmt.Exec(tid, seq, vid); err != nil {
						return fmt.Errorf("upsert multi voice %d: %w", tid, err)
					}
					mvCount++
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit talk: %w", err)
	}

	p.rebuildFTS("talk_sentence_fts", "(rowid, speaker, text) VALUES(?, ?, ?)", func(insert func(args ...any) error) error {
		for _, row := range ftsRows {
			if err := insert(row.id, row.speaker, row.text); err != nil {
				return err
			}
		}
		return nil
	})

	p.Stats["talk_sentence"] = talkCount
	p.Stats["talk_sentence_multi_voice"] = mvCount
	log.Printf("[ingest] talk_sentence: %d, multi_voice: %d", talkCount, mvCount)
	return nil
}

// rebuildFTS clears and refills one FTS table. The FTS tables are a derived
// accelerator; when FTS5 is unavailable the error is swallowed and search
// falls back to LIKE scans.
func (p *Pipeline) rebuildFTS(table, insertSuffix string, fill func(insert func(args ...any) error) error) {
	tx, err := p.db.Begin()
	if err != nil {
		return
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
		return
	}
	stmt, err := tx.Prepare(`INSERT INTO ` + table + insertSuffix)
	if err != nil {
		return
	}
	defer stmt.Close()
	insert := func(args ...any) error {
		_, err := stmt.Exec(args...)
		return err
	}
	if err := fill(insert); err != nil {
		log.Printf("[ingest] fts rebuild %s aborted: %v", table, err)
		return
	}
	_ = tx.Commit()
}
