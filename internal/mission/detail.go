package mission

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

type MissionHead struct {
	MainMissionID   int64   `json:"main_mission_id"`
	MissionType     *string `json:"mission_type"`
	WorldID         *int64  `json:"world_id"`
	ChapterID       *int64  `json:"chapter_id"`
	MissionPack     *int64  `json:"mission_pack"`
	DisplayPriority *int64  `json:"display_priority"`
	Name            string  `json:"name"`
}

type RefRow struct {
	SourcePath      string  `json:"source_path"`
	SourceGroup     string  `json:"source_group"`
	JSONPath        string  `json:"json_path"`
	TaskType        *string `json:"task_type"`
	TimelineName    *string `json:"timeline_name"`
	PerformanceType *string `json:"performance_type"`
	PerformanceID   *int64  `json:"performance_id"`
	TalkSentenceID  *int64  `json:"talk_sentence_id"`
	VoiceID         *int64  `json:"voice_id"`
	Speaker         string  `json:"speaker"`
	Text            string  `json:"text"`
}

type DialogueRow struct {
	TalkSentenceID int64  `json:"talk_sentence_id"`
	VoiceID        *int64 `json:"voice_id"`
	Speaker        string `json:"speaker"`
	Text           string `json:"text"`
	SourcePath     string `json:"source_path"`
	JSONPath       string `json:"json_path"`
}

type Detail struct {
	MainMission  MissionHead         `json:"main_mission"`
	SubMissions  []SubMissionPreview `json:"sub_missions"`
	MissionPacks []int64             `json:"mission_packs"`
	StoryRefs    []RefRow            `json:"story_refs"`
	Dialogues    []DialogueRow       `json:"dialogues"`
}

type talkLine struct {
	voiceID *int64
	speaker string
	text    string
}

// Detail assembles one mission: header, sub-missions, pack links, the
// narrative references under its Story/Config trees, and a deduplicated
// dialogue transcript in reading order. Returns nil when the mission does
// not exist.
func (r *Repo) Detail(ctx context.Context, mainMissionID int64, lang string, refLimit, dialogueLimit int) (*Detail, error) {
	materialized := lang == "CHS" || lang == "EN"
	if !materialized {
		if err := r.Text.EnsureLoaded(lang); err != nil {
			return nil, err
		}
	}

	head, err := r.missionHead(ctx, mainMissionID, lang, materialized)
	if err != nil || head == nil {
		return nil, err
	}

	subs, err := r.subMissions(ctx, mainMissionID, lang, materialized)
	if err != nil {
		return nil, err
	}

	packs := []int64{}
	packRows, err := r.DB.QueryContext(ctx,
		`SELECT mission_pack FROM mission_pack_link WHERE main_mission_id = ? ORDER BY mission_pack`,
		mainMissionID)
	if err != nil {
		return nil, fmt.Errorf("mission packs: %w", err)
	}
	for packRows.Next() {
		var pack int64
		if err := packRows.Scan(&pack); err != nil {
			packRows.Close()
			return nil, fmt.Errorf("scan pack: %w", err)
		}
		packs = append(packs, pack)
	}
	packRows.Close()
	if err := packRows.Err(); err != nil {
		return nil, fmt.Errorf("pack rows: %w", err)
	}

	refs, err := r.storyRefs(ctx, mainMissionID, refLimit)
	if err != nil {
		return nil, err
	}

	talkIDs := make([]int64, 0, len(refs))
	seen := make(map[int64]bool)
	for _, ref := range refs {
		if ref.TalkSentenceID != nil && !seen[*ref.TalkSentenceID] {
			seen[*ref.TalkSentenceID] = true
			talkIDs = append(talkIDs, *ref.TalkSentenceID)
		}
	}
	sort.Slice(talkIDs, func(i, j int) bool { return talkIDs[i] < talkIDs[j] })

	talkMap, err := r.talkLines(ctx, talkIDs, lang, materialized)
	if err != nil {
		return nil, err
	}

	// The refs arrive ordered by talk id; the first document mentioning a
	// line is where the transcript attributes it.
	firstSource := make(map[int64][2]string)
	for i := range refs {
		tid := refs[i].TalkSentenceID
		if tid == nil {
			continue
		}
		talk, ok := talkMap[*tid]
		if !ok {
			continue
		}
		refs[i].VoiceID = talk.voiceID
		refs[i].Speaker = talk.speaker
		refs[i].Text = talk.text
		if _, ok := firstSource[*tid]; !ok {
			firstSource[*tid] = [2]string{refs[i].SourcePath, refs[i].JSONPath}
		}
	}

	dialogues := []DialogueRow{}
	for _, tid := range talkIDs {
		src, ok := firstSource[tid]
		if !ok {
			continue
		}
		talk := talkMap[tid]
		text := strings.TrimSpace(talk.text)
		if text == "" {
			continue
		}
		dialogues = append(dialogues, DialogueRow{
			TalkSentenceID: tid,
			VoiceID:        talk.voiceID,
			Speaker:        talk.speaker,
			Text:           text,
			SourcePath:     src[0],
			JSONPath:       src[1],
		})
		if len(dialogues) >= dialogueLimit {
			break
		}
	}

	return &Detail{
		MainMission:  *head,
		SubMissions:  subs,
		MissionPacks: packs,
		StoryRefs:    refs,
		Dialogues:    dialogues,
	}, nil
}

func (r *Repo) missionHead(ctx context.Context, id int64, lang string, materialized bool) (*MissionHead, error) {
	var (
		head MissionHead
		err  error
	)
	if materialized {
		nameCol, _, _ := langCols(lang)
		err = r.DB.QueryRowContext(ctx, fmt.Sprintf(`
			SELECT main_mission_id, mission_type, world_id, chapter_id, mission_pack, display_priority, COALESCE(%s, '')
			FROM main_mission WHERE main_mission_id = ?`, nameCol), id).
			Scan(&head.MainMissionID, &head.MissionType, &head.WorldID, &head.ChapterID,
				&head.MissionPack, &head.DisplayPriority, &head.Name)
	} else {
		err = r.DB.QueryRowContext(ctx, `
			SELECT m.main_mission_id, m.mission_type, m.world_id, m.chapter_id, m.mission_pack, m.display_priority,
			       COALESCE(tm.text, '')
			FROM main_mission m
			LEFT JOIN text_map tm ON tm.lang = ? AND tm.hash = m.name_hash
			WHERE m.main_mission_id = ?`, lang, id).
			Scan(&head.MainMissionID, &head.MissionType, &head.WorldID, &head.ChapterID,
				&head.MissionPack, &head.DisplayPriority, &head.Name)
	}
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mission head: %w", err)
	}
	return &head, nil
}

func (r *Repo) subMissions(ctx context.Context, id int64, lang string, materialized bool) ([]SubMissionPreview, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if materialized {
		_, targetCol, descCol := langCols(lang)
		rows, err = r.DB.QueryContext(ctx, fmt.Sprintf(`
			SELECT sub_mission_id, COALESCE(%s, ''), COALESCE(%s, '')
			FROM sub_mission
			WHERE main_mission_guess = ?
			ORDER BY sub_mission_id`, targetCol, descCol), id)
	} else {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT s.sub_mission_id, COALESCE(st.text, ''), COALESCE(sd.text, '')
			FROM sub_mission s
			LEFT JOIN text_map st ON st.lang = ? AND st.hash = s.target_hash
			LEFT JOIN text_map sd ON sd.lang = ? AND sd.hash = s.description_hash
			WHERE s.main_mission_guess = ?
			ORDER BY s.sub_mission_id`, lang, lang, id)
	}
	if err != nil {
		return nil, fmt.Errorf("sub missions: %w", err)
	}
	defer rows.Close()

	out := []SubMissionPreview{}
	for rows.Next() {
		var sub SubMissionPreview
		if err := rows.Scan(&sub.SubMissionID, &sub.Target, &sub.Description); err != nil {
			return nil, fmt.Errorf("scan sub mission: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sub mission rows: %w", err)
	}
	return out, nil
}

func (r *Repo) storyRefs(ctx context.Context, id int64, limit int) ([]RefRow, error) {
	likeStory := fmt.Sprintf("Story/Mission/%d/%%", id)
	likeCfg := fmt.Sprintf("Config/Level/Mission/%d/%%", id)
	rows, err := r.DB.QueryContext(ctx, `
		SELECT sr.source_path, sr.source_group, sr.json_path, sr.task_type, sr.timeline_name,
		       sr.performance_type, sr.performance_id, sr.talk_sentence_id
		FROM story_reference sr
		WHERE sr.source_path LIKE ? OR sr.source_path LIKE ?
		ORDER BY (sr.talk_sentence_id IS NULL), sr.talk_sentence_id, sr.source_path, sr.json_path
		LIMIT ?`,
		likeStory, likeCfg, limit)
	if err != nil {
		return nil, fmt.Errorf("story refs: %w", err)
	}
	defer rows.Close()

	out := []RefRow{}
	for rows.Next() {
		var ref RefRow
		if err := rows.Scan(
			&ref.SourcePath, &ref.SourceGroup, &ref.JSONPath, &ref.TaskType,
			&ref.TimelineName, &ref.PerformanceType, &ref.PerformanceID, &ref.TalkSentenceID,
		); err != nil {
			return nil, fmt.Errorf("scan story ref: %w", err)
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("story ref rows: %w", err)
	}
	return out, nil
}

func (r *Repo) talkLines(ctx context.Context, ids []int64, lang string, materialized bool) (map[int64]talkLine, error) {
	out := make(map[int64]talkLine, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	if !materialized {
		if err := r.TalkText.EnsureLoaded(lang); err != nil {
			return nil, err
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+2)

	var query string
	if materialized {
		speakerCol, textCol := "speaker_chs", "text_chs"
		if lang == "EN" {
			speakerCol, textCol = "speaker_en", "text_en"
		}
		query = fmt.Sprintf(`
			SELECT talk_sentence_id, voice_id, COALESCE(%s, ''), COALESCE(%s, '')
			FROM talk_sentence
			WHERE talk_sentence_id IN (%s)`, speakerCol, textCol, placeholders)
	} else {
		query = fmt.Sprintf(`
			SELECT t.talk_sentence_id, t.voice_id, COALESCE(sp.text, ''), COALESCE(tx.text, '')
			FROM talk_sentence t
			LEFT JOIN text_map sp ON sp.lang = ? AND sp.hash = t.speaker_hash
			LEFT JOIN text_map tx ON tx.lang = ? AND tx.hash = t.text_hash
			WHERE t.talk_sentence_id IN (%s)`, placeholders)
		args = append(args, lang, lang)
	}
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.TalkDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("talk lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var line talkLine
		if err := rows.Scan(&id, &line.voiceID, &line.speaker, &line.text); err != nil {
			return nil, fmt.Errorf("scan talk line: %w", err)
		}
		out[id] = line
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("talk line rows: %w", err)
	}
	return out, nil
}
