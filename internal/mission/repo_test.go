package mission

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"hsrdb/internal/textmap"
	"hsrdb/pkg/database"
	"hsrdb/pkg/utils"
)

func newTestDB(t *testing.T) *sql.DB {
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
	return db
}

func newTestRepo(t *testing.T) (*Repo, *sql.DB) {
	db := newTestDB(t)
	store := textmap.NewStore(db, "")
	return NewRepo(db, db, store, store), db
}

func seedMissions(t *testing.T, db *sql.DB) {
	t.Helper()
	exec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	// 1005 has sub-missions, 1006 has only a story reference, 1007 is an
	// empty placeholder that search must hide.
	exec(`INSERT INTO main_mission (main_mission_id, mission_type, name_chs, name_en, chapter_id)
	      VALUES (1005, 'Main', '劫火莲灯芳醇酒', 'A Moment of Peace', 1)`)
	exec(`INSERT INTO main_mission (main_mission_id, mission_type, name_chs, name_en)
	      VALUES (1006, 'Branch', '余烬', 'Embers')`)
	exec(`INSERT INTO main_mission (main_mission_id, mission_type, name_chs, name_en)
	      VALUES (1007, 'Daily', '占位', 'Placeholder')`)

	exec(`INSERT INTO sub_mission (sub_mission_id, main_mission_guess, target_chs, target_en, description_chs, description_en)
	      VALUES (100501, 1005, '前往候车大厅', 'Go to the waiting hall', '描述一', 'desc one')`)
	exec(`INSERT INTO sub_mission (sub_mission_id, main_mission_guess, target_chs, target_en)
	      VALUES (100502, 1005, '与三月七对话', 'Talk to March 7th')`)
	exec(`INSERT INTO sub_mission (sub_mission_id, main_mission_guess, target_chs, target_en)
	      VALUES (100503, 1005, '离开车厢', 'Leave the carriage')`)

	exec(`INSERT INTO story_reference (source_path, source_group, json_path, talk_sentence_id)
	      VALUES ('Story/Mission/1006/Act.json', 'Story/Mission', 'OnStartSequece[0]', 500)`)
}

func TestSearchHidesEmptyMissions(t *testing.T) {
	repo, db := newTestRepo(t)
	seedMissions(t, db)

	items, total, err := repo.Search(context.Background(), "", "EN", utils.Page{Size: 10}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("total = %d, items = %d, want placeholder hidden", total, len(items))
	}
	if items[0].MainMissionID != 1005 || items[1].MainMissionID != 1006 {
		t.Fatalf("items = %+v", items)
	}
}

func TestSearchMatchesSubMissionText(t *testing.T) {
	repo, db := newTestRepo(t)
	seedMissions(t, db)

	items, total, err := repo.Search(context.Background(), "March 7th", "EN", utils.Page{Size: 10}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || items[0].MainMissionID != 1005 {
		t.Fatalf("items = %+v, total = %d", items, total)
	}
}

func TestSearchPreviewLimit(t *testing.T) {
	repo, db := newTestRepo(t)
	seedMissions(t, db)

	items, _, err := repo.Search(context.Background(), "1005", "EN", utils.Page{Size: 10}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	got := items[0]
	if got.SubMissionCount != 3 || len(got.SubMissionsPreview) != 2 || got.SubMissionsMore != 1 {
		t.Fatalf("preview = %+v", got)
	}
	if got.SubMissionsPreview[0].SubMissionID != 100501 {
		t.Fatalf("preview order = %+v", got.SubMissionsPreview)
	}
}

func TestDetailMissingMission(t *testing.T) {
	repo, db := newTestRepo(t)
	seedMissions(t, db)

	detail, err := repo.Detail(context.Background(), 9999, "EN", 100, 100)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail != nil {
		t.Fatalf("detail = %+v, want nil for unknown mission", detail)
	}
}

func TestDetailTranscriptDeduplicates(t *testing.T) {
	repo, db := newTestRepo(t)
	seedMissions(t, db)

	exec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	exec(`INSERT INTO talk_sentence (talk_sentence_id, voice_id, speaker_chs, speaker_en, text_chs, text_en)
	      VALUES (500, 9001, '三月七', 'March 7th', '出发吧！', 'Let us go!')`)
	exec(`INSERT INTO talk_sentence (talk_sentence_id, speaker_chs, speaker_en, text_chs, text_en)
	      VALUES (501, '丹恒', 'Dan Heng', '', '')`)
	// line 500 referenced twice, line 501 has no text
	exec(`INSERT INTO story_reference (source_path, source_group, json_path, talk_sentence_id)
	      VALUES ('Story/Mission/1005/Act.json', 'Story/Mission', 'OnStartSequece[0]', 500)`)
	exec(`INSERT INTO story_reference (source_path, source_group, json_path, talk_sentence_id)
	      VALUES ('Story/Mission/1005/Act.json', 'Story/Mission', 'OnStartSequece[2]', 500)`)
	exec(`INSERT INTO story_reference (source_path, source_group, json_path, talk_sentence_id)
	      VALUES ('Config/Level/Mission/1005/Talk.json', 'Config/Level/Mission', 'TaskList[1]', 501)`)
	exec(`INSERT INTO mission_pack_link (mission_pack, main_mission_id) VALUES (7, 1005)`)

	detail, err := repo.Detail(context.Background(), 1005, "EN", 100, 100)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail == nil {
		t.Fatal("detail missing")
	}
	if detail.MainMission.Name != "A Moment of Peace" {
		t.Fatalf("name = %q", detail.MainMission.Name)
	}
	if len(detail.SubMissions) != 3 {
		t.Fatalf("sub missions = %+v", detail.SubMissions)
	}
	if len(detail.MissionPacks) != 1 || detail.MissionPacks[0] != 7 {
		t.Fatalf("packs = %v", detail.MissionPacks)
	}
	if len(detail.StoryRefs) != 3 {
		t.Fatalf("refs = %d", len(detail.StoryRefs))
	}
	if detail.StoryRefs[0].Text != "Let us go!" || detail.StoryRefs[0].Speaker != "March 7th" {
		t.Fatalf("ref 0 = %+v, want talk text attached", detail.StoryRefs[0])
	}
	// one transcript entry: 500 dedupes, 501 dropped for empty text
	if len(detail.Dialogues) != 1 {
		t.Fatalf("dialogues = %+v", detail.Dialogues)
	}
	d := detail.Dialogues[0]
	if d.TalkSentenceID != 500 || d.JSONPath != "OnStartSequece[0]" {
		t.Fatalf("dialogue = %+v, want first reference as source", d)
	}
	if d.VoiceID == nil || *d.VoiceID != 9001 {
		t.Fatalf("voice id = %v", d.VoiceID)
	}
}
