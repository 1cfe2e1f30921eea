package search

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
	set := database.NewSet(db)
	stores := map[string]*textmap.Store{"default": textmap.NewStore(db, "")}
	return NewRepo(set, stores, index.NewCache(t.TempDir())), db
}

func seedText(t *testing.T, db *sql.DB, lang string, rows [][2]string) {
	t.Helper()
	for _, row := range rows {
		if _, err := db.Exec(`INSERT INTO text_map (lang, hash, text) VALUES (?, ?, ?)`,
			lang, row[0], row[1]); err != nil {
			t.Fatalf("seed text_map: %v", err)
		}
	}
}

func TestTextSearchEmptyQuery(t *testing.T) {
	repo, _ := newTestRepo(t)
	items, total, err := repo.TextSearch(context.Background(), "default", "", "CHS", utils.Page{Size: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("items = %+v, total = %d", items, total)
	}
}

func TestTextSearchPages(t *testing.T) {
	repo, db := newTestRepo(t)
	seedText(t, db, "CHS", [][2]string{
		{"1", "星穹列车驶向远方"},
		{"2", "星穹铁道欢迎你"},
		{"3", "银河漫游指南"},
	})

	items, total, err := repo.TextSearch(context.Background(), "default", "星穹", "CHS", utils.Page{Size: 1, Offset: 1})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || len(items) != 1 {
		t.Fatalf("items = %+v, total = %d", items, total)
	}
}

func TestScoreTerm(t *testing.T) {
	term := "星核"
	defn := "星核：来自星间的灾厄造物"
	mention := "传闻深处埋藏着一枚星核，无人敢靠近那个地方"
	url := "详情参见 https://example.com/archive/12345 的星核条目页面"

	sDefn := scoreTerm(term, defn)
	sMention := scoreTerm(term, mention)
	sURL := scoreTerm(term, url)

	if sDefn <= sMention {
		t.Fatalf("definition %f must outrank mention %f", sDefn, sMention)
	}
	if sURL >= sMention {
		t.Fatalf("url %f must score below plain mention %f", sURL, sMention)
	}
	if scoreTerm(term, "   ") != -9999 {
		t.Fatal("blank text must be rejected")
	}
}

func TestExplainTermRanksDefinitionFirst(t *testing.T) {
	repo, db := newTestRepo(t)
	seedText(t, db, "CHS", [][2]string{
		{"10", "星核：来自星间的灾厄造物"},
		{"11", "传闻深处埋藏着一枚星核，它是毁灭的源头"},
		{"12", "完全无关的句子"},
	})

	items, usedLang, err := repo.ExplainTerm(context.Background(), "default", "星核", "CHS", 5)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if usedLang != "CHS" {
		t.Fatalf("used lang = %q", usedLang)
	}
	if len(items) < 1 || items[0].Hash != "10" {
		t.Fatalf("items = %+v, want definition first", items)
	}
	for _, it := range items {
		if it.Hash == "12" {
			t.Fatalf("unrelated row leaked: %+v", items)
		}
	}
}

func TestExplainTermFallsBackToCHS(t *testing.T) {
	repo, db := newTestRepo(t)
	seedText(t, db, "CHS", [][2]string{
		{"10", "星核：来自星间的灾厄造物"},
	})

	items, usedLang, err := repo.ExplainTerm(context.Background(), "default", "星核", "EN", 5)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if usedLang != "CHS" || len(items) != 1 {
		t.Fatalf("used lang = %q, items = %+v", usedLang, items)
	}
}

func TestExplainTermDeduplicatesText(t *testing.T) {
	repo, db := newTestRepo(t)
	seedText(t, db, "CHS", [][2]string{
		{"20", "星核：灾厄造物"},
		{"21", "星核：灾厄造物"},
	})

	items, _, err := repo.ExplainTerm(context.Background(), "default", "星核", "CHS", 5)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %+v, want duplicates collapsed", items)
	}
}

func TestStatsMergesMetaAndLiveCounts(t *testing.T) {
	repo, db := newTestRepo(t)
	for _, kv := range [][2]string{
		{"build_at", "2026-08-01 12:00:00"},
		{"elapsed_seconds", "73.5"},
		{"table_counts", `{"item": 999}`},
	} {
		if _, err := db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			t.Fatalf("seed meta: %v", err)
		}
	}
	if _, err := db.Exec(`INSERT INTO talk_sentence (talk_sentence_id) VALUES (1), (2)`); err != nil {
		t.Fatalf("seed talk: %v", err)
	}

	out, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if out["build_at"] != "2026-08-01 12:00:00" {
		t.Fatalf("build_at = %v", out["build_at"])
	}
	if out["elapsed_seconds"] != 73.5 {
		t.Fatalf("elapsed = %v, want decoded number", out["elapsed_seconds"])
	}
	counts, ok := out["table_counts"].(map[string]any)
	if !ok {
		t.Fatalf("table_counts = %v", out["table_counts"])
	}
	// the live probe overwrites the stale build-time value
	if counts["talk_sentence"] != 2 || counts["item"] != 0 {
		t.Fatalf("counts = %v", counts)
	}
	if out["monster_count"] != 0 {
		t.Fatalf("monster_count = %v", out["monster_count"])
	}
}
