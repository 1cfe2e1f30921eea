package textmap

import (
	"database/sql"
	"encoding/json"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"hsrdb/pkg/database"
)

func newTestStore(t *testing.T) *Store {
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
	return NewStore(db, "")
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put("EN", "371857150", "Trailblazer"); err != nil {
		t.Fatalf("put: %v", err)
	}
	text, ok, err := s.Get("EN", "371857150")
	if err != nil || !ok || text != "Trailblazer" {
		t.Fatalf("get = (%q, %t, %v)", text, ok, err)
	}
}

func TestPutLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put("EN", "1", "first"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put("EN", "1", "second"); err != nil {
		t.Fatalf("second put: %v", err)
	}
	text, ok, _ := s.Get("EN", "1")
	if !ok || text != "second" {
		t.Fatalf("get after overwrite = (%q, %t), want second", text, ok)
	}
}

func TestLanguagesAreIndependent(t *testing.T) {
	s := newTestStore(t)
	s.Put("EN", "42", "Sword")
	s.Put("JP", "42", "剣")
	en, _, _ := s.Get("EN", "42")
	jp, _, _ := s.Get("JP", "42")
	if en != "Sword" || jp != "剣" {
		t.Fatalf("cross-language bleed: EN=%q JP=%q", en, jp)
	}
	if _, ok, _ := s.Get("KR", "42"); ok {
		t.Fatal("KR should be absent, not inherited")
	}
}

func TestGetManyMissingSimplyAbsent(t *testing.T) {
	s := newTestStore(t)
	s.Put("EN", "1", "one")
	s.Put("EN", "3", "three")
	got, err := s.GetMany("EN", []string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("get many: %v", err)
	}
	if len(got) != 2 || got["1"] != "one" || got["3"] != "three" {
		t.Fatalf("get many = %v", got)
	}
	if _, exists := got["2"]; exists {
		t.Fatal("missing hash must not appear in result")
	}
}

func TestGetWithFallback(t *testing.T) {
	s := newTestStore(t)
	s.Put("CHS", "7", "中文")
	s.Put("EN", "8", "english only")

	// KR missing, CHS present: fall back to CHS
	text, ok, err := s.GetWithFallback("KR", "7")
	if err != nil || !ok || text != "中文" {
		t.Fatalf("fallback to CHS = (%q, %t, %v)", text, ok, err)
	}
	// KR and CHS missing, EN present
	text, ok, _ = s.GetWithFallback("KR", "8")
	if !ok || text != "english only" {
		t.Fatalf("fallback to EN = (%q, %t)", text, ok)
	}
	// absent everywhere
	if _, ok, _ := s.GetWithFallback("KR", "9"); ok {
		t.Fatal("fully missing hash should report absent")
	}
}

func TestNormalizeLang(t *testing.T) {
	tcs := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"en", "EN", true},
		{"CHS", "CHS", true},
		{"zh", "CHS", true},
		{"ZH_CN", "CHS", true},
		{"ja", "JP", true},
		{"ko", "KR", true},
		{"fr", "", false},
		{"", "", false},
	}
	for _, tc := range tcs {
		got, ok := NormalizeLang(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("NormalizeLang(%q) = (%q, %t), want (%q, %t)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestFallbackChain(t *testing.T) {
	if got := strings.Join(FallbackChain("KR"), ","); got != "KR,CHS,EN" {
		t.Fatalf("FallbackChain(KR) = %s", got)
	}
	if got := strings.Join(FallbackChain("CHS"), ","); got != "CHS,EN" {
		t.Fatalf("FallbackChain(CHS) = %s", got)
	}
}

func TestStringifyNonStringValues(t *testing.T) {
	big := json.Number("18077757628497369626")
	if got := stringify(big); got != "18077757628497369626" {
		t.Fatalf("stringify(number) = %q", got)
	}
	if got := stringify(nil); got != "" {
		t.Fatalf("stringify(nil) = %q", got)
	}
	if got := stringify(true); got != "true" {
		t.Fatalf("stringify(bool) = %q", got)
	}
}
