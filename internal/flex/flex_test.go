package flex

import (
	"encoding/json"
	"strings"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return v
}

func TestHashVariants(t *testing.T) {
	tcs := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{`{"Hash": 371857150}`, "371857150", true},
		{`{"Hash": 18077757628497369626}`, "18077757628497369626", true},
		{`371857150`, "371857150", true},
		{`"  SkillName_1001  "`, "SkillName_1001", true},
		{`""`, "", false},
		{`{"Hash": null}`, "", false},
		{`{"Value": 3}`, "", false},
		{`1.5`, "", false},
		{`true`, "", false},
		{`null`, "", false},
	}
	for _, tc := range tcs {
		got, ok := Hash(decode(t, tc.raw))
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Hash(%s) = (%q, %t), want (%q, %t)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

// TestHashKeepsBigNumeralsExact guards the reason all decoding goes through
// json.Number: a 64-bit hash numeral round-tripped through float64 would be
// silently corrupted.
func TestHashKeepsBigNumeralsExact(t *testing.T) {
	got, ok := Hash(decode(t, `{"Hash": 9223372036854775807}`))
	if !ok || got != "9223372036854775807" {
		t.Fatalf("Hash = (%q, %t), want exact numeral", got, ok)
	}
}

func TestFloatVariants(t *testing.T) {
	tcs := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{`{"Value": 12.5}`, 12.5, true},
		{`12.5`, 12.5, true},
		{`"12.5"`, 12.5, true},
		{`7`, 7, true},
		{`"abc"`, 0, false},
		{`null`, 0, false},
		{`{"Value": null}`, 0, false},
		{`true`, 0, false},
	}
	for _, tc := range tcs {
		got, ok := Float(decode(t, tc.raw))
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Float(%s) = (%v, %t), want (%v, %t)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestIntVariants(t *testing.T) {
	tcs := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{`42`, 42, true},
		{`"42"`, 42, true},
		{`" -7 "`, -7, true},
		{`1.5`, 0, false},
		{`"1.5"`, 0, false},
		{`""`, 0, false},
		{`null`, 0, false},
	}
	for _, tc := range tcs {
		got, ok := Int(decode(t, tc.raw))
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Int(%s) = (%d, %t), want (%d, %t)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestCustom(t *testing.T) {
	if s, ok := Custom(decode(t, `"TalkSentence_500"`)); !ok || s != "TalkSentence_500" {
		t.Fatalf("Custom(string) = (%q, %t)", s, ok)
	}
	if s, ok := Custom(decode(t, `{"Value": "TalkSentence_500"}`)); !ok || s != "TalkSentence_500" {
		t.Fatalf("Custom(wrapper) = (%q, %t)", s, ok)
	}
	if _, ok := Custom(decode(t, `{"Value": 5}`)); ok {
		t.Fatal("Custom should reject non-string wrapper value")
	}
}
