package extract

import (
	"reflect"
	"testing"

	"hsrdb/internal/jsonio"
)

func parse(t *testing.T, raw string) any {
	t.Helper()
	doc, err := jsonio.Decode([]byte(raw), "test doc")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc
}

func TestExtractTypedTalkID(t *testing.T) {
	doc := parse(t, `{
		"OnStartSequece": [
			{"$type": "RPG.PlayTimeline", "TaskList": [
				{"TalkSentenceID": 500101}
			]}
		]
	}`)
	refs := Extract("Story/Mission/1005/Act10050101.json", doc)
	if len(refs) != 1 {
		t.Fatalf("got %d refs, want 1: %+v", len(refs), refs)
	}
	ref := refs[0]
	if ref.TalkSentenceID == nil || *ref.TalkSentenceID != 500101 {
		t.Fatalf("talk id = %v", ref.TalkSentenceID)
	}
	if ref.TaskType == nil || *ref.TaskType != "RPG.PlayTimeline" {
		t.Fatalf("task type = %v, want inherited from ancestor", ref.TaskType)
	}
	if ref.SourceGroup != "Story/Mission" {
		t.Fatalf("source group = %q", ref.SourceGroup)
	}
}

func TestExtractIDFromTriggerBeforeCustom(t *testing.T) {
	doc := parse(t, `{
		"TriggerCustomString": "TalkSentence_111",
		"CustomString": "TalkSentence_222"
	}`)
	refs := Extract("Config/Level/Mission/1.json", doc)
	if len(refs) != 1 {
		t.Fatalf("got %d refs", len(refs))
	}
	if refs[0].TalkSentenceID == nil || *refs[0].TalkSentenceID != 111 {
		t.Fatalf("talk id = %v, want 111 from trigger string", refs[0].TalkSentenceID)
	}
}

func TestExtractTypedIDWinsOverDerived(t *testing.T) {
	doc := parse(t, `{
		"TalkSentenceID": 999,
		"TriggerCustomString": "TalkSentence_111"
	}`)
	refs := Extract("Story/x.json", doc)
	if len(refs) != 1 || *refs[0].TalkSentenceID != 999 {
		t.Fatalf("refs = %+v, want typed id 999", refs)
	}
}

func TestExtractInheritanceNotSibling(t *testing.T) {
	doc := parse(t, `{
		"Tasks": [
			{"$type": "RPG.WaitCustomString", "TriggerCustomString": "a"},
			{"TimelineName": "tl_b"}
		]
	}`)
	refs := Extract("Story/x.json", doc)
	if len(refs) != 2 {
		t.Fatalf("got %d refs", len(refs))
	}
	var sibling *string
	for _, ref := range refs {
		if ref.TimelineName != nil {
			sibling = ref.TaskType
		}
	}
	if sibling != nil {
		t.Fatalf("untagged sibling got type %q, must not inherit sideways", *sibling)
	}
}

func TestExtractChildOverridesInherited(t *testing.T) {
	doc := parse(t, `{
		"$type": "RPG.Outer",
		"Inner": {"$type": "RPG.Inner", "TalkSentenceID": 5}
	}`)
	refs := Extract("Story/x.json", doc)
	for _, ref := range refs {
		if ref.TalkSentenceID != nil && (ref.TaskType == nil || *ref.TaskType != "RPG.Inner") {
			t.Fatalf("child type = %v, want local override", ref.TaskType)
		}
	}
}

func TestExtractIdempotent(t *testing.T) {
	doc := parse(t, `{
		"A": [{"TalkSentenceID": 1}, {"TalkSentenceID": 1}],
		"B": {"TimelineName": "tl", "PerformanceType": "PlayVideo", "PerformanceID": 7}
	}`)
	first := Extract("Story/x.json", doc)
	second := Extract("Story/x.json", doc)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extract not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestExtractKeepsSameRefAtDifferentPaths(t *testing.T) {
	doc := parse(t, `{"A": {"TalkSentenceID": 1}, "B": {"TalkSentenceID": 1}}`)
	refs := Extract("Story/x.json", doc)
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want the same reference kept at both paths", len(refs))
	}
}

func TestExtractEmitsNothingForBareNodes(t *testing.T) {
	doc := parse(t, `{"$type": "RPG.Something", "Nested": {"Number": 5}}`)
	if refs := Extract("Story/x.json", doc); len(refs) != 0 {
		t.Fatalf("got %d refs from content-free nodes", len(refs))
	}
}

func TestSourceGroup(t *testing.T) {
	tcs := []struct{ in, want string }{
		{"Story/Mission/1005/a.json", "Story/Mission"},
		{"Config/Level/Mission/1.json", "Config/Level/Mission"},
		{"Config/Other/x.json", "Config"},
		{"Loose.json", "Loose.json"},
		{"", "Unknown"},
	}
	for _, tc := range tcs {
		if got := SourceGroup(tc.in); got != tc.want {
			t.Errorf("SourceGroup(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
