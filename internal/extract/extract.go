// Package extract mines narrative and timeline documents for flat,
// de-duplicated cross-reference records. The documents are arbitrarily
// nested; a node's task type is inherited from its nearest tagged ancestor.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"hsrdb/internal/flex"
	"hsrdb/pkg/models"
)

var talkSentenceRe = regexp.MustCompile(`TalkSentence_(\d+)`)

// Extract walks one parsed document and returns its reference records.
// Calling it twice on the same document yields identical output.
func Extract(relPath string, doc any) []models.StoryReference {
	w := &walker{
		relPath: relPath,
		group:   SourceGroup(relPath),
		seen:    make(map[string]struct{}),
	}
	w.visit(doc, "$", "")
	return w.out
}

type walker struct {
	relPath string
	group   string
	seen    map[string]struct{}
	out     []models.StoryReference
}

// visit carries the inherited task type down each recursive call. Arrays
// recurse per element without changing it; an object's own $type overrides
// it for the object and everything below.
func (w *walker) visit(node any, path, inherited string) {
	switch t := node.(type) {
	case map[string]any:
		taskType := inherited
		if own, ok := t["$type"].(string); ok && own != "" {
			taskType = own
		}
		w.emit(t, path, taskType)
		// sorted keys keep the walk (and row order) deterministic
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			w.visit(t[key], path+"."+key, taskType)
		}
	case []any:
		for i, child := range t {
			w.visit(child, path+"["+strconv.Itoa(i)+"]", inherited)
		}
	}
}

func (w *walker) emit(node map[string]any, path, taskType string) {
	ref := models.StoryReference{
		SourcePath:  w.relPath,
		SourceGroup: w.group,
		JSONPath:    path,
	}
	if taskType != "" {
		ref.TaskType = &taskType
	}

	if id, ok := flex.Int(node["TalkSentenceID"]); ok {
		ref.TalkSentenceID = &id
	}
	if s, ok := flex.Custom(node["TriggerCustomString"]); ok && s != "" {
		ref.TriggerCustomString = &s
	}
	if s, ok := flex.Custom(node["CustomString"]); ok && s != "" {
		ref.CustomString = &s
	}
	// no typed id: derive one from the string fields, trigger first
	if ref.TalkSentenceID == nil {
		for _, field := range []*string{ref.TriggerCustomString, ref.CustomString} {
			if field == nil {
				continue
			}
			if m := talkSentenceRe.FindStringSubmatch(*field); m != nil {
				if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
					ref.TalkSentenceID = &id
					break
				}
			}
		}
	}
	if s, ok := flex.Str(node["TimelineName"]); ok && s != "" {
		ref.TimelineName = &s
	}
	if s, ok := flex.Str(node["PerformanceType"]); ok && s != "" {
		ref.PerformanceType = &s
	}
	if id, ok := flex.Int(node["PerformanceID"]); ok {
		ref.PerformanceID = &id
	}

	if ref.TalkSentenceID == nil && ref.TimelineName == nil &&
		ref.PerformanceType == nil && ref.PerformanceID == nil &&
		ref.TriggerCustomString == nil && ref.CustomString == nil {
		return
	}

	key := tupleKey(ref)
	if _, dup := w.seen[key]; dup {
		return
	}
	w.seen[key] = struct{}{}
	w.out = append(w.out, ref)
}

// tupleKey builds the per-document uniqueness key over every content field
// plus the json path; the same reference at a different path is kept.
func tupleKey(ref models.StoryReference) string {
	parts := []string{
		ref.JSONPath,
		strPart(ref.TaskType),
		intPart(ref.TalkSentenceID),
		strPart(ref.TimelineName),
		strPart(ref.PerformanceType),
		intPart(ref.PerformanceID),
		strPart(ref.TriggerCustomString),
		strPart(ref.CustomString),
	}
	return strings.Join(parts, "\x1f")
}

func strPart(s *string) string {
	if s == nil {
		return "\x00"
	}
	return *s
}

func intPart(n *int64) string {
	if n == nil {
		return "\x00"
	}
	return strconv.FormatInt(*n, 10)
}

// SourceGroup buckets a document path for browsing: the Story and
// Config/Level trees keep one extra path segment, everything else groups by
// its top-level directory.
func SourceGroup(relPath string) string {
	parts := strings.Split(strings.Trim(relPath, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "Unknown"
	}
	if parts[0] == "Story" && len(parts) > 1 {
		return "Story/" + parts[1]
	}
	if parts[0] == "Config" && len(parts) > 2 && parts[1] == "Level" {
		return "Config/Level/" + parts[2]
	}
	return parts[0]
}
