package models

// StoryReference is one flattened cross-reference mined from a narrative
// document. At most one row exists per (source document, tuple of content
// fields, json path).
type StoryReference struct {
	ID                  int64   `json:"id"`
	SourcePath          string  `json:"source_path"`
	SourceGroup         string  `json:"source_group"`
	JSONPath            string  `json:"json_path"`
	TaskType            *string `json:"task_type,omitempty"`
	TalkSentenceID      *int64  `json:"talk_sentence_id,omitempty"`
	TimelineName        *string `json:"timeline_name,omitempty"`
	PerformanceType     *string `json:"performance_type,omitempty"`
	PerformanceID       *int64  `json:"performance_id,omitempty"`
	TriggerCustomString *string `json:"trigger_custom_string,omitempty"`
	CustomString        *string `json:"custom_string,omitempty"`
}
