package models

// TalkSentence is one normalized dialogue line. The CHS and EN text is
// materialized onto the row at build time; other languages are resolved
// through the text_map table at read time.
type TalkSentence struct {
	TalkSentenceID int64            `json:"talk_sentence_id"`
	VoiceID        *int64           `json:"voice_id,omitempty"`
	SpeakerHash    *string          `json:"speaker_hash,omitempty"`
	SpeakerCHS     *string          `json:"speaker_chs,omitempty"`
	SpeakerEN      *string          `json:"speaker_en,omitempty"`
	TextHash       *string          `json:"text_hash,omitempty"`
	TextCHS        *string          `json:"text_chs,omitempty"`
	TextEN         *string          `json:"text_en,omitempty"`
	ExtraVoiceIDs  []int64          `json:"extra_voice_ids,omitempty"`
	Speaker        *string          `json:"speaker,omitempty"`
	Text           *string          `json:"text,omitempty"`
	References     []StoryReference `json:"references,omitempty"`
}
