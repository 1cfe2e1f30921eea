package models

// TextEntry is one localized string keyed by (language, content address).
// The hash column is stored as a decimal string because several source
// tables carry 64-bit unsigned numerals that do not fit a signed integer.
type TextEntry struct {
	Lang string `json:"lang"`
	Hash string `json:"hash"`
	Text string `json:"text"`
}
