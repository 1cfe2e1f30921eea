package textmap

import "strings"

// Supported languages, in fallback order of preference. CHS is the authoring
// language of the exports and is always the most complete.
var Supported = []string{"CHS", "EN", "JP", "KR"}

var langAliases = map[string]string{
	"ZH":    "CHS",
	"ZH_CN": "CHS",
	"CN":    "CHS",
	"EN_US": "EN",
	"JA":    "JP",
	"JA_JP": "JP",
	"KO":    "KR",
	"KO_KR": "KR",
}

// NormalizeLang maps a requested language code onto a supported one.
func NormalizeLang(lang string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(lang))
	code = strings.ReplaceAll(code, "-", "_")
	if code == "" {
		return "", false
	}
	if alias, ok := langAliases[code]; ok {
		code = alias
	}
	for _, l := range Supported {
		if l == code {
			return code, true
		}
	}
	return "", false
}

// LangOrDefault is NormalizeLang for query parameters: anything that does
// not resolve to a supported language becomes CHS.
func LangOrDefault(lang string) string {
	if code, ok := NormalizeLang(lang); ok {
		return code
	}
	return "CHS"
}

// FallbackChain returns the lookup order for a language: the language
// itself, then CHS, then EN, without repeats.
func FallbackChain(lang string) []string {
	chain := []string{lang}
	for _, fb := range []string{"CHS", "EN"} {
		if fb != lang {
			chain = append(chain, fb)
		}
	}
	return chain
}
