package domain

import "golang.org/x/text/language"

// Language is a selectable transcription language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DefaultLanguage is used when nothing better can be detected.
const DefaultLanguage = "en-US"

var languages = []Language{
	{Code: "en-US", Name: "English (US)"},
	{Code: "en-GB", Name: "English (UK)"},
	{Code: "es-ES", Name: "Spanish (Spain)"},
	{Code: "es-MX", Name: "Spanish (Mexico)"},
	{Code: "fr-FR", Name: "French"},
	{Code: "de-DE", Name: "German"},
	{Code: "it-IT", Name: "Italian"},
	{Code: "pt-BR", Name: "Portuguese (Brazil)"},
	{Code: "ja-JP", Name: "Japanese"},
	{Code: "ko-KR", Name: "Korean"},
}

var languageTags = func() []language.Tag {
	tags := make([]language.Tag, len(languages))
	for i, l := range languages {
		tags[i] = language.MustParse(l.Code)
	}
	return tags
}()

var languageMatcher = language.NewMatcher(languageTags)

// Languages returns the supported language catalog in display order.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// SupportedLanguage reports whether code is in the catalog.
func SupportedLanguage(code string) bool {
	for _, l := range languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// MatchLanguage resolves an Accept-Language style preference list to the
// closest supported language code. An empty or unparseable preference yields
// DefaultLanguage.
func MatchLanguage(prefs ...string) string {
	cleaned := make([]string, 0, len(prefs))
	for _, p := range prefs {
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return DefaultLanguage
	}
	// MatchStrings reports the index of the best supported tag, which maps
	// straight back onto the catalog order.
	_, idx := language.MatchStrings(languageMatcher, cleaned...)
	if idx < 0 || idx >= len(languages) {
		return DefaultLanguage
	}
	return languages[idx].Code
}
