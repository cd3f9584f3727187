package translation

import (
	"horse.fit/todos/internal/langdetect"
	"horse.fit/todos/internal/language"
)

func SupportedTranslationLanguageCodes() []string {
	return language.SupportedCodes()
}

// resolveSourceLang replaces AutoDetect (or a blank code) with the detected language of text.
// It returns "" when detection is inconclusive.
func resolveSourceLang(sourceLang, text string) string {
	normalized := language.Code(sourceLang)
	if normalized != "" && normalized != AutoDetect {
		return normalized
	}
	return langdetect.DetectISO6391(text)
}
