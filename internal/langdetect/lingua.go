package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// minLetters is the shortest sample worth running detection on.
const minLetters = 6

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// detectable lists the languages translation prompts have labels for.
var detectable = []lingua.Language{
	lingua.Arabic,
	lingua.Chinese,
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Indonesian,
	lingua.Italian,
	lingua.Japanese,
	lingua.Korean,
	lingua.Polish,
	lingua.Portuguese,
	lingua.Russian,
	lingua.Spanish,
	lingua.Thai,
	lingua.Turkish,
	lingua.Vietnamese,
}

// DetectISO6391 returns the ISO 639-1 code of text, or "" when the sample is too short
// or no language is a confident match.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minLetters {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectable...).
			Build()
	})
	return detector
}
