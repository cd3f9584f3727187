// Package language normalizes language tags and names the languages the
// translation prompts know about.
package language

import (
	"sort"
	"strings"
)

// Label is a language's display name in English and in Chinese.
type Label struct {
	English string
	Chinese string
}

var labels = map[string]Label{
	"ar": {English: "Arabic", Chinese: "阿拉伯语"},
	"de": {English: "German", Chinese: "德语"},
	"en": {English: "English", Chinese: "英语"},
	"es": {English: "Spanish", Chinese: "西班牙语"},
	"fr": {English: "French", Chinese: "法语"},
	"id": {English: "Indonesian", Chinese: "印度尼西亚语"},
	"it": {English: "Italian", Chinese: "意大利语"},
	"ja": {English: "Japanese", Chinese: "日语"},
	"ko": {English: "Korean", Chinese: "韩语"},
	"pl": {English: "Polish", Chinese: "波兰语"},
	"pt": {English: "Portuguese", Chinese: "葡萄牙语"},
	"ru": {English: "Russian", Chinese: "俄语"},
	"th": {English: "Thai", Chinese: "泰语"},
	"tr": {English: "Turkish", Chinese: "土耳其语"},
	"vi": {English: "Vietnamese", Chinese: "越南语"},
	"zh": {English: "Chinese", Chinese: "中文"},
}

// Tag lowercases raw, uses "-" as the separator and drops empty subtags.
// It returns "" for blank input or subtags with anything but ASCII letters.
func Tag(raw string) string {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for _, field := range fields {
		for _, r := range field {
			if r < 'a' || r > 'z' {
				return ""
			}
		}
	}
	return strings.Join(fields, "-")
}

// Code returns the primary subtag of raw ("pt" for "pt_BR").
func Code(raw string) string {
	tag := Tag(raw)
	if primary, _, found := strings.Cut(tag, "-"); found {
		return primary
	}
	return tag
}

// Lookup returns the label for raw. Unknown codes fall back to the trimmed input,
// and blank input to English.
func Lookup(raw string) Label {
	if label, ok := labels[Code(raw)]; ok {
		return label
	}
	fallback := strings.TrimSpace(raw)
	if fallback == "" {
		return labels["en"]
	}
	return Label{English: fallback, Chinese: fallback}
}

func IsChinese(raw string) bool {
	return Code(raw) == "zh"
}

// SupportedCodes lists the labelled codes in sorted order.
func SupportedCodes() []string {
	codes := make([]string, 0, len(labels))
	for code := range labels {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
