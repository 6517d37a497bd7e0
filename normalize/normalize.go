/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package normalize

import "strings"

// canonicalLanguages maps lowercased language names to their stored form.
var canonicalLanguages = map[string]string{
	"sanskrit":     "Sanskrit",
	"telugu":       "Telugu",
	"tamil":        "Tamil",
	"kannada":      "Kannada",
	"malayalam":    "Malayalam",
	"hindi":        "Hindi",
	"bengali":      "Bengali",
	"marathi":      "Marathi",
	"braj":         "Braj",
	"manipravalam": "Manipravalam",
}

// Text trims leading and trailing whitespace and collapses internal runs of
// whitespace to a single space.
func Text(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Language maps a language name to its canonical capitalized form. Unknown
// languages are title-cased on the first byte as a fallback.
func Language(s string) string {
	s = Text(s)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if canonical, ok := canonicalLanguages[lower]; ok {
		return canonical
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}
