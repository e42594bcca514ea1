package utils

import (
	"regexp"
	"strings"
)

// politeEndings are Thai politeness particles stripped from inbound text
// before any matching, so "สวัสดีครับ" and "สวัสดี" hit the same cache key
var politeEndings = []string{"ครับ", "ค่ะ", "น้ะ", "นะจ้ะ", "นะ"}

// RemovePoliteEndings strips politeness particles and surrounding space
func RemovePoliteEndings(text string) string {
	for _, ending := range politeEndings {
		text = strings.ReplaceAll(text, ending, "")
	}
	return strings.TrimSpace(text)
}

var digitPattern = regexp.MustCompile(`\d+`)

// ExtractDigits joins all digit runs in the text, mirroring how budget
// amounts like "ไม่เกิน 1,500 บาท" are read
func ExtractDigits(text string) string {
	return strings.Join(digitPattern.FindAllString(text, -1), "")
}
