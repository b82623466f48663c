package engagement

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxContentLength = 20000
	MaxMoodLength    = 64
)

// normalizeEntry trims content and mood. An empty mood becomes nil.
func normalizeEntry(content string, mood *string) (string, *string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", nil, &ValidationError{Field: "content", Reason: "too long"}
	}

	if mood == nil {
		return content, nil, nil
	}
	m := strings.TrimSpace(*mood)
	if m == "" {
		return content, nil, nil
	}
	if utf8.RuneCountInString(m) > MaxMoodLength {
		return "", nil, &ValidationError{Field: "mood", Reason: "too long"}
	}
	return content, &m, nil
}

// ContentLength is the length used for points: Unicode code points of the trimmed content.
func ContentLength(content string) int {
	return utf8.RuneCountInString(content)
}
