package employee

import "strings"

// PhoneSeparator joins the form's phone list into the stored single string.
// Numbers themselves may not contain a comma, so the split is lossless.
const PhoneSeparator = ", "

func JoinPhoneNumbers(numbers []string) *string {
	cleaned := make([]string, 0, len(numbers))
	for _, number := range numbers {
		if trimmed := strings.TrimSpace(number); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	joined := strings.Join(cleaned, PhoneSeparator)
	return &joined
}

// SplitPhoneNumbers is the inverse of JoinPhoneNumbers. It always returns a
// non-nil slice.
func SplitPhoneNumbers(stored *string) []string {
	out := []string{}
	if stored == nil {
		return out
	}
	for _, part := range strings.Split(*stored, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
