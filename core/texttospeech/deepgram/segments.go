package deepgram

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxSpeakTextLength is the most characters Deepgram accepts in one Speak
// message
const maxSpeakTextLength = 2000

// splitText cuts text into segments of at most limit characters. Segments end
// at sentence boundaries where possible, then at spaces, and only split words
// that are longer than limit on their own.
func splitText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var segments []string
	var current strings.Builder
	flush := func() {
		if segment := strings.TrimSpace(current.String()); segment != "" {
			segments = append(segments, segment)
		}
		current.Reset()
	}

	for _, sentence := range sentences(text) {
		if utf8.RuneCountInString(current.String())+utf8.RuneCountInString(sentence) <= limit {
			current.WriteString(sentence)
			continue
		}
		flush()
		if utf8.RuneCountInString(sentence) <= limit {
			current.WriteString(sentence)
			continue
		}

		for _, word := range strings.SplitAfter(sentence, " ") {
			for utf8.RuneCountInString(word) > limit {
				flush()
				runes := []rune(word)
				segments = append(segments, string(runes[:limit]))
				word = string(runes[limit:])
			}
			if utf8.RuneCountInString(current.String())+utf8.RuneCountInString(word) > limit {
				flush()
			}
			current.WriteString(word)
		}
	}
	flush()

	return segments
}

// sentences splits text after sentence ending punctuation that is followed by
// whitespace, keeping the punctuation and whitespace with the sentence
func sentences(text string) []string {
	var result []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(".!?\n", runes[i]) {
			continue
		}
		end := i + 1
		for end < len(runes) && unicode.IsSpace(runes[end]) {
			end++
		}
		if end == i+1 && end < len(runes) && runes[i] != '\n' {
			continue
		}
		result = append(result, string(runes[start:end]))
		start = end
		i = end - 1
	}
	if start < len(runes) {
		result = append(result, string(runes[start:]))
	}
	return result
}
