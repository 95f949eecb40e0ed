package usecase

import (
	"regexp"
	"strings"
)

// Whisper-family models hallucinate short filler outputs on near-silent
// audio. Discarding them keeps the text sink clean during long sessions.
var fillerOutputs = map[string]struct{}{
	".": {}, ",": {}, "!": {}, "?": {}, "-": {},
	"…": {}, "...": {}, "。": {}, "、": {},
	"you": {}, "Thank you.": {}, "Thanks for watching!": {},
}

var bracketedTag = regexp.MustCompile(`^[\[(][^\[\]()]{0,40}[\])]$`)

// IsNoise reports whether a transcription result should be discarded
// instead of inserted: empty output, a lone punctuation mark or ellipsis,
// a known filler phrase, or a bracketed tag such as "[BLANK_AUDIO]".
func IsNoise(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	if _, ok := fillerOutputs[trimmed]; ok {
		return true
	}
	return bracketedTag.MatchString(trimmed)
}
