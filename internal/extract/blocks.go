package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/storybias/internal/model"
)

var (
	boilerplatePattern = regexp.MustCompile(`(?i)character list:|character details:|characters:`)
	placeholderPattern = regexp.MustCompile(`(?i)\{character_number\}`)
	labelPatterns      = buildLabelPatterns()
)

// buildLabelPatterns compiles one label matcher per slot. Accepted labels:
// {Character 1}, {Character_1}, {Character1}, Character{1}, Character 1,
// {1}, and a bare slot number at the start of a line.
func buildLabelPatterns() [model.Slots]*regexp.Regexp {
	var patterns [model.Slots]*regexp.Regexp
	for i := range patterns {
		n := i + 1
		label := fmt.Sprintf(
			`(?:\{(?:character[_ ]?)?%[1]d\}|\bcharacter[_ ]?\{%[1]d\}|\bcharacter[_ ]%[1]d|(?m:^)[ \t*#-]*%[1]d)(?:[.:,]|[ \t])`+
				`|\{(?:character[_ ]?)?%[1]d[.: ]|\bcharacter_%[1]d[.:]`,
			n)
		patterns[i] = regexp.MustCompile(`(?is)(?:` + label + `)\s*(.*?)(?:\r\n|\r|\n|$)`)
	}
	return patterns
}

// StripBoilerplate removes list headers that would otherwise sit ahead of the first block
func StripBoilerplate(response string) string {
	return boilerplatePattern.ReplaceAllString(response, "")
}

// ExtractBlock returns the text describing one character slot.
// The label pattern is tried first, then the {character_number} placeholder split.
func ExtractBlock(response string, slot int) (string, bool) {
	if slot < 1 || slot > model.Slots {
		return "", false
	}

	for _, match := range []func(string, int) string{labelBlock, placeholderBlock} {
		if block := match(response, slot); block != "" {
			return block, true
		}
	}
	return "", false
}

func labelBlock(response string, slot int) string {
	m := labelPatterns[slot-1].FindStringSubmatch(response)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func placeholderBlock(response string, slot int) string {
	segments := placeholderPattern.Split(response, -1)
	if len(segments) <= slot {
		return ""
	}
	return strings.Trim(segments[slot], " \t\r\n.:,")
}
