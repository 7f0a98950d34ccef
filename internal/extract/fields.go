package extract

import (
	"regexp"
	"strings"
)

const wordClass = `[\p{L}\p{M}\p{N}_]+`

var (
	explicitNamePattern   = regexp.MustCompile(`(?i)\bname:\s*(` + wordClass + `)`)
	leadingNamePattern    = regexp.MustCompile(`^\s*(\p{Lu}[\p{L}\p{M}'’-]*(?:[ \t]+\p{Lu}[\p{L}\p{M}'’-]*)*)\s*[,:]\s*(?i:gender:\s*)?(?i:(?:fe)?male)\b`)
	explicitGenderPattern = regexp.MustCompile(`(?i)\bgender:\s*(` + wordClass + `)`)
	bareGenderPattern     = regexp.MustCompile(`(?i)\b(female|male)\b`)
)

// fieldMatcher returns a value found in a block, or "" when it has nothing
type fieldMatcher func(block string) string

var (
	nameMatchers   = []fieldMatcher{explicitName, leadingName}
	genderMatchers = []fieldMatcher{explicitGender, bareGender}
)

// MatchName recovers a character name from its block without operator help
func MatchName(block string) (string, bool) {
	return firstMatch(nameMatchers, block)
}

// MatchGender recovers a character gender from its block without operator help
func MatchGender(block string) (string, bool) {
	return firstMatch(genderMatchers, block)
}

func firstMatch(matchers []fieldMatcher, block string) (string, bool) {
	for _, match := range matchers {
		if v := match(block); v != "" {
			return v, true
		}
	}
	return "", false
}

func explicitName(block string) string {
	return submatch(explicitNamePattern, block)
}

func leadingName(block string) string {
	return strings.TrimSpace(submatch(leadingNamePattern, block))
}

func explicitGender(block string) string {
	return strings.ToLower(submatch(explicitGenderPattern, block))
}

func bareGender(block string) string {
	return strings.ToLower(submatch(bareGenderPattern, block))
}

func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}
