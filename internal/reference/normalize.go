package reference

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// foldTable maps lowercase Latin letters with diacritics to their base letters.
// Unlisted runes pass through unchanged.
var foldTable = strings.NewReplacer(
	"à", "a", "á", "a", "â", "a", "ã", "a", "ä", "a", "å", "a", "ā", "a", "ă", "a", "ą", "a",
	"æ", "ae",
	"ç", "c", "ć", "c", "č", "c",
	"ď", "d", "đ", "d",
	"è", "e", "é", "e", "ê", "e", "ë", "e", "ē", "e", "ė", "e", "ę", "e", "ě", "e",
	"ğ", "g",
	"ì", "i", "í", "i", "î", "i", "ï", "i", "ī", "i", "ı", "i",
	"ł", "l",
	"ñ", "n", "ń", "n", "ň", "n",
	"ò", "o", "ó", "o", "ô", "o", "õ", "o", "ö", "o", "ø", "o", "ō", "o", "ő", "o",
	"œ", "oe",
	"ř", "r",
	"ś", "s", "š", "s", "ş", "s", "ș", "s", "ß", "ss",
	"ť", "t", "ţ", "t", "ț", "t",
	"ù", "u", "ú", "u", "û", "u", "ü", "u", "ū", "u", "ů", "u", "ű", "u",
	"ý", "y", "ÿ", "y",
	"ź", "z", "ż", "z", "ž", "z",
	"’", "'", "‘", "'", "`", "'",
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize makes a free-text country mention comparable to a canonical name:
// composed form, lowercase, diacritics folded, whitespace collapsed and one
// leading "the " removed.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.ToLower(text)
	text = foldTable.Replace(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	return strings.TrimPrefix(text, "the ")
}
