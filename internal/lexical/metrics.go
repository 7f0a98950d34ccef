package lexical

import (
	"regexp"
	"strings"
)

// Window is the moving-average TTR window in words
const Window = 50

var (
	sentenceBreak = regexp.MustCompile(`[.!?]+`)
	wordPattern   = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// Function words left out of the diversity metrics
var stopWords = toSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "by", "from", "as", "is", "was", "were", "been", "be",
	"have", "has", "had", "do", "does", "did", "will", "would", "could",
	"should", "may", "might", "must", "can", "this", "that", "these", "those",
	"i", "you", "he", "she", "it", "we", "they", "my", "your", "his", "her",
)

// Roughly the hundred most common English words
var commonWords = toSet(
	"the", "be", "to", "of", "and", "in", "that", "have", "it", "for",
	"not", "on", "with", "he", "as", "you", "do", "at", "this", "but",
	"his", "by", "from", "they", "we", "say", "her", "she", "or", "an",
	"will", "my", "one", "all", "would", "there", "their", "what", "was",
	"were", "been", "has", "had", "who", "when", "where", "why", "how",
	"about", "after", "before", "because", "between", "through", "during",
	"good", "new", "first", "last", "long", "great", "little", "own", "other",
	"old", "right", "big", "high", "different", "small", "large", "next",
	"man", "woman", "people", "person", "child", "family", "friend", "life",
	"time", "year", "day", "way", "world", "work", "place", "home", "hand",
	"know", "take", "come", "think", "see", "get", "make", "go", "look",
	"want", "give", "use", "find", "tell", "ask", "seem", "feel",
)

// Metrics are the vocabulary statistics of one description
type Metrics struct {
	TTR           float64 // unique / total content words
	MATTR         float64 // mean TTR over every Window-word window
	HapaxRatio    float64 // words used once / unique words
	TotalWords    int
	UniqueWords   int
	AvgWordLength float64
	HighFreqRatio float64 // share of common English words among words longer than two letters
	RareWordRatio float64
}

// Describe returns the sentences of response that mention name as a whole
// word, ignoring case, joined by single spaces
func Describe(response, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || response == "" {
		return ""
	}
	mention, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return ""
	}

	var sentences []string
	for _, sentence := range sentenceBreak.Split(response, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence != "" && mention.MatchString(sentence) {
			sentences = append(sentences, sentence)
		}
	}
	return strings.Join(sentences, " ")
}

// Measure computes the metrics of a description. Empty text yields zero metrics.
func Measure(text string) Metrics {
	words := tokenize(text)
	if len(words) == 0 {
		return Metrics{}
	}

	var m Metrics
	m.HighFreqRatio, m.RareWordRatio = frequencyProfile(words)

	content := make([]string, 0, len(words))
	for _, w := range words {
		if !stopWords[w] && len(w) > 2 {
			content = append(content, w)
		}
	}
	if len(content) == 0 {
		content = words
	}

	counts := make(map[string]int, len(content))
	letters := 0
	for _, w := range content {
		counts[w]++
		letters += len(w)
	}
	hapax := 0
	for _, n := range counts {
		if n == 1 {
			hapax++
		}
	}

	m.TotalWords = len(content)
	m.UniqueWords = len(counts)
	m.TTR = float64(m.UniqueWords) / float64(m.TotalWords)
	m.MATTR = movingTTR(content, min(Window, len(content)))
	m.HapaxRatio = float64(hapax) / float64(m.UniqueWords)
	m.AvgWordLength = float64(letters) / float64(m.TotalWords)
	return m
}

// tokenize lowercases text and keeps the words made only of ASCII letters
func tokenize(text string) []string {
	var words []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if asciiLetters(w) {
			words = append(words, w)
		}
	}
	return words
}

func frequencyProfile(words []string) (high, rare float64) {
	total, common := 0, 0
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		total++
		if commonWords[w] {
			common++
		}
	}
	if total == 0 {
		return 0, 0
	}
	high = float64(common) / float64(total)
	return high, 1 - high
}

// movingTTR slides a window of size n over words, one word at a time
func movingTTR(words []string, n int) float64 {
	counts := make(map[string]int, n)
	for _, w := range words[:n] {
		counts[w]++
	}
	sum := float64(len(counts)) / float64(n)
	windows := 1

	for i := n; i < len(words); i++ {
		out := words[i-n]
		if counts[out]--; counts[out] == 0 {
			delete(counts, out)
		}
		counts[words[i]]++
		sum += float64(len(counts)) / float64(n)
		windows++
	}
	return sum / float64(windows)
}

func asciiLetters(w string) bool {
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return false
		}
	}
	return true
}

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
