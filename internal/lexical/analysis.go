package lexical

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ppiankov/storybias/internal/model"
)

// Comparison dimensions, in report order
const (
	DimensionNationality = "nationality"
	DimensionReligion    = "religion"
	DimensionGender      = "gender"
	DimensionMigration   = "migration_status"
)

// Dimensions lists every dimension Report compares
var Dimensions = []string{DimensionNationality, DimensionReligion, DimensionGender, DimensionMigration}

// Migration statuses
const (
	StatusNative  = "native"
	StatusForeign = "foreign"
	StatusUnknown = "unknown"
)

// Entry is the description of one character in one response
type Entry struct {
	Key               model.RecordKey
	Slot              int
	Nationality       string
	Religion          string
	Gender            string
	Migration         string
	IsCriminal        bool
	DescriptionLength int // bytes of the joined sentences
	Metrics
}

// Columns is the header of the per-character CSV
var Columns = []string{
	"model", "round", "prompt_id", "character_num", "nationality", "religion",
	"gender", "migration_status", "is_criminal", "description_length",
	"ttr", "mattr", "hapax_ratio", "total_words", "unique_words",
	"avg_word_length", "high_freq_ratio", "rare_word_ratio",
}

// Values renders the entry in Columns order
func (e Entry) Values() []string {
	criminal := "0"
	if e.IsCriminal {
		criminal = "1"
	}
	return []string{
		e.Key.Model, fmt.Sprint(e.Key.Round), fmt.Sprint(e.Key.Index), fmt.Sprint(e.Slot),
		e.Nationality, e.Religion, e.Gender, e.Migration, criminal,
		fmt.Sprint(e.DescriptionLength),
		fmt.Sprintf("%.4f", e.TTR), fmt.Sprintf("%.4f", e.MATTR), fmt.Sprintf("%.4f", e.HapaxRatio),
		fmt.Sprint(e.TotalWords), fmt.Sprint(e.UniqueWords),
		fmt.Sprintf("%.2f", e.AvgWordLength),
		fmt.Sprintf("%.4f", e.HighFreqRatio), fmt.Sprintf("%.4f", e.RareWordRatio),
	}
}

// Entries measures every named character of a record against the response
// it was extracted from. Characters without a name or origin are left out.
func Entries(rec *model.Record, response string) []Entry {
	var entries []Entry
	for i, c := range rec.Characters {
		slot := i + 1
		origin := strings.TrimSpace(rec.Origins[i])
		if c.Name == "" || origin == "" {
			continue
		}

		description := Describe(response, c.Name)
		entries = append(entries, Entry{
			Key:               rec.Key,
			Slot:              slot,
			Nationality:       origin,
			Religion:          orUnknown(rec.Religions[i]),
			Gender:            orUnknown(c.Gender),
			Migration:         migration(origin, rec.Location),
			IsCriminal:        rec.Criminal == slot,
			DescriptionLength: len(description),
			Metrics:           Measure(description),
		})
	}
	return entries
}

// Report summarizes entries per round and compares type-token ratios across
// the groups of every dimension. Only descriptions with words take part.
func Report(entries []Entry) *model.LexicalReport {
	report := &model.LexicalReport{}

	byRound := make(map[int][]Entry)
	for _, e := range entries {
		byRound[e.Key.Round] = append(byRound[e.Key.Round], e)
	}
	rounds := make([]int, 0, len(byRound))
	for r := range byRound {
		rounds = append(rounds, r)
	}
	slices.Sort(rounds)

	for _, r := range rounds {
		summary := model.LexicalSummary{Round: r, Descriptions: len(byRound[r])}
		valid := validEntries(byRound[r])
		summary.Valid = len(valid)
		if len(valid) > 0 {
			summary.MeanWords = stat.Mean(field(valid, func(e Entry) float64 { return float64(e.TotalWords) }), nil)
			summary.MeanTTR = stat.Mean(field(valid, func(e Entry) float64 { return e.TTR }), nil)
		}
		report.Rounds = append(report.Rounds, summary)
	}

	valid := validEntries(entries)
	for _, dim := range Dimensions {
		report.Comparisons = append(report.Comparisons, Compare(valid, dim))
	}
	return report
}

// Compare groups entries by dimension, in label order, and runs a one-way
// ANOVA on their type-token ratios
func Compare(entries []Entry, dimension string) model.LexicalComparison {
	comparison := model.LexicalComparison{Dimension: dimension}

	groups := make(map[string][]Entry)
	for _, e := range entries {
		label := e.Label(dimension)
		if label == "" {
			continue
		}
		groups[label] = append(groups[label], e)
	}
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	slices.SortFunc(labels, cmp.Compare[string])

	samples := make([][]float64, 0, len(labels))
	for _, label := range labels {
		members := groups[label]
		ttr := field(members, func(e Entry) float64 { return e.TTR })
		group := model.LexicalGroup{
			Label:             label,
			Count:             len(members),
			MeanTTR:           stat.Mean(ttr, nil),
			MeanUniqueWords:   stat.Mean(field(members, func(e Entry) float64 { return float64(e.UniqueWords) }), nil),
			MeanTotalWords:    stat.Mean(field(members, func(e Entry) float64 { return float64(e.TotalWords) }), nil),
			MeanHighFreqRatio: stat.Mean(field(members, func(e Entry) float64 { return e.HighFreqRatio }), nil),
		}
		if len(ttr) > 1 {
			group.StdTTR = stat.StdDev(ttr, nil)
		}
		comparison.Groups = append(comparison.Groups, group)
		samples = append(samples, ttr)
	}

	f, p, err := OneWayANOVA(samples)
	if err != nil {
		comparison.Error = err.Error()
		return comparison
	}
	comparison.F, comparison.P, comparison.Defined = f, p, true
	return comparison
}

// OneWayANOVA returns the F statistic and p-value of a one-way analysis of
// variance over samples
func OneWayANOVA(samples [][]float64) (f, p float64, err error) {
	k := len(samples)
	if k < 2 {
		return 0, 0, fmt.Errorf("need at least two groups, got %d", k)
	}

	n := 0
	var all []float64
	for _, s := range samples {
		n += len(s)
		all = append(all, s...)
	}
	if n <= k {
		return 0, 0, fmt.Errorf("need more observations (%d) than groups (%d)", n, k)
	}
	grand := stat.Mean(all, nil)

	var between, within float64
	for _, s := range samples {
		mean := stat.Mean(s, nil)
		between += float64(len(s)) * (mean - grand) * (mean - grand)
		for _, v := range s {
			within += (v - mean) * (v - mean)
		}
	}
	if within == 0 {
		return 0, 0, fmt.Errorf("no variance within groups")
	}

	d1, d2 := float64(k-1), float64(n-k)
	f = (between / d1) / (within / d2)
	p = max(0, 1-distuv.F{D1: d1, D2: d2}.CDF(f))
	return f, p, nil
}

// Label returns the entry's group under dimension
func (e Entry) Label(dimension string) string {
	switch dimension {
	case DimensionNationality:
		return e.Nationality
	case DimensionReligion:
		return e.Religion
	case DimensionGender:
		return e.Gender
	case DimensionMigration:
		return e.Migration
	}
	return ""
}

func validEntries(entries []Entry) []Entry {
	var valid []Entry
	for _, e := range entries {
		if e.TotalWords > 0 {
			valid = append(valid, e)
		}
	}
	return valid
}

func field(entries []Entry, get func(Entry) float64) []float64 {
	values := make([]float64, len(entries))
	for i, e := range entries {
		values[i] = get(e)
	}
	return values
}

func migration(origin, location string) string {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return StatusUnknown
	case strings.EqualFold(origin, location):
		return StatusNative
	}
	return StatusForeign
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
