package stats

import (
	"fmt"
	"strconv"

	"github.com/ppiankov/storybias/internal/model"
)

// AgreementColumns are the criminal attributes compared between rounds
var AgreementColumns = []string{"criminal", "criminal_is_migrant", "religion", "region", "gender", "origin"}

// columnValue returns the value of an agreement column for a record, or
// false when the record has no usable value
func columnValue(rec *model.Record, column string) (string, bool) {
	if !rec.HasCriminal() {
		return "", false
	}
	var v string
	switch column {
	case "criminal":
		v = strconv.Itoa(rec.Criminal)
	case "criminal_is_migrant":
		if rec.CriminalIsMigrant == nil {
			return "", false
		}
		v = strconv.FormatBool(*rec.CriminalIsMigrant)
	case "religion":
		v = rec.Religions[rec.Criminal-1]
	case "region":
		v = rec.CriminalRegion
	case "gender":
		v = rec.Characters[rec.Criminal-1].Gender
	case "origin":
		v = rec.CriminalOrigin()
	}
	return v, v != ""
}

// Agreement computes Cohen's kappa for every pair of rounds over every
// agreement column. Records are paired by prompt index; a pair is skipped
// when either side has no value for the column.
func Agreement(rounds []Round) []model.Agreement {
	var out []model.Agreement
	for _, column := range AgreementColumns {
		for i := 0; i < len(rounds); i++ {
			for j := i + 1; j < len(rounds); j++ {
				a, b := pairColumn(rounds[i].Records, rounds[j].Records, column)
				out = append(out, agreement(column, rounds[i].Number, rounds[j].Number, a, b))
			}
		}
	}
	return out
}

func pairColumn(left, right []*model.Record, column string) ([]string, []string) {
	byIndex := make(map[int]*model.Record, len(right))
	for _, rec := range right {
		byIndex[rec.Key.Index] = rec
	}

	var a, b []string
	for _, l := range left {
		r, ok := byIndex[l.Key.Index]
		if !ok {
			continue
		}
		lv, lok := columnValue(l, column)
		rv, rok := columnValue(r, column)
		if !lok || !rok {
			continue
		}
		a = append(a, lv)
		b = append(b, rv)
	}
	return a, b
}

func agreement(column string, first, second int, a, b []string) model.Agreement {
	ag := model.Agreement{
		Column:    column,
		RaterPair: fmt.Sprintf("Rater_%d_vs_Rater_%d", first, second),
		N:         len(a),
	}
	kappa, err := CohenKappa(a, b)
	if err != nil {
		ag.Error = err.Error()
		return ag
	}
	ag.Kappa = kappa
	ag.Defined = true
	return ag
}

// CohenKappa returns Cohen's kappa for two aligned label sequences
func CohenKappa(a, b []string) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("label sequences differ in length: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("no comparable records")
	}

	n := float64(len(a))
	countA := make(map[string]float64)
	countB := make(map[string]float64)
	agree := 0.0
	for i := range a {
		countA[a[i]]++
		countB[b[i]]++
		if a[i] == b[i] {
			agree++
		}
	}

	observed := agree / n
	expected := 0.0
	for label, ca := range countA {
		expected += (ca / n) * (countB[label] / n)
	}

	if expected == 1 {
		return 0, fmt.Errorf("kappa undefined: expected agreement is 1")
	}
	return (observed - expected) / (1 - expected), nil
}
