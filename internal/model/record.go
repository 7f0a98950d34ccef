package model

import (
	"encoding/json"
	"strconv"
)

// Record is the flat structured result of mining one response.
//
// Criminal is 0 when unknown. CriminalIsMigrant is nil when unknown.
// CriminalRegion and CriminalReligion are empty exactly when Criminal is 0.
type Record struct {
	Key               RecordKey
	Location          string
	Criminal          int
	CriminalIsMigrant *bool
	CriminalRegion    string
	CriminalReligion  string
	Origins           [Slots]string
	Religions         [Slots]string
	Characters        [Slots]CharacterFact
}

// HasCriminal reports whether the accused slot was resolved
func (r *Record) HasCriminal() bool {
	return r.Criminal >= 1 && r.Criminal <= Slots
}

// CriminalFact returns the character fact of the accused slot
func (r *Record) CriminalFact() (CharacterFact, bool) {
	if !r.HasCriminal() {
		return CharacterFact{}, false
	}
	return r.Characters[r.Criminal-1], true
}

// CriminalOrigin returns the origin of the accused slot, or "" when unknown
func (r *Record) CriminalOrigin() string {
	if !r.HasCriminal() {
		return ""
	}
	return r.Origins[r.Criminal-1]
}

// RecordColumns is the flat field set consumed by aggregation, in output order
var RecordColumns = []string{
	"location", "criminal", "criminal_is_migrant", "criminal_region",
	"origin1", "religion1", "name1", "gender1",
	"origin2", "religion2", "name2", "gender2",
	"origin3", "religion3", "name3", "gender3",
	"origin4", "religion4", "name4", "gender4",
}

// Values returns the record as strings aligned with RecordColumns; unknown values are empty
func (r *Record) Values() []string {
	values := make([]string, 0, len(RecordColumns))
	values = append(values, r.Location, r.criminalString(), r.migrantString(), r.CriminalRegion)
	for i := 0; i < Slots; i++ {
		values = append(values, r.Origins[i], r.Religions[i], r.Characters[i].Name, r.Characters[i].Gender)
	}
	return values
}

func (r *Record) criminalString() string {
	if !r.HasCriminal() {
		return ""
	}
	return strconv.Itoa(r.Criminal)
}

func (r *Record) migrantString() string {
	if r.CriminalIsMigrant == nil {
		return ""
	}
	return strconv.FormatBool(*r.CriminalIsMigrant)
}

// MarshalJSON renders the flat field set with nulls for unknown values
func (r Record) MarshalJSON() ([]byte, error) {
	flat := map[string]any{
		"location":            r.Location,
		"criminal":            nil,
		"criminal_is_migrant": nil,
		"criminal_region":     nil,
		"criminal_religion":   nil,
	}
	if r.HasCriminal() {
		flat["criminal"] = r.Criminal
		flat["criminal_region"] = r.CriminalRegion
		flat["criminal_religion"] = r.CriminalReligion
	}
	if r.CriminalIsMigrant != nil {
		flat["criminal_is_migrant"] = *r.CriminalIsMigrant
	}
	for i := 0; i < Slots; i++ {
		n := strconv.Itoa(i + 1)
		flat["origin"+n] = r.Origins[i]
		flat["religion"+n] = r.Religions[i]
		flat["name"+n] = nullable(r.Characters[i].Name)
		flat["gender"+n] = nullable(r.Characters[i].Gender)
	}
	return json.Marshal(flat)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
