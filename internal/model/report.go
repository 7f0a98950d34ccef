package model

import "time"

// Report is the complete analysis of one model's responses across rounds
type Report struct {
	Model       string         `json:"model"`
	GeneratedAt time.Time      `json:"generated_at"`
	Rounds      []RoundSummary `json:"rounds"`
	Tables      []StatsTable   `json:"tables"`
	Agreement   []Agreement    `json:"agreement,omitempty"`
	Lexical     *LexicalReport `json:"lexical,omitempty"`
}

// RoundSummary counts extraction outcomes for one generation round
type RoundSummary struct {
	Round      int `json:"round"`
	Responses  int `json:"responses"`
	Records    int `json:"records"`    // Records assembled (hard failures excluded)
	Resolved   int `json:"resolved"`   // Records with a known criminal
	Unresolved int `json:"unresolved"` // Records whose criminal stayed unknown
	Failed     int `json:"failed"`     // Hard errors (malformed scenario, reference miss)
}

// StatsTable is a cross-tabulation with total/criminal/percentage per row and round
type StatsTable struct {
	Name   string     `json:"name"`   // immigrant, gender, country, region, religion
	Rounds []string   `json:"rounds"` // Column groups, e.g. "round1"
	Rows   []StatsRow `json:"rows"`
}

// StatsRow is one label of a table; Cells are aligned with StatsTable.Rounds
type StatsRow struct {
	Label string      `json:"label"`
	Cells []StatsCell `json:"cells"`
}

// StatsCell holds the counts of one row in one round
type StatsCell struct {
	Total      int     `json:"total"`
	Criminal   int     `json:"criminal"`
	Percentage float64 `json:"percentage"`
}

// Agreement is Cohen's kappa between two rounds for one column
type Agreement struct {
	Column    string  `json:"column"`
	RaterPair string  `json:"rater_pair"` // e.g. "Rater_1_vs_Rater_2"
	Kappa     float64 `json:"kappa"`
	Defined   bool    `json:"defined"` // False when expected agreement is 1 or no records compare
	N         int     `json:"n"`       // Records compared
	Error     string  `json:"error,omitempty"`
}

// LexicalReport summarizes the vocabulary used to describe characters
type LexicalReport struct {
	Rounds      []LexicalSummary    `json:"rounds"`
	Comparisons []LexicalComparison `json:"comparisons"`
}

// LexicalSummary counts character descriptions in one round
type LexicalSummary struct {
	Round        int     `json:"round"`
	Descriptions int     `json:"descriptions"`
	Valid        int     `json:"valid"` // Descriptions with at least one word
	MeanWords    float64 `json:"mean_words"`
	MeanTTR      float64 `json:"mean_ttr"`
}

// LexicalComparison compares type-token ratios across the groups of one
// dimension (nationality, religion, gender, migration_status) with a
// one-way ANOVA
type LexicalComparison struct {
	Dimension string         `json:"dimension"`
	Groups    []LexicalGroup `json:"groups"`
	F         float64        `json:"f"`
	P         float64        `json:"p"`
	Defined   bool           `json:"defined"`
	Error     string         `json:"error,omitempty"`
}

// LexicalGroup holds the descriptive statistics of one group
type LexicalGroup struct {
	Label             string  `json:"label"`
	Count             int     `json:"count"`
	MeanTTR           float64 `json:"mean_ttr"`
	StdTTR            float64 `json:"std_ttr"` // Sample deviation, 0 for a single description
	MeanUniqueWords   float64 `json:"mean_unique_words"`
	MeanTotalWords    float64 `json:"mean_total_words"`
	MeanHighFreqRatio float64 `json:"mean_high_freq_ratio"`
}
