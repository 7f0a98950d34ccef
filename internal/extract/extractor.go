package extract

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/reference"
	"github.com/ppiankov/storybias/internal/validate"
)

// Options toggles optional extraction behaviour
type Options struct {
	// AliasMatching adds an alias-table criminal strategy between the
	// exact origin strategy and the name strategy
	AliasMatching bool
}

// Input is one response with the scenario it was generated for
type Input struct {
	Key      model.RecordKey
	Response string
	Scenario model.Scenario
}

// Extractor turns free-text responses into records.
// It holds only read-only state and is safe for concurrent use if its Oracle is.
type Extractor struct {
	table   *reference.Table
	aliases *reference.Resolver
	oracle  Oracle
	opts    Options
}

// New creates an extractor. A nil oracle leaves every unmatched field unknown.
func New(table *reference.Table, aliases *reference.Resolver, oracle Oracle, opts Options) *Extractor {
	return &Extractor{
		table:   table,
		aliases: aliases,
		oracle:  oracle,
		opts:    opts,
	}
}

// Extract builds the record for one response.
// Soft misses end as unknown fields; hard failures are returned as *RecordError.
func (e *Extractor) Extract(ctx context.Context, in Input) (*model.Record, error) {
	if err := validate.Scenario(in.Scenario); err != nil {
		return nil, &RecordError{Key: in.Key, Stage: StageScenario, Err: err}
	}

	response := StripBoilerplate(in.Response)

	var chars [model.Slots]model.CharacterFact
	for slot := 1; slot <= model.Slots; slot++ {
		fact, err := e.character(ctx, in, response, slot)
		if err != nil {
			return nil, err
		}
		chars[slot-1] = fact
	}

	criminal, err := e.criminal(ctx, in, response, chars)
	if err != nil {
		return nil, &RecordError{Key: in.Key, Stage: StageCriminal, Err: err}
	}

	var class *Classification
	if criminal != 0 {
		c, err := Classify(criminal, in.Scenario, e.table)
		if err != nil {
			return nil, &RecordError{Key: in.Key, Stage: StageClassify, Err: err}
		}
		class = &c
	}

	return Assemble(in.Key, in.Scenario, chars, criminal, class), nil
}

func (e *Extractor) character(ctx context.Context, in Input, response string, slot int) (model.CharacterFact, error) {
	var fact model.CharacterFact

	block, ok := ExtractBlock(response, slot)
	if !ok {
		return fact, nil
	}

	name, ok := MatchName(block)
	if !ok {
		var err error
		name, err = e.ask(ctx, Query{
			Kind:     QueryName,
			Key:      in.Key,
			Slot:     slot,
			Context:  block,
			Scenario: in.Scenario,
			Validate: nameValidator(block),
		})
		if err != nil {
			return fact, &RecordError{Key: in.Key, Stage: StageName, Err: err}
		}
	}

	gender, ok := MatchGender(block)
	if !ok {
		var err error
		gender, err = e.ask(ctx, Query{
			Kind:     QueryGender,
			Key:      in.Key,
			Slot:     slot,
			Context:  block,
			Scenario: in.Scenario,
			Validate: genderValidator(block),
		})
		if err != nil {
			return fact, &RecordError{Key: in.Key, Stage: StageGender, Err: err}
		}
	}

	fact.Name = name
	fact.Gender = gender
	return fact, nil
}

func (e *Extractor) criminal(ctx context.Context, in Input, response string, chars [model.Slots]model.CharacterFact) (int, error) {
	for _, match := range e.criminalMatchers() {
		if slot := match(response, in.Scenario, chars); slot != 0 {
			return slot, nil
		}
	}

	answer, err := e.ask(ctx, Query{
		Kind:     QueryCriminal,
		Key:      in.Key,
		Context:  FinalSentence(response),
		Scenario: in.Scenario,
		Validate: criminalValidator,
	})
	if err != nil || answer == "" {
		return 0, err
	}
	return strconv.Atoi(answer)
}

// ask consults the oracle and re-validates its answer.
// An unresolved answer is returned as "" with a nil error.
func (e *Extractor) ask(ctx context.Context, q Query) (string, error) {
	if e.oracle == nil {
		return "", nil
	}

	answer, err := e.oracle.Resolve(ctx, q)
	if errors.Is(err, ErrUnresolved) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	valid, err := q.Validate(answer)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}
	return valid, nil
}

// Assemble builds the flat record. Criminal fields are populated exactly when criminal is known.
func Assemble(key model.RecordKey, s model.Scenario, chars [model.Slots]model.CharacterFact, criminal int, class *Classification) *model.Record {
	rec := &model.Record{
		Key:        key,
		Location:   s.Location,
		Origins:    s.Origins,
		Religions:  s.Religions,
		Characters: chars,
	}

	if criminal < 1 || criminal > model.Slots || class == nil {
		return rec
	}

	migrant := class.IsMigrant
	rec.Criminal = criminal
	rec.CriminalIsMigrant = &migrant
	rec.CriminalRegion = class.Region
	rec.CriminalReligion = class.Religion
	return rec
}
