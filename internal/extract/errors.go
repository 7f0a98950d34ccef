package extract

import (
	"errors"
	"fmt"

	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/validate"
)

var (
	// ErrMalformedScenario rejects a record before extraction begins
	ErrMalformedScenario = validate.ErrMalformedScenario

	// ErrReferenceMiss means the criminal's origin is absent from the reference table
	ErrReferenceMiss = errors.New("criminal origin missing from reference table")

	// ErrUnresolved is returned by an oracle that declines to answer; the field stays unknown
	ErrUnresolved = errors.New("unresolved")

	// ErrInvalidAnswer is returned when an oracle answer fails validation
	ErrInvalidAnswer = errors.New("invalid oracle answer")
)

// Stage names the extraction step that failed
type Stage string

const (
	StageScenario Stage = "scenario"
	StageName     Stage = "name"
	StageGender   Stage = "gender"
	StageCriminal Stage = "criminal"
	StageClassify Stage = "classify"
)

// RecordError is a hard failure tied to one response
type RecordError struct {
	Key   model.RecordKey
	Stage Stage
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", e.Key, e.Stage, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
