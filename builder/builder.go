// Package builder holds the verification builder: the process-local
// resource queues and running accumulator that the plan interpreter drains
// and feeds while walking a proof plan.
package builder

import (
	"errors"

	"github.com/vocdoni/sqlsnark-verify/field"
)

var (
	ErrTooFewChallenges     = errors.New("builder: too few challenges")
	ErrTooFewFirstRoundMLEs = errors.New("builder: too few first-round MLEs")
	ErrTooFewFinalRoundMLEs = errors.New("builder: too few final-round MLEs")
	ErrTooFewChiEvaluations = errors.New("builder: too few chi evaluations")
	ErrTooFewRhoEvaluations = errors.New("builder: too few rho evaluations")
)

// Builder is the per-verification resource bundle: FIFO queues drained
// left to right by expression evaluators, plus an aggregate accumulator.
type Builder struct {
	MaxDegree int

	challenges            []field.Element
	firstRoundMLEs        []field.Element
	finalRoundMLEs        []field.Element
	chiEvaluations        []field.Element
	rhoEvaluations        []field.Element
	tableChiEvaluations   []field.Element
	constraintMultipliers []field.Element

	RowMultipliersEvaluation field.Element
	AggregateEvaluation      field.Element
}

// New allocates a Builder with the given fixed-length resources. All slices
// are owned by the Builder and consumed front to back.
func New(maxDegree int, challenges, firstRoundMLEs, finalRoundMLEs, chiEvaluations, rhoEvaluations, tableChiEvaluations, constraintMultipliers []field.Element, rowMultipliersEvaluation field.Element) *Builder {
	return &Builder{
		MaxDegree:                maxDegree,
		challenges:               challenges,
		firstRoundMLEs:           firstRoundMLEs,
		finalRoundMLEs:           finalRoundMLEs,
		chiEvaluations:           chiEvaluations,
		rhoEvaluations:           rhoEvaluations,
		tableChiEvaluations:      tableChiEvaluations,
		constraintMultipliers:    constraintMultipliers,
		RowMultipliersEvaluation: rowMultipliersEvaluation,
		AggregateEvaluation:      field.Zero(),
	}
}

func pop(q *[]field.Element, errTooFew error) (field.Element, error) {
	if len(*q) == 0 {
		return field.Element{}, errTooFew
	}
	v := (*q)[0]
	*q = (*q)[1:]
	return v, nil
}

// ConsumeChallenge drains the next challenge.
func (b *Builder) ConsumeChallenge() (field.Element, error) {
	return pop(&b.challenges, ErrTooFewChallenges)
}

// ConsumeFirstRoundMLE drains the next first-round MLE evaluation.
func (b *Builder) ConsumeFirstRoundMLE() (field.Element, error) {
	return pop(&b.firstRoundMLEs, ErrTooFewFirstRoundMLEs)
}

// ConsumeFinalRoundMLE drains the next final-round MLE evaluation.
func (b *Builder) ConsumeFinalRoundMLE() (field.Element, error) {
	return pop(&b.finalRoundMLEs, ErrTooFewFinalRoundMLEs)
}

// ConsumeChiEvaluation drains the next precomputed chi evaluation.
func (b *Builder) ConsumeChiEvaluation() (field.Element, error) {
	return pop(&b.chiEvaluations, ErrTooFewChiEvaluations)
}

// ConsumeRhoEvaluation drains the next precomputed rho evaluation.
func (b *Builder) ConsumeRhoEvaluation() (field.Element, error) {
	return pop(&b.rhoEvaluations, ErrTooFewRhoEvaluations)
}

// ConsumeConstraintMultiplier drains the next constraint multiplier, a
// fresh transcript challenge supplied by the orchestrator before plan
// evaluation.
func (b *Builder) ConsumeConstraintMultiplier() (field.Element, error) {
	return pop(&b.constraintMultipliers, ErrTooFewChallenges)
}

// TableChiEvaluation returns the precomputed truncated Lagrange sum for
// table t.
func (b *Builder) TableChiEvaluation(t int) field.Element {
	return b.tableChiEvaluations[t]
}

// NumTables returns how many table chi evaluations were precomputed, so a
// plan-supplied table index can be bounds-checked before use.
func (b *Builder) NumTables() int {
	return len(b.tableChiEvaluations)
}

// Aggregate folds v into the running accumulator: aggregate += v.
func (b *Builder) Aggregate(v field.Element) {
	b.AggregateEvaluation = field.Add(b.AggregateEvaluation, v)
}

// AllDrained reports whether every FIFO has been fully consumed: the
// terminal invariant the orchestrator checks after plan evaluation.
func (b *Builder) AllDrained() bool {
	return len(b.challenges) == 0 &&
		len(b.firstRoundMLEs) == 0 &&
		len(b.finalRoundMLEs) == 0 &&
		len(b.chiEvaluations) == 0 &&
		len(b.rhoEvaluations) == 0 &&
		len(b.constraintMultipliers) == 0
}
