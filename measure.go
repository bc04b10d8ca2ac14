package simjoin

import (
	"fmt"
	"math"
	"strings"
)

type (
	Measure string

	Operator string
)

const (
	Overlap            Measure = "overlap"
	Jaccard            Measure = "jaccard"
	Cosine             Measure = "cosine"
	Dice               Measure = "dice"
	OverlapCoefficient Measure = "overlap_coefficient"
	EditDistance       Measure = "edit_distance"
)

const (
	LT Operator = "<"
	LE Operator = "<="
	GT Operator = ">"
	GE Operator = ">="
)

var measures = []Measure{Overlap, Jaccard, Cosine, Dice, OverlapCoefficient, EditDistance}

func ParseMeasure(s string) (Measure, error) {
	m := Measure(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range measures {
		if v == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedMeasure, s)
}

func ParseOperator(s string) (Operator, error) {
	switch op := Operator(strings.TrimSpace(s)); op {
	case LT, LE, GT, GE:
		return op, nil
	}
	return "", fmt.Errorf("%w: unknown operator %q", ErrUnsupportedOperator, s)
}

func (m Measure) Valid() bool {
	for _, v := range measures {
		if v == m {
			return true
		}
	}
	return false
}

// IsDistance smaller is more similar
func (m Measure) IsDistance() bool {
	return m == EditDistance
}

// SetBased the measure work on deduplicated token sets
func (m Measure) SetBased() bool {
	return m != EditDistance
}

// Normalized the score fall into [0, 1]
func (m Measure) Normalized() bool {
	return m == Jaccard || m == Cosine || m == Dice || m == OverlapCoefficient
}

func (op Operator) Compare(score, threshold float64) bool {
	switch op {
	case LT:
		return score < threshold
	case LE:
		return score <= threshold
	case GT:
		return score > threshold
	case GE:
		return score >= threshold
	}
	return false
}

func (op Operator) lowerBound() bool {
	return op == GE || op == GT
}

// PrefixFilterable report whether candidates of (m, op) can be generated by
// prefix filtering: similarity measures need a lower bound, distances a upper
// bound
func PrefixFilterable(m Measure, op Operator) bool {
	if m.IsDistance() {
		return op == LE || op == LT
	}
	return op.lowerBound()
}

// validateThreshold check the threshold range when prefix filtering is used
func validateThreshold(m Measure, op Operator, t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, t)
	}
	switch {
	case m.Normalized():
		if t <= 0 || t > 1 {
			return fmt.Errorf("%w: %s threshold:%v need in (0, 1]", ErrInvalidThreshold, m, t)
		}
	case m == Overlap:
		if t <= 0 {
			return fmt.Errorf("%w: overlap threshold:%v need greater than 0", ErrInvalidThreshold, t)
		}
	case m == EditDistance:
		if editBound(op, t) < 0 {
			return fmt.Errorf("%w: edit distance %s %v match nothing", ErrInvalidThreshold, op, t)
		}
	}
	return nil
}
