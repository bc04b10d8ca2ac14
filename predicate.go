package simjoin

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/echoface/simjoin/tokenizer"
	"github.com/echoface/simjoin/util"
)

type (
	// Predicate decide whether a left and a right record match
	Predicate interface {
		Evaluate(left, right *Record) (bool, error)
	}

	// PredicateFunc adapt a plain function into Predicate
	PredicateFunc func(left, right *Record) (bool, error)

	// MeasurePredicate a measure/operator/threshold rule over two attributes
	MeasurePredicate struct {
		LeftAttr     string
		RightAttr    string
		Measure      Measure
		Operator     Operator
		Threshold    float64
		AllowMissing bool

		tk tokenizer.Tokenizer
	}
)

func (fn PredicateFunc) Evaluate(left, right *Record) (bool, error) {
	return fn(left, right)
}

// NewMeasurePredicate any operator is accepted since nothing is indexed
func NewMeasurePredicate(settings JoinSettings) (*MeasurePredicate, error) {
	settings.setDefaults()
	if !settings.Measure.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMeasure, settings.Measure)
	}
	if _, err := ParseOperator(string(settings.Operator)); err != nil {
		return nil, err
	}
	tk, err := tokenizer.New(settings.Tokenizer)
	if err != nil {
		return nil, err
	}
	return &MeasurePredicate{
		LeftAttr:     settings.LeftAttr,
		RightAttr:    settings.RightAttr,
		Measure:      settings.Measure,
		Operator:     settings.Operator,
		Threshold:    settings.Threshold,
		AllowMissing: settings.Missing == MissingIncludeAsMatch,
		tk:           tk,
	}, nil
}

// Score the measure of two records, ok is false when one side is missing
func (p *MeasurePredicate) Score(left, right *Record) (score float64, ok bool, err error) {
	lv, lok := left.Value(p.LeftAttr)
	rv, rok := right.Value(p.RightAttr)
	if !lok || !rok {
		return 0, false, nil
	}
	ls, lstr := lv.(string)
	rs, rstr := rv.(string)
	if !lstr || !rstr {
		return 0, false, fmt.Errorf("pair <%s,%s> %w", left.ID, right.ID, ErrNonStringValue)
	}
	score, err = Similarity(p.Measure, p.tk, ls, rs)
	return score, err == nil, err
}

func (p *MeasurePredicate) Evaluate(left, right *Record) (bool, error) {
	score, ok, err := p.Score(left, right)
	if err != nil {
		return false, err
	}
	if !ok {
		return p.AllowMissing, nil
	}
	return p.Operator.Compare(score, p.Threshold), nil
}

// BlackBoxJoin evaluate pred on every (left, right) pair, nothing can be
// indexed so the cost is the full cross product
func BlackBoxJoin(ctx context.Context, left, right *Table, pred Predicate, opts ...JoinOpt) (*CandidateSet, error) {
	if left == nil || right == nil {
		return nil, ErrNilTable
	}
	if err := left.Validate(); err != nil {
		return nil, err
	}
	if err := right.Validate(); err != nil {
		return nil, err
	}
	jc := newJoinContext(opts...)

	chunks := util.Chunk(right.Len(), jc.workers)
	buffers := make([]*pairBuffer, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jc.workers)
	for ci, chunk := range chunks {
		chunk := chunk
		buffer := &pairBuffer{}
		buffers[ci] = buffer
		g.Go(func() error {
			for r := chunk[0]; r < chunk[1]; r++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				rrec := &right.Records[r]
				for l := range left.Records {
					ok, err := pred.Evaluate(&left.Records[l], rrec)
					if err != nil {
						return newRecordError(StageVerify, right.Name, rrec.ID, "", err)
					}
					if ok {
						buffer.add(l, r, 0)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var stats JoinStats
	pairs := mergeBuffers(buffers, nil, &stats)
	sortMatched(pairs)

	out := NewCandidateSet()
	for _, p := range pairs {
		out.Add(left.Records[p.l].ID, right.Records[p.r].ID)
	}
	return out, nil
}

// ApplyPredicate keep the candidate pairs satisfying pred, candidate order is
// preserved
func ApplyPredicate(ctx context.Context, cands *CandidateSet, left, right *Table, pred Predicate) (*CandidateSet, error) {
	if left == nil || right == nil {
		return nil, ErrNilTable
	}
	if err := left.Validate(); err != nil {
		return nil, err
	}
	if err := right.Validate(); err != nil {
		return nil, err
	}
	out := NewCandidateSet()
	for i, p := range cands.Pairs() {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		lrec, ok := left.Get(p.LeftID)
		if !ok {
			return nil, fmt.Errorf("left id:%s %w", p.LeftID, ErrUnknownRecordID)
		}
		rrec, ok := right.Get(p.RightID)
		if !ok {
			return nil, fmt.Errorf("right id:%s %w", p.RightID, ErrUnknownRecordID)
		}
		matched, err := pred.Evaluate(lrec, rrec)
		if err != nil {
			return nil, newRecordError(StageVerify, left.Name, p.LeftID, "", err)
		}
		if matched {
			out.Add(p.LeftID, p.RightID)
		}
	}
	return out, nil
}
