package simjoin

import (
	"fmt"
	"math"
	"runtime"

	"github.com/echoface/simjoin/tokenizer"
)

type MissingPolicy string

const (
	// MissingExclude records with a null join value take no part in the join
	MissingExclude MissingPolicy = "exclude"
	// MissingIncludeAsMatch records with a null join value pair with every
	// record of the other side
	MissingIncludeAsMatch MissingPolicy = "include_as_match"
)

const (
	IDColumn    = "_id"
	ScoreColumn = "_sim_score"

	DefaultLeftOutPrefix  = "l_"
	DefaultRightOutPrefix = "r_"

	defaultGramLength = 2
)

type (
	// JoinSettings describe what a threshold join compute
	JoinSettings struct {
		LeftAttr  string
		RightAttr string

		Tokenizer tokenizer.Spec
		Measure   Measure
		Operator  Operator
		Threshold float64
		Missing   MissingPolicy

		LeftOutAttrs   []string
		RightOutAttrs  []string
		LeftOutPrefix  string
		RightOutPrefix string
		OutScore       bool

		// CoerceValues format non string join values instead of skipping them
		CoerceValues bool

		// BruteForceFallback run a all pairs verification when the
		// measure/operator pair can not be prefix filtered, fail otherwise
		BruteForceFallback bool
	}

	joinContext struct {
		workers       int
		partitionSize int

		bruteForce        bool
		dumpStepInfo      bool
		dumpEntriesDetail bool

		collector PairCollector
	}

	// JoinOpt control how a join execute, never what it compute
	JoinOpt func(ctx *joinContext)
)

// WithWorkers number of concurrent probing workers, default GOMAXPROCS
func WithWorkers(n int) JoinOpt {
	return func(ctx *joinContext) {
		ctx.workers = n
	}
}

// WithIndexPartitionSize split the indexed side into partitions of at most n
// records, only one partition index is alive at a time
func WithIndexPartitionSize(n int) JoinOpt {
	return func(ctx *joinContext) {
		ctx.partitionSize = n
	}
}

// WithBruteForce verify every pair without prefix filtering
func WithBruteForce() JoinOpt {
	return func(ctx *joinContext) {
		ctx.bruteForce = true
	}
}

func WithStepDetail() JoinOpt {
	return func(ctx *joinContext) {
		ctx.dumpStepInfo = true
	}
}

func WithDumpEntries() JoinOpt {
	return func(ctx *joinContext) {
		ctx.dumpEntriesDetail = true
	}
}

// WithCollector feed every output pair into c after the join finished
func WithCollector(c PairCollector) JoinOpt {
	return func(ctx *joinContext) {
		ctx.collector = c
	}
}

func newJoinContext(opts ...JoinOpt) *joinContext {
	ctx := &joinContext{}
	for _, fn := range opts {
		fn(ctx)
	}
	if ctx.workers <= 0 {
		ctx.workers = runtime.GOMAXPROCS(0)
	}
	return ctx
}

func (s *JoinSettings) setDefaults() {
	if len(s.Missing) == 0 {
		s.Missing = MissingExclude
	}
	if len(s.LeftOutPrefix) == 0 {
		s.LeftOutPrefix = DefaultLeftOutPrefix
	}
	if len(s.RightOutPrefix) == 0 {
		s.RightOutPrefix = DefaultRightOutPrefix
	}
	if s.Measure == EditDistance && len(s.Tokenizer.Kind) == 0 {
		s.Tokenizer = tokenizer.Spec{Kind: tokenizer.KindQGram, Q: defaultGramLength}
	}
}

// validate surface every configuration error before any index work
func (s *JoinSettings) validate(left, right *Table) (tokenizer.Tokenizer, error) {
	if left == nil || right == nil {
		return nil, ErrNilTable
	}
	if err := left.Validate(); err != nil {
		return nil, err
	}
	if err := right.Validate(); err != nil {
		return nil, err
	}
	if err := checkAttrs(left, s.LeftAttr); err != nil {
		return nil, err
	}
	if err := checkAttrs(right, s.RightAttr); err != nil {
		return nil, err
	}
	if err := checkAttrs(left, outputAttrs(left, s.LeftOutAttrs)...); err != nil {
		return nil, err
	}
	if err := checkAttrs(right, outputAttrs(right, s.RightOutAttrs)...); err != nil {
		return nil, err
	}

	if !s.Measure.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMeasure, s.Measure)
	}
	if _, err := ParseOperator(string(s.Operator)); err != nil {
		return nil, err
	}
	if s.Missing != MissingExclude && s.Missing != MissingIncludeAsMatch {
		return nil, fmt.Errorf("unknown missing value policy:%q", s.Missing)
	}

	if PrefixFilterable(s.Measure, s.Operator) {
		if err := validateThreshold(s.Measure, s.Operator, s.Threshold); err != nil {
			return nil, err
		}
	} else if !s.BruteForceFallback {
		return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedOperator, s.Measure, s.Operator)
	} else if math.IsNaN(s.Threshold) {
		return nil, fmt.Errorf("%w: NaN", ErrInvalidThreshold)
	}

	tk, err := tokenizer.New(s.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("tokenizer:%s, err:%w", s.Tokenizer, err)
	}
	if s.Measure == EditDistance && tk.Kind() != tokenizer.KindQGram {
		return nil, fmt.Errorf("edit distance need a qgram tokenizer, got:%s", tk.Kind())
	}
	return tk, nil
}

// gramLength the q of a qgram tokenizer, 0 for others
func gramLength(tk tokenizer.Tokenizer) int {
	if g, ok := tk.(*tokenizer.QGram); ok {
		return g.Q()
	}
	return 0
}

func checkAttrs(t *Table, attrs ...string) error {
	for _, attr := range attrs {
		if !t.HasColumn(attr) {
			return fmt.Errorf("table:%s attr:%s %w", t.Name, attr, ErrAttrNotFound)
		}
	}
	return nil
}
