package simjoin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/echoface/simjoin/tokenizer"
)

const (
	DefaultDebugOutputSize  = 200
	DefaultFieldRemoveRatio = 0.1
	DefaultDebugLeftPrefix  = "ltable_"
	DefaultDebugRightPrefix = "rtable_"
	SimilarityColumn        = "similarity"
)

var ErrNoCorrespondence = errors.New("field correspondence list is empty")

type (
	// FieldPair a left attribute compared with a right attribute
	FieldPair struct {
		Left  string
		Right string
	}

	DebugBlockerSettings struct {
		// OutputSize number of pairs to report, default 200
		OutputSize int
		// Correspondence default to the attributes both tables have
		Correspondence []FieldPair
		LeftOutPrefix  string
		RightOutPrefix string
		// FieldRemoveRatio drive the configurations RecommendLists generate
		FieldRemoveRatio float64
	}

	// DebugBlockerResult the most similar pairs missing from a candidate set
	DebugBlockerResult struct {
		// Header _id, similarity, prefixed keys, prefixed fields of both sides
		Header []string
		Rows   [][]any
		Pairs  []ScoredPair
		Fields []FieldPair
		Stats  TopKStats
	}

	// Recommendation a pair and its median rank over all configurations
	Recommendation struct {
		LeftID  string
		RightID string
		Rank    int
	}

	// debugInput the per field tokens of both tables
	debugInput struct {
		left, right *Table
		fields      []FieldPair
		// tokens[side][field][record]
		tokens [2][][][]string
		sums   [2][]int
	}
)

func (s *DebugBlockerSettings) setDefaults() {
	if s.OutputSize == 0 {
		s.OutputSize = DefaultDebugOutputSize
	}
	if len(s.LeftOutPrefix) == 0 {
		s.LeftOutPrefix = DefaultDebugLeftPrefix
	}
	if len(s.RightOutPrefix) == 0 {
		s.RightOutPrefix = DefaultDebugRightPrefix
	}
	if s.FieldRemoveRatio <= 0 {
		s.FieldRemoveRatio = DefaultFieldRemoveRatio
	}
}

// DebugBlocker report up to OutputSize pairs not in cands whose concatenated
// string attributes are most similar, the pairs a blocker most likely missed
func DebugBlocker(ctx context.Context, left, right *Table, cands *CandidateSet,
	settings DebugBlockerSettings) (*DebugBlockerResult, error) {

	settings.setDefaults()
	in, err := newDebugInput(left, right, settings.Correspondence)
	if err != nil {
		return nil, err
	}
	res := &DebugBlockerResult{
		Fields: in.fields,
		Header: debugHeader(left, right, in.fields, &settings),
	}
	if settings.OutputSize <= 0 || left.Len() == 0 || right.Len() == 0 {
		return res, nil
	}

	all := make([]int, len(in.fields))
	for i := range all {
		all[i] = i
	}
	state, err := in.newState(all, cands, settings.OutputSize)
	if err != nil {
		return nil, err
	}
	if err = state.Run(ctx); err != nil {
		return nil, err
	}
	res.Stats = state.Stats()

	for i, p := range state.Results() {
		lrec, rrec := &left.Records[p.Left], &right.Records[p.Right]
		res.Pairs = append(res.Pairs, ScoredPair{LeftID: lrec.ID, RightID: rrec.ID, Score: p.Score})

		row := []any{i, p.Score, lrec.ID, rrec.ID}
		for _, f := range in.fields {
			v, _ := lrec.Value(f.Left)
			row = append(row, v)
		}
		for _, f := range in.fields {
			v, _ := rrec.Value(f.Right)
			row = append(row, v)
		}
		res.Rows = append(res.Rows, row)
	}
	LogInfo("debug blocker fields:%v output:%d stats:%+v", in.fields, len(res.Pairs), res.Stats)
	return res, nil
}

// RecommendLists run the top-k join under several field configurations, each
// dropping attributes, and merge the lists by the median rank of every pair;
// a pair absent from a list rank there as len(first list)+1
func RecommendLists(ctx context.Context, left, right *Table, cands *CandidateSet,
	settings DebugBlockerSettings) ([]Recommendation, error) {

	settings.setDefaults()
	in, err := newDebugInput(left, right, settings.Correspondence)
	if err != nil {
		return nil, err
	}
	if settings.OutputSize <= 0 || left.Len() == 0 || right.Len() == 0 {
		return nil, nil
	}

	configs := in.configs(settings.FieldRemoveRatio)
	lists := make([]map[uint64]int, 0, len(configs))
	for _, config := range configs {
		state, err := in.newState(config, cands, settings.OutputSize)
		if err != nil {
			return nil, err
		}
		if err = state.Run(ctx); err != nil {
			return nil, err
		}
		ranks := make(map[uint64]int)
		for i, p := range state.Results() {
			ranks[pairKey(p.Left, p.Right)] = i + 1
		}
		LogDebug("config:%v found:%d", config, len(ranks))
		lists = append(lists, ranks)
	}
	return mergeRankLists(left, right, lists), nil
}

func mergeRankLists(left, right *Table, lists []map[uint64]int) []Recommendation {
	if len(lists) == 0 {
		return nil
	}
	missRank := len(lists[0]) + 1

	keys := make(map[uint64]struct{})
	for _, list := range lists {
		for key := range list {
			keys[key] = struct{}{}
		}
	}
	type ranked struct {
		key  uint64
		rank int
	}
	merged := make([]ranked, 0, len(keys))
	ranks := make([]int, len(lists))
	for key := range keys {
		for i, list := range lists {
			rank, ok := list[key]
			if !ok {
				rank = missRank
			}
			ranks[i] = rank
		}
		sort.Ints(ranks)
		median := ranks[len(ranks)/2]
		if len(ranks)%2 == 0 {
			median = (ranks[len(ranks)/2-1] + ranks[len(ranks)/2]) / 2
		}
		merged = append(merged, ranked{key: key, rank: median})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].rank != merged[j].rank {
			return merged[i].rank < merged[j].rank
		}
		return merged[i].key < merged[j].key
	})

	res := make([]Recommendation, 0, len(merged))
	for _, m := range merged {
		l, r := splitPairKey(m.key)
		res = append(res, Recommendation{
			LeftID:  left.Records[l].ID,
			RightID: right.Records[r].ID,
			Rank:    m.rank,
		})
	}
	return res
}

func newDebugInput(left, right *Table, corres []FieldPair) (*debugInput, error) {
	if left == nil || right == nil {
		return nil, ErrNilTable
	}
	if err := left.Validate(); err != nil {
		return nil, err
	}
	if err := right.Validate(); err != nil {
		return nil, err
	}
	fields, err := correspondence(left, right, corres)
	if err != nil {
		return nil, err
	}
	in := &debugInput{left: left, right: right, fields: fields}
	for side, t := range []*Table{left, right} {
		in.tokens[side] = make([][][]string, len(fields))
		in.sums[side] = make([]int, len(fields))
		for fi, f := range fields {
			attr := f.Left
			if side == int(RightSide) {
				attr = f.Right
			}
			column := make([][]string, t.Len())
			for ri := range t.Records {
				column[ri] = fieldTokens(&t.Records[ri], attr)
				in.sums[side][fi] += len(column[ri])
			}
			in.tokens[side][fi] = column
		}
	}
	return in, nil
}

// correspondence validate the given field pairs or collect the attributes
// both tables have, pairs where neither side hold strings are dropped
func correspondence(left, right *Table, corres []FieldPair) ([]FieldPair, error) {
	if len(corres) == 0 {
		for _, col := range left.Columns {
			if col != left.KeyName() && right.HasColumn(col) {
				corres = append(corres, FieldPair{Left: col, Right: col})
			}
		}
	}
	if len(corres) == 0 {
		return nil, ErrNoCorrespondence
	}

	fields := make([]FieldPair, 0, len(corres))
	for _, f := range corres {
		if err := checkAttrs(left, f.Left); err != nil {
			return nil, err
		}
		if err := checkAttrs(right, f.Right); err != nil {
			return nil, err
		}
		if !stringColumn(left, f.Left) && !stringColumn(right, f.Right) {
			continue
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w after dropping non string fields", ErrNoCorrespondence)
	}
	return fields, nil
}

// stringColumn every present value of attr is a string
func stringColumn(t *Table, attr string) bool {
	for i := range t.Records {
		v, ok := t.Records[i].Value(attr)
		if !ok {
			continue
		}
		if _, isStr := v.(string); !isStr {
			return false
		}
	}
	return true
}

// fieldTokens lowercase and split on single spaces, empty tokens dropped
func fieldTokens(rec *Record, attr string) []string {
	v, ok := rec.Value(attr)
	if !ok {
		return nil
	}
	s, err := tokenizer.ValueToString(v)
	if err != nil {
		return nil
	}
	parts := strings.Split(strings.ToLower(s), " ")
	tokens := parts[:0]
	for _, p := range parts {
		if len(p) > 0 {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// recordTokens concatenate the tokens of the config fields, a repeated token
// is renamed token_1, token_2... so the list stay a set
func (in *debugInput) recordTokens(side Side, config []int) [][]string {
	n := in.left.Len()
	if side == RightSide {
		n = in.right.Len()
	}
	lists := make([][]string, n)
	for ri := 0; ri < n; ri++ {
		seen := make(map[string]int)
		var tokens []string
		for _, fi := range config {
			for _, tk := range in.tokens[side][fi][ri] {
				cnt, ok := seen[tk]
				if !ok {
					tokens = append(tokens, tk)
					seen[tk] = 1
					continue
				}
				tokens = append(tokens, tk+"_"+strconv.Itoa(cnt))
				seen[tk] = cnt + 1
			}
		}
		lists[ri] = tokens
	}
	return lists
}

func (in *debugInput) newState(config []int, cands *CandidateSet, k int) (*TopKJoinState, error) {
	ltokens, rtokens := in.recordTokens(LeftSide, config), in.recordTokens(RightSide, config)
	ordering := BuildOrdering(ltokens, rtokens)

	order := func(lists [][]string) [][]int32 {
		ranks := make([][]int32, len(lists))
		for i, tokens := range lists {
			ranks[i] = ordering.Order(tokenizer.Set(tokens))
		}
		return ranks
	}
	excluded, err := cands.bitmap(in.left, in.right)
	if err != nil {
		return nil, fmt.Errorf("candidate set, err:%w", err)
	}
	state := NewTopKJoinState(order(ltokens), order(rtokens), k)
	state.excludeAll(excluded)
	return state, nil
}

// configs the full field list first, then while more than one field remain
// drop the field holding a outsized share of tokens (or the last one) and
// emit every one-field-less variant of the current list
func (in *debugInput) configs(ratio float64) [][]int {
	current := make([]int, len(in.fields))
	for i := range current {
		current[i] = i
	}
	configs := [][]int{append([]int(nil), current...)}
	lsize, rsize := float64(max(in.left.Len(), 1)), float64(max(in.right.Len(), 1))

	for len(current) > 1 {
		var lsum, rsum int
		for _, f := range current {
			lsum += in.sums[LeftSide][f]
			rsum += in.sums[RightSide][f]
		}
		lavg, ravg := float64(lsum)/lsize, float64(rsum)/rsize
		limit := 1.0
		if lavg+ravg > 0 {
			limit = 1 - float64(len(current)-1)*ratio/(1+ratio)*max(lavg, ravg)/(lavg+ravg)
		}

		removed := -1
		for i, f := range current {
			if float64(in.sums[LeftSide][f]) > float64(lsum)*limit ||
				float64(in.sums[RightSide][f]) > float64(rsum)*limit {
				removed = i
				break
			}
		}
		if removed < 0 {
			removed = len(current) - 1
		}

		configs = append(configs, without(current, removed))
		for i := range current {
			if i != removed {
				configs = append(configs, without(current, i))
			}
		}
		current = without(current, removed)
	}
	return configs
}

func without(fields []int, i int) []int {
	res := make([]int, 0, len(fields)-1)
	res = append(res, fields[:i]...)
	return append(res, fields[i+1:]...)
}

func debugHeader(left, right *Table, fields []FieldPair, s *DebugBlockerSettings) []string {
	header := []string{IDColumn, SimilarityColumn,
		s.LeftOutPrefix + left.KeyName(), s.RightOutPrefix + right.KeyName()}
	for _, f := range fields {
		header = append(header, s.LeftOutPrefix+f.Left)
	}
	for _, f := range fields {
		header = append(header, s.RightOutPrefix+f.Right)
	}
	return header
}
