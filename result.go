package simjoin

import (
	"sort"

	"github.com/echoface/simjoin/util"
)

type (
	JoinStats struct {
		Partitions   int
		Candidates   int64 // distinct candidate pairs verified
		Pruned       int64 // candidates dropped by the position filter
		Matched      int64
		MissingPairs int64
		BruteForce   bool
	}

	// OutputPair a joined pair; attrs are keyed by the source attribute name,
	// Score is NaN for pairs produced by the missing value policy
	OutputPair struct {
		ID         int
		LeftID     string
		RightID    string
		LeftAttrs  map[string]any
		RightAttrs map[string]any
		Score      float64
	}

	Result struct {
		// Header _id, <l prefix><l key>, <r prefix><r key>, prefixed out
		// attrs, and _sim_score when requested
		Header  []string
		Pairs   []OutputPair
		Skipped []*RecordError
		Stats   JoinStats

		leftOut  []string
		rightOut []string
		outScore bool
	}
)

func (s *JoinStats) merge(o *JoinStats) {
	s.Candidates += o.Candidates
	s.Pruned += o.Pruned
	s.Matched += o.Matched
	s.MissingPairs += o.MissingPairs
}

func (r *Result) Len() int {
	return len(r.Pairs)
}

// Rows the pairs as rows aligned with Header
func (r *Result) Rows() [][]any {
	rows := make([][]any, 0, len(r.Pairs))
	for i := range r.Pairs {
		p := &r.Pairs[i]
		row := make([]any, 0, len(r.Header))
		row = append(row, p.ID, p.LeftID, p.RightID)
		for _, attr := range r.leftOut {
			row = append(row, p.LeftAttrs[attr])
		}
		for _, attr := range r.rightOut {
			row = append(row, p.RightAttrs[attr])
		}
		if r.outScore {
			row = append(row, p.Score)
		}
		rows = append(rows, row)
	}
	return rows
}

func (r *Result) CandidateSet() *CandidateSet {
	cs := NewCandidateSet()
	for i := range r.Pairs {
		cs.Add(r.Pairs[i].LeftID, r.Pairs[i].RightID)
	}
	return cs
}

// outputAttrs drop duplicates and the key attribute, it's always emitted
func outputAttrs(t *Table, attrs []string) []string {
	res := make([]string, 0, len(attrs))
	for _, attr := range util.Distinct(attrs) {
		if attr == t.KeyName() {
			continue
		}
		res = append(res, attr)
	}
	return res
}

func outputHeader(left, right *Table, lout, rout []string, lprefix, rprefix string, score bool) []string {
	header := []string{IDColumn, lprefix + left.KeyName(), rprefix + right.KeyName()}
	for _, attr := range lout {
		header = append(header, lprefix+attr)
	}
	for _, attr := range rout {
		header = append(header, rprefix+attr)
	}
	if score {
		header = append(header, ScoreColumn)
	}
	return header
}

func copyAttrs(rec *Record, attrs []string) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	res := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		v, _ := rec.Value(attr)
		res[attr] = v
	}
	return res
}

// assembleResult order pairs by (left, right) record position and shape them
func assembleResult(left, right *Table, pairs []matchedPair, s *JoinSettings) *Result {
	sortMatched(pairs)

	lout, rout := outputAttrs(left, s.LeftOutAttrs), outputAttrs(right, s.RightOutAttrs)
	res := &Result{
		Header:   outputHeader(left, right, lout, rout, s.LeftOutPrefix, s.RightOutPrefix, s.OutScore),
		Pairs:    make([]OutputPair, 0, len(pairs)),
		leftOut:  lout,
		rightOut: rout,
		outScore: s.OutScore,
	}
	for i, p := range pairs {
		lrec, rrec := &left.Records[p.l], &right.Records[p.r]
		res.Pairs = append(res.Pairs, OutputPair{
			ID:         i,
			LeftID:     lrec.ID,
			RightID:    rrec.ID,
			LeftAttrs:  copyAttrs(lrec, lout),
			RightAttrs: copyAttrs(rrec, rout),
			Score:      p.score,
		})
	}
	return res
}

func sortMatched(pairs []matchedPair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].l != pairs[j].l {
			return pairs[i].l < pairs[j].l
		}
		return pairs[i].r < pairs[j].r
	})
}
