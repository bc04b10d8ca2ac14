package simjoin

import (
	"container/heap"
	"context"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/echoface/simjoin/tokenizer"
)

type Side uint8

const (
	LeftSide Side = iota
	RightSide
)

var (
	_ heap.Interface = (*eventHeap)(nil)
	_ heap.Interface = (*topkHeap)(nil)
)

type (
	// prefixEvent the token at pos of a record; no pair first sharing this
	// token can score above bound
	prefixEvent struct {
		bound float64
		side  Side
		rec   int32
		pos   int32
	}

	// eventHeap max heap on bound, ties go to (side, rec, pos) ascending
	eventHeap []prefixEvent

	// TopKPair a scored pair of record positions
	TopKPair struct {
		Left  int
		Right int
		Score float64
	}

	// topkHeap min heap holding the best k pairs, top is the one to evict
	topkHeap []TopKPair

	TopKStats struct {
		TotalEvents   int64
		PoppedEvents  int64
		ComparedPairs int64
		// IndexedEntries tokens posted to the partial indices
		IndexedEntries int64
		EarlyStop      bool
	}

	// TopKJoinState all the mutable state of one top-k join run. records are
	// token rank lists sorted ascending without duplicates, scores are jaccard
	TopKJoinState struct {
		k       int
		records [2][][]int32
		events  eventHeap
		topk    topkHeap
		// index partial inverted index per side, filled as events pop
		index    [2]map[int32][]int32
		compared *roaring64.Bitmap
		excluded *roaring64.Bitmap
		stats    TopKStats
		done     bool
	}
)

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].bound != h[j].bound {
		return h[i].bound > h[j].bound
	}
	if h[i].side != h[j].side {
		return h[i].side < h[j].side
	}
	if h[i].rec != h[j].rec {
		return h[i].rec < h[j].rec
	}
	return h[i].pos < h[j].pos
}
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(prefixEvent)) }
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// worse report whether a rank behind b in the final output
func worse(a, b *TopKPair) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.Left != b.Left {
		return a.Left > b.Left
	}
	return a.Right > b.Right
}

func (h topkHeap) Len() int            { return len(h) }
func (h topkHeap) Less(i, j int) bool  { return worse(&h[i], &h[j]) }
func (h topkHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *topkHeap) Push(x interface{}) { *h = append(*h, x.(TopKPair)) }
func (h *topkHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// NewTopKJoinState queue one event per (record, position) of both sides
func NewTopKJoinState(left, right [][]int32, k int) *TopKJoinState {
	s := &TopKJoinState{
		k:        k,
		records:  [2][][]int32{left, right},
		index:    [2]map[int32][]int32{make(map[int32][]int32), make(map[int32][]int32)},
		compared: roaring64.New(),
	}
	if k <= 0 {
		s.done = true
		return s
	}
	for side, recs := range s.records {
		for rec, tokens := range recs {
			n := float64(len(tokens))
			for pos := range tokens {
				s.events = append(s.events, prefixEvent{
					bound: 1 - float64(pos)/n,
					side:  Side(side),
					rec:   int32(rec),
					pos:   int32(pos),
				})
			}
		}
	}
	heap.Init(&s.events)
	s.stats.TotalEvents = int64(len(s.events))
	s.topk = make(topkHeap, 0, k)
	return s
}

// Exclude a pair that must not be reported, eg: already a candidate
func (s *TopKJoinState) Exclude(l, r int) {
	if s.excluded == nil {
		s.excluded = roaring64.New()
	}
	s.excluded.Add(pairKey(l, r))
}

func (s *TopKJoinState) excludeAll(bits *roaring64.Bitmap) {
	if bits.IsEmpty() {
		return
	}
	if s.excluded == nil {
		s.excluded = roaring64.New()
	}
	s.excluded.Or(bits)
}

// Done report whether the state reached its terminal state
func (s *TopKJoinState) Done() bool {
	return s.done
}

// kth the score to beat once k pairs are held
func (s *TopKJoinState) kth() (float64, bool) {
	if len(s.topk) < s.k {
		return 0, false
	}
	return s.topk[0].Score, true
}

// Step pop and process one event, false when nothing is left to do
func (s *TopKJoinState) Step() bool {
	if s.done {
		return false
	}
	if len(s.events) == 0 {
		s.done = true
		return false
	}
	if kth, full := s.kth(); full && kth >= s.events[0].bound-boundEps {
		s.stats.EarlyStop = true
		s.done = true
		return false
	}

	ev := heap.Pop(&s.events).(prefixEvent)
	s.stats.PoppedEvents++

	token := s.records[ev.side][ev.rec][ev.pos]
	for _, other := range s.index[1-ev.side][token] {
		l, r := int(ev.rec), int(other)
		if ev.side == RightSide {
			l, r = r, l
		}
		s.compare(l, r)
	}
	if s.indexable(ev) {
		s.index[ev.side][token] = append(s.index[ev.side][token], ev.rec)
		s.stats.IndexedEntries++
	}
	return true
}

// indexable a token at pos of a n tokens record is only worth posting when
// (n-pos)/(n+pos), the best score of a pair first probing it, can still beat
// the k-th score
func (s *TopKJoinState) indexable(ev prefixEvent) bool {
	kth, full := s.kth()
	if !full {
		return true
	}
	n, pos := float64(len(s.records[ev.side][ev.rec])), float64(ev.pos)
	return (n-pos)/(n+pos) >= kth-boundEps
}

func (s *TopKJoinState) compare(l, r int) {
	key := pairKey(l, r)
	if s.compared.Contains(key) {
		return
	}
	s.compared.Add(key)
	if s.excluded != nil && s.excluded.Contains(key) {
		return
	}

	lt, rt := s.records[LeftSide][l], s.records[RightSide][r]
	if kth, full := s.kth(); full {
		// jaccard never exceed short/long
		short, long := min(len(lt), len(rt)), max(len(lt), len(rt))
		if float64(short) < (kth-boundEps)*float64(long) {
			return
		}
	}

	s.stats.ComparedPairs++
	pair := TopKPair{Left: l, Right: r, Score: setScore(Jaccard, overlapSorted(lt, rt), len(lt), len(rt))}
	if len(s.topk) < s.k {
		heap.Push(&s.topk, pair)
		return
	}
	if pair.Score > s.topk[0].Score {
		s.topk[0] = pair
		heap.Fix(&s.topk, 0)
	}
}

// Run step until the terminal state, ctx is checked between events
func (s *TopKJoinState) Run(ctx context.Context) error {
	for i := 0; ; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if !s.Step() {
			return nil
		}
	}
}

// Results the retained pairs, best first
func (s *TopKJoinState) Results() []TopKPair {
	res := make([]TopKPair, len(s.topk))
	copy(res, s.topk)
	sort.Slice(res, func(i, j int) bool {
		return worse(&res[j], &res[i])
	})
	return res
}

func (s *TopKJoinState) Stats() TopKStats {
	return s.stats
}

type (
	TopKSettings struct {
		LeftAttr  string
		RightAttr string
		// Tokenizer default to whitespace
		Tokenizer tokenizer.Spec
		K         int
		// Exclude pairs never reported
		Exclude      *CandidateSet
		CoerceValues bool
	}

	ScoredPair struct {
		LeftID  string
		RightID string
		Score   float64
	}

	TopKResult struct {
		Pairs   []ScoredPair
		Stats   TopKStats
		Skipped []*RecordError
	}
)

// TopKJoin the k pairs of highest jaccard similarity over token sets, pairs
// sharing no token are never reported. k <= 0 or empty tables give a empty
// result rather than a error
func TopKJoin(ctx context.Context, left, right *Table, settings TopKSettings) (*TopKResult, error) {
	if left == nil || right == nil {
		return nil, ErrNilTable
	}
	if err := left.Validate(); err != nil {
		return nil, err
	}
	if err := right.Validate(); err != nil {
		return nil, err
	}
	if err := checkAttrs(left, settings.LeftAttr); err != nil {
		return nil, err
	}
	if err := checkAttrs(right, settings.RightAttr); err != nil {
		return nil, err
	}
	tk, err := tokenizer.New(settings.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("tokenizer:%s, err:%w", settings.Tokenizer, err)
	}
	if settings.K <= 0 || left.Len() == 0 || right.Len() == 0 {
		return &TopKResult{}, nil
	}

	opt := sideOption{stage: StageTopK, setBased: true, coerce: settings.CoerceValues}
	ls := prepareSide(left, settings.LeftAttr, tk, opt)
	rs := prepareSide(right, settings.RightAttr, tk, opt)
	ordering := BuildOrdering(ls.tokenLists(), rs.tokenLists())

	state := NewTopKJoinState(rankLists(ls, ordering), rankLists(rs, ordering), settings.K)
	excluded, err := settings.Exclude.bitmap(left, right)
	if err != nil {
		return nil, fmt.Errorf("exclude pairs, err:%w", err)
	}
	state.excludeAll(excluded)
	if err := state.Run(ctx); err != nil {
		return nil, err
	}

	res := &TopKResult{
		Stats:   state.Stats(),
		Skipped: append(ls.skippedErrors(), rs.skippedErrors()...),
	}
	for _, p := range state.Results() {
		res.Pairs = append(res.Pairs, ScoredPair{
			LeftID:  left.Records[p.Left].ID,
			RightID: right.Records[p.Right].ID,
			Score:   p.Score,
		})
	}
	LogDebug("topk join %s<>%s k:%d stats:%+v", left.Name, right.Name, settings.K, res.Stats)
	return res, nil
}

// rankLists ordered token lists indexed by table position, nil for records
// without a usable value
func rankLists(side *joinSide, o *TokenOrdering) [][]int32 {
	lists := make([][]int32, side.table.Len())
	for _, rec := range side.recs {
		lists[rec.idx] = o.Order(rec.tokens)
	}
	return lists
}
