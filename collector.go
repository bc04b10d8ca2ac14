package simjoin

type (
	// matchedPair table record indexes of a output pair
	matchedPair struct {
		l, r  int
		score float64
	}

	// pairBuffer a worker local output buffer, merged after all workers done
	pairBuffer struct {
		pairs []matchedPair
		stats JoinStats
	}

	PairCollector interface {
		Add(pair *OutputPair)
	}

	PairCollectorFunc func(pair *OutputPair)

	// CandidateCollector gather output pairs into a candidate set, eg: to feed
	// a later ApplyPredicate or DebugBlocker run
	CandidateCollector struct {
		set *CandidateSet
	}
)

func (b *pairBuffer) add(l, r int, score float64) {
	b.pairs = append(b.pairs, matchedPair{l: l, r: r, score: score})
}

func mergeBuffers(buffers []*pairBuffer, pairs []matchedPair, stats *JoinStats) []matchedPair {
	for _, b := range buffers {
		if b == nil {
			continue
		}
		pairs = append(pairs, b.pairs...)
		stats.merge(&b.stats)
	}
	return pairs
}

func (fn PairCollectorFunc) Add(pair *OutputPair) {
	fn(pair)
}

func NewCandidateCollector() *CandidateCollector {
	return &CandidateCollector{set: NewCandidateSet()}
}

func (c *CandidateCollector) Add(pair *OutputPair) {
	c.set.Add(pair.LeftID, pair.RightID)
}

func (c *CandidateCollector) CandidateSet() *CandidateSet {
	return c.set
}

func (c *CandidateCollector) Reset() {
	c.set = NewCandidateSet()
}
