package simjoin

import (
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// candidatePool per probe candidate sets, a record already seen in this probe
// is never verified twice
var candidatePool = sync.Pool{
	New: func() interface{} {
		return roaring.New()
	},
}

func pickCandidates() *roaring.Bitmap {
	return candidatePool.Get().(*roaring.Bitmap)
}

func putCandidates(bm *roaring.Bitmap) {
	if bm == nil {
		return
	}
	bm.Clear()
	candidatePool.Put(bm)
}

// prober probe one partition index with records of the other side, it's owned
// by a single worker
type prober struct {
	index     *PrefixIndex
	measure   Measure
	operator  Operator
	threshold float64
	bound     int // edit distance integer bound
	q         int

	cands *roaring.Bitmap
	// overlap prefix overlap so far per indexed record, -1 mark pruned
	overlap []int32
}

func newProber(index *PrefixIndex, s *JoinSettings, q int) *prober {
	p := &prober{
		index:     index,
		measure:   s.Measure,
		operator:  s.Operator,
		threshold: s.Threshold,
		q:         q,
		cands:     pickCandidates(),
	}
	if s.Measure == EditDistance {
		p.bound = editBound(s.Operator, s.Threshold)
	} else {
		p.overlap = make([]int32, index.Len())
	}
	return p
}

func (p *prober) release() {
	putCandidates(p.cands)
	p.cands = nil
}

func (p *prober) probe(rec *tokenizedRecord, out *pairBuffer) {
	if p.measure == EditDistance {
		p.probeEdit(rec, out)
		return
	}
	p.probeSet(rec, out)
}

func (p *prober) probeSet(rec *tokenizedRecord, out *pairBuffer) {
	nr := len(rec.ranks)
	prefix := PrefixLength(p.measure, nr, p.threshold, 0)
	if prefix == 0 {
		return
	}
	lower, upper := SizeBounds(p.measure, nr, p.threshold)

	for i := 0; i < prefix; i++ {
		for _, eid := range p.index.Probe(rec.ranks[i]) {
			c := eid.Record()
			nc := p.index.Size(c)
			if nc < lower || nc > upper || p.overlap[c] < 0 {
				continue
			}
			p.cands.Add(uint32(c))
			p.overlap[c]++

			rest := min(nr-i-1, nc-eid.Position())
			if int(p.overlap[c])+rest < OverlapThreshold(p.measure, nc, nr, p.threshold) {
				p.overlap[c] = -1
				out.stats.Pruned++
			}
		}
	}

	iter := p.cands.Iterator()
	for iter.HasNext() {
		c := int(iter.Next())
		pruned := p.overlap[c] < 0
		p.overlap[c] = 0
		if pruned {
			continue
		}
		out.stats.Candidates++
		cand := p.index.record(c)
		score := setScore(p.measure, overlapSorted(cand.ranks, rec.ranks), len(cand.ranks), nr)
		if p.operator.Compare(score, p.threshold) {
			out.add(cand.idx, rec.idx, score)
			out.stats.Matched++
		}
	}
	p.cands.Clear()
}

// probeEdit share one q-gram in the q*k+1 prefix; pairs without any common
// q-gram, eg: strings shorter than q, are never found
func (p *prober) probeEdit(rec *tokenizedRecord, out *pairBuffer) {
	prefix := PrefixLength(EditDistance, len(rec.ranks), float64(p.bound), p.q)
	for i := 0; i < prefix; i++ {
		for _, eid := range p.index.Probe(rec.ranks[i]) {
			c := eid.Record()
			diff := p.index.record(c).runes - rec.runes
			if diff > p.bound || -diff > p.bound {
				continue
			}
			p.cands.Add(uint32(c))
		}
	}

	iter := p.cands.Iterator()
	for iter.HasNext() {
		cand := p.index.record(int(iter.Next()))
		out.stats.Candidates++
		d := float64(editDistance(cand.raw, rec.raw))
		if p.operator.Compare(d, p.threshold) {
			out.add(cand.idx, rec.idx, d)
			out.stats.Matched++
		}
	}
	p.cands.Clear()
}
