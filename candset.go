package simjoin

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/roaring64"
)

type (
	// Pair a (left id, right id) record pair
	Pair struct {
		LeftID  string
		RightID string
	}

	// CandidateSet a deduplicated set of pairs keeping insertion order,
	// usually the output of a former blocking step
	CandidateSet struct {
		pairs []Pair
		set   map[Pair]struct{}
	}
)

func NewCandidateSet(pairs ...Pair) *CandidateSet {
	cs := &CandidateSet{set: make(map[Pair]struct{}, len(pairs))}
	for _, p := range pairs {
		cs.Add(p.LeftID, p.RightID)
	}
	return cs
}

// Add return false when the pair already exist
func (cs *CandidateSet) Add(leftID, rightID string) bool {
	if cs.set == nil {
		cs.set = make(map[Pair]struct{})
	}
	p := Pair{LeftID: leftID, RightID: rightID}
	if _, ok := cs.set[p]; ok {
		return false
	}
	cs.set[p] = struct{}{}
	cs.pairs = append(cs.pairs, p)
	return true
}

func (cs *CandidateSet) Contains(leftID, rightID string) bool {
	if cs == nil {
		return false
	}
	_, ok := cs.set[Pair{LeftID: leftID, RightID: rightID}]
	return ok
}

func (cs *CandidateSet) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.pairs)
}

func (cs *CandidateSet) Pairs() []Pair {
	if cs == nil {
		return nil
	}
	return cs.pairs
}

func pairKey(l, r int) uint64 {
	return uint64(uint32(l))<<32 | uint64(uint32(r))
}

func splitPairKey(key uint64) (l, r int) {
	return int(key >> 32), int(uint32(key))
}

// bitmap encode pairs into record index keys of the two tables
func (cs *CandidateSet) bitmap(left, right *Table) (*roaring64.Bitmap, error) {
	bits := roaring64.New()
	for _, p := range cs.Pairs() {
		l, ok := left.IndexOf(p.LeftID)
		if !ok {
			return nil, fmt.Errorf("left id:%s %w", p.LeftID, ErrUnknownRecordID)
		}
		r, ok := right.IndexOf(p.RightID)
		if !ok {
			return nil, fmt.Errorf("right id:%s %w", p.RightID, ErrUnknownRecordID)
		}
		bits.Add(pairKey(l, r))
	}
	return bits, nil
}
