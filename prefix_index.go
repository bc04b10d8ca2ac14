package simjoin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/echoface/simjoin/util"
)

type (
	// EntryID a posting of the prefix index
	// |-- record(32bit) --|-- position(32bit) --|
	// position is the 1-based place of the token in the ordered token list
	EntryID uint64

	// Entries a type define for sort option
	Entries []EntryID

	// tokenizedRecord a record reduced to its join value and tokens,
	// computed once before indexing and probing
	tokenizedRecord struct {
		idx    int // position in table.Records
		raw    string
		runes  int
		tokens []string
		ranks  []int32 // ordered token list
	}

	// PrefixIndex inverted lists keyed by token rank, only the prefix tokens
	// of each record are posted; record number in entries is the position in
	// recs, not the table
	PrefixIndex struct {
		measure   Measure
		threshold float64
		q         int

		recs      []*tokenizedRecord
		plEntries map[int32]Entries

		postings int64
		maxLen   int64 // max length of Entries
		avgLen   int64 // avg length of Entries
	}
)

func NewEntryID(record, pos int) EntryID {
	util.PanicIf(record < 0 || pos <= 0, "invalid entry, record:%d pos:%d", record, pos)
	return EntryID(uint64(record)<<32 | uint64(uint32(pos)))
}

func (id EntryID) Record() int {
	return int(id >> 32)
}

func (id EntryID) Position() int {
	return int(uint32(id))
}

func (id EntryID) DocString() string {
	return fmt.Sprintf("<%d,%d>", id.Record(), id.Position())
}

func (s Entries) Len() int           { return len(s) }
func (s Entries) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s Entries) Less(i, j int) bool { return s[i] < s[j] }

func (s Entries) DocString() []string {
	res := make([]string, 0, len(s))
	for _, eid := range s {
		res = append(res, eid.DocString())
	}
	return res
}

// buildPrefixIndex post every record under its first P ordered tokens; t is
// the integer distance bound for edit distance
func buildPrefixIndex(recs []*tokenizedRecord, m Measure, t float64, q int) *PrefixIndex {
	idx := &PrefixIndex{
		measure:   m,
		threshold: t,
		q:         q,
		recs:      recs,
		plEntries: make(map[int32]Entries),
	}
	for i, rec := range recs {
		p := PrefixLength(m, len(rec.ranks), t, q)
		for pos := 0; pos < p; pos++ {
			rank := rec.ranks[pos]
			idx.plEntries[rank] = append(idx.plEntries[rank], NewEntryID(i, pos+1))
		}
		idx.postings += int64(p)
	}
	idx.compile()
	return idx
}

func (idx *PrefixIndex) compile() {
	for _, entries := range idx.plEntries {
		sort.Sort(entries)
		if idx.maxLen < int64(len(entries)) {
			idx.maxLen = int64(len(entries))
		}
	}
	if len(idx.plEntries) > 0 {
		idx.avgLen = idx.postings / int64(len(idx.plEntries))
	}
}

// Probe the posting list of a token rank
func (idx *PrefixIndex) Probe(rank int32) Entries {
	return idx.plEntries[rank]
}

// Len number of records the index built from, posted or not
func (idx *PrefixIndex) Len() int {
	return len(idx.recs)
}

// Size cached token count of a record
func (idx *PrefixIndex) Size(record int) int {
	return len(idx.recs[record].ranks)
}

// Postings total entries of all posting lists
func (idx *PrefixIndex) Postings() int64 {
	return idx.postings
}

func (idx *PrefixIndex) record(i int) *tokenizedRecord {
	return idx.recs[i]
}

func (idx *PrefixIndex) DumpInfo(buffer *strings.Builder) {
	summary := map[string]interface{}{
		"measure":   idx.measure,
		"threshold": idx.threshold,
		"records":   len(idx.recs),
		"tokens":    len(idx.plEntries),
		"postings":  idx.postings,
		"max_len":   idx.maxLen,
		"avg_len":   idx.avgLen,
	}
	buffer.WriteString(util.JSONPretty(summary))
}

func (idx *PrefixIndex) DumpEntries(ordering *TokenOrdering, buffer *strings.Builder) {
	ranks := make([]int32, 0, len(idx.plEntries))
	for rank := range idx.plEntries {
		ranks = append(ranks, rank)
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] < ranks[j] })

	buffer.WriteString("PrefixIndex entries:\n")
	for _, rank := range ranks {
		if ordering != nil {
			buffer.WriteString(ordering.Token(rank))
		} else {
			buffer.WriteString(fmt.Sprintf("#%d", rank))
		}
		buffer.WriteString(":")
		buffer.WriteString(strings.Join(idx.plEntries[rank].DocString(), ","))
		buffer.WriteString("\n")
	}
}
