package simjoin

import (
	"math"

	"github.com/agnivade/levenshtein"

	"github.com/echoface/simjoin/tokenizer"
)

// overlapSorted the (multi)set intersection size of two ascending rank lists
func overlapSorted(a, b []int32) int {
	i, j, o := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			o++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return o
}

// overlapTokens intersection size of two token sets
func overlapTokens(a, b []string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	o := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			o++
			delete(set, t)
		}
	}
	return o
}

// setScore the similarity of two token sets with o common tokens
func setScore(m Measure, o, nl, nr int) float64 {
	if nl == 0 || nr == 0 {
		return 0
	}
	fo, l, r := float64(o), float64(nl), float64(nr)
	switch m {
	case Overlap:
		return fo
	case Jaccard:
		return fo / (l + r - fo)
	case Cosine:
		return fo / math.Sqrt(l*r)
	case Dice:
		return 2 * fo / (l + r)
	case OverlapCoefficient:
		return fo / math.Min(l, r)
	}
	return 0
}

// editDistance levenshtein distance in runes
func editDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity score two raw values with measure m, tk is only used by set
// based measures
func Similarity(m Measure, tk tokenizer.Tokenizer, lv, rv string) (float64, error) {
	if m == EditDistance {
		return float64(editDistance(lv, rv)), nil
	}
	lt, err := tk.Tokenize(lv)
	if err != nil {
		return 0, err
	}
	rt, err := tk.Tokenize(rv)
	if err != nil {
		return 0, err
	}
	lt, rt = tokenizer.Set(lt), tokenizer.Set(rt)
	return setScore(m, overlapTokens(lt, rt), len(lt), len(rt)), nil
}
