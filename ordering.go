package simjoin

import (
	"sort"
)

// TokenOrdering a global total order over the token vocabulary, rarer tokens
// sort first; ties are broken by the token bytes so ranks are stable
type TokenOrdering struct {
	ranks  map[string]int32
	tokens []string
	freqs  []int32
}

// BuildOrdering count document frequency over every token list of every
// collection, a token counts once per list
func BuildOrdering(collections ...[][]string) *TokenOrdering {
	df := make(map[string]int32)
	seen := make(map[string]struct{})
	for _, lists := range collections {
		for _, tokens := range lists {
			for _, tk := range tokens {
				if _, ok := seen[tk]; ok {
					continue
				}
				seen[tk] = struct{}{}
				df[tk]++
			}
			clear(seen)
		}
	}

	tokens := make([]string, 0, len(df))
	for tk := range df {
		tokens = append(tokens, tk)
	}
	sort.Slice(tokens, func(i, j int) bool {
		fi, fj := df[tokens[i]], df[tokens[j]]
		if fi != fj {
			return fi < fj
		}
		return tokens[i] < tokens[j]
	})

	o := &TokenOrdering{
		ranks:  make(map[string]int32, len(tokens)),
		tokens: tokens,
		freqs:  make([]int32, len(tokens)),
	}
	for rank, tk := range tokens {
		o.ranks[tk] = int32(rank)
		o.freqs[rank] = df[tk]
	}
	return o
}

func (o *TokenOrdering) Len() int {
	return len(o.tokens)
}

func (o *TokenOrdering) Rank(token string) (int32, bool) {
	r, ok := o.ranks[token]
	return r, ok
}

func (o *TokenOrdering) Token(rank int32) string {
	return o.tokens[rank]
}

// Frequency document frequency of the token, 0 for unseen token
func (o *TokenOrdering) Frequency(token string) int {
	r, ok := o.ranks[token]
	if !ok {
		return 0
	}
	return int(o.freqs[r])
}

// Tokens the vocabulary in rank order
func (o *TokenOrdering) Tokens() []string {
	return o.tokens
}

// Order map tokens to ranks sorted ascending, unseen tokens are dropped and
// duplicates retained
func (o *TokenOrdering) Order(tokens []string) []int32 {
	ranks := make([]int32, 0, len(tokens))
	for _, tk := range tokens {
		if r, ok := o.ranks[tk]; ok {
			ranks = append(ranks, r)
		}
	}
	sort.Slice(ranks, func(i, j int) bool {
		return ranks[i] < ranks[j]
	})
	return ranks
}
