package tokenizer

import (
	"fmt"
	"strings"

	aho "github.com/anknown/ahocorasick"
)

// Dictionary recognize known phrases inside a value with a aho-corasick
// machine; every occurrence of a phrase yields one token
type Dictionary struct {
	lower   bool
	phrases int
	machine *aho.Machine
}

func NewDictionary(phrases []string, lowercase bool) (*Dictionary, error) {
	keys := make([][]rune, 0, len(phrases))
	seen := make(map[string]struct{}, len(phrases))
	for _, phrase := range phrases {
		phrase = fold(strings.TrimSpace(phrase), lowercase)
		if len(phrase) == 0 {
			continue
		}
		if _, ok := seen[phrase]; ok {
			continue
		}
		seen[phrase] = struct{}{}
		keys = append(keys, []rune(phrase))
	}
	if len(keys) == 0 {
		return nil, errEmptyDictionary
	}

	machine := new(aho.Machine)
	if err := machine.Build(keys); err != nil {
		return nil, fmt.Errorf("build ac machine fail, err:%w", err)
	}
	return &Dictionary{lower: lowercase, phrases: len(keys), machine: machine}, nil
}

func (t *Dictionary) Kind() Kind {
	return KindDictionary
}

func (t *Dictionary) Size() int {
	return t.phrases
}

func (t *Dictionary) Tokenize(value string) ([]string, error) {
	buf := []rune(fold(value, t.lower))
	if len(buf) == 0 {
		return []string{}, nil
	}
	terms := t.machine.MultiPatternSearch(buf, false)
	tokens := make([]string, 0, len(terms))
	for _, term := range terms {
		tokens = append(tokens, string(term.Word))
	}
	return tokens, nil
}
