package tokenizer

import (
	"strings"
	"unicode"
)

type (
	// Whitespace split on runs of unicode white space
	Whitespace struct {
		lower bool
	}

	// QGram emit every contiguous rune substring of length q, no padding
	QGram struct {
		q     int
		lower bool
	}

	// Delimiter split on any rune of the delimiter set, empty parts dropped
	Delimiter struct {
		delims string
		lower  bool
	}
)

func NewWhitespace(lowercase bool) *Whitespace {
	return &Whitespace{lower: lowercase}
}

func (t *Whitespace) Kind() Kind {
	return KindWhitespace
}

func (t *Whitespace) Tokenize(value string) ([]string, error) {
	return strings.Fields(fold(value, t.lower)), nil
}

func NewQGram(q int, lowercase bool) (*QGram, error) {
	if q < 1 {
		return nil, ErrInvalidQ
	}
	return &QGram{q: q, lower: lowercase}, nil
}

func (t *QGram) Kind() Kind {
	return KindQGram
}

func (t *QGram) Q() int {
	return t.q
}

func (t *QGram) Tokenize(value string) ([]string, error) {
	runes := []rune(fold(value, t.lower))
	if len(runes) < t.q {
		return []string{}, nil
	}
	grams := make([]string, 0, len(runes)-t.q+1)
	for i := 0; i+t.q <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+t.q]))
	}
	return grams, nil
}

func NewDelimiter(delims string, lowercase bool) (*Delimiter, error) {
	if len(delims) == 0 {
		return nil, errEmptyDelimiters
	}
	return &Delimiter{delims: delims, lower: lowercase}, nil
}

func (t *Delimiter) Kind() Kind {
	return KindDelimiter
}

func (t *Delimiter) Tokenize(value string) ([]string, error) {
	return strings.FieldsFunc(fold(value, t.lower), func(r rune) bool {
		return strings.ContainsRune(t.delims, r)
	}), nil
}

// IsBlank report whether value is empty or only white space
func IsBlank(value string) bool {
	return strings.IndexFunc(value, func(r rune) bool {
		return !unicode.IsSpace(r)
	}) < 0
}
