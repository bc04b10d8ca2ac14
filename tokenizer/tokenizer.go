package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/echoface/simjoin/util"
)

type (
	Kind string

	// Spec describe how a join attribute value split into tokens
	Spec struct {
		Kind Kind `json:"kind"`

		// Q gram length, only for KindQGram
		Q int `json:"q,omitempty"`

		// Delimiters each rune of it act as a separator, only for KindDelimiter
		Delimiters string `json:"delimiters,omitempty"`

		// Dictionary phrases to be recognized, only for KindDictionary
		Dictionary []string `json:"dictionary,omitempty"`

		// GeoPrecision geohash length of emitted cells, only for KindGeoHash
		GeoPrecision uint `json:"geo_precision,omitempty"`

		// Lowercase fold value before tokenizing
		Lowercase bool `json:"lowercase,omitempty"`
	}

	// Tokenizer turn a string value into tokens; tokens keep their occurrence
	// order and duplicates are retained, use Set to get the set view
	Tokenizer interface {
		Kind() Kind

		Tokenize(value string) ([]string, error)
	}

	Builder func(spec Spec) (Tokenizer, error)
)

const (
	KindWhitespace Kind = "whitespace"
	KindQGram      Kind = "qgram"
	KindDelimiter  Kind = "delimiter"
	KindDictionary Kind = "dictionary"
	KindGeoHash    Kind = "geohash"
)

var (
	ErrInvalidQ    = errors.New("qgram length must be greater than 0")
	ErrUnknownKind = errors.New("unknown tokenizer kind")

	errEmptyDelimiters = errors.New("delimiter tokenizer need at least one delimiter")
	errEmptyDictionary = errors.New("dictionary tokenizer need at least one phrase")
)

var builders = make(map[Kind]Builder)

func init() {
	_ = Register(KindWhitespace, func(spec Spec) (Tokenizer, error) {
		return &Whitespace{lower: spec.Lowercase}, nil
	})
	_ = Register(KindQGram, func(spec Spec) (Tokenizer, error) {
		return NewQGram(spec.Q, spec.Lowercase)
	})
	_ = Register(KindDelimiter, func(spec Spec) (Tokenizer, error) {
		return NewDelimiter(spec.Delimiters, spec.Lowercase)
	})
	_ = Register(KindDictionary, func(spec Spec) (Tokenizer, error) {
		return NewDictionary(spec.Dictionary, spec.Lowercase)
	})
	_ = Register(KindGeoHash, func(spec Spec) (Tokenizer, error) {
		return NewGeoHash(spec.GeoPrecision), nil
	})
}

// Register bind a kind with its builder, a kind can only be registered once
func Register(kind Kind, builder Builder) error {
	if _, ok := builders[kind]; ok {
		return fmt.Errorf("tokenizer kind:%s has already registered", kind)
	}
	builders[kind] = builder
	return nil
}

func HasKind(kind Kind) bool {
	_, ok := builders[kind]
	return ok
}

// New create the tokenizer described by spec; a empty kind mean whitespace
func New(spec Spec) (Tokenizer, error) {
	if spec.Kind == "" {
		spec.Kind = KindWhitespace
	}
	fn, ok := builders[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, spec.Kind)
	}
	return fn(spec)
}

// Set the deduplicated view of tokens, first occurrence wins
func Set(tokens []string) []string {
	return util.Distinct(tokens)
}

func (s Spec) String() string {
	switch s.Kind {
	case KindQGram:
		return fmt.Sprintf("qgram(q=%d)", s.Q)
	case KindDelimiter:
		return fmt.Sprintf("delimiter(%q)", s.Delimiters)
	case KindDictionary:
		return fmt.Sprintf("dictionary(%d phrases)", len(s.Dictionary))
	case KindGeoHash:
		return fmt.Sprintf("geohash(precision=%d)", s.GeoPrecision)
	}
	return string(KindWhitespace)
}

func fold(v string, lower bool) string {
	if lower {
		return strings.ToLower(v)
	}
	return v
}
