package simjoin

import (
	"unicode/utf8"

	"github.com/echoface/simjoin/tokenizer"
)

// joinSide one table reduced to its tokenized join values
type joinSide struct {
	table   *Table
	attr    string
	recs    []*tokenizedRecord
	missing []int
	skipped map[int]*RecordError
}

type sideOption struct {
	stage    string
	setBased bool
	coerce   bool
}

// prepareSide tokenize every join value once; data errors skip the record
func prepareSide(t *Table, attr string, tk tokenizer.Tokenizer, opt sideOption) *joinSide {
	side := &joinSide{
		table:   t,
		attr:    attr,
		recs:    make([]*tokenizedRecord, 0, len(t.Records)),
		skipped: make(map[int]*RecordError),
	}
	for idx := range t.Records {
		rec := &t.Records[idx]
		v, ok := rec.Value(attr)
		if !ok {
			side.missing = append(side.missing, idx)
			continue
		}
		raw, isStr := v.(string)
		if !isStr {
			if !opt.coerce {
				side.skip(idx, newRecordError(opt.stage, t.Name, rec.ID, attr, ErrNonStringValue))
				continue
			}
			var err error
			if raw, err = tokenizer.ValueToString(v); err != nil {
				side.skip(idx, newRecordError(opt.stage, t.Name, rec.ID, attr, err))
				continue
			}
		}
		tokens, err := tk.Tokenize(raw)
		if err != nil {
			side.skip(idx, newRecordError(opt.stage, t.Name, rec.ID, attr, err))
			continue
		}
		if opt.setBased {
			tokens = tokenizer.Set(tokens)
		}
		side.recs = append(side.recs, &tokenizedRecord{
			idx:    idx,
			raw:    raw,
			runes:  utf8.RuneCountInString(raw),
			tokens: tokens,
		})
	}
	return side
}

func (s *joinSide) skip(idx int, err *RecordError) {
	LogErr("skip record, %s", err.Error())
	s.skipped[idx] = err
}

func (s *joinSide) tokenLists() [][]string {
	lists := make([][]string, len(s.recs))
	for i, rec := range s.recs {
		lists[i] = rec.tokens
	}
	return lists
}

func (s *joinSide) applyOrdering(o *TokenOrdering) {
	for _, rec := range s.recs {
		rec.ranks = o.Order(rec.tokens)
	}
}

// skippedErrors the record errors in table order
func (s *joinSide) skippedErrors() []*RecordError {
	if len(s.skipped) == 0 {
		return nil
	}
	errs := make([]*RecordError, 0, len(s.skipped))
	for idx := range s.table.Records {
		if err, ok := s.skipped[idx]; ok {
			errs = append(errs, err)
		}
	}
	return errs
}
