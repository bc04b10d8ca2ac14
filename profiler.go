package simjoin

import (
	"fmt"
	"math"
)

// AttrProfile uniqueness and missing statistics of one attribute, a missing
// value count as one distinct value
type AttrProfile struct {
	Attr           string
	Unique         int
	UniquePercent  float64
	Missing        int
	MissingPercent float64
	Comments       string
}

// ProfileTable profile attrs, or every column when none given, to help pick
// a join attribute
func ProfileTable(t *Table, attrs ...string) ([]AttrProfile, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		attrs = t.Columns
	} else if err := checkAttrs(t, attrs...); err != nil {
		return nil, err
	}

	rows := t.Len()
	profiles := make([]AttrProfile, 0, len(attrs))
	for _, attr := range attrs {
		distinct := make(map[string]struct{})
		missing := 0
		for i := range t.Records {
			v, ok := t.Records[i].Value(attr)
			if !ok {
				missing++
				continue
			}
			distinct[fmt.Sprintf("%T\x00%v", v, v)] = struct{}{}
		}
		unique := len(distinct)
		if missing > 0 {
			unique++
		}

		p := AttrProfile{
			Attr:           attr,
			Unique:         unique,
			UniquePercent:  percent(unique, rows),
			Missing:        missing,
			MissingPercent: percent(missing, rows),
		}
		if p.MissingPercent > 0 {
			p.Comments = fmt.Sprintf("Joining on this attribute will ignore %s rows.",
				formatStatistic(p.Missing, p.MissingPercent))
		}
		if rows > 0 && p.Unique == rows {
			p.Comments = "This attribute can be used as a key attribute."
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (p AttrProfile) String() string {
	return fmt.Sprintf("%s unique:%s missing:%s %s", p.Attr,
		formatStatistic(p.Unique, p.UniquePercent), formatStatistic(p.Missing, p.MissingPercent), p.Comments)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*10000) / 100
}

func formatStatistic(n int, pct float64) string {
	return fmt.Sprintf("%d (%.2f%%)", n, pct)
}
