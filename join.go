package simjoin

import (
	"context"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/echoface/simjoin/util"
)

// Join find every (left, right) pair whose join values satisfy
// measure(left, right) <operator> threshold. the left side is indexed under
// prefix tokens and right records probe it; measure/operator pairs that can't
// be prefix filtered fail with ErrUnsupportedOperator unless
// BruteForceFallback is set.
// edit distance joins are approximate: a pair is only found when the two
// values share a q-gram, so values shorter than q never match
func Join(ctx context.Context, left, right *Table, settings JoinSettings, opts ...JoinOpt) (*Result, error) {
	jc := newJoinContext(opts...)
	settings.setDefaults()

	tk, err := settings.validate(left, right)
	if err != nil {
		return nil, err
	}

	opt := sideOption{stage: StageIndex, setBased: settings.Measure.SetBased(), coerce: settings.CoerceValues}
	ls := prepareSide(left, settings.LeftAttr, tk, opt)
	opt.stage = StageProbe
	rs := prepareSide(right, settings.RightAttr, tk, opt)

	var pairs []matchedPair
	var stats JoinStats

	bruteForce := jc.bruteForce || !PrefixFilterable(settings.Measure, settings.Operator)
	if bruteForce {
		LogInfoIf(!jc.bruteForce, "measure:%s operator:%s can't be prefix filtered, fallback to brute force",
			settings.Measure, settings.Operator)
		pairs, err = bruteForceJoin(ctx, jc, ls, rs, &settings, &stats)
	} else {
		pairs, err = prefixJoin(ctx, jc, ls, rs, &settings, gramLength(tk), &stats)
	}
	if err != nil {
		return nil, err
	}

	if settings.Missing == MissingIncludeAsMatch {
		before := len(pairs)
		pairs = appendMissingPairs(pairs, ls, rs)
		stats.MissingPairs = int64(len(pairs) - before)
	}

	res := assembleResult(left, right, pairs, &settings)
	res.Stats = stats
	res.Skipped = append(ls.skippedErrors(), rs.skippedErrors()...)

	LogInfoIf(jc.dumpStepInfo, "join %s<>%s done, pairs:%d stats:%s skipped:%d",
		left.Name, right.Name, res.Len(), util.JSONString(stats), len(res.Skipped))

	if jc.collector != nil {
		for i := range res.Pairs {
			jc.collector.Add(&res.Pairs[i])
		}
	}
	return res, nil
}

// prefixJoin build one prefix index per partition of the left side and probe
// it with disjoint slices of the right side concurrently
func prefixJoin(ctx context.Context, jc *joinContext, ls, rs *joinSide,
	s *JoinSettings, q int, stats *JoinStats) ([]matchedPair, error) {

	ordering := BuildOrdering(ls.tokenLists(), rs.tokenLists())
	ls.applyOrdering(ordering)
	rs.applyOrdering(ordering)
	LogInfoIf(jc.dumpStepInfo, "token ordering built, vocabulary:%d", ordering.Len())

	threshold := s.Threshold
	if s.Measure == EditDistance {
		threshold = float64(editBound(s.Operator, s.Threshold))
	}

	numParts := 1
	if jc.partitionSize > 0 {
		numParts = (len(ls.recs) + jc.partitionSize - 1) / jc.partitionSize
	}
	partitions := util.Chunk(len(ls.recs), numParts)
	stats.Partitions = len(partitions)

	var pairs []matchedPair
	for pi, part := range partitions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		index := buildPrefixIndex(ls.recs[part[0]:part[1]], s.Measure, threshold, q)
		if jc.dumpStepInfo {
			sb := &strings.Builder{}
			index.DumpInfo(sb)
			LogInfo("partition:%d/%d index info:%s", pi+1, len(partitions), sb.String())
		}
		if jc.dumpEntriesDetail {
			sb := &strings.Builder{}
			index.DumpEntries(ordering, sb)
			LogInfo("partition:%d %s", pi+1, sb.String())
		}

		chunks := util.Chunk(len(rs.recs), jc.workers)
		buffers := make([]*pairBuffer, len(chunks))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(jc.workers)
		for ci, chunk := range chunks {
			buffer := &pairBuffer{}
			buffers[ci] = buffer
			probing := rs.recs[chunk[0]:chunk[1]]
			g.Go(func() error {
				p := newProber(index, s, q)
				defer p.release()
				for _, rec := range probing {
					if err := gctx.Err(); err != nil {
						return err
					}
					p.probe(rec, buffer)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		pairs = mergeBuffers(buffers, pairs, stats)
	}
	return pairs, nil
}

// appendMissingPairs pair null left records with every usable right record,
// then null right records with every non null left record
func appendMissingPairs(pairs []matchedPair, ls, rs *joinSide) []matchedPair {
	nan := math.NaN()
	for _, l := range ls.missing {
		for r := range rs.table.Records {
			if _, skipped := rs.skipped[r]; skipped {
				continue
			}
			pairs = append(pairs, matchedPair{l: l, r: r, score: nan})
		}
	}
	for _, r := range rs.missing {
		for _, rec := range ls.recs {
			pairs = append(pairs, matchedPair{l: rec.idx, r: r, score: nan})
		}
	}
	return pairs
}
