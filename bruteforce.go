package simjoin

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/echoface/simjoin/util"
)

// bruteForceJoin verify every pair of usable records; set measures skip
// records without any token, same as the prefix filtered join
func bruteForceJoin(ctx context.Context, jc *joinContext, ls, rs *joinSide,
	s *JoinSettings, stats *JoinStats) ([]matchedPair, error) {

	stats.BruteForce = true
	stats.Partitions = 1

	chunks := util.Chunk(len(rs.recs), jc.workers)
	buffers := make([]*pairBuffer, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jc.workers)
	for ci, chunk := range chunks {
		buffer := &pairBuffer{}
		buffers[ci] = buffer
		probing := rs.recs[chunk[0]:chunk[1]]
		g.Go(func() error {
			for _, r := range probing {
				if err := gctx.Err(); err != nil {
					return err
				}
				verifyAll(ls.recs, r, s, buffer)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mergeBuffers(buffers, nil, stats), nil
}

func verifyAll(lrecs []*tokenizedRecord, r *tokenizedRecord, s *JoinSettings, out *pairBuffer) {
	if s.Measure.SetBased() && len(r.tokens) == 0 {
		return
	}
	for _, l := range lrecs {
		var score float64
		if s.Measure == EditDistance {
			score = float64(editDistance(l.raw, r.raw))
		} else {
			if len(l.tokens) == 0 {
				continue
			}
			score = setScore(s.Measure, overlapTokens(l.tokens, r.tokens), len(l.tokens), len(r.tokens))
		}
		out.stats.Candidates++
		if s.Operator.Compare(score, s.Threshold) {
			out.add(l.idx, r.idx, score)
			out.stats.Matched++
		}
	}
}
