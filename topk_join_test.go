package simjoin

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/require"

	"github.com/echoface/simjoin/tokenizer"
)

func topkTables() (*Table, *Table) {
	left := NewTable("left", "v").
		MustAppend("l1", map[string]any{"v": "t0 t1 t2 t3 t4 t5 t6 t7 t8 t9"}).
		MustAppend("l2", map[string]any{"v": "x y"}).
		MustAppend("l3", map[string]any{"v": "p q r"})
	right := NewTable("right", "v").
		MustAppend("r1", map[string]any{"v": "t0 t1 t2 t3 t4 t5 t6 t7 t8"}).
		MustAppend("r2", map[string]any{"v": "x y z w"}).
		MustAppend("r3", map[string]any{"v": "p s t"})
	return left, right
}

func TestTopKJoin(t *testing.T) {
	ctx := context.Background()

	convey.Convey("top 1 stop early after the best pair", t, func() {
		left, right := topkTables()
		res, err := TopKJoin(ctx, left, right, TopKSettings{LeftAttr: "v", RightAttr: "v", K: 1})
		convey.So(err, convey.ShouldBeNil)
		convey.So(res.Pairs, convey.ShouldResemble, []ScoredPair{{LeftID: "l1", RightID: "r1", Score: 0.9}})
		convey.So(res.Stats.TotalEvents, convey.ShouldEqual, 31)
		convey.So(res.Stats.PoppedEvents, convey.ShouldEqual, 7)
		convey.So(res.Stats.ComparedPairs, convey.ShouldEqual, 1)
		convey.So(res.Stats.EarlyStop, convey.ShouldBeTrue)
		convey.So(res.Stats.IndexedEntries, convey.ShouldBeLessThanOrEqualTo, res.Stats.PoppedEvents)
	})

	convey.Convey("top 3 best first", t, func() {
		left, right := topkTables()
		res, err := TopKJoin(ctx, left, right, TopKSettings{LeftAttr: "v", RightAttr: "v", K: 3})
		convey.So(err, convey.ShouldBeNil)
		convey.So(len(res.Pairs), convey.ShouldEqual, 3)
		convey.So(res.Pairs[0].Score, convey.ShouldEqual, 0.9)
		convey.So(res.Pairs[1], convey.ShouldResemble, ScoredPair{LeftID: "l2", RightID: "r2", Score: 0.5})
		convey.So(res.Pairs[2].LeftID, convey.ShouldEqual, "l3")
		convey.So(res.Pairs[2].RightID, convey.ShouldEqual, "r3")
		convey.So(res.Pairs[2].Score, convey.ShouldAlmostEqual, 0.2)
	})

	convey.Convey("k larger than the sharing pairs", t, func() {
		left, right := topkTables()
		res, err := TopKJoin(ctx, left, right, TopKSettings{LeftAttr: "v", RightAttr: "v", K: 20})
		convey.So(err, convey.ShouldBeNil)
		convey.So(len(res.Pairs), convey.ShouldEqual, 3)
		convey.So(res.Stats.EarlyStop, convey.ShouldBeFalse)
		convey.So(res.Stats.PoppedEvents, convey.ShouldEqual, res.Stats.TotalEvents)
	})

	convey.Convey("excluded pairs are never reported", t, func() {
		left, right := topkTables()
		exclude := NewCandidateSet(Pair{LeftID: "l1", RightID: "r1"})
		res, err := TopKJoin(ctx, left, right, TopKSettings{LeftAttr: "v", RightAttr: "v", K: 1, Exclude: exclude})
		convey.So(err, convey.ShouldBeNil)
		convey.So(res.Pairs, convey.ShouldResemble, []ScoredPair{{LeftID: "l2", RightID: "r2", Score: 0.5}})

		exclude.Add("l9", "r1")
		_, err = TopKJoin(ctx, left, right, TopKSettings{LeftAttr: "v", RightAttr: "v", K: 1, Exclude: exclude})
		convey.So(errors.Is(err, ErrUnknownRecordID), convey.ShouldBeTrue)
	})

	convey.Convey("degenerate inputs give empty result", t, func() {
		left, right := topkTables()
		for _, k := range []int{0, -1} {
			res, err := TopKJoin(ctx, left, right, TopKSettings{LeftAttr: "v", RightAttr: "v", K: k})
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.Pairs, convey.ShouldBeEmpty)
		}

		res, err := TopKJoin(ctx, NewTable("empty", "v"), right, TopKSettings{LeftAttr: "v", RightAttr: "v", K: 2})
		convey.So(err, convey.ShouldBeNil)
		convey.So(res.Pairs, convey.ShouldBeEmpty)

		_, err = TopKJoin(ctx, left, right, TopKSettings{LeftAttr: "name", RightAttr: "v", K: 2})
		convey.So(errors.Is(err, ErrAttrNotFound), convey.ShouldBeTrue)

		_, err = TopKJoin(ctx, left, nil, TopKSettings{LeftAttr: "v", RightAttr: "v", K: 2})
		convey.So(err, convey.ShouldEqual, ErrNilTable)
	})

	convey.Convey("unusable values are skipped", t, func() {
		left, right := topkTables()
		left.MustAppend("l4", map[string]any{"v": 3.5})
		left.MustAppend("l5", map[string]any{"v": nil})
		res, err := TopKJoin(ctx, left, right, TopKSettings{LeftAttr: "v", RightAttr: "v", K: 1})
		convey.So(err, convey.ShouldBeNil)
		convey.So(res.Pairs[0].LeftID, convey.ShouldEqual, "l1")
		convey.So(len(res.Skipped), convey.ShouldEqual, 1)
		convey.So(res.Skipped[0].RecordID, convey.ShouldEqual, "l4")
		convey.So(res.Skipped[0].Stage, convey.ShouldEqual, StageTopK)
	})

	convey.Convey("canceled context", t, func() {
		left, right := topkTables()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := TopKJoin(cctx, left, right, TopKSettings{LeftAttr: "v", RightAttr: "v", K: 1})
		convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
	})
}

func TestTopKJoinState(t *testing.T) {
	convey.Convey("step a state by hand", t, func() {
		state := NewTopKJoinState([][]int32{{0, 1}, {2}}, [][]int32{{0, 1, 2}}, 2)
		convey.So(state.Done(), convey.ShouldBeFalse)

		steps := 0
		for state.Step() {
			steps++
		}
		convey.So(state.Done(), convey.ShouldBeTrue)
		convey.So(state.Step(), convey.ShouldBeFalse)
		convey.So(int64(steps), convey.ShouldEqual, state.Stats().PoppedEvents)

		res := state.Results()
		convey.So(len(res), convey.ShouldEqual, 2)
		convey.So(res[0].Left, convey.ShouldEqual, 0)
		convey.So(res[0].Score, convey.ShouldAlmostEqual, 2.0/3)
		convey.So(res[1].Left, convey.ShouldEqual, 1)
		convey.So(res[1].Score, convey.ShouldAlmostEqual, 1.0/3)
	})

	convey.Convey("zero k is done at once", t, func() {
		state := NewTopKJoinState([][]int32{{0}}, [][]int32{{0}}, 0)
		convey.So(state.Done(), convey.ShouldBeTrue)
		convey.So(state.Run(context.Background()), convey.ShouldBeNil)
		convey.So(state.Results(), convey.ShouldBeEmpty)
	})

	convey.Convey("tokens unable to beat the k-th score are not indexed", t, func() {
		// after (0,0) scores 2/3, token 2 of left 1 sit at position 1 of 4
		// and bound any pair first sharing it by 3/5
		state := NewTopKJoinState([][]int32{{5, 6, 7}, {1, 2, 3, 4}}, [][]int32{{5, 6}}, 1)
		convey.So(state.Run(context.Background()), convey.ShouldBeNil)

		stats := state.Stats()
		convey.So(stats.TotalEvents, convey.ShouldEqual, 9)
		convey.So(stats.PoppedEvents, convey.ShouldEqual, 4)
		convey.So(stats.IndexedEntries, convey.ShouldEqual, 3)
		convey.So(stats.EarlyStop, convey.ShouldBeTrue)

		res := state.Results()
		convey.So(len(res), convey.ShouldEqual, 1)
		convey.So(res[0].Left, convey.ShouldEqual, 0)
		convey.So(res[0].Right, convey.ShouldEqual, 0)
		convey.So(res[0].Score, convey.ShouldAlmostEqual, 2.0/3)
	})

	convey.Convey("excluded pair leave room for the next one", t, func() {
		state := NewTopKJoinState([][]int32{{0, 1}, {2}}, [][]int32{{0, 1, 2}}, 1)
		state.Exclude(0, 0)
		convey.So(state.Run(context.Background()), convey.ShouldBeNil)
		res := state.Results()
		convey.So(len(res), convey.ShouldEqual, 1)
		convey.So(res[0].Left, convey.ShouldEqual, 1)
		convey.So(res[0].Right, convey.ShouldEqual, 0)
	})
}

func TestTopKJoinMatchBruteForce(t *testing.T) {
	ctx := context.Background()
	rd := rand.New(rand.NewSource(99))
	tk, err := tokenizer.New(tokenizer.Spec{})
	require.NoError(t, err)

	for round := 0; round < 8; round++ {
		left := randomTokenTable(rd, "l", 30, 15, 7)
		right := randomTokenTable(rd, "r", 30, 15, 7)

		var scores []float64
		for i := range left.Records {
			for j := range right.Records {
				score, err := Similarity(Jaccard, tk, left.Records[i].Attrs["v"].(string), right.Records[j].Attrs["v"].(string))
				require.NoError(t, err)
				if score > 0 {
					scores = append(scores, score)
				}
			}
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(scores)))

		for _, k := range []int{1, 5, 20, 1000} {
			name := fmt.Sprintf("round:%d k:%d", round, k)
			res, err := TopKJoin(ctx, left, right, TopKSettings{LeftAttr: "v", RightAttr: "v", K: k})
			require.NoError(t, err, name)

			expect := scores[:min(k, len(scores))]
			actual := make([]float64, 0, len(res.Pairs))
			for _, p := range res.Pairs {
				actual = append(actual, p.Score)
			}
			require.Equal(t, expect, actual, name)
		}
	}
}
