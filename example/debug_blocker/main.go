package main

import (
	"context"
	"fmt"

	"github.com/echoface/simjoin"
	"github.com/echoface/simjoin/util"
)

func main() {
	left := simjoin.NewTable("phones", "city", "name").
		MustAppend("a1", map[string]any{"city": "palo alto", "name": "apple iphone"}).
		MustAppend("a2", map[string]any{"city": "mountain view", "name": "google pixel"})
	right := simjoin.NewTable("listings", "city", "name").
		MustAppend("b1", map[string]any{"city": "palo alto", "name": "apple iphone x"}).
		MustAppend("b2", map[string]any{"city": "mountain view", "name": "google pixel phone"})

	profiles, err := simjoin.ProfileTable(left)
	util.PanicIfErr(err, "profile fail")
	for _, p := range profiles {
		fmt.Println(p.String())
	}

	// a toy blocker that only keep a1<>b1
	ctx := context.Background()
	cands, err := simjoin.BlackBoxJoin(ctx, left, right, simjoin.PredicateFunc(func(l, r *simjoin.Record) (bool, error) {
		lv, _ := l.Value("name")
		rv, _ := r.Value("name")
		return lv == "apple iphone" && rv == "apple iphone x", nil
	}))
	util.PanicIfErr(err, "blocking fail")

	res, err := simjoin.DebugBlocker(ctx, left, right, cands, simjoin.DebugBlockerSettings{OutputSize: 10})
	util.PanicIfErr(err, "debug blocker fail")
	util.PanicIf(len(res.Pairs) == 0 || res.Pairs[0].LeftID != "a2", "need pair a2<>b2 first")

	fmt.Println(res.Header)
	for _, row := range res.Rows {
		fmt.Println(row)
	}

	recs, err := simjoin.RecommendLists(ctx, left, right, cands, simjoin.DebugBlockerSettings{OutputSize: 10})
	util.PanicIfErr(err, "recommend fail")
	fmt.Println(util.JSONString(recs))
}
