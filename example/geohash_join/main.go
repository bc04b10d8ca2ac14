package main

import (
	"context"
	"fmt"

	"github.com/echoface/simjoin"
	"github.com/echoface/simjoin/tokenizer"
	"github.com/echoface/simjoin/util"
)

func main() {
	// a point emit its cell plus the 8 neighbors, lat:lon:radius emit the
	// cells covering the circle
	stores := simjoin.NewTable("stores", "loc").
		MustAppend("s1", map[string]any{"loc": "31.21275902:121.53779984"}).
		MustAppend("s2", map[string]any{"loc": "39.90420000:116.40740000"})
	users := simjoin.NewTable("users", "loc").
		MustAppend("u1", map[string]any{"loc": "31.21300000:121.53800000"}).
		MustAppend("u2", map[string]any{"loc": "31.21275902:121.53779984:1000"}).
		MustAppend("u3", map[string]any{"loc": "invalid"})

	res, err := simjoin.Join(context.Background(), stores, users, simjoin.JoinSettings{
		LeftAttr:  "loc",
		RightAttr: "loc",
		Tokenizer: tokenizer.Spec{Kind: tokenizer.KindGeoHash, GeoPrecision: 6},
		Measure:   simjoin.Overlap,
		Operator:  simjoin.GE,
		Threshold: 1,
		OutScore:  true,
	}, simjoin.WithStepDetail())
	util.PanicIfErr(err, "geo join fail")
	util.PanicIf(len(res.Skipped) != 1, "invalid location need be skipped")

	for _, row := range res.Rows() {
		fmt.Println(row)
	}
}
