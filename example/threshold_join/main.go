package main

import (
	"context"
	"fmt"

	"github.com/echoface/simjoin"
	"github.com/echoface/simjoin/tokenizer"
	"github.com/echoface/simjoin/util"
)

func main() {
	left := simjoin.NewTable("left", "title").
		MustAppend("a1", map[string]any{"title": "fuzzy wuzzy was a bear"}).
		MustAppend("a2", map[string]any{"title": "fizzy buzzy"}).
		MustAppend("a3", map[string]any{"title": nil})
	right := simjoin.NewTable("right", "title").
		MustAppend("b1", map[string]any{"title": "fuzzy wuzzy was the bear"}).
		MustAppend("b2", map[string]any{"title": "fizzy buzzy pop"})

	res, err := simjoin.Join(context.Background(), left, right, simjoin.JoinSettings{
		LeftAttr:      "title",
		RightAttr:     "title",
		Measure:       simjoin.Jaccard,
		Operator:      simjoin.GE,
		Threshold:     0.6,
		LeftOutAttrs:  []string{"title"},
		RightOutAttrs: []string{"title"},
		OutScore:      true,
	}, simjoin.WithStepDetail(), simjoin.WithDumpEntries())
	util.PanicIfErr(err, "join fail")
	util.PanicIf(res.Len() != 2, "need 2 pairs, got:%d", res.Len())

	fmt.Println(res.Header)
	for _, row := range res.Rows() {
		fmt.Println(row)
	}

	// 3-gram edit distance, values shorter than 3 runes never match
	res, err = simjoin.Join(context.Background(), left, right, simjoin.JoinSettings{
		LeftAttr:  "title",
		RightAttr: "title",
		Tokenizer: tokenizer.Spec{Kind: tokenizer.KindQGram, Q: 3},
		Measure:   simjoin.EditDistance,
		Operator:  simjoin.LE,
		Threshold: 4,
		OutScore:  true,
		Missing:   simjoin.MissingIncludeAsMatch,
	}, simjoin.WithWorkers(2))
	util.PanicIfErr(err, "edit distance join fail")
	fmt.Println(util.JSONPretty(res.Stats))
	for _, row := range res.Rows() {
		fmt.Println(row)
	}
}
