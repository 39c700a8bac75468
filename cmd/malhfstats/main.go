// Command malhfstats prints a relation's global header fields, choice
// vector, and per-bucket page chain summaries.
package main

import (
	"flag"
	"fmt"
	"os"

	"malhf/pkg/config"
	"malhf/pkg/lhash"
)

func main() {
	var (
		nameFlag   = flag.String("name", "", "relation name (file path prefix, required)")
		hasherFlag = flag.String("hasher", "jenkins", "attribute hasher: jenkins, xxhash, or murmur3")
		debugFlag  = flag.Bool("debug", false, "enable development logging")
	)
	flag.Parse()

	log, err := config.NewLogger(*debugFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if *nameFlag == "" {
		log.Error("name is required")
		flag.Usage()
		os.Exit(1)
	}

	hasher, err := lhash.HasherByName(*hasherFlag)
	if err != nil {
		log.Errorw("invalid hasher", "error", err)
		os.Exit(1)
	}

	r, err := lhash.OpenRelation(*nameFlag, false, hasher, log)
	if err != nil {
		log.Errorw("failed to open relation", "name", *nameFlag, "error", err)
		os.Exit(1)
	}
	defer r.Close()

	fmt.Printf("#attrs:%d  #pages:%d  #tuples:%d  d:%d  sp:%d\n",
		r.NAttrs(), r.NPages(), r.NTuples(), r.Depth(), r.SplitPointer())
	fmt.Println("Choice vector")
	fmt.Println(r.ChoiceVec().String())

	buckets, err := r.Stats()
	if err != nil {
		log.Errorw("failed to gather bucket stats", "error", err)
		os.Exit(1)
	}

	fmt.Println("Bucket Info:")
	fmt.Printf("%-4s %s\n", "#", "(pageID,#tuples,freebytes,ovflow)")
	for bid, chain := range buckets {
		fmt.Printf("[%2d]  ", bid)
		for i, page := range chain {
			label := "d"
			if i > 0 {
				label = "ov"
			}
			if i > 0 {
				fmt.Print(" -> ")
			}
			fmt.Printf("(%s%d,%d,%d,%d)", label, page.PageID, page.NTuples, page.FreeSpace, page.Ovflow)
		}
		fmt.Println()
	}
}
