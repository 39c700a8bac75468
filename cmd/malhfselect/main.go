// Command malhfselect runs a partial-match query against a relation and
// prints each matching tuple (optionally projected) on its own line.
package main

import (
	"flag"
	"fmt"
	"os"

	"malhf/pkg/config"
	"malhf/pkg/lhash"
	"malhf/pkg/project"
	"malhf/pkg/tuple"
)

func main() {
	var (
		nameFlag    = flag.String("name", "", "relation name (file path prefix, required)")
		hasherFlag  = flag.String("hasher", "jenkins", "attribute hasher: jenkins, xxhash, or murmur3")
		projectFlag = flag.String("project", "*", "comma-separated 1-based attribute list, or \"*\" for all")
		debugFlag   = flag.Bool("debug", false, "enable development logging")
	)
	flag.Parse()

	log, err := config.NewLogger(*debugFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if *nameFlag == "" || flag.NArg() != 1 {
		log.Error("name and a single query pattern argument are required")
		flag.Usage()
		os.Exit(1)
	}
	pattern := flag.Arg(0)

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

	q, err := tuple.Parse(pattern, int(r.NAttrs()))
	if err != nil {
		log.Errorw("malformed query", "pattern", pattern, "error", err)
		os.Exit(1)
	}

	proj, err := project.New(*projectFlag, int(r.NAttrs()))
	if err != nil {
		log.Errorw("malformed projection list", "project", *projectFlag, "error", err)
		os.Exit(1)
	}

	sel, err := lhash.NewSelection(r, q)
	if err != nil {
		log.Errorw("failed to start selection", "error", err)
		os.Exit(1)
	}
	defer sel.Close()

	for {
		t, ok, err := sel.Next()
		if err != nil {
			log.Errorw("scan error", "error", err)
			os.Exit(1)
		}
		if !ok {
			break
		}
		fmt.Println(proj.Project(t))
	}
}
