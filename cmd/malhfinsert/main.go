// Command malhfinsert reads tuples, one per line, from stdin and inserts
// each into an existing relation.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"malhf/pkg/config"
	"malhf/pkg/lhash"
	"malhf/pkg/tuple"

	"github.com/google/uuid"
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
	log = log.With("run", uuid.New())

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

	r, err := lhash.OpenRelation(*nameFlag, true, hasher, log)
	if err != nil {
		log.Errorw("failed to open relation", "name", *nameFlag, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorw("failed to close relation", "error", err)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	inserted, failed := 0, 0
	for scanner.Scan() {
		line := scanner.Text()
		t, err := tuple.Parse(line, int(r.NAttrs()))
		if err != nil {
			log.Warnw("malformed tuple", "line", line, "error", err)
			failed++
			continue
		}
		if _, err := r.AddTuple(t); err != nil {
			log.Warnw("insert failed", "tuple", line, "error", err)
			failed++
			continue
		}
		inserted++
	}
	if err := scanner.Err(); err != nil {
		log.Errorw("error reading stdin", "error", err)
		os.Exit(1)
	}

	log.Infow("insert complete", "inserted", inserted, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
