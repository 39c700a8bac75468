// Command malhfcreate creates a new multi-attribute linear-hashed
// relation: its .info, .data, and .ovflow files.
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
		nattrsFlag = flag.Int64("nattrs", 0, "number of attributes (required)")
		npagesFlag = flag.Int64("npages", 4, "initial number of primary pages")
		depthFlag  = flag.Int64("depth", 0, "initial linear-hashing depth")
		cvFlag     = flag.String("cv", "", "choice vector spec, e.g. \"0:0,1:0,0:1,1:1,...\" (required)")
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

	if *nameFlag == "" || *nattrsFlag <= 0 || *cvFlag == "" {
		log.Error("name, nattrs, and cv are required")
		flag.Usage()
		os.Exit(1)
	}

	hasher, err := lhash.HasherByName(*hasherFlag)
	if err != nil {
		log.Errorw("invalid hasher", "error", err)
		os.Exit(1)
	}

	r, err := lhash.NewRelation(*nameFlag, *nattrsFlag, *npagesFlag, *depthFlag, *cvFlag, hasher, log)
	if err != nil {
		log.Errorw("failed to create relation", "name", *nameFlag, "error", err)
		os.Exit(1)
	}
	if err := r.Close(); err != nil {
		log.Errorw("failed to close relation", "name", *nameFlag, "error", err)
		os.Exit(1)
	}
}
