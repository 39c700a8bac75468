// Package config centralizes the implementation constants and logging
// setup shared by every MA-LHF package and command.
package config

import (
	"fmt"

	"go.uber.org/zap"
)

// Name used in prompts/log fields.
const Name = "malhf"

// MaxTupleLen is the maximum length, in bytes, of a serialized tuple
// (including its terminating '\0'). Tuples larger than this cannot be
// stored, per spec.
const MaxTupleLen = 200

// MaxChVec is the width, in bits, of the composite choice-vector hash and
// the number of (attribute, bit) entries a choice-vector spec must supply.
const MaxChVec = 32

// BucketCapacityConstant is the numerator of the per-page soft-capacity
// heuristic `floor(BucketCapacityConstant / nattrs)`. Preserved exactly as
// the original source computed it (see SPEC_FULL.md, Open Questions) rather
// than re-derived from PageSize.
const BucketCapacityConstant = 102.4

// BucketCapacity returns the per-page soft tuple-count threshold that
// triggers one linear-hash split, for a relation with the given attribute
// count.
func BucketCapacity(nattrs int64) int64 {
	return int64(BucketCapacityConstant / float64(nattrs))
}

// The maximum number of pages that can be in a pager's in-memory buffer at once.
const MaxPagesInBuffer = 32

// NewLogger builds the process-wide structured logger. debug selects a
// development configuration (console-friendly, stdout) over the default
// production configuration (JSON, leveled).
func NewLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stdout"}
		logger, err = cfg.Build()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Sugar(), nil
}
