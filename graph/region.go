package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// Region is a genomic interval. Start and End are 0-based, half-open.
type Region struct {
	Chrom      string
	Start, End int
}

// ParseRegion parses "chr:start-end" where start and end are 1-based and
// inclusive, as in samtools. A bare "chr" spans the whole chromosome.
func ParseRegion(s string) (Region, error) {
	s = strings.Replace(strings.TrimSpace(s), ",", "", -1)
	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		if s == "" {
			return Region{}, errors.E(errors.Invalid, "graph: empty region")
		}
		return Region{Chrom: s, Start: 0, End: int(^uint(0) >> 1)}, nil
	}
	r := Region{Chrom: s[:colon]}
	rng := s[colon+1:]
	dash := strings.IndexByte(rng, '-')
	if dash < 0 || r.Chrom == "" {
		return Region{}, errors.E(errors.Invalid, "graph: malformed region:", s)
	}
	start, err := strconv.Atoi(rng[:dash])
	if err != nil {
		return Region{}, errors.E(errors.Invalid, err, "graph: malformed region start:", s)
	}
	end, err := strconv.Atoi(rng[dash+1:])
	if err != nil {
		return Region{}, errors.E(errors.Invalid, err, "graph: malformed region end:", s)
	}
	if start < 1 || end < start {
		return Region{}, errors.E(errors.Invalid, "graph: empty or negative region:", s)
	}
	r.Start, r.End = start-1, end
	return r, nil
}

// Len returns the number of bases in r.
func (r Region) Len() int { return r.End - r.Start }

// Overlaps checks if [start, end) on chrom intersects r.
func (r Region) Overlaps(chrom string, start, end int) bool {
	return chrom == r.Chrom && start < r.End && r.Start < end
}

// String returns r in the 1-based form accepted by ParseRegion.
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start+1, r.End)
}
