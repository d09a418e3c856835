package grm

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Stats counts the outcomes of CompositeAligner.AlignRead. Every read passed
// to AlignRead increments exactly one of Filtered and Attempted, and every
// attempted read increments exactly one of the remaining fields.
type Stats struct {
	// Filtered counts reads rejected by the ReadFilter.
	Filtered int
	// Attempted counts reads that went through the cascade.
	Attempted int
	// MappedPath counts reads placed entirely within a path.
	MappedPath int
	// AnchoredPath counts reads placed hanging off the end of a path.
	AnchoredPath int
	// MappedKlib counts reads placed by the klib strategy.
	MappedKlib int
	// MappedKmers counts reads placed by the kmer strategy.
	MappedKmers int
	// MappedSw counts reads placed by the graph (Smith-Waterman) strategy.
	MappedSw int
	// Unmapped counts attempted reads no strategy could place.
	Unmapped int
}

// Merge adds the field values of the two Stats objects and creates new Stats.
func (s Stats) Merge(o Stats) Stats {
	s.Filtered += o.Filtered
	s.Attempted += o.Attempted
	s.MappedPath += o.MappedPath
	s.AnchoredPath += o.AnchoredPath
	s.MappedKlib += o.MappedKlib
	s.MappedKmers += o.MappedKmers
	s.MappedSw += o.MappedSw
	s.Unmapped += o.Unmapped
	return s
}

// Mapped is the number of reads placed by any strategy.
func (s Stats) Mapped() int {
	return s.MappedPath + s.AnchoredPath + s.MappedKlib + s.MappedKmers + s.MappedSw
}

// Check verifies that the counters add up.
func (s Stats) Check() error {
	if s.Mapped()+s.Unmapped != s.Attempted {
		return errors.E(errors.Invalid, fmt.Sprintf("grm stats: mapped %d + unmapped %d != attempted %d", s.Mapped(), s.Unmapped, s.Attempted))
	}
	return nil
}

func (s Stats) String() string {
	return fmt.Sprintf("filtered:%d attempted:%d path:%d anchored:%d klib:%d kmer:%d sw:%d unmapped:%d",
		s.Filtered, s.Attempted, s.MappedPath, s.AnchoredPath, s.MappedKlib, s.MappedKmers, s.MappedSw, s.Unmapped)
}
