package grm

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
)

// GraphFlags controls the behavior of the graph strategy.
type GraphFlags uint8

const (
	// ClipStart lets the graph strategy soft-clip the start of a read.
	ClipStart GraphFlags = 1 << iota
	// ClipEnd lets the graph strategy soft-clip the end of a read.
	ClipEnd
	// AllFlags enables every graph strategy option.
	AllFlags = ClipStart | ClipEnd
)

func (f GraphFlags) String() string {
	var s []string
	if f&ClipStart != 0 {
		s = append(s, "clipstart")
	}
	if f&ClipEnd != 0 {
		s = append(s, "clipend")
	}
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, "|")
}

// Opts configures a CompositeAligner.
type Opts struct {
	// PathMatching, KlibMatching, KmerMatching and GraphMatching enable the
	// individual strategies. At least one must be set.
	PathMatching  bool
	KlibMatching  bool
	KmerMatching  bool
	GraphMatching bool
	// KmerBeforeKlib tries the kmer strategy before the klib strategy.
	KmerBeforeKlib bool
	GraphFlags     GraphFlags

	// PathAnchorLength is the length of the exact seeds taken from both ends
	// of a read by the path strategy.
	PathAnchorLength int
	// PathMinOverlap is the minimum number of bases a read hanging off the
	// end of a path must share with it to count as anchored.
	PathMinOverlap int
	// MaxMismatches bounds the mismatches of ungapped placements made by the
	// path and kmer strategies.
	MaxMismatches int
	// KlibMaxEdits bounds the edit distance of klib placements.
	KlibMaxEdits int

	// KmerLength is the k of the kmer index, at most 32.
	KmerLength int
	// MaxKmerHits drops kmers that occur more often than this from the index.
	MaxKmerHits int
	// KmerMinVoteFraction is the fraction of a read's kmers that must agree on
	// a placement.
	KmerMinVoteFraction float64

	// Match, Mismatch and Gap score the graph strategy's alignments. Gap is a
	// per-base linear penalty.
	Match    int
	Mismatch int
	Gap      int
	// GraphMinScoreFraction is the minimum graph alignment score, as a
	// fraction of a perfect score.
	GraphMinScoreFraction float64

	// MaxTies caps the number of tied placements reported for a read.
	MaxTies int
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	PathMatching:          true,
	KlibMatching:          true,
	KmerMatching:          true,
	GraphMatching:         true,
	GraphFlags:            AllFlags,
	PathAnchorLength:      16,
	PathMinOverlap:        32,
	MaxMismatches:         3,
	KlibMaxEdits:          4,
	KmerLength:            16,
	MaxKmerHits:           16,
	KmerMinVoteFraction:   0.3,
	Match:                 1,
	Mismatch:              -4,
	Gap:                   -6,
	GraphMinScoreFraction: 0.5,
	MaxTies:               8,
}

func (o Opts) validate() error {
	if !o.PathMatching && !o.KlibMatching && !o.KmerMatching && !o.GraphMatching {
		return errors.E(errors.Invalid, "no alignment strategy is enabled")
	}
	if o.PathMatching && o.PathAnchorLength <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("path anchor length must be positive, got %d", o.PathAnchorLength))
	}
	if o.KmerMatching && (o.KmerLength <= 0 || o.KmerLength > 32) {
		return errors.E(errors.Invalid, fmt.Sprintf("kmer length must be in [1,32], got %d", o.KmerLength))
	}
	if o.GraphMatching && (o.Match <= 0 || o.Mismatch >= 0 || o.Gap >= 0) {
		return errors.E(errors.Invalid, fmt.Sprintf("graph scores must be match>0, mismatch<0, gap<0, got %d/%d/%d",
			o.Match, o.Mismatch, o.Gap))
	}
	if o.MaxTies <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("max ties must be positive, got %d", o.MaxTies))
	}
	return nil
}
