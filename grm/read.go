package grm

// Strand is the strand a read was sequenced from.
type Strand uint8

const (
	// Forward means the read was sequenced from the forward strand.
	Forward Strand = iota
	// Reverse means the read was sequenced from the reverse strand.
	Reverse
)

// String returns "FWD" or "REV", the suffixes used in count tables.
func (s Strand) String() string {
	if s == Reverse {
		return "REV"
	}
	return "FWD"
}

// Read is one sequencing read. Strand records where the read came from. The
// aligners try Bases as given first and then their reverse complement.
type Read struct {
	Name  string
	Bases string
	// Quals holds phred+33 encoded base qualities, as in FASTQ. It may be
	// empty.
	Quals  string
	Strand Strand
	// Alignment is set by CompositeAligner.AlignRead. It stays nil for filtered
	// reads.
	Alignment *Result
}

// AlignedStrand returns the strand the read supports. It is Strand, flipped
// when the reverse complement of the read was placed.
func (r *Read) AlignedStrand() Strand {
	if r.Alignment != nil && r.Alignment.Reverse {
		return r.Strand ^ Reverse
	}
	return r.Strand
}

// ReadFilter decides whether a read is eligible for alignment.
type ReadFilter func(r *Read) bool

// AcceptAll is a ReadFilter that accepts every read.
func AcceptAll(*Read) bool { return true }

// NewQualityFilter returns a filter that rejects reads shorter than
// minLength bases and reads whose mean base quality is below minMeanQual.
// Reads without qualities pass the quality check.
func NewQualityFilter(minLength int, minMeanQual float64) ReadFilter {
	return func(r *Read) bool {
		if len(r.Bases) < minLength || len(r.Bases) == 0 {
			return false
		}
		if len(r.Quals) == 0 || minMeanQual <= 0 {
			return true
		}
		sum := 0
		for i := 0; i < len(r.Quals); i++ {
			sum += int(r.Quals[i]) - 33
		}
		return float64(sum) >= minMeanQual*float64(len(r.Quals))
	}
}
