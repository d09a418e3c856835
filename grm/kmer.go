package grm

const invalidKmerBits = uint8(255)

var asciiToKmerMap [256]uint8

func init() {
	for i := range asciiToKmerMap {
		asciiToKmerMap[i] = invalidKmerBits
	}
	asciiToKmerMap['A'] = 0
	asciiToKmerMap['a'] = 0
	asciiToKmerMap['C'] = 1
	asciiToKmerMap['c'] = 1
	asciiToKmerMap['G'] = 2
	asciiToKmerMap['g'] = 2
	asciiToKmerMap['T'] = 3
	asciiToKmerMap['t'] = 3
}

// Kmer is a compact encoding of a sequence of ACGT, up to 32 bases.
type Kmer uint64

// kmerizer enumerates the kmers of a sequence, skipping any kmer that
// contains a base other than ACGT.
//
//   k := newKmerizer(16)
//   k.Reset(seq)
//   for k.Scan() {
//     kmer, pos := k.Get()
//   }
type kmerizer struct {
	kmerLength int
	mask       Kmer // ^(~0 << (2*kmerLength))

	seq string
	si  int // start of the next kmer
	pos int
	cur Kmer
}

func newKmerizer(kmerLength int) *kmerizer {
	k := &kmerizer{kmerLength: kmerLength}
	if kmerLength >= 32 {
		k.mask = ^Kmer(0)
	} else {
		k.mask = ^(^Kmer(0) << Kmer(kmerLength*2 /*2==#bits per base*/))
	}
	return k
}

func (k *kmerizer) Reset(seq string) {
	k.seq = seq
	k.si = 0
	k.pos = -1
}

func (k *kmerizer) Scan() bool {
	if k.pos >= 0 && k.si == k.pos+1 && k.si+k.kmerLength <= len(k.seq) {
		if bits := asciiToKmerMap[k.seq[k.si+k.kmerLength-1]]; bits != invalidKmerBits {
			// Fast path: shift the next base into the previous kmer.
			k.cur = ((k.cur << 2) | Kmer(bits)) & k.mask
			k.pos = k.si
			k.si++
			return true
		}
		// The new base is ambiguous; restart after it.
		k.si += k.kmerLength
	}
	for k.si+k.kmerLength <= len(k.seq) {
		var kmer Kmer
		bad := -1
		for i := k.si; i < k.si+k.kmerLength; i++ {
			b := asciiToKmerMap[k.seq[i]]
			if b == invalidKmerBits {
				bad = i
				break
			}
			kmer = (kmer << 2) | Kmer(b)
		}
		if bad >= 0 {
			k.si = bad + 1
			continue
		}
		k.cur, k.pos = kmer, k.si
		k.si++
		return true
	}
	return false
}

// Get returns the current kmer and its position in the sequence.
func (k *kmerizer) Get() (Kmer, int) { return k.cur, k.pos }
