// Package readbuf collects the reads to align against a graph. Reads come
// from FASTQ files or from the target regions of a BAM file; a Buffer drops
// reads it has already seen, which happens when target regions overlap.
package readbuf

import (
	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/unsafe"
	"github.com/grailbio/paragraph/grm"
)

// Mate numbers.
const (
	// Unpaired marks a read without a mate.
	Unpaired = 0
	// Mate1 is the first read of a pair.
	Mate1 = 1
	// Mate2 is the second read of a pair.
	Mate2 = 2
)

type entry struct {
	read *grm.Read
	mate int
}

// Buffer holds reads in the order they were added. Two reads are the same if
// they have the same name and mate number. Buffer is not thread-safe.
type Buffer struct {
	maxReads int
	entries  []entry
	// seen maps seahash(name)+mate to indexes in entries.
	seen map[uint64][]int

	// Duplicates counts reads rejected because they were already in the
	// buffer.
	Duplicates int
	// Dropped counts reads rejected because the buffer was full.
	Dropped int
}

// NewBuffer creates a buffer that holds at most maxReads reads. maxReads <= 0
// means no limit.
func NewBuffer(maxReads int) *Buffer {
	return &Buffer{maxReads: maxReads, seen: map[uint64][]int{}}
}

func readKey(name string, mate int) uint64 {
	return seahash.Sum64(unsafe.StringToBytes(name)) + uint64(mate)
}

// Add appends r unless the buffer is full or already holds the same read. It
// reports whether r was added.
func (b *Buffer) Add(r *grm.Read, mate int) bool {
	k := readKey(r.Name, mate)
	for _, i := range b.seen[k] {
		if e := b.entries[i]; e.mate == mate && e.read.Name == r.Name {
			b.Duplicates++
			return false
		}
	}
	if b.Full() {
		b.Dropped++
		return false
	}
	b.seen[k] = append(b.seen[k], len(b.entries))
	b.entries = append(b.entries, entry{read: r, mate: mate})
	return true
}

// Full checks if the buffer reached its read limit.
func (b *Buffer) Full() bool {
	return b.maxReads > 0 && len(b.entries) >= b.maxReads
}

// Len returns the number of reads in the buffer.
func (b *Buffer) Len() int { return len(b.entries) }

// Reads returns the buffered reads, in the order they were added.
func (b *Buffer) Reads() []*grm.Read {
	reads := make([]*grm.Read, len(b.entries))
	for i, e := range b.entries {
		reads[i] = e.read
	}
	return reads
}
