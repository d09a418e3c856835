package readbuf

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/paragraph/graph"
	"github.com/grailbio/paragraph/grm"
)

// skippedFlags marks records that duplicate the bases of a primary record.
const skippedFlags = sam.Secondary | sam.Supplementary

func recordMate(r *sam.Record) int {
	switch {
	case r.Flags&sam.Read1 != 0:
		return Mate1
	case r.Flags&sam.Read2 != 0:
		return Mate2
	}
	return Unpaired
}

// overlapsAny checks if r lies in any of regions. Unmapped records placed
// next to their mate count at their position.
func overlapsAny(r *sam.Record, regions []graph.Region) bool {
	if r.Ref == nil {
		return false
	}
	start, end := r.Pos, r.End()
	if end <= start {
		end = start + 1
	}
	for _, reg := range regions {
		if reg.Overlaps(r.Ref.Name(), start, end) {
			return true
		}
	}
	return false
}

// newRead converts a BAM record. The bases stay in reference orientation;
// reverse-strand records get the Reverse strand.
func newRead(r *sam.Record) *grm.Read {
	read := &grm.Read{
		Name:  r.Name,
		Bases: string(r.Seq.Expand()),
	}
	if len(r.Qual) > 0 && r.Qual[0] != 0xff {
		q := make([]byte, len(r.Qual))
		for i, v := range r.Qual {
			q[i] = v + 33
		}
		read.Quals = string(q)
	}
	if r.Flags&sam.Reverse != 0 {
		read.Strand = grm.Reverse
	}
	return read
}

// ReadBAM scans a BAM stream and adds the primary records that overlap
// regions to buf, until the stream ends or buf is full. The stream does not
// need to be sorted or indexed.
func ReadBAM(in io.Reader, regions []graph.Region, buf *Buffer) error {
	reader, err := bam.NewReader(in, 1)
	if err != nil {
		return err
	}
	defer reader.Close() // nolint: errcheck
	n := 0
	for !buf.Full() {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		n++
		if rec.Flags&skippedFlags == 0 && overlapsAny(rec, regions) && rec.Seq.Length > 0 {
			buf.Add(newRead(rec), recordMate(rec))
		}
		sam.PutInFreePool(rec)
	}
	log.Debug.Printf("readbuf: scanned %d BAM records, kept %d, %d duplicates", n, buf.Len(), buf.Duplicates)
	return nil
}

// LoadBAM adds the reads of a BAM file that overlap regions to buf.
func LoadBAM(ctx context.Context, path string, regions []graph.Region, buf *Buffer) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if err = ReadBAM(in.Reader(ctx), regions, buf); err != nil {
		return errors.E(err, "read", path)
	}
	return nil
}
