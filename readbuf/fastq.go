package readbuf

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/paragraph/grm"
)

var (
	// ErrShort is returned when a truncated FASTQ file is encountered.
	ErrShort = errors.E(errors.Invalid, "short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.E(errors.Invalid, "invalid FASTQ file")
)

var errEOF = errors.E("eof")

// fastqScanner reads FASTQ records. It requires ID lines to begin with "@",
// line 3 to begin with "+" and the quality line to be as long as the
// sequence.
type fastqScanner struct {
	b   *bufio.Scanner
	err error
}

func newFASTQScanner(r io.Reader) *fastqScanner {
	return &fastqScanner{b: bufio.NewScanner(r)}
}

// Scan reads the next record into read and reports the mate number found in
// the read name ("/1" or "/2" suffix). Once Scan returns false, it never
// returns true again; Err tells whether it stopped because of an error.
func (f *fastqScanner) Scan(read *grm.Read) (mate int, ok bool) {
	if f.err != nil {
		return 0, false
	}
	if !f.b.Scan() {
		if f.err = f.b.Err(); f.err == nil {
			f.err = errEOF
		}
		return 0, false
	}
	id := f.b.Text()
	if len(id) == 0 || id[0] != '@' {
		f.err = ErrInvalid
		return 0, false
	}
	read.Name, mate = parseReadName(id[1:])
	if !f.scan() {
		return 0, false
	}
	read.Bases = f.b.Text()
	if !f.scan() {
		return 0, false
	}
	if unk := f.b.Bytes(); len(unk) == 0 || unk[0] != '+' {
		f.err = ErrInvalid
		return 0, false
	}
	if !f.scan() {
		return 0, false
	}
	read.Quals = f.b.Text()
	if len(read.Quals) != len(read.Bases) {
		f.err = ErrInvalid
		return 0, false
	}
	return mate, true
}

func (f *fastqScanner) scan() bool {
	ok := f.b.Scan()
	if !ok {
		if f.err = f.b.Err(); f.err == nil {
			f.err = ErrShort
		}
	}
	return ok
}

// Err returns the scanning error, if any.
func (f *fastqScanner) Err() error {
	if f.err == errEOF {
		return nil
	}
	return f.err
}

// parseReadName strips the comment from a FASTQ ID line and splits off a
// "/1" or "/2" mate suffix.
func parseReadName(id string) (name string, mate int) {
	if i := strings.IndexAny(id, " \t"); i >= 0 {
		id = id[:i]
	}
	switch {
	case strings.HasSuffix(id, "/1"):
		return id[:len(id)-2], Mate1
	case strings.HasSuffix(id, "/2"):
		return id[:len(id)-2], Mate2
	}
	return id, Unpaired
}

// ReadFASTQ adds the reads of a FASTQ stream to buf until the stream ends or
// buf is full. FASTQ reads are recorded on the forward strand;
// the aligner flips reads whose reverse complement it places.
func ReadFASTQ(r io.Reader, buf *Buffer) error {
	s := newFASTQScanner(r)
	for !buf.Full() {
		read := &grm.Read{}
		mate, ok := s.Scan(read)
		if !ok {
			break
		}
		buf.Add(read, mate)
	}
	return s.Err()
}

// LoadFASTQ adds the reads of a FASTQ file to buf. The file may be
// compressed.
func LoadFASTQ(ctx context.Context, path string, buf *Buffer) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if cr := compress.NewReaderPath(r, path); cr != nil {
		defer func() {
			if e := cr.Close(); e != nil && err == nil {
				err = e
			}
		}()
		r = cr
	}
	if err = ReadFASTQ(r, buf); err != nil {
		return errors.E(err, "read", path)
	}
	return nil
}
