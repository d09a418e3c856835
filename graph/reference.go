package graph

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/pkg/errors"
)

// Reference provides access to reference sequences.
type Reference interface {
	// Get returns the bases of chrom in [start, end), 0-based half-open.
	// The result is upper-cased.
	Get(chrom string, start, end int) (string, error)
}

// memReference is a FASTA file held in memory. Sequence names are the text
// after '>' up to the first space.
type memReference struct {
	seqs map[string]string
}

// ReadFASTA reads a whole FASTA file into memory.
func ReadFASTA(r io.Reader) (Reference, error) {
	ref := &memReference{seqs: map[string]string{}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<30)
	var (
		name string
		seq  strings.Builder
	)
	flush := func() error {
		if name == "" {
			if seq.Len() > 0 {
				return errors.New("malformed FASTA file: sequence before the first header")
			}
			return nil
		}
		ref.seqs[name] = strings.ToUpper(seq.String())
		seq.Reset()
		return nil
	}
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			name = strings.Split(line[1:], " ")[0]
			continue
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA data")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return ref, nil
}

// LoadReference reads a FASTA file, optionally compressed, from any path
// supported by grailbio/base/file.
func LoadReference(ctx context.Context, path string) (ref Reference, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	var r io.Reader = in.Reader(ctx)
	if cr := compress.NewReaderPath(r, path); cr != nil {
		defer cr.Close() // nolint: errcheck
		r = cr
	}
	ref, err = ReadFASTA(r)
	return ref, errors.Wrapf(err, "read %s", path)
}

// Get implements Reference.
func (f *memReference) Get(chrom string, start, end int) (string, error) {
	s, ok := f.seqs[chrom]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", chrom)
	}
	if start < 0 || end <= start || end > len(s) {
		return "", errors.Errorf("invalid query range %d - %d for sequence %s with length %d",
			start, end, chrom, len(s))
	}
	return s[start:end], nil
}
