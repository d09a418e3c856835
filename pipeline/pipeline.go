// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pipeline runs read alignment and counting for one target graph:
// load the graph, extract its reads, align them with a pool of workers and
// merge the workers' counts.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/paragraph/disambiguate"
	"github.com/grailbio/paragraph/graph"
	"github.com/grailbio/paragraph/grm"
	"github.com/grailbio/paragraph/readbuf"
)

// Target is a graph with the genomic regions its reads are taken from. It
// owns the graph; aligners only borrow it.
type Target struct {
	Name    string
	Graph   *graph.Graph
	Paths   []graph.Path
	Regions []graph.Region
}

// NewTarget builds a target from a graph spec. ref may be nil when no node
// refers to the reference.
func NewTarget(name string, spec *graph.Spec, ref graph.Reference) (*Target, error) {
	g, paths, regions, err := spec.Build(ref)
	if err != nil {
		return nil, errors.E(err, "target", name)
	}
	return &Target{Name: name, Graph: g, Paths: paths, Regions: regions}, nil
}

// LoadTarget reads a graph spec and, if refPath is not empty, the reference
// FASTA its nodes refer to.
func LoadTarget(ctx context.Context, specPath, refPath string) (*Target, error) {
	spec, err := graph.LoadSpec(ctx, specPath)
	if err != nil {
		return nil, err
	}
	var ref graph.Reference
	if refPath != "" {
		if ref, err = graph.LoadReference(ctx, refPath); err != nil {
			return nil, err
		}
	}
	return NewTarget(specPath, spec, ref)
}

func isBAM(path string) bool { return strings.HasSuffix(path, ".bam") }

// ExtractReads loads the reads of t from the given BAM or FASTQ files, at
// most p.MaxReads of them. BAM reads are restricted to t.Regions; FASTQ reads
// are taken as they are.
func ExtractReads(ctx context.Context, p Params, t *Target, paths []string) ([]*grm.Read, error) {
	buf := readbuf.NewBuffer(p.MaxReads)
	for _, path := range paths {
		if buf.Full() {
			log.Printf("%s: read limit %d reached, skipping %s", t.Name, p.MaxReads, path)
			continue
		}
		var err error
		switch {
		case isBAM(path) && len(t.Regions) == 0:
			err = errors.E(errors.Invalid, "no target regions to extract BAM reads from", path)
		case isBAM(path):
			err = readbuf.LoadBAM(ctx, path, t.Regions, buf)
		default:
			err = readbuf.LoadFASTQ(ctx, path, buf)
		}
		if err != nil {
			return nil, err
		}
	}
	if buf.Dropped > 0 {
		log.Printf("%s: dropped %d reads over the limit of %d", t.Name, buf.Dropped, p.MaxReads)
	}
	log.Printf("%s: extracted %d reads (%d duplicates)", t.Name, buf.Len(), buf.Duplicates)
	return buf.Reads(), nil
}

// Result is the outcome of AlignAndDisambiguate.
type Result struct {
	Counts *disambiguate.CountTable
	Stats  grm.Stats
}

// AlignAndDisambiguate aligns reads against t and counts them. The reads are
// split into p.Threads contiguous shards, each aligned and counted by its own
// worker; results are merged in shard order, so the outcome does not depend
// on the number of threads. The Alignment field of every read is set.
func AlignAndDisambiguate(p Params, t *Target, reads []*grm.Read) (*Result, error) {
	parallelism := p.Threads
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > len(reads) {
		parallelism = len(reads)
	}
	if parallelism == 0 {
		parallelism = 1
	}
	// Fail on bad options before starting any worker.
	if _, err := grm.NewCompositeAligner(p.Opts); err != nil {
		return nil, err
	}
	filter := p.Filter()
	tables := make([]*disambiguate.CountTable, parallelism)
	stats := make([]grm.Stats, parallelism)
	log.Printf("%s: aligning %d reads against %v with %d workers", t.Name, len(reads), t.Graph, parallelism)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(reads)) / parallelism
		endIdx := ((jobIdx + 1) * len(reads)) / parallelism
		aligner, err := grm.NewCompositeAligner(p.Opts)
		if err != nil {
			return err
		}
		aligner.SetGraph(t.Graph, t.Paths)
		tab := disambiguate.NewCountTable(t.Graph, t.Paths)
		for _, r := range reads[startIdx:endIdx] {
			aligner.AlignRead(r, filter)
			tab.Add(r)
		}
		tables[jobIdx], stats[jobIdx] = tab, aligner.Stats()
		return nil
	})
	if err != nil {
		return nil, err
	}
	res := &Result{Counts: disambiguate.NewCountTable(t.Graph, t.Paths)}
	for i := range tables {
		if err := res.Counts.Merge(tables[i]); err != nil {
			return nil, err
		}
		res.Stats = res.Stats.Merge(stats[i])
	}
	if err := res.Stats.Check(); err != nil {
		return nil, err
	}
	if n := res.Stats.Filtered + res.Stats.Attempted; n != len(reads) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("%s: %d reads aligned, %d given", t.Name, n, len(reads)))
	}
	if err := res.Counts.Validate(); err != nil {
		return nil, err
	}
	log.Printf("%s: %v", t.Name, res.Stats)
	return res, nil
}
