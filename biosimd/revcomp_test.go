// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/grailbio/paragraph/biosimd"
	"github.com/grailbio/testutil/expect"
)

func reverseComp8Slow(src []byte) []byte {
	dst := make([]byte, len(src))
	for i, b := range src {
		var c byte
		switch b {
		case 'A', 'a':
			c = 'T'
		case 'C', 'c':
			c = 'G'
		case 'G', 'g':
			c = 'C'
		case 'T', 't':
			c = 'A'
		default:
			c = 'N'
		}
		dst[len(src)-1-i] = c
	}
	return dst
}

var revComp8RandTable = [...]byte{
	'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n', '0', 0}

func TestReverseComp8(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	for iter := 0; iter < 200; iter++ {
		src := make([]byte, r.Intn(300))
		for i := range src {
			src[i] = revComp8RandTable[r.Intn(len(revComp8RandTable))]
		}
		want := reverseComp8Slow(src)

		dst := make([]byte, len(src))
		biosimd.ReverseComp8(dst, src)
		if !bytes.Equal(dst, want) {
			t.Fatalf("ReverseComp8(%q) = %q, want %q", src, dst, want)
		}
		inplace := append([]byte(nil), src...)
		biosimd.ReverseComp8Inplace(inplace)
		if !bytes.Equal(inplace, want) {
			t.Fatalf("ReverseComp8Inplace(%q) = %q, want %q", src, inplace, want)
		}
	}
}

func TestReverseComp8String(t *testing.T) {
	var buf []byte
	var s string
	s, buf = biosimd.ReverseComp8String("ACCGTn", buf)
	expect.EQ(t, s, "NACGGT")
	s, _ = biosimd.ReverseComp8String("GA", buf)
	expect.EQ(t, s, "TC")
	s, _ = biosimd.ReverseComp8String("", nil)
	expect.EQ(t, s, "")
}
