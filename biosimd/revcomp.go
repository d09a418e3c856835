// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd

// revComp8Table maps 'A'/'a' to 'T', 'C'/'c' to 'G', 'G'/'g' to 'C',
// 'T'/'t' to 'A', and everything else to 'N'.
var revComp8Table [256]byte

func init() {
	for i := range revComp8Table {
		revComp8Table[i] = 'N'
	}
	for _, p := range [...][2]byte{{'A', 'T'}, {'C', 'G'}, {'G', 'C'}, {'T', 'A'}} {
		revComp8Table[p[0]] = p[1]
		revComp8Table[p[0]+'a'-'A'] = p[1]
	}
}

// ReverseComp8Inplace reverse-complements ascii8[], assuming that it's using
// ASCII encoding. Output is restricted to 'A'/'C'/'G'/'T'/'N'.
func ReverseComp8Inplace(ascii8 []byte) {
	nByte := len(ascii8)
	nByteDiv2 := nByte >> 1
	for idx, invIdx := 0, nByte-1; idx != nByteDiv2; idx, invIdx = idx+1, invIdx-1 {
		ascii8[idx], ascii8[invIdx] = revComp8Table[ascii8[invIdx]], revComp8Table[ascii8[idx]]
	}
	if nByte&1 == 1 {
		ascii8[nByteDiv2] = revComp8Table[ascii8[nByteDiv2]]
	}
}

// ReverseComp8 writes the reverse-complement of src[] to dst[].
// It panics if len(dst) != len(src).
func ReverseComp8(dst, src []byte) {
	nByte := len(src)
	if len(dst) != nByte {
		panic("ReverseComp8 requires len(dst) == len(src).")
	}
	for idx, invIdx := 0, nByte-1; idx != nByte; idx, invIdx = idx+1, invIdx-1 {
		dst[idx] = revComp8Table[src[invIdx]]
	}
}

// ReverseComp8String returns the reverse-complement of seq, using buf as
// scratch space. The grown buffer is returned for reuse.
func ReverseComp8String(seq string, buf []byte) (string, []byte) {
	buf = append(buf[:0], seq...)
	ReverseComp8Inplace(buf)
	return string(buf), buf
}
