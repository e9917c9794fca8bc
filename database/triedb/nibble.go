// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package triedb

import "strings"

// Nibble is a 4-bit integer in the range 0-F. It is a single letter used to
// navigate in the trie structure.
type Nibble byte

// Rune converts a Nibble in a hexa-decimal rune (0-9a-f).
func (n Nibble) Rune() rune {
	if n < 10 {
		return rune('0' + n)
	} else if n < 16 {
		return rune('a' + n - 10)
	} else {
		return '?'
	}
}

// String converts a Nibble in a hexa-decimal string (0-9a-f).
func (n Nibble) String() string {
	return string(n.Rune())
}

// pathLength is the number of nibbles of a full trie path.
const pathLength = 64

// nibblesFromBytes expands a byte sequence into the sequence of its
// nibbles, high nibble first.
func nibblesFromBytes(data []byte) []Nibble {
	res := make([]Nibble, 0, 2*len(data))
	for _, b := range data {
		res = append(res, Nibble(b>>4), Nibble(b&0xf))
	}
	return res
}

// nibblesToString renders a nibble sequence as a hex string.
func nibblesToString(path []Nibble) string {
	builder := strings.Builder{}
	for _, n := range path {
		builder.WriteRune(n.Rune())
	}
	return builder.String()
}

// commonPrefixLength computes the length of the longest common prefix of
// two nibble sequences.
func commonPrefixLength(a, b []Nibble) int {
	limit := len(a)
	if len(b) < limit {
		limit = len(b)
	}
	for i := 0; i < limit; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return limit
}

// sameNibbles reports whether two nibble sequences are identical.
func sameNibbles(a, b []Nibble) bool {
	if len(a) != len(b) {
		return false
	}
	return commonPrefixLength(a, b) == len(a)
}

// hexPrefixEncode packs a nibble sequence into the compact hex-prefix byte
// form used by vertex blobs and node hashing. The first byte carries the
// parity of the nibble count and, for leaf prefixes, the terminator flag.
func hexPrefixEncode(path []Nibble, leaf bool) []byte {
	flag := byte(0)
	if leaf {
		flag = 0x20
	}
	odd := len(path)%2 == 1
	res := make([]byte, 0, len(path)/2+1)
	if odd {
		res = append(res, flag|0x10|byte(path[0]))
		path = path[1:]
	} else {
		res = append(res, flag)
	}
	for i := 0; i < len(path); i += 2 {
		res = append(res, byte(path[i])<<4|byte(path[i+1]))
	}
	return res
}

// hexPrefixDecode unpacks a compact hex-prefix byte form into the nibble
// sequence and the terminator flag.
func hexPrefixDecode(data []byte) ([]Nibble, bool, error) {
	if len(data) == 0 {
		return nil, false, ErrDecodeTooShort
	}
	flag := data[0]
	if flag&0xc0 != 0 {
		return nil, false, ErrDecodeSizeGarbled
	}
	leaf := flag&0x20 != 0
	res := make([]Nibble, 0, 2*len(data))
	if flag&0x10 != 0 {
		res = append(res, Nibble(flag&0xf))
	} else if flag&0xf != 0 {
		return nil, false, ErrDecodeSizeGarbled
	}
	for _, b := range data[1:] {
		res = append(res, Nibble(b>>4), Nibble(b&0xf))
	}
	if len(res) > pathLength {
		return nil, false, ErrDecodeOverflow
	}
	return res, leaf, nil
}
