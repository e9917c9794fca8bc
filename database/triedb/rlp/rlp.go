// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rlp

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/ravikantcool2023/nimbus-eth1/common"
)

// Recursive-Length Prefix (RLP) serialization as defined in Appendix B of
// https://ethereum.github.io/yellowpaper/paper.pdf
//
// An RLP item is either a string of bytes or a list of items. This package
// provides encoding support for item trees plus a few convenience item
// types for values frequently encoded by the trie code.

// Item is an interface for everything that can be RLP encoded by this package.
type Item interface {
	// write appends the RLP encoding of this item to the given writer.
	write(writer) writer

	// getEncodedLength computes the encoded length of this item in bytes.
	getEncodedLength() int
}

// Encode serializes the given item structure into a fresh buffer.
func Encode(item Item) []byte {
	return EncodeInto(make([]byte, 0, 1024), item)
}

// EncodeInto serializes the given item structure into the provided buffer,
// which is overwritten starting at position 0.
func EncodeInto(dst []byte, item Item) []byte {
	return item.write(writer(dst[:0]))
}

// EncodedLength computes the length Encode would produce without encoding.
func EncodedLength(item Item) int {
	return item.getEncodedLength()
}

// Decode parses an RLP stream into an item tree. The input must contain
// exactly one item.
func Decode(data []byte) (Item, error) {
	item, consumed, err := decode(data)
	if err != nil {
		return nil, err
	}
	if consumed != uint64(len(data)) {
		return nil, fmt.Errorf("trailing garbage after RLP item, %d of %d bytes consumed", consumed, len(data))
	}
	return item, nil
}

func decode(data []byte) (Item, uint64, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("input RLP is empty")
	}
	prefix := data[0]
	switch {
	case prefix < 0x80: // single byte
		return String{Str: data[0:1]}, 1, nil

	case prefix < 0xb8: // short string
		length := uint64(prefix - 0x80)
		if uint64(len(data)) < length+1 {
			return nil, 0, fmt.Errorf("expected %d bytes, got: %d", length+1, len(data))
		}
		return String{Str: data[1 : length+1]}, length + 1, nil

	case prefix < 0xc0: // long string
		sizeLen := uint64(prefix - 0xb7)
		length, err := readSize(data[1:], sizeLen)
		if err != nil {
			return nil, 0, err
		}
		offset := sizeLen + 1
		if uint64(len(data)) < offset+length {
			return nil, 0, fmt.Errorf("expected %d bytes, got: %d", offset+length, len(data))
		}
		return String{Str: data[offset : offset+length]}, offset + length, nil

	case prefix < 0xf8: // short list
		length := uint64(prefix - 0xc0)
		if uint64(len(data)) < length+1 {
			return nil, 0, fmt.Errorf("expected %d bytes, got: %d", length+1, len(data))
		}
		items, err := decodeList(data[1 : length+1])
		return List{Items: items}, length + 1, err

	default: // long list
		sizeLen := uint64(prefix - 0xf7)
		length, err := readSize(data[1:], sizeLen)
		if err != nil {
			return nil, 0, err
		}
		offset := sizeLen + 1
		if uint64(len(data)) < offset+length {
			return nil, 0, fmt.Errorf("expected %d bytes, got: %d", offset+length, len(data))
		}
		items, err := decodeList(data[offset : offset+length])
		return List{Items: items}, offset + length, err
	}
}

// decodeList splits a byte range holding a sequence of encoded items into
// the individual items. The enclosing list header must already be removed.
func decodeList(data []byte) ([]Item, error) {
	items := make([]Item, 0, 17)
	for len(data) > 0 {
		item, consumed, err := decode(data)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		data = data[consumed:]
	}
	return items, nil
}

func readSize(data []byte, sizeLen uint64) (uint64, error) {
	if sizeLen > uint64(len(data)) {
		return 0, fmt.Errorf("expected %d bytes, got: %d", sizeLen, len(data))
	}
	if sizeLen > 8 {
		return 0, fmt.Errorf("size field of %d bytes too large", sizeLen)
	}
	var size uint64
	for i := uint64(0); i < sizeLen; i++ {
		size = size<<8 | uint64(data[i])
	}
	return size, nil
}

// writer is a specialized writer for this package appending encoded RLP
// content to a pre-allocated buffer.
type writer []byte

func (w writer) Write(data []byte) writer {
	return append(w, data...)
}

func (w writer) Put(c byte) writer {
	return append(w, c)
}

// ----------------------------------------------------------------------------
//                           Core Item Types
// ----------------------------------------------------------------------------

// String is the atomic ground type of an RLP input structure representing a
// (potentially empty) string of bytes.
type String struct {
	Str []byte
}

func (s String) write(writer writer) writer {
	l := len(s.Str)
	// A single byte below 0x80 is its own encoding.
	if l == 1 && s.Str[0] < 0x80 {
		return writer.Write(s.Str)
	}
	writer = encodeLength(l, 0x80, writer)
	return writer.Write(s.Str)
}

func (s String) getEncodedLength() int {
	l := len(s.Str)
	if l == 1 && s.Str[0] < 0x80 {
		return 1
	}
	return l + getEncodedLengthLength(l)
}

// Hash holds a pointer to a 32-byte hash to be encoded as a string item.
// Keeping the pointer avoids the array-to-slice conversions a String item
// would trigger on every encoding.
type Hash struct {
	Hash *common.Hash
}

func (h Hash) write(writer writer) writer {
	writer = encodeLength(common.HashSize, 0x80, writer)
	return writer.Write(h.Hash[:])
}

func (h Hash) getEncodedLength() int {
	return common.HashSize + 1
}

// List composes a list of items into a new item to be serialized.
type List struct {
	Items []Item
}

func (l List) write(writer writer) writer {
	length := 0
	for i := 0; i < len(l.Items); i++ {
		length += l.Items[i].getEncodedLength()
	}
	writer = encodeLength(length, 0xc0, writer)
	for i := 0; i < len(l.Items); i++ {
		writer = l.Items[i].write(writer)
	}
	return writer
}

func (l List) getEncodedLength() int {
	sum := 0
	for _, item := range l.Items {
		sum += item.getEncodedLength()
	}
	return sum + getEncodedLengthLength(sum)
}

// Encoded embeds an already RLP encoded fragment in a new RLP encoding.
type Encoded struct {
	Data []byte
}

func (e Encoded) write(writer writer) writer {
	return writer.Write(e.Data)
}

func (e Encoded) getEncodedLength() int {
	return len(e.Data)
}

// ----------------------------------------------------------------------------
//                           Utility Item Types
// ----------------------------------------------------------------------------

// Uint64 encodes an unsigned integer as the big-endian byte string with
// leading zero-bytes removed.
type Uint64 struct {
	Value uint64
}

func (u Uint64) write(writer writer) writer {
	if u.Value == 0 {
		return writer.Put(0x80)
	}
	var buffer [8]byte
	binary.BigEndian.PutUint64(buffer[:], u.Value)
	data := buffer[:]
	for data[0] == 0 {
		data = data[1:]
	}
	return String{Str: data}.write(writer)
}

func (u Uint64) getEncodedLength() int {
	if u.Value < 0x80 {
		return 1
	}
	return 1 + int(getNumBytes(u.Value))
}

// Uint256 encodes a 256-bit unsigned integer analogous to the Uint64
// encoder above.
type Uint256 struct {
	Value *uint256.Int
}

func (u Uint256) write(writer writer) writer {
	if u.Value.IsZero() {
		return writer.Put(0x80)
	}
	if u.Value.IsUint64() {
		return Uint64{Value: u.Value.Uint64()}.write(writer)
	}
	return String{Str: u.Value.Bytes()}.write(writer)
}

func (u Uint256) getEncodedLength() int {
	if u.Value.IsUint64() {
		return Uint64{Value: u.Value.Uint64()}.getEncodedLength()
	}
	length := (u.Value.BitLen() + 7) / 8
	return length + getEncodedLengthLength(length)
}

// encodeLength writes the length header of a string or list item.
func encodeLength(length int, offset byte, writer writer) writer {
	if length < 56 {
		return writer.Put(offset + byte(length))
	}
	numBytesForLength := getNumBytes(uint64(length))
	writer = writer.Put(offset + 55 + numBytesForLength)
	for i := byte(0); i < numBytesForLength; i++ {
		writer = writer.Put(byte(length >> (8 * (numBytesForLength - i - 1))))
	}
	return writer
}

// getNumBytes computes the minimum number of bytes required to represent
// the given value in big-endian encoding.
func getNumBytes(value uint64) byte {
	if value == 0 {
		return 0
	}
	for res := byte(1); ; res++ {
		if value >>= 8; value == 0 {
			return res
		}
	}
}

func getEncodedLengthLength(length int) int {
	if length < 56 {
		return 1
	}
	return int(getNumBytes(uint64(length))) + 1
}
