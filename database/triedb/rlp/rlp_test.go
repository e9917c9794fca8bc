package rlp

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/ravikantcool2023/nimbus-eth1/common"
)

func TestRlp_KnownStringEncodings(t *testing.T) {
	tests := []struct {
		item Item
		want []byte
	}{
		{String{}, []byte{0x80}},
		{String{Str: []byte{0x00}}, []byte{0x00}},
		{String{Str: []byte{0x7f}}, []byte{0x7f}},
		{String{Str: []byte{0x80}}, []byte{0x81, 0x80}},
		{String{Str: []byte("dog")}, []byte{0x83, 'd', 'o', 'g'}},
		{List{}, []byte{0xc0}},
		{List{Items: []Item{String{Str: []byte("cat")}, String{Str: []byte("dog")}}},
			[]byte{0xc8, 0x83, 'c', 'a', 't', 0x83, 'd', 'o', 'g'}},
		{Uint64{}, []byte{0x80}},
		{Uint64{Value: 15}, []byte{0x0f}},
		{Uint64{Value: 1024}, []byte{0x82, 0x04, 0x00}},
	}
	for _, test := range tests {
		if got := Encode(test.item); !bytes.Equal(got, test.want) {
			t.Errorf("invalid encoding of %v, got %x, wanted %x", test.item, got, test.want)
		}
	}
}

func TestRlp_LongStringUsesLengthOfLengthHeader(t *testing.T) {
	payload := bytes.Repeat([]byte{'a'}, 56)
	got := Encode(String{Str: payload})
	want := append([]byte{0xb8, 56}, payload...)
	if !bytes.Equal(got, want) {
		t.Errorf("invalid long string encoding, got %x, wanted %x", got, want)
	}
}

func TestRlp_EncodedLengthMatchesEncoding(t *testing.T) {
	items := []Item{
		String{},
		String{Str: bytes.Repeat([]byte{7}, 100)},
		Hash{Hash: &common.Hash{}},
		Uint64{Value: 1 << 40},
		Uint256{Value: uint256.NewInt(1).Lsh(uint256.NewInt(1), 100)},
		List{Items: []Item{String{Str: []byte("abc")}, Uint64{Value: 9}}},
	}
	for _, item := range items {
		if got, want := EncodedLength(item), len(Encode(item)); got != want {
			t.Errorf("invalid length of %v, got %d, wanted %d", item, got, want)
		}
	}
}

func TestRlp_DecodeRoundTrip(t *testing.T) {
	item := List{Items: []Item{
		String{Str: []byte("cat")},
		List{Items: []Item{String{Str: []byte{0x01}}, String{}}},
		String{Str: bytes.Repeat([]byte{9}, 60)},
	}}
	encoded := Encode(item)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("cannot decode %x: %v", encoded, err)
	}
	if got := Encode(decoded); !bytes.Equal(got, encoded) {
		t.Errorf("round trip not stable, got %x, wanted %x", got, encoded)
	}
}

func TestRlp_DecodeRejectsTruncatedInput(t *testing.T) {
	encoded := Encode(List{Items: []Item{
		String{Str: []byte("cat")},
		String{Str: bytes.Repeat([]byte{9}, 60)},
	}})
	for cut := 0; cut < len(encoded); cut++ {
		if _, err := Decode(encoded[:cut]); err == nil {
			t.Errorf("decoding %d of %d bytes should have failed", cut, len(encoded))
		}
	}
}

func TestRlp_Uint256MatchesUint64ForSmallValues(t *testing.T) {
	for _, value := range []uint64{0, 1, 0x7f, 0x80, 1 << 33} {
		a := Encode(Uint64{Value: value})
		b := Encode(Uint256{Value: uint256.NewInt(value)})
		if !bytes.Equal(a, b) {
			t.Errorf("encodings of %d disagree, %x vs %x", value, a, b)
		}
	}
}
