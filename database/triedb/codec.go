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

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/ravikantcool2023/nimbus-eth1/common"
)

// Deterministic byte serialisation of vertices, filters, and the id
// generator state. All blobs are self-describing, starting with a one-byte
// type tag. Decoding never panics: truncated or garbled input surfaces as
// ErrDecode* failures.

// Blob type tags.
const (
	tagLeaf      = byte(0x01)
	tagExtension = byte(0x02)
	tagBranch    = byte(0x03)
	tagFilter    = byte(0x20)
	tagJournal   = byte(0x30)
)

// Payload type tags within leaf blobs.
const (
	tagRawData     = byte(0x10)
	tagStorageData = byte(0x11)
	tagAccountData = byte(0x12)
)

// codecRecordLimit bounds the length of a single embedded record within a
// filter blob. Larger records indicate a garbled or hostile input.
const codecRecordLimit = 1 << 20

// EncodeVertex serialises a vertex into a self-describing blob.
func EncodeVertex(vtx Vertex) ([]byte, error) {
	switch vtx := vtx.(type) {
	case *BranchVertex:
		res := make([]byte, 0, 3+8*16)
		res = append(res, tagBranch)
		bitmap := uint16(0)
		for i, child := range vtx.Children {
			if child != 0 {
				bitmap |= 1 << uint(i)
			}
		}
		res = binary.BigEndian.AppendUint16(res, bitmap)
		for _, child := range vtx.Children {
			if child != 0 {
				res = binary.BigEndian.AppendUint64(res, uint64(child))
			}
		}
		return res, nil

	case *ExtensionVertex:
		if len(vtx.Prefix) > pathLength {
			return nil, ErrDecodeOverflow
		}
		res := make([]byte, 0, 10+len(vtx.Prefix)/2+1)
		res = append(res, tagExtension)
		res = binary.BigEndian.AppendUint64(res, uint64(vtx.Child))
		res = append(res, byte(len(vtx.Prefix)))
		res = append(res, hexPrefixEncode(vtx.Prefix, false)...)
		return res, nil

	case *LeafVertex:
		if len(vtx.Prefix) > pathLength {
			return nil, ErrDecodeOverflow
		}
		payload, err := encodePayload(vtx.Payload)
		if err != nil {
			return nil, err
		}
		if len(payload) > 0xffff {
			return nil, ErrDecodeOverflow
		}
		res := make([]byte, 0, 4+len(payload)+len(vtx.Prefix)/2+1)
		res = append(res, tagLeaf)
		res = binary.BigEndian.AppendUint16(res, uint16(len(payload)))
		res = append(res, payload...)
		res = append(res, byte(len(vtx.Prefix)))
		res = append(res, hexPrefixEncode(vtx.Prefix, true)...)
		return res, nil
	}
	return nil, ErrDecodeWrongType
}

// DecodeVertex parses a vertex blob produced by EncodeVertex.
func DecodeVertex(data []byte) (Vertex, error) {
	if len(data) == 0 {
		return nil, ErrDecodeTooShort
	}
	switch data[0] {
	case tagBranch:
		if len(data) < 3 {
			return nil, ErrDecodeTooShort
		}
		bitmap := binary.BigEndian.Uint16(data[1:3])
		rest := data[3:]
		res := &BranchVertex{}
		for i := 0; i < 16; i++ {
			if bitmap&(1<<uint(i)) == 0 {
				continue
			}
			if len(rest) < 8 {
				return nil, ErrDecodeTooShort
			}
			res.Children[i] = VertexID(binary.BigEndian.Uint64(rest[:8]))
			rest = rest[8:]
		}
		if len(rest) != 0 {
			return nil, ErrDecodeSizeGarbled
		}
		return res, nil

	case tagExtension:
		if len(data) < 11 {
			return nil, ErrDecodeTooShort
		}
		child := VertexID(binary.BigEndian.Uint64(data[1:9]))
		prefix, leaf, err := takeHexPrefix(data[9:])
		if err != nil {
			return nil, err
		}
		if leaf || len(prefix) == 0 {
			return nil, ErrDecodeSizeGarbled
		}
		return &ExtensionVertex{Prefix: prefix, Child: child}, nil

	case tagLeaf:
		if len(data) < 3 {
			return nil, ErrDecodeTooShort
		}
		payloadLen := int(binary.BigEndian.Uint16(data[1:3]))
		if len(data) < 3+payloadLen+2 {
			return nil, ErrDecodeTooShort
		}
		payload, err := decodePayload(data[3 : 3+payloadLen])
		if err != nil {
			return nil, err
		}
		prefix, leaf, err := takeHexPrefix(data[3+payloadLen:])
		if err != nil {
			return nil, err
		}
		if !leaf {
			return nil, ErrDecodeSizeGarbled
		}
		return &LeafVertex{Prefix: prefix, Payload: payload}, nil
	}
	return nil, ErrDecodeWrongType
}

func encodePayload(payload Payload) ([]byte, error) {
	switch payload := payload.(type) {
	case RawData:
		return append([]byte{tagRawData}, payload...), nil
	case StorageData:
		return append([]byte{tagStorageData}, payload...), nil
	case *AccountData:
		res := make([]byte, 0, 1+8+32+8+common.HashSize)
		res = append(res, tagAccountData)
		res = binary.BigEndian.AppendUint64(res, payload.Nonce)
		balance := payload.Balance.Bytes32()
		res = append(res, balance[:]...)
		res = binary.BigEndian.AppendUint64(res, uint64(payload.StorageID))
		res = append(res, payload.CodeHash[:]...)
		return res, nil
	}
	return nil, ErrDecodeWrongType
}

func decodePayload(data []byte) (Payload, error) {
	if len(data) == 0 {
		return nil, ErrDecodeTooShort
	}
	switch data[0] {
	case tagRawData:
		return RawData(append([]byte{}, data[1:]...)), nil
	case tagStorageData:
		return StorageData(append([]byte{}, data[1:]...)), nil
	case tagAccountData:
		if len(data) != 1+8+32+8+common.HashSize {
			return nil, ErrDecodeSizeGarbled
		}
		res := &AccountData{}
		res.Nonce = binary.BigEndian.Uint64(data[1:9])
		var balance [32]byte
		copy(balance[:], data[9:41])
		res.Balance = *new(uint256.Int).SetBytes32(balance[:])
		res.StorageID = VertexID(binary.BigEndian.Uint64(data[41:49]))
		copy(res.CodeHash[:], data[49:])
		return res, nil
	}
	return nil, ErrDecodeWrongType
}

// EncodeVGen serialises the id generator state, order preserved.
func EncodeVGen(vGen []VertexID) []byte {
	res := make([]byte, 0, 4+8*len(vGen))
	res = binary.BigEndian.AppendUint32(res, uint32(len(vGen)))
	for _, vid := range vGen {
		res = binary.BigEndian.AppendUint64(res, uint64(vid))
	}
	return res
}

// DecodeVGen parses an id generator blob.
func DecodeVGen(data []byte) ([]VertexID, error) {
	if len(data) < 4 {
		return nil, ErrDecodeTooShort
	}
	count := int(binary.BigEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) < 8*count {
		return nil, ErrDecodeTooShort
	}
	if len(data) != 8*count {
		return nil, ErrDecodeSizeGarbled
	}
	res := make([]VertexID, 0, count)
	for len(data) > 0 {
		res = append(res, VertexID(binary.BigEndian.Uint64(data[:8])))
		data = data[8:]
	}
	return res, nil
}

// EncodeFilter serialises a filter into a self-describing blob: source and
// target root keys, generator state, vertex overrides, key overrides.
func EncodeFilter(filter *Filter) ([]byte, error) {
	res := make([]byte, 0, 1024)
	res = append(res, tagFilter)
	res = binary.BigEndian.AppendUint64(res, uint64(filter.Fid))
	res = appendHashKey(res, filter.Src)
	res = appendHashKey(res, filter.Trg)

	// The generator sequence is order-sensitive and serialised as given.
	res = binary.BigEndian.AppendUint32(res, uint32(len(filter.VGen)))
	for _, vid := range filter.VGen {
		res = binary.BigEndian.AppendUint64(res, uint64(vid))
	}

	res = binary.BigEndian.AppendUint32(res, uint32(len(filter.STab)))
	for _, vid := range sortedVidKeys(filter.STab) {
		res = binary.BigEndian.AppendUint64(res, uint64(vid))
		vtx := filter.STab[vid]
		if vtx == nil {
			res = binary.BigEndian.AppendUint32(res, 0)
			continue
		}
		blob, err := EncodeVertex(vtx)
		if err != nil {
			return nil, err
		}
		if len(blob) > codecRecordLimit {
			return nil, ErrDecodeOverflow
		}
		res = binary.BigEndian.AppendUint32(res, uint32(len(blob)))
		res = append(res, blob...)
	}

	res = binary.BigEndian.AppendUint32(res, uint32(len(filter.KMap)))
	for _, vid := range sortedVidKeys(filter.KMap) {
		res = binary.BigEndian.AppendUint64(res, uint64(vid))
		res = appendHashKey(res, filter.KMap[vid])
	}
	return res, nil
}

// DecodeFilter parses a filter blob produced by EncodeFilter.
func DecodeFilter(data []byte) (*Filter, error) {
	if len(data) == 0 {
		return nil, ErrDecodeTooShort
	}
	if data[0] != tagFilter {
		return nil, ErrDecodeWrongType
	}
	data = data[1:]
	if len(data) < 8 {
		return nil, ErrDecodeTooShort
	}
	res := &Filter{
		Fid:  FilterID(binary.BigEndian.Uint64(data[:8])),
		STab: map[VertexID]Vertex{},
		KMap: map[VertexID]HashKey{},
	}
	data = data[8:]

	var err error
	if res.Src, data, err = takeHashKey(data); err != nil {
		return nil, err
	}
	if res.Trg, data, err = takeHashKey(data); err != nil {
		return nil, err
	}

	count, data, err := takeUint32(data)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		if len(data) < 8 {
			return nil, ErrDecodeTooShort
		}
		res.VGen = append(res.VGen, VertexID(binary.BigEndian.Uint64(data[:8])))
		data = data[8:]
	}

	if count, data, err = takeUint32(data); err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		if len(data) < 12 {
			return nil, ErrDecodeTooShort
		}
		vid := VertexID(binary.BigEndian.Uint64(data[:8]))
		blobLen := binary.BigEndian.Uint32(data[8:12])
		data = data[12:]
		if blobLen == 0 {
			res.STab[vid] = nil
			continue
		}
		if blobLen > codecRecordLimit {
			return nil, ErrDecodeOverflow
		}
		if uint32(len(data)) < blobLen {
			return nil, ErrDecodeTooShort
		}
		vtx, err := DecodeVertex(data[:blobLen])
		if err != nil {
			return nil, err
		}
		res.STab[vid] = vtx
		data = data[blobLen:]
	}

	if count, data, err = takeUint32(data); err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		if len(data) < 8 {
			return nil, ErrDecodeTooShort
		}
		vid := VertexID(binary.BigEndian.Uint64(data[:8]))
		key, rest, err := takeHashKey(data[8:])
		if err != nil {
			return nil, err
		}
		res.KMap[vid] = key
		data = rest
	}
	if len(data) != 0 {
		return nil, ErrDecodeSizeGarbled
	}
	return res, nil
}

// EncodeJournalState serialises the journal scheduler state: the filter id
// generator plus, per tier, the serial counter and the live entries in
// newest-first order.
func EncodeJournalState(state *JournalState) []byte {
	res := make([]byte, 0, 256)
	res = append(res, tagJournal)
	res = binary.BigEndian.AppendUint64(res, uint64(state.NextFid))
	res = append(res, byte(len(state.Tiers)))
	for t, tier := range state.Tiers {
		res = binary.BigEndian.AppendUint64(res, state.Serials[t])
		res = append(res, byte(len(tier)))
		for _, entry := range tier {
			res = binary.BigEndian.AppendUint64(res, uint64(entry.Qid))
			res = binary.BigEndian.AppendUint64(res, uint64(entry.Fid))
			res = binary.BigEndian.AppendUint32(res, entry.Covers)
		}
	}
	return res
}

// DecodeJournalState parses a journal scheduler blob.
func DecodeJournalState(data []byte) (*JournalState, error) {
	if len(data) == 0 {
		return nil, ErrDecodeTooShort
	}
	if data[0] != tagJournal {
		return nil, ErrDecodeWrongType
	}
	data = data[1:]
	if len(data) < 9 {
		return nil, ErrDecodeTooShort
	}
	res := &JournalState{NextFid: FilterID(binary.BigEndian.Uint64(data[:8]))}
	numTiers := int(data[8])
	data = data[9:]
	for t := 0; t < numTiers; t++ {
		if len(data) < 9 {
			return nil, ErrDecodeTooShort
		}
		res.Serials = append(res.Serials, binary.BigEndian.Uint64(data[:8]))
		count := int(data[8])
		data = data[9:]
		tier := make([]journalEntry, 0, count)
		for i := 0; i < count; i++ {
			if len(data) < 20 {
				return nil, ErrDecodeTooShort
			}
			tier = append(tier, journalEntry{
				Qid:    QueueID(binary.BigEndian.Uint64(data[:8])),
				Fid:    FilterID(binary.BigEndian.Uint64(data[8:16])),
				Covers: binary.BigEndian.Uint32(data[16:20]),
			})
			data = data[20:]
		}
		res.Tiers = append(res.Tiers, tier)
	}
	if len(data) != 0 {
		return nil, ErrDecodeSizeGarbled
	}
	return res, nil
}

// ----------------------------------------------------------------------------
//                                 Helpers
// ----------------------------------------------------------------------------

func appendHashKey(dst []byte, key HashKey) []byte {
	dst = append(dst, byte(len(key)))
	return append(dst, key...)
}

func takeHashKey(data []byte) (HashKey, []byte, error) {
	if len(data) < 1 {
		return nil, nil, ErrDecodeTooShort
	}
	length := int(data[0])
	if length > common.HashSize {
		return nil, nil, ErrDecodeSizeGarbled
	}
	if len(data) < 1+length {
		return nil, nil, ErrDecodeTooShort
	}
	key := HashKey(append([]byte{}, data[1:1+length]...))
	return key, data[1+length:], nil
}

// takeHexPrefix parses a nibble-count byte followed by the hex-prefix
// packed bytes making up the rest of the record. The byte count must match
// the announced nibble count exactly.
func takeHexPrefix(data []byte) ([]Nibble, bool, error) {
	if len(data) < 1 {
		return nil, false, ErrDecodeTooShort
	}
	count := int(data[0])
	if count > pathLength {
		return nil, false, ErrDecodeOverflow
	}
	packed := data[1:]
	expected := 1 + count/2
	if len(packed) < expected {
		return nil, false, ErrDecodeTooShort
	}
	if len(packed) != expected {
		return nil, false, ErrDecodeSizeGarbled
	}
	prefix, leaf, err := hexPrefixDecode(packed)
	if err != nil {
		return nil, false, err
	}
	if len(prefix) != count {
		return nil, false, ErrDecodeSizeGarbled
	}
	return prefix, leaf, nil
}

func takeUint32(data []byte) (uint32, []byte, error) {
	if len(data) < 4 {
		return 0, nil, ErrDecodeTooShort
	}
	return binary.BigEndian.Uint32(data[:4]), data[4:], nil
}
