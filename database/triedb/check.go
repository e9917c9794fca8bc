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
	"github.com/ravikantcool2023/nimbus-eth1/common"
	"github.com/ravikantcool2023/nimbus-eth1/database/triedb/rlp"
)

// CheckBackend verifies the consistency of a persisted state: every vertex
// satisfies its structural invariants, every vertex has a Merkle key that
// matches its recomputation from the stored child keys, and the id
// generator covers every free id and only free ids.
func CheckBackend(be Backend) error {
	vertices := map[VertexID]Vertex{}
	if err := be.WalkVtx(func(vid VertexID, vtx Vertex) bool {
		vertices[vid] = vtx
		return true
	}); err != nil {
		return err
	}
	keys := map[VertexID]HashKey{}
	if err := be.WalkKey(func(vid VertexID, key HashKey) bool {
		keys[vid] = key
		return true
	}); err != nil {
		return err
	}

	for _, vid := range sortedVidKeys(vertices) {
		vtx := vertices[vid]
		if err := vtx.Check(); err != nil {
			return vidErr(vid, ErrCheckBeVtxInvalid)
		}
		stored, ok := keys[vid]
		if !ok || !stored.IsValid() {
			return vidErr(vid, ErrCheckBeKeyMissing)
		}
		encoding, err := encodeWithStoredKeys(vtx, keys)
		if err != nil {
			return vidErr(vid, err)
		}
		if !hashKeyFromEncoding(encoding).Equal(stored) {
			return vidErr(vid, ErrCheckBeKeyMismatch)
		}
	}

	return checkGenerator(vertices, be)
}

// encodeWithStoredKeys renders the hashing encoding of a vertex, resolving
// child references through the persisted key table only.
func encodeWithStoredKeys(vtx Vertex, keys map[VertexID]HashKey) ([]byte, error) {
	childKey := func(vid VertexID) (HashKey, error) {
		key, ok := keys[vid]
		if !ok || !key.IsValid() {
			return VoidHashKey, ErrCheckBeKeyMissing
		}
		return key, nil
	}

	switch vtx := vtx.(type) {
	case *LeafVertex:
		var value []byte
		switch payload := vtx.Payload.(type) {
		case RawData:
			value = []byte(payload)
		case StorageData:
			slot := []byte(payload)
			for len(slot) > 0 && slot[0] == 0 {
				slot = slot[1:]
			}
			value = rlp.Encode(rlp.String{Str: slot})
		case *AccountData:
			storageRoot := EmptyRootHashKey
			if payload.StorageID != 0 {
				key, err := childKey(payload.StorageID)
				if err != nil {
					return nil, err
				}
				if !key.IsHash() {
					hash := common.Keccak256(key)
					key = HashKey(hash[:])
				}
				storageRoot = key
			}
			storageHash := storageRoot.ToHash()
			codeHash := payload.CodeHash
			value = rlp.Encode(rlp.List{Items: []rlp.Item{
				rlp.Uint64{Value: payload.Nonce},
				rlp.Uint256{Value: &payload.Balance},
				rlp.Hash{Hash: &storageHash},
				rlp.Hash{Hash: &codeHash},
			}})
		}
		return rlp.Encode(rlp.List{Items: []rlp.Item{
			rlp.String{Str: hexPrefixEncode(vtx.Prefix, true)},
			rlp.String{Str: value},
		}}), nil

	case *ExtensionVertex:
		key, err := childKey(vtx.Child)
		if err != nil {
			return nil, err
		}
		return rlp.Encode(rlp.List{Items: []rlp.Item{
			rlp.String{Str: hexPrefixEncode(vtx.Prefix, false)},
			childRef(key),
		}}), nil

	case *BranchVertex:
		items := make([]rlp.Item, 17)
		for i, child := range vtx.Children {
			if child == 0 {
				items[i] = rlp.String{}
				continue
			}
			key, err := childKey(child)
			if err != nil {
				return nil, err
			}
			items[i] = childRef(key)
		}
		items[16] = rlp.String{}
		return rlp.Encode(rlp.List{Items: items}), nil
	}
	return nil, ErrCheckBeVtxInvalid
}

// checkGenerator verifies that the persisted generator sequence is in
// canonical form and partitions the id space exactly: every id below the
// sentinel is either in use or explicitly free, and no used id is free.
func checkGenerator(vertices map[VertexID]Vertex, be Backend) error {
	vGen, err := be.GetIdg()
	if err != nil {
		return err
	}
	if len(vGen) == 0 {
		// A virgin id space admits reserved ids only.
		for vid := range vertices {
			if vid >= LeastFreeVid {
				return vidErr(vid, ErrCheckBeGarbledVGen)
			}
		}
		return nil
	}
	canonical := vidReorg(vGen)
	if len(canonical) != len(vGen) {
		return vidErr(0, ErrCheckBeGarbledVGen)
	}
	for i := range vGen {
		if vGen[i] != canonical[i] {
			return vidErr(0, ErrCheckBeGarbledVGen)
		}
	}

	sentinel := vGen[len(vGen)-1]
	for vid := range vertices {
		if vidHoldsFree(vGen, vid) {
			return vidErr(vid, ErrCheckBeGarbledVGen)
		}
	}
	for _, free := range vGen[:len(vGen)-1] {
		if _, ok := vertices[free]; ok {
			return vidErr(free, ErrCheckBeGarbledVGen)
		}
	}
	for vid := LeastFreeVid; vid < sentinel; vid++ {
		if _, ok := vertices[vid]; ok {
			continue
		}
		if !vidHoldsFree(vGen, vid) {
			return vidErr(vid, ErrCheckBeGarbledVGen)
		}
	}
	return nil
}

// CheckTop verifies the internal consistency of the descriptor's top
// layer: dirty ids and void key entries track the vertex overrides of the
// layer, and the generator does not hand out ids still in use.
func (db *TrieDB) CheckTop() error {
	for vid := range db.top.final.dirty {
		if _, ok := db.top.delta.kMap[vid]; !ok {
			return vidErr(vid, ErrCheckBeKeyMissing)
		}
	}
	for vid, vtx := range db.top.delta.sTab {
		if vtx == nil {
			continue
		}
		if vidHoldsFree(db.top.final.vGen, vid) {
			return vidErr(vid, ErrCheckBeGarbledVGen)
		}
	}
	return nil
}
