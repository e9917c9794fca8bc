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

// Hashify recomputes the Merkle keys of all vertices whose keys were
// invalidated by structural edits, bottom-up from the leaves, and returns
// the resulting state root key. Vertices whose encoding is shorter than 32
// bytes keep the encoding itself as their embedded key; the reported root
// is always the full 32-byte digest.
//
// On success the dirty set of the top layer is cleared. In proof mode the
// recomputed key of every root registered by LockAsProof is compared
// against the key recorded for it; a difference yields
// ErrHashifyProofHashMismatch.
func (db *TrieDB) Hashify() (HashKey, error) {
	visiting := map[VertexID]struct{}{}

	// Storage and auxiliary roots resolve first so that account leaves
	// referencing them find their keys in place.
	for _, root := range sortedVidKeys(db.roots) {
		if root == RootVid {
			continue
		}
		if _, err := db.resolveKey(root, visiting); err != nil {
			return VoidHashKey, err
		}
	}

	key, err := db.resolveKey(RootVid, visiting)
	if err != nil {
		return VoidHashKey, err
	}
	rootKey := db.rootHashOf(key)

	if len(db.top.final.pPrf) > 0 {
		for _, root := range sortedVidKeys(db.proofRoots) {
			key, err := db.resolveKey(root, visiting)
			if err != nil {
				return VoidHashKey, err
			}
			if !db.rootHashOf(key).Equal(db.proofRoots[root]) {
				return VoidHashKey, vidErr(root, ErrHashifyProofHashMismatch)
			}
		}
	}

	db.top.final.dirty = map[VertexID]struct{}{}
	return rootKey, nil
}

// resolveKey computes (or retrieves) the reference key of a vertex: the
// Keccak-256 of its RLP encoding, or the encoding itself when shorter than
// 32 bytes. Fresh keys are recorded in the top layer's key table.
func (db *TrieDB) resolveKey(vid VertexID, visiting map[VertexID]struct{}) (HashKey, error) {
	key, err := db.getKey(vid)
	if err != nil {
		return VoidHashKey, err
	}
	if key.IsValid() {
		return key, nil
	}

	vtx, err := db.getVtx(vid)
	if err != nil {
		return VoidHashKey, err
	}
	if vtx == nil {
		if db.isRegisteredRoot(vid) {
			// An empty trie has no vertex to hash.
			return EmptyRootHashKey, nil
		}
		return VoidHashKey, vidErr(vid, ErrHashifyVtxUnresolved)
	}
	if _, ok := visiting[vid]; ok {
		// A cycle cannot be hashed.
		return VoidHashKey, vidErr(vid, ErrHashifyVtxUnresolved)
	}
	visiting[vid] = struct{}{}
	defer delete(visiting, vid)

	var encoding []byte
	switch vtx := vtx.(type) {
	case *LeafVertex:
		value, err := db.encodeLeafValue(vtx, visiting)
		if err != nil {
			return VoidHashKey, vidErr(vid, err)
		}
		encoding = rlp.Encode(rlp.List{Items: []rlp.Item{
			rlp.String{Str: hexPrefixEncode(vtx.Prefix, true)},
			rlp.String{Str: value},
		}})

	case *ExtensionVertex:
		childKey, err := db.resolveKey(vtx.Child, visiting)
		if err != nil {
			return VoidHashKey, err
		}
		encoding = rlp.Encode(rlp.List{Items: []rlp.Item{
			rlp.String{Str: hexPrefixEncode(vtx.Prefix, false)},
			childRef(childKey),
		}})

	case *BranchVertex:
		items := make([]rlp.Item, 17)
		for i, child := range vtx.Children {
			if child == 0 {
				items[i] = rlp.String{}
				continue
			}
			childKey, err := db.resolveKey(child, visiting)
			if err != nil {
				return VoidHashKey, err
			}
			items[i] = childRef(childKey)
		}
		items[16] = rlp.String{}
		encoding = rlp.Encode(rlp.List{Items: items})
	}

	key = hashKeyFromEncoding(encoding)
	db.top.delta.kMap[vid] = key
	return key, nil
}

// encodeLeafValue produces the value string of a leaf: raw payloads are
// embedded as given, storage slots are RLP encoded with leading zero-bytes
// stripped, and accounts encode as the list of (nonce, balance, storage
// root, code hash) with the storage sub-trie resolved first.
func (db *TrieDB) encodeLeafValue(leaf *LeafVertex, visiting map[VertexID]struct{}) ([]byte, error) {
	switch payload := leaf.Payload.(type) {
	case RawData:
		return []byte(payload), nil

	case StorageData:
		value := []byte(payload)
		for len(value) > 0 && value[0] == 0 {
			value = value[1:]
		}
		return rlp.Encode(rlp.String{Str: value}), nil

	case *AccountData:
		storageRoot := EmptyRootHashKey
		if payload.StorageID != 0 {
			key, err := db.resolveKey(payload.StorageID, visiting)
			if err != nil {
				return nil, ErrHashifyVtxUnresolved
			}
			storageRoot = db.rootHashOf(key)
		}
		storageHash := storageRoot.ToHash()
		codeHash := payload.CodeHash
		return rlp.Encode(rlp.List{Items: []rlp.Item{
			rlp.Uint64{Value: payload.Nonce},
			rlp.Uint256{Value: &payload.Balance},
			rlp.Hash{Hash: &storageHash},
			rlp.Hash{Hash: &codeHash},
		}}), nil
	}
	return nil, ErrHashifyVtxUnresolved
}

// childRef renders a child key as an RLP item: full digests by value,
// embedded encodings verbatim.
func childRef(key HashKey) rlp.Item {
	if key.IsHash() {
		return rlp.String{Str: key}
	}
	return rlp.Encoded{Data: key}
}

// rootHashOf widens a reference key into the root digest form: embedded
// encodings are hashed, as roots are always referenced by digest.
func (db *TrieDB) rootHashOf(key HashKey) HashKey {
	if key.IsHash() {
		return key
	}
	hash := common.Keccak256(key)
	return HashKey(hash[:])
}
