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

import "errors"

// Reads walk the layer stack from the top down and fall through to the
// read-only filter and then the backend. Vertices and Merkle keys are owned
// by the layer that last wrote them; a nil vertex entry shadows anything
// below as a deletion, a void key entry shadows stale keys below as
// "unresolved".

// getVtx resolves a vertex id against the layered view. An absent vertex
// yields (nil, nil).
func (db *TrieDB) getVtx(vid VertexID) (Vertex, error) {
	if vtx, ok := db.top.delta.sTab[vid]; ok {
		return vtx, nil
	}
	for i := len(db.stack) - 1; i >= 0; i-- {
		if vtx, ok := db.stack[i].delta.sTab[vid]; ok {
			return vtx, nil
		}
	}
	if db.roFilter != nil {
		if vtx, ok := db.roFilter.STab[vid]; ok {
			return vtx, nil
		}
	}
	if db.shared != nil && db.shared.be != nil {
		return db.shared.be.GetVtx(vid)
	}
	return nil, nil
}

// getKey resolves the Merkle key of a vertex id against the layered view.
// An unknown or invalidated key yields the void key.
func (db *TrieDB) getKey(vid VertexID) (HashKey, error) {
	if key, ok := db.top.delta.kMap[vid]; ok {
		return key, nil
	}
	for i := len(db.stack) - 1; i >= 0; i-- {
		if key, ok := db.stack[i].delta.kMap[vid]; ok {
			return key, nil
		}
	}
	if db.roFilter != nil {
		if key, ok := db.roFilter.KMap[vid]; ok {
			return key, nil
		}
	}
	if db.shared != nil && db.shared.be != nil {
		return db.shared.be.GetKey(vid)
	}
	return VoidHashKey, nil
}

// inLayers reports whether the id was written by any in-memory layer, as
// opposed to being sourced from the read-only filter or the backend.
func (db *TrieDB) inLayers(vid VertexID) bool {
	if _, ok := db.top.delta.sTab[vid]; ok {
		return true
	}
	for i := len(db.stack) - 1; i >= 0; i-- {
		if _, ok := db.stack[i].delta.sTab[vid]; ok {
			return true
		}
	}
	return false
}

// FetchPayload retrieves the payload stored under the given path of the
// trie rooted at root, or ErrGetPathNotFound.
func (db *TrieDB) FetchPayload(root VertexID, path []byte) (Payload, error) {
	nibbles := nibblesFromBytes(path)
	if len(nibbles) == 0 {
		return nil, vidErr(root, ErrHikeEmptyPath)
	}
	hike, err := db.hikeUp(root, nibbles)
	if err != nil {
		if errors.Is(err, ErrHikeRootMissing) ||
			errors.Is(err, ErrHikeBranchMissingEdge) ||
			errors.Is(err, ErrHikeExtTailMismatch) ||
			errors.Is(err, ErrHikeLeafUnexpected) {
			return nil, vidErr(root, ErrGetPathNotFound)
		}
		return nil, err
	}
	return hike.lastLeg().vtx.(*LeafVertex).Payload.Dup(), nil
}

// HasPath reports whether a payload is stored under the given path.
func (db *TrieDB) HasPath(root VertexID, path []byte) (bool, error) {
	_, err := db.FetchPayload(root, path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrGetPathNotFound) {
		return false, nil
	}
	return false, err
}

// ----------------------------------------------------------------------------
//                          Top layer mutators
// ----------------------------------------------------------------------------

// allocVtx draws a fresh id from the generator of the top layer.
func (db *TrieDB) allocVtx() VertexID {
	vid, vGen := vidFetch(db.top.final.vGen)
	db.top.final.vGen = vGen
	return vid
}

// setVtx records a vertex in the top layer, invalidating its Merkle key
// and marking it dirty.
func (db *TrieDB) setVtx(vid VertexID, vtx Vertex) {
	db.top.delta.sTab[vid] = vtx
	db.top.delta.kMap[vid] = VoidHashKey
	db.top.final.dirty[vid] = struct{}{}
}

// clearVtx records the deletion of a vertex in the top layer and recycles
// its id.
func (db *TrieDB) clearVtx(vid VertexID) {
	db.top.delta.sTab[vid] = nil
	db.top.delta.kMap[vid] = VoidHashKey
	db.top.final.dirty[vid] = struct{}{}
	delete(db.top.final.pPrf, vid)
	db.top.final.vGen = vidDispose(db.top.final.vGen, vid)
}

// invalidateKeys voids the Merkle keys of all vertices along a hike. Every
// structural edit at the tip changes the hashes all the way to the root.
func (db *TrieDB) invalidateKeys(hike *hike) {
	for i := range hike.legs {
		vid := hike.legs[i].vid
		db.top.delta.kMap[vid] = VoidHashKey
		db.top.final.dirty[vid] = struct{}{}
	}
}

// isLocked reports whether the id is locked by a proof import.
func (db *TrieDB) isLocked(vid VertexID) bool {
	_, ok := db.top.final.pPrf[vid]
	return ok
}

func (db *TrieDB) isRegisteredRoot(vid VertexID) bool {
	_, ok := db.roots[vid]
	return ok
}
