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
	"errors"
)

// DeletePayload removes the leaf stored under the given path of the trie
// rooted at root, collapsing branches and extensions on the way back up so
// that the trie keeps its canonical shape. Ids freed by the removal are
// returned to the generator.
func (db *TrieDB) DeletePayload(root VertexID, path []byte) error {
	nibbles := nibblesFromBytes(path)
	if len(nibbles) == 0 {
		return vidErr(root, ErrHikeEmptyPath)
	}
	hike, err := db.hikeUp(root, nibbles)
	if err != nil {
		if errors.Is(err, ErrHikeRootMissing) ||
			errors.Is(err, ErrHikeBranchMissingEdge) ||
			errors.Is(err, ErrHikeExtTailMismatch) ||
			errors.Is(err, ErrHikeLeafUnexpected) {
			return vidErr(root, ErrDelPathNotFound)
		}
		return err
	}

	leafLeg := hike.lastLeg()
	if db.isLocked(leafLeg.vid) {
		return vidErr(leafLeg.vid, ErrDelLeafLocked)
	}

	if len(hike.legs) == 1 {
		// The leaf is the trie root, the trie becomes empty.
		db.clearVtx(leafLeg.vid)
		db.invalidateKeys(hike)
		return nil
	}

	// The leaf's parent is necessarily a branch; extensions always point
	// at branches and branches at least fan out into two edges.
	parentLeg := &hike.legs[len(hike.legs)-2]
	branch, ok := parentLeg.vtx.(*BranchVertex)
	if !ok || parentLeg.nibble < 0 {
		return vidErr(parentLeg.vid, ErrMergeAssemblyFailed)
	}
	if db.isLocked(parentLeg.vid) {
		return vidErr(parentLeg.vid, ErrDelBranchLocked)
	}

	db.clearVtx(leafLeg.vid)
	reduced := branch.Dup().(*BranchVertex)
	reduced.Children[parentLeg.nibble] = 0

	if reduced.CountChildren() >= 2 {
		db.setVtx(parentLeg.vid, reduced)
		db.invalidateKeys(hike)
		return nil
	}

	// A single edge is left, the branch collapses into its remaining
	// child. The grandparent extension, if any, is folded in as well.
	nibble, childVid, _ := reduced.SoleChild()
	if err := db.collapseBranch(hike, parentLeg.vid, nibble, childVid); err != nil {
		return err
	}
	db.invalidateKeys(hike)
	return nil
}

// collapseBranch rewrites the single-edged branch at branchVid into the
// canonical replacement vertex, merging with the remaining child and with a
// grandparent extension where needed.
func (db *TrieDB) collapseBranch(hike *hike, branchVid VertexID, nibble Nibble, childVid VertexID) error {
	child, err := db.getVtx(childVid)
	if err != nil {
		return err
	}
	if child == nil {
		return vidErr(childVid, ErrGetVtxNotFound)
	}
	if _, ok := child.(*BranchVertex); !ok && db.isLocked(childVid) {
		return vidErr(childVid, ErrDelLeafLocked)
	}

	// Target slot: a grandparent extension is absorbed, its slot taking
	// the collapsed result.
	targetVid := branchVid
	var extPrefix []Nibble
	if len(hike.legs) >= 3 {
		grandLeg := &hike.legs[len(hike.legs)-3]
		if ext, ok := grandLeg.vtx.(*ExtensionVertex); ok {
			if db.isLocked(grandLeg.vid) {
				return vidErr(grandLeg.vid, ErrDelBranchLocked)
			}
			targetVid = grandLeg.vid
			extPrefix = ext.Prefix
			db.clearVtx(branchVid)
		}
	}

	switch child := child.(type) {
	case *LeafVertex:
		prefix := make([]Nibble, 0, len(extPrefix)+1+len(child.Prefix))
		prefix = append(prefix, extPrefix...)
		prefix = append(prefix, nibble)
		prefix = append(prefix, child.Prefix...)
		db.clearVtx(childVid)
		db.setVtx(targetVid, &LeafVertex{Prefix: prefix, Payload: child.Payload.Dup()})

	case *ExtensionVertex:
		prefix := make([]Nibble, 0, len(extPrefix)+1+len(child.Prefix))
		prefix = append(prefix, extPrefix...)
		prefix = append(prefix, nibble)
		prefix = append(prefix, child.Prefix...)
		db.clearVtx(childVid)
		db.setVtx(targetVid, &ExtensionVertex{Prefix: prefix, Child: child.Child})

	case *BranchVertex:
		prefix := make([]Nibble, 0, len(extPrefix)+1)
		prefix = append(prefix, extPrefix...)
		prefix = append(prefix, nibble)
		db.setVtx(targetVid, &ExtensionVertex{Prefix: prefix, Child: childVid})
	}
	return nil
}

// DeleteSubTree removes the whole sub-trie rooted at the given vertex,
// freeing every reachable id and clearing the key table entries for them.
// Tries larger than the configured bound are refused.
func (db *TrieDB) DeleteSubTree(root VertexID) error {
	vtx, err := db.getVtx(root)
	if err != nil {
		return err
	}
	if vtx == nil {
		return vidErr(root, ErrDelRootMissing)
	}

	// Collect the reachable vertices first so that the deletion either
	// happens completely or not at all.
	type item struct {
		vid VertexID
		vtx Vertex
	}
	queue := []VertexID{root}
	collected := make([]item, 0, 64)
	for len(queue) > 0 {
		vid := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		vtx, err := db.getVtx(vid)
		if err != nil {
			return err
		}
		if vtx == nil {
			return vidErr(vid, ErrGetVtxNotFound)
		}
		if db.isLocked(vid) {
			if _, ok := vtx.(*BranchVertex); ok {
				return vidErr(vid, ErrDelBranchLocked)
			}
			return vidErr(vid, ErrDelLeafLocked)
		}
		collected = append(collected, item{vid: vid, vtx: vtx})
		if len(collected) > db.config.DelSubTreeLimit {
			return vidErr(root, ErrDelSubTreeTooBig)
		}
		switch vtx := vtx.(type) {
		case *ExtensionVertex:
			queue = append(queue, vtx.Child)
		case *BranchVertex:
			for _, child := range vtx.Children {
				if child != 0 {
					queue = append(queue, child)
				}
			}
		}
	}

	for _, it := range collected {
		db.clearVtx(it.vid)
	}
	if root != RootVid {
		delete(db.roots, root)
	}
	return nil
}
