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
	"slices"
)

// MergePayload inserts or updates the payload stored under the given path
// of the trie rooted at root. All touched vertices are (re)written into the
// top layer, their Merkle keys invalidated, and their ids marked dirty for
// the next hashify pass.
//
// Re-inserting a semantically identical payload reports
// ErrMergeLeafPathCachedAlready (or ErrMergeLeafPathOnBackendAlready when
// the duplicate lives below the layer stack); callers may count these as
// duplicates rather than failures.
func (db *TrieDB) MergePayload(root VertexID, path []byte, payload Payload) error {
	nibbles := nibblesFromBytes(path)
	if len(nibbles) == 0 {
		return vidErr(root, ErrHikeEmptyPath)
	}
	if len(nibbles) > pathLength {
		return vidErr(root, ErrDecodeOverflow)
	}

	hike, err := db.hikeUp(root, nibbles)
	switch {
	case err == nil:
		return db.mergeUpdateLeaf(hike, payload)

	case errors.Is(err, ErrHikeRootMissing):
		if !db.isRegisteredRoot(root) {
			return vidErr(root, ErrMergeRootMissing)
		}
		// Virgin trie, the root vertex becomes the first leaf.
		db.setVtx(root, &LeafVertex{Prefix: nibbles, Payload: payload.Dup()})
		return nil

	case errors.Is(err, ErrHikeLeafUnexpected):
		return db.mergeSplitLeaf(hike, payload)

	case errors.Is(err, ErrHikeBranchMissingEdge):
		return db.mergeIntoBranch(hike, payload)

	case errors.Is(err, ErrHikeExtTailMismatch):
		return db.mergeSplitExtension(hike, payload)
	}
	return err
}

// mergeUpdateLeaf replaces the payload of an existing leaf.
func (db *TrieDB) mergeUpdateLeaf(hike *hike, payload Payload) error {
	leg := hike.lastLeg()
	leaf := leg.vtx.(*LeafVertex)
	if leaf.Payload.Equal(payload) {
		if db.inLayers(leg.vid) {
			return vidErr(leg.vid, ErrMergeLeafPathCachedAlready)
		}
		return vidErr(leg.vid, ErrMergeLeafPathOnBackendAlready)
	}
	if db.isLocked(leg.vid) {
		return vidErr(leg.vid, ErrMergeLeafProofModeLock)
	}
	db.setVtx(leg.vid, &LeafVertex{Prefix: slices.Clone(leaf.Prefix), Payload: payload.Dup()})
	db.invalidateKeys(hike)
	return nil
}

// mergeSplitLeaf splits a leaf whose prefix diverges from the tail into a
// branch holding both the old and the new leaf, wrapped into an extension
// if the diverging prefixes share a head.
//
// The topmost replacement vertex takes over the old leaf's id so that the
// inbound link stays valid.
func (db *TrieDB) mergeSplitLeaf(hike *hike, payload Payload) error {
	leg := hike.lastLeg()
	if db.isLocked(leg.vid) {
		return vidErr(leg.vid, ErrMergeLeafProofModeLock)
	}
	oldLeaf := leg.vtx.(*LeafVertex)
	tail := hike.tail
	if len(tail) != len(oldLeaf.Prefix) {
		// All paths share one length, diverging prefixes must as well.
		return vidErr(leg.vid, ErrMergeAssemblyFailed)
	}
	common := commonPrefixLength(tail, oldLeaf.Prefix)

	branch := &BranchVertex{}
	oldVid := db.allocVtx()
	newVid := db.allocVtx()
	branch.Children[tail[common]] = newVid
	branch.Children[oldLeaf.Prefix[common]] = oldVid

	db.setVtx(oldVid, &LeafVertex{
		Prefix:  slices.Clone(oldLeaf.Prefix[common+1:]),
		Payload: oldLeaf.Payload.Dup(),
	})
	db.setVtx(newVid, &LeafVertex{
		Prefix:  slices.Clone(tail[common+1:]),
		Payload: payload.Dup(),
	})

	if common > 0 {
		branchVid := db.allocVtx()
		db.setVtx(branchVid, branch)
		db.setVtx(leg.vid, &ExtensionVertex{
			Prefix: slices.Clone(tail[:common]),
			Child:  branchVid,
		})
	} else {
		db.setVtx(leg.vid, branch)
	}
	db.invalidateKeys(hike)
	return nil
}

// mergeIntoBranch hangs a new leaf under an unused edge of a branch.
func (db *TrieDB) mergeIntoBranch(hike *hike, payload Payload) error {
	leg := hike.lastLeg()
	if len(hike.tail) == 0 {
		return vidErr(leg.vid, ErrMergeAssemblyFailed)
	}
	if db.isLocked(leg.vid) {
		return vidErr(leg.vid, ErrMergeBranchLinkLockedKey)
	}
	branch := leg.vtx.(*BranchVertex).Dup().(*BranchVertex)
	leafVid := db.allocVtx()
	branch.Children[hike.tail[0]] = leafVid

	db.setVtx(leafVid, &LeafVertex{
		Prefix:  slices.Clone(hike.tail[1:]),
		Payload: payload.Dup(),
	})
	db.setVtx(leg.vid, branch)
	db.invalidateKeys(hike)
	return nil
}

// mergeSplitExtension splits an extension whose prefix diverges from the
// tail. The extension breaks at the divergence point into
//
//	(extension of the common head)? -> branch -> (extension of the old
//	remainder)? -> old child
//
// with the new leaf hanging off the branch under its diverging nibble. The
// topmost replacement vertex takes over the old extension's id.
func (db *TrieDB) mergeSplitExtension(hike *hike, payload Payload) error {
	leg := hike.lastLeg()
	if db.isLocked(leg.vid) {
		return vidErr(leg.vid, ErrMergeBranchLinkLockedKey)
	}
	ext := leg.vtx.(*ExtensionVertex)
	tail := hike.tail
	common := commonPrefixLength(tail, ext.Prefix)
	if common >= len(tail) {
		return vidErr(leg.vid, ErrMergeAssemblyFailed)
	}

	branch := &BranchVertex{}

	// Reattach the old child, keeping an extension for the prefix
	// remainder if the divergence did not consume it entirely.
	if rest := ext.Prefix[common+1:]; len(rest) > 0 {
		restVid := db.allocVtx()
		db.setVtx(restVid, &ExtensionVertex{
			Prefix: slices.Clone(rest),
			Child:  ext.Child,
		})
		branch.Children[ext.Prefix[common]] = restVid
	} else {
		branch.Children[ext.Prefix[common]] = ext.Child
	}

	leafVid := db.allocVtx()
	db.setVtx(leafVid, &LeafVertex{
		Prefix:  slices.Clone(tail[common+1:]),
		Payload: payload.Dup(),
	})
	branch.Children[tail[common]] = leafVid

	if common > 0 {
		branchVid := db.allocVtx()
		db.setVtx(branchVid, branch)
		db.setVtx(leg.vid, &ExtensionVertex{
			Prefix: slices.Clone(tail[:common]),
			Child:  branchVid,
		})
	} else {
		db.setVtx(leg.vid, branch)
	}
	db.invalidateKeys(hike)
	return nil
}
