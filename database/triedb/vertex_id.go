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
	"fmt"
	"slices"
)

// VertexID is a dense 64-bit identifier naming a trie vertex within the
// engine. VertexIDs serve the same role as pointers in in-memory trie
// implementations: they allow to reference one vertex from another, both in
// memory and on disk.
type VertexID uint64

const (
	// RootVid names the vertex the primary state trie is rooted at.
	RootVid = VertexID(1)

	// LeastFreeVid is the smallest id ever handed out by the generator.
	// Ids below it are reserved.
	LeastFreeVid = VertexID(2)
)

func (v VertexID) String() string {
	if v == 0 {
		return "ø"
	}
	return fmt.Sprintf("$%d", uint64(v))
}

// The id generator state is a sequence of free vertex ids. The last entry
// of a non-empty sequence acts as a sentinel: it marks the id where the
// yet-unallocated tail of the id space begins, meaning that id and every id
// above it are free. All other entries are individually recycled ids.
//
// An empty sequence describes a virgin id space where no id was ever
// allocated.

// vidFetch allocates an id from the generator sequence. Recycled ids are
// preferred, most recently freed first; once exhausted the sentinel is
// consumed and advanced.
func vidFetch(vGen []VertexID) (VertexID, []VertexID) {
	if len(vGen) == 0 {
		return LeastFreeVid, []VertexID{LeastFreeVid + 1}
	}
	if len(vGen) == 1 {
		vid := vGen[0]
		return vid, []VertexID{vid + 1}
	}
	vid := vGen[len(vGen)-2]
	return vid, append(vGen[:len(vGen)-2], vGen[len(vGen)-1])
}

// vidDispose returns an id to the generator sequence for later reuse.
func vidDispose(vGen []VertexID, vid VertexID) []VertexID {
	if len(vGen) == 0 {
		return []VertexID{vid}
	}
	// Keep the sentinel as the last entry.
	sentinel := vGen[len(vGen)-1]
	vGen = append(vGen[:len(vGen)-1], vid, sentinel)
	return vGen
}

// vidReorg compacts the generator sequence into its canonical form: sorted
// ascending with the contiguous block of topmost free ids collapsed into
// the single sentinel entry. The canonical form is what gets persisted.
func vidReorg(vGen []VertexID) []VertexID {
	if len(vGen) == 0 {
		return vGen
	}
	res := slices.Clone(vGen)
	slices.Sort(res)
	res = slices.Compact(res)
	// Collapse the contiguous suffix ending at the sentinel.
	top := len(res) - 1
	for top > 0 && res[top-1]+1 == res[top] {
		top--
	}
	return res[:top+1]
}

// vidHoldsFree reports whether the generator sequence marks the given id as
// free. The sequence need not be in canonical form.
func vidHoldsFree(vGen []VertexID, vid VertexID) bool {
	if len(vGen) == 0 {
		return false
	}
	if vid >= vGen[len(vGen)-1] {
		return true
	}
	for _, free := range vGen[:len(vGen)-1] {
		if free == vid {
			return true
		}
	}
	return false
}
