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

// hikeLeg is one step of a resolved path: the vertex visited and, for
// branch vertices, the nibble consumed to descend to the next leg.
type hikeLeg struct {
	vid    VertexID
	vtx    Vertex
	nibble int8 // branch selector consumed at this leg, -1 otherwise
}

// hike is a resolved root-to-tip path. A complete hike ends in a leaf leg
// with an empty tail; an incomplete one keeps the unconsumed tail for the
// caller to act on.
type hike struct {
	root VertexID
	legs []hikeLeg
	tail []Nibble
}

// lastLeg returns the final leg of the hike.
func (h *hike) lastLeg() *hikeLeg {
	return &h.legs[len(h.legs)-1]
}

// hikeUp walks the given path down from the root as far as the trie
// structure allows. The returned hike holds the legs visited so far; the
// error classifies why (and whether) the walk stopped short:
//
//	nil                      leaf reached, tail fully consumed
//	ErrHikeBranchMissingEdge stopped at a branch with no matching edge
//	ErrHikeExtTailMismatch   stopped at an extension diverging from the tail
//	ErrHikeLeafUnexpected    stopped at a leaf whose prefix diverges
//	ErrHikeRootMissing       the root vertex does not resolve
//	ErrHikeEmptyPath         the path holds no nibbles
func (db *TrieDB) hikeUp(root VertexID, path []Nibble) (*hike, error) {
	res := &hike{root: root, tail: path}
	if len(path) == 0 {
		return res, vidErr(root, ErrHikeEmptyPath)
	}
	vtx, err := db.getVtx(root)
	if err != nil {
		return res, err
	}
	if vtx == nil {
		return res, vidErr(root, ErrHikeRootMissing)
	}

	vid := root
	for {
		leg := hikeLeg{vid: vid, vtx: vtx, nibble: -1}
		switch vtx := vtx.(type) {
		case *LeafVertex:
			res.legs = append(res.legs, leg)
			if sameNibbles(res.tail, vtx.Prefix) {
				res.tail = nil
				return res, nil
			}
			return res, vidErr(vid, ErrHikeLeafUnexpected)

		case *ExtensionVertex:
			res.legs = append(res.legs, leg)
			if len(res.tail) < len(vtx.Prefix) ||
				commonPrefixLength(res.tail, vtx.Prefix) < len(vtx.Prefix) {
				return res, vidErr(vid, ErrHikeExtTailMismatch)
			}
			res.tail = res.tail[len(vtx.Prefix):]
			vid = vtx.Child

		case *BranchVertex:
			if len(res.tail) == 0 {
				res.legs = append(res.legs, leg)
				return res, vidErr(vid, ErrHikeBranchMissingEdge)
			}
			nibble := res.tail[0]
			child := vtx.Children[nibble]
			if child == 0 {
				res.legs = append(res.legs, leg)
				return res, vidErr(vid, ErrHikeBranchMissingEdge)
			}
			leg.nibble = int8(nibble)
			res.legs = append(res.legs, leg)
			res.tail = res.tail[1:]
			vid = child
		}

		next, err := db.getVtx(vid)
		if err != nil {
			return res, err
		}
		if next == nil {
			// Dangling link, the trie is damaged below this point.
			return res, vidErr(vid, ErrGetVtxNotFound)
		}
		vtx = next
	}
}
