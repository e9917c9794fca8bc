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
	"strings"
)

// layerDelta is the copy-on-write part of a layer: vertex and Merkle key
// overrides relative to the state below.
//
// A nil vertex in sTab marks a deletion. A kMap entry holding the void key
// marks a key that was invalidated by a structural edit and needs to be
// recomputed or dropped.
type layerDelta struct {
	sTab map[VertexID]Vertex
	kMap map[VertexID]HashKey
}

// layerFinal is the part of a layer that is replaced, not merged, when the
// layer moves: the id generator sequence, the ids locked by a proof import,
// and the set of structurally dirty ids awaiting re-hashing.
type layerFinal struct {
	vGen  []VertexID
	pPrf  map[VertexID]struct{}
	dirty map[VertexID]struct{}
}

// layer is one copy-on-write view of the trie's in-memory state. Layers
// stack during transactions; reads walk the stack from top to bottom.
type layer struct {
	delta layerDelta
	final layerFinal
	txUid uint64
}

func newLayer() *layer {
	return &layer{
		delta: layerDelta{
			sTab: map[VertexID]Vertex{},
			kMap: map[VertexID]HashKey{},
		},
		final: layerFinal{
			pPrf:  map[VertexID]struct{}{},
			dirty: map[VertexID]struct{}{},
		},
	}
}

// dup produces a deep copy of the layer.
func (l *layer) dup() *layer {
	res := newLayer()
	res.txUid = l.txUid
	for vid, vtx := range l.delta.sTab {
		if vtx == nil {
			res.delta.sTab[vid] = nil
		} else {
			res.delta.sTab[vid] = vtx.Dup()
		}
	}
	for vid, key := range l.delta.kMap {
		res.delta.kMap[vid] = slices.Clone(key)
	}
	res.final.vGen = slices.Clone(l.final.vGen)
	for vid := range l.final.pPrf {
		res.final.pPrf[vid] = struct{}{}
	}
	for vid := range l.final.dirty {
		res.final.dirty[vid] = struct{}{}
	}
	return res
}

// equalContent compares two layers structurally, for snapshot checks.
func (l *layer) equalContent(other *layer) bool {
	if l.txUid != other.txUid ||
		len(l.delta.sTab) != len(other.delta.sTab) ||
		len(l.delta.kMap) != len(other.delta.kMap) ||
		len(l.final.pPrf) != len(other.final.pPrf) ||
		len(l.final.dirty) != len(other.final.dirty) ||
		!slices.Equal(l.final.vGen, other.final.vGen) {
		return false
	}
	for vid, vtx := range l.delta.sTab {
		o, ok := other.delta.sTab[vid]
		if !ok || !VertexEqual(vtx, o) {
			return false
		}
	}
	for vid, key := range l.delta.kMap {
		o, ok := other.delta.kMap[vid]
		if !ok || !key.Equal(o) {
			return false
		}
	}
	for vid := range l.final.pPrf {
		if _, ok := other.final.pPrf[vid]; !ok {
			return false
		}
	}
	for vid := range l.final.dirty {
		if _, ok := other.final.dirty[vid]; !ok {
			return false
		}
	}
	return true
}

func (l *layer) String() string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("layer{uid:%d", l.txUid))
	for _, vid := range sortedVidKeys(l.delta.sTab) {
		if vtx := l.delta.sTab[vid]; vtx == nil {
			builder.WriteString(fmt.Sprintf(" %v=ø", vid))
		} else {
			builder.WriteString(fmt.Sprintf(" %v=%v", vid, vtx))
		}
	}
	builder.WriteString("}")
	return builder.String()
}
