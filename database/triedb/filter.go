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

// FilterID names a filter within the journal.
type FilterID uint64

// Filter is a reversible delta between two trie states. Src is the state
// root the filter applies to, Trg the state root it produces. STab and KMap
// hold the vertex and key overrides (nil vertex and void key entries are
// deletions), VGen the id generator sequence of the target state.
type Filter struct {
	Fid  FilterID
	Src  HashKey
	Trg  HashKey
	STab map[VertexID]Vertex
	KMap map[VertexID]HashKey
	VGen []VertexID
}

// Dup produces a deep copy of the filter.
func (f *Filter) Dup() *Filter {
	res := &Filter{
		Fid:  f.Fid,
		Src:  slices.Clone(f.Src),
		Trg:  slices.Clone(f.Trg),
		STab: make(map[VertexID]Vertex, len(f.STab)),
		KMap: make(map[VertexID]HashKey, len(f.KMap)),
		VGen: slices.Clone(f.VGen),
	}
	for vid, vtx := range f.STab {
		if vtx == nil {
			res.STab[vid] = nil
		} else {
			res.STab[vid] = vtx.Dup()
		}
	}
	for vid, key := range f.KMap {
		res.KMap[vid] = slices.Clone(key)
	}
	return res
}

// Equivalent compares two filters by content, disregarding their journal
// ids. It is the overlap metric of the journal: a pending filter that is
// the byte-identical reverse of the newest journal entry reverts it.
func (f *Filter) Equivalent(other *Filter) bool {
	if other == nil {
		return false
	}
	if !f.Src.Equal(other.Src) || !f.Trg.Equal(other.Trg) ||
		!slices.Equal(f.VGen, other.VGen) ||
		len(f.STab) != len(other.STab) || len(f.KMap) != len(other.KMap) {
		return false
	}
	for vid, vtx := range f.STab {
		o, ok := other.STab[vid]
		if !ok || !VertexEqual(vtx, o) {
			return false
		}
	}
	for vid, key := range f.KMap {
		o, ok := other.KMap[vid]
		if !ok || !key.Equal(o) {
			return false
		}
	}
	return true
}

func (f *Filter) String() string {
	return fmt.Sprintf("filter{fid:%d %v->%v #vtx:%d #key:%d}",
		f.Fid, f.Src, f.Trg, len(f.STab), len(f.KMap))
}

// MergeFilters composes two filters applied in sequence, older first, into
// a single equivalent filter. The newer filter must continue where the
// older one ends, i.e. newer.Src == older.Trg.
//
// Either argument may be nil for the null filter, in which case the other
// one (or nil) is returned unchanged.
func MergeFilters(older, newer *Filter) (*Filter, error) {
	if older == nil {
		return newer, nil
	}
	if newer == nil {
		return older, nil
	}
	if !newer.Src.Equal(older.Trg) {
		return nil, ErrFilTrgSrcMismatch
	}
	res := older.Dup()
	res.Src = slices.Clone(older.Src)
	res.Trg = slices.Clone(newer.Trg)
	res.Fid = newer.Fid
	for vid, vtx := range newer.STab {
		if vtx == nil {
			res.STab[vid] = nil
		} else {
			res.STab[vid] = vtx.Dup()
		}
	}
	// The newer key entry wins, whether a fresh key or a deletion marker
	// accompanying a vertex removal.
	for vid, key := range newer.KMap {
		res.KMap[vid] = slices.Clone(key)
	}
	res.VGen = slices.Clone(newer.VGen)
	return res, nil
}

// assembleFilter projects the top layer onto a forward filter against the
// state below (committed backend plus read-only filter). The top layer
// must have been hashified before. If the layer carries no structural
// change, the null filter (nil) is returned.
func (db *TrieDB) assembleFilter() (*Filter, error) {
	trg, err := db.getKey(RootVid)
	if err != nil {
		return nil, err
	}
	if !trg.IsValid() {
		trg = EmptyRootHashKey
	}

	// The source root is what the backend plus the read-only filter
	// resolve to, disregarding the layer stack.
	src := VoidHashKey
	if db.roFilter != nil {
		src = db.roFilter.Trg
	}
	if !src.IsValid() && db.shared != nil && db.shared.be != nil {
		if src, err = db.shared.be.GetKey(RootVid); err != nil {
			return nil, err
		}
	}
	if !src.IsValid() {
		src = EmptyRootHashKey
	}

	if len(db.top.delta.sTab) == 0 && len(db.top.delta.kMap) == 0 {
		if src.Equal(trg) {
			return nil, nil
		}
		return nil, ErrFilStateRootMismatch
	}

	res := &Filter{
		Src:  slices.Clone(src),
		Trg:  slices.Clone(trg),
		STab: make(map[VertexID]Vertex, len(db.top.delta.sTab)),
		KMap: make(map[VertexID]HashKey, len(db.top.delta.kMap)),
		VGen: vidReorg(db.top.final.vGen),
	}
	for vid, vtx := range db.top.delta.sTab {
		if vtx == nil {
			res.STab[vid] = nil
		} else {
			res.STab[vid] = vtx.Dup()
		}
	}
	for vid, key := range db.top.delta.kMap {
		res.KMap[vid] = slices.Clone(key)
	}
	return res, nil
}

// reverseFilter computes the inverse of the given filter against the
// current backend state: applying the result un-does an application of the
// filter.
func (db *TrieDB) reverseFilter(filter *Filter) (*Filter, error) {
	if db.shared == nil || db.shared.be == nil {
		return nil, ErrBackendMissing
	}
	be := db.shared.be
	res := &Filter{
		Src:  slices.Clone(filter.Trg),
		Trg:  slices.Clone(filter.Src),
		STab: make(map[VertexID]Vertex, len(filter.STab)),
		KMap: make(map[VertexID]HashKey, len(filter.KMap)),
	}
	for vid := range filter.STab {
		vtx, err := be.GetVtx(vid)
		if err != nil {
			return nil, vidErr(vid, err)
		}
		res.STab[vid] = vtx
	}
	for vid := range filter.KMap {
		key, err := be.GetKey(vid)
		if err != nil {
			return nil, vidErr(vid, err)
		}
		res.KMap[vid] = key
	}
	vGen, err := be.GetIdg()
	if err != nil {
		return nil, err
	}
	res.VGen = vGen
	return res, nil
}
