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

// memoryBackend keeps all namespaces in plain maps. It is the backend of
// choice for tests and for throw-away database instances.
type memoryBackend struct {
	vtx  map[VertexID]Vertex
	key  map[VertexID]HashKey
	idg  []VertexID
	fil  map[QueueID]*Filter
	fqs  *JournalState
	open bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() Backend {
	return &memoryBackend{
		vtx:  map[VertexID]Vertex{},
		key:  map[VertexID]HashKey{},
		fil:  map[QueueID]*Filter{},
		open: true,
	}
}

// memoryBatch stages updates until PutEnd applies them in one step.
type memoryBatch struct {
	vtx []VtxEntry
	key []KeyEntry
	idg []VertexID
	fil []FilEntry
	fqs *JournalState
	put bool // idg staged
	sch bool // fqs staged
}

func (m *memoryBackend) GetVtx(vid VertexID) (Vertex, error) {
	if vtx, ok := m.vtx[vid]; ok {
		return vtx.Dup(), nil
	}
	return nil, nil
}

func (m *memoryBackend) GetKey(vid VertexID) (HashKey, error) {
	if key, ok := m.key[vid]; ok {
		return slices.Clone(key), nil
	}
	return VoidHashKey, nil
}

func (m *memoryBackend) GetIdg() ([]VertexID, error) {
	return slices.Clone(m.idg), nil
}

func (m *memoryBackend) GetFil(qid QueueID) (*Filter, error) {
	if filter, ok := m.fil[qid]; ok {
		return filter.Dup(), nil
	}
	return nil, nil
}

func (m *memoryBackend) GetFqs() (*JournalState, error) {
	if m.fqs == nil {
		return nil, nil
	}
	return m.fqs.Dup(), nil
}

func (m *memoryBackend) PutBeg() (PutBatch, error) {
	if !m.open {
		return nil, ErrBackendMissing
	}
	return &memoryBatch{}, nil
}

func (m *memoryBackend) PutVtx(batch PutBatch, entries []VtxEntry) error {
	b, err := m.batchOf(batch)
	if err != nil {
		return err
	}
	b.vtx = append(b.vtx, entries...)
	return nil
}

func (m *memoryBackend) PutKey(batch PutBatch, entries []KeyEntry) error {
	b, err := m.batchOf(batch)
	if err != nil {
		return err
	}
	b.key = append(b.key, entries...)
	return nil
}

func (m *memoryBackend) PutIdg(batch PutBatch, vGen []VertexID) error {
	b, err := m.batchOf(batch)
	if err != nil {
		return err
	}
	b.idg = slices.Clone(vGen)
	b.put = true
	return nil
}

func (m *memoryBackend) PutFil(batch PutBatch, entries []FilEntry) error {
	b, err := m.batchOf(batch)
	if err != nil {
		return err
	}
	b.fil = append(b.fil, entries...)
	return nil
}

func (m *memoryBackend) PutFqs(batch PutBatch, state *JournalState) error {
	b, err := m.batchOf(batch)
	if err != nil {
		return err
	}
	b.fqs = state.Dup()
	b.sch = true
	return nil
}

func (m *memoryBackend) PutEnd(batch PutBatch) error {
	b, err := m.batchOf(batch)
	if err != nil {
		return err
	}
	for _, entry := range b.vtx {
		if entry.Vtx == nil {
			delete(m.vtx, entry.Vid)
		} else {
			m.vtx[entry.Vid] = entry.Vtx.Dup()
		}
	}
	for _, entry := range b.key {
		if !entry.Key.IsValid() {
			delete(m.key, entry.Vid)
		} else {
			m.key[entry.Vid] = slices.Clone(entry.Key)
		}
	}
	if b.put {
		m.idg = b.idg
	}
	for _, entry := range b.fil {
		if entry.Filter == nil {
			delete(m.fil, entry.Qid)
		} else {
			m.fil[entry.Qid] = entry.Filter.Dup()
		}
	}
	if b.sch {
		m.fqs = b.fqs
	}
	return nil
}

func (m *memoryBackend) WalkVtx(visit func(VertexID, Vertex) bool) error {
	for _, vid := range sortedVidKeys(m.vtx) {
		if !visit(vid, m.vtx[vid].Dup()) {
			return nil
		}
	}
	return nil
}

func (m *memoryBackend) WalkKey(visit func(VertexID, HashKey) bool) error {
	for _, vid := range sortedVidKeys(m.key) {
		if !visit(vid, slices.Clone(m.key[vid])) {
			return nil
		}
	}
	return nil
}

func (m *memoryBackend) WalkFil(visit func(QueueID, *Filter) bool) error {
	qids := make([]QueueID, 0, len(m.fil))
	for qid := range m.fil {
		qids = append(qids, qid)
	}
	slices.Sort(qids)
	for _, qid := range qids {
		if !visit(qid, m.fil[qid].Dup()) {
			return nil
		}
	}
	return nil
}

func (m *memoryBackend) Close() error {
	m.open = false
	return nil
}

func (m *memoryBackend) batchOf(batch PutBatch) (*memoryBatch, error) {
	if b, ok := batch.(*memoryBatch); ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: foreign batch handle", ErrBackendMissing)
}
