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

//go:generate mockgen -source backend.go -destination backend_mocks.go -package triedb -exclude_interfaces PutBatch

// VtxEntry is one vertex table update; a nil vertex removes the entry.
type VtxEntry struct {
	Vid VertexID
	Vtx Vertex
}

// KeyEntry is one key table update; a void key removes the entry.
type KeyEntry struct {
	Vid VertexID
	Key HashKey
}

// FilEntry is one journal slot update; a nil filter removes the slot.
type FilEntry struct {
	Qid    QueueID
	Filter *Filter
}

// PutBatch is an opaque handle for a pending batched write, produced by
// PutBeg and consumed by PutEnd.
type PutBatch interface{}

// Backend is the contract of a durable store below the trie database. It
// exposes point reads over the vertex, key, generator, and journal
// namespaces, batched atomic writes, and restartable in-order walkers.
//
// Mutating calls are gated by the centre invariant: only the descriptor
// holding write permission issues them.
type Backend interface {
	// GetVtx retrieves a vertex, or (nil, nil) if the id has no entry.
	GetVtx(vid VertexID) (Vertex, error)

	// GetKey retrieves a Merkle key, or the void key if the id has no entry.
	GetKey(vid VertexID) (HashKey, error)

	// GetIdg retrieves the persisted id generator sequence.
	GetIdg() ([]VertexID, error)

	// GetFil retrieves a journal filter, or (nil, nil) for an empty slot.
	GetFil(qid QueueID) (*Filter, error)

	// GetFqs retrieves the journal scheduler state, or (nil, nil) if none
	// was ever persisted.
	GetFqs() (*JournalState, error)

	// PutBeg opens a batched write. Updates staged on the returned handle
	// become visible atomically at PutEnd.
	PutBeg() (PutBatch, error)

	PutVtx(batch PutBatch, entries []VtxEntry) error
	PutKey(batch PutBatch, entries []KeyEntry) error
	PutIdg(batch PutBatch, vGen []VertexID) error
	PutFil(batch PutBatch, entries []FilEntry) error
	PutFqs(batch PutBatch, state *JournalState) error

	// PutEnd commits the staged batch atomically.
	PutEnd(batch PutBatch) error

	// WalkVtx enumerates the vertex namespace in ascending id order until
	// the visitor returns false.
	WalkVtx(visit func(VertexID, Vertex) bool) error

	// WalkKey enumerates the key namespace in ascending id order until the
	// visitor returns false.
	WalkKey(visit func(VertexID, HashKey) bool) error

	// WalkFil enumerates the journal namespace in ascending queue id order
	// until the visitor returns false.
	WalkFil(visit func(QueueID, *Filter) bool) error

	// Close releases the backend resources.
	Close() error
}
