// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package triedb implements a persistent authenticated key-value store
// organised as a Merkle Patricia Trie over 64-nibble paths, serving as the
// state backend of an Ethereum-family execution client.
//
// Trie vertices are addressed by dense 64-bit VertexIDs handed out by a
// recycling id generator. In-memory state is organised as a stack of
// copy-on-write layers supporting nested transactions with commit and
// rollback, plus a restricted execute mode replaying read-only actions
// against historical layers. Merkle keys (Keccak-256 digests, or embedded
// encodings for vertices below 32 bytes) are recomputed incrementally by
// the Hashify pass.
//
// Reconciliation with the durable backend goes through filters: reversible
// deltas between two trie states. On persist, the pending filter is flushed
// to the backend in one atomic batch while its reverse enters a cascaded
// FIFO journal, from which historical states can be replayed or reverted.
// Several descriptors may share one backend; exactly one of them, the
// centre, holds write permission.
package triedb
