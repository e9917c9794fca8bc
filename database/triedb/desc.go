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
	"slices"
)

// DescHandle names a descriptor within the arena of descriptors sharing
// one backend. Handles break the reference cycles a descriptor graph with
// owning pointers would form.
type DescHandle uint64

// sharedBackend is the state shared by all descriptors reading through the
// same backend: the backend itself, the journal, and the descriptor arena
// with the centre designation. At most one descriptor, the centre, holds
// write permission.
type sharedBackend struct {
	be         Backend
	journal    *journal
	centre     DescHandle
	descs      map[DescHandle]*TrieDB
	nextHandle DescHandle
}

// TrieDB is one descriptor of the trie database: a layered in-memory view
// over a shared backend. All operations on a descriptor are synchronous
// and single-threaded; descriptors sharing a backend coordinate through
// the centre invariant only.
type TrieDB struct {
	config     Config
	handle     DescHandle
	shared     *sharedBackend
	top        *layer
	stack      []*layer
	txRef      *Tx
	txUidGen   uint64
	roFilter   *Filter
	roots      map[VertexID]struct{}
	proofRoots map[VertexID]HashKey
}

// New opens a trie database over the given backend. The opening descriptor
// becomes the centre.
func New(config Config, be Backend) (*TrieDB, error) {
	fqs, err := be.GetFqs()
	if err != nil {
		return nil, err
	}
	shared := &sharedBackend{
		be:         be,
		journal:    newJournal(config.JournalTiers, fqs, be),
		descs:      map[DescHandle]*TrieDB{},
		nextHandle: 1,
	}
	db, err := shared.newDesc(config)
	if err != nil {
		return nil, err
	}
	shared.centre = db.handle
	vGen, err := be.GetIdg()
	if err != nil {
		return nil, err
	}
	db.top.final.vGen = vGen
	return db, nil
}

// NewMemoryDatabase opens a throw-away trie database over a fresh
// in-memory backend.
func NewMemoryDatabase(config Config) (*TrieDB, error) {
	return New(config, NewMemoryBackend())
}

func (s *sharedBackend) newDesc(config Config) (*TrieDB, error) {
	db := &TrieDB{
		config:     config,
		handle:     s.nextHandle,
		shared:     s,
		top:        newLayer(),
		roots:      map[VertexID]struct{}{RootVid: {}},
		proofRoots: map[VertexID]HashKey{},
	}
	s.descs[db.handle] = db
	s.nextHandle++
	return db, nil
}

// IsCentre reports whether this descriptor holds the backend write
// permission.
func (db *TrieDB) IsCentre() bool {
	return db.shared != nil && db.shared.centre == db.handle
}

// ReCentre transfers the backend write permission to this descriptor.
func (db *TrieDB) ReCentre() {
	if db.shared != nil {
		db.shared.centre = db.handle
	}
}

// ForkTop creates a sibling descriptor observing the same state through
// the same backend. The sibling has no write permission until re-centred.
func (db *TrieDB) ForkTop() (*TrieDB, error) {
	if db.shared == nil {
		return nil, ErrBackendMissing
	}
	res, err := db.shared.newDesc(db.config)
	if err != nil {
		return nil, err
	}
	res.top = db.top.dup()
	res.top.txUid = 0
	if db.roFilter != nil {
		res.roFilter = db.roFilter.Dup()
	}
	for root := range db.roots {
		res.roots[root] = struct{}{}
	}
	return res, nil
}

// Fork creates a sibling descriptor observing the historical backend state
// the given number of persist episodes back, reconstructed by attaching
// the composed journal reversal as the sibling's read-only filter.
func (db *TrieDB) Fork(episode int) (*TrieDB, error) {
	if db.shared == nil {
		return nil, ErrBackendMissing
	}
	filter, err := db.shared.journal.fetch(episode)
	if err != nil {
		return nil, err
	}
	res, err := db.shared.newDesc(db.config)
	if err != nil {
		return nil, err
	}
	if filter != nil {
		res.roFilter = filter
		res.top.final.vGen = slices.Clone(filter.VGen)
	} else {
		vGen, err := db.shared.be.GetIdg()
		if err != nil {
			return nil, err
		}
		res.top.final.vGen = vGen
	}
	return res, nil
}

// RegisterRoot allocates and registers the root of an auxiliary sub-trie,
// e.g. the storage trie of an account.
func (db *TrieDB) RegisterRoot() VertexID {
	vid := db.allocVtx()
	db.roots[vid] = struct{}{}
	return vid
}

// LockAsProof locks the given ids against structural edits, recording the
// expected root key of the partial trie they came from. Hashify compares
// the recomputed root against that key.
func (db *TrieDB) LockAsProof(root VertexID, key HashKey, vids []VertexID) {
	for _, vid := range vids {
		db.top.final.pPrf[vid] = struct{}{}
	}
	db.proofRoots[root] = slices.Clone(key)
}

// Stow folds the top layer into the read-only filter without touching the
// backend: the layer is hashified, projected onto a forward filter, and
// merged in. Descriptors without write permission use this to keep their
// pending state compact until a centre flushes it.
func (db *TrieDB) Stow() error {
	if db.txUidGen >= txUidLock {
		return ErrTxExecDirectiveLocked
	}
	if len(db.stack) > 0 {
		return ErrTxPendingTx
	}
	if _, err := db.Hashify(); err != nil {
		return err
	}
	filter, err := db.assembleFilter()
	if err != nil {
		return err
	}
	if filter == nil {
		return nil
	}
	merged, err := MergeFilters(db.roFilter, filter)
	if err != nil {
		return err
	}
	db.roFilter = merged
	vGen := db.top.final.vGen
	db.top = newLayer()
	db.top.final.vGen = vGen
	return nil
}

// Persist makes the pending in-memory state durable: the top layer is
// stowed into the read-only filter, the filter's reverse is journaled, and
// filter, generator, journal, and scheduler state are committed to the
// backend in one atomic batch. Sibling descriptors are rebased so that
// they observe no visible change.
func (db *TrieDB) Persist() error {
	if db.txUidGen >= txUidLock {
		return ErrTxExecDirectiveLocked
	}
	if len(db.stack) > 0 {
		return ErrTxPendingTx
	}
	if db.shared == nil || db.shared.be == nil {
		return ErrBackendMissing
	}
	if !db.IsCentre() {
		return ErrBackendRoMode
	}
	if err := db.Stow(); err != nil {
		return err
	}
	filter := db.roFilter
	if filter == nil {
		return nil
	}

	// The reverse is needed twice: as the new journal head and to rebase
	// the sibling descriptors.
	reverse, err := db.reverseFilter(filter)
	if err != nil {
		return err
	}

	be := db.shared.be
	journal := db.shared.journal

	// The scheduler mutates in scratch; its pre-persist state comes back
	// should the batch not commit.
	schedUndo := journal.state.Dup()
	committed := false
	defer func() {
		if !committed {
			journal.state = schedUndo
		}
	}()

	var puts []FilEntry
	if journal.enabled() {
		newest, err := journal.newestFilter()
		if err != nil {
			return err
		}
		if filter.Equivalent(newest) {
			// The pending filter un-does the newest journal entry
			// byte-identically; revert the redundancy instead of
			// growing the journal.
			if puts, err = journal.deleteNewest(); err != nil {
				return err
			}
		} else {
			if puts, err = journal.store(reverse); err != nil {
				return err
			}
		}
	}

	// Assemble the sibling rebase filters in scratch first; they replace
	// the sibling state only after the batch committed.
	type rebase struct {
		desc   *TrieDB
		filter *Filter
	}
	rebases := make([]rebase, 0, len(db.shared.descs))
	for _, desc := range db.shared.descs {
		if desc == db {
			continue
		}
		merged, err := MergeFilters(reverse, desc.roFilter)
		if err != nil {
			return err
		}
		rebases = append(rebases, rebase{desc: desc, filter: merged})
	}

	batch, err := be.PutBeg()
	if err != nil {
		return err
	}
	vtxEntries := make([]VtxEntry, 0, len(filter.STab))
	for _, vid := range sortedVidKeys(filter.STab) {
		vtxEntries = append(vtxEntries, VtxEntry{Vid: vid, Vtx: filter.STab[vid]})
	}
	keyEntries := make([]KeyEntry, 0, len(filter.KMap))
	for _, vid := range sortedVidKeys(filter.KMap) {
		keyEntries = append(keyEntries, KeyEntry{Vid: vid, Key: filter.KMap[vid]})
	}
	if err := be.PutVtx(batch, vtxEntries); err != nil {
		return err
	}
	if err := be.PutKey(batch, keyEntries); err != nil {
		return err
	}
	if err := be.PutIdg(batch, vidReorg(filter.VGen)); err != nil {
		return err
	}
	if journal.enabled() {
		if err := be.PutFil(batch, puts); err != nil {
			return err
		}
		if err := be.PutFqs(batch, journal.state); err != nil {
			return err
		}
	}
	if err := be.PutEnd(batch); err != nil {
		return err
	}
	committed = true

	db.roFilter = nil
	db.top.final.vGen = vidReorg(filter.VGen)
	for _, r := range rebases {
		r.desc.roFilter = r.filter
	}
	return nil
}

// Close detaches the descriptor from the arena; the backend shuts down
// with the last descriptor.
func (db *TrieDB) Close() error {
	if db.shared == nil {
		return nil
	}
	shared := db.shared
	db.shared = nil
	delete(shared.descs, db.handle)
	if len(shared.descs) == 0 && shared.be != nil {
		return shared.be.Close()
	}
	return nil
}
