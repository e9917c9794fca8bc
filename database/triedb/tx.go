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

// Transaction uids are drawn from a low range; the high range is reserved
// for the execute mode lock stamp, making locked state recognisable on
// every code path touching uids.
const txUidLock = uint64(1) << 62

// Tx is a handle on one open transaction of a trie database. Handles chain
// towards the base transaction via their parent pointer.
type Tx struct {
	db         *TrieDB
	parent     *Tx
	txUid      uint64
	stackIndex int
}

// isTop reports whether this handle refers to the current top transaction.
func (tx *Tx) isTop() bool {
	return tx.db.txRef == tx && tx.stackIndex == len(tx.db.stack)-1
}

// TxBegin opens a transaction by saving the current top layer onto the
// stack. Edits from now on accumulate in the new top until the transaction
// commits or rolls back.
func (db *TrieDB) TxBegin() (*Tx, error) {
	if db.txUidGen >= txUidLock {
		return nil, ErrTxExecBaseTxLocked
	}
	db.stack = append(db.stack, db.top.dup())
	db.txUidGen++
	db.top.txUid = db.txUidGen
	tx := &Tx{
		db:         db,
		parent:     db.txRef,
		txUid:      db.txUidGen,
		stackIndex: len(db.stack) - 1,
	}
	db.txRef = tx
	return tx, nil
}

// Commit accepts the edits of the top transaction: the saved layer beneath
// is superseded by the current top and discarded, and the parent handle
// becomes current.
func (tx *Tx) Commit() error {
	db := tx.db
	if tx.txUid >= txUidLock {
		return ErrTxExecBaseTxLocked
	}
	if !tx.isTop() {
		return ErrTxNotTopTx
	}
	if len(db.stack) == 0 {
		return ErrTxStackUnderflow
	}
	// The saved layer beneath is superseded by the current top.
	db.stack = db.stack[:len(db.stack)-1]
	if tx.parent != nil {
		db.top.txUid = tx.parent.txUid
	} else {
		db.top.txUid = 0
	}
	db.txRef = tx.parent
	tx.db = nil
	return nil
}

// Rollback discards the edits of the top transaction, restoring the top
// layer saved when it began. The parent handle becomes current.
func (tx *Tx) Rollback() error {
	db := tx.db
	if tx.txUid >= txUidLock {
		return ErrTxExecBaseTxLocked
	}
	if !tx.isTop() {
		return ErrTxNotTopTx
	}
	if len(db.stack) == 0 {
		return ErrTxStackUnderflow
	}
	db.top = db.stack[len(db.stack)-1]
	db.stack = db.stack[:len(db.stack)-1]
	if tx.parent != nil {
		db.top.txUid = tx.parent.txUid
	} else {
		db.top.txUid = 0
	}
	db.txRef = tx.parent
	tx.db = nil
	return nil
}

// Collapse winds the whole transaction chain down to the base in one step:
// with commit set, the current top becomes the new base state; without, the
// state saved by the base transaction is restored.
func (tx *Tx) Collapse(commit bool) error {
	db := tx.db
	if tx.txUid >= txUidLock {
		return ErrTxExecBaseTxLocked
	}
	if db == nil || db.txRef != tx || len(db.stack) == 0 {
		return ErrTxNotTopTx
	}
	if !commit {
		db.top = db.stack[0]
	}
	db.top.txUid = 0
	db.stack = db.stack[:0]
	db.txRef = nil
	tx.db = nil
	return nil
}

// dbSnapshot captures everything Execute must restore.
type dbSnapshot struct {
	top        *layer
	stack      []*layer
	txRef      *Tx
	txUidGen   uint64
	roFilter   *Filter
	roots      map[VertexID]struct{}
	proofRoots map[VertexID]HashKey
}

// Execute runs a read-only action against the historical state saved by
// the given transaction. The live stack is parked for the duration of the
// call, the layer and the uid generator are stamped with the high-range
// lock value, and any attempt of the action to commit, roll back, or
// persist is rejected. Whatever the action does or throws, the pre-call
// state is restored before Execute returns.
//
// Execute does not nest.
func (db *TrieDB) Execute(tx *Tx, action func(*TrieDB) error) error {
	if db.txUidGen >= txUidLock {
		return ErrTxExecNestingAttempt
	}
	if tx.db != db {
		return ErrTxStaleTx
	}

	snapshot := dbSnapshot{
		top:        db.top,
		stack:      db.stack,
		txRef:      db.txRef,
		txUidGen:   db.txUidGen,
		roFilter:   db.roFilter,
		roots:      db.roots,
		proofRoots: db.proofRoots,
	}

	// The action works on copies of the root sets, so roots it registers
	// or proof-locks are gone once the snapshot is restored.
	db.roots = make(map[VertexID]struct{}, len(snapshot.roots))
	for vid := range snapshot.roots {
		db.roots[vid] = struct{}{}
	}
	db.proofRoots = make(map[VertexID]HashKey, len(snapshot.proofRoots))
	for vid, key := range snapshot.proofRoots {
		db.proofRoots[vid] = key
	}

	if tx.isTop() {
		db.top = db.top.dup()
	} else {
		// Materialise the historical view saved when tx began.
		db.top = db.stack[tx.stackIndex].dup()
	}
	db.top.txUid = txUidLock
	db.txUidGen = txUidLock
	db.stack = []*layer{newLayer()}
	db.txRef = &Tx{db: db, txUid: txUidLock, stackIndex: 0}

	defer func() {
		db.top = snapshot.top
		db.stack = snapshot.stack
		db.txRef = snapshot.txRef
		db.txUidGen = snapshot.txUidGen
		db.roFilter = snapshot.roFilter
		db.roots = snapshot.roots
		db.proofRoots = snapshot.proofRoots
	}()

	return action(db)
}
