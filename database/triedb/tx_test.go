package triedb

import (
	"errors"
	"fmt"
	"testing"
)

func TestTx_CommitKeepsOuterRollbackDropsInner(t *testing.T) {
	db := mustOpenMemoryDb(t)
	pathA := repeatedPath(0xaa)
	pathB := repeatedPath(0xbb)

	outer, err := db.TxBegin()
	if err != nil {
		t.Fatalf("cannot begin outer transaction: %v", err)
	}
	if err := db.MergePayload(RootVid, pathA, RawData{0x0a}); err != nil {
		t.Fatalf("cannot merge A: %v", err)
	}
	inner, err := db.TxBegin()
	if err != nil {
		t.Fatalf("cannot begin inner transaction: %v", err)
	}
	if err := db.MergePayload(RootVid, pathB, RawData{0x0b}); err != nil {
		t.Fatalf("cannot merge B: %v", err)
	}

	if err := inner.Rollback(); err != nil {
		t.Fatalf("cannot roll back inner transaction: %v", err)
	}
	if err := outer.Commit(); err != nil {
		t.Fatalf("cannot commit outer transaction: %v", err)
	}

	if found, _ := db.HasPath(RootVid, pathA); !found {
		t.Errorf("payload A lost by commit")
	}
	if found, _ := db.HasPath(RootVid, pathB); found {
		t.Errorf("payload B survived rollback")
	}
	if len(db.stack) != 0 {
		t.Errorf("invalid stack depth, got %d, wanted 0", len(db.stack))
	}
	if db.top.txUid != 0 {
		t.Errorf("invalid top uid, got %d, wanted 0", db.top.txUid)
	}
	if db.txRef != nil {
		t.Errorf("transaction chain not empty after commit")
	}
}

func TestTx_CommitRequiresTopTransaction(t *testing.T) {
	db := mustOpenMemoryDb(t)
	outer, err := db.TxBegin()
	if err != nil {
		t.Fatalf("cannot begin outer transaction: %v", err)
	}
	if _, err := db.TxBegin(); err != nil {
		t.Fatalf("cannot begin inner transaction: %v", err)
	}
	if err := outer.Commit(); !errors.Is(err, ErrTxNotTopTx) {
		t.Errorf("unexpected error, got %v, wanted %v", err, ErrTxNotTopTx)
	}
}

func TestTx_CollapseCommitKeepsTopState(t *testing.T) {
	db := mustOpenMemoryDb(t)
	base, err := db.TxBegin()
	if err != nil {
		t.Fatalf("cannot begin base transaction: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := db.TxBegin(); err != nil {
			t.Fatalf("cannot begin nested transaction %d: %v", i, err)
		}
		path := repeatedPath(byte(0x10 * (i + 1)))
		if err := db.MergePayload(RootVid, path, RawData{byte(i)}); err != nil {
			t.Fatalf("cannot merge in nested transaction %d: %v", i, err)
		}
	}
	// Only the newest handle may collapse the chain.
	if err := base.Collapse(true); !errors.Is(err, ErrTxNotTopTx) {
		t.Fatalf("stale handle accepted for collapse: %v", err)
	}
	if err := db.txRef.Collapse(true); err != nil {
		t.Fatalf("cannot collapse transaction chain: %v", err)
	}
	if len(db.stack) != 0 || db.txRef != nil || db.top.txUid != 0 {
		t.Errorf("collapse left transaction residue, stack=%d", len(db.stack))
	}
	for i := 0; i < 3; i++ {
		if found, _ := db.HasPath(RootVid, repeatedPath(byte(0x10*(i+1)))); !found {
			t.Errorf("payload of nested transaction %d lost by committing collapse", i)
		}
	}
}

func TestTx_CollapseRollbackRestoresBaseState(t *testing.T) {
	db := mustOpenMemoryDb(t)
	if err := db.MergePayload(RootVid, repeatedPath(0x01), RawData{0x01}); err != nil {
		t.Fatalf("cannot merge base payload: %v", err)
	}
	if _, err := db.TxBegin(); err != nil {
		t.Fatalf("cannot begin transaction: %v", err)
	}
	if _, err := db.TxBegin(); err != nil {
		t.Fatalf("cannot begin transaction: %v", err)
	}
	if err := db.MergePayload(RootVid, repeatedPath(0x02), RawData{0x02}); err != nil {
		t.Fatalf("cannot merge nested payload: %v", err)
	}
	if err := db.txRef.Collapse(false); err != nil {
		t.Fatalf("cannot collapse transaction chain: %v", err)
	}
	if found, _ := db.HasPath(RootVid, repeatedPath(0x01)); !found {
		t.Errorf("base payload lost by rollback collapse")
	}
	if found, _ := db.HasPath(RootVid, repeatedPath(0x02)); found {
		t.Errorf("nested payload survived rollback collapse")
	}
}

// captureState records the identity-level state Execute must restore.
type capturedState struct {
	top      *layer
	topCopy  *layer
	stackLen int
	txRef    *Tx
	txUidGen uint64
	roFilter *Filter
}

func captureState(db *TrieDB) capturedState {
	return capturedState{
		top:      db.top,
		topCopy:  db.top.dup(),
		stackLen: len(db.stack),
		txRef:    db.txRef,
		txUidGen: db.txUidGen,
		roFilter: db.roFilter,
	}
}

func (c *capturedState) verifyUnchanged(t *testing.T, db *TrieDB) {
	t.Helper()
	if db.top != c.top {
		t.Errorf("top layer replaced by execute")
	}
	if !db.top.equalContent(c.topCopy) {
		t.Errorf("top layer content changed by execute")
	}
	if len(db.stack) != c.stackLen {
		t.Errorf("invalid stack depth, got %d, wanted %d", len(db.stack), c.stackLen)
	}
	if db.txRef != c.txRef {
		t.Errorf("transaction chain changed by execute")
	}
	if db.txUidGen != c.txUidGen {
		t.Errorf("uid generator changed by execute, got %d, wanted %d", db.txUidGen, c.txUidGen)
	}
	if db.roFilter != c.roFilter {
		t.Errorf("read-only filter changed by execute")
	}
}

func TestTx_ExecuteReadsHistoricalStateAndRestores(t *testing.T) {
	db := mustOpenMemoryDb(t)
	if err := db.MergePayload(RootVid, repeatedPath(0x01), RawData{0x01}); err != nil {
		t.Fatalf("cannot merge base payload: %v", err)
	}
	base, err := db.TxBegin()
	if err != nil {
		t.Fatalf("cannot begin transaction: %v", err)
	}
	if err := db.MergePayload(RootVid, repeatedPath(0x02), RawData{0x02}); err != nil {
		t.Fatalf("cannot merge transactional payload: %v", err)
	}
	if _, err := db.TxBegin(); err != nil {
		t.Fatalf("cannot begin top transaction: %v", err)
	}
	if err := db.MergePayload(RootVid, repeatedPath(0x03), RawData{0x03}); err != nil {
		t.Fatalf("cannot merge top payload: %v", err)
	}

	snapshot := captureState(db)
	err = db.Execute(base, func(view *TrieDB) error {
		// The historical view is the state saved when base began: it
		// predates both transactional merges.
		if found, err := view.HasPath(RootVid, repeatedPath(0x01)); err != nil || !found {
			return fmt.Errorf("base payload not visible, found=%t err=%v", found, err)
		}
		for _, b := range []byte{0x02, 0x03} {
			if found, err := view.HasPath(RootVid, repeatedPath(b)); err != nil || found {
				return fmt.Errorf("transactional payload %x visible, found=%t err=%v", b, found, err)
			}
		}
		if err := view.Persist(); !errors.Is(err, ErrTxExecDirectiveLocked) {
			return fmt.Errorf("persist not locked, got %v", err)
		}
		if err := view.txRef.Commit(); !errors.Is(err, ErrTxExecBaseTxLocked) {
			return fmt.Errorf("commit not locked, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	snapshot.verifyUnchanged(t, db)
}

func TestTx_ExecuteRestoresOnActionError(t *testing.T) {
	db := mustOpenMemoryDb(t)
	tx, err := db.TxBegin()
	if err != nil {
		t.Fatalf("cannot begin transaction: %v", err)
	}
	if err := db.MergePayload(RootVid, repeatedPath(0x05), RawData{0x05}); err != nil {
		t.Fatalf("cannot merge: %v", err)
	}

	snapshot := captureState(db)
	boom := fmt.Errorf("action exploded")
	err = db.Execute(tx, func(view *TrieDB) error {
		// Scribble on the scratch state before failing.
		_ = view.MergePayload(RootVid, repeatedPath(0x06), RawData{0x06})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("action error not propagated, got %v", err)
	}
	snapshot.verifyUnchanged(t, db)
}

func TestTx_ExecuteDoesNotNest(t *testing.T) {
	db := mustOpenMemoryDb(t)
	tx, err := db.TxBegin()
	if err != nil {
		t.Fatalf("cannot begin transaction: %v", err)
	}
	err = db.Execute(tx, func(view *TrieDB) error {
		return view.Execute(view.txRef, func(*TrieDB) error { return nil })
	})
	if !errors.Is(err, ErrTxExecNestingAttempt) {
		t.Errorf("unexpected error, got %v, wanted %v", err, ErrTxExecNestingAttempt)
	}
}
