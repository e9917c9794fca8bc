package triedb

import (
	"bytes"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/holiman/uint256"
	"github.com/ravikantcool2023/nimbus-eth1/common"
)

// repeatedPath produces a full-length path of one repeated byte.
func repeatedPath(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func mustOpenMemoryDb(t *testing.T) *TrieDB {
	t.Helper()
	db, err := NewMemoryDatabase(DefaultConfig())
	if err != nil {
		t.Fatalf("cannot open database: %v", err)
	}
	return db
}

func TestTrie_InsertThreeAccountsAndComputeRoot(t *testing.T) {
	db := mustOpenMemoryDb(t)
	for _, b := range []byte{0x00, 0x11, 0x22} {
		if err := db.MergePayload(RootVid, repeatedPath(b), RawData{0xc0}); err != nil {
			t.Fatalf("cannot merge path %x: %v", b, err)
		}
	}

	// One branch at the root slot, three leaves drawn from the generator.
	if got, want := vidReorg(db.top.final.vGen), []VertexID{5}; !slices.Equal(got, want) {
		t.Errorf("invalid generator state, got %v, wanted %v", got, want)
	}

	root, err := db.Hashify()
	if err != nil {
		t.Fatalf("cannot hashify: %v", err)
	}
	if !root.IsHash() {
		t.Errorf("root of a three-way branch must be a full digest, got %v", root)
	}
	if root.Equal(EmptyRootHashKey) {
		t.Errorf("root of a populated trie must differ from the empty root")
	}

	vtx, err := db.getVtx(RootVid)
	if err != nil {
		t.Fatalf("cannot resolve root: %v", err)
	}
	if _, ok := vtx.(*BranchVertex); !ok {
		t.Errorf("invalid root vertex, got %v, wanted branch", vtx)
	}
}

func TestTrie_RootHashIsInsertOrderIndependent(t *testing.T) {
	paths := [][]byte{
		repeatedPath(0x00),
		repeatedPath(0x07),
		repeatedPath(0x11),
		repeatedPath(0x12),
		repeatedPath(0x13),
		repeatedPath(0xfe),
		repeatedPath(0xff),
	}

	var reference HashKey
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 5; round++ {
		db := mustOpenMemoryDb(t)
		order := rng.Perm(len(paths))
		for i, p := range order {
			if err := db.MergePayload(RootVid, paths[p], RawData{byte(0x80 + p)}); err != nil {
				t.Fatalf("cannot merge path %d in round %d: %v", i, round, err)
			}
		}
		root, err := db.Hashify()
		if err != nil {
			t.Fatalf("cannot hashify in round %d: %v", round, err)
		}
		if round == 0 {
			reference = root
			continue
		}
		if !root.Equal(reference) {
			t.Errorf("root differs between insertion orders, got %v, wanted %v", root, reference)
		}
	}
}

func TestTrie_UpdateRewritesOnlyTheLeaf(t *testing.T) {
	db := mustOpenMemoryDb(t)
	for _, b := range []byte{0x00, 0x11, 0x22} {
		if err := db.MergePayload(RootVid, repeatedPath(b), RawData{0xc0}); err != nil {
			t.Fatalf("cannot merge path %x: %v", b, err)
		}
	}
	rootBefore, err := db.Hashify()
	if err != nil {
		t.Fatalf("cannot hashify: %v", err)
	}
	vGenBefore := slices.Clone(db.top.final.vGen)
	vtxBefore := map[VertexID]Vertex{}
	for vid, vtx := range db.top.delta.sTab {
		vtxBefore[vid] = vtx
	}

	if err := db.MergePayload(RootVid, repeatedPath(0x00), RawData{0xc1}); err != nil {
		t.Fatalf("cannot update payload: %v", err)
	}

	changed := 0
	for vid, vtx := range db.top.delta.sTab {
		if !VertexEqual(vtx, vtxBefore[vid]) {
			changed++
			if _, ok := vtx.(*LeafVertex); !ok {
				t.Errorf("non-leaf vertex %v rewritten by payload update", vid)
			}
		}
	}
	if changed != 1 {
		t.Errorf("invalid number of rewritten vertices, got %d, wanted 1", changed)
	}
	if !slices.Equal(db.top.final.vGen, vGenBefore) {
		t.Errorf("generator state changed, got %v, wanted %v", db.top.final.vGen, vGenBefore)
	}

	rootAfter, err := db.Hashify()
	if err != nil {
		t.Fatalf("cannot hashify after update: %v", err)
	}
	if rootAfter.Equal(rootBefore) {
		t.Errorf("root hash did not change on payload update")
	}
}

func TestTrie_DuplicateInsertIsReportedAsCached(t *testing.T) {
	db := mustOpenMemoryDb(t)
	if err := db.MergePayload(RootVid, repeatedPath(0x00), RawData{0xc0}); err != nil {
		t.Fatalf("cannot merge: %v", err)
	}
	err := db.MergePayload(RootVid, repeatedPath(0x00), RawData{0xc0})
	if !errors.Is(err, ErrMergeLeafPathCachedAlready) {
		t.Errorf("unexpected error, got %v, wanted %v", err, ErrMergeLeafPathCachedAlready)
	}
}

func TestTrie_DeleteToEmpty(t *testing.T) {
	db := mustOpenMemoryDb(t)
	for _, b := range []byte{0x00, 0x11, 0x22} {
		if err := db.MergePayload(RootVid, repeatedPath(b), RawData{0xc0}); err != nil {
			t.Fatalf("cannot merge path %x: %v", b, err)
		}
	}
	for _, b := range []byte{0x00, 0x11, 0x22} {
		if err := db.DeletePayload(RootVid, repeatedPath(b)); err != nil {
			t.Fatalf("cannot delete path %x: %v", b, err)
		}
	}

	if got, want := vidReorg(db.top.final.vGen), []VertexID{RootVid}; !slices.Equal(got, want) {
		t.Errorf("invalid generator state, got %v, wanted %v", got, want)
	}
	root, err := db.Hashify()
	if err != nil {
		t.Fatalf("cannot hashify empty trie: %v", err)
	}
	if !root.Equal(EmptyRootHashKey) {
		t.Errorf("invalid empty root, got %v, wanted %v", root, EmptyRootHashKey)
	}
	if found, err := db.HasPath(RootVid, repeatedPath(0x11)); err != nil || found {
		t.Errorf("deleted path still resolves, found=%t err=%v", found, err)
	}
}

func TestTrie_MergeAndDeleteAreInverse(t *testing.T) {
	paths := [][]byte{
		repeatedPath(0x00),
		repeatedPath(0x01),
		repeatedPath(0x10),
		repeatedPath(0x21),
		repeatedPath(0xab),
		repeatedPath(0xba),
	}
	rng := rand.New(rand.NewSource(99))
	for round := 0; round < 5; round++ {
		db := mustOpenMemoryDb(t)
		for i, path := range paths {
			if err := db.MergePayload(RootVid, path, RawData{byte(i + 1)}); err != nil {
				t.Fatalf("cannot merge path %d: %v", i, err)
			}
		}
		for _, p := range rng.Perm(len(paths)) {
			if err := db.DeletePayload(RootVid, paths[p]); err != nil {
				t.Fatalf("cannot delete path %d in round %d: %v", p, round, err)
			}
		}
		if got, want := vidReorg(db.top.final.vGen), []VertexID{RootVid}; !slices.Equal(got, want) {
			t.Errorf("generator not canonical after round %d, got %v, wanted %v", round, got, want)
		}
		root, err := db.Hashify()
		if err != nil {
			t.Fatalf("cannot hashify in round %d: %v", round, err)
		}
		if !root.Equal(EmptyRootHashKey) {
			t.Errorf("trie not empty after round %d, got root %v", round, root)
		}
	}
}

func TestTrie_DeleteMissingPathFails(t *testing.T) {
	db := mustOpenMemoryDb(t)
	if err := db.MergePayload(RootVid, repeatedPath(0x00), RawData{0xc0}); err != nil {
		t.Fatalf("cannot merge: %v", err)
	}
	if err := db.DeletePayload(RootVid, repeatedPath(0x33)); !errors.Is(err, ErrDelPathNotFound) {
		t.Errorf("unexpected error, got %v, wanted %v", err, ErrDelPathNotFound)
	}
}

func TestTrie_FetchPayloadReadsThroughLayers(t *testing.T) {
	db := mustOpenMemoryDb(t)
	if err := db.MergePayload(RootVid, repeatedPath(0x42), RawData{0x07}); err != nil {
		t.Fatalf("cannot merge: %v", err)
	}
	payload, err := db.FetchPayload(RootVid, repeatedPath(0x42))
	if err != nil {
		t.Fatalf("cannot fetch payload: %v", err)
	}
	if !payload.Equal(RawData{0x07}) {
		t.Errorf("invalid payload, got %v, wanted raw:07", payload)
	}
	if _, err := db.FetchPayload(RootVid, repeatedPath(0x43)); !errors.Is(err, ErrGetPathNotFound) {
		t.Errorf("unexpected error, got %v, wanted %v", err, ErrGetPathNotFound)
	}
}

func TestTrie_AccountWithStorageSubTrie(t *testing.T) {
	db := mustOpenMemoryDb(t)

	storageRoot := db.RegisterRoot()
	if err := db.MergePayload(storageRoot, repeatedPath(0x01), StorageData{0x12, 0x34}); err != nil {
		t.Fatalf("cannot merge storage slot: %v", err)
	}

	account := &AccountData{
		Nonce:     7,
		Balance:   *uint256.NewInt(1000),
		StorageID: storageRoot,
		CodeHash:  common.Keccak256([]byte{}),
	}
	if err := db.MergePayload(RootVid, repeatedPath(0xaa), account); err != nil {
		t.Fatalf("cannot merge account: %v", err)
	}

	rootWithStorage, err := db.Hashify()
	if err != nil {
		t.Fatalf("cannot hashify: %v", err)
	}

	// Changing a storage slot must propagate into the state root.
	if err := db.MergePayload(storageRoot, repeatedPath(0x01), StorageData{0x56, 0x78}); err != nil {
		t.Fatalf("cannot update storage slot: %v", err)
	}
	db.invalidateAccountAt(t, repeatedPath(0xaa))
	rootUpdated, err := db.Hashify()
	if err != nil {
		t.Fatalf("cannot hashify after storage update: %v", err)
	}
	if rootUpdated.Equal(rootWithStorage) {
		t.Errorf("state root did not change on storage update")
	}
}

// invalidateAccountAt voids the Merkle keys along the account path, the way
// an account update through the outer state layer would.
func (db *TrieDB) invalidateAccountAt(t *testing.T, path []byte) {
	t.Helper()
	hike, err := db.hikeUp(RootVid, nibblesFromBytes(path))
	if err != nil {
		t.Fatalf("cannot walk account path: %v", err)
	}
	db.invalidateKeys(hike)
}

func TestTrie_DeleteSubTree(t *testing.T) {
	db := mustOpenMemoryDb(t)
	sub := db.RegisterRoot()
	for _, b := range []byte{0x00, 0x11, 0x22, 0x33} {
		if err := db.MergePayload(sub, repeatedPath(b), StorageData{b}); err != nil {
			t.Fatalf("cannot merge slot %x: %v", b, err)
		}
	}
	if err := db.DeleteSubTree(sub); err != nil {
		t.Fatalf("cannot delete sub-trie: %v", err)
	}
	if vtx, err := db.getVtx(sub); err != nil || vtx != nil {
		t.Errorf("sub-trie root still resolves, vtx=%v err=%v", vtx, err)
	}
}

func TestTrie_DeleteSubTreeRespectsSizeBound(t *testing.T) {
	config := DefaultConfig()
	config.DelSubTreeLimit = 2
	db, err := New(config, NewMemoryBackend())
	if err != nil {
		t.Fatalf("cannot open database: %v", err)
	}
	for _, b := range []byte{0x00, 0x11, 0x22, 0x33} {
		if err := db.MergePayload(RootVid, repeatedPath(b), RawData{b}); err != nil {
			t.Fatalf("cannot merge path %x: %v", b, err)
		}
	}
	if err := db.DeleteSubTree(RootVid); !errors.Is(err, ErrDelSubTreeTooBig) {
		t.Errorf("unexpected error, got %v, wanted %v", err, ErrDelSubTreeTooBig)
	}
}

func TestTrie_ProofLockedVerticesRejectEdits(t *testing.T) {
	db := mustOpenMemoryDb(t)
	if err := db.MergePayload(RootVid, repeatedPath(0x00), RawData{0xc0}); err != nil {
		t.Fatalf("cannot merge: %v", err)
	}
	root, err := db.Hashify()
	if err != nil {
		t.Fatalf("cannot hashify: %v", err)
	}
	db.LockAsProof(RootVid, root, []VertexID{RootVid})

	if err := db.MergePayload(RootVid, repeatedPath(0x00), RawData{0xc1}); !errors.Is(err, ErrMergeLeafProofModeLock) {
		t.Errorf("unexpected merge error, got %v, wanted %v", err, ErrMergeLeafProofModeLock)
	}
	if err := db.DeletePayload(RootVid, repeatedPath(0x00)); !errors.Is(err, ErrDelLeafLocked) {
		t.Errorf("unexpected delete error, got %v, wanted %v", err, ErrDelLeafLocked)
	}
}

func TestTrie_MergeIntoUnregisteredRootFails(t *testing.T) {
	db := mustOpenMemoryDb(t)
	if err := db.MergePayload(VertexID(77), repeatedPath(0x00), RawData{0x01}); !errors.Is(err, ErrMergeRootMissing) {
		t.Errorf("unexpected error, got %v, wanted %v", err, ErrMergeRootMissing)
	}
}

func TestTrie_DeepDivergenceSplitsAtLastNibble(t *testing.T) {
	db := mustOpenMemoryDb(t)
	a := repeatedPath(0x11)
	b := slices.Clone(a)
	b[31] = 0x12 // diverges at the very last nibble
	if err := db.MergePayload(RootVid, a, RawData{0x01}); err != nil {
		t.Fatalf("cannot merge first path: %v", err)
	}
	if err := db.MergePayload(RootVid, b, RawData{0x02}); err != nil {
		t.Fatalf("cannot merge second path: %v", err)
	}
	if _, err := db.Hashify(); err != nil {
		t.Fatalf("cannot hashify deep split: %v", err)
	}
	for _, check := range []struct {
		path []byte
		want Payload
	}{{a, RawData{0x01}}, {b, RawData{0x02}}} {
		payload, err := db.FetchPayload(RootVid, check.path)
		if err != nil {
			t.Fatalf("cannot fetch path %x: %v", check.path[31], err)
		}
		if !payload.Equal(check.want) {
			t.Errorf("invalid payload, got %v, wanted %v", payload, check.want)
		}
	}
	if err := db.DeletePayload(RootVid, a); err != nil {
		t.Fatalf("cannot delete first path: %v", err)
	}
	payload, err := db.FetchPayload(RootVid, b)
	if err != nil || !payload.Equal(RawData{0x02}) {
		t.Errorf("second path damaged by delete, payload=%v err=%v", payload, err)
	}
}
