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

	"github.com/ravikantcool2023/nimbus-eth1/common"
)

// All failure kinds of the trie engine, grouped by subsystem. Kinds are
// comparable constants so that callers can test them with errors.Is. Public
// operations wrap the kind together with the most specific vertex id
// implicated into a VidError.

// Codec failures.
const (
	ErrDecodeTooShort    = common.ConstError("decode: record too short")
	ErrDecodeSizeGarbled = common.ConstError("decode: record size garbled")
	ErrDecodeWrongType   = common.ConstError("decode: wrong record type")
	ErrDecodeOverflow    = common.ConstError("decode: record overflow")
)

// Path walker failures.
const (
	ErrHikeEmptyPath         = common.ConstError("hike: empty path")
	ErrHikeRootMissing       = common.ConstError("hike: root vertex missing")
	ErrHikeBranchMissingEdge = common.ConstError("hike: no branch edge for nibble")
	ErrHikeExtTailMismatch   = common.ConstError("hike: extension prefix does not match tail")
	ErrHikeLeafUnexpected    = common.ConstError("hike: leaf with diverging path")
)

// Merge failures.
const (
	ErrMergeRootMissing          = common.ConstError("merge: root vertex missing")
	ErrMergeLeafPathCachedAlready = common.ConstError("merge: leaf path cached already")
	ErrMergeLeafPathOnBackendAlready = common.ConstError("merge: leaf path on backend already")
	ErrMergeBranchLinkLockedKey  = common.ConstError("merge: branch link locked by proof")
	ErrMergeLeafProofModeLock    = common.ConstError("merge: leaf locked by proof mode")
	ErrMergeAssemblyFailed       = common.ConstError("merge: vertex assembly failed")
)

// Delete failures.
const (
	ErrDelPathNotFound  = common.ConstError("delete: path not found")
	ErrDelLeafLocked    = common.ConstError("delete: leaf locked by proof mode")
	ErrDelBranchLocked  = common.ConstError("delete: branch locked by proof mode")
	ErrDelSubTreeTooBig = common.ConstError("delete: sub-trie exceeds size bound")
	ErrDelRootMissing   = common.ConstError("delete: root vertex missing")
)

// Hashify failures.
const (
	ErrHashifyVtxUnresolved      = common.ConstError("hashify: unresolved vertex dependency")
	ErrHashifyProofHashMismatch  = common.ConstError("hashify: proof root hash mismatch")
	ErrHashifyRootMissing        = common.ConstError("hashify: root vertex missing")
)

// Transaction failures.
const (
	ErrTxNotTopTx           = common.ConstError("tx: not the top transaction")
	ErrTxStackUnderflow     = common.ConstError("tx: layer stack underflow")
	ErrTxStaleTx            = common.ConstError("tx: stale transaction handle")
	ErrTxExecNestingAttempt = common.ConstError("tx: nested execute attempt")
	ErrTxExecBaseTxLocked   = common.ConstError("tx: base transaction locked by execute")
	ErrTxExecDirectiveLocked = common.ConstError("tx: directive locked by execute")
	ErrTxPendingTx          = common.ConstError("tx: transactions still pending")
)

// Filter and journal failures.
const (
	ErrFilTrgSrcMismatch    = common.ConstError("filter: target/source root mismatch")
	ErrFilStateRootMismatch = common.ConstError("filter: state root mismatch")
	ErrFilBackStepsExpected = common.ConstError("filter: journal depth exhausted")
	ErrFilQuSchedDisabled   = common.ConstError("filter: journal scheduler disabled")
	ErrFilFilterNotFound    = common.ConstError("filter: no journal entry for filter id")
)

// Backend access failures.
const (
	ErrGetPathNotFound = common.ConstError("get: path not found")
	ErrGetVtxNotFound = common.ConstError("get: vertex not found")
	ErrGetKeyNotFound = common.ConstError("get: key not found")
	ErrGetIdgNotFound = common.ConstError("get: id generator state not found")
	ErrGetFilNotFound = common.ConstError("get: filter not found")
	ErrGetFqsNotFound = common.ConstError("get: scheduler state not found")
	ErrBackendMissing = common.ConstError("backend: not attached")
	ErrBackendRoMode  = common.ConstError("backend: descriptor has no write permission")
)

// Consistency checker failures.
const (
	ErrCheckBeKeyMissing    = common.ConstError("check: backend key missing for vertex")
	ErrCheckBeKeyMismatch   = common.ConstError("check: backend key differs from recomputation")
	ErrCheckBeGarbledVGen   = common.ConstError("check: backend id generator garbled")
	ErrCheckBeVtxInvalid    = common.ConstError("check: backend vertex violates invariants")
)

// VidError attaches the most specific vertex id implicated in a failure to
// the failure kind.
type VidError struct {
	Vid VertexID
	Err error
}

func (e *VidError) Error() string {
	if e.Vid == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: vtx %v", e.Err, e.Vid)
}

func (e *VidError) Unwrap() error {
	return e.Err
}

// vidErr wraps a failure kind with its vertex id context.
func vidErr(vid VertexID, err error) error {
	return &VidError{Vid: vid, Err: err}
}
