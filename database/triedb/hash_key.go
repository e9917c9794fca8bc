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
	"bytes"
	"fmt"

	"github.com/ravikantcool2023/nimbus-eth1/common"
	"github.com/ravikantcool2023/nimbus-eth1/database/triedb/rlp"
)

// HashKey is the Merkle key of a vertex. It is either the 32-byte
// Keccak-256 digest of the vertex encoding, or for vertices whose encoding
// is shorter than 32 bytes, that encoding itself, embedded verbatim.
// A zero-length key means the key is unknown and needs to be resolved.
type HashKey []byte

// VoidHashKey is the unknown/unresolved key.
var VoidHashKey = HashKey{}

// EmptyRootHashKey is the Merkle key of an empty trie, the Keccak-256
// digest of the RLP encoding of the empty string.
var EmptyRootHashKey = func() HashKey {
	hash := common.Keccak256(rlp.Encode(rlp.String{}))
	return HashKey(hash[:])
}()

// hashKeyFromEncoding derives the Merkle key of a vertex from its RLP
// encoding: short encodings are embedded, all others hashed.
func hashKeyFromEncoding(encoding []byte) HashKey {
	if len(encoding) < common.HashSize {
		return HashKey(bytes.Clone(encoding))
	}
	hash := common.Keccak256(encoding)
	return HashKey(hash[:])
}

// IsValid reports whether the key holds resolved content. Valid keys are
// either a full 32-byte digest or a 1..31-byte embedded encoding.
func (k HashKey) IsValid() bool {
	return len(k) > 0 && len(k) <= common.HashSize
}

// IsHash reports whether the key is a full 32-byte digest.
func (k HashKey) IsHash() bool {
	return len(k) == common.HashSize
}

// Equal compares two keys byte-wise.
func (k HashKey) Equal(other HashKey) bool {
	return bytes.Equal(k, other)
}

// ToHash converts a 32-byte key into a Hash. Embedded keys are hashed so
// that the result is a digest either way.
func (k HashKey) ToHash() common.Hash {
	if k.IsHash() {
		var res common.Hash
		copy(res[:], k)
		return res
	}
	return common.Keccak256(k)
}

func (k HashKey) String() string {
	if !k.IsValid() {
		return "ø"
	}
	if k.IsHash() {
		return fmt.Sprintf("%x", []byte(k[:4])) + ".."
	}
	return fmt.Sprintf("emb:%x", []byte(k))
}
