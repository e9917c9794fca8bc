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
	"slices"

	"github.com/holiman/uint256"
	"github.com/ravikantcool2023/nimbus-eth1/common"
)

// Vertex is a single node of the trie. There are three kinds of vertices:
//
//   - leaf vertices terminating a path and holding a payload
//   - extension vertices covering a run of nibbles shared by all paths below
//   - branch vertices fanning out into up to 16 children
//
// Vertices are value types addressed by VertexID; an unset child id (zero)
// marks an absent edge.
type Vertex interface {
	// Dup produces a deep copy of the vertex.
	Dup() Vertex

	// Check verifies the structural invariants of the vertex.
	Check() error

	fmt.Stringer
}

// LeafVertex terminates a trie path. Its prefix holds the tail of the path
// not consumed by the vertices above it.
type LeafVertex struct {
	Prefix  []Nibble
	Payload Payload
}

// ExtensionVertex covers a run of nibbles shared by all paths below it.
type ExtensionVertex struct {
	Prefix []Nibble
	Child  VertexID
}

// BranchVertex fans out into up to 16 children, one per nibble value.
type BranchVertex struct {
	Children [16]VertexID
}

func (v *LeafVertex) Dup() Vertex {
	return &LeafVertex{
		Prefix:  slices.Clone(v.Prefix),
		Payload: v.Payload.Dup(),
	}
}

func (v *LeafVertex) Check() error {
	if len(v.Prefix) > pathLength {
		return fmt.Errorf("leaf path prefix too long")
	}
	if v.Payload == nil {
		return fmt.Errorf("leaf without payload")
	}
	return nil
}

func (v *LeafVertex) String() string {
	return fmt.Sprintf("L(%s,%v)", nibblesToString(v.Prefix), v.Payload)
}

func (v *ExtensionVertex) Dup() Vertex {
	return &ExtensionVertex{
		Prefix: slices.Clone(v.Prefix),
		Child:  v.Child,
	}
}

func (v *ExtensionVertex) Check() error {
	if len(v.Prefix) == 0 {
		return fmt.Errorf("extension with empty path prefix")
	}
	if v.Child == 0 {
		return fmt.Errorf("extension without child")
	}
	return nil
}

func (v *ExtensionVertex) String() string {
	return fmt.Sprintf("X(%s,%v)", nibblesToString(v.Prefix), v.Child)
}

func (v *BranchVertex) Dup() Vertex {
	res := &BranchVertex{}
	res.Children = v.Children
	return res
}

func (v *BranchVertex) Check() error {
	if v.CountChildren() < 2 {
		return fmt.Errorf("branch with less than two children")
	}
	return nil
}

// CountChildren returns the number of set child edges.
func (v *BranchVertex) CountChildren() int {
	res := 0
	for _, child := range v.Children {
		if child != 0 {
			res++
		}
	}
	return res
}

// SoleChild returns the single remaining child edge of the branch. The
// boolean result is false if the branch has none or more than one.
func (v *BranchVertex) SoleChild() (Nibble, VertexID, bool) {
	var nibble Nibble
	var vid VertexID
	count := 0
	for i, child := range v.Children {
		if child != 0 {
			nibble, vid = Nibble(i), child
			count++
		}
	}
	return nibble, vid, count == 1
}

func (v *BranchVertex) String() string {
	builder := bytes.Buffer{}
	builder.WriteString("B(")
	first := true
	for i, child := range v.Children {
		if child == 0 {
			continue
		}
		if !first {
			builder.WriteString(",")
		}
		first = false
		builder.WriteString(fmt.Sprintf("%s:%v", Nibble(i), child))
	}
	builder.WriteString(")")
	return builder.String()
}

// VertexEqual compares two vertices structurally. Either side may be nil.
func VertexEqual(a, b Vertex) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch va := a.(type) {
	case *LeafVertex:
		vb, ok := b.(*LeafVertex)
		return ok && sameNibbles(va.Prefix, vb.Prefix) && va.Payload.Equal(vb.Payload)
	case *ExtensionVertex:
		vb, ok := b.(*ExtensionVertex)
		return ok && sameNibbles(va.Prefix, vb.Prefix) && va.Child == vb.Child
	case *BranchVertex:
		vb, ok := b.(*BranchVertex)
		return ok && va.Children == vb.Children
	}
	return false
}

// ----------------------------------------------------------------------------
//                                 Payloads
// ----------------------------------------------------------------------------

// Payload is the content stored in a leaf vertex.
type Payload interface {
	// Equal compares two payloads semantically.
	Equal(Payload) bool

	// Dup produces a deep copy of the payload.
	Dup() Payload

	fmt.Stringer
}

// RawData is an opaque, pre-encoded payload stored as given.
type RawData []byte

// StorageData is a storage slot value of an account sub-trie.
type StorageData []byte

// AccountData is the payload of an account leaf in the primary state trie.
// If StorageID is set, a storage sub-trie rooted at that vertex holds the
// account's slots.
type AccountData struct {
	Nonce     uint64
	Balance   uint256.Int
	StorageID VertexID
	CodeHash  common.Hash
}

func (p RawData) Equal(other Payload) bool {
	o, ok := other.(RawData)
	return ok && bytes.Equal(p, o)
}

func (p RawData) Dup() Payload {
	return RawData(bytes.Clone(p))
}

func (p RawData) String() string {
	return fmt.Sprintf("raw:%x", []byte(p))
}

func (p StorageData) Equal(other Payload) bool {
	o, ok := other.(StorageData)
	return ok && bytes.Equal(p, o)
}

func (p StorageData) Dup() Payload {
	return StorageData(bytes.Clone(p))
}

func (p StorageData) String() string {
	return fmt.Sprintf("slot:%x", []byte(p))
}

func (p *AccountData) Equal(other Payload) bool {
	o, ok := other.(*AccountData)
	return ok && p.Nonce == o.Nonce && p.Balance.Eq(&o.Balance) &&
		p.StorageID == o.StorageID && p.CodeHash == o.CodeHash
}

func (p *AccountData) Dup() Payload {
	res := *p
	return &res
}

func (p *AccountData) String() string {
	return fmt.Sprintf("acc:{nonce:%d,balance:%v,storage:%v}", p.Nonce, p.Balance.String(), p.StorageID)
}
