package triedb

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestVertex_CheckInvariants(t *testing.T) {
	tests := []struct {
		name string
		vtx  Vertex
		ok   bool
	}{
		{"leaf", &LeafVertex{Prefix: []Nibble{1}, Payload: RawData{1}}, true},
		{"leaf-deep-split", &LeafVertex{Prefix: []Nibble{}, Payload: RawData{1}}, true},
		{"leaf-no-payload", &LeafVertex{Prefix: []Nibble{1}}, false},
		{"leaf-overlong", &LeafVertex{Prefix: make([]Nibble, pathLength+1), Payload: RawData{1}}, false},
		{"extension", &ExtensionVertex{Prefix: []Nibble{1}, Child: 2}, true},
		{"extension-empty-prefix", &ExtensionVertex{Prefix: nil, Child: 2}, false},
		{"extension-no-child", &ExtensionVertex{Prefix: []Nibble{1}}, false},
		{"branch", &BranchVertex{Children: [16]VertexID{2, 3}}, true},
		{"branch-single-child", &BranchVertex{Children: [16]VertexID{2}}, false},
		{"branch-empty", &BranchVertex{}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := test.vtx.Check(); (err == nil) != test.ok {
				t.Errorf("invalid check result, got %v, wanted ok=%t", err, test.ok)
			}
		})
	}
}

func TestVertex_DupDecouplesContent(t *testing.T) {
	leaf := &LeafVertex{Prefix: []Nibble{1, 2}, Payload: RawData{7}}
	copied := leaf.Dup().(*LeafVertex)
	copied.Prefix[0] = 9
	if leaf.Prefix[0] != 1 {
		t.Errorf("dup shares prefix storage with original")
	}
}

func TestVertex_Equal(t *testing.T) {
	account := &AccountData{Nonce: 1, Balance: *uint256.NewInt(5)}
	tests := []struct {
		name  string
		a, b  Vertex
		equal bool
	}{
		{"nil-nil", nil, nil, true},
		{"nil-leaf", nil, &LeafVertex{Prefix: []Nibble{1}, Payload: RawData{1}}, false},
		{"same-leaf",
			&LeafVertex{Prefix: []Nibble{1}, Payload: RawData{1}},
			&LeafVertex{Prefix: []Nibble{1}, Payload: RawData{1}}, true},
		{"different-payload",
			&LeafVertex{Prefix: []Nibble{1}, Payload: RawData{1}},
			&LeafVertex{Prefix: []Nibble{1}, Payload: RawData{2}}, false},
		{"payload-kind",
			&LeafVertex{Prefix: []Nibble{1}, Payload: RawData{1}},
			&LeafVertex{Prefix: []Nibble{1}, Payload: StorageData{1}}, false},
		{"account-leaf",
			&LeafVertex{Prefix: []Nibble{1}, Payload: account},
			&LeafVertex{Prefix: []Nibble{1}, Payload: account.Dup()}, true},
		{"same-branch",
			&BranchVertex{Children: [16]VertexID{2, 3}},
			&BranchVertex{Children: [16]VertexID{2, 3}}, true},
		{"kind-mismatch",
			&BranchVertex{Children: [16]VertexID{2, 3}},
			&ExtensionVertex{Prefix: []Nibble{1}, Child: 2}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := VertexEqual(test.a, test.b); got != test.equal {
				t.Errorf("invalid comparison, got %t, wanted %t", got, test.equal)
			}
		})
	}
}

func TestBranchVertex_SoleChild(t *testing.T) {
	branch := &BranchVertex{}
	if _, _, ok := branch.SoleChild(); ok {
		t.Errorf("empty branch should have no sole child")
	}
	branch.Children[7] = 42
	nibble, vid, ok := branch.SoleChild()
	if !ok || nibble != 7 || vid != 42 {
		t.Errorf("invalid sole child, got (%v,%v,%t), wanted (7,42,true)", nibble, vid, ok)
	}
	branch.Children[9] = 43
	if _, _, ok := branch.SoleChild(); ok {
		t.Errorf("two-edged branch should have no sole child")
	}
}
