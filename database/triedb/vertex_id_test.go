package triedb

import (
	"slices"
	"testing"
)

func TestVidFetch_VirginSpaceStartsAtLeastFreeVid(t *testing.T) {
	vid, vGen := vidFetch(nil)
	if vid != LeastFreeVid {
		t.Errorf("invalid first id, got %v, wanted %v", vid, LeastFreeVid)
	}
	if want := []VertexID{LeastFreeVid + 1}; !slices.Equal(vGen, want) {
		t.Errorf("invalid generator state, got %v, wanted %v", vGen, want)
	}
}

func TestVidFetch_SequentialAllocation(t *testing.T) {
	var vGen []VertexID
	for i := 0; i < 3; i++ {
		var vid VertexID
		vid, vGen = vidFetch(vGen)
		if want := LeastFreeVid + VertexID(i); vid != want {
			t.Errorf("invalid id in step %d, got %v, wanted %v", i, vid, want)
		}
	}
	if want := []VertexID{5}; !slices.Equal(vGen, want) {
		t.Errorf("invalid generator state, got %v, wanted %v", vGen, want)
	}
}

func TestVidFetch_RecycledIdsAreusedFirst(t *testing.T) {
	var vGen []VertexID
	_, vGen = vidFetch(vGen) // 2
	_, vGen = vidFetch(vGen) // 3
	_, vGen = vidFetch(vGen) // 4
	vGen = vidDispose(vGen, 3)

	vid, vGen := vidFetch(vGen)
	if vid != 3 {
		t.Errorf("recycled id not preferred, got %v, wanted 3", vid)
	}
	vid, vGen = vidFetch(vGen)
	if vid != 5 {
		t.Errorf("sentinel not consumed after recycled ids, got %v, wanted 5", vid)
	}
	if want := []VertexID{6}; !slices.Equal(vGen, want) {
		t.Errorf("invalid generator state, got %v, wanted %v", vGen, want)
	}
}

func TestVidReorg_CompactsContiguousSuffix(t *testing.T) {
	tests := []struct {
		state []VertexID
		want  []VertexID
	}{
		{nil, nil},
		{[]VertexID{5}, []VertexID{5}},
		{[]VertexID{2, 3, 4, 5}, []VertexID{2}},
		{[]VertexID{2, 3, 4, 1, 5}, []VertexID{1}},
		{[]VertexID{7, 2, 8}, []VertexID{2, 7}},
		{[]VertexID{4, 6, 2, 7}, []VertexID{2, 4, 6}},
		{[]VertexID{3, 3, 4}, []VertexID{3}},
	}
	for _, test := range tests {
		got := vidReorg(test.state)
		if !slices.Equal(got, test.want) {
			t.Errorf("invalid reorg of %v, got %v, wanted %v", test.state, got, test.want)
		}
	}
}

func TestVidHoldsFree_SentinelCoversTail(t *testing.T) {
	vGen := []VertexID{3, 7}
	tests := []struct {
		vid  VertexID
		free bool
	}{
		{2, false},
		{3, true},
		{4, false},
		{7, true},
		{1000, true},
	}
	for _, test := range tests {
		if got := vidHoldsFree(vGen, test.vid); got != test.free {
			t.Errorf("invalid free state of %v, got %t, wanted %t", test.vid, got, test.free)
		}
	}
}
