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

// JournalTier tunes one tier of the cascaded journal FIFO.
type JournalTier struct {
	// Width is the number of live entries the tier holds before overflow
	// compacts into the next tier.
	Width int

	// Dilution is the number of filters an overflow entry of this tier
	// aggregates. The head tier uses 0 for one filter per entry.
	Dilution int

	// Capacity is the slot-number wrap modulus of the tier. It must exceed
	// Width so that live entries never collide on a slot.
	Capacity int
}

// Config collects the tuning knobs of a trie database instance.
type Config struct {
	// Name is a descriptive tag used in error reporting.
	Name string

	// DelSubTreeLimit bounds the number of vertices a sub-trie delete may
	// visit before giving up.
	DelSubTreeLimit int

	// JournalTiers is the layout of the journal FIFO. An empty layout
	// disables journaling; persists then overwrite history in place.
	JournalTiers []JournalTier
}

// DefaultConfig returns the tuning used by production deployments.
func DefaultConfig() Config {
	return Config{
		Name:            "default",
		DelSubTreeLimit: 1 << 20,
		JournalTiers: []JournalTier{
			{Width: 4, Dilution: 0, Capacity: 10},
			{Width: 3, Dilution: 3, Capacity: 10},
			{Width: 3, Dilution: 4, Capacity: 10},
			{Width: 3, Dilution: 5, Capacity: 10},
		},
	}
}
