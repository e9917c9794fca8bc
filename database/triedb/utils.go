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

	"golang.org/x/exp/maps"
)

// sortedVidKeys enumerates the keys of an id-indexed table in ascending id
// order, for deterministic serialisation and reporting.
func sortedVidKeys[V any](table map[VertexID]V) []VertexID {
	keys := maps.Keys(table)
	slices.Sort(keys)
	return keys
}
