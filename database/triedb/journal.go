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
	"slices"
)

// The journal is a cascaded FIFO of reverse filters. Every persist pushes
// the reverse of the applied filter onto the head tier; overflowing entries
// cascade into wider-spaced tiers where several consecutive reverse filters
// are compacted into one, until the oldest history ages out of the last
// tier. Replaying the journal head-first reverts the backend step by step.

// QueueID addresses a journal slot on the backend. It packs the tier into
// the top byte and the slot number into the remainder.
type QueueID uint64

func makeQid(tier int, slot uint64) QueueID {
	return QueueID(uint64(tier)<<56 | slot)
}

// Tier returns the tier a queue id belongs to.
func (q QueueID) Tier() int {
	return int(q >> 56)
}

// Slot returns the slot number of a queue id within its tier.
func (q QueueID) Slot() uint64 {
	return uint64(q) & ((1 << 56) - 1)
}

func (q QueueID) String() string {
	return fmt.Sprintf("%d:%d", q.Tier(), q.Slot())
}

// journalEntry is the scheduler's bookkeeping for one stored filter: its
// slot, its id, and the number of persist steps the filter spans.
type journalEntry struct {
	Qid    QueueID
	Fid    FilterID
	Covers uint32
}

// JournalState is the serialisable scheduler state: per tier the slot
// serial counter and the live entries in newest-first order, plus the
// filter id generator.
type JournalState struct {
	Tiers   [][]journalEntry
	Serials []uint64
	NextFid FilterID
}

// Dup produces a deep copy of the state.
func (s *JournalState) Dup() *JournalState {
	res := &JournalState{
		Serials: slices.Clone(s.Serials),
		NextFid: s.NextFid,
	}
	for _, tier := range s.Tiers {
		res.Tiers = append(res.Tiers, slices.Clone(tier))
	}
	return res
}

// journal drives the scheduler over a tier layout. It owns the in-memory
// state; the backing filters are read through the attached backend and
// written via the put-set the mutating operations return.
type journal struct {
	layout []JournalTier
	state  *JournalState
	be     Backend
}

func newJournal(layout []JournalTier, state *JournalState, be Backend) *journal {
	if state == nil {
		state = &JournalState{
			Tiers:   make([][]journalEntry, len(layout)),
			Serials: make([]uint64, len(layout)),
			NextFid: 1,
		}
	}
	// A state persisted under a narrower layout grows empty tiers.
	for len(state.Tiers) < len(layout) {
		state.Tiers = append(state.Tiers, nil)
	}
	for len(state.Serials) < len(layout) {
		state.Serials = append(state.Serials, 0)
	}
	return &journal{layout: layout, state: state, be: be}
}

// enabled reports whether a tier layout was configured at all.
func (j *journal) enabled() bool {
	return len(j.layout) > 0
}

// depth returns the number of persist steps the journal can revert.
func (j *journal) depth() int {
	res := 0
	for _, tier := range j.state.Tiers {
		for _, entry := range tier {
			res += int(entry.Covers)
		}
	}
	return res
}

// entries enumerates all live entries, newest first.
func (j *journal) entries() []journalEntry {
	res := make([]journalEntry, 0, 16)
	for _, tier := range j.state.Tiers {
		res = append(res, tier...)
	}
	return res
}

// newestFilter retrieves the filter of the newest journal entry, or nil on
// an empty journal.
func (j *journal) newestFilter() (*Filter, error) {
	for _, tier := range j.state.Tiers {
		if len(tier) > 0 {
			return j.be.GetFil(tier[0].Qid)
		}
	}
	return nil, nil
}

// store places a reverse filter as the new journal head and cascades
// overflowing entries down the tiers. It returns the slot updates to be
// staged into the pending backend batch.
func (j *journal) store(filter *Filter) ([]FilEntry, error) {
	if !j.enabled() {
		return nil, ErrFilQuSchedDisabled
	}
	state := j.state
	fid := state.NextFid
	state.NextFid++

	puts := make([]FilEntry, 0, 4)
	qid := j.nextQid(0)
	stored := filter.Dup()
	stored.Fid = fid
	puts = append(puts, FilEntry{Qid: qid, Filter: stored})
	state.Tiers[0] = slices.Insert(state.Tiers[0], 0, journalEntry{Qid: qid, Fid: fid, Covers: 1})

	// Cascade tier overflows towards the older end.
	for t := 0; t < len(j.layout); t++ {
		for len(state.Tiers[t]) > j.layout[t].Width {
			oldest := state.Tiers[t][len(state.Tiers[t])-1]
			state.Tiers[t] = state.Tiers[t][:len(state.Tiers[t])-1]

			if t+1 >= len(j.layout) {
				// End of the cascade, the entry ages out.
				puts = append(puts, FilEntry{Qid: oldest.Qid})
				continue
			}

			next := state.Tiers[t+1]
			dilution := uint32(j.layout[t+1].Dilution)
			if len(next) > 0 && next[0].Covers+oldest.Covers <= dilution {
				// Compact into the still-open newest entry of the
				// next tier. The demoted entry is the newer of the
				// two and is applied first when reverting.
				head := next[0]
				newer, err := j.filterOf(oldest, puts)
				if err != nil {
					return nil, err
				}
				older, err := j.filterOf(head, puts)
				if err != nil {
					return nil, err
				}
				merged, err := MergeFilters(newer, older)
				if err != nil {
					return nil, err
				}
				merged.Fid = oldest.Fid
				next[0] = journalEntry{
					Qid:    head.Qid,
					Fid:    oldest.Fid,
					Covers: head.Covers + oldest.Covers,
				}
				puts = append(puts, FilEntry{Qid: head.Qid, Filter: merged})
				puts = append(puts, FilEntry{Qid: oldest.Qid})
			} else {
				// Demote the entry into a fresh slot of the next tier.
				moved, err := j.filterOf(oldest, puts)
				if err != nil {
					return nil, err
				}
				qid := j.nextQid(t + 1)
				puts = append(puts, FilEntry{Qid: qid, Filter: moved})
				puts = append(puts, FilEntry{Qid: oldest.Qid})
				state.Tiers[t+1] = slices.Insert(state.Tiers[t+1], 0, journalEntry{
					Qid:    qid,
					Fid:    oldest.Fid,
					Covers: oldest.Covers,
				})
			}
		}
	}
	return puts, nil
}

// deleteNewest drops the newest journal entry, reverting the redundancy of
// a pending filter that exactly un-does it.
func (j *journal) deleteNewest() ([]FilEntry, error) {
	for t, tier := range j.state.Tiers {
		if len(tier) > 0 {
			entry := tier[0]
			j.state.Tiers[t] = tier[1:]
			return []FilEntry{{Qid: entry.Qid}}, nil
		}
	}
	return nil, ErrFilBackStepsExpected
}

// fetch composes the newest backSteps reverse filters into a single filter
// reverting that many persist steps. Zero steps yield the null filter. The
// request fails if the journal is too shallow or the boundary falls inside
// a compacted entry.
func (j *journal) fetch(backSteps int) (*Filter, error) {
	if backSteps == 0 {
		return nil, nil
	}
	if !j.enabled() {
		return nil, ErrFilQuSchedDisabled
	}
	var res *Filter
	steps := 0
	for _, entry := range j.entries() {
		if steps >= backSteps {
			break
		}
		filter, err := j.be.GetFil(entry.Qid)
		if err != nil {
			return nil, err
		}
		if filter == nil {
			return nil, ErrGetFilNotFound
		}
		// Reverse filters apply newest first.
		if res, err = MergeFilters(res, filter); err != nil {
			return nil, err
		}
		steps += int(entry.Covers)
	}
	if steps != backSteps {
		return nil, ErrFilBackStepsExpected
	}
	return res, nil
}

// lookup finds the journal entry carrying the given filter id. With
// earlierOK set, the nearest predecessor is returned when the id itself
// has been compacted away.
func (j *journal) lookup(fid FilterID, earlierOK bool) (journalEntry, error) {
	best := journalEntry{}
	found := false
	for _, entry := range j.entries() {
		if entry.Fid == fid {
			return entry, nil
		}
		if earlierOK && entry.Fid < fid && (!found || entry.Fid > best.Fid) {
			best, found = entry, true
		}
	}
	if found {
		return best, nil
	}
	return journalEntry{}, ErrFilFilterNotFound
}

// nextQid draws the next slot id of a tier, wrapping at the tier capacity.
func (j *journal) nextQid(tier int) QueueID {
	slot := j.state.Serials[tier] % uint64(j.layout[tier].Capacity)
	j.state.Serials[tier]++
	return makeQid(tier, slot)
}

// filterOf resolves an entry's filter, preferring a version staged in the
// current put-set over the backend copy.
func (j *journal) filterOf(entry journalEntry, puts []FilEntry) (*Filter, error) {
	for i := len(puts) - 1; i >= 0; i-- {
		if puts[i].Qid == entry.Qid {
			if puts[i].Filter == nil {
				return nil, ErrGetFilNotFound
			}
			return puts[i].Filter, nil
		}
	}
	filter, err := j.be.GetFil(entry.Qid)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return nil, ErrGetFilNotFound
	}
	return filter, nil
}
