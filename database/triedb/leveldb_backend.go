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
	"encoding/binary"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// TableSpace divides the key-value store into namespaces by prefixing every
// key with a single byte.
type TableSpace byte

const (
	// VertexSpace holds vertex blobs keyed by vertex id.
	VertexSpace TableSpace = 'V'

	// MerkleKeySpace holds Merkle keys keyed by vertex id.
	MerkleKeySpace TableSpace = 'K'

	// GeneratorSpace holds the single id generator blob.
	GeneratorSpace TableSpace = 'G'

	// FilterSpace holds journal filter blobs keyed by queue id.
	FilterSpace TableSpace = 'F'

	// SchedulerSpace holds the single journal scheduler blob.
	SchedulerSpace TableSpace = 'S'
)

// levelDbBackend is the durable backend, storing all namespaces in a single
// LevelDB instance. Batched writes map onto LevelDB write batches, which
// commit atomically.
type levelDbBackend struct {
	db *leveldb.DB
}

// OpenLevelDbBackend opens (or creates) a LevelDB-backed store in the given
// directory.
func OpenLevelDbBackend(directory string) (Backend, error) {
	db, err := leveldb.OpenFile(directory, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("cannot open leveldb in %s: %w", directory, err)
	}
	return &levelDbBackend{db: db}, nil
}

func vidDbKey(space TableSpace, vid VertexID) []byte {
	var res [9]byte
	res[0] = byte(space)
	binary.BigEndian.PutUint64(res[1:], uint64(vid))
	return res[:]
}

func qidDbKey(qid QueueID) []byte {
	var res [9]byte
	res[0] = byte(FilterSpace)
	binary.BigEndian.PutUint64(res[1:], uint64(qid))
	return res[:]
}

func (l *levelDbBackend) get(key []byte) ([]byte, error) {
	data, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	return data, err
}

func (l *levelDbBackend) GetVtx(vid VertexID) (Vertex, error) {
	data, err := l.get(vidDbKey(VertexSpace, vid))
	if err != nil || data == nil {
		return nil, err
	}
	return DecodeVertex(data)
}

func (l *levelDbBackend) GetKey(vid VertexID) (HashKey, error) {
	data, err := l.get(vidDbKey(MerkleKeySpace, vid))
	if err != nil || data == nil {
		return VoidHashKey, err
	}
	return HashKey(data), nil
}

func (l *levelDbBackend) GetIdg() ([]VertexID, error) {
	data, err := l.get([]byte{byte(GeneratorSpace)})
	if err != nil || data == nil {
		return nil, err
	}
	return DecodeVGen(data)
}

func (l *levelDbBackend) GetFil(qid QueueID) (*Filter, error) {
	data, err := l.get(qidDbKey(qid))
	if err != nil || data == nil {
		return nil, err
	}
	return DecodeFilter(data)
}

func (l *levelDbBackend) GetFqs() (*JournalState, error) {
	data, err := l.get([]byte{byte(SchedulerSpace)})
	if err != nil || data == nil {
		return nil, err
	}
	return DecodeJournalState(data)
}

func (l *levelDbBackend) PutBeg() (PutBatch, error) {
	return new(leveldb.Batch), nil
}

func (l *levelDbBackend) PutVtx(batch PutBatch, entries []VtxEntry) error {
	b, err := l.batchOf(batch)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Vtx == nil {
			b.Delete(vidDbKey(VertexSpace, entry.Vid))
			continue
		}
		blob, err := EncodeVertex(entry.Vtx)
		if err != nil {
			return vidErr(entry.Vid, err)
		}
		b.Put(vidDbKey(VertexSpace, entry.Vid), blob)
	}
	return nil
}

func (l *levelDbBackend) PutKey(batch PutBatch, entries []KeyEntry) error {
	b, err := l.batchOf(batch)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.Key.IsValid() {
			b.Delete(vidDbKey(MerkleKeySpace, entry.Vid))
		} else {
			b.Put(vidDbKey(MerkleKeySpace, entry.Vid), entry.Key)
		}
	}
	return nil
}

func (l *levelDbBackend) PutIdg(batch PutBatch, vGen []VertexID) error {
	b, err := l.batchOf(batch)
	if err != nil {
		return err
	}
	b.Put([]byte{byte(GeneratorSpace)}, EncodeVGen(vGen))
	return nil
}

func (l *levelDbBackend) PutFil(batch PutBatch, entries []FilEntry) error {
	b, err := l.batchOf(batch)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Filter == nil {
			b.Delete(qidDbKey(entry.Qid))
			continue
		}
		blob, err := EncodeFilter(entry.Filter)
		if err != nil {
			return err
		}
		b.Put(qidDbKey(entry.Qid), blob)
	}
	return nil
}

func (l *levelDbBackend) PutFqs(batch PutBatch, state *JournalState) error {
	b, err := l.batchOf(batch)
	if err != nil {
		return err
	}
	b.Put([]byte{byte(SchedulerSpace)}, EncodeJournalState(state))
	return nil
}

func (l *levelDbBackend) PutEnd(batch PutBatch) error {
	b, err := l.batchOf(batch)
	if err != nil {
		return err
	}
	return l.db.Write(b, &opt.WriteOptions{Sync: true})
}

func (l *levelDbBackend) WalkVtx(visit func(VertexID, Vertex) bool) error {
	return l.walkVidSpace(VertexSpace, func(vid VertexID, data []byte) (bool, error) {
		vtx, err := DecodeVertex(data)
		if err != nil {
			return false, vidErr(vid, err)
		}
		return visit(vid, vtx), nil
	})
}

func (l *levelDbBackend) WalkKey(visit func(VertexID, HashKey) bool) error {
	return l.walkVidSpace(MerkleKeySpace, func(vid VertexID, data []byte) (bool, error) {
		key := HashKey(append([]byte{}, data...))
		return visit(vid, key), nil
	})
}

func (l *levelDbBackend) WalkFil(visit func(QueueID, *Filter) bool) error {
	iter := l.db.NewIterator(util.BytesPrefix([]byte{byte(FilterSpace)}), nil)
	defer iter.Release()
	for iter.Next() {
		qid := QueueID(binary.BigEndian.Uint64(iter.Key()[1:]))
		filter, err := DecodeFilter(iter.Value())
		if err != nil {
			return err
		}
		if !visit(qid, filter) {
			return nil
		}
	}
	return iter.Error()
}

func (l *levelDbBackend) Close() error {
	return l.db.Close()
}

func (l *levelDbBackend) walkVidSpace(space TableSpace, visit func(VertexID, []byte) (bool, error)) error {
	iter := l.db.NewIterator(util.BytesPrefix([]byte{byte(space)}), nil)
	defer iter.Release()
	for iter.Next() {
		vid := VertexID(binary.BigEndian.Uint64(iter.Key()[1:]))
		cont, err := visit(vid, iter.Value())
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return iter.Error()
}

func (l *levelDbBackend) batchOf(batch PutBatch) (*leveldb.Batch, error) {
	if b, ok := batch.(*leveldb.Batch); ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: foreign batch handle", ErrBackendMissing)
}
