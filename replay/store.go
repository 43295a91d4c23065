package replay

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// Key space prefixes. The primary space is keyed by timestamp; the two
// secondary spaces order by PRI and REWARD and store only a pointer back
// to the primary key, the conventional secondary-index layout over a
// single embedded KV engine.
const (
	primarySpace = 'p'
	priSpace     = 'i'
	rewardSpace  = 'r'
)

// Store is a tabular replay-record store: TIME primary key, secondary
// orderings on PRI and REWARD, durable through pebble's WAL.
type Store struct {
	db *pebble.DB
}

// OpenStore opens (creating if necessary) a Store at path.
func OpenStore(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "replay: open store")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying pebble database.
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "replay: close store")
}

func primaryKey(ts uint64) []byte {
	k := make([]byte, 9)
	k[0] = primarySpace
	binary.BigEndian.PutUint64(k[1:], ts)
	return k
}

// floatIndexKey renders f into a byte order that preserves float
// ordering when compared lexicographically: flip the sign bit for
// non-negative floats, invert every bit for negative ones. The
// timestamp is appended so records that tie on f keep a stable,
// insertion-ordered secondary key.
func floatIndexKey(space byte, f float32, ts uint64) []byte {
	bits := math.Float32bits(f)
	if bits&0x8000_0000 != 0 {
		bits = ^bits
	} else {
		bits |= 0x8000_0000
	}
	k := make([]byte, 13)
	k[0] = space
	binary.BigEndian.PutUint32(k[1:5], bits)
	binary.BigEndian.PutUint64(k[5:], ts)
	return k
}

// Put writes r durably across the primary and both secondary key spaces
// in a single pebble batch, synced to the WAL.
func (s *Store) Put(r Record) error {
	payload, err := Encode(r)
	if err != nil {
		return errors.Wrap(err, "replay: encode record")
	}

	b := s.db.NewBatch()
	defer b.Close()

	pk := primaryKey(r.Timestamp)
	if err := b.Set(pk, payload, nil); err != nil {
		return errors.Wrap(err, "replay: stage primary key")
	}
	if err := b.Set(floatIndexKey(priSpace, r.Pri, r.Timestamp), pk, nil); err != nil {
		return errors.Wrap(err, "replay: stage pri index")
	}
	if err := b.Set(floatIndexKey(rewardSpace, r.Reward, r.Timestamp), pk, nil); err != nil {
		return errors.Wrap(err, "replay: stage reward index")
	}

	return errors.Wrap(b.Commit(pebble.Sync), "replay: commit batch")
}

// Get returns the record stored at ts, if any.
func (s *Store) Get(ts uint64) (Record, bool, error) {
	return s.getAt(primaryKey(ts))
}

func (s *Store) getAt(key []byte) (Record, bool, error) {
	val, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return Record{}, false, nil
		}
		return Record{}, false, errors.Wrap(err, "replay: get")
	}
	data := append([]byte(nil), val...)
	closer.Close()

	rec, err := Decode(data)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// ByPriDesc returns up to limit records in descending priority order
// (limit <= 0 means unbounded), resolving each secondary-index hit back
// through the primary key space.
func (s *Store) ByPriDesc(limit int) ([]Record, error) {
	return s.scanIndexDesc(priSpace, limit)
}

// ByRewardDesc returns up to limit records in descending reward order.
func (s *Store) ByRewardDesc(limit int) ([]Record, error) {
	return s.scanIndexDesc(rewardSpace, limit)
}

func (s *Store) scanIndexDesc(space byte, limit int) ([]Record, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{space},
		UpperBound: []byte{space + 1},
	})
	if err != nil {
		return nil, errors.Wrap(err, "replay: new index iterator")
	}
	defer iter.Close()

	var out []Record
	for valid := iter.Last(); valid && (limit <= 0 || len(out) < limit); valid = iter.Prev() {
		pk := append([]byte(nil), iter.Value()...)
		rec, ok, err := s.getAt(pk)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue // index entry outlived its primary record; skip rather than fail the scan
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(iter.Error(), "replay: index scan")
}
