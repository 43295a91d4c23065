package replay

import "github.com/latticeforge/paragon/primitives"

// Buffer is the unbounded in-memory variant of the replay buffer: a
// plain slice guarded by primitives.RWLock, with no eviction policy. A
// long-running producer with no consumer draining it grows Buffer
// without bound; it is only meant to live for a single training run.
type Buffer struct {
	lock    primitives.RWLock
	records []Record
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds r under the write lock.
func (b *Buffer) Append(r Record) {
	b.lock.WriteLock()
	defer b.lock.WriteUnlock()
	b.records = append(b.records, r)
}

// Snapshot returns a copy of every record currently held, taken under
// the read lock so it never observes a write half-applied.
func (b *Buffer) Snapshot() []Record {
	b.lock.ReadSharedLock()
	defer b.lock.ReadSharedUnlock()
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// Len reports the number of records currently held.
func (b *Buffer) Len() int {
	b.lock.ReadSharedLock()
	defer b.lock.ReadSharedUnlock()
	return len(b.records)
}
