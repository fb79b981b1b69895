// Package ring provides the fixed-capacity byte FIFO used as a link
// session's payload buffer.
package ring

// Buffer is a fixed-capacity byte FIFO with a staged tail region.
//
// Stage appends bytes that stay invisible to Len, Dequeue, and Peek until
// Commit publishes them; Discard rolls them back instead. Enqueue publishes
// a byte immediately and must not be interleaved with a pending staged
// region, since committed and staged bytes share one contiguous tail.
//
// Buffer is not safe for concurrent use.
type Buffer struct {
	data   []byte
	head   int // next committed byte to dequeue
	tail   int // next write position (after committed and staged bytes)
	count  int // committed bytes readable
	staged int // staged bytes awaiting Commit or Discard
}

// New creates a buffer with its own backing storage of the given capacity.
// The capacity must be positive.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// NewWithStorage creates a buffer over caller-owned backing storage, taking
// exclusive ownership of its contents. The capacity is len(buf).
func NewWithStorage(buf []byte) *Buffer {
	return &Buffer{data: buf}
}

// Cap returns the total capacity in bytes.
func (b *Buffer) Cap() int { return len(b.data) }

// Len returns the number of committed bytes available to Dequeue.
func (b *Buffer) Len() int { return b.count }

// Staged returns the number of staged bytes awaiting Commit or Discard.
func (b *Buffer) Staged() int { return b.staged }

// IsEmpty reports whether no committed bytes are available.
func (b *Buffer) IsEmpty() bool { return b.count == 0 }

// Free returns the remaining writable capacity, counting staged bytes.
func (b *Buffer) Free() int { return len(b.data) - b.count - b.staged }

// Enqueue appends one committed byte. It reports false, dropping the byte,
// when the buffer is full.
func (b *Buffer) Enqueue(v byte) bool {
	if b.Free() == 0 {
		return false
	}

	b.data[b.tail] = v
	b.tail = b.next(b.tail)
	b.count++

	return true
}

// Stage appends one byte to the staged region. It reports false, dropping
// the byte, when the buffer is full.
func (b *Buffer) Stage(v byte) bool {
	if b.Free() == 0 {
		return false
	}

	b.data[b.tail] = v
	b.tail = b.next(b.tail)
	b.staged++

	return true
}

// Commit publishes all staged bytes, making them readable in order.
func (b *Buffer) Commit() {
	b.count += b.staged
	b.staged = 0
}

// Discard rolls the staged region back, reclaiming its space.
func (b *Buffer) Discard() {
	b.tail = b.index(b.head + b.count)
	b.staged = 0
}

// Dequeue removes and returns the oldest committed byte. The second return
// is false when the buffer is empty.
func (b *Buffer) Dequeue() (byte, bool) {
	if b.count == 0 {
		return 0, false
	}

	v := b.data[b.head]
	b.head = b.next(b.head)
	b.count--

	return v, true
}

// Peek returns the committed byte at the given offset from the oldest one
// without removing it. The second return is false when the offset is out of
// range.
func (b *Buffer) Peek(offset int) (byte, bool) {
	if offset < 0 || offset >= b.count {
		return 0, false
	}

	return b.data[b.index(b.head+offset)], true
}

// Reset empties the buffer, dropping committed and staged bytes alike. The
// backing storage is retained.
func (b *Buffer) Reset() {
	b.head = 0
	b.tail = 0
	b.count = 0
	b.staged = 0
}

func (b *Buffer) next(i int) int {
	i++
	if i == len(b.data) {
		return 0
	}

	return i
}

func (b *Buffer) index(i int) int {
	if n := len(b.data); i >= n {
		return i - n
	}

	return i
}
