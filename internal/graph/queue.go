package graph

import (
	"sync/atomic"

	"github.com/cbegin/ambient-go/internal/voice"
)

// noteQueue is a single-producer single-consumer ring of timestamped notes.
// The control goroutine pushes; the audio thread peeks, pops and clears.
type noteQueue struct {
	buf  []voice.Note
	mask uint64
	head atomic.Uint64 // next slot to read
	tail atomic.Uint64 // next slot to write
}

func newNoteQueue(size int) *noteQueue {
	n := 1
	for n < size {
		n <<= 1
	}
	return &noteQueue{buf: make([]voice.Note, n), mask: uint64(n - 1)}
}

func (q *noteQueue) push(n voice.Note) bool {
	t := q.tail.Load()
	if t-q.head.Load() == uint64(len(q.buf)) {
		return false
	}
	q.buf[t&q.mask] = n
	q.tail.Store(t + 1)
	return true
}

func (q *noteQueue) peek() (voice.Note, bool) {
	h := q.head.Load()
	if h == q.tail.Load() {
		return voice.Note{}, false
	}
	return q.buf[h&q.mask], true
}

func (q *noteQueue) pop() {
	q.head.Add(1)
}

// clear drops everything queued so far. Consumer side only.
func (q *noteQueue) clear() {
	q.head.Store(q.tail.Load())
}

func (q *noteQueue) pending() int {
	return int(q.tail.Load() - q.head.Load())
}
