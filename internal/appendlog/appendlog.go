// Package appendlog implements a push-only history split into a bounded
// recent window and an unbounded archive.
//
// Items pushed past the recent window's capacity are moved, oldest first,
// into the archive. Iterating the recent window and then the archive yields
// the full push history newest-first, with no item lost or repeated.
package appendlog

import "iter"

// DefaultCapacity is the recent window size used when none is configured.
const DefaultCapacity = 10

// Log is a two-tier append-only log. It is not safe for concurrent use;
// callers serialize access.
type Log[T any] struct {
	ring  []T // recent window, fixed length == capacity
	head  int // index of the oldest recent item
	count int // number of recent items

	// archive holds evicted items oldest-first; iteration walks it backwards.
	archive []T
}

// New returns an empty log whose recent window holds up to capacity items.
// A capacity <= 0 sends every push straight to the archive.
func New[T any](capacity int) *Log[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Log[T]{ring: make([]T, capacity)}
}

// Capacity reports the size of the recent window.
func (l *Log[T]) Capacity() int { return len(l.ring) }

// RecentLen reports how many items sit in the recent window.
func (l *Log[T]) RecentLen() int { return l.count }

// ArchiveLen reports how many items have been evicted to the archive.
func (l *Log[T]) ArchiveLen() int { return len(l.archive) }

// Len reports the total number of items pushed.
func (l *Log[T]) Len() int { return l.count + len(l.archive) }

// Push inserts item as the newest entry, evicting the oldest recent entry
// into the archive when the window is full.
func (l *Log[T]) Push(item T) {
	c := len(l.ring)
	if c == 0 {
		l.archive = append(l.archive, item)
		return
	}
	if l.count < c {
		l.ring[(l.head+l.count)%c] = item
		l.count++
		return
	}

	var zero T
	l.archive = append(l.archive, l.ring[l.head])
	l.ring[l.head] = zero
	l.head = (l.head + 1) % c
	l.ring[(l.head+l.count-1)%c] = item
}

// Recent yields the recent window newest-first.
func (l *Log[T]) Recent() iter.Seq[T] {
	return func(yield func(T) bool) {
		l.walkRecent(yield)
	}
}

// Archive yields the archive newest-first.
func (l *Log[T]) Archive() iter.Seq[T] {
	return func(yield func(T) bool) {
		l.walkArchive(yield)
	}
}

// All yields the recent window followed by the archive: the entire history
// newest-first.
func (l *Log[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if !l.walkRecent(yield) {
			return
		}
		l.walkArchive(yield)
	}
}

func (l *Log[T]) walkRecent(yield func(T) bool) bool {
	c := len(l.ring)
	for i := l.count - 1; i >= 0; i-- {
		if !yield(l.ring[(l.head+i)%c]) {
			return false
		}
	}
	return true
}

func (l *Log[T]) walkArchive(yield func(T) bool) bool {
	for i := len(l.archive) - 1; i >= 0; i-- {
		if !yield(l.archive[i]) {
			return false
		}
	}
	return true
}

// Take collects at most limit items from seq; limit <= 0 collects everything.
func Take[T any](seq iter.Seq[T], limit int) []T {
	out := make([]T, 0)
	for item := range seq {
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
