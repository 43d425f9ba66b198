package appendlog

import (
	"slices"
	"testing"
)

func pushRange(l *Log[int], n int) []int {
	pushed := make([]int, 0, n)
	for i := 0; i < n; i++ {
		l.Push(i)
		pushed = append(pushed, i)
	}
	return pushed
}

func TestLogTierSizesAndOrder(t *testing.T) {
	for _, capacity := range []int{0, 1, 2, 3, 7} {
		for n := 0; n <= 20; n++ {
			l := New[int](capacity)
			pushed := pushRange(l, n)

			recent := slices.Collect(l.Recent())
			archive := slices.Collect(l.Archive())
			all := slices.Collect(l.All())

			if want := min(n, capacity); len(recent) != want {
				t.Fatalf("C=%d N=%d: recent len %d, want %d", capacity, n, len(recent), want)
			}
			if want := max(0, n-capacity); len(archive) != want {
				t.Fatalf("C=%d N=%d: archive len %d, want %d", capacity, n, len(archive), want)
			}

			reversed := slices.Clone(pushed)
			slices.Reverse(reversed)
			if !slices.Equal(all, reversed) {
				t.Fatalf("C=%d N=%d: all = %v, want %v", capacity, n, all, reversed)
			}
			if l.Len() != n || l.RecentLen() != len(recent) || l.ArchiveLen() != len(archive) {
				t.Fatalf("C=%d N=%d: counters out of sync", capacity, n)
			}
		}
	}
}

func TestLogZeroCapacityArchivesEverything(t *testing.T) {
	l := New[string](0)
	l.Push("a")
	l.Push("b")

	if got := slices.Collect(l.Recent()); len(got) != 0 {
		t.Fatalf("expected empty recent window, got %v", got)
	}
	if got := slices.Collect(l.Archive()); !slices.Equal(got, []string{"b", "a"}) {
		t.Fatalf("unexpected archive: %v", got)
	}
}

func TestLogNegativeCapacityTreatedAsZero(t *testing.T) {
	l := New[int](-3)
	if l.Capacity() != 0 {
		t.Fatalf("expected capacity 0, got %d", l.Capacity())
	}
	l.Push(1)
	if l.ArchiveLen() != 1 {
		t.Fatalf("expected push to land in archive")
	}
}

func TestLogEmpty(t *testing.T) {
	l := New[int](DefaultCapacity)
	for range l.All() {
		t.Fatalf("expected no items")
	}
	if l.Len() != 0 {
		t.Fatalf("expected empty log")
	}
}

func TestLogSequencesAreRestartable(t *testing.T) {
	l := New[int](2)
	pushRange(l, 5)

	seq := l.All()
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Fatalf("second pass differs: %v vs %v", first, second)
	}

	// a sequence taken before a push reflects the log at iteration time
	l.Push(5)
	if got := slices.Collect(seq); got[0] != 5 {
		t.Fatalf("expected newest item first after push, got %v", got)
	}
}

func TestLogEarlyStop(t *testing.T) {
	l := New[int](3)
	pushRange(l, 10)

	if got := Take(l.All(), 4); !slices.Equal(got, []int{9, 8, 7, 6}) {
		t.Fatalf("unexpected prefix across tiers: %v", got)
	}
	if got := Take(l.Archive(), 0); len(got) != 7 {
		t.Fatalf("expected full archive, got %d", len(got))
	}
}
