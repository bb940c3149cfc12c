package store

import "github.com/skyfence/radarlink/internal/radar"

// fifo is an insertion-ordered point buffer with oldest-first eviction.
// Instead of re-slicing from the front on every eviction, which would pin
// the whole backing array, it advances a start index and compacts once the
// dead prefix grows past the live length. Push and trim are O(1) amortized.
type fifo struct {
	items []radar.PointRecord
	start int
}

func (f *fifo) len() int { return len(f.items) - f.start }

// push appends p, evicting the oldest record first if the buffer already
// holds max records.
func (f *fifo) push(p radar.PointRecord, max int) {
	if f.len() >= max {
		f.start += f.len() - max + 1
	}
	f.items = append(f.items, p)
	f.compact()
}

// trimTo evicts oldest records until at most keep remain.
func (f *fifo) trimTo(keep int) {
	if f.len() > keep {
		f.start = len(f.items) - keep
	}
	f.compact()
}

// compact reclaims the evicted prefix once it outweighs the live records.
func (f *fifo) compact() {
	if f.start == 0 || f.start < f.len() {
		return
	}
	n := copy(f.items, f.items[f.start:])
	f.items = f.items[:n]
	f.start = 0
}

// each visits the live records oldest first.
func (f *fifo) each(fn func(radar.PointRecord)) {
	for _, p := range f.items[f.start:] {
		fn(p)
	}
}
