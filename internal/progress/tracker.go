package progress

const recentlyFinishedSize = 32

type item struct {
	total     int64
	completed int64
}

// tracker turns per-record byte reports into deltas. Reports are monotonic and clamped
// to the record's declared total. Finished ids are remembered in a small ring so that a
// byte report racing the finish call is not counted twice.
type tracker struct {
	items map[int64]*item

	finished    [recentlyFinishedSize]int64
	finishedPos int
	finishedLen int
}

func newTracker() *tracker {
	return &tracker{items: make(map[int64]*item)}
}

func (t *tracker) begin(id int64, total int64) {
	if t.recentlyFinished(id) {
		t.forget(id)
	}
	if total < 0 {
		total = 0
	}
	// A retried record resumes from the bytes it already reported
	if it, ok := t.items[id]; ok {
		it.total = max(total, it.completed)
		return
	}
	t.items[id] = &item{total: total}
}

// update returns the number of newly completed bytes for id
func (t *tracker) update(id int64, completed int64) int64 {
	it, ok := t.items[id]
	if !ok || t.recentlyFinished(id) {
		return 0
	}
	if completed > it.total {
		completed = it.total
	}
	if completed <= it.completed {
		return 0
	}
	delta := completed - it.completed
	it.completed = completed
	return delta
}

// finish forces id to its total and returns the remaining bytes. Repeated calls return zero.
func (t *tracker) finish(id int64) int64 {
	if t.recentlyFinished(id) {
		return 0
	}
	var delta int64
	if it, ok := t.items[id]; ok {
		delta = it.total - it.completed
		delete(t.items, id)
	}
	t.finished[t.finishedPos] = id
	t.finishedPos = (t.finishedPos + 1) % recentlyFinishedSize
	if t.finishedLen < recentlyFinishedSize {
		t.finishedLen++
	}
	return delta
}

func (t *tracker) recentlyFinished(id int64) bool {
	for i := 0; i < t.finishedLen; i++ {
		if t.finished[i] == id {
			return true
		}
	}
	return false
}

// forget drops id from the finished ring so a retried record can report again
func (t *tracker) forget(id int64) {
	for i := 0; i < t.finishedLen; i++ {
		if t.finished[i] == id {
			t.finished[i] = -1
		}
	}
}

func (t *tracker) inFlight() int {
	return len(t.items)
}

func (t *tracker) reset() {
	*t = tracker{items: make(map[int64]*item)}
}
