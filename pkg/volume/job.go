package volume

import (
	"sync"

	"VoxVault/pkg/utils"
)

type jobType int

const (
	invalidJob jobType = iota
	loadJob
	saveJob
)

func (t jobType) String() string {
	switch t {
	case loadJob:
		return "load"
	case saveJob:
		return "save"
	}
	return "invalid"
}

// jobEntry describes one pending load or save. A live entry owns one
// reference to its chunk, taken on enqueue and released when the entry
// leaves the queue and is executed or discarded.
type jobEntry struct {
	priority int
	typ      jobType
	chunk    *Chunk
}

// jobQueue is a list ordered by descending priority with insertion
// order preserved among equal priorities. The mutex also guards the
// two active-worker counters used for load/save fairness.
type jobQueue struct {
	mu     sync.Mutex
	newJob *utils.Cond

	jobs        []*jobEntry
	activeLoads int
	activeSaves int
}

func (q *jobQueue) init() {
	q.newJob = utils.NewCond(&q.mu)
}

// findByChunk returns the index of the queued job for the chunk with
// the given type, and whether any job of the opposite type is queued
// for it. Caller holds the queue lock.
func (q *jobQueue) findByChunk(c *Chunk, typ jobType) (index int, opposite bool) {
	index = -1
	for i, e := range q.jobs {
		if e.chunk != c {
			continue
		}
		if e.typ == typ {
			index = i
		} else {
			opposite = true
		}
	}
	return
}

// insert sorts the entry into the queue. Among equal priorities new
// entries go after the old ones.
func (q *jobQueue) insert(entry *jobEntry) {
	i := 0
	for ; i < len(q.jobs); i++ {
		if entry.priority > q.jobs[i].priority {
			break
		}
	}
	q.jobs = append(q.jobs, nil)
	copy(q.jobs[i+1:], q.jobs[i:])
	q.jobs[i] = entry
}

func (q *jobQueue) removeAt(i int) *jobEntry {
	e := q.jobs[i]
	q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
	return e
}

// getJob picks the next job, favoring the type opposite to whichever
// has more active workers (ties favor save). Returns nil when the
// queue is empty. Caller holds the queue lock.
func (q *jobQueue) getJob() *jobEntry {
	if len(q.jobs) == 0 {
		return nil
	}

	favored := saveJob
	if q.activeSaves > q.activeLoads {
		favored = loadJob
	}

	for i, e := range q.jobs {
		if e.typ == favored {
			q.noteActive(e.typ, 1)
			return q.removeAt(i)
		}
	}

	e := q.removeAt(0)
	q.noteActive(e.typ, 1)
	return e
}

func (q *jobQueue) noteActive(typ jobType, delta int) {
	if typ == loadJob {
		q.activeLoads += delta
	} else {
		q.activeSaves += delta
	}
}

// addJob enqueues a load or save for the chunk, deduplicating against
// an already-queued job of the same type: the higher priority wins. A
// queued job of the opposite type is retained; the chunk lock
// serializes their execution.
func (v *Volume) addJob(typ jobType, priority int, c *Chunk) {
	if v.store == nil {
		panic("job enqueued without a chunk store")
	}

	q := &v.jobs
	q.mu.Lock()

	var stale *jobEntry
	if i, opposite := q.findByChunk(c, typ); i >= 0 {
		if priority <= q.jobs[i].priority {
			// An equivalent job is already queued.
			q.mu.Unlock()
			return
		}
		stale = q.removeAt(i)
	} else if opposite {
		v.logf(LogDebug, "Chunk %s has a pending job of the opposite type, keeping both.", c.key)
	}

	entry := &jobEntry{priority: priority, typ: typ, chunk: c}
	c.addReference()
	q.insert(entry)
	v.stats.max(&v.stats.maxEnqueuedJobs, int64(len(q.jobs)))
	q.mu.Unlock()

	if stale != nil {
		stale.chunk.releaseReference()
	}
	q.newJob.Signal()
}
