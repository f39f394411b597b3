package volume

import (
	"sync"
	"sync/atomic"
	"time"
)

var panicMu sync.Mutex
var panicSet = make(map[*Volume]struct{})

// PanicExit flushes every live volume, best effort. Call it on
// abnormal or abrupt program termination, e.g. from a signal handler.
func PanicExit() {
	panicMu.Lock()
	defer panicMu.Unlock()
	for v := range panicSet {
		v.panicExit()
	}
	panicSet = make(map[*Volume]struct{})
}

func (v *Volume) panicExit() {
	// Write modified chunks synchronously; the workers may be stuck
	// or starved at this point.
	if v.store != nil {
		v.mu.Lock()
		chunks := make([]*Chunk, 0, len(v.chunks))
		for _, c := range v.chunks {
			chunks = append(chunks, c)
		}
		v.mu.Unlock()
		for _, c := range chunks {
			c.mu.Lock()
			if c.isModified() {
				c.saveToFile()
			}
			c.mu.Unlock()
		}
	}

	atomic.StoreInt32(&v.stopScheduler, 1)
	v.reevaluate.Broadcast()
	atomic.StoreInt32(&v.stopWorkers, 1)
	v.jobs.newJob.Broadcast()

	done := make(chan struct{})
	go func() {
		v.schedulerWG.Wait()
		v.workersWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		v.logf(LogError, "Timed out waiting for worker threads.")
	}
}
