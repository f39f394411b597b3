package volume

import (
	"sync/atomic"
	"time"

	"VoxVault/pkg/utils"
)

type checkCause int

const (
	checkCauseUnused checkCause = iota
	checkCauseModified
)

// scheduledCheck asks for a residency decision on one chunk at the
// given moment. It carries the key, not a reference: the chunk may be
// gone by the time the check fires, which checkChunk tolerates.
type scheduledCheck struct {
	at  time.Duration // utils.Clock() based
	key ChunkKey
}

// scheduleCheck translates the cause into a wait duration and enqueues
// the check. A negative timeout disables the behaviour; zero schedules
// an immediate check.
func (v *Volume) scheduleCheck(cause checkCause, c *Chunk) {
	var seconds int
	switch cause {
	case checkCauseUnused:
		seconds = v.UnusedChunkTimeout()
	case checkCauseModified:
		seconds = v.ModifiedChunkTimeout()
	}
	if seconds < 0 {
		return
	}
	v.scheduleCheckIn(c.key, time.Duration(seconds)*time.Second)
}

func (v *Volume) scheduleCheckIn(key ChunkKey, wait time.Duration) {
	if atomic.LoadInt32(&v.stopScheduler) != 0 {
		return
	}

	check := scheduledCheck{at: utils.Clock() + wait, key: key}

	v.checksMu.Lock()
	v.checks = append(v.checks, check)
	v.stats.max(&v.stats.maxScheduledChecks, int64(len(v.checks)))
	v.checksMu.Unlock()

	v.reevaluate.Signal()
}

// schedulerLoop drains the check FIFO, one entry at a time, waiting
// until each entry is due. Enqueue durations are near-constant per
// cause, so insertion order is already fire order. Shutdown cuts every
// wait short and the remaining checks run immediately.
func (v *Volume) schedulerLoop() {
	defer v.schedulerWG.Done()

	const noWaitEpsilon = 100 * time.Millisecond

	for {
		var check scheduledCheck

		v.checksMu.Lock()
		for len(v.checks) == 0 {
			if atomic.LoadInt32(&v.stopScheduler) != 0 {
				v.checksMu.Unlock()
				return
			}
			v.reevaluate.WaitWithTimeout(time.Second)
		}
		check = v.checks[0]
		v.checks = v.checks[1:]

		for atomic.LoadInt32(&v.stopScheduler) == 0 {
			wait := check.at - utils.Clock()
			if wait <= noWaitEpsilon {
				break
			}
			if v.reevaluate.WaitWithTimeout(wait) {
				break // due
			}
		}
		v.checksMu.Unlock()

		v.checkChunk(check.key)
	}
}
