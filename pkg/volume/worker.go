package volume

import (
	"runtime"
	"sync/atomic"
	"time"
)

// workerLoop pulls jobs by priority and type fairness and performs the
// disk I/O with the chunk lock held. Workers complete the jobs still
// queued at shutdown, then exit.
func (v *Volume) workerLoop() {
	defer v.workersWG.Done()

	q := &v.jobs
	for {
		q.mu.Lock()
		job := q.getJob()
		for job == nil {
			if atomic.LoadInt32(&v.stopWorkers) != 0 {
				q.mu.Unlock()
				return
			}
			q.newJob.WaitWithTimeout(time.Second)
			job = q.getJob()
		}
		q.mu.Unlock()

		v.processJob(job)

		runtime.Gosched()
	}
}

func (v *Volume) processJob(job *jobEntry) {
	c := job.chunk
	success := true

	c.mu.Lock()
	switch job.typ {
	case loadJob:
		if c.isUnused() {
			v.logf(LogWarning, "Canceled load job of chunk %s, because it's unused and would be deleted immediately.", c.key)
		} else {
			success = c.loadFromFile()
		}
	case saveJob:
		success = c.saveToFile()
	}
	c.mu.Unlock()

	q := &v.jobs
	q.mu.Lock()
	q.noteActive(job.typ, -1)
	q.mu.Unlock()

	// The job's reference goes first so that a freshly saved but
	// unused chunk is evicted by the check right away.
	c.releaseReference()
	if success {
		v.checkChunk(c.key)
	}
}
