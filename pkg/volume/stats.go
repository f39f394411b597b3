package volume

import "sync/atomic"

// Statistics is a snapshot of the volume's operation counters.
type Statistics struct {
	ChunkGetHits   int64
	ChunkGetMisses int64

	ChunkLoadOps   int64
	ChunkSaveOps   int64
	ChunkUnloadOps int64

	ReadOps  int64
	WriteOps int64

	MaxLoadedChunks    int64
	MaxScheduledChecks int64
	MaxEnqueuedJobs    int64
}

type statistics struct {
	enabled bool

	chunkGetHits   int64
	chunkGetMisses int64

	chunkLoadOps   int64
	chunkSaveOps   int64
	chunkUnloadOps int64

	readOps  int64
	writeOps int64

	maxLoadedChunks    int64
	maxScheduledChecks int64
	maxEnqueuedJobs    int64
}

func (s *statistics) inc(counter *int64) {
	if s.enabled {
		atomic.AddInt64(counter, 1)
	}
}

func (s *statistics) max(counter *int64, value int64) {
	if !s.enabled {
		return
	}
	for {
		old := atomic.LoadInt64(counter)
		if value <= old || atomic.CompareAndSwapInt64(counter, old, value) {
			return
		}
	}
}

// Statistics returns a snapshot of the counters, or nil when they are
// disabled.
func (v *Volume) Statistics() *Statistics {
	s := &v.stats
	if !s.enabled {
		return nil
	}
	return &Statistics{
		ChunkGetHits:       atomic.LoadInt64(&s.chunkGetHits),
		ChunkGetMisses:     atomic.LoadInt64(&s.chunkGetMisses),
		ChunkLoadOps:       atomic.LoadInt64(&s.chunkLoadOps),
		ChunkSaveOps:       atomic.LoadInt64(&s.chunkSaveOps),
		ChunkUnloadOps:     atomic.LoadInt64(&s.chunkUnloadOps),
		ReadOps:            atomic.LoadInt64(&s.readOps),
		WriteOps:           atomic.LoadInt64(&s.writeOps),
		MaxLoadedChunks:    atomic.LoadInt64(&s.maxLoadedChunks),
		MaxScheduledChecks: atomic.LoadInt64(&s.maxScheduledChecks),
		MaxEnqueuedJobs:    atomic.LoadInt64(&s.maxEnqueuedJobs),
	}
}
