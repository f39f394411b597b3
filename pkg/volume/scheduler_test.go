package volume

import (
	"testing"
	"time"

	"VoxVault/pkg/utils"
)

func TestScheduleCheckDisabled(t *testing.T) {
	v := newBareVolume(t, "")
	v.SetUnusedChunkTimeout(-1)
	v.SetModifiedChunkTimeout(-7)

	if v.UnusedChunkTimeout() != -1 || v.ModifiedChunkTimeout() != -1 {
		t.Fatalf("negative timeouts must normalize to -1")
	}

	c := newChunk(v, makeChunkKey(0, 0, 0))
	v.scheduleCheck(checkCauseUnused, c)
	v.scheduleCheck(checkCauseModified, c)

	v.checksMu.Lock()
	defer v.checksMu.Unlock()
	if len(v.checks) != 0 {
		t.Fatalf("disabled timeouts must not schedule checks, got %d", len(v.checks))
	}
}

func TestScheduleCheckStamp(t *testing.T) {
	v := newBareVolume(t, "")
	v.SetUnusedChunkTimeout(0)
	v.SetModifiedChunkTimeout(2)

	c := newChunk(v, makeChunkKey(0, 0, 0))
	before := utils.Clock()
	v.scheduleCheck(checkCauseUnused, c)
	v.scheduleCheck(checkCauseModified, c)
	after := utils.Clock()

	v.checksMu.Lock()
	defer v.checksMu.Unlock()
	if len(v.checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(v.checks))
	}
	if v.checks[0].at > after {
		t.Fatalf("zero timeout must schedule an immediate check")
	}
	if v.checks[1].at < before+2*time.Second {
		t.Fatalf("positive timeout must stamp now + seconds")
	}
}

func TestScheduleCheckAfterShutdown(t *testing.T) {
	v := newBareVolume(t, "")
	v.stopScheduler = 1

	c := newChunk(v, makeChunkKey(0, 0, 0))
	v.scheduleCheck(checkCauseUnused, c)

	v.checksMu.Lock()
	defer v.checksMu.Unlock()
	if len(v.checks) != 0 {
		t.Fatalf("scheduling after shutdown must be a no-op")
	}
}

func TestSchedulerFiresCheck(t *testing.T) {
	conf := &Config{
		Layers:               testLayers(),
		ChunkEdgeLength:      8,
		UnusedChunkTimeout:   0,
		ModifiedChunkTimeout: -1,
	}
	v := newTestVolume(t, conf)
	defer v.Close()

	// A grab and release leaves the chunk unused and clean: the
	// scheduler destroys it.
	chunks := v.grabChunks(Region{X: 0, Y: 0, Z: 0, W: 1, H: 1, D: 1}, 0)
	if v.LoadedChunks() != 1 {
		t.Fatalf("chunk should be resident after grab")
	}
	chunks[0].releaseReference()

	waitFor(t, 5*time.Second, "chunk eviction", func() bool {
		return v.LoadedChunks() == 0
	})
}
