package volume

import (
	"sync/atomic"
	"testing"
)

func TestChunkSaveLoadRoundTrip(t *testing.T) {
	v := newBareVolume(t, t.TempDir())

	c := newChunk(v, makeChunkKey(1, 2, 3))
	c.mu.Lock()
	c.Layer(0)[0] = 42
	c.Layer(1)[0] = 100
	if !c.isModified() {
		t.Fatalf("chunk should be modified after writing layers")
	}
	if !c.saveToFile() {
		t.Fatalf("save failed")
	}
	if c.isModified() {
		t.Fatalf("chunk should be clean after a successful save")
	}
	c.mu.Unlock()

	c2 := newChunk(v, makeChunkKey(1, 2, 3))
	c2.mu.Lock()
	defer c2.mu.Unlock()
	if !c2.loadFromFile() {
		t.Fatalf("load failed")
	}
	if c2.isModified() {
		t.Fatalf("load should not modify the chunk")
	}
	if got := c2.ConstLayer(0)[0]; got != 42 {
		t.Fatalf("layer 0 byte 0 = %d, want 42", got)
	}
	if got := c2.ConstLayer(1)[0]; got != 100 {
		t.Fatalf("layer 1 byte 0 = %d, want 100", got)
	}
}

func TestChunkLoadMissingFile(t *testing.T) {
	v := newBareVolume(t, t.TempDir())

	c := newChunk(v, makeChunkKey(9, 9, 9))
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadFromFile() {
		t.Fatalf("load of a missing record should fail")
	}
	if c.isModified() {
		t.Fatalf("chunk should stay clean")
	}
	for i := 0; i < len(v.layers); i++ {
		if c.ConstLayer(i) != nil {
			t.Fatalf("layer %d should be absent", i)
		}
	}
}

func TestChunkLoadBrokenRecord(t *testing.T) {
	dir := t.TempDir()
	v := newBareVolume(t, dir)

	key := makeChunkKey(0, 0, 0)
	if err := v.store.Put(key.fileName(), []byte("not a chunk record")); err != nil {
		t.Fatalf("put: %s", err)
	}

	c := newChunk(v, key)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadFromFile() {
		t.Fatalf("load of a broken record should fail")
	}
	if c.isModified() {
		t.Fatalf("chunk should be clean after a failed load")
	}
	if c.ConstLayer(0) != nil {
		t.Fatalf("chunk should be empty after a failed load")
	}
}

func TestChunkLayerAllocation(t *testing.T) {
	v := newBareVolume(t, "")
	c := newChunk(v, makeChunkKey(0, 0, 0))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ConstLayer(0) != nil {
		t.Fatalf("layers start absent")
	}
	buf := c.Layer(0)
	if len(buf) != v.voxelsPerChunk {
		t.Fatalf("layer length = %d, want %d", len(buf), v.voxelsPerChunk)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("layer byte %d = %d, want zero filled", i, b)
		}
	}
	buf[7] = 9
	if again := c.Layer(0); &again[0] != &buf[0] {
		t.Fatalf("layer buffer must stay stable for the chunk's lifetime")
	}
}

func TestChunkClearLayers(t *testing.T) {
	v := newBareVolume(t, "")
	c := newChunk(v, makeChunkKey(0, 0, 0))

	c.mu.Lock()
	defer c.mu.Unlock()

	c.Layer(0)
	c.unsetModified()

	c.clearLayers(true)
	if c.isModified() {
		t.Fatalf("silent clear must not modify the chunk")
	}

	c.Layer(0)
	c.unsetModified()
	c.clearLayers(false)
	if !c.isModified() {
		t.Fatalf("clearing a present layer counts as a mutation")
	}
}

func TestChunkReferences(t *testing.T) {
	v := newBareVolume(t, "")
	c := newChunk(v, makeChunkKey(0, 0, 0))

	if !c.isUnused() {
		t.Fatalf("fresh chunk should be unused")
	}
	c.addReference()
	c.addReference()
	if c.isUnused() {
		t.Fatalf("referenced chunk should not be unused")
	}
	c.releaseReference()
	c.releaseReference()
	if !c.isUnused() {
		t.Fatalf("chunk should be unused after releasing every reference")
	}
	if got := atomic.LoadInt32(&c.refs); got != 0 {
		t.Fatalf("reference count = %d, want 0", got)
	}

	// The last release schedules an unused check.
	v.checksMu.Lock()
	defer v.checksMu.Unlock()
	if len(v.checks) != 1 || v.checks[0].key != c.key {
		t.Fatalf("expected one scheduled check for %s, got %v", c.key, v.checks)
	}
}
