package volume

import (
	"testing"
)

func newTestAccessVolume(t *testing.T) *Volume {
	t.Helper()
	return newTestVolume(t, &Config{
		Layers:               testLayers(),
		ChunkEdgeLength:      8,
		UnusedChunkTimeout:   -1,
		ModifiedChunkTimeout: -1,
	})
}

func TestAccessOutsideSelection(t *testing.T) {
	v := newTestAccessVolume(t)
	defer v.Close()

	a := v.NewAccess()
	defer a.Close()
	a.Select(&Region{X: 0, Y: 0, Z: 0, W: 8, H: 8, D: 8})
	a.Lock(ReadAccess | WriteAccess)
	defer a.Unlock()

	if a.ReadWriteVoxelLayer(8, 0, 0, 0) != nil {
		t.Fatalf("a voxel outside the selection must yield nil")
	}
	if a.ReadVoxelLayer(0, -1, 0, 0) != nil {
		t.Fatalf("a voxel outside the selection must yield nil")
	}
	if a.ReadVoxelLayer(0, 0, 0, 99) != nil {
		t.Fatalf("an out-of-range layer must yield nil")
	}
}

func TestAccessWrongMode(t *testing.T) {
	v := newTestAccessVolume(t)
	defer v.Close()

	a := v.NewAccess()
	defer a.Close()
	a.Select(&Region{X: 0, Y: 0, Z: 0, W: 8, H: 8, D: 8})

	a.Lock(ReadAccess)
	if a.ReadWriteVoxelLayer(0, 0, 0, 0) != nil {
		t.Fatalf("writing through a read lock must yield nil")
	}
	a.Unlock()

	a.Lock(WriteAccess)
	if a.ReadVoxelLayer(0, 0, 0, 0) != nil {
		t.Fatalf("reading through a write-only lock must yield nil")
	}
	a.Unlock()
}

func TestReadAbsentLayer(t *testing.T) {
	v := newTestAccessVolume(t)
	defer v.Close()

	a := v.NewAccess()
	defer a.Close()
	a.Select(&Region{X: 0, Y: 0, Z: 0, W: 8, H: 8, D: 8})
	a.Lock(ReadAccess)
	defer a.Unlock()

	// Reads never allocate: an absent layer yields nil and the caller
	// treats its voxels as default zero.
	if a.ReadVoxelLayer(0, 0, 0, 0) != nil {
		t.Fatalf("an absent layer must yield nil")
	}
}

func TestNegativeCoordinates(t *testing.T) {
	v := newTestAccessVolume(t)
	defer v.Close()

	a := v.NewAccess()
	defer a.Close()
	a.Select(&Region{X: -16, Y: -16, Z: -16, W: 32, H: 32, D: 32})
	a.Lock(ReadAccess | WriteAccess)

	// Voxels on both sides of the origin land in distinct chunks and
	// distinct cells.
	a.ReadWriteVoxelLayer(-1, -1, -1, 0)[0] = 5
	a.ReadWriteVoxelLayer(0, 0, 0, 0)[0] = 6
	a.ReadWriteVoxelLayer(-9, 0, 0, 0)[0] = 7

	if got := a.ReadVoxelLayer(-1, -1, -1, 0); got[0] != 5 {
		t.Fatalf("voxel -1|-1|-1 = %d, want 5", got[0])
	}
	if got := a.ReadVoxelLayer(0, 0, 0, 0); got[0] != 6 {
		t.Fatalf("voxel 0|0|0 = %d, want 6", got[0])
	}
	if got := a.ReadVoxelLayer(-9, 0, 0, 0); got[0] != 7 {
		t.Fatalf("voxel -9|0|0 = %d, want 7", got[0])
	}
	a.Unlock()
}

func TestTryLockContention(t *testing.T) {
	v := newTestAccessVolume(t)
	defer v.Close()

	region := Region{X: 0, Y: 0, Z: 0, W: 8, H: 8, D: 8}

	a1 := v.NewAccess()
	defer a1.Close()
	a1.Select(&region)

	a2 := v.NewAccess()
	defer a2.Close()
	a2.Select(&region)

	a1.Lock(WriteAccess)
	if a2.TryLock(ReadAccess) {
		t.Fatalf("try-lock of a locked region must fail")
	}
	a1.Unlock()

	if !a2.TryLock(ReadAccess) {
		t.Fatalf("try-lock of a free region must succeed")
	}
	a2.Unlock()
}

func TestAccessContractViolations(t *testing.T) {
	v := newTestAccessVolume(t)
	defer v.Close()

	a := v.NewAccess()
	defer a.Close()
	a.Select(&Region{X: 0, Y: 0, Z: 0, W: 8, H: 8, D: 8})

	expectPanic := func(what string, fn func()) {
		defer func() {
			if recover() == nil {
				t.Fatalf("%s must panic", what)
			}
		}()
		fn()
	}

	expectPanic("unlock without lock", func() { a.Unlock() })

	a.Lock(ReadAccess)
	expectPanic("double lock", func() { a.Lock(ReadAccess) })
	expectPanic("select while locked", func() { a.Select(nil) })
	expectPanic("close while locked", func() { a.Close() })
	a.Unlock()
}

func TestAccessReferenceLifecycle(t *testing.T) {
	v := newTestAccessVolume(t)
	defer v.Close()

	a := v.NewAccess()
	a.Select(&Region{X: 0, Y: 0, Z: 0, W: 8, H: 8, D: 8})

	v.mu.Lock()
	c := v.chunks[makeChunkKey(0, 0, 0)]
	v.mu.Unlock()
	if c == nil {
		t.Fatalf("grabbed chunk is resident")
	}
	if c.isUnused() {
		t.Fatalf("selected chunk holds a reference")
	}

	a.Close()
	if !c.isUnused() {
		t.Fatalf("deselecting drops the reference")
	}
}

func BenchmarkReadWriteVoxel(b *testing.B) {
	v, err := New(&Config{
		Layers:               testLayers(),
		ChunkEdgeLength:      32,
		UnusedChunkTimeout:   -1,
		ModifiedChunkTimeout: -1,
	})
	if err != nil {
		b.Fatalf("create volume: %s", err)
	}
	defer v.Close()

	a := v.NewAccess()
	defer a.Close()
	a.Select(&Region{X: 0, Y: 0, Z: 0, W: 64, H: 64, D: 64})
	a.Lock(ReadAccess | WriteAccess)
	defer a.Unlock()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x := i & 63
		y := (i >> 6) & 63
		z := (i >> 12) & 63
		a.ReadWriteVoxelLayer(x, y, z, 0)[0] = byte(i)
	}
}
