package volume

// AccessMode is a bitmask of the operations an access allows while
// locked.
type AccessMode int

const (
	ReadAccess  AccessMode = 1 << iota
	WriteAccess
)

// Access is a caller-held handle that owns references to every chunk
// overlapping its selected region and serializes reads and writes
// through the per-chunk locks.
//
// An access must only be used by one goroutine at a time.
type Access struct {
	vol      *Volume
	priority int

	valid       bool
	region      Region
	chunkRegion Region
	chunks      []*Chunk

	locked bool
	mode   AccessMode
}

// NewAccess creates an access handle. Initially nothing is selected
// and every read or write operation fails.
func (v *Volume) NewAccess() *Access {
	return &Access{vol: v}
}

// SetPriority sets the I/O priority applied to the load jobs this
// access's selections enqueue.
func (a *Access) SetPriority(priority int) {
	a.priority = priority
}

// Select updates the selected region. The affected chunks are resolved
// and, where a record exists on the store, preloaded in the
// background. Selecting nil deselects and releases every chunk
// reference.
func (a *Access) Select(region *Region) {
	if a.locked {
		panic("selecting on a locked access")
	}

	old := a.chunks
	a.valid = false
	a.chunks = nil
	for _, c := range old {
		c.releaseReference()
	}

	if region == nil {
		return
	}
	if region.W <= 0 || region.H <= 0 || region.D <= 0 {
		panic("region dimensions must be positive")
	}

	a.valid = true
	a.region = *region
	a.chunkRegion = a.vol.VoxelToChunkRegion(*region)
	a.chunks = a.vol.grabChunks(a.chunkRegion, a.priority)
}

// Close releases the selection. Closing a locked access panics.
func (a *Access) Close() {
	if a.locked {
		panic("closing a locked access")
	}
	a.Select(nil)
}

// Lock acquires every chunk lock of the selection, in scan order. It
// blocks while an intersecting chunk is locked elsewhere, including by
// a worker currently loading or saving it.
func (a *Access) Lock(mode AccessMode) {
	if a.locked {
		panic("access is already locked")
	}
	if mode&(ReadAccess|WriteAccess) == 0 {
		panic("invalid access mode")
	}
	a.mode = mode
	for _, c := range a.chunks {
		c.mu.Lock()
	}
	a.locked = true
}

// TryLock behaves like Lock but gives up when any chunk lock is
// contended, releasing the locks already taken. Reports success.
func (a *Access) TryLock(mode AccessMode) bool {
	if a.locked {
		panic("access is already locked")
	}
	if mode&(ReadAccess|WriteAccess) == 0 {
		panic("invalid access mode")
	}
	a.mode = mode
	for i, c := range a.chunks {
		if !c.mu.TryLock() {
			for j := i - 1; j >= 0; j-- {
				a.chunks[j].mu.Unlock()
			}
			return false
		}
	}
	a.locked = true
	return true
}

// Unlock releases every chunk lock of the selection.
func (a *Access) Unlock() {
	if !a.locked {
		panic("access is not locked")
	}
	for _, c := range a.chunks {
		c.mu.Unlock()
	}
	a.locked = false
}

// ReadVoxelLayer returns the voxel's bytes in the given layer, read
// only. Returns nil when the voxel lies outside the selection, the
// access mode does not allow reading, or the layer is absent (its
// voxels are all default zero). The slice is valid only while the
// access remains locked.
func (a *Access) ReadVoxelLayer(x, y, z, layer int) []byte {
	a.vol.stats.inc(&a.vol.stats.readOps)
	return a.voxelLayer(x, y, z, layer, ReadAccess)
}

// ReadWriteVoxelLayer returns the voxel's bytes in the given layer,
// writable, allocating the layer when absent and marking the chunk
// modified. Returns nil when the voxel lies outside the selection, the
// layer index is out of range, or the access is not locked with both
// read and write access. The slice is valid only while the access
// remains locked.
func (a *Access) ReadWriteVoxelLayer(x, y, z, layer int) []byte {
	v := a.vol
	v.stats.inc(&v.stats.readOps)
	v.stats.inc(&v.stats.writeOps)
	return a.voxelLayer(x, y, z, layer, ReadAccess|WriteAccess)
}

func (a *Access) voxelLayer(x, y, z, layer int, mode AccessMode) []byte {
	v := a.vol
	if !a.locked {
		panic("access is not locked")
	}
	if a.mode&mode != mode {
		v.logf(LogError, "Access mode not allowed!")
		return nil
	}
	if !a.valid || !a.region.contains(x, y, z) {
		v.logf(LogError, "Voxel %d|%d|%d is not in the access selection.", x, y, z)
		return nil
	}
	if layer < 0 || layer >= len(v.layers) {
		v.logf(LogError, "Layer index %d is out of range.", layer)
		return nil
	}

	cx, cy, cz := v.VoxelToChunkCoords(x, y, z)
	c := a.chunks[index3D(
		a.chunkRegion.W, a.chunkRegion.H, a.chunkRegion.D,
		cx-a.chunkRegion.X, cy-a.chunkRegion.Y, cz-a.chunkRegion.Z,
	)]

	edge := v.edge
	lx, ly, lz := x-cx*edge, y-cy*edge, z-cz*edge
	voxelSize := v.layers[layer].VoxelSize
	off := voxelSize * index3D(edge, edge, edge, lx, ly, lz)

	if mode&WriteAccess != 0 {
		buf := c.Layer(layer)
		return buf[off : off+voxelSize : off+voxelSize]
	}
	buf := c.ConstLayer(layer)
	if buf == nil {
		return nil
	}
	return buf[off : off+voxelSize : off+voxelSize]
}
