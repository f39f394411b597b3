package volume

import (
	"sync"
	"sync/atomic"
	"time"

	"VoxVault/pkg/store"
	"VoxVault/pkg/utils"

	"github.com/pkg/errors"
)

// Chunk is the unit of residency and I/O: a cube of edge³ voxels in
// each layer. The residency map is the sole owner; accesses and job
// entries hold non-owning references tracked by the atomic count.
//
// The chunk lock guards the layer buffers and the modification
// timestamp. The reference count and the modified flag are atomics.
type Chunk struct {
	vol *Volume
	key ChunkKey

	mu         sync.Mutex
	layers     [][]byte
	modified   int32
	modifiedAt time.Duration // utils.Clock() of the first mutation

	refs int32
}

func newChunk(v *Volume, key ChunkKey) *Chunk {
	return &Chunk{
		vol:    v,
		key:    key,
		layers: make([][]byte, len(v.layers)),
	}
}

// Key returns the chunk's lattice coordinates, packed.
func (c *Chunk) Key() ChunkKey {
	return c.key
}

// Layer returns the writable buffer of layer index, allocating it zero
// filled when absent. Allocation counts as a mutation, so this always
// marks the chunk modified. The chunk lock must be held.
func (c *Chunk) Layer(index int) []byte {
	if index < 0 || index >= len(c.layers) {
		panic(errors.Errorf("layer index %d out of range", index))
	}
	if c.layers[index] == nil {
		c.layers[index] = make([]byte, c.vol.voxelsPerChunk*c.vol.layers[index].VoxelSize)
	}
	c.setModified()
	return c.layers[index]
}

// ConstLayer returns the buffer of layer index or nil when the layer is
// absent. Never allocates. The chunk lock must be held.
func (c *Chunk) ConstLayer(index int) []byte {
	if index < 0 || index >= len(c.layers) {
		panic(errors.Errorf("layer index %d out of range", index))
	}
	return c.layers[index]
}

// clearLayers drops every layer buffer. Unless silent, dropping a
// non-absent slot counts as a mutation.
func (c *Chunk) clearLayers(silent bool) {
	for i := range c.layers {
		if c.layers[i] != nil {
			c.layers[i] = nil
			if !silent {
				c.setModified()
			}
		}
	}
}

// setModified transitions clean to modified, stamping the timestamp and
// scheduling a modified check. The chunk lock must be held.
func (c *Chunk) setModified() {
	if atomic.CompareAndSwapInt32(&c.modified, 0, 1) {
		c.modifiedAt = utils.Clock()
		c.vol.scheduleCheck(checkCauseModified, c)
	}
}

// unsetModified is invoked only by a successful save.
func (c *Chunk) unsetModified() {
	atomic.StoreInt32(&c.modified, 0)
}

func (c *Chunk) isModified() bool {
	return atomic.LoadInt32(&c.modified) != 0
}

func (c *Chunk) addReference() {
	atomic.AddInt32(&c.refs, 1)
}

// releaseReference drops one reference. The last release schedules an
// unused check; destruction is left to the check, never done here.
func (c *Chunk) releaseReference() {
	refs := atomic.AddInt32(&c.refs, -1)
	if refs < 0 {
		panic(errors.Errorf("chunk %s: reference count dropped below zero", c.key))
	}
	if refs == 0 {
		c.vol.scheduleCheck(checkCauseUnused, c)
	}
}

func (c *Chunk) isUnused() bool {
	return atomic.LoadInt32(&c.refs) == 0
}

// loadFromFile reads the chunk's record from the store and populates
// the layers. Returns false when the record is absent or unreadable; a
// broken record leaves the chunk clean and empty. The chunk lock must
// be held.
func (c *Chunk) loadFromFile() bool {
	v := c.vol
	v.stats.inc(&v.stats.chunkLoadOps)

	if v.store == nil {
		return false
	}

	name := c.key.fileName()
	v.logf(LogDebug, "Loading chunk %s from %s ..", c.key, name)

	data, err := v.store.Get(name)
	if errors.Cause(err) == store.ErrNotExist {
		v.logf(LogDebug, "%s: record does not exist", name)
		return false
	}
	if err != nil {
		v.logf(LogError, "%s: %s", name, err)
		c.clearLayers(true)
		return false
	}
	if err = c.decode(data); err != nil {
		v.logf(LogError, "%s: %s", name, err)
		c.clearLayers(true)
		return false
	}
	return true
}

// saveToFile writes the chunk's record, only including present layers.
// A successful save clears the modified flag; a failed one leaves it
// set so the next check retries. The chunk lock must be held.
func (c *Chunk) saveToFile() bool {
	v := c.vol
	v.stats.inc(&v.stats.chunkSaveOps)

	if v.store == nil {
		return false
	}

	name := c.key.fileName()
	v.logf(LogDebug, "Saving chunk %s to %s ..", c.key, name)

	if err := v.store.Put(name, c.encode()); err != nil {
		v.logf(LogError, "%s: %s", name, err)
		return false
	}
	c.unsetModified()
	return true
}
