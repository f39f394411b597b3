package volume

import (
	"sync"
	"sync/atomic"
	"time"

	"VoxVault/pkg/store"
	"VoxVault/pkg/utils"

	"github.com/pkg/errors"
)

// Volume owns the residency map of live chunks, the deferred-check
// scheduler and the I/O worker pool. Callers reach voxels through an
// Access.
type Volume struct {
	layers            []Layer
	edge              int
	voxelsPerChunk    int
	maxLayerVoxelSize int

	baseDir string
	store   store.ChunkStore

	// volume lock: guards the residency map and serves as the
	// consistent point where grab-side reference priming and
	// check-side eviction race. Never held during chunk payload I/O.
	mu     sync.Mutex
	chunks map[ChunkKey]*Chunk

	unusedTimeout   int32
	modifiedTimeout int32

	checksMu      sync.Mutex
	checks        []scheduledCheck
	reevaluate    *utils.Cond
	stopScheduler int32
	schedulerWG   sync.WaitGroup

	jobs        jobQueue
	stopWorkers int32
	workersWG   sync.WaitGroup

	logMu sync.Mutex
	logFn func(LogLevel, string)

	stats  statistics
	closed int32
}

// New creates a volume, validates its layer registry, opens the chunk
// store and starts the worker pool and the scheduler.
func New(conf *Config) (*Volume, error) {
	if conf.ChunkEdgeLength <= 0 {
		return nil, errors.Errorf("chunk edge length %d is not positive", conf.ChunkEdgeLength)
	}
	if len(conf.Layers) == 0 {
		return nil, errors.New("no layers registered")
	}

	v := &Volume{
		layers:         append([]Layer(nil), conf.Layers...),
		edge:           conf.ChunkEdgeLength,
		voxelsPerChunk: conf.ChunkEdgeLength * conf.ChunkEdgeLength * conf.ChunkEdgeLength,
		baseDir:        conf.BaseDir,
		chunks:         make(map[ChunkKey]*Chunk),
		logFn:          conf.LogFn,
	}
	v.stats.enabled = conf.EnableStatistics

	seen := make(map[string]bool)
	for i := range v.layers {
		layer := &v.layers[i]
		if err := layer.validate(); err != nil {
			return nil, err
		}
		if seen[layer.Name] {
			return nil, errors.Errorf("duplicate layer name %q", layer.Name)
		}
		seen[layer.Name] = true
		if layer.Serialize == nil {
			layer.Serialize = CopyBytes
		}
		if layer.Deserialize == nil {
			layer.Deserialize = CopyBytes
		}
		if layer.VoxelSize > v.maxLayerVoxelSize {
			v.maxLayerVoxelSize = layer.VoxelSize
		}
	}

	v.setTimeout(&v.unusedTimeout, conf.UnusedChunkTimeout)
	v.setTimeout(&v.modifiedTimeout, conf.ModifiedChunkTimeout)

	if conf.BaseDir != "" {
		s, err := store.Create(conf.BaseDir)
		if err != nil {
			return nil, err
		}
		if conf.EncryptKey != "" {
			enc, err := store.NewAESEncryptor(conf.EncryptKey)
			if err != nil {
				return nil, err
			}
			s = store.NewEncrypted(s, enc)
		}
		if conf.WriteLimit > 0 || conf.ReadLimit > 0 {
			s = store.NewLimited(s, conf.WriteLimit, conf.ReadLimit)
		}
		format, err := LoadFormat(s)
		if err != nil {
			return nil, err
		}
		if format != nil {
			if err = format.check(conf); err != nil {
				return nil, err
			}
		}
		v.store = s
	}

	v.jobs.init()
	v.reevaluate = utils.NewCond(&v.checksMu)

	v.schedulerWG.Add(1)
	go v.schedulerLoop()

	if v.store != nil {
		workers := conf.Workers
		if workers <= 0 {
			workers = defaultWorkers
		}
		for i := 0; i < workers; i++ {
			v.workersWG.Add(1)
			go v.workerLoop()
		}
	}

	panicMu.Lock()
	panicSet[v] = struct{}{}
	panicMu.Unlock()

	return v, nil
}

func (v *Volume) setTimeout(dst *int32, seconds int) {
	if seconds < 0 {
		seconds = -1
	}
	atomic.StoreInt32(dst, int32(seconds))
}

// LayerCount returns the amount of voxel layers registered.
func (v *Volume) LayerCount() int {
	return len(v.layers)
}

// Layer returns the layer definition at index. The returned spec is
// read only.
func (v *Volume) Layer(index int) *Layer {
	if index < 0 || index >= len(v.layers) {
		return nil
	}
	return &v.layers[index]
}

// LayerIndexByName returns the index of the named layer, or -1.
func (v *Volume) LayerIndexByName(name string) int {
	for i := range v.layers {
		if v.layers[i].Name == name {
			return i
		}
	}
	return -1
}

// ChunkEdgeLength returns the edge length of the chunk cube.
func (v *Volume) ChunkEdgeLength() int {
	return v.edge
}

// VoxelsPerChunk returns edge³.
func (v *Volume) VoxelsPerChunk() int {
	return v.voxelsPerChunk
}

// MaxLayerVoxelSize returns the largest voxel size of any layer.
func (v *Volume) MaxLayerVoxelSize() int {
	return v.maxLayerVoxelSize
}

// BaseDir returns the store URI, or "" when persistence is disabled.
func (v *Volume) BaseDir() string {
	return v.baseDir
}

// SetUnusedChunkTimeout sets the seconds an unreferenced chunk stays
// resident. Negative disables eviction.
func (v *Volume) SetUnusedChunkTimeout(seconds int) {
	v.setTimeout(&v.unusedTimeout, seconds)
}

// UnusedChunkTimeout returns the timeout, or -1 if disabled.
func (v *Volume) UnusedChunkTimeout() int {
	return int(atomic.LoadInt32(&v.unusedTimeout))
}

// SetModifiedChunkTimeout sets the seconds before a modified chunk is
// written back. Negative disables automatic saving; zero means
// write-through.
func (v *Volume) SetModifiedChunkTimeout(seconds int) {
	v.setTimeout(&v.modifiedTimeout, seconds)
}

// ModifiedChunkTimeout returns the timeout, or -1 if disabled.
func (v *Volume) ModifiedChunkTimeout() int {
	return int(atomic.LoadInt32(&v.modifiedTimeout))
}

func (v *Volume) chunkFileExists(key ChunkKey) bool {
	if v.store == nil {
		return false
	}
	return v.store.Exists(key.fileName())
}

// getOrCreateChunk resolves one chunk, creating it when absent. A new
// chunk with a record on the store gets a load job at the given
// priority. Caller holds the volume lock.
func (v *Volume) getOrCreateChunk(cx, cy, cz, priority int) *Chunk {
	key := makeChunkKey(cx, cy, cz)
	if c, ok := v.chunks[key]; ok {
		v.stats.inc(&v.stats.chunkGetHits)
		return c
	}
	v.stats.inc(&v.stats.chunkGetMisses)

	c := newChunk(v, key)
	if v.chunkFileExists(key) {
		v.logf(LogDebug, "Try loading chunk %s ..", key)
		v.addJob(loadJob, priority, c)
	}
	v.chunks[key] = c
	v.stats.max(&v.stats.maxLoadedChunks, int64(len(v.chunks)))
	return c
}

// grabChunks resolves every chunk of the region in index3D order and
// primes one reference per returned chunk. The references are added
// while the volume lock is still held, so a concurrent check cannot
// observe them unused and destroy them before the caller secures its
// handle.
func (v *Volume) grabChunks(chunkRegion Region, priority int) []*Chunk {
	out := make([]*Chunk, chunkRegion.count())

	v.mu.Lock()
	for x := 0; x < chunkRegion.W; x++ {
		for y := 0; y < chunkRegion.H; y++ {
			for z := 0; z < chunkRegion.D; z++ {
				c := v.getOrCreateChunk(
					chunkRegion.X+x,
					chunkRegion.Y+y,
					chunkRegion.Z+z,
					priority,
				)
				out[index3D(chunkRegion.W, chunkRegion.H, chunkRegion.D, x, y, z)] = c
			}
		}
	}
	for _, c := range out {
		c.addReference()
	}
	v.mu.Unlock()

	return out
}

// checkChunk runs the residency decision for one chunk: enqueue a save
// when the modified timeout has elapsed (or write-through or shutdown
// demand it), or erase and destroy the chunk when it is unused and
// clean. This is the only path that destroys a chunk. Returns true
// when the chunk was destroyed.
func (v *Volume) checkChunk(key ChunkKey) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	c := v.chunks[key]
	if c == nil {
		return false
	}

	c.mu.Lock()

	unload := c.isUnused()
	save := false
	if c.isModified() && v.store != nil {
		timeout := v.ModifiedChunkTimeout()
		switch {
		case timeout < 0:
			// Automatic saving is disabled.
		case timeout == 0 || v.isStoppingWorkers():
			save = true
		case utils.Clock()-c.modifiedAt >= time.Duration(timeout)*time.Second:
			save = true
		}
	}

	if save {
		v.addJob(saveJob, 0, c)
		c.mu.Unlock()
		return false
	}
	if unload && !c.isModified() {
		v.stats.inc(&v.stats.chunkUnloadOps)
		v.logf(LogDebug, "Unloading chunk %s ...", key)
		delete(v.chunks, key)
		c.mu.Unlock()
		return true
	}

	c.mu.Unlock()
	return false
}

// SaveModifiedChunks enqueues a save for every currently modified
// chunk, at minimum priority. A no-op when persistence is disabled.
func (v *Volume) SaveModifiedChunks() {
	if v.store == nil {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range v.chunks {
		c.mu.Lock()
		if c.isModified() {
			v.addJob(saveJob, 0, c)
		}
		c.mu.Unlock()
	}
}

// LoadedChunks returns the size of the residency map.
func (v *Volume) LoadedChunks() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.chunks)
}

// Close flushes modified chunks, stops the scheduler and the workers
// and destroys the residency map. Every access of this volume must be
// closed first.
func (v *Volume) Close() error {
	if !atomic.CompareAndSwapInt32(&v.closed, 0, 1) {
		return errors.New("volume is already closed")
	}

	v.checksMu.Lock()
	v.logf(LogDebug, "%d scheduled checks.", len(v.checks))
	v.checksMu.Unlock()

	atomic.StoreInt32(&v.stopScheduler, 1)
	v.reevaluate.Broadcast()
	v.schedulerWG.Wait()

	v.SaveModifiedChunks()

	v.jobs.mu.Lock()
	v.logf(LogDebug, "%d enqueued jobs.", len(v.jobs.jobs))
	v.jobs.mu.Unlock()

	atomic.StoreInt32(&v.stopWorkers, 1)
	v.jobs.newJob.Broadcast()
	v.workersWG.Wait()

	var err error
	v.mu.Lock()
	for key, c := range v.chunks {
		if !c.isUnused() {
			err = errors.Errorf("chunk %s is still referenced at destruction", key)
			v.logf(LogError, "Chunk %s is still referenced at destruction.", key)
		}
		if c.isModified() && v.store != nil {
			v.logf(LogError, "Chunk %s is still modified at destruction.", key)
		}
		delete(v.chunks, key)
	}
	v.mu.Unlock()

	panicMu.Lock()
	delete(panicSet, v)
	panicMu.Unlock()

	return err
}

func (v *Volume) isStoppingWorkers() bool {
	return atomic.LoadInt32(&v.stopWorkers) != 0
}
