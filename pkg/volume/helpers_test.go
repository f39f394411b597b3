package volume

import (
	"testing"
	"time"

	"VoxVault/pkg/store"
	"VoxVault/pkg/utils"
)

func testLayers() []Layer {
	return []Layer{
		{Name: "Material", VoxelSize: 1, Revision: 1, Serialize: CopyBytes, Deserialize: CopyBytes},
		{Name: "Pressure", VoxelSize: 1, Revision: 1, Serialize: CopyBytes, Deserialize: CopyBytes},
	}
}

// newBareVolume builds a volume without starting the scheduler or the
// worker pool, for tests that drive the internals directly. An empty
// dir disables persistence.
func newBareVolume(t *testing.T, dir string) *Volume {
	return newBareVolumeWithLayers(t, dir, testLayers(), 8)
}

func newBareVolumeWithLayers(t *testing.T, dir string, layers []Layer, edge int) *Volume {
	t.Helper()

	maxVoxelSize := 0
	for i := range layers {
		if layers[i].VoxelSize > maxVoxelSize {
			maxVoxelSize = layers[i].VoxelSize
		}
	}
	v := &Volume{
		layers:            layers,
		edge:              edge,
		voxelsPerChunk:    edge * edge * edge,
		maxLayerVoxelSize: maxVoxelSize,
		baseDir:           dir,
		chunks:            make(map[ChunkKey]*Chunk),
	}
	v.setTimeout(&v.unusedTimeout, 4)
	v.setTimeout(&v.modifiedTimeout, 3)
	v.jobs.init()
	v.reevaluate = utils.NewCond(&v.checksMu)

	if dir != "" {
		s, err := store.Create(dir)
		if err != nil {
			t.Fatalf("create store: %s", err)
		}
		v.store = s
	}
	return v
}

func newTestVolume(t *testing.T, conf *Config) *Volume {
	t.Helper()
	v, err := New(conf)
	if err != nil {
		t.Fatalf("create volume: %s", err)
	}
	return v
}

// waitFor polls until the condition holds or the deadline elapses.
func waitFor(t *testing.T, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
