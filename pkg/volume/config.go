package volume

// Config describes one volume. Layers and the chunk edge length are
// immutable after creation; the timeouts can be changed at runtime via
// the volume's setters.
type Config struct {
	// Layers is the fixed layer registry for the volume's lifetime.
	Layers []Layer

	// ChunkEdgeLength is the edge of the chunk cube, in voxels.
	ChunkEdgeLength int

	// BaseDir locates the chunk store: a local directory, `sftp://`
	// or `redis://`. Empty disables persistence and with it every
	// load/save path.
	BaseDir string

	// Workers is the size of the I/O worker pool. 0 selects the
	// default of 4. Without a BaseDir no workers are started.
	Workers int

	// UnusedChunkTimeout is the number of seconds an unreferenced
	// chunk stays resident. Negative disables eviction.
	UnusedChunkTimeout int

	// ModifiedChunkTimeout is the number of seconds before a modified
	// chunk is written back. Negative disables automatic saving;
	// zero means write-through.
	ModifiedChunkTimeout int

	// EncryptKey is the passphrase for at-rest encryption of chunk
	// records. Empty stores plaintext.
	EncryptKey string

	// WriteLimit and ReadLimit cap the store bandwidth in bytes per
	// second; 0 means unlimited.
	WriteLimit int64
	ReadLimit  int64

	// EnableStatistics turns on the volume's operation counters.
	EnableStatistics bool

	// LogFn receives composed log lines instead of the default
	// logger when set.
	LogFn func(level LogLevel, message string)
}

// NewConfig returns a Config with the default timeouts and pool size.
func NewConfig(layers []Layer, chunkEdgeLength int, baseDir string) *Config {
	return &Config{
		Layers:               layers,
		ChunkEdgeLength:      chunkEdgeLength,
		BaseDir:              baseDir,
		Workers:              defaultWorkers,
		UnusedChunkTimeout:   4,
		ModifiedChunkTimeout: 3,
	}
}

const defaultWorkers = 4
