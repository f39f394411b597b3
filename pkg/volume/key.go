package volume

import "fmt"

// ChunkKey packs the three chunk-lattice coordinates into one 64 bit
// value. Each coordinate has to fit into 16 bits signed; the fourth
// slot stays zero.
type ChunkKey uint64

func makeChunkKey(cx, cy, cz int) ChunkKey {
	return ChunkKey(uint64(uint16(int16(cx))) |
		uint64(uint16(int16(cy)))<<16 |
		uint64(uint16(int16(cz)))<<32)
}

func (k ChunkKey) coords() (cx, cy, cz int) {
	cx = int(int16(uint16(k)))
	cy = int(int16(uint16(k >> 16)))
	cz = int(int16(uint16(k >> 32)))
	return
}

func (k ChunkKey) String() string {
	cx, cy, cz := k.coords()
	return fmt.Sprintf("%d|%d|%d", cx, cy, cz)
}

// fileName returns the store key of this chunk's record.
func (k ChunkKey) fileName() string {
	cx, cy, cz := k.coords()
	return fmt.Sprintf("%d_%d_%d", cx, cy, cz)
}
