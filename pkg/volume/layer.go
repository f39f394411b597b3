package volume

import (
	"github.com/pkg/errors"
)

// MaxLayerNameLength is the longest layer name that fits the chunk
// file's layer directory.
const MaxLayerNameLength = 31

// CopyFunc converts voxels between their in-memory and portable
// representation. Source and destination have the same length, a whole
// layer's worth of voxels. The portable representation is little
// endian, so on most machines a plain copy is enough.
type CopyFunc func(src, dst []byte)

// CopyBytes is the identity CopyFunc.
func CopyBytes(src, dst []byte) {
	copy(dst, src)
}

// Layer describes one parallel attribute dimension of a volume. Layers
// are fixed at volume creation; their index is the in-memory identifier.
type Layer struct {
	// Name identifies the layer, also in chunk files.
	Name string

	// VoxelSize is the bytes a single voxel of this layer occupies.
	VoxelSize int

	// Revision of the layer format. A chunk file layer is only
	// accepted when name, voxel size and revision match exactly.
	Revision int

	// Serialize converts voxels into their portable representation,
	// e.g. when saving them to disk. Defaults to CopyBytes.
	Serialize CopyFunc

	// Deserialize converts voxels from their portable representation,
	// e.g. when loading them from disk. Defaults to CopyBytes.
	Deserialize CopyFunc
}

func (l *Layer) validate() error {
	if l.Name == "" {
		return errors.New("layer name is empty")
	}
	if len(l.Name) > MaxLayerNameLength {
		return errors.Errorf("layer name %q is longer than %d bytes", l.Name, MaxLayerNameLength)
	}
	if l.VoxelSize <= 0 {
		return errors.Errorf("layer %s: voxel size %d is not positive", l.Name, l.VoxelSize)
	}
	if l.Revision <= 0 {
		return errors.Errorf("layer %s: revision %d is not positive", l.Name, l.Revision)
	}
	return nil
}
