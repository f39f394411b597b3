package volume

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Chunk record format, version 1. All integers little endian.
//
//	Header:
//	    uint32 version
//	    uint32 edgeLength
//	    uint32 layerCount            (present layers only)
//	    [
//	        char[32] name            (null padded)
//	        uint32 voxelSize
//	        uint32 revision
//	        uint32 fileOffset        (absolute)
//	    ]
//	Layer payloads follow at the offsets given by the directory, in
//	registration order among the present layers.
const (
	chunkFileVersion = 1
	chunkHeaderSize  = 12
	layerNameSize    = MaxLayerNameLength + 1
	layerInfoSize    = layerNameSize + 12
)

type fileLayerInfo struct {
	name       string
	voxelSize  int
	revision   int
	fileOffset int
}

// encode serializes the present layers into a chunk record. The chunk
// lock must be held.
func (c *Chunk) encode() []byte {
	v := c.vol

	present := 0
	payload := 0
	for i := range c.layers {
		if c.layers[i] != nil {
			present++
			payload += v.voxelsPerChunk * v.layers[i].VoxelSize
		}
	}
	headerSize := chunkHeaderSize + present*layerInfoSize

	buf := make([]byte, headerSize+payload)
	binary.LittleEndian.PutUint32(buf[0:], chunkFileVersion)
	binary.LittleEndian.PutUint32(buf[4:], uint32(v.edge))
	binary.LittleEndian.PutUint32(buf[8:], uint32(present))

	ent := chunkHeaderSize
	off := headerSize
	for i := range c.layers {
		if c.layers[i] == nil {
			continue
		}
		layer := &v.layers[i]
		size := v.voxelsPerChunk * layer.VoxelSize

		copy(buf[ent:ent+layerNameSize-1], layer.Name)
		binary.LittleEndian.PutUint32(buf[ent+layerNameSize:], uint32(layer.VoxelSize))
		binary.LittleEndian.PutUint32(buf[ent+layerNameSize+4:], uint32(layer.Revision))
		binary.LittleEndian.PutUint32(buf[ent+layerNameSize+8:], uint32(off))

		layer.Serialize(c.layers[i], buf[off:off+size])

		ent += layerInfoSize
		off += size
	}
	return buf
}

// decode populates the chunk's layers from a record. Layers named in
// the record but not registered are ignored with an INFO log; layers
// whose voxel size or revision disagree with the registry are skipped
// with an ERROR log. The chunk lock must be held.
func (c *Chunk) decode(data []byte) error {
	v := c.vol

	edge, infos, err := parseChunkHeader(data)
	if err != nil {
		return err
	}
	if edge != v.edge {
		return errors.Errorf("edge length %d does not match volume (%d)", edge, v.edge)
	}

	for i := range infos {
		if v.LayerIndexByName(infos[i].name) == -1 {
			v.logf(LogInfo, "Ignoring chunk layer '%s'.", infos[i].name)
		}
	}

	for i := range v.layers {
		layer := &v.layers[i]
		info := findFileLayerByName(infos, layer.Name)
		if info == nil {
			continue
		}
		if info.voxelSize != layer.VoxelSize || info.revision != layer.Revision {
			v.logf(LogError, "Chunk layer '%s' differs, ignoring it.", layer.Name)
			continue
		}
		size := v.voxelsPerChunk * layer.VoxelSize
		if info.fileOffset < 0 || info.fileOffset+size > len(data) {
			return errors.Errorf("read error in layer %s", layer.Name)
		}
		buf := make([]byte, size)
		layer.Deserialize(data[info.fileOffset:info.fileOffset+size], buf)
		c.layers[i] = buf
	}
	return nil
}

// parseChunkHeader validates the header and returns the edge length
// and the layer directory.
func parseChunkHeader(data []byte) (int, []fileLayerInfo, error) {
	if len(data) < chunkHeaderSize {
		return 0, nil, errors.New("read error in file header")
	}
	version := binary.LittleEndian.Uint32(data[0:])
	edgeLength := binary.LittleEndian.Uint32(data[4:])
	layerCount := binary.LittleEndian.Uint32(data[8:])

	if version != chunkFileVersion {
		return 0, nil, errors.Errorf("incorrect file version %d", version)
	}
	if len(data) < chunkHeaderSize+int(layerCount)*layerInfoSize {
		return 0, nil, errors.New("read error in layer directory")
	}

	infos := make([]fileLayerInfo, layerCount)
	for i := range infos {
		ent := data[chunkHeaderSize+i*layerInfoSize:]
		name := ent[:layerNameSize-1]
		if j := bytes.IndexByte(name, 0); j >= 0 {
			name = name[:j]
		}
		infos[i] = fileLayerInfo{
			name:       string(name),
			voxelSize:  int(binary.LittleEndian.Uint32(ent[layerNameSize:])),
			revision:   int(binary.LittleEndian.Uint32(ent[layerNameSize+4:])),
			fileOffset: int(binary.LittleEndian.Uint32(ent[layerNameSize+8:])),
		}
	}
	return int(edgeLength), infos, nil
}

// ChunkFileLayer is one layer directory entry of an inspected chunk
// record.
type ChunkFileLayer struct {
	Name       string
	VoxelSize  int
	Revision   int
	FileOffset int
}

// ChunkFileInfo is the decoded header of a chunk record.
type ChunkFileInfo struct {
	Version    int
	EdgeLength int
	Layers     []ChunkFileLayer
}

// InspectChunkFile decodes a chunk record's header and layer directory
// without needing a volume.
func InspectChunkFile(data []byte) (*ChunkFileInfo, error) {
	edge, infos, err := parseChunkHeader(data)
	if err != nil {
		return nil, err
	}
	info := &ChunkFileInfo{Version: chunkFileVersion, EdgeLength: edge}
	for i := range infos {
		info.Layers = append(info.Layers, ChunkFileLayer{
			Name:       infos[i].name,
			VoxelSize:  infos[i].voxelSize,
			Revision:   infos[i].revision,
			FileOffset: infos[i].fileOffset,
		})
	}
	return info, nil
}

func findFileLayerByName(infos []fileLayerInfo, name string) *fileLayerInfo {
	for i := range infos {
		if infos[i].name == name {
			return &infos[i]
		}
	}
	return nil
}
