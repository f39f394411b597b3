package volume

import (
	"encoding/json"

	"VoxVault/pkg/store"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FormatKey is the reserved store key of the volume format record.
const FormatKey = ".voxvault-format"

// LayerFormat is the persisted part of a layer spec.
type LayerFormat struct {
	Name      string
	VoxelSize int
	Revision  int
}

// Format is the volume format record, written by `voxvault format`.
// When a store carries one, volume creation validates the chunk edge
// length and the layer registry against it.
type Format struct {
	Name            string
	UUID            string
	ChunkEdgeLength int
	Layers          []LayerFormat
}

// NewFormat builds a format record for the given configuration.
func NewFormat(name string, conf *Config) *Format {
	f := &Format{
		Name:            name,
		UUID:            uuid.New().String(),
		ChunkEdgeLength: conf.ChunkEdgeLength,
	}
	for _, l := range conf.Layers {
		f.Layers = append(f.Layers, LayerFormat{l.Name, l.VoxelSize, l.Revision})
	}
	return f
}

// LoadFormat reads the format record of a store. Returns nil without
// error when the store has none.
func LoadFormat(s store.ChunkStore) (*Format, error) {
	data, err := s.Get(FormatKey)
	if errors.Cause(err) == store.ErrNotExist {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var f Format
	if err = json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse format record")
	}
	return &f, nil
}

// Store writes the format record.
func (f *Format) Store(s store.ChunkStore) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return s.Put(FormatKey, data)
}

// check validates a configuration against the record.
func (f *Format) check(conf *Config) error {
	if f.ChunkEdgeLength != conf.ChunkEdgeLength {
		return errors.Errorf("chunk edge length %d does not match formatted volume %s (%d)",
			conf.ChunkEdgeLength, f.Name, f.ChunkEdgeLength)
	}
	for _, l := range conf.Layers {
		for _, fl := range f.Layers {
			if fl.Name != l.Name {
				continue
			}
			if fl.VoxelSize != l.VoxelSize || fl.Revision != l.Revision {
				return errors.Errorf("layer %s (%d rev %d) does not match formatted volume %s (%d rev %d)",
					l.Name, l.VoxelSize, l.Revision, f.Name, fl.VoxelSize, fl.Revision)
			}
			break
		}
	}
	return nil
}
