package main

import (
	"regexp"
	"strconv"
	"strings"

	"VoxVault/pkg/store"
	"VoxVault/pkg/volume"

	"github.com/urfave/cli/v2"
)

// parseLayerSpec parses a NAME:VOXELSIZE:REVISION argument.
func parseLayerSpec(s string) (volume.LayerFormat, error) {
	var l volume.LayerFormat
	parts := strings.Split(s, ":")
	l.Name = parts[0]
	l.VoxelSize = 1
	l.Revision = 1
	var err error
	if len(parts) > 1 {
		if l.VoxelSize, err = strconv.Atoi(parts[1]); err != nil {
			return l, err
		}
	}
	if len(parts) > 2 {
		if l.Revision, err = strconv.Atoi(parts[2]); err != nil {
			return l, err
		}
	}
	return l, nil
}

func format(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 1 {
		logger.Fatalf("Store URI and name are required")
	}
	uri := c.Args().Get(0)

	if c.Args().Len() < 2 {
		logger.Fatalf("Please give it a name")
	}
	name := c.Args().Get(1)
	validName := regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{1,61}[a-z0-9]$`)
	if !validName.MatchString(name) {
		logger.Fatalf("invalid name: %s, only alphabet, number and - are allowed, and the length should be 3 to 63 characters.", name)
	}

	conf := &volume.Config{
		ChunkEdgeLength: c.Int("edge"),
	}
	for _, s := range c.StringSlice("layer") {
		l, err := parseLayerSpec(s)
		if err != nil {
			logger.Fatalf("invalid layer %q: %s", s, err)
		}
		conf.Layers = append(conf.Layers, volume.Layer{
			Name:      l.Name,
			VoxelSize: l.VoxelSize,
			Revision:  l.Revision,
		})
	}
	if len(conf.Layers) == 0 {
		logger.Fatalf("at least one --layer is required")
	}

	blob, err := store.Create(uri)
	if err != nil {
		logger.Fatalf("chunk store: %s", err)
	}
	logger.Infof("Data uses %s", blob)

	if c.Bool("no-update") {
		if old, err := volume.LoadFormat(blob); err == nil && old != nil {
			return nil
		}
	}

	f := volume.NewFormat(name, conf)
	if err = f.Store(blob); err != nil {
		logger.Fatalf("format: %s", err)
	}
	logger.Infof("Volume is formatted as %+v", *f)
	return nil
}

func formatFlags() *cli.Command {
	return &cli.Command{
		Name:      "format",
		Usage:     "format a volume",
		ArgsUsage: "STORE-URI NAME",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "edge",
				Value: 32,
				Usage: "edge length of the chunk cube in voxels",
			},
			&cli.StringSliceFlag{
				Name:  "layer",
				Usage: "voxel layer as NAME:VOXELSIZE:REVISION (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "no-update",
				Usage: "don't update existing volume",
			},
		},
		Action: format,
	}
}
