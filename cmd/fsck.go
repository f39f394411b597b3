package main

import (
	"fmt"

	"VoxVault/pkg/store"
	"VoxVault/pkg/utils"
	"VoxVault/pkg/volume"

	"github.com/urfave/cli/v2"
)

func fsck(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 1 {
		return fmt.Errorf("STORE-URI is needed")
	}
	blob, err := store.Create(c.Args().Get(0))
	if err != nil {
		logger.Fatalf("chunk store: %s", err)
	}

	format, err := volume.LoadFormat(blob)
	if err != nil {
		logger.Fatalf("load format: %s", err)
	}

	keys, err := blob.List()
	if err != nil {
		logger.Fatalf("list %s: %s", blob, err)
	}

	progress, bar := utils.NewDynProgressBar("checking chunks: ", c.Bool("quiet"))
	bar.SetTotal(int64(len(keys)), false)

	var broken, checked int
	for _, key := range keys {
		if key == volume.FormatKey {
			bar.Increment()
			continue
		}
		data, err := blob.Get(key)
		if err != nil {
			logger.Errorf("%s: %s", key, err)
			broken++
			bar.Increment()
			continue
		}
		record, err := volume.InspectChunkFile(data)
		if err != nil {
			logger.Errorf("%s: %s", key, err)
			broken++
			bar.Increment()
			continue
		}
		if format != nil && record.EdgeLength != format.ChunkEdgeLength {
			logger.Errorf("%s: edge length %d does not match format (%d)", key, record.EdgeLength, format.ChunkEdgeLength)
			broken++
		} else {
			checked++
		}
		bar.Increment()
	}
	bar.SetTotal(0, true)
	progress.Wait()

	if broken > 0 {
		return fmt.Errorf("%d of %d chunk records are broken", broken, checked+broken)
	}
	logger.Infof("%d chunk records are fine", checked)
	return nil
}

func fsckFlags() *cli.Command {
	return &cli.Command{
		Name:      "fsck",
		Usage:     "check the consistency of a chunk store",
		ArgsUsage: "STORE-URI",
		Action:    fsck,
	}
}
