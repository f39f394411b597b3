package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"VoxVault/pkg/store"
	"VoxVault/pkg/volume"

	"github.com/urfave/cli/v2"
)

func printJson(v interface{}) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatalf("json: %s", err)
	}
	fmt.Println(string(output))
}

func info(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 1 {
		return fmt.Errorf("STORE-URI is needed")
	}
	blob, err := store.Create(c.Args().Get(0))
	if err != nil {
		logger.Fatalf("chunk store: %s", err)
	}

	if c.Args().Len() == 1 {
		format, err := volume.LoadFormat(blob)
		if err != nil {
			logger.Fatalf("load format: %s", err)
		}
		if format == nil {
			logger.Infof("%s carries no format record", blob)
			return nil
		}
		printJson(format)
		return nil
	}

	if c.Args().Len() < 4 {
		return fmt.Errorf("chunk coordinates CX CY CZ are needed")
	}
	var coords [3]int
	for i := 0; i < 3; i++ {
		coords[i], err = strconv.Atoi(c.Args().Get(1 + i))
		if err != nil {
			logger.Fatalf("invalid chunk coordinate %s", c.Args().Get(1+i))
		}
	}

	key := fmt.Sprintf("%d_%d_%d", coords[0], coords[1], coords[2])
	data, err := blob.Get(key)
	if err != nil {
		logger.Fatalf("%s: %s", key, err)
	}
	record, err := volume.InspectChunkFile(data)
	if err != nil {
		logger.Fatalf("%s: %s", key, err)
	}
	fmt.Printf("%s (%d bytes):\n", key, len(data))
	printJson(record)
	return nil
}

func infoFlags() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "show the format record of a store, or one chunk record",
		ArgsUsage: "STORE-URI [CX CY CZ]",
		Action:    info,
	}
}
