package main

import (
	"fmt"
	"sync"
	"time"

	"VoxVault/pkg/utils"
	"VoxVault/pkg/volume"

	"github.com/google/gops/agent"
	"github.com/urfave/cli/v2"
)

func bench(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Bool("gops") {
		if err := agent.Listen(agent.Options{}); err != nil {
			logger.Warnf("gops agent: %s", err)
		}
	}

	edge := c.Int("edge")
	side := c.Int("side")
	threads := c.Int("threads")
	dir := c.String("dir")

	conf := volume.NewConfig([]volume.Layer{
		{Name: "Material", VoxelSize: 1, Revision: 1},
		{Name: "Pressure", VoxelSize: 2, Revision: 1},
	}, edge, dir)
	conf.ModifiedChunkTimeout = 0 // write through
	conf.EnableStatistics = true

	vol, err := volume.New(conf)
	if err != nil {
		logger.Fatalf("create volume: %s", err)
	}

	regions := side * side * side
	progress, bar := utils.NewDynProgressBar("writing regions: ", c.Bool("quiet"))
	bar.SetTotal(int64(regions), false)

	start := time.Now()
	var wg sync.WaitGroup
	todo := make(chan volume.Region, 1024)
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			access := vol.NewAccess()
			defer access.Close()
			for r := range todo {
				access.Select(&r)
				access.Lock(volume.ReadAccess | volume.WriteAccess)
				for z := r.Z; z < r.Z+r.D; z++ {
					for y := r.Y; y < r.Y+r.H; y++ {
						for x := r.X; x < r.X+r.W; x++ {
							access.ReadWriteVoxelLayer(x, y, z, 0)[0] = byte(x ^ y ^ z)
						}
					}
				}
				access.Unlock()
				access.Select(nil)
				bar.Increment()
			}
		}()
	}
	for cx := 0; cx < side; cx++ {
		for cy := 0; cy < side; cy++ {
			for cz := 0; cz < side; cz++ {
				todo <- volume.Region{
					X: cx * edge, Y: cy * edge, Z: cz * edge,
					W: edge, H: edge, D: edge,
				}
			}
		}
	}
	close(todo)
	wg.Wait()
	bar.SetTotal(0, true)
	progress.Wait()
	wrote := time.Since(start)

	if err = vol.Close(); err != nil {
		logger.Errorf("close volume: %s", err)
	}

	voxels := regions * edge * edge * edge
	fmt.Printf("wrote %d voxels in %s (%.0f voxels/s)\n",
		voxels, wrote, float64(voxels)/wrote.Seconds())

	ru := utils.GetRusage()
	fmt.Printf("cpu: user %.2fs, system %.2fs\n", ru.GetUtime(), ru.GetStime())
	return nil
}

func benchFlags() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "run a write benchmark against a chunk store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Value: "./voxvault-bench",
				Usage: "store URI used by the benchmark",
			},
			&cli.IntFlag{
				Name:  "edge",
				Value: 32,
				Usage: "edge length of the chunk cube in voxels",
			},
			&cli.IntFlag{
				Name:  "side",
				Value: 4,
				Usage: "benchmark volume side length, in chunks",
			},
			&cli.IntFlag{
				Name:    "threads",
				Aliases: []string{"p"},
				Value:   4,
				Usage:   "number of concurrent writers",
			},
			&cli.BoolFlag{
				Name:  "gops",
				Usage: "start a gops agent for diagnostics",
			},
		},
		Action: bench,
	}
}
