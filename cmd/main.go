package main

import (
	"os"

	"VoxVault/pkg/utils"
	"VoxVault/pkg/version"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var logger = utils.GetLogger("voxvault")

func main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name: "version", Aliases: []string{"V"},
		Usage: "print only the version",
	}
	app := &cli.App{
		Name:                 "voxvault",
		Usage:                "a concurrent out-of-core voxel storage engine",
		Version:              version.Version(),
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"debug", "v"},
				Usage:   "enable debug log",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "only warning and errors",
			},
		},
		Commands: []*cli.Command{
			formatFlags(),
			infoFlags(),
			fsckFlags(),
			benchFlags(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		logger.Fatalf("%s", err)
	}
}

func setLoggerLevel(c *cli.Context) {
	if c.Bool("verbose") {
		utils.SetLogLevel(logrus.DebugLevel)
	} else if c.Bool("quiet") {
		utils.SetLogLevel(logrus.WarnLevel)
	} else {
		utils.SetLogLevel(logrus.InfoLevel)
	}
}
