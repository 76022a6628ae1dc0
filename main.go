package main

import (
	"os"
	"time"

	"github.com/droptoken/etl/cmd"
	"github.com/droptoken/etl/pkg/config"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = ""
)

func main() {
	color.NoColor = false

	versionCommand := cmd.VersionCmd(commit)

	cli.VersionPrinter = func(cCtx *cli.Context) {
		err := versionCommand.Action(cCtx)
		if err != nil {
			panic(err)
		}
	}

	app := &cli.App{
		Name:     "droptoken",
		Version:  version,
		Usage:    "Load Drop Token game and player data into a PostgreSQL warehouse",
		Compiled: time.Now(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultConfigFile,
				Usage:   "path to the configuration file",
				EnvVars: []string{"DROPTOKEN_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			cmd.LoadCmd(),
			cmd.ScheduleCmd(),
			cmd.ResetCmd(),
			cmd.InitCmd(),
			cmd.ReportCmd(),
			cmd.SummaryCmd(),
			cmd.ConfigCmd(),
			versionCommand,
		},
	}

	defer cmd.RecoverFromPanic()

	_ = app.Run(os.Args)
}
