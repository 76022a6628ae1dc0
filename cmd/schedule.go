package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/droptoken/etl/pkg/config"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
)

func ScheduleCmd() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "run the load on a cron schedule until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "cron",
				Usage:    "standard five-field cron expression, e.g. \"0 * * * *\"",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, l, closer, err := loadConfigAndLogger(c)
			if err != nil {
				printError(err, "", "Failed to start the scheduler")
				return cli.Exit("", 1)
			}
			defer closer() //nolint:errcheck

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := newLoadCommand(cfg, l)
			if err := r.Schedule(ctx, c.String("cron"), cfg, LoadOptions{ReplaceExistingData: true}); err != nil {
				printError(err, "", "Failed to schedule the load")
				return cli.Exit("", 1)
			}

			return nil
		},
	}
}

// Schedule runs the load on every tick of expr until ctx is cancelled. A tick that
// fires while the previous load is still running is skipped.
func (r *LoadCommand) Schedule(ctx context.Context, expr string, cfg *config.Config, opts LoadOptions) error {
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := sched.AddFunc(expr, func() {
		if err := r.Run(ctx, cfg, opts); err != nil {
			r.errorPrinter.Println("The scheduled load failed, waiting for the next run.")
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid cron expression '%s'", expr)
	}

	sched.Start()
	r.infoPrinter.Printf("Loading on schedule '%s', press Ctrl+C to stop.\n", expr)

	<-ctx.Done()
	<-sched.Stop().Done()

	r.infoPrinter.Println("Scheduler stopped.")
	return nil
}
