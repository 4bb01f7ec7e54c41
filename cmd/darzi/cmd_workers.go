package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/darzi-app/darzi/config"
	"github.com/darzi-app/darzi/internal/bootstrap"
	"github.com/darzi-app/darzi/internal/ops"
	"github.com/darzi-app/darzi/pkg/schedule"
)

var (
	queueWorkersFlag int
	queueOnceFlag    bool
	metricsAddrFlag  string
)

// darzi queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Deliver queued notifications",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		if queueOnceFlag {
			n, err := app.Queue.Drain(ctx)
			fmt.Printf("Processed %d job(s).\n", n)
			return err
		}

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 2
		}
		fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		app.Queue.StartWorkers(ctx, workers).Wait()
		fmt.Println("Queue worker stopped.")
		return nil
	}),
}

// darzi schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run the scheduler (daily report) and queue workers",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s := schedule.New().In(config.ShopLocation())
		if err := app.Schedule(s, config.DailyReportCron()); err != nil {
			return err
		}
		fmt.Println("Registered scheduled tasks:")
		for _, t := range s.List() {
			fmt.Println("  •", t)
		}

		workers := app.Queue.StartWorkers(ctx, 2)
		fmt.Println("Scheduler started. Press Ctrl+C to stop.")
		s.Start(ctx)
		workers.Wait()
		fmt.Println("Scheduler stopped.")
		return nil
	}),
}

// darzi metrics:serve
var metricsServeCmd = &cobra.Command{
	Use:   "metrics:serve",
	Short: "Serve /metrics and /healthz",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, app *bootstrap.App, _ []string) error {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sqlDB, err := app.DB.DB()
		if err != nil {
			return err
		}
		addr := metricsAddrFlag
		if addr == "" {
			addr = config.MetricsAddr()
		}
		fmt.Printf("Serving metrics on %s\n", addr)
		return ops.Serve(ctx, addr, ops.Handler(map[string]ops.Pinger{"database": sqlDB}))
	}),
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 2, "Number of concurrent workers")
	queueWorkCmd.Flags().BoolVar(&queueOnceFlag, "once", false, "Process what is queued, then exit")
	metricsServeCmd.Flags().StringVar(&metricsAddrFlag, "addr", "", "Listen address (default METRICS_ADDR)")
}
