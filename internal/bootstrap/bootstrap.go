// Package bootstrap wires configuration, storage and services into an App
// that the CLI commands share.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/darzi-app/darzi/app/exporters"
	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/notifications"
	"github.com/darzi-app/darzi/app/repositories"
	"github.com/darzi-app/darzi/app/services"
	"github.com/darzi-app/darzi/config"
	"github.com/darzi-app/darzi/pkg/cache"
	"github.com/darzi-app/darzi/pkg/database"
	"github.com/darzi-app/darzi/pkg/event"
	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/mail"
	"github.com/darzi-app/darzi/pkg/notification"
	"github.com/darzi-app/darzi/pkg/queue"
	"github.com/darzi-app/darzi/pkg/schedule"
	"github.com/darzi-app/darzi/pkg/storage"
	"github.com/darzi-app/darzi/pkg/tracing"
	"github.com/darzi-app/darzi/pkg/workerpool"

	_ "github.com/darzi-app/darzi/database/migrations"
)

// Deps are the infrastructure pieces an App is assembled from.
type Deps struct {
	DB      *gorm.DB
	Cache   cache.Cache // nil disables category caching
	Disk    storage.Disk
	Queue   *queue.Manager
	Sender  notifications.Sender
	Options []services.Option

	Shop      string
	ReportDir string

	// DrainOnClose delivers queued jobs in Close. Set it for the
	// in-process queue, whose jobs would otherwise die with the command.
	DrainOnClose bool
}

// App holds the services and the infrastructure behind them.
type App struct {
	DB       *gorm.DB
	Store    repositories.Store
	Queue    *queue.Manager
	Bus      *event.Bus
	Exporter *exporters.StorageExporter

	Customers  *services.CustomerService
	Categories *services.CategoryService
	Orders     *services.OrderService
	Reports    *services.ReportService
	Dashboard  *services.DashboardService

	pool       *workerpool.Pool
	drainOnEnd bool
	closers    []func()
}

// New assembles an App from d.
func New(d Deps) *App {
	var store repositories.Store = repositories.NewGormStore(d.DB)
	if d.Cache != nil {
		store = repositories.NewCachedStore(store, d.Cache, config.CacheTTL())
	}

	pool := workerpool.New(4)
	bus := event.NewBus(pool)
	notifications.Register(bus, d.Queue, d.Sender, d.Shop)
	notifier := notifications.NewEventNotifier(bus)
	exporter := exporters.NewStorageExporter(d.Disk, d.ReportDir, d.Shop)

	return &App{
		DB:         d.DB,
		Store:      store,
		Queue:      d.Queue,
		Bus:        bus,
		Exporter:   exporter,
		Customers:  services.NewCustomerService(store, d.Options...),
		Categories: services.NewCategoryService(store),
		Orders:     services.NewOrderService(store, notifier, d.Options...),
		Reports:    services.NewReportService(store, exporter, notifier, d.Options...),
		Dashboard:  services.NewDashboardService(store, d.Options...),
		pool:       pool,
		drainOnEnd: d.DrainOnClose,
	}
}

// Boot reads the configuration and connects every backend it names.
// Close must be called when the command is done.
func Boot(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}

	var closers []func()
	if uri := config.LogMongoURI(); uri != "" {
		closeSink, err := logger.EnableMongo(uri, config.Get("LOG_MONGO_DB", "darzi"), config.Get("LOG_MONGO_COLLECTION", "logs"))
		if err != nil {
			logger.Warn("bootstrap: mongo log sink disabled", "error", err)
		} else {
			closers = append(closers, closeSink)
		}
	}

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Exporter:    config.TracesExporter(),
		Endpoint:    config.OTLPEndpoint(),
		ServiceName: config.ServiceName(),
		Writer:      os.Stderr,
	})
	if err != nil {
		logger.Warn("bootstrap: tracing disabled", "error", err)
	} else {
		closers = append(closers, func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(sctx); err != nil {
				logger.Warn("bootstrap: flush traces", "error", err)
			}
		})
	}

	db, err := database.Connect()
	if err != nil {
		return nil, err
	}

	c, err := cache.Connect(ctx)
	if err != nil {
		logger.Warn("bootstrap: redis unavailable, using memory cache", "error", err)
	}

	disks, err := storage.Connect(ctx)
	if err != nil {
		return nil, err
	}
	disk, err := disks.Default()
	if err != nil {
		return nil, err
	}

	q, memoryQueue, err := queueFor(c)
	if err != nil {
		return nil, err
	}
	q.UseDB(db)

	app := New(Deps{
		DB:           db,
		Cache:        c,
		Disk:         disk,
		Queue:        q,
		Sender:       dispatcher(),
		Options:      Options(),
		Shop:         config.ShopName(),
		ReportDir:    config.ReportDir(),
		DrainOnClose: memoryQueue,
	})
	app.closers = closers
	return app, nil
}

// Options are the service options taken from configuration.
func Options() []services.Option {
	loc, err := config.LoadShopLocation()
	if err != nil {
		logger.Warn("bootstrap: shop timezone unavailable, report days use UTC", "error", err)
	}
	return []services.Option{
		services.WithLocation(loc),
		services.WithOrderPrefix(config.OrderPrefix()),
		services.WithDelayedAfter(config.DelayedAfter()),
	}
}

func queueFor(c cache.Cache) (*queue.Manager, bool, error) {
	switch config.QueueDriver() {
	case "redis":
		r, ok := c.(*cache.Redis)
		if !ok {
			return nil, false, fmt.Errorf("bootstrap: QUEUE_DRIVER=redis needs a reachable REDIS_ADDR")
		}
		return queue.New(queue.NewRedisDriver(r.Client())), false, nil
	case "memory", "":
		return queue.New(queue.NewMemoryDriver(config.Int("QUEUE_SIZE", 256))), true, nil
	default:
		return nil, false, fmt.Errorf("bootstrap: unknown QUEUE_DRIVER %q", config.QueueDriver())
	}
}

func dispatcher() *notification.Dispatcher {
	cfg := notification.Config{
		SlackWebhookURL: config.SlackWebhookURL(),
		WebhookURL:      config.NotifyWebhookURL(),
		MailTo:          config.NotifyEmail(),
	}
	if cfg.MailTo != "" {
		cfg.Mailer = mail.NewSMTPSender(mail.FromConfig())
	}
	return notification.NewDispatcher(cfg)
}

// Schedule registers the daily report on s.
func (a *App) Schedule(s *schedule.Scheduler, cron string) error {
	return s.Cron(cron).Name("daily-report").WithoutOverlapping().Run(a.DailyReport)
}

// DailyReport exports today's report in the default format.
func (a *App) DailyReport(ctx context.Context) error {
	r, art, err := a.Reports.Export(ctx, models.ReportRequest{Type: models.ReportDaily})
	if err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("daily report exported", "orders", r.OrderCount, "path", art.Path)
	return nil
}

// Close waits for background listeners and, with the in-process queue,
// delivers whatever they queued before releasing connections.
func (a *App) Close(ctx context.Context) {
	a.pool.Shutdown()
	if a.drainOnEnd {
		if n, err := a.Queue.Drain(ctx); err != nil {
			logger.Warn("bootstrap: queue drain stopped", "processed", n, "error", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
