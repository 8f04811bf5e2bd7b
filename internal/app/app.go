package app

import (
	"context"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/poskit/billingd/config"
	"github.com/poskit/billingd/internal/billing"
	"github.com/poskit/billingd/internal/catalog"
	"github.com/poskit/billingd/internal/domain"
	"github.com/poskit/billingd/internal/invoice"
	"github.com/poskit/billingd/internal/journal"
	"github.com/poskit/billingd/pkg/common"
	"github.com/poskit/billingd/pkg/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

// Application wires the register together: catalog snapshot and
// refresher, the cart, the finalizer, invoice rendering, the sales
// journal and the background jobs that keep them healthy.
type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	sched     *cron.Cron
	bus       EventBus.Bus
	settings  *SettingsManager
	snapshot  *catalog.Snapshot
	cache     *catalog.Cache
	client    *catalog.Client
	refresher *catalog.Refresher
	cart      *billing.Cart
	renderer  *invoice.Renderer
	mailer    *invoice.Mailer
	journal   journal.Journal
	finalizer *billing.Finalizer
}

// Ensure Application implements all provider interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ BusProvider       = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ SettingsProvider  = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig     { return a.appConfig }
func (a *Application) DB() *gorm.DB                  { return a.gormDB }
func (a *Application) Bus() EventBus.Bus             { return a.bus }
func (a *Application) Scheduler() *cron.Cron         { return a.sched }
func (a *Application) Settings() *SettingsManager    { return a.settings }
func (a *Application) Snapshot() *catalog.Snapshot   { return a.snapshot }
func (a *Application) Refresher() *catalog.Refresher { return a.refresher }
func (a *Application) Cart() *billing.Cart           { return a.cart }
func (a *Application) Finalizer() *billing.Finalizer { return a.finalizer }
func (a *Application) Journal() journal.Journal      { return a.journal }
func (a *Application) Renderer() *invoice.Renderer   { return a.renderer }
func (a *Application) Mailer() *invoice.Mailer       { return a.mailer }

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	a.initLogger(cfg)

	common.MakeDir(cfg.System.Workdir)
	common.MakeDir(cfg.GetDataDir())
	common.MakeDir(cfg.GetLogDir())

	if err := metrics.InitMetrics(cfg.System.Workdir); err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	a.settings = NewSettingsManager(a.gormDB)
	a.settings.checkDefaults()

	a.bus = EventBus.New()

	a.snapshot = catalog.NewSnapshot()
	cache, err := catalog.OpenCache(filepath.Join(cfg.GetDataDir(), "catalog.db"))
	if err != nil {
		zap.L().Warn("snapshot cache unavailable, running without it", zap.Error(err))
	} else {
		a.cache = cache
	}
	a.client = catalog.NewClient(cfg.Catalog)
	a.refresher = catalog.NewRefresher(a.client, a.snapshot, a.cache, a.bus)

	a.cart = billing.NewCart(a.snapshot, a.bus)
	a.renderer = invoice.NewRenderer(a.settings)
	a.mailer = invoice.NewMailer(cfg.Smtp)
	a.journal = journal.NewGormJournal(a.gormDB)
	a.finalizer = billing.NewFinalizer(a.cart, a.client, a.renderer, a.journal, journal.EncodeItems, a.bus)

	a.initSubscriptions()
	a.initJob()
}

func (a *Application) initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	var err error
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}
	zap.ReplaceGlobals(logger)
}

// initSubscriptions wires the event bus contracts: every cart mutation
// refreshes the live-bill gauge, every finalized sale refreshes the
// catalog snapshot so the next sale sees decremented stock.
func (a *Application) initSubscriptions() {
	_ = a.bus.SubscribeAsync(billing.TopicCartChanged, func(bill domain.Bill) {
		metrics.SetGauge("billing_cart_total_paise", int64(bill.Total*100))
	}, false)

	_ = a.bus.SubscribeAsync(billing.TopicFinalized, func(invoiceNo string) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.refresher.Refresh(ctx); err != nil {
			zap.L().Warn("post-finalize catalog refresh failed",
				zap.String("invoice_no", invoiceNo), zap.Error(err))
		}
	}, false)
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if err2, ok := err1.(error); ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	if track {
		if err := a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	} else {
		if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	}
	return nil
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
		zap.S().Error(err)
	}
}

// StartBackgroundJobs warms the snapshot and lets the scheduler run.
func (a *Application) StartBackgroundJobs(ctx context.Context) {
	go a.refresher.WarmUp(ctx)
}

// Release releases application resources.
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
