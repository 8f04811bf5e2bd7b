package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poskit/billingd/config"
	"github.com/poskit/billingd/internal/app"
	"github.com/poskit/billingd/internal/webapi"
	"github.com/poskit/billingd/internal/webserver"
	"go.uber.org/zap"
)

var (
	h        = flag.Bool("h", false, "help usage")
	showVer  = flag.Bool("v", false, "show version")
	conffile = flag.String("c", "/etc/billingd.yml", "config file")
	initdb   = flag.Bool("initdb", false, "drop and recreate the journal tables")
)

var (
	BuildVersion = "dev"
)

func main() {
	flag.Parse()
	if *h {
		flag.Usage()
		os.Exit(0)
	}
	if *showVer {
		fmt.Println(BuildVersion)
		os.Exit(0)
	}

	cfg := config.LoadConfig(*conffile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.L().Info("journal database initialized")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	application.StartBackgroundJobs(ctx)

	webserver.Init(cfg)
	webapi.Init(webapi.Deps{
		Snapshot:  application.Snapshot(),
		Refresher: application.Refresher(),
		Cart:      application.Cart(),
		Finalizer: application.Finalizer(),
		Journal:   application.Journal(),
		Renderer:  application.Renderer(),
		Mailer:    application.Mailer(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- webserver.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zap.L().Fatal("web server failed", zap.Error(err))
		}
	case sig := <-quit:
		zap.L().Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := webserver.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("web server shutdown error", zap.Error(err))
		}
	}
}
