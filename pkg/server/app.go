package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/adityamasineedi/mcpcrypto-sub001/internal/handler/chat"
	domrepo "github.com/adityamasineedi/mcpcrypto-sub001/internal/domain/repository"
	"github.com/adityamasineedi/mcpcrypto-sub001/internal/usecase"
	pkgch "github.com/adityamasineedi/mcpcrypto-sub001/pkg/clickhouse"
	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
	xhttp "github.com/adityamasineedi/mcpcrypto-sub001/pkg/http"
	pkgkafka "github.com/adityamasineedi/mcpcrypto-sub001/pkg/kafka"
	applogger "github.com/adityamasineedi/mcpcrypto-sub001/pkg/logger"
	pkgqueue "github.com/adityamasineedi/mcpcrypto-sub001/pkg/queue"
)

// Deps carries the wired application components. Optional integrations
// are nil when disabled in config.
type Deps struct {
	Logger    *applogger.Logger
	Generator *usecase.SignalGenerator
	Workflow  *usecase.ApprovalWorkflow
	Pipeline  *usecase.EventPipeline
	Router    *usecase.EventRouter
	Collector *usecase.PriceCollector
	Consumer  *pkgkafka.Consumer
	EventsKH  pkgkafka.MessageHandler
	Queue     *pkgqueue.RedisQueue
	Poller    *chat.TelegramPoller
	Handler   xhttp.Handler
	CHClient  *pkgch.Client
	History   domrepo.HistoryStore
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	d          Deps
	httpServer *xhttp.Server
}

func New(cfg *config.Config, d Deps) *App {
	return &App{cfg: cfg, d: d}
}

// Run starts every component and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.d.Logger

	if a.d.History != nil {
		if err := a.d.History.Init(ctx); err != nil {
			l.Error("history init error", applogger.Error(err))
			return err
		}
	}

	// Event delivery before anything can emit.
	a.d.Pipeline.Start(ctx)

	a.httpServer = xhttp.NewServer(a.d.Handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.d.Collector != nil {
		if err := a.d.Collector.Start(ctx); err != nil {
			l.Warn("price stream start error", applogger.Error(err))
		} else {
			l.Info("price stream started", applogger.Strings("symbols", a.cfg.Market.Symbols))
		}
	}

	if a.d.Consumer != nil && a.d.EventsKH != nil {
		a.d.Consumer.RegisterHandler(a.d.EventsKH)
		go func() {
			if err := a.d.Consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.d.EventsKH.Topic()))
	}

	if a.d.Queue != nil {
		if err := a.d.Queue.Start(); err != nil {
			l.Error("queue start error", applogger.Error(err))
		}
	}

	if a.d.Poller != nil {
		go a.d.Poller.Run(ctx)
		l.Info("telegram poller started")
	}

	go a.d.Generator.Run(ctx)
	l.Info("signal generator started",
		applogger.Strings("symbols", a.cfg.Market.Symbols),
		applogger.Duration("scan_interval", a.cfg.Trading.ScanInterval))

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops components in reverse dependency order: first the
// sources of new work, then the workflow, then delivery, then clients.
func (a *App) shutdown() error {
	l := a.d.Logger

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.d.Collector != nil {
		if err := a.d.Collector.Stop(); err != nil {
			l.Warn("price stream stop error", applogger.Error(err))
		}
	}

	// Reject whatever is still pending so waiters unblock, then flush
	// the resulting events.
	a.d.Workflow.Shutdown()
	a.d.Pipeline.Stop()
	a.d.Router.Close()

	if a.d.Consumer != nil {
		if err := a.d.Consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.d.Queue != nil {
		if err := a.d.Queue.Stop(shutdownCtx); err != nil {
			l.Warn("queue stop error", applogger.Error(err))
		}
	}

	if a.d.CHClient != nil {
		if err := a.d.CHClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
