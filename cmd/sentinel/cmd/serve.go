package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"YieldSentinel/internal/api"
	"YieldSentinel/internal/metrics"
	"YieldSentinel/internal/notifier"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scan loop, HTTP API and Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return serve(ctx, a)
	},
}

func serve(ctx context.Context, a *app) error {
	a.log.Info("YieldSentinel starting")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	a.scheduler.AddObserver(m)

	commands := &notifier.Commands{Reviewer: a.decisions, Scanner: a.scheduler, Totals: a.store}
	var bot *notifier.TelegramNotifier
	if a.cfg.TelegramEnabled() {
		chatID, err := a.cfg.TelegramChatID()
		if err != nil {
			return err
		}
		bot, err = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, chatID, a.cfg.Proxy, commands, a.store, a.log)
		if err != nil {
			return err
		}
		a.scheduler.AddObserver(bot)
	} else {
		a.log.Info("telegram disabled, no bot token configured")
	}

	srv := api.NewServer(ctx, api.Deps{
		Store:      a.store,
		Settings:   a.settings,
		Strategies: a.strategies,
		Decisions:  a.decisions,
		Scheduler:  a.scheduler,
		Metrics:    m,
		Gatherer:   reg,
		Log:        a.log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, a.cfg.HTTP.Addr)
	})
	if bot != nil {
		g.Go(func() error {
			return bot.Run(gctx)
		})
	}
	g.Go(func() error {
		a.scheduler.Start(gctx)
		<-gctx.Done()
		a.scheduler.Stop()
		// Let an in-flight cycle finish before the store closes.
		a.scheduler.Wait()
		return nil
	})

	a.log.Info("YieldSentinel is running", zap.String("http_addr", a.cfg.HTTP.Addr))
	err := g.Wait()
	a.log.Info("YieldSentinel stopped")
	return err
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
